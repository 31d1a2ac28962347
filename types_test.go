package objtree_test

import (
	"fmt"

	"github.com/creachadair/mds/mapset"
	"github.com/danderson/objtree"
	"github.com/danderson/objtree/tree"
)

// Color is an enumerated type.
type Color int

const (
	None Color = iota
	Red
	Blue
)

var colorNames = objtree.EnumTable[Color]{
	None: "None",
	Red:  "Red",
	Blue: "Blue",
}

func (c Color) MarshalEnum() string     { return colorNames.Name(c) }
func (c *Color) UnmarshalEnum(s string) { *c = colorNames.Value(s) }

// Player is the basic struct from the package documentation.
type Player struct {
	Name  string   `tree:"Name"`
	Tags  []string `tree:"Tags/Tag"`
	Score *float64 `tree:"Score"`
}

// Point is a struct made entirely of attributes.
type Point struct {
	X int `tree:"x,attr"`
	Y int `tree:"y,attr"`
}

// Price has text next to an attribute.
type Price struct {
	Amount   float64 `tree:",text"`
	Currency string  `tree:"currency,attr"`
}

type Circle struct {
	Radius float64
}

type Square struct {
	Side float64
}

// Drawing holds a variant.
type Drawing struct {
	Shape objtree.Variant2[Circle, Square] `tree:"Shape,variant=Circle|Square"`
}

// Version implements Marshaler and Unmarshaler on pointer receivers.
type Version struct {
	Major, Minor int
}

func (v *Version) MarshalTree(e *objtree.Encoder, n tree.Node) error {
	n.SetText(fmt.Sprintf("%d.%d", v.Major, v.Minor))
	return nil
}

func (v *Version) UnmarshalTree(d *objtree.Decoder, n tree.Node) error {
	_, err := fmt.Sscanf(n.Text(), "%d.%d", &v.Major, &v.Minor)
	return err
}

// Base is embedded in Derived.
type Base struct {
	ID int `tree:"id,attr"`
}

type Derived struct {
	Base
	Name string
}

// Dir is a recursive type.
type Dir struct {
	Name string `tree:"name,attr"`
	Dirs []Dir  `tree:"Dir"`
}

// Everything uses every shape at once.
type Everything struct {
	ID       int                                   `tree:"id,attr"`
	Label    *string                               `tree:"label,attr"`
	Name     string                                `tree:"Name"`
	Enabled  bool                                  `tree:"Enabled"`
	Ratio    float64                               `tree:"Settings/Ratio"`
	Count    uint16                                `tree:"Count"`
	Data     []byte                                `tree:"Data"`
	Color    Color                                 `tree:"Color"`
	Version  Version                               `tree:"Version"`
	Price    Price                                 `tree:"Price"`
	Origin   *Point                                `tree:"Origin"`
	Tags     []string                              `tree:"Tags/Tag"`
	Maybe    *[]int                                `tree:"Maybe/Item"`
	Fixed    [3]int                                `tree:"Fixed/V"`
	Colors   mapset.Set[Color]                     `tree:"Colors/Color"`
	Limits   map[string]int                        `tree:"Limits"`
	ByColor  map[Color]Point                       `tree:"ByColor"`
	Labels   map[Point]string                      `tree:"Labels/Label"`
	Points   map[string]Point                      `tree:"Points/Point,entry"`
	Shape    objtree.Variant2[Circle, Square]      `tree:"Shape,variant=Circle|Square"`
	Shapes   []objtree.Variant2[Circle, Square]    `tree:"Shapes/Shape,variant=Circle|Square"`
	MaybeVar *objtree.Variant3[int, string, Point] `tree:".,variant=Int|Str|Pt"`
	Skipped  string                                `tree:"-"`
}

// Sparse holds collections whose elements may be nil.
type Sparse struct {
	Vals   []*int          `tree:"Vals/V"`
	ByName map[string]*int `tree:"ByName"`
	Points []*Point        `tree:"Points/Point"`
}

func ptr[T any](v T) *T { return &v }
