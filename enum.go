package objtree

import (
	"reflect"

	"github.com/danderson/objtree/tree"
)

// EnumMarshaler is implemented by enumerated types, which are written
// as the name of their value.
//
// An enumerated type must implement both EnumMarshaler and
// [EnumUnmarshaler]. Enumerated values can appear anywhere a scalar
// can: as fields, attributes, elements of sequences and sets, and as
// map keys.
type EnumMarshaler interface {
	MarshalEnum() string
}

// EnumUnmarshaler is implemented by enumerated types. UnmarshalEnum
// must have a pointer receiver.
//
// UnmarshalEnum cannot fail: given a name it does not recognize, it
// must store a designated fallback value, usually the type's zero
// value.
type EnumUnmarshaler interface {
	UnmarshalEnum(string)
}

var (
	enumMarshalerType   = reflect.TypeFor[EnumMarshaler]()
	enumUnmarshalerType = reflect.TypeFor[EnumUnmarshaler]()
)

// EnumTable maps the values of an enumerated type to their names.
// Names must be unique within a table.
//
// It provides the two conversion functions an enumerated type needs:
//
//	type Color int
//
//	var colorNames = objtree.EnumTable[Color]{
//	    None: "None",
//	    Red:  "Red",
//	    Blue: "Blue",
//	}
//
//	func (c Color) MarshalEnum() string    { return colorNames.Name(c) }
//	func (c *Color) UnmarshalEnum(s string) { *c = colorNames.Value(s) }
type EnumTable[E comparable] map[E]string

// Name returns the name of e, or "" if e has none.
func (t EnumTable[E]) Name(e E) string {
	return t[e]
}

// Value returns the value named s. If no value has that name, Value
// returns the zero E.
func (t EnumTable[E]) Value(s string) E {
	for e, name := range t {
		if name == s {
			return e
		}
	}
	var zero E
	return zero
}

// WriteEnum writes the name of v, as given by name, at path beneath
// n.
//
// WriteEnum is for enumerated values whose type does not implement
// [EnumMarshaler], or that need a different set of names in one
// place.
func WriteEnum[E any](e *Encoder, n tree.Node, path string, v E, name func(E) string) error {
	p := tree.ParsePath(path)
	if len(p) == 0 {
		return pathErr(p)
	}
	tree.InsertAll(n, p).SetText(name(v))
	return nil
}

// ReadEnum reads the enumerated value at path beneath n into v, using
// parse to convert its name. If there is nothing at path, v is left
// unchanged.
//
// parse must not fail: unknown names must map to a fallback value.
func ReadEnum[E any](d *Decoder, n tree.Node, path string, v *E, parse func(string) E) error {
	p := tree.ParsePath(path)
	if len(p) == 0 {
		return pathErr(p)
	}
	target, ok := tree.FindLast(n, p)
	if !ok {
		return nil
	}
	*v = parse(target.Text())
	return nil
}
