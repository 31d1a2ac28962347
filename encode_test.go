package objtree_test

import (
	"errors"
	"testing"

	"github.com/creachadair/mds/mapset"
	"github.com/danderson/objtree"
	"github.com/danderson/objtree/tree"
	"github.com/danderson/objtree/treetest"
	"github.com/google/go-cmp/cmp"
)

// el is shorthand for building expected trees.
func el(tag, text string, children ...tree.Elem) tree.Elem {
	return tree.Elem{Tag: tag, Text: text, Children: children}
}

func withAttrs(e tree.Elem, kv ...string) tree.Elem {
	e.Attrs = map[string]string{}
	for i := 0; i < len(kv); i += 2 {
		e.Attrs[kv[i]] = kv[i+1]
	}
	return e
}

func TestMarshal(t *testing.T) {
	type Fixed struct {
		Vals [3]int `tree:"Vals/V"`
	}
	type Set struct {
		Colors mapset.Set[Color] `tree:"Colors/Color"`
	}
	type Keyed struct {
		Limits map[string]int `tree:"Limits"`
	}
	type EnumKeyed struct {
		Limits map[Color]int `tree:"Limits"`
	}
	type StructKey struct {
		Labels map[Point]string `tree:"Labels/Label"`
	}
	type Entries struct {
		Points map[string]Point `tree:"Points/Point,entry"`
	}
	type EntryPaths struct {
		Limits map[string]int `tree:"Limits/Limit,key=name,value=Max/Value"`
	}
	type Inline struct {
		Limits map[int]string `tree:"Limits/Limit,key=id,value=."`
	}
	type Item struct {
		Price Price `tree:"Price"`
	}
	type Blob struct {
		Data []byte
	}
	type Versioned struct {
		Version Version
	}
	type Floats struct {
		A, B, C, D float64
	}
	type Optional struct {
		Origin *Point `tree:"Origin"`
		Tags   *[]string `tree:"Tags/Tag"`
	}

	tests := []struct {
		name string
		in   any
		want tree.Elem
	}{
		{
			"end to end",
			Player{Name: "Alice", Tags: []string{"x", "y"}},
			el("Root", "",
				el("Name", "Alice"),
				el("Tags", "",
					el("Tag", "x"),
					el("Tag", "y"))),
		},
		{
			"optional present",
			Player{Name: "Bob", Score: ptr(2.5)},
			el("Root", "",
				el("Name", "Bob"),
				el("Score", "2.5")),
		},
		{
			"attributes",
			Point{1, 2},
			withAttrs(el("Root", ""), "x", "1", "y", "2"),
		},
		{
			"text and attribute",
			Item{Price{12.5, "EUR"}},
			el("Root", "",
				withAttrs(el("Price", "12.5"), "currency", "EUR")),
		},
		{
			"embedded",
			Derived{Base{7}, "seven"},
			withAttrs(el("Root", "",
				el("Name", "seven")), "id", "7"),
		},
		{
			"fixed array",
			Fixed{[3]int{1, 2, 3}},
			el("Root", "",
				el("Vals", "",
					el("V", "1"),
					el("V", "2"),
					el("V", "3"))),
		},
		{
			"set",
			Set{mapset.New(Red, Blue)},
			el("Root", "",
				el("Colors", "",
					el("Color", "Blue"),
					el("Color", "Red"))),
		},
		{
			"empty set",
			Set{mapset.New[Color]()},
			el("Root", ""),
		},
		{
			"key as tag",
			Keyed{map[string]int{"b": 2, "a": 1}},
			el("Root", "",
				el("Limits", "",
					el("a", "1"),
					el("b", "2"))),
		},
		{
			"enum key as tag",
			EnumKeyed{map[Color]int{Red: 1, Blue: 2}},
			el("Root", "",
				el("Limits", "",
					el("Blue", "2"),
					el("Red", "1"))),
		},
		{
			"struct key",
			StructKey{map[Point]string{{1, 2}: "one"}},
			el("Root", "",
				el("Labels", "",
					withAttrs(el("Label", "",
						el("Value", "one")), "x", "1", "y", "2"))),
		},
		{
			"entry option",
			Entries{map[string]Point{"a": {3, 4}}},
			el("Root", "",
				el("Points", "",
					withAttrs(el("Point", "",
						el("Key", "a")), "x", "3", "y", "4"))),
		},
		{
			"entry sub-paths",
			EntryPaths{map[string]int{"cpu": 4, "mem": 8}},
			el("Root", "",
				el("Limits", "",
					el("Limit", "",
						el("name", "cpu"),
						el("Max", "",
							el("Value", "4"))),
					el("Limit", "",
						el("name", "mem"),
						el("Max", "",
							el("Value", "8"))))),
		},
		{
			"inline entry value",
			Inline{map[int]string{2: "two", 1: "one"}},
			el("Root", "",
				el("Limits", "",
					el("Limit", "one",
						el("id", "1")),
					el("Limit", "two",
						el("id", "2")))),
		},
		{
			"variant",
			Drawing{Shape: variant2A[Circle, Square](Circle{2})},
			el("Root", "",
				el("Shape", "",
					el("Circle", "",
						el("Radius", "2")))),
		},
		{
			"variant second alternative",
			Drawing{Shape: variant2B[Circle](Square{3})},
			el("Root", "",
				el("Shape", "",
					el("Square", "",
						el("Side", "3")))),
		},
		{
			"unset variant",
			Drawing{},
			el("Root", ""),
		},
		{
			"bytes",
			Blob{[]byte{1, 2, 3}},
			el("Root", "",
				el("Data", "AQID")),
		},
		{
			"marshaler",
			Versioned{Version{1, 2}},
			el("Root", "",
				el("Version", "1.2")),
		},
		{
			"floats",
			Floats{0, 1e-6, 123456.789, 100},
			el("Root", "",
				el("A", "0"),
				el("B", "1e-06"),
				el("C", "1.234568e+05"),
				el("D", "100")),
		},
		{
			"absent optionals",
			Optional{},
			el("Root", ""),
		},
		{
			"empty optional sequence",
			Optional{Tags: &[]string{}},
			el("Root", ""),
		},
		{
			"recursive",
			Dir{"a", []Dir{{"b", nil}, {"c", []Dir{{"d", nil}}}}},
			withAttrs(el("Root", "",
				withAttrs(el("Dir", ""), "name", "b"),
				withAttrs(el("Dir", "",
					withAttrs(el("Dir", ""), "name", "d")), "name", "c")), "name", "a"),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := treetest.New("Root")
			if err := objtree.Marshal(root, tc.in); err != nil {
				t.Fatalf("Marshal(%T) got err: %v", tc.in, err)
			}
			got := tree.Snapshot(root)
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("Marshal(%T) wrong tree (-got+want):\n%s", tc.in, diff)
			}
		})
	}
}

func variant2A[A, B any](a A) objtree.Variant2[A, B] {
	var ret objtree.Variant2[A, B]
	ret.SetA(a)
	return ret
}

func variant2B[A, B any](b B) objtree.Variant2[A, B] {
	var ret objtree.Variant2[A, B]
	ret.SetB(b)
	return ret
}

func TestMarshalErrors(t *testing.T) {
	type ShortNames struct {
		V objtree.Variant2[int, string] `tree:"V,variant=A"`
	}
	type NoNames struct {
		V objtree.Variant2[int, string] `tree:"V"`
	}
	type NotVariant struct {
		V int `tree:"V,variant=A|B"`
	}
	type Nested struct {
		X [][]int `tree:"X/Y"`
	}
	type NestedMap struct {
		X map[string][]int `tree:"X"`
	}
	type BadAttr struct {
		P Point `tree:"p,attr"`
	}
	type BadTag struct {
		X int `tree:"X,bogus"`
	}
	type BadEntry struct {
		X []int `tree:"X/Y,entry"`
	}
	type Chan struct {
		C chan int
	}

	tests := []struct {
		name     string
		in       any
		typeErr  bool
		emptyErr bool
	}{
		{"variant name count", ShortNames{}, true, false},
		{"variant without names", NoNames{}, true, false},
		{"variant option on scalar", NotVariant{}, true, false},
		{"nested slices", Nested{}, true, false},
		{"nested map values", NestedMap{}, true, false},
		{"struct attribute", BadAttr{}, true, false},
		{"unknown option", BadTag{}, true, false},
		{"entry on slice", BadEntry{}, true, false},
		{"channel", Chan{}, true, false},
		{"top level slice", []int{1}, true, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := treetest.New("Root")
			err := objtree.Marshal(root, tc.in)
			if err == nil {
				t.Fatalf("Marshal(%T) succeeded, want error", tc.in)
			}
			var te objtree.TypeError
			if got := errors.As(err, &te); got != tc.typeErr {
				t.Errorf("Marshal(%T) err is TypeError = %v, want %v (err: %v)", tc.in, got, tc.typeErr, err)
			}
			if got := errors.Is(err, objtree.ErrEmptyPath); got != tc.emptyErr {
				t.Errorf("Marshal(%T) err is ErrEmptyPath = %v, want %v (err: %v)", tc.in, got, tc.emptyErr, err)
			}
			if !root.IsEmpty() {
				t.Errorf("Marshal(%T) wrote to the tree on error:\n%s", tc.in, root)
			}
		})
	}
}

func TestWrite(t *testing.T) {
	var e objtree.Encoder
	root := treetest.New("Root")

	if err := e.Write(root, "Tags/Tag", []string{"x", "y"}); err != nil {
		t.Fatalf("Write(Tags/Tag) got err: %v", err)
	}
	if err := e.Write(root, "id,attr", 42); err != nil {
		t.Fatalf("Write(id,attr) got err: %v", err)
	}
	if err := e.Write(root, "Shapes/Shape,variant=Circle|Square", []objtree.Variant2[Circle, Square]{
		variant2A[Circle, Square](Circle{1}),
		variant2B[Circle](Square{2}),
	}); err != nil {
		t.Fatalf("Write(Shapes) got err: %v", err)
	}
	if err := objtree.WriteEnum(&e, root, "Color", Blue, Color.MarshalEnum); err != nil {
		t.Fatalf("WriteEnum got err: %v", err)
	}

	want := withAttrs(el("Root", "",
		el("Tags", "",
			el("Tag", "x"),
			el("Tag", "y")),
		el("Shapes", "",
			el("Shape", "",
				el("Circle", "",
					el("Radius", "1"))),
			el("Shape", "",
				el("Square", "",
					el("Side", "2")))),
		el("Color", "Blue")), "id", "42")
	if diff := cmp.Diff(tree.Snapshot(root), want); diff != "" {
		t.Errorf("Write wrong tree (-got+want):\n%s", diff)
	}
}

func TestWriteEmptyPath(t *testing.T) {
	var e objtree.Encoder
	tests := []struct {
		loc string
		v   any
	}{
		{"", 1},
		{"/", "x"},
		{"", []string{"x"}},
		{".", Point{}},
		{"", map[string]int{"a": 1}},
		{"", mapset.New(1)},
		{"", ptr(1)},
	}
	for _, tc := range tests {
		root := treetest.New("Root")
		err := e.Write(root, tc.loc, tc.v)
		if !errors.Is(err, objtree.ErrEmptyPath) {
			t.Errorf("Write(%q, %T) got err %v, want ErrEmptyPath", tc.loc, tc.v, err)
		}
		if !root.IsEmpty() {
			t.Errorf("Write(%q, %T) wrote to the tree:\n%s", tc.loc, tc.v, root)
		}
	}

	root := treetest.New("Root")
	if err := objtree.WriteEnum(&e, root, "", Red, Color.MarshalEnum); !errors.Is(err, objtree.ErrEmptyPath) {
		t.Errorf("WriteEnum(\"\") got err %v, want ErrEmptyPath", err)
	}
}

func TestFormatFloatOverride(t *testing.T) {
	e := objtree.Encoder{
		FormatFloat: objtree.FloatFormat{Precision: 2, SciBelow: 0.01, SciAbove: 1000}.Format,
	}
	root := treetest.New("Root")
	type Floats struct {
		A, B, C float64
		D       float32
	}
	if err := e.Marshal(root, Floats{3.14159, 0.001, 12345, 0.5}); err != nil {
		t.Fatalf("Marshal got err: %v", err)
	}
	want := el("Root", "",
		el("A", "3.14"),
		el("B", "1e-03"),
		el("C", "1.23e+04"),
		el("D", "0.5"))
	if diff := cmp.Diff(tree.Snapshot(root), want); diff != "" {
		t.Errorf("Marshal wrong tree (-got+want):\n%s", diff)
	}
}
