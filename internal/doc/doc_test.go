package doc

import (
	"testing"

	"github.com/danderson/objtree/tree"
	"github.com/google/go-cmp/cmp"
)

func TestStableHandles(t *testing.T) {
	d := New("Root")
	root := d.Root()
	first := root.Add("Item")
	first.SetText("first")
	// Grow the store well past its initial capacity, so that the
	// backing slice is reallocated several times.
	for range 100 {
		root.Add("Item").SetText("more")
	}
	first.SetAttr("id", "1")

	if got, want := first.Text(), "first"; got != want {
		t.Errorf("first.Text() = %q, want %q", got, want)
	}
	if got, ok := first.Attr("id"); !ok || got != "1" {
		t.Errorf(`first.Attr("id") = %q, %v, want "1", true`, got, ok)
	}
	if got, want := root.NumChildren("Item"), 101; got != want {
		t.Errorf("NumChildren = %d, want %d", got, want)
	}
	if got, want := d.Len(), 102; got != want {
		t.Errorf("Len = %d, want %d", got, want)
	}
}

func TestNullNode(t *testing.T) {
	var n Node
	if !n.IsEmpty() {
		t.Error("null node is not empty")
	}
	if n.Valid() {
		t.Error("null node is valid")
	}
	if _, ok := n.FirstChild("x"); ok {
		t.Error("null node has a child")
	}
	if got := n.ChildrenNamed("x"); got == nil || len(got) != 0 {
		t.Errorf("ChildrenNamed on null node = %#v, want empty slice", got)
	}
}

func TestGroups(t *testing.T) {
	d := New("Root")
	root := d.Root()
	root.Add("A").SetText("1")
	root.Add("B").SetText("2")
	root.Add("A").SetText("3")

	var got []tree.Elem
	for _, g := range root.Groups() {
		e := tree.Elem{Tag: g.Tag}
		for _, n := range g.Nodes {
			e.Children = append(e.Children, tree.Snapshot(n))
		}
		got = append(got, e)
	}
	want := []tree.Elem{
		{Tag: "A", Children: []tree.Elem{{Tag: "A", Text: "1"}, {Tag: "A", Text: "3"}}},
		{Tag: "B", Children: []tree.Elem{{Tag: "B", Text: "2"}}},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Groups wrong (-got+want):\n%s", diff)
	}
}
