// Package doc implements the in-memory node store shared by the
// xmltree, jsontree and yamltree backends.
//
// All nodes of a document live in one slice, and a [Node] is an index
// into it. Growing the document never invalidates a Node, unlike
// pointers into per-parent child arrays.
package doc

import (
	"fmt"

	"github.com/danderson/objtree/tree"
)

// Document is a tree of nodes.
type Document struct {
	nodes []entry
}

type entry struct {
	tag      string
	text     string
	attrs    []attr
	children []int32
}

type attr struct {
	name, value string
}

// New returns a document whose root node has the given tag.
func New(root string) *Document {
	return &Document{
		nodes: []entry{{tag: root}},
	}
}

// Root returns the document's root node.
func (d *Document) Root() Node {
	return Node{d, 0}
}

// Len returns the number of nodes in the document.
func (d *Document) Len() int {
	return len(d.nodes)
}

// Node is a handle to a node in a [Document]. The zero Node is a
// null handle, which is empty and has no children.
type Node struct {
	d  *Document
	id int32
}

var _ tree.Node = Node{}

func (n Node) e() *entry {
	return &n.d.nodes[n.id]
}

// Valid reports whether n refers to a node.
func (n Node) Valid() bool {
	return n.d != nil
}

func (n Node) IsEmpty() bool {
	if n.d == nil {
		return true
	}
	e := n.e()
	return e.text == "" && len(e.children) == 0
}

func (n Node) Tag() string {
	if n.d == nil {
		return ""
	}
	return n.e().tag
}

func (n Node) Text() string {
	if n.d == nil {
		return ""
	}
	return n.e().text
}

// Kids returns n's children as concrete Nodes.
func (n Node) Kids() []Node {
	if n.d == nil {
		return nil
	}
	ids := n.e().children
	ret := make([]Node, 0, len(ids))
	for _, id := range ids {
		ret = append(ret, Node{n.d, id})
	}
	return ret
}

func (n Node) Children() []tree.Node {
	kids := n.Kids()
	ret := make([]tree.Node, 0, len(kids))
	for _, k := range kids {
		ret = append(ret, k)
	}
	return ret
}

func (n Node) FirstChild(name string) (tree.Node, bool) {
	if n.d == nil {
		return nil, false
	}
	for _, id := range n.e().children {
		if n.d.nodes[id].tag == name {
			return Node{n.d, id}, true
		}
	}
	return nil, false
}

func (n Node) ChildrenNamed(name string) []tree.Node {
	ret := []tree.Node{}
	if n.d == nil {
		return ret
	}
	for _, id := range n.e().children {
		if n.d.nodes[id].tag == name {
			ret = append(ret, Node{n.d, id})
		}
	}
	return ret
}

func (n Node) NumChildren(name string) int {
	if n.d == nil {
		return 0
	}
	ret := 0
	for _, id := range n.e().children {
		if n.d.nodes[id].tag == name {
			ret++
		}
	}
	return ret
}

func (n Node) HasChild(name string) bool {
	_, ok := n.FirstChild(name)
	return ok
}

func (n Node) AddChild(name string) tree.Node {
	return n.Add(name)
}

// Add is AddChild, returning the concrete Node type.
func (n Node) Add(name string) Node {
	id := int32(len(n.d.nodes))
	n.d.nodes = append(n.d.nodes, entry{tag: name})
	// Careful, the append above may have moved the parent's entry,
	// so it has to be looked up again.
	p := n.e()
	p.children = append(p.children, id)
	return Node{n.d, id}
}

func (n Node) SetText(text string) {
	n.e().text = text
}

func (n Node) SetAttr(name, value string) {
	e := n.e()
	for i := range e.attrs {
		if e.attrs[i].name == name {
			e.attrs[i].value = value
			return
		}
	}
	e.attrs = append(e.attrs, attr{name, value})
}

func (n Node) Attr(name string) (string, bool) {
	if n.d == nil {
		return "", false
	}
	for _, a := range n.e().attrs {
		if a.name == name {
			return a.value, true
		}
	}
	return "", false
}

func (n Node) AttrNames() []string {
	if n.d == nil {
		return nil
	}
	attrs := n.e().attrs
	ret := make([]string, 0, len(attrs))
	for _, a := range attrs {
		ret = append(ret, a.name)
	}
	return ret
}

// Group is a run of children sharing a tag.
type Group struct {
	Tag   string
	Nodes []Node
}

// Groups returns n's children grouped by tag. Groups are ordered by
// the first appearance of each tag, and nodes within a group keep
// document order.
//
// Groups is the property view of a node used by the JSON and YAML
// backends, where a tag that appears several times becomes an array.
func (n Node) Groups() []Group {
	var ret []Group
	idx := map[string]int{}
	for _, k := range n.Kids() {
		tag := k.Tag()
		i, ok := idx[tag]
		if !ok {
			i = len(ret)
			idx[tag] = i
			ret = append(ret, Group{Tag: tag})
		}
		ret[i].Nodes = append(ret[i].Nodes, k)
	}
	return ret
}

// CheckRoot returns an error wrapping [tree.ErrRootMismatch] if want
// is non-empty and differs from got.
func CheckRoot(want, got string) error {
	if want == "" || want == got {
		return nil
	}
	return fmt.Errorf("%w: got %q, want %q", tree.ErrRootMismatch, got, want)
}
