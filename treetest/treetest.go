// Package treetest provides an in-memory [tree.Node] for tests.
//
// The nodes are plain pointer trees with no document format behind
// them. They exist to exercise codecs independently of any real
// backend.
package treetest

import (
	"fmt"
	"slices"
	"strings"

	"github.com/danderson/objtree/tree"
)

// Node is an in-memory tree.Node.
type Node struct {
	tag      string
	text     string
	attrs    []attr
	children []*Node
}

type attr struct {
	name, value string
}

var _ tree.Node = (*Node)(nil)

// New returns a new root node with the given tag.
func New(tag string) *Node {
	return &Node{tag: tag}
}

// Build returns a root node constructed from e.
func Build(e tree.Elem) *Node {
	ret := New(e.Tag)
	ret.fill(e)
	return ret
}

func (n *Node) fill(e tree.Elem) {
	n.text = e.Text
	names := make([]string, 0, len(e.Attrs))
	for name := range e.Attrs {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		n.SetAttr(name, e.Attrs[name])
	}
	for _, c := range e.Children {
		n.AddChild(c.Tag).(*Node).fill(c)
	}
}

func (n *Node) IsEmpty() bool {
	return n == nil || (n.text == "" && len(n.children) == 0)
}

func (n *Node) Tag() string  { return n.tag }
func (n *Node) Text() string { return n.text }

func (n *Node) Children() []tree.Node {
	ret := make([]tree.Node, 0, len(n.children))
	for _, c := range n.children {
		ret = append(ret, c)
	}
	return ret
}

func (n *Node) FirstChild(name string) (tree.Node, bool) {
	for _, c := range n.children {
		if c.tag == name {
			return c, true
		}
	}
	return nil, false
}

func (n *Node) ChildrenNamed(name string) []tree.Node {
	ret := []tree.Node{}
	for _, c := range n.children {
		if c.tag == name {
			ret = append(ret, c)
		}
	}
	return ret
}

func (n *Node) NumChildren(name string) int {
	ret := 0
	for _, c := range n.children {
		if c.tag == name {
			ret++
		}
	}
	return ret
}

func (n *Node) HasChild(name string) bool {
	_, ok := n.FirstChild(name)
	return ok
}

func (n *Node) AddChild(name string) tree.Node {
	c := &Node{tag: name}
	n.children = append(n.children, c)
	return c
}

func (n *Node) SetText(text string) { n.text = text }

func (n *Node) SetAttr(name, value string) {
	for i := range n.attrs {
		if n.attrs[i].name == name {
			n.attrs[i].value = value
			return
		}
	}
	n.attrs = append(n.attrs, attr{name, value})
}

func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.name == name {
			return a.value, true
		}
	}
	return "", false
}

func (n *Node) AttrNames() []string {
	ret := make([]string, 0, len(n.attrs))
	for _, a := range n.attrs {
		ret = append(ret, a.name)
	}
	return ret
}

// String returns an indented outline of n, one node per line, for
// use in test failure messages.
func (n *Node) String() string {
	var ret strings.Builder
	n.outline(&ret, 0)
	return ret.String()
}

func (n *Node) outline(b *strings.Builder, depth int) {
	fmt.Fprintf(b, "%s%s", strings.Repeat("  ", depth), n.tag)
	for _, a := range n.attrs {
		fmt.Fprintf(b, " %s=%q", a.name, a.value)
	}
	if n.text != "" {
		fmt.Fprintf(b, " %q", n.text)
	}
	b.WriteByte('\n')
	for _, c := range n.children {
		c.outline(b, depth+1)
	}
}
