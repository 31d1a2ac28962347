package tree

// Node is a handle to one element of a hierarchical document.
//
// A node has a tag, an optional text payload, named attributes and an
// ordered list of children. Several children may share a tag, which
// is how repeated values are represented.
//
// Nodes are only ever grown: children and attributes can be added and
// text can be replaced, but nothing is removed. Handles returned by
// AddChild stay valid for the lifetime of the document, regardless of
// how many siblings are added afterwards.
type Node interface {
	// IsEmpty reports whether the node has neither text nor
	// children. Attributes are not considered.
	IsEmpty() bool
	// Tag returns the node's tag.
	Tag() string
	// Text returns the node's text, or "" if it has none.
	Text() string
	// Children returns all children in document order.
	Children() []Node
	// FirstChild returns the first child with the given tag.
	FirstChild(name string) (Node, bool)
	// ChildrenNamed returns all children with the given tag, in
	// document order. It returns an empty slice if there are none.
	ChildrenNamed(name string) []Node
	// NumChildren returns the number of children with the given tag.
	NumChildren(name string) int
	// HasChild reports whether a child with the given tag exists.
	HasChild(name string) bool

	// AddChild appends a new child with the given tag and returns
	// it. Calling AddChild repeatedly with the same name appends
	// further siblings.
	AddChild(name string) Node
	// SetText sets the node's text, replacing any previous text.
	SetText(text string)

	// SetAttr sets the named attribute.
	SetAttr(name, value string)
	// Attr returns the named attribute, if present.
	Attr(name string) (string, bool)
	// AttrNames returns the names of the node's attributes, in the
	// order they were first set.
	AttrNames() []string
}
