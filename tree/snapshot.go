package tree

// Elem is a plain value copy of a node and its descendants.
//
// Elem is meant for debugging and for comparing trees in tests. It
// is not connected to the node it was taken from.
type Elem struct {
	Tag      string
	Text     string
	Attrs    map[string]string
	Children []Elem
}

// Snapshot returns an Elem copy of n.
func Snapshot(n Node) Elem {
	ret := Elem{
		Tag:  n.Tag(),
		Text: n.Text(),
	}
	if names := n.AttrNames(); len(names) > 0 {
		ret.Attrs = make(map[string]string, len(names))
		for _, name := range names {
			ret.Attrs[name], _ = n.Attr(name)
		}
	}
	for _, c := range n.Children() {
		ret.Children = append(ret.Children, Snapshot(c))
	}
	return ret
}
