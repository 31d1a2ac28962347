package tree

// InsertAll adds one child per element of p, each beneath the
// previous one, and returns the deepest. If p is empty, InsertAll
// returns n.
func InsertAll(n Node, p Path) Node {
	for _, tag := range p {
		n = n.AddChild(tag)
	}
	return n
}

// InsertAllButLast is like [InsertAll], but stops one element short
// of the end of p. The caller is expected to add the last element
// itself, once per value of a collection.
func InsertAllButLast(n Node, p Path) Node {
	return InsertAll(n, p.Containers())
}

// FindParentOfLast follows the first matching child for every
// element of p except the last, and returns the node reached. It
// reports false as soon as an intermediate element is missing, or if
// p is empty.
//
// FindParentOfLast never adds nodes.
func FindParentOfLast(n Node, p Path) (Node, bool) {
	if len(p) == 0 {
		return nil, false
	}
	for _, tag := range p.Containers() {
		next, ok := n.FirstChild(tag)
		if !ok {
			return nil, false
		}
		n = next
	}
	return n, true
}

// FindLast follows the first matching child for every element of p
// and returns the node reached. It reports false if any element is
// missing, if the final node is empty, or if p is empty.
//
// FindLast never adds nodes.
func FindLast(n Node, p Path) (Node, bool) {
	parent, ok := FindParentOfLast(n, p)
	if !ok {
		return nil, false
	}
	ret, ok := parent.FirstChild(p.Last())
	if !ok || ret.IsEmpty() {
		return nil, false
	}
	return ret, true
}

// Copy copies the text, attributes and children of src into dst,
// recursively. dst and src may belong to different backends.
func Copy(dst, src Node) {
	if t := src.Text(); t != "" {
		dst.SetText(t)
	}
	for _, name := range src.AttrNames() {
		v, _ := src.Attr(name)
		dst.SetAttr(name, v)
	}
	for _, c := range src.Children() {
		Copy(dst.AddChild(c.Tag()), c)
	}
}
