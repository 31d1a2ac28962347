package tree

import "strings"

// Path is a sequence of tags locating a node relative to another.
//
// All but the last element are container tags, expected to appear at
// most once. When the path designates a collection, the last element
// is the tag repeated once per element.
type Path []string

// ParsePath splits s on '/' into a Path. Empty segments are
// dropped: "" and "/" parse to an empty Path, "A//B" to [A B].
func ParsePath(s string) Path {
	var ret Path
	for _, seg := range strings.Split(s, "/") {
		if seg != "" {
			ret = append(ret, seg)
		}
	}
	return ret
}

// Last returns the final element of p, or "" if p is empty.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Containers returns all but the last element of p.
func (p Path) Containers() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

func (p Path) String() string {
	return strings.Join(p, "/")
}
