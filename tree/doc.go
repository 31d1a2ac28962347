// Package tree provides the node contract that objtree reads and
// writes, along with the path navigation helpers built on it.
//
// Backends (xmltree, jsontree, yamltree, treetest) implement [Node].
// The navigation functions are very low level and do not encode any
// value semantics. You should not need this package directly unless
// you are writing your own backend, or your own
// objtree.Marshaler/objtree.Unmarshaler implementations, in which
// case your code will be handed a [Node] and expected to navigate it.
package tree

import "errors"

// ErrRootMismatch is returned by backends when a loaded document's
// root tag is not the one requested.
var ErrRootMismatch = errors.New("document root does not match")
