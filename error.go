package objtree

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrEmptyPath is the error returned when a value that needs a
// location in the tree is given an empty path.
var ErrEmptyPath = errors.New("empty path")

// TypeError is the error returned when a type cannot be mapped to or
// from a tree.
type TypeError struct {
	// Type is the name of the type that caused the error.
	Type string
	// Reason is an explanation of why the type can't be mapped.
	Reason error
}

func (e TypeError) Error() string {
	return fmt.Sprintf("objtree cannot map %s: %s", e.Type, e.Reason)
}

func (e TypeError) Unwrap() error {
	return e.Reason
}

func typeErr(t reflect.Type, reason string, args ...any) error {
	ts := ""
	if t != nil {
		ts = t.String()
	}
	return TypeError{ts, fmt.Errorf(reason, args...)}
}

// ValueError is the error returned when the text of a node or
// attribute cannot be converted to the Go type it is decoded into.
type ValueError struct {
	// Tag is the tag of the node holding the text, or the name of
	// the attribute.
	Tag string
	// Text is the text that failed to convert.
	Text string
	// Type is the name of the destination type.
	Type string
	// Err is the underlying conversion error.
	Err error
}

func (e ValueError) Error() string {
	return fmt.Sprintf("cannot decode %q at %s into %s: %s", e.Text, e.Tag, e.Type, e.Err)
}

func (e ValueError) Unwrap() error {
	return e.Err
}

func pathErr(p fmt.Stringer) error {
	return fmt.Errorf("%w (at %q)", ErrEmptyPath, p)
}
