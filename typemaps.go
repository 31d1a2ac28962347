package objtree

import (
	"encoding"
	"reflect"

	"github.com/creachadair/mds/mapset"
)

var (
	// scalarKinds is the set of reflect.Kinds that map directly to
	// node text.
	scalarKinds = mapset.New(
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Uintptr,
		reflect.Float32,
		reflect.Float64,
		reflect.String,
	)

	// collectionKinds is the set of reflect.Kinds whose values need a
	// path with a repeating last element.
	collectionKinds = mapset.New(
		reflect.Slice,
		reflect.Array,
		reflect.Map,
	)

	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	emptyStructType     = reflect.TypeFor[struct{}]()
)

// isSetType reports whether t is a set, i.e. a map[K]struct{}. This
// includes mapset.Set.
func isSetType(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Elem() == emptyStructType
}

// isBytesType reports whether t is a byte slice, which maps to base64
// text rather than to a sequence.
func isBytesType(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}

// isCollectionType reports whether t is a sequence, set or map.
func isCollectionType(t reflect.Type) bool {
	return collectionKinds.Has(t.Kind()) && !isBytesType(t)
}
