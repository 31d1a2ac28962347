// Package objtree maps Go values to and from hierarchical documents.
//
// A document is a tree of nodes, each with a tag, optional text,
// attributes and an ordered list of children. The [tree.Node]
// interface describes that tree independently of any file format;
// the xmltree, jsontree and yamltree packages provide implementations
// backed by XML, JSON and YAML files.
//
// # Marshaling
//
// [Marshal] writes a struct into a node. Each exported field is
// written beneath the node at the location given by its "tree" struct
// tag:
//
//	type Player struct {
//	    Name  string   `tree:"Name"`
//	    Tags  []string `tree:"Tags/Tag"`
//	    Score *float64 `tree:"Score"`
//	    ID    int      `tree:"id,attr"`
//	}
//
// The location is a path of tags separated by '/'. If the path is
// empty, the field name is used. A tag of "-" skips the field.
// All but the last element of the path are containers, created once.
// For collections, the last element is repeated once per element, so
// the Tags field above writes
//
//	<Tags>
//	  <Tag>x</Tag>
//	  <Tag>y</Tag>
//	</Tags>
//
// Containers are created afresh for every field. Two fields whose
// paths share a container write two container nodes, and reading only
// looks in the first. Group such fields in a nested struct instead.
//
// Following the path, options change how the value is placed:
//
//   - attr: the value is an attribute of the parent node, named by the
//     path. The value must be a scalar.
//   - text: the value is the text of the parent node. The value must
//     be a scalar.
//   - entry: a map is written as one node per entry, all tagged with
//     the last path element, rather than one node per key tagged with
//     the key.
//   - key=P, value=P: the paths of a map's key and value within each
//     entry node. Both imply entry. A path of "." writes the key or
//     value directly into the entry node.
//   - variant=A|B|C: the names of a variant's alternatives, in order.
//     A path of "." places the alternatives directly beneath the
//     parent node.
//
// # Shapes
//
// The Go type of a value selects how it is written.
//
// bool, integer, float and string values, and types implementing
// [EnumMarshaler] or [encoding.TextMarshaler], are scalars: they are
// written as node text. []byte is a scalar, written as base64. Floats
// are formatted according to the Encoder's FormatFloat func.
//
// Pointers are optional values. A nil pointer writes nothing at all.
// When reading, a pointer is allocated only if there is something at
// its location. Inside a sequence or map, a nil element still needs a
// node to hold its place: it is written as an empty node, and an
// empty node with no attributes reads back as nil.
//
// Slices are sequences, written as one node per element. Arrays are
// fixed-size sequences: reading copies as many elements as both the
// array and the document have, and leaves the rest of the array
// untouched.
//
// Maps with struct{} values, including mapset.Set, are sets. They are
// written like sequences, in sorted order.
//
// Other maps write one node per entry, in sorted key order. If the
// key is a scalar, the node's tag is the key. Otherwise, or with the
// entry option, every entry node is tagged with the last path element
// and holds the key and value beneath it, at "Key" and "Value" by
// default. Struct keys and values are written inline in the entry
// node by default. When reading, later entries with the same key
// replace earlier ones.
//
// [Variant2] and [Variant3] are variants: the active alternative is
// written beneath the path name for its position. When reading, the
// first name with any matching node selects the alternative.
//
// Structs write their fields beneath the node, and types implementing
// [Marshaler] write themselves. Embedded structs without a tag are
// flattened into the outer struct, following Go's visibility rules.
//
// Collections of collections cannot be mapped. Wrap the inner
// collection in a struct.
//
// # Unmarshaling
//
// [Unmarshal] applies the inverse rules. Anything missing from the
// document leaves the corresponding value unchanged, except for
// collections, which are emptied before reading. Text that cannot be
// converted to the field's type returns a [ValueError].
package objtree
