package objtree

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/creachadair/mds/value"
	"github.com/danderson/objtree/tree"
)

// fieldOpts is the placement information for one value: where it
// lives relative to its parent node, and which representation to use.
// It comes from a field's "tree" struct tag, or from the path
// argument of [Encoder.Write] and [Decoder.Read].
type fieldOpts struct {
	// Path is the location of the value beneath its parent.
	Path tree.Path
	// Attr is whether the value is an attribute named Path[0] of the
	// parent, rather than a child node.
	Attr bool
	// Text is whether the value is the parent's own text.
	Text bool
	// Entry is whether a map uses the uniform child representation,
	// with Path's last element naming every entry.
	Entry bool
	// Key and Value are the sub-paths of map keys and values within
	// an entry. A present but empty path writes inline into the
	// entry node.
	Key, Value value.Maybe[tree.Path]
	// Variant is the list of tags naming the alternatives of a
	// variant, in order.
	Variant []string
}

func (o *fieldOpts) String() string {
	var ret strings.Builder
	ret.WriteString(o.Path.String())
	if o.Attr {
		ret.WriteString(",attr")
	}
	if o.Text {
		ret.WriteString(",text")
	}
	if o.Entry {
		ret.WriteString(",entry")
	}
	if k, ok := o.Key.GetOK(); ok {
		fmt.Fprintf(&ret, ",key=%s", subPathString(k))
	}
	if v, ok := o.Value.GetOK(); ok {
		fmt.Fprintf(&ret, ",value=%s", subPathString(v))
	}
	if len(o.Variant) > 0 {
		fmt.Fprintf(&ret, ",variant=%s", strings.Join(o.Variant, "|"))
	}
	return ret.String()
}

func subPathString(p tree.Path) string {
	if len(p) == 0 {
		return "."
	}
	return p.String()
}

// parseFieldOpts parses a placement string of the form
// "Path/To/Value,option,option=value". If the path is empty,
// defaultPath is used. A path of "." is the empty path.
func parseFieldOpts(s string, defaultPath string) (*fieldOpts, error) {
	path, rest, _ := strings.Cut(s, ",")
	if path == "" {
		path = defaultPath
	}
	ret := &fieldOpts{
		Path: parseSubPath(path),
	}
	if rest == "" {
		return ret, nil
	}
	for _, opt := range strings.Split(rest, ",") {
		switch {
		case opt == "attr":
			ret.Attr = true
		case opt == "text":
			ret.Text = true
		case opt == "entry":
			ret.Entry = true
		case strings.HasPrefix(opt, "key="):
			ret.Key = value.Just(parseSubPath(strings.TrimPrefix(opt, "key=")))
		case strings.HasPrefix(opt, "value="):
			ret.Value = value.Just(parseSubPath(strings.TrimPrefix(opt, "value=")))
		case strings.HasPrefix(opt, "variant="):
			ret.Variant = strings.Split(strings.TrimPrefix(opt, "variant="), "|")
			if slices.Contains(ret.Variant, "") {
				return nil, fmt.Errorf("empty alternative name in %q", opt)
			}
		case opt == "":
		default:
			return nil, fmt.Errorf("unknown option %q", opt)
		}
	}
	if ret.Attr && ret.Text {
		return nil, fmt.Errorf("attr and text options are mutually exclusive")
	}
	if (ret.Attr || ret.Text) && len(ret.Variant) > 0 {
		return nil, fmt.Errorf("variant option cannot be combined with attr or text")
	}
	if ret.Attr && len(ret.Path) != 1 {
		return nil, fmt.Errorf("attribute name %q must be a single path element", path)
	}
	return ret, nil
}

func parseSubPath(s string) tree.Path {
	if s == "." {
		return tree.Path{}
	}
	return tree.ParsePath(s)
}

// structField is the information about a struct field that needs to
// be marshaled/unmarshaled.
type structField struct {
	Name  string
	Index [][]int
	Type  reflect.Type
	Opts  *fieldOpts
}

// GetWithZero loads the struct field from structVal. If loading
// requires traversing a nil pointer into an embedded struct,
// GetWithZero returns a non-settable zero value of the field.
func (f *structField) GetWithZero(structVal reflect.Value) reflect.Value {
	v := structVal
	for i, hop := range f.Index {
		if i > 0 {
			if v.IsNil() {
				return reflect.Zero(f.Type)
			}
			v = v.Elem()
		}
		v = v.FieldByIndex(hop)
	}
	return v
}

// GetWithAlloc loads the struct field from structVal. If loading
// requires traversing a nil pointer into an embedded struct,
// GetWithAlloc allocates zero values appropriately. The returned
// [reflect.Value] is settable.
func (f *structField) GetWithAlloc(structVal reflect.Value) reflect.Value {
	v := structVal
	for i, hop := range f.Index {
		if i > 0 {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.FieldByIndex(hop)
	}
	return v
}

func (f *structField) String() string {
	kindStr := ""
	if ks := f.Type.Kind().String(); ks != f.Type.String() {
		kindStr = fmt.Sprintf(" (%s)", ks)
	}
	return fmt.Sprintf("%s: %s%s at %v, %q", f.Name, f.Type, kindStr, f.Index, f.Opts)
}

// structInfo is the information about a struct relevant to
// marshaling/unmarshaling.
type structInfo struct {
	// Name is the struct's name, for use in diagnostics.
	Name string
	// Type is the struct's type, for use in diagnostics.
	Type reflect.Type

	// StructFields is the information about each struct field
	// eligible for encoding/decoding.
	StructFields []*structField
}

func (s *structInfo) String() string {
	var ret strings.Builder
	fmt.Fprintf(&ret, "%s: struct, fields:\n", s.Name)
	for _, f := range s.StructFields {
		ret.WriteString(f.String())
		ret.WriteByte('\n')
	}
	return ret.String()
}

// getStructInfo returns the structInfo for t.
//
// getStructInfo returns an error if t is not a struct, or if the
// struct has malformed tags.
func getStructInfo(t reflect.Type) (*structInfo, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s is not a struct", t)
	}

	ret := &structInfo{
		Name: t.String(),
		Type: t,
	}

	type candidate struct {
		field reflect.StructField
		opts  *fieldOpts
	}
	var cands []candidate
	for field := range structFields(t, nil) {
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("tree")
		if tag == "-" {
			continue
		}
		opts, err := parseFieldOpts(tag, field.Name)
		if err != nil {
			return nil, fmt.Errorf("invalid tree tag on %s.%s: %w", ret.Name, field.Name, err)
		}
		cands = append(cands, candidate{field, opts})
	}

	// Go's visibility rules for promoted fields: the shallowest field
	// of a given name wins, and several at the same depth cancel out.
	depth := map[string]int{}
	count := map[string]int{}
	for _, c := range cands {
		d, ok := depth[c.field.Name]
		switch {
		case !ok || len(c.field.Index) < d:
			depth[c.field.Name] = len(c.field.Index)
			count[c.field.Name] = 1
		case len(c.field.Index) == d:
			count[c.field.Name]++
		}
	}
	for _, c := range cands {
		if len(c.field.Index) != depth[c.field.Name] || count[c.field.Name] != 1 {
			continue
		}
		ret.StructFields = append(ret.StructFields, &structField{
			Name:  c.field.Name,
			Type:  c.field.Type,
			Index: allocSteps(t, c.field.Index),
			Opts:  c.opts,
		})
	}

	return ret, nil
}

// keyCmp returns a comparison function that orders values of type t,
// for deterministic output of maps and sets.
func keyCmp(t reflect.Type) func(a, b reflect.Value) int {
	if implementsEither(t, enumMarshalerType) || implementsEither(t, textMarshalerType) {
		sc, ok := scalarFor(t)
		if !ok {
			panic(fmt.Sprintf("%s has no scalar form", t))
		}
		// Enums and text types order by their text.
		return func(a, b reflect.Value) int {
			as, _ := sc.format(nil, a)
			bs, _ := sc.format(nil, b)
			return cmp.Compare(as, bs)
		}
	}
	switch t.Kind() {
	case reflect.Bool:
		return func(a, b reflect.Value) int {
			if a.Bool() == b.Bool() {
				return 0
			}
			if !a.Bool() {
				return -1
			}
			return 1
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(a, b reflect.Value) int {
			return cmp.Compare(a.Int(), b.Int())
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(a, b reflect.Value) int {
			return cmp.Compare(a.Uint(), b.Uint())
		}
	case reflect.Float32, reflect.Float64:
		return func(a, b reflect.Value) int {
			return cmp.Compare(a.Float(), b.Float())
		}
	case reflect.String:
		return func(a, b reflect.Value) int {
			return cmp.Compare(a.String(), b.String())
		}
	default:
		return func(a, b reflect.Value) int {
			return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
		}
	}
}
