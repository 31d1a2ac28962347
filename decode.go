package objtree

import (
	"fmt"
	"log"
	"reflect"

	"github.com/danderson/objtree/tree"
)

// Unmarshal reads n into v using a default [Decoder].
func Unmarshal(n tree.Node, v any) error {
	var d Decoder
	return d.Unmarshal(n, v)
}

// A Decoder reads Go values out of trees.
//
// The zero Decoder is ready to use, and may be used concurrently.
type Decoder struct{}

// Unmarshal reads n into v, which must be a non-nil pointer.
//
// Values absent from n leave the corresponding part of v untouched,
// with the exception of collections, which are cleared before
// reading. Unmarshal never leaves v half-assigned at the level of a
// single scalar, but a failure part way through a struct leaves the
// fields read so far in place.
//
// Like encoding/json, Unmarshal reuses the storage already in v:
// slices are truncated and appended to, so a slice that shares its
// backing array with another sees those elements overwritten, and
// non-nil pointers are decoded into their existing pointee.
func (d *Decoder) Unmarshal(n tree.Node, v any) error {
	val, err := decodeTarget(v)
	if err != nil {
		return err
	}
	return decoders.Get(val.Type())(d, n, val)
}

// Read reads the value at the given location beneath n into v, which
// must be a non-nil pointer. loc has the same syntax as for
// [Encoder.Write].
func (d *Decoder) Read(n tree.Node, loc string, v any) error {
	val, err := decodeTarget(v)
	if err != nil {
		return err
	}
	dec := fieldDecoders.Get(fieldKey{val.Type(), loc})
	return dec(d, n, val)
}

func decodeTarget(v any) (reflect.Value, error) {
	if v == nil {
		return reflect.Value{}, fmt.Errorf("can't unmarshal into nil interface")
	}
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Pointer {
		return reflect.Value{}, fmt.Errorf("can't unmarshal into a non-pointer")
	}
	if val.IsNil() {
		return reflect.Value{}, fmt.Errorf("can't unmarshal into nil pointer")
	}
	return val.Elem(), nil
}

// Unmarshaler is implemented by types that read themselves from a
// tree. UnmarshalTree must have a pointer receiver.
//
// UnmarshalTree is given the node found at the value's location.
// Implementations typically call [Decoder.Read] once per field.
type Unmarshaler interface {
	UnmarshalTree(d *Decoder, n tree.Node) error
}

var unmarshalerType = reflect.TypeFor[Unmarshaler]()

// decoderFunc reads n into v, which is settable. As with encoderFunc,
// n is the value's own node for node decoders, and the parent node
// for field decoders.
type decoderFunc func(d *Decoder, n tree.Node, v reflect.Value) error

// presenceFunc reports whether a field decoder would find anything
// beneath n.
type presenceFunc func(n tree.Node) bool

var (
	decoders      cache[reflect.Type, decoderFunc]
	fieldDecoders cache[fieldKey, decoderFunc]
)

func init() {
	// This needs to be an init func to break the initialization cycle
	// between the cache and the calls to the cache within
	// uncachedTypeDecoder.
	decoders.Init(uncachedTypeDecoder, func(wait func() decoderFunc) decoderFunc {
		return func(d *Decoder, n tree.Node, v reflect.Value) error {
			return wait()(d, n, v)
		}
	})
	fieldDecoders.Init(uncachedFieldDecoder, func(wait func() decoderFunc) decoderFunc {
		return func(d *Decoder, n tree.Node, v reflect.Value) error {
			return wait()(d, n, v)
		}
	})
}

const debugDecoders = false

func debugDecoder(msg string, args ...any) {
	if !debugDecoders {
		return
	}
	log.Printf(msg, args...)
}

func newErrDecoder(err error) decoderFunc {
	return func(*Decoder, tree.Node, reflect.Value) error { return err }
}

func uncachedTypeDecoder(t reflect.Type) decoderFunc {
	debugDecoder("typeDecoder(%s)", t)
	defer debugDecoder("end typeDecoder(%s)", t)

	if t.Kind() == reflect.Pointer {
		return newPtrDecoder(t)
	}
	if reflect.PointerTo(t).Implements(unmarshalerType) {
		return newUnmarshalDecoder(t)
	}
	if isVariantType(t) {
		return newErrDecoder(typeErr(t, "variant has no alternative names, use the variant option"))
	}
	if sc, ok := scalarFor(t); ok {
		return newScalarDecoder(t, sc)
	}
	switch t.Kind() {
	case reflect.Struct:
		return newStructDecoder(t)
	case reflect.Slice, reflect.Array, reflect.Map:
		return newErrDecoder(typeErr(t, "collections need a path to repeat elements at, wrap it in a struct"))
	}
	return newErrDecoder(typeErr(t, "no known mapping"))
}

func newUnmarshalDecoder(t reflect.Type) decoderFunc {
	debugDecoder("%s{} (external Unmarshaler)", t)
	return func(d *Decoder, n tree.Node, v reflect.Value) error {
		return v.Addr().Interface().(Unmarshaler).UnmarshalTree(d, n)
	}
}

func newPtrDecoder(t reflect.Type) decoderFunc {
	debugDecoder("ptr{%s}", t.Elem())
	elem := t.Elem()
	elemDec := decoders.Get(elem)
	return func(d *Decoder, n tree.Node, v reflect.Value) error {
		if n.IsEmpty() && len(n.AttrNames()) == 0 {
			// A nil pointer in a collection is written as an empty
			// node.
			return nil
		}
		if v.IsNil() {
			elem := reflect.New(elem)
			if err := elemDec(d, n, elem.Elem()); err != nil {
				return err
			}
			v.Set(elem)
		} else if err := elemDec(d, n, v.Elem()); err != nil {
			return err
		}
		return nil
	}
}

func newScalarDecoder(t reflect.Type, sc *scalarCodec) decoderFunc {
	debugDecoder("%s{} (scalar)", t)
	return func(d *Decoder, n tree.Node, v reflect.Value) error {
		return parseScalar(sc, n.Tag(), n.Text(), v)
	}
}

func newStructDecoder(t reflect.Type) decoderFunc {
	debugDecoder("%s{} (struct)", t)
	info, err := getStructInfo(t)
	if err != nil {
		return newErrDecoder(TypeError{t.String(), err})
	}
	type fieldDec struct {
		f   *structField
		dec decoderFunc
	}
	fields := make([]fieldDec, 0, len(info.StructFields))
	for _, f := range info.StructFields {
		debugDecoder("%s.%s: %s", t, f.Name, f.Opts)
		dec, _ := fieldDecoder(f.Type, f.Opts)
		fields = append(fields, fieldDec{f, dec})
	}
	return func(d *Decoder, n tree.Node, v reflect.Value) error {
		for _, fd := range fields {
			fv := fd.f.GetWithAlloc(v)
			if err := fd.dec(d, n, fv); err != nil {
				return fmt.Errorf("field %s: %w", fd.f.Name, err)
			}
		}
		return nil
	}
}

// elemDecoder returns the node decoder for the elements of a
// collection, or for the values of a map.
func elemDecoder(t reflect.Type, variantNames []string) decoderFunc {
	if isVariantType(t) {
		dec, _ := newVariantDecoder(t, variantNames)
		return dec
	}
	return decoders.Get(t)
}

func uncachedFieldDecoder(k fieldKey) decoderFunc {
	opts, err := parseFieldOpts(k.loc, "")
	if err != nil {
		return newErrDecoder(fmt.Errorf("invalid location %q: %w", k.loc, err))
	}
	dec, _ := fieldDecoder(k.t, opts)
	return dec
}

func never(tree.Node) bool { return false }

// fieldDecoder returns a decoder that reads values of type t from
// beneath a parent node, as directed by opts, and a func reporting
// whether there is anything for that decoder to read.
func fieldDecoder(t reflect.Type, opts *fieldOpts) (decoderFunc, presenceFunc) {
	debugDecoder("fieldDecoder(%s, %s)", t, opts)
	switch {
	case opts.Attr:
		return newAttrDecoder(t, opts.Path[0])
	case opts.Text:
		return newTextDecoder(t)
	case len(opts.Variant) > 0 && !usesVariant(t):
		return newErrDecoder(typeErr(t, "variant option given for a type with no variant")), never
	case isVariantType(t):
		return newVariantFieldDecoder(t, opts)
	case t.Kind() == reflect.Pointer:
		return newOptionalDecoder(t, opts)
	case len(opts.Path) == 0:
		return newErrDecoder(pathErr(opts.Path)), never
	case (opts.Entry || opts.Key.Present() || opts.Value.Present()) && (t.Kind() != reflect.Map || isSetType(t)):
		return newErrDecoder(typeErr(t, "entry, key and value options only apply to maps")), never
	}

	if reflect.PointerTo(t).Implements(unmarshalerType) {
		return newNodeFieldDecoder(t, opts.Path, findNode)
	}
	if _, ok := scalarFor(t); ok {
		return newNodeFieldDecoder(t, opts.Path, tree.FindLast)
	}

	switch t.Kind() {
	case reflect.Slice:
		return newSequenceDecoder(t, opts)
	case reflect.Array:
		return newArrayDecoder(t, opts)
	case reflect.Map:
		switch {
		case isSetType(t):
			return newSetDecoder(t, opts)
		case useEntries(t, opts):
			return newEntryMapDecoder(t, opts)
		default:
			return newKeyedMapDecoder(t, opts)
		}
	case reflect.Struct:
		return newNodeFieldDecoder(t, opts.Path, findNode)
	}
	return newErrDecoder(typeErr(t, "no known mapping")), never
}

// findNode is like [tree.FindLast], but also accepts a final node that
// has only attributes. It locates the nodes of composite values.
func findNode(n tree.Node, p tree.Path) (tree.Node, bool) {
	parent, ok := tree.FindParentOfLast(n, p)
	if !ok {
		return nil, false
	}
	ret, ok := parent.FirstChild(p.Last())
	if !ok || (ret.IsEmpty() && len(ret.AttrNames()) == 0) {
		return nil, false
	}
	return ret, true
}

func newNodeFieldDecoder(t reflect.Type, p tree.Path, find func(tree.Node, tree.Path) (tree.Node, bool)) (decoderFunc, presenceFunc) {
	debugDecoder("%s at %s", t, p)
	dec := decoders.Get(t)
	present := func(n tree.Node) bool {
		_, ok := find(n, p)
		return ok
	}
	return func(d *Decoder, n tree.Node, v reflect.Value) error {
		target, ok := find(n, p)
		if !ok {
			return nil
		}
		return dec(d, target, v)
	}, present
}

func newOptionalDecoder(t reflect.Type, opts *fieldOpts) (decoderFunc, presenceFunc) {
	debugDecoder("optional{%s}", t.Elem())
	elem := t.Elem()
	elemDec, present := fieldDecoder(elem, opts)
	return func(d *Decoder, n tree.Node, v reflect.Value) error {
		if !present(n) {
			return nil
		}
		if v.IsNil() {
			v.Set(reflect.New(elem))
		}
		return elemDec(d, n, v.Elem())
	}, present
}

// setScalar parses s into v, which may be a pointer to a scalar
// rather than a scalar.
func setScalar(sc *scalarCodec, isPtr bool, tag, s string, v reflect.Value) error {
	if !isPtr {
		return parseScalar(sc, tag, s, v)
	}
	elem := reflect.New(v.Type().Elem())
	if !v.IsNil() {
		elem.Elem().Set(v.Elem())
	}
	if err := parseScalar(sc, tag, s, elem.Elem()); err != nil {
		return err
	}
	v.Set(elem)
	return nil
}

func newAttrDecoder(t reflect.Type, name string) (decoderFunc, presenceFunc) {
	debugDecoder("%s{} (attribute %s)", t, name)
	sc, isPtr, ok := scalarOrOptional(t)
	if !ok {
		return newErrDecoder(typeErr(t, "attributes must be scalars")), never
	}
	present := func(n tree.Node) bool {
		_, ok := n.Attr(name)
		return ok
	}
	return func(d *Decoder, n tree.Node, v reflect.Value) error {
		s, ok := n.Attr(name)
		if !ok {
			return nil
		}
		return setScalar(sc, isPtr, name, s, v)
	}, present
}

func newTextDecoder(t reflect.Type) (decoderFunc, presenceFunc) {
	debugDecoder("%s{} (text)", t)
	sc, isPtr, ok := scalarOrOptional(t)
	if !ok {
		return newErrDecoder(typeErr(t, "node text must be a scalar")), never
	}
	present := func(n tree.Node) bool {
		return n.Text() != ""
	}
	return func(d *Decoder, n tree.Node, v reflect.Value) error {
		s := n.Text()
		if s == "" {
			return nil
		}
		return setScalar(sc, isPtr, n.Tag(), s, v)
	}, present
}

// repeated returns the nodes at p beneath n that make up the elements
// of a collection.
func repeated(n tree.Node, p tree.Path) []tree.Node {
	if !n.HasChild(p[0]) {
		return nil
	}
	parent, ok := tree.FindParentOfLast(n, p)
	if !ok {
		return nil
	}
	return parent.ChildrenNamed(p.Last())
}

// repeatedPresence returns a presenceFunc that reports whether p has
// at least one element beneath n.
func repeatedPresence(p tree.Path) presenceFunc {
	return func(n tree.Node) bool {
		parent, ok := tree.FindParentOfLast(n, p)
		return ok && parent.NumChildren(p.Last()) > 0
	}
}

func newSequenceDecoder(t reflect.Type, opts *fieldOpts) (decoderFunc, presenceFunc) {
	debugDecoder("seq{%s} at %s", t.Elem(), opts.Path)
	if isCollectionType(t.Elem()) {
		return newErrDecoder(typeErr(t, "nested collections are not supported, wrap the inner collection in a struct")), never
	}
	elem := t.Elem()
	elemDec := elemDecoder(elem, opts.Variant)
	p := opts.Path
	return func(d *Decoder, n tree.Node, v reflect.Value) error {
		if !v.IsNil() {
			v.SetLen(0)
		}
		for i, c := range repeated(n, p) {
			ev := reflect.New(elem).Elem()
			if err := elemDec(d, c, ev); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			v.Set(reflect.Append(v, ev))
		}
		return nil
	}, repeatedPresence(p)
}

func newArrayDecoder(t reflect.Type, opts *fieldOpts) (decoderFunc, presenceFunc) {
	debugDecoder("array{%s, %d} at %s", t.Elem(), t.Len(), opts.Path)
	if isCollectionType(t.Elem()) {
		return newErrDecoder(typeErr(t, "nested collections are not supported, wrap the inner collection in a struct")), never
	}
	elem := t.Elem()
	elemDec := elemDecoder(elem, opts.Variant)
	p := opts.Path
	return func(d *Decoder, n tree.Node, v reflect.Value) error {
		nodes := repeated(n, p)
		for i := range min(v.Len(), len(nodes)) {
			ev := reflect.New(elem).Elem()
			if err := elemDec(d, nodes[i], ev); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			v.Index(i).Set(ev)
		}
		return nil
	}, repeatedPresence(p)
}

// clearMap empties the map v, if it is non-nil.
func clearMap(v reflect.Value) {
	if !v.IsNil() {
		v.Clear()
	}
}

func newSetDecoder(t reflect.Type, opts *fieldOpts) (decoderFunc, presenceFunc) {
	debugDecoder("set{%s} at %s", t.Key(), opts.Path)
	if isCollectionType(t.Key()) {
		return newErrDecoder(typeErr(t, "nested collections are not supported")), never
	}
	kt := t.Key()
	elemDec := elemDecoder(kt, opts.Variant)
	member := reflect.Zero(t.Elem())
	p := opts.Path
	return func(d *Decoder, n tree.Node, v reflect.Value) error {
		clearMap(v)
		nodes := repeated(n, p)
		if len(nodes) == 0 {
			return nil
		}
		if v.IsNil() {
			v.Set(reflect.MakeMapWithSize(t, len(nodes)))
		}
		for i, c := range nodes {
			kv := reflect.New(kt).Elem()
			if err := elemDec(d, c, kv); err != nil {
				return fmt.Errorf("set element %d: %w", i, err)
			}
			v.SetMapIndex(kv, member)
		}
		return nil
	}, repeatedPresence(p)
}

func newKeyedMapDecoder(t reflect.Type, opts *fieldOpts) (decoderFunc, presenceFunc) {
	debugDecoder("map[%s]%s at %s (key as tag)", t.Key(), t.Elem(), opts.Path)
	if isCollectionType(t.Elem()) {
		return newErrDecoder(typeErr(t, "nested collections are not supported, use the entry option with a value path")), never
	}
	kt, vt := t.Key(), t.Elem()
	keySc, _ := scalarFor(kt)
	valDec := elemDecoder(vt, opts.Variant)
	p := opts.Path
	present := func(n tree.Node) bool {
		_, ok := tree.FindLast(n, p)
		return ok
	}
	return func(d *Decoder, n tree.Node, v reflect.Value) error {
		clearMap(v)
		parent, ok := tree.FindLast(n, p)
		if !ok {
			return nil
		}
		children := parent.Children()
		if len(children) == 0 {
			return nil
		}
		if v.IsNil() {
			v.Set(reflect.MakeMapWithSize(t, len(children)))
		}
		for _, c := range children {
			kv := reflect.New(kt).Elem()
			if err := parseScalar(keySc, parent.Tag(), c.Tag(), kv); err != nil {
				return err
			}
			vv := reflect.New(vt).Elem()
			if err := valDec(d, c, vv); err != nil {
				return fmt.Errorf("map value %s: %w", c.Tag(), err)
			}
			v.SetMapIndex(kv, vv)
		}
		return nil
	}, present
}

func newEntryMapDecoder(t reflect.Type, opts *fieldOpts) (decoderFunc, presenceFunc) {
	keyPath, valPath := entryPaths(t, opts)
	debugDecoder("map[%s]%s at %s (entries, key at %q, value at %q)", t.Key(), t.Elem(), opts.Path, keyPath, valPath)
	kt, vt := t.Key(), t.Elem()
	var keyDec, valDec decoderFunc
	if len(keyPath) == 0 {
		keyDec = decoders.Get(kt)
	} else {
		keyDec, _ = fieldDecoder(kt, &fieldOpts{Path: keyPath})
	}
	if len(valPath) == 0 {
		valDec = elemDecoder(vt, opts.Variant)
	} else {
		valDec, _ = fieldDecoder(vt, &fieldOpts{Path: valPath, Variant: opts.Variant})
	}
	p := opts.Path
	return func(d *Decoder, n tree.Node, v reflect.Value) error {
		clearMap(v)
		nodes := repeated(n, p)
		if len(nodes) == 0 {
			return nil
		}
		if v.IsNil() {
			v.Set(reflect.MakeMapWithSize(t, len(nodes)))
		}
		for i, ent := range nodes {
			kv := reflect.New(kt).Elem()
			if err := keyDec(d, ent, kv); err != nil {
				return fmt.Errorf("map entry %d key: %w", i, err)
			}
			vv := reflect.New(vt).Elem()
			if err := valDec(d, ent, vv); err != nil {
				return fmt.Errorf("map entry %d value: %w", i, err)
			}
			// Later entries with the same key replace earlier ones.
			v.SetMapIndex(kv, vv)
		}
		return nil
	}, repeatedPresence(p)
}

// newVariantDecoder returns a node decoder for the variant type t. The
// first alternative whose name has matching children beneath the node
// is decoded, and the rest are ignored.
func newVariantDecoder(t reflect.Type, names []string) (decoderFunc, presenceFunc) {
	debugDecoder("%s{} (variant %v)", t, names)
	paths, err := variantPaths(t, names)
	if err != nil {
		return newErrDecoder(err), never
	}
	alts := variantAlternatives(t)
	altDecs := make([]decoderFunc, len(alts))
	for i, alt := range alts {
		altDecs[i], _ = fieldDecoder(alt, &fieldOpts{Path: paths[i]})
	}
	match := func(n tree.Node) int {
		for i, p := range paths {
			if repeatedPresence(p)(n) {
				return i
			}
		}
		return -1
	}
	present := func(n tree.Node) bool {
		return match(n) >= 0
	}
	return func(d *Decoder, n tree.Node, v reflect.Value) error {
		i := match(n)
		if i < 0 {
			return nil
		}
		alt := reflect.New(alts[i]).Elem()
		if err := altDecs[i](d, n, alt); err != nil {
			return fmt.Errorf("variant alternative %s: %w", paths[i], err)
		}
		v.Addr().Interface().(variantSetter).set(i, alt)
		return nil
	}, present
}

func newVariantFieldDecoder(t reflect.Type, opts *fieldOpts) (decoderFunc, presenceFunc) {
	dec, present := newVariantDecoder(t, opts.Variant)
	p := opts.Path
	container := func(n tree.Node) (tree.Node, bool) {
		if len(p) == 0 {
			return n, true
		}
		return tree.FindLast(n, p)
	}
	return func(d *Decoder, n tree.Node, v reflect.Value) error {
		c, ok := container(n)
		if !ok {
			return nil
		}
		return dec(d, c, v)
	}, func(n tree.Node) bool {
		c, ok := container(n)
		return ok && present(c)
	}
}
