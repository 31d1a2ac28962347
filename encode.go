package objtree

import (
	"fmt"
	"log"
	"reflect"
	"slices"

	"github.com/danderson/objtree/tree"
)

// Marshal writes v into n using a default [Encoder].
func Marshal(n tree.Node, v any) error {
	var e Encoder
	return e.Marshal(n, v)
}

// An Encoder writes Go values into trees.
//
// The zero Encoder is ready to use. An Encoder may be used
// concurrently, provided its fields are not modified.
type Encoder struct {
	// FormatFloat, if non-nil, converts floating point values to
	// text. If nil, floats are formatted with [DefaultFloatFormat].
	FormatFloat func(float64) string
}

func (e *Encoder) formatFloat(f float64) string {
	if e == nil || e.FormatFloat == nil {
		return defaultFloatFormat.Format(f)
	}
	return e.FormatFloat(f)
}

// Marshal writes v into n.
//
// Structs write each of their exported fields beneath n, placed
// according to the field's "tree" struct tag. Scalars set n's text.
// Collections cannot be marshaled directly, as they need a path for
// their repeated elements: use [Encoder.Write].
func (e *Encoder) Marshal(n tree.Node, v any) error {
	if v == nil {
		return fmt.Errorf("can't marshal nil interface")
	}
	val := addressable(reflect.ValueOf(v))
	return encoders.Get(val.Type())(e, n, val)
}

// Write writes v at the given location beneath n.
//
// loc has the same syntax as a "tree" struct tag: a path of tags
// separated by '/', optionally followed by options such as
// ",attr" or ",variant=A|B". Write is the building block for
// [Marshaler] implementations, which call it once per field.
func (e *Encoder) Write(n tree.Node, loc string, v any) error {
	if v == nil {
		return fmt.Errorf("can't write nil interface at %q", loc)
	}
	val := addressable(reflect.ValueOf(v))
	enc := fieldEncoders.Get(fieldKey{val.Type(), loc})
	return enc(e, n, val)
}

// addressable returns an addressable copy of v, so that methods with
// pointer receivers are usable during encoding.
func addressable(v reflect.Value) reflect.Value {
	ret := reflect.New(v.Type()).Elem()
	ret.Set(v)
	return ret
}

// Marshaler is implemented by types that write themselves into a
// tree.
//
// MarshalTree is given the node that represents the value, already
// created at the value's location. Implementations typically call
// [Encoder.Write] once per field.
type Marshaler interface {
	MarshalTree(e *Encoder, n tree.Node) error
}

var marshalerType = reflect.TypeFor[Marshaler]()

// encoderFunc writes v into n.
//
// For node encoders, n is the node that represents v. For field
// encoders, n is the parent node, and the encoder places v at its
// path beneath n.
type encoderFunc func(e *Encoder, n tree.Node, v reflect.Value) error

// fieldKey identifies the field encoders and decoders of
// [Encoder.Write] and [Decoder.Read].
type fieldKey struct {
	t   reflect.Type
	loc string
}

var (
	encoders      cache[reflect.Type, encoderFunc]
	fieldEncoders cache[fieldKey, encoderFunc]
)

func init() {
	// This needs to be an init func to break the initialization cycle
	// between the cache and the calls to the cache within
	// uncachedTypeEncoder.
	encoders.Init(uncachedTypeEncoder, func(wait func() encoderFunc) encoderFunc {
		// Recursive type, forward to the finished encoder at call
		// time.
		return func(e *Encoder, n tree.Node, v reflect.Value) error {
			return wait()(e, n, v)
		}
	})
	fieldEncoders.Init(uncachedFieldEncoder, func(wait func() encoderFunc) encoderFunc {
		return func(e *Encoder, n tree.Node, v reflect.Value) error {
			return wait()(e, n, v)
		}
	})
}

const debugEncoders = false

func debugEncoder(msg string, args ...any) {
	if !debugEncoders {
		return
	}
	log.Printf(msg, args...)
}

func newErrEncoder(err error) encoderFunc {
	return func(*Encoder, tree.Node, reflect.Value) error { return err }
}

func uncachedTypeEncoder(t reflect.Type) encoderFunc {
	debugEncoder("typeEncoder(%s)", t)
	defer debugEncoder("end typeEncoder(%s)", t)

	if t.Kind() == reflect.Pointer {
		return newPtrEncoder(t)
	}
	if implementsEither(t, marshalerType) {
		return newCondAddrMarshalEncoder(t)
	}
	if isVariantType(t) {
		return newErrEncoder(typeErr(t, "variant has no alternative names, use the variant option"))
	}
	if sc, ok := scalarFor(t); ok {
		return newScalarEncoder(t, sc)
	}
	switch t.Kind() {
	case reflect.Struct:
		return newStructEncoder(t)
	case reflect.Slice, reflect.Array, reflect.Map:
		return newErrEncoder(typeErr(t, "collections need a path to repeat elements at, wrap it in a struct"))
	}
	return newErrEncoder(typeErr(t, "no known mapping"))
}

func newCondAddrMarshalEncoder(t reflect.Type) encoderFunc {
	var val encoderFunc
	if t.Implements(marshalerType) {
		debugEncoder("%s{} (external marshaler, w/ addressable optimization)", t)
		val = newMarshalEncoder()
	} else {
		debugEncoder("%s{} (external marshaler, addressable only)", t)
		val = newErrEncoder(typeErr(t, "Marshaler only implemented on pointer receiver, and cannot take address of value"))
	}
	ptr := newMarshalEncoder()

	return func(e *Encoder, n tree.Node, v reflect.Value) error {
		if v.CanAddr() {
			return ptr(e, n, v.Addr())
		} else {
			return val(e, n, v)
		}
	}
}

func newMarshalEncoder() encoderFunc {
	return func(e *Encoder, n tree.Node, v reflect.Value) error {
		m := v.Interface().(Marshaler)
		return m.MarshalTree(e, n)
	}
}

func newPtrEncoder(t reflect.Type) encoderFunc {
	debugEncoder("ptr{%s}", t.Elem())
	elemEnc := encoders.Get(t.Elem())
	return func(e *Encoder, n tree.Node, v reflect.Value) error {
		if v.IsNil() {
			return nil
		}
		return elemEnc(e, n, v.Elem())
	}
}

func newScalarEncoder(t reflect.Type, sc *scalarCodec) encoderFunc {
	debugEncoder("%s{} (scalar)", t)
	return func(e *Encoder, n tree.Node, v reflect.Value) error {
		s, err := sc.format(e, v)
		if err != nil {
			return err
		}
		n.SetText(s)
		return nil
	}
}

func newStructEncoder(t reflect.Type) encoderFunc {
	debugEncoder("%s{} (struct)", t)
	info, err := getStructInfo(t)
	if err != nil {
		return newErrEncoder(TypeError{t.String(), err})
	}
	type fieldEnc struct {
		f   *structField
		enc encoderFunc
	}
	fields := make([]fieldEnc, 0, len(info.StructFields))
	for _, f := range info.StructFields {
		debugEncoder("%s.%s: %s", t, f.Name, f.Opts)
		fields = append(fields, fieldEnc{f, fieldEncoder(f.Type, f.Opts)})
	}
	return func(e *Encoder, n tree.Node, v reflect.Value) error {
		for _, fe := range fields {
			fv := fe.f.GetWithZero(v)
			if err := fe.enc(e, n, fv); err != nil {
				return fmt.Errorf("field %s: %w", fe.f.Name, err)
			}
		}
		return nil
	}
}

// elemEncoder returns the node encoder for the elements of a
// collection, or for the values of a map. variantNames is the value of
// the collection's variant option.
func elemEncoder(t reflect.Type, variantNames []string) encoderFunc {
	if isVariantType(t) {
		return newVariantEncoder(t, variantNames)
	}
	return encoders.Get(t)
}

func uncachedFieldEncoder(k fieldKey) encoderFunc {
	opts, err := parseFieldOpts(k.loc, "")
	if err != nil {
		return newErrEncoder(fmt.Errorf("invalid location %q: %w", k.loc, err))
	}
	return fieldEncoder(k.t, opts)
}

// fieldEncoder returns an encoder that places values of type t beneath
// a parent node, as directed by opts.
func fieldEncoder(t reflect.Type, opts *fieldOpts) encoderFunc {
	debugEncoder("fieldEncoder(%s, %s)", t, opts)
	switch {
	case opts.Attr:
		return newAttrEncoder(t, opts.Path[0])
	case opts.Text:
		return newTextEncoder(t)
	case len(opts.Variant) > 0 && !usesVariant(t):
		return newErrEncoder(typeErr(t, "variant option given for a type with no variant"))
	case isVariantType(t):
		return newVariantFieldEncoder(t, opts)
	case t.Kind() == reflect.Pointer:
		return newOptionalEncoder(t, opts)
	case len(opts.Path) == 0:
		return newErrEncoder(pathErr(opts.Path))
	case (opts.Entry || opts.Key.Present() || opts.Value.Present()) && (t.Kind() != reflect.Map || isSetType(t)):
		return newErrEncoder(typeErr(t, "entry, key and value options only apply to maps"))
	}

	if implementsEither(t, marshalerType) {
		return newNodeFieldEncoder(t, opts.Path)
	}
	if _, ok := scalarFor(t); ok {
		return newNodeFieldEncoder(t, opts.Path)
	}

	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return newSequenceEncoder(t, opts)
	case reflect.Map:
		switch {
		case isSetType(t):
			return newSetEncoder(t, opts)
		case useEntries(t, opts):
			return newEntryMapEncoder(t, opts)
		default:
			return newKeyedMapEncoder(t, opts)
		}
	case reflect.Struct:
		return newNodeFieldEncoder(t, opts.Path)
	}
	return newErrEncoder(typeErr(t, "no known mapping"))
}

// usesVariant reports whether t is a variant, or an optional or
// collection of variants, so that a variant option applies to it.
func usesVariant(t reflect.Type) bool {
	t = derefType(t)
	switch {
	case isSetType(t):
		t = t.Key()
	case isCollectionType(t):
		t = t.Elem()
	}
	return isVariantType(derefType(t))
}

// useEntries reports whether the map type t uses the uniform child
// name representation.
func useEntries(t reflect.Type, opts *fieldOpts) bool {
	if opts.Entry || opts.Key.Present() || opts.Value.Present() {
		return true
	}
	_, ok := scalarFor(t.Key())
	return !ok
}

func newNodeFieldEncoder(t reflect.Type, p tree.Path) encoderFunc {
	debugEncoder("%s at %s", t, p)
	enc := encoders.Get(t)
	return func(e *Encoder, n tree.Node, v reflect.Value) error {
		return enc(e, tree.InsertAll(n, p), v)
	}
}

func newOptionalEncoder(t reflect.Type, opts *fieldOpts) encoderFunc {
	debugEncoder("optional{%s}", t.Elem())
	elemEnc := fieldEncoder(t.Elem(), opts)
	return func(e *Encoder, n tree.Node, v reflect.Value) error {
		if v.IsNil() {
			return nil
		}
		return elemEnc(e, n, v.Elem())
	}
}

// scalarOrOptional returns the scalar codec for t or, if t is a
// pointer, for the type it points to.
func scalarOrOptional(t reflect.Type) (sc *scalarCodec, isPtr bool, ok bool) {
	if t.Kind() == reflect.Pointer {
		sc, ok = scalarFor(t.Elem())
		return sc, true, ok
	}
	sc, ok = scalarFor(t)
	return sc, false, ok
}

func newAttrEncoder(t reflect.Type, name string) encoderFunc {
	debugEncoder("%s{} (attribute %s)", t, name)
	sc, isPtr, ok := scalarOrOptional(t)
	if !ok {
		return newErrEncoder(typeErr(t, "attributes must be scalars"))
	}
	return func(e *Encoder, n tree.Node, v reflect.Value) error {
		if isPtr {
			if v.IsNil() {
				return nil
			}
			v = v.Elem()
		}
		s, err := sc.format(e, v)
		if err != nil {
			return err
		}
		n.SetAttr(name, s)
		return nil
	}
}

func newTextEncoder(t reflect.Type) encoderFunc {
	debugEncoder("%s{} (text)", t)
	sc, isPtr, ok := scalarOrOptional(t)
	if !ok {
		return newErrEncoder(typeErr(t, "node text must be a scalar"))
	}
	return func(e *Encoder, n tree.Node, v reflect.Value) error {
		if isPtr {
			if v.IsNil() {
				return nil
			}
			v = v.Elem()
		}
		s, err := sc.format(e, v)
		if err != nil {
			return err
		}
		n.SetText(s)
		return nil
	}
}

func newSequenceEncoder(t reflect.Type, opts *fieldOpts) encoderFunc {
	debugEncoder("seq{%s} at %s", t.Elem(), opts.Path)
	if isCollectionType(t.Elem()) {
		return newErrEncoder(typeErr(t, "nested collections are not supported, wrap the inner collection in a struct"))
	}
	elemEnc := elemEncoder(t.Elem(), opts.Variant)
	p := opts.Path
	return func(e *Encoder, n tree.Node, v reflect.Value) error {
		if v.Len() == 0 {
			return nil
		}
		parent := tree.InsertAllButLast(n, p)
		for i := range v.Len() {
			if err := elemEnc(e, parent.AddChild(p.Last()), v.Index(i)); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil
	}
}

// sortedKeys returns the keys of the map v in ascending order, as
// addressable values.
func sortedKeys(v reflect.Value, cmp func(a, b reflect.Value) int) []reflect.Value {
	keys := v.MapKeys()
	for i, k := range keys {
		keys[i] = addressable(k)
	}
	slices.SortFunc(keys, cmp)
	return keys
}

func newSetEncoder(t reflect.Type, opts *fieldOpts) encoderFunc {
	debugEncoder("set{%s} at %s", t.Key(), opts.Path)
	if isCollectionType(t.Key()) {
		return newErrEncoder(typeErr(t, "nested collections are not supported"))
	}
	elemEnc := elemEncoder(t.Key(), opts.Variant)
	cmpKeys := keyCmp(t.Key())
	p := opts.Path
	return func(e *Encoder, n tree.Node, v reflect.Value) error {
		if v.Len() == 0 {
			return nil
		}
		parent := tree.InsertAllButLast(n, p)
		for _, k := range sortedKeys(v, cmpKeys) {
			if err := elemEnc(e, parent.AddChild(p.Last()), k); err != nil {
				return fmt.Errorf("set element %v: %w", k, err)
			}
		}
		return nil
	}
}

func newKeyedMapEncoder(t reflect.Type, opts *fieldOpts) encoderFunc {
	debugEncoder("map[%s]%s at %s (key as tag)", t.Key(), t.Elem(), opts.Path)
	if isCollectionType(t.Elem()) {
		return newErrEncoder(typeErr(t, "nested collections are not supported, use the entry option with a value path"))
	}
	keySc, _ := scalarFor(t.Key())
	valEnc := elemEncoder(t.Elem(), opts.Variant)
	cmpKeys := keyCmp(t.Key())
	p := opts.Path
	return func(e *Encoder, n tree.Node, v reflect.Value) error {
		if v.Len() == 0 {
			return nil
		}
		parent := tree.InsertAll(n, p)
		for _, k := range sortedKeys(v, cmpKeys) {
			tag, err := keySc.format(e, k)
			if err != nil {
				return err
			}
			if tag == "" {
				return fmt.Errorf("map key %v has an empty name", k)
			}
			if err := valEnc(e, parent.AddChild(tag), addressable(v.MapIndex(k))); err != nil {
				return fmt.Errorf("map value %s: %w", tag, err)
			}
		}
		return nil
	}
}

// entryPaths returns the sub-paths of the key and value within a map
// entry. Struct types default to inline, others to "Key" and "Value".
func entryPaths(t reflect.Type, opts *fieldOpts) (key, val tree.Path) {
	def := func(t reflect.Type, name string) tree.Path {
		if t.Kind() == reflect.Struct && !isVariantType(t) {
			if _, ok := scalarFor(t); !ok {
				return tree.Path{}
			}
		}
		return tree.Path{name}
	}
	key, ok := opts.Key.GetOK()
	if !ok {
		key = def(t.Key(), "Key")
	}
	val, ok = opts.Value.GetOK()
	if !ok {
		val = def(t.Elem(), "Value")
	}
	return key, val
}

func newEntryMapEncoder(t reflect.Type, opts *fieldOpts) encoderFunc {
	keyPath, valPath := entryPaths(t, opts)
	debugEncoder("map[%s]%s at %s (entries, key at %q, value at %q)", t.Key(), t.Elem(), opts.Path, keyPath, valPath)
	var keyEnc, valEnc encoderFunc
	if len(keyPath) == 0 {
		keyEnc = encoders.Get(t.Key())
	} else {
		keyEnc = fieldEncoder(t.Key(), &fieldOpts{Path: keyPath})
	}
	if len(valPath) == 0 {
		valEnc = elemEncoder(t.Elem(), opts.Variant)
	} else {
		valEnc = fieldEncoder(t.Elem(), &fieldOpts{Path: valPath, Variant: opts.Variant})
	}
	cmpKeys := keyCmp(t.Key())
	p := opts.Path
	return func(e *Encoder, n tree.Node, v reflect.Value) error {
		if v.Len() == 0 {
			return nil
		}
		parent := tree.InsertAllButLast(n, p)
		for _, k := range sortedKeys(v, cmpKeys) {
			ent := parent.AddChild(p.Last())
			if err := keyEnc(e, ent, k); err != nil {
				return fmt.Errorf("map key %v: %w", k, err)
			}
			if err := valEnc(e, ent, addressable(v.MapIndex(k))); err != nil {
				return fmt.Errorf("map value for key %v: %w", k, err)
			}
		}
		return nil
	}
}

// variantPaths parses and validates the alternative names of the
// variant type t.
func variantPaths(t reflect.Type, names []string) ([]tree.Path, error) {
	alts := variantAlternatives(t)
	if len(names) != len(alts) {
		return nil, typeErr(t, "variant has %d alternatives but %d names", len(alts), len(names))
	}
	ret := make([]tree.Path, len(names))
	for i, name := range names {
		ret[i] = tree.ParsePath(name)
		if len(ret[i]) == 0 {
			return nil, typeErr(t, "empty name for alternative %d", i)
		}
	}
	return ret, nil
}

// newVariantEncoder returns a node encoder for the variant type t,
// which writes the active alternative at its name beneath the node.
func newVariantEncoder(t reflect.Type, names []string) encoderFunc {
	debugEncoder("%s{} (variant %v)", t, names)
	paths, err := variantPaths(t, names)
	if err != nil {
		return newErrEncoder(err)
	}
	alts := variantAlternatives(t)
	altEncs := make([]encoderFunc, len(alts))
	for i, alt := range alts {
		altEncs[i] = fieldEncoder(alt, &fieldOpts{Path: paths[i]})
	}
	return func(e *Encoder, n tree.Node, v reflect.Value) error {
		idx, val := v.Interface().(variant).active()
		if idx < 0 {
			return nil
		}
		if err := altEncs[idx](e, n, val); err != nil {
			return fmt.Errorf("variant alternative %s: %w", paths[idx], err)
		}
		return nil
	}
}

// newVariantFieldEncoder returns a field encoder for the variant type
// t. The alternatives are written beneath opts.Path, which may be
// empty to place them directly beneath the parent.
func newVariantFieldEncoder(t reflect.Type, opts *fieldOpts) encoderFunc {
	if _, err := variantPaths(t, opts.Variant); err != nil {
		return newErrEncoder(err)
	}
	enc := newVariantEncoder(t, opts.Variant)
	p := opts.Path
	return func(e *Encoder, n tree.Node, v reflect.Value) error {
		if idx, _ := v.Interface().(variant).active(); idx < 0 {
			return nil
		}
		return enc(e, tree.InsertAll(n, p), v)
	}
}
