package objtree

import (
	"reflect"
)

// variant is implemented by the VariantN types. The methods are
// unexported so that no other type can claim to be a variant.
type variant interface {
	// alternatives returns the types of the variant's alternatives,
	// in declaration order.
	alternatives() []reflect.Type
	// active returns the index of the active alternative and its
	// value, or -1 if the variant is unset.
	active() (int, reflect.Value)
}

// variantSetter is implemented by pointers to the VariantN types.
type variantSetter interface {
	set(i int, v reflect.Value)
}

var (
	variantType       = reflect.TypeFor[variant]()
	variantSetterType = reflect.TypeFor[variantSetter]()
)

func isVariantType(t reflect.Type) bool {
	return t.Implements(variantType) && reflect.PointerTo(t).Implements(variantSetterType)
}

// variantAlternatives returns the alternative types of the variant
// type t.
func variantAlternatives(t reflect.Type) []reflect.Type {
	return reflect.Zero(t).Interface().(variant).alternatives()
}

// Variant2 holds a value of one of two types, or nothing.
//
// In a tree, a variant is written as a child whose tag names the
// active alternative. The tags are given by the variant option of
// the field's struct tag, one per alternative in order:
//
//	type Drawing struct {
//	    Shape objtree.Variant2[Circle, Square] `tree:"Shape,variant=Circle|Square"`
//	}
//
// When reading, the first tag in the list that has a matching child
// selects the alternative. Later tags are not considered, even if
// they would also match.
//
// The zero Variant2 is unset, and writes nothing.
type Variant2[A, B any] struct {
	idx int // 0 if unset, else 1+index of the active alternative
	val any
}

// Index returns the index of the active alternative, or -1 if v is
// unset.
func (v Variant2[A, B]) Index() int { return v.idx - 1 }

// A returns the first alternative, if it is active.
func (v Variant2[A, B]) A() (A, bool) { return variantGet[A](v.idx, 1, v.val) }

// B returns the second alternative, if it is active.
func (v Variant2[A, B]) B() (B, bool) { return variantGet[B](v.idx, 2, v.val) }

// SetA makes a the active value.
func (v *Variant2[A, B]) SetA(a A) { v.idx, v.val = 1, a }

// SetB makes b the active value.
func (v *Variant2[A, B]) SetB(b B) { v.idx, v.val = 2, b }

// Equal reports whether v and o have the same active alternative
// with deeply equal values.
func (v Variant2[A, B]) Equal(o Variant2[A, B]) bool {
	return v.idx == o.idx && reflect.DeepEqual(v.val, o.val)
}

func (v Variant2[A, B]) alternatives() []reflect.Type {
	return []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B]()}
}

func (v Variant2[A, B]) active() (int, reflect.Value) {
	return variantActive(v.alternatives(), v.idx, v.val)
}

func (v *Variant2[A, B]) set(i int, val reflect.Value) {
	v.idx, v.val = i+1, val.Interface()
}

// Variant3 holds a value of one of three types, or nothing. It
// behaves like [Variant2].
type Variant3[A, B, C any] struct {
	idx int
	val any
}

// Index returns the index of the active alternative, or -1 if v is
// unset.
func (v Variant3[A, B, C]) Index() int { return v.idx - 1 }

// A returns the first alternative, if it is active.
func (v Variant3[A, B, C]) A() (A, bool) { return variantGet[A](v.idx, 1, v.val) }

// B returns the second alternative, if it is active.
func (v Variant3[A, B, C]) B() (B, bool) { return variantGet[B](v.idx, 2, v.val) }

// C returns the third alternative, if it is active.
func (v Variant3[A, B, C]) C() (C, bool) { return variantGet[C](v.idx, 3, v.val) }

// SetA makes a the active value.
func (v *Variant3[A, B, C]) SetA(a A) { v.idx, v.val = 1, a }

// SetB makes b the active value.
func (v *Variant3[A, B, C]) SetB(b B) { v.idx, v.val = 2, b }

// SetC makes c the active value.
func (v *Variant3[A, B, C]) SetC(c C) { v.idx, v.val = 3, c }

// Equal reports whether v and o have the same active alternative
// with deeply equal values.
func (v Variant3[A, B, C]) Equal(o Variant3[A, B, C]) bool {
	return v.idx == o.idx && reflect.DeepEqual(v.val, o.val)
}

func (v Variant3[A, B, C]) alternatives() []reflect.Type {
	return []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C]()}
}

func (v Variant3[A, B, C]) active() (int, reflect.Value) {
	return variantActive(v.alternatives(), v.idx, v.val)
}

func (v *Variant3[A, B, C]) set(i int, val reflect.Value) {
	v.idx, v.val = i+1, val.Interface()
}

func variantGet[T any](idx, want int, val any) (T, bool) {
	if idx != want {
		var zero T
		return zero, false
	}
	ret, _ := val.(T)
	return ret, true
}

// variantActive returns the active index and an addressable copy of
// the active value.
func variantActive(alts []reflect.Type, idx int, val any) (int, reflect.Value) {
	if idx == 0 {
		return -1, reflect.Value{}
	}
	ret := reflect.New(alts[idx-1]).Elem()
	if val != nil {
		ret.Set(reflect.ValueOf(val))
	}
	return idx - 1, ret
}
