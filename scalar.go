package objtree

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// scalarCodec converts a value to and from the text of a node or
// attribute.
type scalarCodec struct {
	// format returns the text form of v.
	format func(e *Encoder, v reflect.Value) (string, error)
	// parse sets v from s. v must be settable. Errors returned by
	// parse are bare conversion errors, the caller adds context.
	parse func(s string, v reflect.Value) error
}

// scalarFor returns the scalarCodec for t, if t maps to text.
func scalarFor(t reflect.Type) (*scalarCodec, bool) {
	switch {
	case implementsEither(t, enumMarshalerType) && reflect.PointerTo(t).Implements(enumUnmarshalerType):
		return newEnumScalar(t), true
	case implementsEither(t, textMarshalerType) && reflect.PointerTo(t).Implements(textUnmarshalerType):
		return newTextScalar(t), true
	case isBytesType(t):
		return newBytesScalar(), true
	case !scalarKinds.Has(t.Kind()):
		return nil, false
	}

	switch t.Kind() {
	case reflect.Bool:
		return &scalarCodec{
			format: func(e *Encoder, v reflect.Value) (string, error) {
				return strconv.FormatBool(v.Bool()), nil
			},
			parse: func(s string, v reflect.Value) error {
				v.SetBool(s == "true")
				return nil
			},
		}, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &scalarCodec{
			format: func(e *Encoder, v reflect.Value) (string, error) {
				return strconv.FormatInt(v.Int(), 10), nil
			},
			parse: func(s string, v reflect.Value) error {
				i64, err := strconv.ParseInt(strings.TrimSpace(s), 10, t.Bits())
				if err != nil {
					return err
				}
				v.SetInt(i64)
				return nil
			},
		}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return &scalarCodec{
			format: func(e *Encoder, v reflect.Value) (string, error) {
				return strconv.FormatUint(v.Uint(), 10), nil
			},
			parse: func(s string, v reflect.Value) error {
				u64, err := strconv.ParseUint(strings.TrimSpace(s), 10, t.Bits())
				if err != nil {
					return err
				}
				v.SetUint(u64)
				return nil
			},
		}, true
	case reflect.Float32, reflect.Float64:
		return &scalarCodec{
			format: func(e *Encoder, v reflect.Value) (string, error) {
				return e.formatFloat(v.Float()), nil
			},
			parse: func(s string, v reflect.Value) error {
				f64, err := strconv.ParseFloat(strings.TrimSpace(s), t.Bits())
				if err != nil {
					return err
				}
				v.SetFloat(f64)
				return nil
			},
		}, true
	case reflect.String:
		return &scalarCodec{
			format: func(e *Encoder, v reflect.Value) (string, error) {
				return v.String(), nil
			},
			parse: func(s string, v reflect.Value) error {
				v.SetString(s)
				return nil
			},
		}, true
	}
	panic(fmt.Sprintf("unhandled scalar kind %s", t.Kind()))
}

func newEnumScalar(t reflect.Type) *scalarCodec {
	return &scalarCodec{
		format: func(e *Encoder, v reflect.Value) (string, error) {
			m, ok := asInterface[EnumMarshaler](v)
			if !ok {
				return "", typeErr(t, "EnumMarshaler is only implemented on pointer receiver, and cannot take address of value")
			}
			return m.MarshalEnum(), nil
		},
		parse: func(s string, v reflect.Value) error {
			v.Addr().Interface().(EnumUnmarshaler).UnmarshalEnum(s)
			return nil
		},
	}
}

func newTextScalar(t reflect.Type) *scalarCodec {
	return &scalarCodec{
		format: func(e *Encoder, v reflect.Value) (string, error) {
			m, ok := asInterface[encoding.TextMarshaler](v)
			if !ok {
				return "", typeErr(t, "TextMarshaler is only implemented on pointer receiver, and cannot take address of value")
			}
			bs, err := m.MarshalText()
			if err != nil {
				return "", fmt.Errorf("marshaling %s: %w", t, err)
			}
			return string(bs), nil
		},
		parse: func(s string, v reflect.Value) error {
			return v.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s))
		},
	}
}

func newBytesScalar() *scalarCodec {
	return &scalarCodec{
		format: func(e *Encoder, v reflect.Value) (string, error) {
			return base64.StdEncoding.EncodeToString(v.Bytes()), nil
		},
		parse: func(s string, v reflect.Value) error {
			bs, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
			if err != nil {
				return err
			}
			v.SetBytes(bs)
			return nil
		},
	}
}

// implementsEither reports whether t or *t implements iface.
func implementsEither(t, iface reflect.Type) bool {
	return t.Implements(iface) || reflect.PointerTo(t).Implements(iface)
}

// asInterface returns v as a T, taking v's address if T is only
// implemented by the pointer type.
func asInterface[T any](v reflect.Value) (T, bool) {
	iface := reflect.TypeFor[T]()
	if v.Type().Implements(iface) {
		return v.Interface().(T), true
	}
	if v.CanAddr() && reflect.PointerTo(v.Type()).Implements(iface) {
		return v.Addr().Interface().(T), true
	}
	var zero T
	return zero, false
}

// parseScalar sets v from s using sc, wrapping any failure in a
// ValueError that names tag.
func parseScalar(sc *scalarCodec, tag, s string, v reflect.Value) error {
	if err := sc.parse(s, v); err != nil {
		return ValueError{
			Tag:  tag,
			Text: s,
			Type: v.Type().String(),
			Err:  err,
		}
	}
	return nil
}
