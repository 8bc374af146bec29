package memo

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	jsoniter "github.com/json-iterator/go"
)

// Keyer lets an argument choose its own canonical form instead of being
// serialized field by field. Two arguments of the same type with equal
// CanonicalKey values are the same argument as far as the cache is concerned.
type Keyer interface {
	CanonicalKey() string
}

// Key is the canonical form of an argument list.
type Key struct {
	canonical string
	digest    uint64
}

func (k Key) String() string { return k.canonical }

// Digest is the xxhash of the canonical form. It only picks a shard; equality
// is always decided on the full canonical string.
func (k Key) Digest() uint64 { return k.digest }

var (
	errUnsupportedKind = errors.New("unsupported kind")
	errCycle           = errors.New("cyclic value")
	errNonFinite       = errors.New("non-finite float")
	errHiddenField     = errors.New("field is not encoded; implement Keyer on the argument to key it")
	errInvalidUTF8     = errors.New("string is not valid UTF-8")
)

var canonicalJSON = jsoniter.Config{
	SortMapKeys: true,
	EscapeHTML:  false,
}.Froze()

type keyEntry struct {
	T string  `json:"t"`
	K *string `json:"k,omitempty"`
	V any     `json:"v,omitempty"`
}

// Canonicalize derives the cache key of an ordered argument list.
// Each argument is tagged with its Go type so that int(1) and float64(1)
// never collide. The tag covers top-level arguments only: values nested in an
// interface-typed container are keyed by their JSON form, so []any{1} and
// []any{1.0} share a key. Use concrete element types or a Keyer where that
// matters.
//
// Arguments whose encoding would lose information are rejected instead of
// keyed: structs with unexported or `json:"-"` fields, strings that are not
// valid UTF-8, and the kinds JSON cannot represent.
func Canonicalize(args ...any) (Key, error) {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, arg := range args {
		entry, err := entryOf(arg)
		if err != nil {
			return Key{}, &KeyDerivationError{Index: i, Type: typeName(arg), Err: err}
		}
		raw, err := canonicalJSON.Marshal(entry)
		if err != nil {
			return Key{}, &KeyDerivationError{Index: i, Type: typeName(arg), Err: err}
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.Write(raw)
	}
	sb.WriteByte(']')

	canonical := sb.String()
	return Key{canonical: canonical, digest: xxhash.Sum64String(canonical)}, nil
}

func entryOf(arg any) (keyEntry, error) {
	entry := keyEntry{T: typeName(arg)}
	if k, ok := arg.(Keyer); ok {
		ck := k.CanonicalKey()
		entry.K = &ck
		return entry, nil
	}
	if err := validate(reflect.ValueOf(arg), map[visit]struct{}{}); err != nil {
		return entry, err
	}
	entry.V = arg
	return entry, nil
}

func typeName(arg any) string {
	if arg == nil {
		return "<nil>"
	}
	return reflect.TypeOf(arg).String()
}

type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

var (
	jsonMarshalerType = reflect.TypeOf((*interface{ MarshalJSON() ([]byte, error) })(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*interface{ MarshalText() ([]byte, error) })(nil)).Elem()
)

// validate walks v the way the JSON encoder will and rejects what it cannot
// encode deterministically. The encoder itself recurses forever on cycles,
// so those have to be caught here. onPath holds the references on the
// current path only; shared acyclic references are fine.
func validate(v reflect.Value, onPath map[visit]struct{}) error {
	if !v.IsValid() {
		return nil
	}
	t := v.Type()
	if t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType) {
		return nil
	}

	switch v.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return fmt.Errorf("%w: %s", errUnsupportedKind, v.Kind())

	case reflect.String:
		if !utf8.ValidString(v.String()) {
			return fmt.Errorf("%w: %q", errInvalidUTF8, v.String())
		}

	case reflect.Float32, reflect.Float64:
		if f := v.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: %v", errNonFinite, f)
		}

	case reflect.Interface:
		return validate(v.Elem(), onPath)

	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		return within(v, 0, onPath, func() error {
			return validate(v.Elem(), onPath)
		})

	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		return within(v, 0, onPath, func() error {
			iter := v.MapRange()
			for iter.Next() {
				if err := validate(iter.Key(), onPath); err != nil {
					return err
				}
				if err := validate(iter.Value(), onPath); err != nil {
					return err
				}
			}
			return nil
		})

	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		return within(v, v.Len(), onPath, func() error {
			return validateElems(v, onPath)
		})

	case reflect.Array:
		return validateElems(v, onPath)

	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if hidden(f) {
				return fmt.Errorf("field %s: %w", f.Name, errHiddenField)
			}
			if err := validate(v.Field(i), onPath); err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
	}
	return nil
}

// hidden reports whether the encoder drops f, which would let values that
// differ only in f share a key. Embedded unexported structs are not hidden:
// their exported fields are promoted.
func hidden(f reflect.StructField) bool {
	if f.Tag.Get("json") == "-" {
		return true
	}
	if f.IsExported() {
		return false
	}
	if !f.Anonymous {
		return true
	}
	ft := f.Type
	if ft.Kind() == reflect.Pointer {
		ft = ft.Elem()
	}
	return ft.Kind() != reflect.Struct
}

func validateElems(v reflect.Value, onPath map[visit]struct{}) error {
	for i := 0; i < v.Len(); i++ {
		if err := validate(v.Index(i), onPath); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	return nil
}

func within(v reflect.Value, length int, onPath map[visit]struct{}, fn func() error) error {
	at := visit{ptr: v.Pointer(), typ: v.Type(), len: length}
	if _, ok := onPath[at]; ok {
		return fmt.Errorf("%w: %s", errCycle, v.Type())
	}
	onPath[at] = struct{}{}
	defer delete(onPath, at)
	return fn()
}
