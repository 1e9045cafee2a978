package data

import (
	"fmt"
	"iter"
	"maps"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"time"

	goreflect "github.com/goccy/go-reflect"

	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// TagName is the struct tag read when converting structs into records.
const TagName = "warehouse"

var (
	timeTyp   = goreflect.TypeOf(*new(time.Time))
	regexpTyp = goreflect.TypeOf(new(regexp.Regexp))
)

// Objecter is implemented by values that expose a plain record copy of
// themselves, such as live documents.
type Objecter interface {
	ToObject() M
}

// M implements domain.Document by using a hashed map. Duplicates replace old
// values.
type M map[string]any

// NewDocument returns a new instance of [domain.Document].
func NewDocument(in any) (domain.Document, error) {
	return NewM(in)
}

// NewM converts maps, structs, ordered documents and other
// [domain.Document] implementations into a freshly allocated [M]. Nested
// objects become [M] and nested slices become []any.
func NewM(in any) (M, error) {
	if in == nil {
		return M{}, nil
	}
	v, err := normalize(in)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case M:
		return t, nil
	case nil:
		return M{}, nil
	default:
		return nil, fmt.Errorf("expected map or struct, got %T", in)
	}
}

// Normalize converts v into the record representation: nested objects as
// [M], lists as []any. Scalars are returned unchanged.
func Normalize(v any) (any, error) {
	return normalize(v)
}

func normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case M:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case Objecter:
		return t.ToObject(), nil
	case D:
		res := make(M, len(t))
		for _, e := range t {
			n, err := normalize(e.Value)
			if err != nil {
				return nil, err
			}
			res[e.Key] = n
		}
		return res, nil
	case domain.Document:
		res := make(M, t.Len())
		for k, val := range t.Iter() {
			n, err := normalize(val)
			if err != nil {
				return nil, err
			}
			res[k] = n
		}
		return res, nil
	case []any:
		res := make([]any, len(t))
		for i, val := range t {
			n, err := normalize(val)
			if err != nil {
				return nil, err
			}
			res[i] = n
		}
		return res, nil
	case string, bool, float64, int, int64, time.Time, *regexp.Regexp:
		return t, nil
	}
	return parseReflect(goreflect.ValueNoEscapeOf(v))
}

func normalizeMap[T ~map[string]any](m T) (M, error) {
	res := make(M, len(m))
	for k, val := range m {
		n, err := normalize(val)
		if err != nil {
			return nil, err
		}
		res[k] = n
	}
	return res, nil
}

func parseReflect(r goreflect.Value) (any, error) {
	switch r.Kind() {
	case goreflect.Invalid:
		return nil, nil
	case goreflect.Interface:
		if r.IsNil() {
			return nil, nil
		}
		return normalize(r.Elem().Interface())
	case reflect.Pointer:
		if r.IsNil() {
			return nil, nil
		}
		if r.Type() == regexpTyp {
			return r.Interface(), nil
		}
		if o, ok := r.Interface().(Objecter); ok {
			return o.ToObject(), nil
		}
		return parseReflect(r.Elem())
	case goreflect.Slice:
		if r.IsNil() {
			return nil, nil
		}
		if r.Type().Elem().Kind() == reflect.Uint8 {
			return r.Interface(), nil
		}
		fallthrough
	case goreflect.Array:
		return parseList(r)
	case goreflect.Struct:
		if r.Type() == timeTyp {
			return r.Interface(), nil
		}
		return parseStruct(r)
	case goreflect.Map:
		if r.IsNil() {
			return nil, nil
		}
		return parseMapReflect(r)
	case goreflect.Chan, goreflect.Func:
		if r.IsNil() {
			return nil, nil
		}
		return r.Interface(), nil
	default:
		return r.Interface(), nil
	}
}

func parseStruct(r goreflect.Value) (M, error) {
	typ := r.Type()
	numField := r.NumField()

	res := make(M, numField)

	for n := range numField {
		field := typ.Field(n)
		if field.PkgPath != "" {
			continue
		}

		name, ok := fieldName(r.Field(n), field)
		if !ok {
			continue
		}
		value, err := parseReflect(r.Field(n))
		if err != nil {
			return nil, err
		}
		res[name] = value
	}
	return res, nil
}

func fieldName(r goreflect.Value, typ goreflect.StructField) (string, bool) {
	name := typ.Name
	tag, ok := typ.Tag.Lookup(TagName)
	if !ok {
		return name, true
	}
	if tag == "-" {
		return "", false
	}
	segments := strings.Split(tag, ",")
	if segments[0] != "" {
		name = segments[0]
	}
	segments = segments[1:]
	if slices.Contains(segments, "omitempty") && isNullable(typ.Type) && r.IsNil() {
		return "", false
	}
	if slices.Contains(segments, "omitzero") && r.IsZero() {
		return "", false
	}
	return name, true
}

func parseMapReflect(v goreflect.Value) (M, error) {
	if v.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("expected string map keys, got %s", v.Type().Key())
	}
	res := make(M, v.Len())
	for _, k := range v.MapKeys() {
		var err error
		if res[k.String()], err = parseReflect(v.MapIndex(k)); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func parseList(r goreflect.Value) ([]any, error) {
	length := r.Len()
	res := make([]any, length)
	for i := range length {
		var err error
		if res[i], err = parseReflect(r.Index(i)); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func isNullable(t goreflect.Type) bool {
	k := t.Kind()
	return k == reflect.Pointer ||
		k == reflect.Slice ||
		k == reflect.Map ||
		k == reflect.Interface ||
		k == reflect.Func ||
		k == reflect.Chan
}

// Clone returns a deep copy of v. Records, ordered documents and lists are
// copied recursively; every other value is returned as is.
func Clone(v any) any {
	switch t := v.(type) {
	case M:
		return t.Clone()
	case map[string]any:
		return M(t).Clone()
	case D:
		res := make(D, len(t))
		for i, e := range t {
			res[i] = E{Key: e.Key, Value: Clone(e.Value)}
		}
		return res
	case []any:
		res := make([]any, len(t))
		for i, val := range t {
			res[i] = Clone(val)
		}
		return res
	default:
		return v
	}
}

// Clone returns a deep copy of d.
func (d M) Clone() M {
	if d == nil {
		return nil
	}
	res := make(M, len(d))
	for k, v := range d {
		res[k] = Clone(v)
	}
	return res
}

// ID implements domain.Document
func (d M) ID() any {
	return d["_id"]
}

// Get implements domain.Document
func (d M) Get(key string) any {
	return d[key]
}

// Set implements domain.Document
func (d M) Set(key string, value any) {
	d[key] = value
}

// Unset implements domain.Document
func (d M) Unset(key string) {
	delete(d, key)
}

// Iter implements domain.Document.
func (d M) Iter() iter.Seq2[string, any] {
	return maps.All(d)
}

// Keys implements domain.Document.
func (d M) Keys() iter.Seq[string] {
	return maps.Keys(d)
}

// Len implements domain.Document.
func (d M) Len() int {
	return len(d)
}

// Has implements domain.Document.
func (d M) Has(key string) bool {
	_, has := d[key]
	return has
}

// ToObject implements [Objecter].
func (d M) ToObject() M {
	return d.Clone()
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *M) UnmarshalJSON(input []byte) error {
	obj, err := ParseObject(input)
	if err != nil {
		return err
	}
	*d = obj
	return nil
}
