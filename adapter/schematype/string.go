package schematype

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// String stores text values. Numbers, booleans and [fmt.Stringer] values are
// converted to their textual form.
type String struct {
	table
}

// NewString returns a new String type.
func NewString() *String {
	s := &String{table: newTable()}
	s.merge(stringTable(s.Compare))
	return s
}

func stringTable(compare func(a, b any) int) table {
	t := baseTable(stringEqual, identity)
	t.merge(orderedTable(compare, identity))
	t.query["$regex"] = func(arg any) (domain.FieldPredicate, error) {
		var re *regexp.Regexp
		switch r := arg.(type) {
		case *regexp.Regexp:
			re = r
		case string:
			var err error
			if re, err = regexp.Compile(r); err != nil {
				return nil, compileError("$regex", "%v", err)
			}
		default:
			return nil, compileError("$regex", "argument must be a string or *regexp.Regexp, got %T", arg)
		}
		return func(value any, defined bool) bool {
			return defined && matchesRegexp(value, re)
		}, nil
	}
	t.query["$length"] = func(arg any) (domain.FieldPredicate, error) {
		n, ok := toInt(arg)
		if !ok {
			return nil, compileError("$length", "argument must be an integer, got %v", arg)
		}
		return func(value any, defined bool) bool {
			s, ok := value.(string)
			return defined && ok && utf8.RuneCountInString(s) == n
		}, nil
	}
	return t
}

// Name implements [domain.SchemaType].
func (s *String) Name() string { return "String" }

// CastIn implements [domain.SchemaType].
func (s *String) CastIn(value any, defined bool, _ domain.Document) (any, error) {
	return castString(value, defined)
}

func castString(value any, defined bool) (any, error) {
	if !defined || value == nil {
		return value, nil
	}
	switch t := value.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case fmt.Stringer:
		return t.String(), nil
	}
	if f, ok := toFloat(value); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	return nil, invalid("is not a string")
}

// CastOut implements [domain.SchemaType].
func (s *String) CastOut(value any, _ domain.Document) (any, bool) {
	return value, true
}

// Compare implements [domain.SchemaType].
func (s *String) Compare(a, b any) int {
	as, aok := a.(string)
	bs, bok := b.(string)
	if !aok || !bok {
		return defaultComparer.Compare(a, b)
	}
	return strings.Compare(as, bs)
}

func stringEqual(value, arg any) bool {
	if re, ok := arg.(*regexp.Regexp); ok {
		return matchesRegexp(value, re)
	}
	return value == arg
}

// Enum is a String restricted to a fixed set of values.
type Enum struct {
	String
	values []string
}

// NewEnum returns a new Enum type accepting only values.
func NewEnum(values ...string) *Enum {
	return &Enum{String: *NewString(), values: values}
}

// Name implements [domain.SchemaType].
func (e *Enum) Name() string { return "Enum" }

// Values returns the accepted values.
func (e *Enum) Values() []string {
	return slices.Clone(e.values)
}

// CastIn implements [domain.SchemaType].
func (e *Enum) CastIn(value any, defined bool, doc domain.Document) (any, error) {
	v, err := e.String.CastIn(value, defined, doc)
	if err != nil || v == nil {
		return v, err
	}
	if !slices.Contains(e.values, v.(string)) {
		return nil, invalid("should be one of %s", strings.Join(e.values, ", "))
	}
	return v, nil
}
