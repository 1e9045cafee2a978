// Package schematype contains the built-in [domain.SchemaType]
// implementations and their query and update operator tables.
package schematype

import (
	"fmt"
	"regexp"
	"time"

	"github.com/vinicius-lino-figueiredo/warehouse/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/fieldnavigator"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

var (
	defaultComparer  = comparer.NewComparer()
	defaultNavigator = fieldnavigator.NewFieldNavigator(data.NewDocument)
)

// table holds the operators of a type. It is embedded by every type to
// implement the operator lookups of [domain.SchemaType].
type table struct {
	query  map[string]domain.QueryOperator
	update map[string]domain.UpdateOperator
}

func newTable() table {
	return table{
		query:  map[string]domain.QueryOperator{},
		update: map[string]domain.UpdateOperator{},
	}
}

// QueryOperator implements [domain.SchemaType].
func (t table) QueryOperator(name string) (domain.QueryOperator, bool) {
	op, ok := t.query[name]
	return op, ok
}

// UpdateOperator implements [domain.SchemaType].
func (t table) UpdateOperator(name string) (domain.UpdateOperator, bool) {
	op, ok := t.update[name]
	return op, ok
}

func (t table) merge(other table) {
	for k, v := range other.query {
		t.query[k] = v
	}
	for k, v := range other.update {
		t.update[k] = v
	}
}

// equalFunc reports whether a stored value matches a query value.
type equalFunc func(value, arg any) bool

// castFunc converts query arguments into the live form of a type. The
// original argument is kept when it cannot be converted.
type castFunc func(arg any) any

func identity(arg any) any { return arg }

// baseTable returns the operators shared by every type.
func baseTable(eq equalFunc, cast castFunc) table {
	t := newTable()

	eqPred := func(arg any) domain.FieldPredicate {
		arg = cast(arg)
		return func(value any, defined bool) bool {
			if !defined || value == nil {
				return arg == nil
			}
			if arg == nil {
				return false
			}
			return eq(value, arg)
		}
	}
	inPred := func(op string, arg any) (domain.FieldPredicate, error) {
		list, ok := arg.([]any)
		if !ok {
			return nil, compileError(op, "argument must be a list, got %T", arg)
		}
		preds := make([]domain.FieldPredicate, len(list))
		for i, member := range list {
			preds[i] = eqPred(member)
		}
		return func(value any, defined bool) bool {
			for _, p := range preds {
				if p(value, defined) {
					return true
				}
			}
			return false
		}, nil
	}

	t.query["$eq"] = func(arg any) (domain.FieldPredicate, error) {
		return eqPred(arg), nil
	}
	t.query["$ne"] = func(arg any) (domain.FieldPredicate, error) {
		return not(eqPred(arg)), nil
	}
	exists := func(arg any) (domain.FieldPredicate, error) {
		want := Truthy(arg)
		return func(value any, defined bool) bool {
			return (defined && value != nil) == want
		}, nil
	}
	t.query["$exist"] = exists
	t.query["$exists"] = exists
	t.query["$in"] = func(arg any) (domain.FieldPredicate, error) {
		return inPred("$in", arg)
	}
	t.query["$nin"] = func(arg any) (domain.FieldPredicate, error) {
		p, err := inPred("$nin", arg)
		if err != nil {
			return nil, err
		}
		return not(p), nil
	}

	t.update["$set"] = func(arg any) (domain.FieldMutator, error) {
		return func(domain.Document, any, bool) (any, bool, error) {
			return data.Clone(arg), true, nil
		}, nil
	}
	t.update["$unset"] = func(arg any) (domain.FieldMutator, error) {
		remove := Truthy(arg)
		return func(_ domain.Document, value any, defined bool) (any, bool, error) {
			if remove {
				return nil, false, nil
			}
			return value, defined, nil
		}, nil
	}
	t.update["$rename"] = func(arg any) (domain.FieldMutator, error) {
		name, ok := arg.(string)
		if !ok || name == "" {
			return nil, compileError("$rename", "new name must be a non empty string")
		}
		addr := defaultNavigator.GetAddress(name)
		return func(rec domain.Document, value any, defined bool) (any, bool, error) {
			if !defined {
				return nil, false, nil
			}
			if err := defaultNavigator.Set(rec, value, addr...); err != nil {
				return nil, false, domain.ErrValidation{Path: name, Reason: err.Error()}
			}
			return nil, false, nil
		}, nil
	}
	return t
}

// orderedTable returns $lt, $lte, $gt and $gte. Ordering operators never match
// a missing or nil value.
func orderedTable(compare func(a, b any) int, cast castFunc) table {
	t := newTable()
	add := func(name string, ok func(int) bool) {
		t.query[name] = func(arg any) (domain.FieldPredicate, error) {
			arg = cast(arg)
			if arg == nil {
				return nil, compileError(name, "argument cannot be nil")
			}
			return func(value any, defined bool) bool {
				if !defined || value == nil {
					return false
				}
				return ok(compare(value, arg))
			}, nil
		}
	}
	add("$lt", func(c int) bool { return c < 0 })
	add("$lte", func(c int) bool { return c <= 0 })
	add("$gt", func(c int) bool { return c > 0 })
	add("$gte", func(c int) bool { return c >= 0 })
	return t
}

func not(p domain.FieldPredicate) domain.FieldPredicate {
	return func(value any, defined bool) bool {
		return !p(value, defined)
	}
}

// Truthy reports whether v would be considered true in a condition: nil,
// false, zero numbers and empty strings are false.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// matchesRegexp reports whether value is a string matched by re.
func matchesRegexp(value any, re *regexp.Regexp) bool {
	s, ok := value.(string)
	return ok && re.MatchString(s)
}

// looseEqual is the equality used by untyped values: regular expressions
// match strings and lists contain scalar values.
func looseEqual(value, arg any) bool {
	if re, ok := arg.(*regexp.Regexp); ok {
		if list, ok := value.([]any); ok {
			for _, v := range list {
				if matchesRegexp(v, re) {
					return true
				}
			}
			return false
		}
		return matchesRegexp(value, re)
	}
	if list, ok := value.([]any); ok {
		if _, argList := arg.([]any); !argList {
			for _, v := range list {
				if v != nil && defaultComparer.Compare(v, arg) == 0 {
					return true
				}
			}
			return false
		}
	}
	return defaultComparer.Compare(value, arg) == 0
}

func invalid(format string, args ...any) error {
	return domain.ErrValidation{Reason: fmt.Sprintf(format, args...)}
}

func compileError(op string, format string, args ...any) error {
	return domain.ErrQueryCompile{Operator: op, Reason: fmt.Sprintf(format, args...)}
}

// castTime converts the accepted date representations into time.Time.
func castTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	}
	if ms, ok := toFloat(v); ok {
		return time.UnixMilli(int64(ms)), true
	}
	return time.Time{}, false
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
}
