package schematype

import (
	"cmp"
	"math"
	"strconv"
	"strings"

	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// Number stores every numeric value as float64.
type Number struct {
	table
}

// NewNumber returns a new Number type.
func NewNumber() *Number {
	n := &Number{table: newTable()}
	n.merge(baseTable(n.equal, n.castArg))
	n.merge(orderedTable(n.Compare, n.castArg))
	n.merge(numberUpdates(n.castArg))
	return n
}

// Name implements [domain.SchemaType].
func (n *Number) Name() string { return "Number" }

// CastIn implements [domain.SchemaType]. Numeric strings are parsed.
func (n *Number) CastIn(value any, defined bool, _ domain.Document) (any, error) {
	if !defined || value == nil {
		return value, nil
	}
	if f, ok := toFloat(value); ok {
		if math.IsNaN(f) {
			return nil, invalid("is NaN")
		}
		return f, nil
	}
	if s, ok := value.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(f) {
			return nil, invalid("is not a number")
		}
		return f, nil
	}
	return nil, invalid("is not a number")
}

// CastOut implements [domain.SchemaType].
func (n *Number) CastOut(value any, _ domain.Document) (any, bool) {
	return value, true
}

// Compare implements [domain.SchemaType].
func (n *Number) Compare(a, b any) int {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if !aok || !bok {
		return defaultComparer.Compare(a, b)
	}
	return cmp.Compare(fa, fb)
}

func (n *Number) equal(value, arg any) bool {
	fa, aok := toFloat(value)
	fb, bok := toFloat(arg)
	return aok && bok && fa == fb
}

func (n *Number) castArg(arg any) any {
	if v, err := n.CastIn(arg, true, nil); err == nil {
		return v
	}
	return arg
}

// numberUpdates returns the arithmetic update operators. Missing or nil
// values are treated as zero, except for $max and $min which take the
// argument.
func numberUpdates(cast castFunc) table {
	t := newTable()
	arith := func(name string, check func(float64) error, apply func(cur, arg float64) float64) {
		t.update[name] = func(arg any) (domain.FieldMutator, error) {
			f, ok := toFloat(cast(arg))
			if !ok {
				return nil, compileError(name, "argument must be a number, got %T", arg)
			}
			if check != nil {
				if err := check(f); err != nil {
					return nil, err
				}
			}
			return func(_ domain.Document, value any, defined bool) (any, bool, error) {
				cur := 0.0
				if defined && value != nil {
					var ok bool
					if cur, ok = toFloat(value); !ok {
						return nil, false, invalid("is not a number")
					}
				}
				return apply(cur, f), true, nil
			}, nil
		}
	}
	nonZero := func(name string) func(float64) error {
		return func(f float64) error {
			if f == 0 {
				return compileError(name, "argument cannot be zero")
			}
			return nil
		}
	}

	arith("$inc", nil, func(cur, arg float64) float64 { return cur + arg })
	arith("$dec", nil, func(cur, arg float64) float64 { return cur - arg })
	arith("$mul", nil, func(cur, arg float64) float64 { return cur * arg })
	arith("$div", nonZero("$div"), func(cur, arg float64) float64 { return cur / arg })
	arith("$mod", nonZero("$mod"), math.Mod)

	bound := func(name string, replace func(c int) bool) {
		t.update[name] = func(arg any) (domain.FieldMutator, error) {
			arg = cast(arg)
			return func(_ domain.Document, value any, defined bool) (any, bool, error) {
				if !defined || value == nil {
					return arg, true, nil
				}
				if replace(defaultComparer.Compare(arg, value)) {
					return arg, true, nil
				}
				return value, true, nil
			}, nil
		}
	}
	bound("$max", func(c int) bool { return c > 0 })
	bound("$min", func(c int) bool { return c < 0 })
	return t
}
