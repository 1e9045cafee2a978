package schematype

import (
	"time"

	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// exportLayout is the ISO 8601 form written to snapshots.
const exportLayout = "2006-01-02T15:04:05.000Z07:00"

// Date stores time.Time values. Strings in RFC 3339 or date-only form and
// numbers of milliseconds since the Unix epoch are accepted.
type Date struct {
	table
}

// NewDate returns a new Date type.
func NewDate() *Date {
	d := &Date{table: newTable()}
	d.merge(baseTable(d.equal, d.castArg))
	d.merge(orderedTable(d.Compare, d.castArg))

	part := func(name string, get func(time.Time) int) {
		d.query[name] = func(arg any) (domain.FieldPredicate, error) {
			n, ok := toInt(arg)
			if !ok {
				return nil, compileError(name, "argument must be an integer, got %v", arg)
			}
			return func(value any, defined bool) bool {
				t, ok := value.(time.Time)
				return defined && ok && get(t) == n
			}, nil
		}
	}
	part("$day", time.Time.Day)
	part("$month", func(t time.Time) int { return int(t.Month()) })
	part("$year", time.Time.Year)

	shift := func(name string, sign int64) {
		d.update[name] = func(arg any) (domain.FieldMutator, error) {
			ms, ok := toFloat(arg)
			if !ok {
				return nil, compileError(name, "argument must be a number of milliseconds, got %T", arg)
			}
			delta := time.Duration(sign*int64(ms)) * time.Millisecond
			return func(_ domain.Document, value any, defined bool) (any, bool, error) {
				if !defined || value == nil {
					return value, defined, nil
				}
				t, ok := value.(time.Time)
				if !ok {
					return nil, false, invalid("is not a date")
				}
				return t.Add(delta), true, nil
			}, nil
		}
	}
	shift("$inc", 1)
	shift("$dec", -1)

	bounds := numberUpdates(d.castArg)
	d.update["$max"] = bounds.update["$max"]
	d.update["$min"] = bounds.update["$min"]
	return d
}

// Name implements [domain.SchemaType].
func (d *Date) Name() string { return "Date" }

// CastIn implements [domain.SchemaType].
func (d *Date) CastIn(value any, defined bool, _ domain.Document) (any, error) {
	if !defined || value == nil {
		return value, nil
	}
	t, ok := castTime(value)
	if !ok {
		return nil, invalid("is not a valid date")
	}
	return t, nil
}

// CastOut implements [domain.SchemaType].
func (d *Date) CastOut(value any, _ domain.Document) (any, bool) {
	return value, true
}

// Compare implements [domain.SchemaType].
func (d *Date) Compare(a, b any) int {
	ta, aok := a.(time.Time)
	tb, bok := b.(time.Time)
	if !aok || !bok {
		return defaultComparer.Compare(a, b)
	}
	return ta.Compare(tb)
}

// Export implements [domain.Exporter]. Dates are written as UTC ISO 8601
// strings with millisecond precision.
func (d *Date) Export(value any) any {
	if t, ok := value.(time.Time); ok {
		return t.UTC().Format(exportLayout)
	}
	return value
}

// Import implements [domain.Exporter].
func (d *Date) Import(value any) (any, error) {
	return d.CastIn(value, true, nil)
}

func (d *Date) equal(value, arg any) bool {
	return d.Compare(value, arg) == 0
}

func (d *Date) castArg(arg any) any {
	if t, ok := castTime(arg); ok {
		return t
	}
	return arg
}
