// Package comparer implements a total order over record values.
package comparer

import (
	"cmp"
	"fmt"
	"math"
	"math/big"
	"slices"
	"time"

	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// Comparer implements domain.Comparer. Values are ordered by type first:
// nil, numbers, strings, booleans, dates, lists, documents and finally any
// other type. Values of the same type are ordered naturally.
type Comparer struct{}

// NewComparer returns a new implementation of domain.Comparer.
func NewComparer() domain.Comparer {
	return &Comparer{}
}

// Comparable implements domain.Comparer. Only numbers, strings and dates are
// comparable with values of their own kind.
func (c *Comparer) Comparable(a, b any) bool {
	if _, ok := c.asNumber(a); ok {
		_, ok = c.asNumber(b)
		return ok
	}

	switch a.(type) {
	case string:
		_, ok := b.(string)
		return ok
	case time.Time:
		_, ok := b.(time.Time)
		return ok
	default:
		return false
	}
}

// Compare implements domain.Comparer.
func (c *Comparer) Compare(a any, b any) int {
	// [nil] (null)
	if comp, ok := c.checkNil(a, b); ok {
		return comp
	}

	// Numbers
	if comp, ok := c.checkNumbers(a, b); ok {
		return comp
	}

	// Strings
	if comp, ok := c.checkStrings(a, b); ok {
		return comp
	}

	// Booleans
	if comp, ok := c.checkBooleans(a, b); ok {
		return comp
	}

	// Dates
	if comp, ok := c.checkTime(a, b); ok {
		return comp
	}

	// Arrays
	if comp, ok := c.checkArrays(a, b); ok {
		return comp
	}

	// Objects
	if comp, ok := c.checkDocs(a, b); ok {
		return comp
	}

	// Anything else is ordered by its type name, then by its printed form.
	if comp := cmp.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b)); comp != 0 {
		return comp
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func (c *Comparer) checkNil(a, b any) (int, bool) {
	if a == nil {
		if b == nil {
			return 0, true
		}
		return -1, true
	}
	if b == nil {
		return 1, true // no need to test if a == nil
	}
	return 0, false
}

func (c *Comparer) checkNumbers(a, b any) (int, bool) {
	if a, ok := c.asNumber(a); ok {
		// Using big.Float to safely compare float64 and int64 without
		// precision loss
		if b, ok := c.asNumber(b); ok {
			return a.Cmp(b), true
		}
		return -1, true
	}
	if _, ok := c.asNumber(b); ok {
		return 1, true
	}
	return 0, false
}

func (c *Comparer) checkStrings(a, b any) (int, bool) {
	if a, ok := a.(string); ok {
		if b, ok := b.(string); ok {
			return cmp.Compare(a, b), true
		}
		return -1, true
	}
	if _, ok := b.(string); ok {
		return 1, true
	}
	return 0, false
}

func (c *Comparer) checkBooleans(a, b any) (int, bool) {
	if a, ok := a.(bool); ok {
		if b, ok := b.(bool); ok {
			return c.compareBool(a, b), true
		}
		return -1, true
	}
	if _, ok := b.(bool); ok {
		return 1, true
	}
	return 0, false
}

func (c *Comparer) checkTime(a, b any) (int, bool) {
	if a, ok := a.(time.Time); ok {
		if b, ok := b.(time.Time); ok {
			return a.Compare(b), true
		}
		return -1, true
	}
	if _, ok := b.(time.Time); ok {
		return 1, true
	}
	return 0, false
}

func (c *Comparer) checkArrays(a, b any) (int, bool) {
	if a, ok := a.([]any); ok {
		if b, ok := b.([]any); ok {
			return c.compareArray(a, b), true
		}
		return -1, true
	}
	if _, ok := b.([]any); ok {
		return 1, true
	}
	return 0, false
}

func (c *Comparer) checkDocs(a, b any) (int, bool) {
	if a, ok := a.(domain.Document); ok {
		if b, ok := b.(domain.Document); ok {
			return c.compareDoc(a, b), true
		}
		return -1, true
	}
	if _, ok := b.(domain.Document); ok {
		return 1, true
	}
	return 0, false
}

func (c *Comparer) compareArray(a, b []any) int {
	for i := range min(len(a), len(b)) {
		if comp := c.Compare(a[i], b[i]); comp != 0 {
			return comp
		}
	}

	// Common section was identical, longest one wins
	return cmp.Compare(len(a), len(b))
}

func (c *Comparer) compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if a {
		return 1
	}
	return -1
}

func (c *Comparer) compareDoc(a domain.Document, b domain.Document) int {
	aKeys := slices.Sorted(a.Keys())
	bKeys := slices.Sorted(b.Keys())

	for i := range min(len(aKeys), len(bKeys)) {
		if comp := c.Compare(a.Get(aKeys[i]), b.Get(bKeys[i])); comp != 0 {
			return comp
		}
	}

	if comp := cmp.Compare(len(aKeys), len(bKeys)); comp != 0 {
		return comp
	}

	return slices.Compare(aKeys, bKeys)
}

func (c *Comparer) asNumber(v any) (*big.Float, bool) {
	r := big.NewFloat(0)
	switch n := v.(type) {
	case int:
		r.SetInt64(int64(n))
	case int8:
		r.SetInt64(int64(n))
	case int16:
		r.SetInt64(int64(n))
	case int32:
		r.SetInt64(int64(n))
	case int64:
		r.SetInt64(n)
	case uint:
		r.SetUint64(uint64(n))
	case uint8:
		r.SetUint64(uint64(n))
	case uint16:
		r.SetUint64(uint64(n))
	case uint32:
		r.SetUint64(uint64(n))
	case uint64:
		r.SetUint64(n)
	case float32:
		if math.IsNaN(float64(n)) {
			return nil, false
		}
		r.SetFloat64(float64(n))
	case float64:
		if math.IsNaN(n) {
			return nil, false
		}
		r.SetFloat64(n)
	default:
		return nil, false
	}
	return r, true
}
