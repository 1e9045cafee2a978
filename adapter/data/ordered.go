package data

import (
	"slices"

	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// E is a single key-value pair of a [D].
type E struct {
	Key   string
	Value any
}

// D is an ordered document. It is used to write update and sort expressions
// whose keys must be processed in a given order.
type D []E

// Get returns the value of the first element named key.
func (d D) Get(key string) (any, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Map converts d into a [M]. Later duplicates replace earlier ones.
func (d D) Map() M {
	res := make(M, len(d))
	for _, e := range d {
		res[e.Key] = e.Value
	}
	return res
}

// Entries returns the key-value pairs of an expression in processing order.
// [D] keeps its own order; maps and other documents are sorted by key. The
// second result is false when v is not an object.
func Entries(v any) ([]E, bool) {
	switch t := v.(type) {
	case D:
		return t, true
	case M:
		return sortedEntries(t), true
	case map[string]any:
		return sortedEntries(t), true
	case domain.Document:
		res := make([]E, 0, t.Len())
		for k, val := range t.Iter() {
			res = append(res, E{Key: k, Value: val})
		}
		slices.SortFunc(res, func(a, b E) int {
			if a.Key < b.Key {
				return -1
			}
			if a.Key > b.Key {
				return 1
			}
			return 0
		})
		return res, true
	}
	return nil, false
}

func sortedEntries[T ~map[string]any](m T) []E {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	res := make([]E, len(keys))
	for i, k := range keys {
		res[i] = E{Key: k, Value: m[k]}
	}
	return res
}
