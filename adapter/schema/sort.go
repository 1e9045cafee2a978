package schema

import (
	"cmp"

	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// Comparator orders two records. Callers sort stably so records comparing
// equal keep their original order.
type Comparator func(a, b domain.Document) int

type sortKey struct {
	addr  []string
	typ   domain.SchemaType
	order int
}

// CompileSort compiles a sort specification in any form accepted by
// [data.ParseSort]. Keys are compared in the given order with the comparer
// of their path type; the first non-zero result decides. Missing values sort
// before nil, which sorts before any other value.
func (s *Schema) CompileSort(args ...any) (Comparator, error) {
	spec, err := data.ParseSort(args...)
	if err != nil {
		return nil, err
	}
	keys := make([]sortKey, len(spec))
	for i, sn := range spec {
		if sn.Key == "" {
			return nil, domain.ErrQueryCompile{Operator: "sort", Reason: "empty sort key"}
		}
		order := 1
		if sn.Order < 0 {
			order = -1
		}
		keys[i] = sortKey{
			addr:  s.navigator.GetAddress(sn.Key),
			typ:   s.typeOf(sn.Key),
			order: order,
		}
	}
	return func(a, b domain.Document) int {
		for _, k := range keys {
			av, adef := s.navigator.Get(a, k.addr...)
			bv, bdef := s.navigator.Get(b, k.addr...)
			if c := compareField(k.typ, av, adef, bv, bdef); c != 0 {
				return c * k.order
			}
		}
		return 0
	}, nil
}

func compareField(typ domain.SchemaType, a any, adef bool, b any, bdef bool) int {
	ra, rb := rank(a, adef), rank(b, bdef)
	if ra != rb || ra < 2 {
		return cmp.Compare(ra, rb)
	}
	return typ.Compare(a, b)
}

func rank(v any, defined bool) int {
	switch {
	case !defined:
		return 0
	case v == nil:
		return 1
	}
	return 2
}
