package schematype

import (
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// Mixed is the untyped field type. Undeclared paths are treated as Mixed.
type Mixed struct {
	table
	comparer domain.Comparer
}

// NewMixed returns a new Mixed type.
func NewMixed(opts ...Option) *Mixed {
	o := newOptions(opts)
	m := &Mixed{table: newTable(), comparer: o.comparer}
	m.merge(baseTable(m.equal, identity))
	m.merge(orderedTable(m.Compare, identity))
	m.merge(numberUpdates(identity))
	m.merge(arrayQueries(nil, m.equal))
	m.merge(arrayUpdates(m.equal))
	return m
}

// Name implements [domain.SchemaType].
func (m *Mixed) Name() string { return "Mixed" }

// CastIn implements [domain.SchemaType].
func (m *Mixed) CastIn(value any, defined bool, _ domain.Document) (any, error) {
	if !defined {
		return nil, nil
	}
	return data.Normalize(value)
}

// CastOut implements [domain.SchemaType].
func (m *Mixed) CastOut(value any, _ domain.Document) (any, bool) {
	return value, true
}

// Compare implements [domain.SchemaType].
func (m *Mixed) Compare(a, b any) int {
	return m.comparer.Compare(a, b)
}

func (m *Mixed) equal(value, arg any) bool {
	return looseEqual(value, arg)
}
