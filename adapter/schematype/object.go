package schematype

import (
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// Object stores nested records. Nested paths declared on the schema are cast
// on their own.
type Object struct {
	table
	comparer domain.Comparer
}

// NewObject returns a new Object type.
func NewObject(opts ...Option) *Object {
	o := newOptions(opts)
	obj := &Object{table: newTable(), comparer: o.comparer}
	obj.merge(baseTable(obj.equal, identity))
	return obj
}

// Name implements [domain.SchemaType].
func (o *Object) Name() string { return "Object" }

// CastIn implements [domain.SchemaType].
func (o *Object) CastIn(value any, defined bool, _ domain.Document) (any, error) {
	if !defined || value == nil {
		return value, nil
	}
	norm, err := data.Normalize(value)
	if err != nil {
		return nil, invalid("is not an object: %v", err)
	}
	m, ok := norm.(data.M)
	if !ok {
		return nil, invalid("is not an object")
	}
	return m, nil
}

// CastOut implements [domain.SchemaType].
func (o *Object) CastOut(value any, _ domain.Document) (any, bool) {
	return value, true
}

// Compare implements [domain.SchemaType].
func (o *Object) Compare(a, b any) int {
	return o.comparer.Compare(a, b)
}

func (o *Object) equal(value, arg any) bool {
	if m, err := data.Normalize(arg); err == nil {
		arg = m
	}
	return o.comparer.Compare(value, arg) == 0
}
