package schematype

import (
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/idgenerator"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// ID is the type of the "_id" path. A missing id is generated through the
// configured [domain.IDGenerator].
type ID struct {
	table
	generator domain.IDGenerator
	comparer  domain.Comparer
}

// NewID returns a new ID type.
func NewID(opts ...Option) *ID {
	o := newOptions(opts)
	if o.idGenerator == nil {
		o.idGenerator = idgenerator.NewIDGenerator()
	}
	id := &ID{table: newTable(), generator: o.idGenerator, comparer: o.comparer}
	id.merge(baseTable(id.equal, identity))
	id.merge(orderedTable(id.Compare, identity))
	return id
}

// Name implements [domain.SchemaType].
func (i *ID) Name() string { return "ID" }

// CastIn implements [domain.SchemaType]. Only scalar ids are accepted.
func (i *ID) CastIn(value any, defined bool, _ domain.Document) (any, error) {
	return castScalar(value, defined)
}

// CastOut implements [domain.SchemaType].
func (i *ID) CastOut(value any, _ domain.Document) (any, bool) {
	return value, true
}

// Compare implements [domain.SchemaType].
func (i *ID) Compare(a, b any) int {
	return i.comparer.Compare(a, b)
}

// Generate implements [domain.Generator].
func (i *ID) Generate() (any, error) {
	return i.generator.GenerateID()
}

func (i *ID) equal(value, arg any) bool {
	return i.comparer.Compare(value, arg) == 0
}

// Reference stores the id of a record of another collection.
type Reference struct {
	table
	ref      string
	comparer domain.Comparer
}

// NewReference returns a new Reference type pointing to the collection named
// model.
func NewReference(model string, opts ...Option) *Reference {
	o := newOptions(opts)
	r := &Reference{table: newTable(), ref: model, comparer: o.comparer}
	r.merge(baseTable(r.equal, identity))
	r.merge(orderedTable(r.Compare, identity))
	return r
}

// Name implements [domain.SchemaType].
func (r *Reference) Name() string { return "Reference" }

// Ref implements [domain.Referencer].
func (r *Reference) Ref() string { return r.ref }

// CastIn implements [domain.SchemaType]. Documents are replaced by their id.
func (r *Reference) CastIn(value any, defined bool, _ domain.Document) (any, error) {
	if doc, ok := value.(domain.Document); ok {
		value = doc.ID()
	}
	return castScalar(value, defined)
}

// CastOut implements [domain.SchemaType].
func (r *Reference) CastOut(value any, _ domain.Document) (any, bool) {
	if doc, ok := value.(domain.Document); ok {
		return doc.ID(), true
	}
	return value, true
}

// Compare implements [domain.SchemaType].
func (r *Reference) Compare(a, b any) int {
	return r.comparer.Compare(a, b)
}

func (r *Reference) equal(value, arg any) bool {
	return r.comparer.Compare(value, arg) == 0
}

func castScalar(value any, defined bool) (any, error) {
	if !defined || value == nil {
		return value, nil
	}
	switch value.(type) {
	case string, bool:
		return value, nil
	}
	if _, ok := toFloat(value); ok {
		return value, nil
	}
	return nil, invalid("is not a valid id")
}
