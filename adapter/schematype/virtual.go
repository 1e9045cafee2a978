package schematype

import "github.com/vinicius-lino-figueiredo/warehouse/domain"

// Getter computes the value of a virtual path.
type Getter func(doc domain.Document) any

// Setter receives the value assigned to a virtual path.
type Setter func(doc domain.Document, value any)

// Virtual is a computed path. It is exposed by live documents and never
// persisted.
type Virtual struct {
	table
	getter Getter
	setter Setter
}

// NewVirtual returns a new Virtual type without getter or setter.
func NewVirtual() *Virtual {
	return &Virtual{table: newTable()}
}

// Get sets the getter of v and returns v.
func (v *Virtual) Get(fn Getter) *Virtual {
	v.getter = fn
	return v
}

// Set sets the setter of v and returns v.
func (v *Virtual) Set(fn Setter) *Virtual {
	v.setter = fn
	return v
}

// Getter returns the getter, or nil.
func (v *Virtual) Getter() Getter { return v.getter }

// Setter returns the setter, or nil.
func (v *Virtual) Setter() Setter { return v.setter }

// Name implements [domain.SchemaType].
func (v *Virtual) Name() string { return "Virtual" }

// CastIn implements [domain.SchemaType].
func (v *Virtual) CastIn(value any, _ bool, _ domain.Document) (any, error) {
	return value, nil
}

// CastOut implements [domain.SchemaType]. Virtual values are never stored.
func (v *Virtual) CastOut(any, domain.Document) (any, bool) {
	return nil, false
}

// Compare implements [domain.SchemaType].
func (v *Virtual) Compare(a, b any) int {
	return defaultComparer.Compare(a, b)
}
