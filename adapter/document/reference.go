package document

import (
	"errors"
	"sync"
)

// ErrNoCollection is returned by writes on documents not bound to a
// collection.
var ErrNoCollection = errors.New("document is not bound to a collection")

// Reference is a populated path. Its value is resolved once, on first read.
type Reference struct {
	once    sync.Once
	resolve func() any
	value   any
}

// NewReference returns a cell resolving its value with resolve.
func NewReference(resolve func() any) *Reference {
	return &Reference{resolve: resolve}
}

// Value returns the resolved value.
func (r *Reference) Value() any {
	r.once.Do(func() {
		r.value = r.resolve()
		r.resolve = nil
	})
	return r.value
}
