package schematype

import "github.com/vinicius-lino-figueiredo/warehouse/domain"

type options struct {
	comparer    domain.Comparer
	idGenerator domain.IDGenerator
}

// Option configures the collaborators of a type.
type Option func(*options)

// WithComparer sets the comparer used to order untyped values.
func WithComparer(c domain.Comparer) Option {
	return func(o *options) {
		o.comparer = c
	}
}

// WithIDGenerator sets the generator used by [ID] to create missing ids.
func WithIDGenerator(g domain.IDGenerator) Option {
	return func(o *options) {
		o.idGenerator = g
	}
}

func newOptions(opts []Option) options {
	o := options{comparer: defaultComparer}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
