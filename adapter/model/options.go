package model

import (
	"log/slog"
	"math/rand/v2"

	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// WithRegistry sets the registry used to resolve the collections named by
// populated references.
func WithRegistry(r Registry) Option {
	return func(m *Model) {
		m.registry = r
	}
}

// WithLogger sets the logger. Writes are logged at debug level and post hook
// failures at warn level.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		m.logger = l
	}
}

// WithIDGenerator sets the generator of the "_id" path added when the schema
// does not declare one.
func WithIDGenerator(g domain.IDGenerator) Option {
	return func(m *Model) {
		m.idGenerator = g
	}
}

// WithDecoder sets the decoder of the schema created when none is given.
func WithDecoder(d domain.Decoder) Option {
	return func(m *Model) {
		m.decoder = d
	}
}

// WithComparer sets the comparer of the "_id" path added when the schema does
// not declare one, and of the schema created when none is given.
func WithComparer(c domain.Comparer) Option {
	return func(m *Model) {
		m.comparer = c
	}
}

// WithSerializer sets the serializer handed to live documents.
func WithSerializer(s domain.Serializer) Option {
	return func(m *Model) {
		m.serializer = s
	}
}

// WithRand sets the source used to shuffle documents.
func WithRand(r *rand.Rand) Option {
	return func(m *Model) {
		m.rand = r
	}
}

// Option configures a [Model].
type Option func(*Model)
