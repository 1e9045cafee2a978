package schema

import "github.com/vinicius-lino-figueiredo/warehouse/domain"

// WithComparer sets the comparer used by untyped paths.
func WithComparer(c domain.Comparer) Option {
	return func(s *Schema) {
		s.comparer = c
	}
}

// WithFieldNavigator sets the navigator used to read and write dotted paths.
func WithFieldNavigator(f domain.FieldNavigator) Option {
	return func(s *Schema) {
		s.navigator = f
	}
}

// WithDecoder sets the decoder used to read population options given as
// maps.
func WithDecoder(d domain.Decoder) Option {
	return func(s *Schema) {
		s.decoder = d
	}
}

// Option configures a [Schema] through the functional options pattern.
type Option func(*Schema)
