package idgenerator

import "io"

// WithReader sets the source of the random bytes each UUID is built from.
func WithReader(r io.Reader) Option {
	return func(ig *IDGenerator) {
		ig.reader = r
	}
}

// Option configures behavior through the functional options pattern.
type Option func(*IDGenerator)
