package serializer

// WithIndent makes the serializer write indented JSON.
func WithIndent(indent string) Option {
	return func(s *Serializer) {
		s.indent = indent
	}
}

// Option configures a [Serializer].
type Option func(*Serializer)
