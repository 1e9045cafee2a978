package document

import "github.com/vinicius-lino-figueiredo/warehouse/domain"

// WithSerializer sets the serializer used by [Document.String].
func WithSerializer(s domain.Serializer) Option {
	return func(d *Document) {
		d.serializer = s
	}
}

// Option configures a [Document].
type Option func(*Document)
