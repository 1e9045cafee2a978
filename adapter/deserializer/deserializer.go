// Package deserializer contains the default [domain.Deserializer]
// implementation.
package deserializer

import (
	"context"
	"errors"
	"fmt"

	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// ErrTargetNil is returned when the target is nil.
var ErrTargetNil = errors.New("target interface is nil")

// NewDeserializer returns a new instance of domain.Deserializer.
func NewDeserializer(decoder domain.Decoder) domain.Deserializer {
	return &Deserializer{
		decoder: decoder,
	}
}

// Deserializer implements [domain.Deserializer].
type Deserializer struct {
	decoder domain.Decoder
}

// Deserialize implements [domain.Deserializer]. Objects are parsed as
// [data.M], lists as []any and numbers as float64. Targets other than those
// representations are filled through the decoder.
func (d *Deserializer) Deserialize(ctx context.Context, b []byte, target any) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if target == nil {
		return ErrTargetNil
	}

	v, err := data.Parse(b)
	if err != nil {
		return err
	}

	switch p := target.(type) {
	case *any:
		*p = v
		return nil
	case *data.M:
		m, ok := v.(data.M)
		if !ok {
			return fmt.Errorf("%w, received %T", data.ErrExpectedObject, v)
		}
		*p = m
		return nil
	case *map[string]any:
		m, ok := v.(data.M)
		if !ok {
			return fmt.Errorf("%w, received %T", data.ErrExpectedObject, v)
		}
		*p = m
		return nil
	}

	return d.decoder.Decode(v, target)
}
