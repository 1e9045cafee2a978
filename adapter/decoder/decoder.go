// Package decoder contains the default [domain.Decoder] implementation.
package decoder

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-reflect"
	"github.com/mitchellh/mapstructure"

	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

var (
	// ErrTargetNil is returned when the target is nil.
	ErrTargetNil = errors.New("target interface is nil")
	// ErrNonPointer is returned when the target is not a pointer.
	ErrNonPointer = errors.New("target must be a pointer")
)

// ErrDecode is returned when the source cannot be decoded into the target.
type ErrDecode struct {
	Source any
	Target any
}

func (e ErrDecode) Error() string {
	return fmt.Sprintf("cannot decode %T into %T", e.Source, e.Target)
}

var docReflectType = reflect.TypeOf((*domain.Document)(nil)).Elem()

// Decoder implements domain.Decoder.
type Decoder struct{}

// NewDecoder returns a new implementation of domain.Decoder.
func NewDecoder() domain.Decoder {
	return &Decoder{}
}

// Decode implements domain.Decoder. Documents are decoded as plain maps,
// reading the "warehouse" struct tag. Strings are parsed into time.Time
// fields using RFC 3339.
func (d *Decoder) Decode(source any, target any) error {
	if target == nil {
		return ErrTargetNil
	}

	value := reflect.ValueNoEscapeOf(target)
	if value.Kind() != reflect.Ptr {
		return ErrNonPointer
	}

	if !value.Type().Elem().Implements(docReflectType) {
		source = d.adjustDoc(source)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    data.TagName,
		Result:     target,
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(source); err != nil {
		errDec := ErrDecode{Source: source, Target: target}
		return fmt.Errorf("%w: %w", errDec, err)
	}
	return nil
}

func (d *Decoder) adjustDoc(value any) any {
	switch t := value.(type) {
	case data.Objecter:
		return d.adjustDoc(map[string]any(t.ToObject()))
	case map[string]any:
		doc := make(map[string]any, len(t))
		for k, v := range t {
			doc[k] = d.adjustDoc(v)
		}
		return doc
	case domain.Document:
		doc := make(map[string]any, t.Len())
		for k, v := range t.Iter() {
			doc[k] = d.adjustDoc(v)
		}
		return doc
	case []any:
		lst := make([]any, len(t))
		for n, v := range t {
			lst[n] = d.adjustDoc(v)
		}
		return lst
	case []domain.Document:
		lst := make([]any, len(t))
		for n, v := range t {
			lst[n] = d.adjustDoc(v)
		}
		return lst
	default:
		return value
	}
}
