// Package serializer contains the default [domain.Serializer] implementation.
package serializer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// DateLayout is the form dates are written in.
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

// Serializer implements domain.Serializer.
type Serializer struct {
	indent string
}

// NewSerializer returns a new implementation of domain.Serializer.
func NewSerializer(options ...Option) domain.Serializer {
	s := &Serializer{}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *Serializer) copyDoc(doc domain.Document) data.M {
	if o, ok := doc.(data.Objecter); ok {
		return s.copyAny(map[string]any(o.ToObject())).(data.M)
	}
	res := make(data.M, doc.Len())
	for k, v := range doc.Iter() {
		res[k] = s.copyAny(v)
	}
	return res
}

func (s *Serializer) copyAny(v any) any {
	switch t := v.(type) {
	case data.M:
		res := make(data.M, len(t))
		for k, val := range t {
			res[k] = s.copyAny(val)
		}
		return res
	case map[string]any:
		return s.copyAny(data.M(t))
	case domain.Document:
		return s.copyDoc(t)
	case data.D:
		return s.copyAny(t.Map())
	case []any:
		newList := make([]any, len(t))
		for n, itm := range t {
			newList[n] = s.copyAny(itm)
		}
		return newList
	case []data.M:
		newList := make([]any, len(t))
		for n, itm := range t {
			newList[n] = s.copyAny(itm)
		}
		return newList
	case time.Time:
		return t.UTC().Format(DateLayout)
	default:
		return v
	}
}

// Serialize implements domain.Serializer. Documents are copied into plain
// records and dates are written as UTC ISO 8601 strings.
func (s *Serializer) Serialize(ctx context.Context, obj any) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	obj = s.copyAny(obj)
	if s.indent != "" {
		return json.MarshalIndent(obj, "", s.indent)
	}
	return json.Marshal(obj)
}
