package data

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrTrailingData is returned when the input has more content after
	// the first JSON value.
	ErrTrailingData = errors.New("trailing data after JSON")
	// ErrExpectedObject is returned when a JSON object was expected but
	// another value was found.
	ErrExpectedObject = errors.New("expected JSON object")
)

// Parse decodes a single JSON value. Objects are decoded as [M], arrays as
// []any and numbers as float64.
func Parse(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}
	return records(v), nil
}

// ParseObject decodes a JSON object into an [M].
func ParseObject(b []byte) (M, error) {
	v, err := Parse(b)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(M)
	if !ok {
		return nil, fmt.Errorf("%w, received %T", ErrExpectedObject, v)
	}
	return obj, nil
}

// records replaces the decoded objects in v with [M], in place for lists.
func records(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(M, len(t))
		for k, e := range t {
			m[k] = records(e)
		}
		return m
	case []any:
		for i, e := range t {
			t[i] = records(e)
		}
	}
	return v
}
