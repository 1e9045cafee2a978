// Package fieldnavigator resolves dotted field paths inside records.
package fieldnavigator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// ErrCannotSet is returned when a path crosses a value that is neither an
// object nor a list.
type ErrCannotSet struct {
	Field string
	Value any
}

func (e ErrCannotSet) Error() string {
	return fmt.Sprintf("cannot create field %q in %T", e.Field, e.Value)
}

// ErrEmptyAddress is returned when setting a value at an empty path.
type ErrEmptyAddress struct{}

func (e ErrEmptyAddress) Error() string { return "empty field address" }

// FieldNavigator implements [domain.FieldNavigator].
type FieldNavigator struct {
	docFac func(any) (domain.Document, error)
}

// NewFieldNavigator returns a new instance of [domain.FieldNavigator].
// docFac creates the intermediate objects needed by Set.
func NewFieldNavigator(docFac func(any) (domain.Document, error)) domain.FieldNavigator {
	return &FieldNavigator{
		docFac: docFac,
	}
}

// GetAddress implements [domain.FieldNavigator].
func (fn *FieldNavigator) GetAddress(field string) []string {
	return strings.Split(field, ".")
}

// Get implements [domain.FieldNavigator]. Numeric parts index lists.
// Documents resolving paths on their own receive the remaining path as a
// whole.
func (fn *FieldNavigator) Get(obj any, addr ...string) (any, bool) {
	curr := obj
	for n, part := range addr {
		switch t := curr.(type) {
		case domain.PathGetter:
			return t.GetPath(strings.Join(addr[n:], "."))
		case domain.Document:
			if !t.Has(part) {
				return nil, false
			}
			curr = t.Get(part)
		case []any:
			i, ok := index(part, len(t))
			if !ok {
				return nil, false
			}
			curr = t[i]
		default:
			return nil, false
		}
	}
	return curr, true
}

// Set implements [domain.FieldNavigator]. Missing or nil intermediate fields
// are replaced by new documents.
func (fn *FieldNavigator) Set(obj any, value any, addr ...string) error {
	if len(addr) == 0 {
		return ErrEmptyAddress{}
	}
	curr := obj
	for n, part := range addr[:len(addr)-1] {
		next, err := fn.child(curr, part)
		if err != nil {
			return fmt.Errorf("%s: %w", strings.Join(addr[:n+1], "."), err)
		}
		curr = next
	}
	last := addr[len(addr)-1]
	switch t := curr.(type) {
	case domain.Document:
		t.Set(last, value)
		return nil
	case []any:
		if i, ok := index(last, len(t)); ok {
			t[i] = value
			return nil
		}
	}
	return ErrCannotSet{Field: strings.Join(addr, "."), Value: curr}
}

func (fn *FieldNavigator) child(curr any, part string) (any, error) {
	switch t := curr.(type) {
	case domain.Document:
		if next := t.Get(part); next != nil {
			return next, nil
		}
		doc, err := fn.docFac(nil)
		if err != nil {
			return nil, err
		}
		t.Set(part, doc)
		return doc, nil
	case []any:
		i, ok := index(part, len(t))
		if !ok {
			return nil, ErrCannotSet{Field: part, Value: curr}
		}
		if t[i] == nil {
			doc, err := fn.docFac(nil)
			if err != nil {
				return nil, err
			}
			t[i] = doc
		}
		return t[i], nil
	}
	return nil, ErrCannotSet{Field: part, Value: curr}
}

// Unset implements [domain.FieldNavigator]. Unsetting a list item leaves a
// nil in its place.
func (fn *FieldNavigator) Unset(obj any, addr ...string) {
	if len(addr) == 0 {
		return
	}
	parent, ok := fn.Get(obj, addr[:len(addr)-1]...)
	if !ok {
		return
	}
	last := addr[len(addr)-1]
	switch t := parent.(type) {
	case domain.Document:
		t.Unset(last)
	case []any:
		if i, ok := index(last, len(t)); ok {
			t[i] = nil
		}
	}
}

func index(part string, length int) (int, bool) {
	i, err := strconv.Atoi(part)
	if err != nil || i < 0 || i >= length {
		return 0, false
	}
	return i, true
}
