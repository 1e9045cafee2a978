package schema

import (
	"fmt"

	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// Mutator applies one step of a compiled update to a record.
type Mutator func(rec domain.Document) error

// CompileUpdate compiles an update expression into the ordered list of steps
// to apply. Operator keys such as {"$inc": {"views": 1}} come first, in the
// order they appear, followed by the plain assignments in their own order.
// Nested objects without operators address their fields by prefix and may
// hold operators themselves.
func (s *Schema) CompileUpdate(expr any) ([]Mutator, error) {
	var ops, plain []Mutator
	if err := s.compileUpdate(expr, "", &ops, &plain); err != nil {
		return nil, err
	}
	return append(ops, plain...), nil
}

func (s *Schema) compileUpdate(expr any, prefix string, ops, plain *[]Mutator) error {
	entries, ok := data.Entries(expr)
	if !ok {
		return domain.ErrQueryCompile{Reason: fmt.Sprintf("update must be an object, got %T", expr)}
	}

	for _, e := range entries {
		if isOperator(e.Key) {
			fields, ok := data.Entries(e.Value)
			if !ok {
				return domain.ErrQueryCompile{
					Operator: e.Key,
					Reason:   fmt.Sprintf("argument must be an object, got %T", e.Value),
				}
			}
			for _, f := range fields {
				m, err := s.updateOperator(e.Key, prefix+f.Key, f.Value)
				if err != nil {
					return err
				}
				*ops = append(*ops, m)
			}
			continue
		}

		name := prefix + e.Key
		if nested, ok := data.Entries(e.Value); ok && len(nested) > 0 && isPlainObject(e.Value) {
			if err := s.compileUpdate(e.Value, name+".", ops, plain); err != nil {
				return err
			}
			continue
		}
		*plain = append(*plain, s.assign(name, e.Value))
	}
	return nil
}

// isPlainObject reports whether v is walked as a nested update. Other
// documents are assigned as a whole.
func isPlainObject(v any) bool {
	switch v.(type) {
	case data.D, data.M, map[string]any:
		return true
	}
	return false
}

func (s *Schema) updateOperator(op, name string, arg any) (Mutator, error) {
	typ := s.typeOf(name)
	u, ok := typ.UpdateOperator(op)
	if !ok {
		return nil, domain.ErrQueryCompile{
			Operator: op,
			Reason:   fmt.Sprintf("not supported by %s path %q", typ.Name(), name),
		}
	}
	fm, err := u(arg)
	if err != nil {
		return nil, err
	}
	addr := s.navigator.GetAddress(name)
	return func(rec domain.Document) error {
		value, defined := s.navigator.Get(rec, addr...)
		res, keep, err := fm(rec, value, defined)
		if err != nil {
			return withPath(name, err)
		}
		if !keep {
			s.navigator.Unset(rec, addr...)
			return nil
		}
		if err := s.navigator.Set(rec, res, addr...); err != nil {
			return domain.ErrValidation{Path: name, Reason: err.Error()}
		}
		return nil
	}, nil
}

func (s *Schema) assign(name string, value any) Mutator {
	addr := s.navigator.GetAddress(name)
	value = data.Clone(value)
	return func(rec domain.Document) error {
		if err := s.navigator.Set(rec, data.Clone(value), addr...); err != nil {
			return domain.ErrValidation{Path: name, Reason: err.Error()}
		}
		return nil
	}
}
