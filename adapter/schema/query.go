package schema

import (
	"fmt"
	"slices"

	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/schematype"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// Predicate reports whether a record matches a compiled query.
type Predicate func(doc domain.Document) bool

// CompileQuery compiles a query expression. Keys are dotted paths compared
// for equality, or holding operator objects such as {"$gt": 1}. Nested
// objects without operators address their fields by prefix. The logical
// operators $and, $or, $nor and $not take sub-queries and $where takes a
// func(domain.Document) bool. A nil expression matches every record.
func (s *Schema) CompileQuery(expr any) (Predicate, error) {
	if expr == nil {
		return func(domain.Document) bool { return true }, nil
	}
	return s.compileQuery(expr, "")
}

func (s *Schema) compileQuery(expr any, typePrefix string) (Predicate, error) {
	entries, ok := data.Entries(expr)
	if !ok {
		return nil, domain.ErrQueryCompile{Reason: fmt.Sprintf("query must be an object, got %T", expr)}
	}

	preds := make([]Predicate, 0, len(entries))
	for _, e := range entries {
		var (
			p   Predicate
			err error
		)
		switch e.Key {
		case "$and":
			p, err = s.logical(e.Key, e.Value, typePrefix, allOf)
		case "$or":
			p, err = s.logical(e.Key, e.Value, typePrefix, anyOf)
		case "$nor":
			p, err = s.logical(e.Key, e.Value, typePrefix, noneOf)
		case "$not":
			var sub Predicate
			if sub, err = s.compileQuery(e.Value, typePrefix); err == nil {
				p = noneOf([]Predicate{sub})
			}
		case "$where":
			p, err = where(e.Value)
		default:
			if isOperator(e.Key) {
				err = domain.ErrQueryCompile{Operator: e.Key, Reason: "unknown operator"}
				break
			}
			p, err = s.fieldPredicate(e.Key, e.Value, typePrefix)
		}
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return allOf(preds), nil
}

func (s *Schema) logical(op string, arg any, typePrefix string, combine func([]Predicate) Predicate) (Predicate, error) {
	list, ok := queryList(arg)
	if !ok {
		return nil, domain.ErrQueryCompile{Operator: op, Reason: fmt.Sprintf("argument must be a list, got %T", arg)}
	}
	preds := make([]Predicate, len(list))
	for i, sub := range list {
		p, err := s.compileQuery(sub, typePrefix)
		if err != nil {
			return nil, err
		}
		preds[i] = p
	}
	return combine(preds), nil
}

func queryList(arg any) ([]any, bool) {
	switch t := arg.(type) {
	case []any:
		return t, true
	case []data.M:
		res := make([]any, len(t))
		for i, m := range t {
			res[i] = m
		}
		return res, true
	case []data.D:
		res := make([]any, len(t))
		for i, d := range t {
			res[i] = d
		}
		return res, true
	case []map[string]any:
		res := make([]any, len(t))
		for i, m := range t {
			res[i] = m
		}
		return res, true
	}
	return nil, false
}

func where(arg any) (Predicate, error) {
	fn, ok := arg.(func(domain.Document) bool)
	if !ok {
		return nil, domain.ErrQueryCompile{Operator: "$where", Reason: fmt.Sprintf("argument must be a func(domain.Document) bool, got %T", arg)}
	}
	return fn, nil
}

// fieldPredicate compiles the condition set on the path name.
func (s *Schema) fieldPredicate(name string, cond any, typePrefix string) (Predicate, error) {
	entries, isObj := data.Entries(cond)
	if !isObj || len(entries) == 0 || !isPlainObject(cond) {
		return s.operators(name, []data.E{{Key: "$eq", Value: cond}}, typePrefix)
	}

	all, mixed := operatorKeys(entries)
	switch {
	case mixed:
		return nil, domain.ErrQueryCompile{Reason: fmt.Sprintf("cannot mix operators and fields in %q", name)}
	case all:
		return s.operators(name, entries, typePrefix)
	}

	preds := make([]Predicate, len(entries))
	for i, e := range entries {
		p, err := s.fieldPredicate(name+"."+e.Key, e.Value, typePrefix)
		if err != nil {
			return nil, err
		}
		preds[i] = p
	}
	return allOf(preds), nil
}

func (s *Schema) operators(name string, entries []data.E, typePrefix string) (Predicate, error) {
	typ := s.typeOf(typePrefix + name)
	preds := make([]domain.FieldPredicate, len(entries))
	for i, e := range entries {
		p, err := s.operator(name, typ, e.Key, e.Value, typePrefix)
		if err != nil {
			return nil, err
		}
		preds[i] = p
	}
	addr := s.navigator.GetAddress(name)
	return func(doc domain.Document) bool {
		value, defined := s.navigator.Get(doc, addr...)
		for _, p := range preds {
			if !p(value, defined) {
				return false
			}
		}
		return true
	}, nil
}

func (s *Schema) operator(name string, typ domain.SchemaType, op string, arg any, typePrefix string) (domain.FieldPredicate, error) {
	switch op {
	case "$not":
		return s.fieldNot(name, typ, arg, typePrefix)
	case "$elemMatch":
		return s.elemMatch(name, typ, arg, typePrefix)
	}
	q, ok := typ.QueryOperator(op)
	if !ok {
		return nil, domain.ErrQueryCompile{
			Operator: op,
			Reason:   fmt.Sprintf("not supported by %s path %q", typ.Name(), name),
		}
	}
	return q(arg)
}

// fieldNot negates an operator object, or the equality with a plain value.
func (s *Schema) fieldNot(name string, typ domain.SchemaType, arg any, typePrefix string) (domain.FieldPredicate, error) {
	entries, ok := data.Entries(arg)
	if all, _ := operatorKeys(entries); !ok || !all {
		entries = []data.E{{Key: "$eq", Value: arg}}
	}
	preds := make([]domain.FieldPredicate, len(entries))
	for i, e := range entries {
		p, err := s.operator(name, typ, e.Key, e.Value, typePrefix)
		if err != nil {
			return nil, err
		}
		preds[i] = p
	}
	return func(value any, defined bool) bool {
		for _, p := range preds {
			if !p(value, defined) {
				return true
			}
		}
		return false
	}, nil
}

// elemMatch matches lists holding at least one element satisfying arg. An
// operator object is applied to the elements themselves, other objects are
// queries over object elements.
func (s *Schema) elemMatch(name string, typ domain.SchemaType, arg any, typePrefix string) (domain.FieldPredicate, error) {
	entries, ok := data.Entries(arg)
	if !ok {
		return nil, domain.ErrQueryCompile{Operator: "$elemMatch", Reason: fmt.Sprintf("argument must be an object, got %T", arg)}
	}

	var match func(item any) bool
	if all, _ := operatorKeys(entries); all {
		child := s.mixed
		if a, ok := typ.(*schematype.Array); ok && a.Child() != nil {
			child = a.Child()
		}
		preds := make([]domain.FieldPredicate, len(entries))
		for i, e := range entries {
			p, err := s.operator(name, child, e.Key, e.Value, typePrefix)
			if err != nil {
				return nil, err
			}
			preds[i] = p
		}
		match = func(item any) bool {
			for _, p := range preds {
				if !p(item, true) {
					return false
				}
			}
			return true
		}
	} else {
		sub, err := s.compileQuery(arg, typePrefix+name+".")
		if err != nil {
			return nil, err
		}
		match = func(item any) bool {
			doc, ok := item.(domain.Document)
			return ok && sub(doc)
		}
	}

	return func(value any, defined bool) bool {
		list, ok := value.([]any)
		return defined && ok && slices.ContainsFunc(list, match)
	}, nil
}

func allOf(preds []Predicate) Predicate {
	if len(preds) == 1 {
		return preds[0]
	}
	return func(doc domain.Document) bool {
		for _, p := range preds {
			if !p(doc) {
				return false
			}
		}
		return true
	}
}

func anyOf(preds []Predicate) Predicate {
	return func(doc domain.Document) bool {
		for _, p := range preds {
			if p(doc) {
				return true
			}
		}
		return false
	}
}

func noneOf(preds []Predicate) Predicate {
	p := anyOf(preds)
	return func(doc domain.Document) bool {
		return !p(doc)
	}
}
