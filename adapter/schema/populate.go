package schema

import (
	"fmt"
	"strings"

	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/schematype"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// CompilePopulate normalizes a population expression into directives. expr
// may be a string of space separated paths, a [domain.PopulateOptions], a map
// with the keys path, model, match, sort, limit and skip, or a slice of any
// of them. A path must be declared as a reference or a list of references
// unless the model is given explicitly.
func (s *Schema) CompilePopulate(expr any) ([]domain.PopulateDirective, error) {
	items, err := s.populateItems(expr)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrPopulation{Reason: "path is required"}
	}
	res := make([]domain.PopulateDirective, len(items))
	for i, item := range items {
		if res[i], err = s.directive(item); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (s *Schema) populateItems(expr any) ([]domain.PopulateOptions, error) {
	switch t := expr.(type) {
	case nil:
		return nil, nil
	case string:
		fields := strings.Fields(t)
		res := make([]domain.PopulateOptions, len(fields))
		for i, f := range fields {
			res[i] = domain.PopulateOptions{Path: f}
		}
		return res, nil
	case []string:
		return s.populateItems(strings.Join(t, " "))
	case domain.PopulateOptions:
		return []domain.PopulateOptions{t}, nil
	case *domain.PopulateOptions:
		return []domain.PopulateOptions{*t}, nil
	case []domain.PopulateOptions:
		return t, nil
	case []any:
		var res []domain.PopulateOptions
		for _, item := range t {
			sub, err := s.populateItems(item)
			if err != nil {
				return nil, err
			}
			res = append(res, sub...)
		}
		return res, nil
	case data.D:
		expr = t.Map()
	}

	if _, ok := data.Entries(expr); !ok {
		return nil, domain.ErrPopulation{Reason: fmt.Sprintf("unsupported expression %T", expr)}
	}
	var po domain.PopulateOptions
	if err := s.decoder.Decode(expr, &po); err != nil {
		return nil, domain.ErrPopulation{Reason: err.Error()}
	}
	return []domain.PopulateOptions{po}, nil
}

func (s *Schema) directive(po domain.PopulateOptions) (domain.PopulateDirective, error) {
	d := domain.PopulateDirective{
		Path:  po.Path,
		Model: po.Model,
		Match: po.Match,
		Limit: po.Limit,
		Skip:  po.Skip,
	}
	if po.Path == "" {
		return d, domain.ErrPopulation{Model: po.Model, Reason: "path is required"}
	}
	if po.Limit < 0 || po.Skip < 0 {
		return d, domain.ErrPopulation{Path: po.Path, Model: po.Model, Reason: "limit and skip cannot be negative"}
	}

	typ, declared := s.Lookup(po.Path)
	if a, ok := typ.(*schematype.Array); ok {
		typ = a.Child()
		d.Array = true
	}
	if ref, ok := typ.(domain.Referencer); ok {
		if d.Model == "" {
			d.Model = ref.Ref()
		}
	} else if d.Model == "" {
		if !declared {
			return d, domain.ErrPopulation{Path: po.Path, Reason: "path is not declared"}
		}
		return d, domain.ErrPopulation{Path: po.Path, Reason: "path is not a reference"}
	}

	if po.Sort != nil {
		sort, err := data.ParseSort(po.Sort)
		if err != nil {
			return d, domain.ErrPopulation{Path: po.Path, Model: d.Model, Reason: err.Error()}
		}
		d.Sort = sort
	}
	return d, nil
}
