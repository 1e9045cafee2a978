package model

import (
	"slices"

	"github.com/vinicius-lino-figueiredo/warehouse/adapter/document"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/query"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/schema"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// Populate binds the references named by expr on every document. See
// [Model.PopulateDocument].
func (m *Model) Populate(expr any) (*query.Query, error) {
	return m.all().Populate(expr)
}

// PopulateDocument implements [domain.Populator]. Every directive binds a
// reference cell to its path on the returned document. Cells are resolved on
// first read and keep their value afterwards. A path declared as a list, or
// holding a list of ids, resolves to a [query.Query] of the referenced
// documents that still exist, filtered by the directive match, then skipped
// and limited, then sorted. An unset list path resolves to an empty query. A
// single id resolves to the referenced document, or nil, and an unset single
// path is left unset.
func (m *Model) PopulateDocument(doc domain.Document, expr any) (domain.Document, error) {
	if m.registry == nil {
		return nil, domain.ErrNoRegistry
	}
	directives, err := m.schema.CompilePopulate(expr)
	if err != nil {
		return nil, err
	}

	live, ok := doc.(*document.Document)
	if !ok {
		rec, err := m.record(doc)
		if err != nil {
			return nil, err
		}
		live = m.document(rec)
	}

	nav := m.schema.Navigator()
	for _, d := range directives {
		target, ok := m.registry.Lookup(d.Model)
		if !ok {
			return nil, domain.ErrPopulation{Path: d.Path, Model: d.Model, Reason: "model does not exist"}
		}
		value, defined := nav.Get(live.Record(), nav.GetAddress(d.Path)...)
		if !defined {
			if d.Array {
				empty := target.query(nil)
				live.SetReference(d.Path, document.NewReference(func() any { return empty }))
			}
			continue
		}
		ids, list := value.([]any)
		if !list && !d.Array {
			live.SetReference(d.Path, document.NewReference(func() any {
				if value == nil {
					return nil
				}
				return target.FindByID(value)
			}))
			continue
		}

		resolve, err := target.resolver(d)
		if err != nil {
			return nil, err
		}
		ids = slices.Clone(ids)
		live.SetReference(d.Path, document.NewReference(func() any {
			return resolve(ids)
		}))
	}
	return live, nil
}

// resolver compiles the match and sort of d against the schema of m and
// returns the function resolving a list of ids.
func (m *Model) resolver(d domain.PopulateDirective) (func(ids []any) *query.Query, error) {
	var (
		match schema.Predicate
		cmp   schema.Comparator
		err   error
	)
	if d.Match != nil {
		if match, err = m.schema.CompileQuery(d.Match); err != nil {
			return nil, err
		}
	}
	if len(d.Sort) > 0 {
		if cmp, err = m.schema.CompileSort(d.Sort); err != nil {
			return nil, err
		}
	}

	return func(ids []any) *query.Query {
		docs := make([]domain.Document, 0, len(ids))
		skip := d.Skip
		for _, id := range ids {
			if d.Limit > 0 && len(docs) == d.Limit {
				break
			}
			if id == nil {
				continue
			}
			doc := m.FindByID(id)
			if doc == nil || (match != nil && !match(doc)) {
				continue
			}
			if skip > 0 {
				skip--
				continue
			}
			docs = append(docs, doc)
		}
		if cmp != nil {
			slices.SortStableFunc(docs, cmp)
		}
		return m.query(docs)
	}, nil
}
