package model

import (
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/query"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

func (m *Model) query(docs []domain.Document) *query.Query {
	var opts []query.Option
	if m.rand != nil {
		opts = append(opts, query.WithRand(m.rand))
	}
	return query.New(docs, m.schema, m, opts...)
}

func (m *Model) views(records []data.M, lean bool) []domain.Document {
	docs := make([]domain.Document, len(records))
	for i, rec := range records {
		docs[i] = m.view(rec, lean)
	}
	return docs
}

// all returns every document, in store order.
func (m *Model) all(options ...domain.FindOption) *query.Query {
	opts := domain.NewFindOptions(options...)
	return m.query(m.views(m.store.records(), opts.Lean))
}

// Has reports whether a record is stored under id.
func (m *Model) Has(id any) bool {
	return m.store.has(key(id))
}

// FindByID returns the document stored under id, or nil.
func (m *Model) FindByID(id any, options ...domain.FindOption) domain.Document {
	rec, ok := m.store.get(key(id))
	if !ok {
		return nil
	}
	return m.view(rec, domain.NewFindOptions(options...).Lean)
}

// Get is an alias for [Model.FindByID].
func (m *Model) Get(id any, options ...domain.FindOption) domain.Document {
	return m.FindByID(id, options...)
}

// Find returns the documents matching q, in store order. Skip and limit are
// applied while scanning. See [schema.Schema.CompileQuery] for the accepted
// expressions.
func (m *Model) Find(q any, options ...domain.FindOption) (*query.Query, error) {
	match, err := m.schema.CompileQuery(q)
	if err != nil {
		return nil, err
	}
	opts := domain.NewFindOptions(options...)
	records := m.store.scan(func(rec data.M) bool { return match(rec) }, opts.Skip, opts.Limit)
	return m.query(m.views(records, opts.Lean)), nil
}

// FindOne returns the first document matching q, or nil.
func (m *Model) FindOne(q any, options ...domain.FindOption) (domain.Document, error) {
	res, err := m.Find(q, append(options, domain.WithFindLimit(1))...)
	if err != nil {
		return nil, err
	}
	return res.First(), nil
}

// Count returns the number of stored records.
func (m *Model) Count() int { return m.store.len() }

// Size is an alias for [Model.Count].
func (m *Model) Size() int { return m.Count() }

// ForEach calls fn for every document, in store order.
func (m *Model) ForEach(fn func(doc domain.Document, i int), options ...domain.FindOption) {
	m.all(options...).ForEach(fn)
}

// Each is an alias for [Model.ForEach].
func (m *Model) Each(fn func(doc domain.Document, i int), options ...domain.FindOption) {
	m.ForEach(fn, options...)
}

// ToArray returns every document, in store order.
func (m *Model) ToArray(options ...domain.FindOption) []domain.Document {
	return m.all(options...).ToArray()
}

// Map returns the results of fn for every document.
func (m *Model) Map(fn func(doc domain.Document, i int) any, options ...domain.FindOption) []any {
	return m.all(options...).Map(fn)
}

// Reduce accumulates fn over every document. See [query.Query.Reduce].
func (m *Model) Reduce(fn func(acc any, doc domain.Document, i int) any, initial ...any) any {
	return m.all().Reduce(fn, initial...)
}

// ReduceRight accumulates fn over every document from last to first. See
// [query.Query.ReduceRight].
func (m *Model) ReduceRight(fn func(acc any, doc domain.Document, i int) any, initial ...any) any {
	return m.all().ReduceRight(fn, initial...)
}

// Filter returns the documents for which fn returns true.
func (m *Model) Filter(fn func(doc domain.Document, i int) bool, options ...domain.FindOption) *query.Query {
	return m.all(options...).Filter(fn)
}

// Every reports whether fn returns true for every document.
func (m *Model) Every(fn func(doc domain.Document, i int) bool) bool {
	return m.all().Every(fn)
}

// Some reports whether fn returns true for at least one document.
func (m *Model) Some(fn func(doc domain.Document, i int) bool) bool {
	return m.all().Some(fn)
}

// Sort returns every document sorted by the given spec. See
// [data.ParseSort] for the accepted specs.
func (m *Model) Sort(args ...any) (*query.Query, error) {
	return m.all().Sort(args...)
}

// Eq returns the document at index i. Negative indexes count from the end.
func (m *Model) Eq(i int, options ...domain.FindOption) domain.Document {
	return m.all(options...).Eq(i)
}

// First returns the first document, or nil.
func (m *Model) First(options ...domain.FindOption) domain.Document {
	return m.Eq(0, options...)
}

// Last returns the last document, or nil.
func (m *Model) Last(options ...domain.FindOption) domain.Document {
	return m.Eq(-1, options...)
}

// Slice returns the documents from start up to, but not including, end. See
// [query.Query.Slice].
func (m *Model) Slice(start, end int) *query.Query {
	return m.all().Slice(start, end)
}

// Limit returns at most the first n documents.
func (m *Model) Limit(n int) *query.Query { return m.all().Limit(n) }

// Skip returns every document but the first n.
func (m *Model) Skip(n int) *query.Query { return m.all().Skip(n) }

// Reverse returns every document in reverse store order.
func (m *Model) Reverse() *query.Query { return m.all().Reverse() }

// Shuffle returns every document in random order.
func (m *Model) Shuffle() *query.Query { return m.all().Shuffle() }

// Random is an alias for [Model.Shuffle].
func (m *Model) Random() *query.Query { return m.Shuffle() }
