// Package query contains the chainable read view returned by collections.
//
// A [Query] is an immutable sequence of documents captured when it is built.
// Every narrowing or reordering method returns a new Query; writes iterate the
// captured ids and forward to the collection one record at a time.
package query

import (
	"context"
	"math/rand/v2"
	"slices"

	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/schema"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// Query is a frozen ordered list of documents.
type Query struct {
	docs   []domain.Document
	schema *schema.Schema
	coll   domain.Collection
	rand   *rand.Rand
}

// New returns a Query over docs. The slice is copied.
func New(docs []domain.Document, s *schema.Schema, coll domain.Collection, options ...Option) *Query {
	q := &Query{
		docs:   slices.Clone(docs),
		schema: s,
		coll:   coll,
	}
	for _, option := range options {
		option(q)
	}
	return q
}

func (q *Query) derive(docs []domain.Document) *Query {
	return &Query{docs: docs, schema: q.schema, coll: q.coll, rand: q.rand}
}

// Count returns the number of documents.
func (q *Query) Count() int { return len(q.docs) }

// Len is an alias for [Query.Count].
func (q *Query) Len() int { return q.Count() }

// Eq returns the document at index i. Negative indexes count from the end.
// It returns nil when i is out of range.
func (q *Query) Eq(i int) domain.Document {
	if i < 0 {
		i += len(q.docs)
	}
	if i < 0 || i >= len(q.docs) {
		return nil
	}
	return q.docs[i]
}

// First returns the first document, or nil.
func (q *Query) First() domain.Document { return q.Eq(0) }

// Last returns the last document, or nil.
func (q *Query) Last() domain.Document { return q.Eq(-1) }

// Slice returns the documents from start up to, but not including, end.
// Negative indexes count from the end and out of range indexes are clamped.
func (q *Query) Slice(start, end int) *Query {
	n := len(q.docs)
	start, end = clamp(start, n), clamp(end, n)
	if start >= end {
		return q.derive(nil)
	}
	return q.derive(slices.Clone(q.docs[start:end]))
}

func clamp(i, n int) int {
	if i < 0 {
		i += n
	}
	return min(max(i, 0), n)
}

// Limit returns at most the first n documents.
func (q *Query) Limit(n int) *Query { return q.Slice(0, max(n, 0)) }

// Skip returns every document but the first n.
func (q *Query) Skip(n int) *Query { return q.Slice(max(n, 0), len(q.docs)) }

// Reverse returns the documents in reverse order.
func (q *Query) Reverse() *Query {
	docs := slices.Clone(q.docs)
	slices.Reverse(docs)
	return q.derive(docs)
}

// Shuffle returns the documents in random order.
func (q *Query) Shuffle() *Query {
	docs := slices.Clone(q.docs)
	shuffle := rand.Shuffle
	if q.rand != nil {
		shuffle = q.rand.Shuffle
	}
	shuffle(len(docs), func(i, j int) { docs[i], docs[j] = docs[j], docs[i] })
	return q.derive(docs)
}

// Random is an alias for [Query.Shuffle].
func (q *Query) Random() *Query { return q.Shuffle() }

// Find returns the documents matching expr, in order. See
// [schema.Schema.CompileQuery] for the accepted expressions.
func (q *Query) Find(expr any, options ...domain.FindOption) (*Query, error) {
	match, err := q.schema.CompileQuery(expr)
	if err != nil {
		return nil, err
	}
	opts := domain.NewFindOptions(options...)
	skip, limit := opts.Skip, opts.Limit

	var docs []domain.Document
	for _, doc := range q.docs {
		if limit > 0 && len(docs) == limit {
			break
		}
		if !match(doc) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		if opts.Lean {
			doc = Lean(doc)
		}
		docs = append(docs, doc)
	}
	return q.derive(docs), nil
}

// FindOne returns the first document matching expr, or nil.
func (q *Query) FindOne(expr any, options ...domain.FindOption) (domain.Document, error) {
	res, err := q.Find(expr, append(options, domain.WithFindLimit(1))...)
	if err != nil {
		return nil, err
	}
	return res.First(), nil
}

// Sort returns the documents sorted by the given spec. Documents comparing
// equal keep their relative order. See [data.ParseSort] for the accepted
// specs.
func (q *Query) Sort(args ...any) (*Query, error) {
	cmp, err := q.schema.CompileSort(args...)
	if err != nil {
		return nil, err
	}
	docs := slices.Clone(q.docs)
	slices.SortStableFunc(docs, cmp)
	return q.derive(docs), nil
}

// ForEach calls fn for every document, in order.
func (q *Query) ForEach(fn func(doc domain.Document, i int)) {
	for i, doc := range q.docs {
		fn(doc, i)
	}
}

// Each is an alias for [Query.ForEach].
func (q *Query) Each(fn func(doc domain.Document, i int)) { q.ForEach(fn) }

// ToArray returns a copy of the documents.
func (q *Query) ToArray() []domain.Document {
	return slices.Clone(q.docs)
}

// Map returns the results of fn for every document.
func (q *Query) Map(fn func(doc domain.Document, i int) any) []any {
	res := make([]any, len(q.docs))
	for i, doc := range q.docs {
		res[i] = fn(doc, i)
	}
	return res
}

// Reduce accumulates fn over the documents from first to last. Without an
// initial value the first document is the initial accumulator.
func (q *Query) Reduce(fn func(acc any, doc domain.Document, i int) any, initial ...any) any {
	start, acc := 0, any(nil)
	switch {
	case len(initial) > 0:
		acc = initial[0]
	case len(q.docs) > 0:
		start, acc = 1, q.docs[0]
	}
	for i := start; i < len(q.docs); i++ {
		acc = fn(acc, q.docs[i], i)
	}
	return acc
}

// ReduceRight is like [Query.Reduce], from last to first.
func (q *Query) ReduceRight(fn func(acc any, doc domain.Document, i int) any, initial ...any) any {
	start, acc := len(q.docs)-1, any(nil)
	switch {
	case len(initial) > 0:
		acc = initial[0]
	case len(q.docs) > 0:
		start, acc = len(q.docs)-2, q.docs[len(q.docs)-1]
	}
	for i := start; i >= 0; i-- {
		acc = fn(acc, q.docs[i], i)
	}
	return acc
}

// Filter returns the documents for which fn returns true.
func (q *Query) Filter(fn func(doc domain.Document, i int) bool) *Query {
	var docs []domain.Document
	for i, doc := range q.docs {
		if fn(doc, i) {
			docs = append(docs, doc)
		}
	}
	return q.derive(docs)
}

// Every reports whether fn returns true for every document. It is true for
// an empty Query.
func (q *Query) Every(fn func(doc domain.Document, i int) bool) bool {
	for i, doc := range q.docs {
		if !fn(doc, i) {
			return false
		}
	}
	return true
}

// Some reports whether fn returns true for at least one document.
func (q *Query) Some(fn func(doc domain.Document, i int) bool) bool {
	for i, doc := range q.docs {
		if fn(doc, i) {
			return true
		}
	}
	return false
}

// Populate binds the references named by expr on every document. See
// [schema.Schema.CompilePopulate] for the accepted expressions.
func (q *Query) Populate(expr any) (*Query, error) {
	p, ok := q.coll.(domain.Populator)
	if !ok {
		return nil, domain.ErrNoRegistry
	}
	docs := make([]domain.Document, len(q.docs))
	for i, doc := range q.docs {
		res, err := p.PopulateDocument(doc, expr)
		if err != nil {
			return nil, err
		}
		docs[i] = res
	}
	return q.derive(docs), nil
}

// ToObjects returns plain copies of the documents.
func (q *Query) ToObjects() []data.M {
	res := make([]data.M, len(q.docs))
	for i, doc := range q.docs {
		res[i] = Lean(doc).(data.M)
	}
	return res
}

// Scan decodes the plain form of every document into target, which must be a
// pointer to a slice.
func (q *Query) Scan(target any) error {
	objs := make([]any, len(q.docs))
	for i, o := range q.ToObjects() {
		objs[i] = o
	}
	return q.schema.Decoder().Decode(objs, target)
}

// Update applies expr to every document, one at a time. It stops at the first
// failure and returns the documents updated so far along with the error.
func (q *Query) Update(ctx context.Context, expr any) ([]domain.Document, error) {
	return q.each(func(doc domain.Document) (domain.Document, error) {
		return q.coll.UpdateByID(ctx, doc.ID(), expr)
	})
}

// Replace replaces every document with rec, one at a time. It stops at the
// first failure and returns the documents replaced so far along with the
// error.
func (q *Query) Replace(ctx context.Context, rec any) ([]domain.Document, error) {
	return q.each(func(doc domain.Document) (domain.Document, error) {
		return q.coll.ReplaceByID(ctx, doc.ID(), data.Clone(rec))
	})
}

// Remove removes every document, one at a time. It stops at the first
// failure and returns the documents removed so far along with the error.
func (q *Query) Remove(ctx context.Context) ([]domain.Document, error) {
	return q.each(func(doc domain.Document) (domain.Document, error) {
		return q.coll.RemoveByID(ctx, doc.ID())
	})
}

func (q *Query) each(fn func(doc domain.Document) (domain.Document, error)) ([]domain.Document, error) {
	res := make([]domain.Document, 0, len(q.docs))
	for _, doc := range q.docs {
		r, err := fn(doc)
		if err != nil {
			return res, err
		}
		res = append(res, r)
	}
	return res, nil
}

// Lean returns a plain copy of doc.
func Lean(doc domain.Document) domain.Document {
	switch t := doc.(type) {
	case data.Objecter:
		return t.ToObject()
	case nil:
		return nil
	}
	res := make(data.M, doc.Len())
	for k, v := range doc.Iter() {
		res[k] = data.Clone(v)
	}
	return res
}
