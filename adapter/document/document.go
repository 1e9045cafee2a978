// Package document contains the live document handed out by collections.
//
// A [Document] wraps a record that already went through the schema getters.
// Reads resolve virtual paths and populated references before falling back to
// the record itself; writes are forwarded to the owning collection.
package document

import (
	"context"
	"iter"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/schema"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/schematype"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/serializer"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// Lister is implemented by populated values holding several documents.
type Lister interface {
	ToObjects() []data.M
}

// Document implements [domain.Document] over a materialized record.
type Document struct {
	rec        data.M
	schema     *schema.Schema
	coll       domain.Collection
	serializer domain.Serializer

	mu   sync.Mutex
	refs map[string]*Reference
}

// New returns a live document wrapping rec. rec is owned by the document from
// now on. coll may be nil for documents not bound to a collection.
func New(rec data.M, s *schema.Schema, coll domain.Collection, options ...Option) *Document {
	if rec == nil {
		rec = data.M{}
	}
	d := &Document{
		rec:        rec,
		schema:     s,
		coll:       coll,
		serializer: serializer.NewSerializer(),
		refs:       make(map[string]*Reference),
	}
	for _, option := range options {
		option(d)
	}
	return d
}

// Schema returns the schema of the document.
func (d *Document) Schema() *schema.Schema { return d.schema }

// Collection returns the collection the document forwards writes to.
func (d *Document) Collection() domain.Collection { return d.coll }

// Record returns the underlying record, without virtual or populated values.
// It must not be modified while the document is in use.
func (d *Document) Record() data.M { return d.rec }

// SetReference binds a populated reference cell to path. Reads of path, or of
// any path below it, go through the cell from now on.
func (d *Document) SetReference(path string, ref *Reference) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.refs[path] = ref
}

// Reference returns the reference cell bound to path, if any.
func (d *Document) Reference(path string) (*Reference, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ref, ok := d.refs[path]
	return ref, ok
}

func (d *Document) dropReferences(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for p := range d.refs {
		if p == path || strings.HasPrefix(p, path+".") {
			delete(d.refs, p)
		}
	}
}

// lookupReference returns the cell bound to path or to one of its parents,
// along with the address left to resolve inside the cell value.
func (d *Document) lookupReference(path string) (*Reference, []string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.refs) == 0 {
		return nil, nil, false
	}
	if ref, ok := d.refs[path]; ok {
		return ref, nil, true
	}
	for p, ref := range d.refs {
		if strings.HasPrefix(path, p+".") {
			return ref, d.schema.Navigator().GetAddress(path[len(p)+1:]), true
		}
	}
	return nil, nil, false
}

func (d *Document) virtual(path string) (*schematype.Virtual, bool) {
	typ, ok := d.schema.Lookup(path)
	if !ok {
		return nil, false
	}
	v, ok := typ.(*schematype.Virtual)
	return v, ok
}

// GetPath implements [domain.PathGetter].
func (d *Document) GetPath(path string) (any, bool) {
	if v, ok := d.virtual(path); ok {
		if getter := v.Getter(); getter != nil {
			return getter(d), true
		}
		return nil, false
	}
	nav := d.schema.Navigator()
	if ref, rest, ok := d.lookupReference(path); ok {
		value := ref.Value()
		if len(rest) == 0 {
			return value, true
		}
		return nav.Get(value, rest...)
	}
	return nav.Get(d.rec, nav.GetAddress(path)...)
}

// ID implements [domain.Document].
func (d *Document) ID() any {
	return d.rec.ID()
}

// Get implements [domain.Document]. key may be a dotted path.
func (d *Document) Get(key string) any {
	v, _ := d.GetPath(key)
	return v
}

// Set implements [domain.Document]. key may be a dotted path. Values set on a
// virtual path are handed to its setter. Setting a populated path discards
// the populated value.
func (d *Document) Set(key string, value any) {
	if v, ok := d.virtual(key); ok {
		if setter := v.Setter(); setter != nil {
			setter(d, value)
		}
		return
	}
	d.dropReferences(key)
	nav := d.schema.Navigator()
	_ = nav.Set(d.rec, value, nav.GetAddress(key)...)
}

// Unset implements [domain.Document].
func (d *Document) Unset(key string) {
	d.dropReferences(key)
	nav := d.schema.Navigator()
	nav.Unset(d.rec, nav.GetAddress(key)...)
}

// Has implements [domain.Document].
func (d *Document) Has(key string) bool {
	_, ok := d.GetPath(key)
	return ok
}

// Keys implements [domain.Document]. Record keys come first in lexical
// order, followed by top level virtual paths with a getter.
func (d *Document) Keys() iter.Seq[string] {
	return slices.Values(d.keys())
}

func (d *Document) keys() []string {
	keys := slices.Sorted(maps.Keys(d.rec))
	for _, p := range d.schema.Paths() {
		if strings.Contains(p, ".") {
			continue
		}
		if v, ok := d.virtual(p); ok && v.Getter() != nil && !d.rec.Has(p) {
			keys = append(keys, p)
		}
	}
	return keys
}

// Iter implements [domain.Document].
func (d *Document) Iter() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range d.keys() {
			if !yield(k, d.Get(k)) {
				return
			}
		}
	}
}

// Len implements [domain.Document].
func (d *Document) Len() int {
	return len(d.keys())
}

// ToObject returns a deep copy of the document as a plain record. Populated
// references are resolved and converted, virtual values are included.
func (d *Document) ToObject() data.M {
	obj := d.rec.Clone()
	nav := d.schema.Navigator()

	d.mu.Lock()
	refs := maps.Clone(d.refs)
	d.mu.Unlock()

	for _, p := range slices.Sorted(maps.Keys(refs)) {
		_ = nav.Set(obj, plain(refs[p].Value()), nav.GetAddress(p)...)
	}
	for _, p := range d.schema.Paths() {
		v, ok := d.virtual(p)
		if !ok || v.Getter() == nil {
			continue
		}
		_ = nav.Set(obj, plain(v.Getter()(d)), nav.GetAddress(p)...)
	}
	return obj
}

// plain converts populated values into records.
func plain(v any) any {
	switch t := v.(type) {
	case data.Objecter:
		return t.ToObject()
	case Lister:
		objs := t.ToObjects()
		res := make([]any, len(objs))
		for i, o := range objs {
			res[i] = o
		}
		return res
	case []any:
		res := make([]any, len(t))
		for i, item := range t {
			res[i] = plain(item)
		}
		return res
	}
	return data.Clone(v)
}

// Decode decodes the plain form of the document into target.
func (d *Document) Decode(target any) error {
	return d.schema.Decoder().Decode(d.ToObject(), target)
}

// String returns the JSON form of the document.
func (d *Document) String() string {
	b, err := d.serializer.Serialize(context.Background(), d.ToObject())
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Save inserts the document, or replaces the stored record with the same id.
func (d *Document) Save(ctx context.Context) (domain.Document, error) {
	if d.coll == nil {
		return nil, ErrNoCollection
	}
	return d.coll.Save(ctx, d)
}

// Update applies an update expression to the stored record of the document.
func (d *Document) Update(ctx context.Context, update any) (domain.Document, error) {
	if d.coll == nil {
		return nil, ErrNoCollection
	}
	return d.coll.UpdateByID(ctx, d.ID(), update)
}

// Replace replaces the stored record of the document.
func (d *Document) Replace(ctx context.Context, rec any) (domain.Document, error) {
	if d.coll == nil {
		return nil, ErrNoCollection
	}
	return d.coll.ReplaceByID(ctx, d.ID(), rec)
}

// Remove removes the stored record of the document.
func (d *Document) Remove(ctx context.Context) (domain.Document, error) {
	if d.coll == nil {
		return nil, ErrNoCollection
	}
	return d.coll.RemoveByID(ctx, d.ID())
}

// Populate binds the references named by expr to the records they point to.
// The document itself is modified and returned.
func (d *Document) Populate(expr any) (domain.Document, error) {
	p, ok := d.coll.(domain.Populator)
	if !ok {
		return nil, domain.ErrNoRegistry
	}
	return p.PopulateDocument(d, expr)
}

// Call runs the schema method registered under name.
func (d *Document) Call(ctx context.Context, name string, args ...any) (any, error) {
	fn, ok := d.schema.LookupMethod(name)
	if !ok {
		return nil, domain.ErrUnknownMethod{Name: name}
	}
	return fn(ctx, d, args...)
}
