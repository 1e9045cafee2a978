// Package model contains the collection engine.
//
// A [Model] owns an ordered store of records validated by a frozen schema.
// Writes are serialized by a FIFO mutex and follow the same lifecycle: the
// input is materialized and validated, pre hooks run, the store is updated,
// listeners are notified and post hooks run. Reads never take the write lock
// and scan the store as it is when they start.
package model

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/vinicius-lino-figueiredo/warehouse/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/decoder"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/document"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/idgenerator"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/schema"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/schematype"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/serializer"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
	"github.com/vinicius-lino-figueiredo/warehouse/pkg/ctxsync"
)

// IDPath is the path holding the identifier of every record.
const IDPath = "_id"

// Registry resolves collections by name.
type Registry interface {
	Lookup(name string) (*Model, bool)
	Deregister(name string)
}

// Model is a named collection of records.
type Model struct {
	name        string
	schema      *schema.Schema
	registry    Registry
	logger      *slog.Logger
	idGenerator domain.IDGenerator
	decoder     domain.Decoder
	comparer    domain.Comparer
	serializer  domain.Serializer
	rand        *rand.Rand

	executor *ctxsync.Mutex
	store    *store

	lmu       sync.RWMutex
	listeners map[domain.EventType][]domain.Listener
}

// New returns a collection named name validating records with s. A nil s
// accepts any record. An "_id" path is declared if s has none, and s is
// frozen.
func New(name string, s *schema.Schema, options ...Option) (*Model, error) {
	m := &Model{
		name:        name,
		logger:      slog.New(slog.DiscardHandler),
		idGenerator: idgenerator.NewIDGenerator(),
		decoder:     decoder.NewDecoder(),
		comparer:    comparer.NewComparer(),
		serializer:  serializer.NewSerializer(),
		executor:    ctxsync.NewMutex(),
		store:       newStore(),
		listeners:   make(map[domain.EventType][]domain.Listener),
	}
	for _, option := range options {
		option(m)
	}

	if s == nil {
		var err error
		s, err = schema.New(nil, schema.WithComparer(m.comparer), schema.WithDecoder(m.decoder))
		if err != nil {
			return nil, err
		}
	}
	if _, ok := s.Lookup(IDPath); !ok {
		id := schematype.NewID(
			schematype.WithIDGenerator(m.idGenerator),
			schematype.WithComparer(m.comparer),
		)
		if err := s.Path(IDPath, id, domain.WithRequired(true)); err != nil {
			return nil, err
		}
	}
	s.Freeze()
	m.schema = s
	m.logger = m.logger.With(slog.String("model", name))
	return m, nil
}

// Name implements [domain.Collection].
func (m *Model) Name() string { return m.name }

// Schema returns the schema of the collection.
func (m *Model) Schema() *schema.Schema { return m.schema }

// On registers a listener for event. Listeners run synchronously, in
// registration order, while the write lock is held.
func (m *Model) On(event domain.EventType, l domain.Listener) {
	m.lmu.Lock()
	defer m.lmu.Unlock()
	m.listeners[event] = append(m.listeners[event], l)
}

func (m *Model) emit(event domain.EventType, doc domain.Document) {
	m.lmu.RLock()
	listeners := m.listeners[event]
	m.lmu.RUnlock()
	ev := domain.Event{Type: event, Model: m.name, Doc: doc}
	for _, l := range listeners {
		l(ev)
	}
}

// Call runs the static registered under name on the schema.
func (m *Model) Call(ctx context.Context, name string, args ...any) (any, error) {
	fn, ok := m.schema.LookupStatic(name)
	if !ok {
		return nil, domain.ErrUnknownMethod{Name: name}
	}
	return fn(ctx, m, args...)
}

// Destroy removes the collection from its registry.
func (m *Model) Destroy() {
	if m.registry != nil {
		m.registry.Deregister(m.name)
	}
}

// NewDocument returns a live document built from input, with getters and
// defaults applied. The document is not stored.
func (m *Model) NewDocument(input any) (*document.Document, error) {
	rec, err := m.record(input)
	if err != nil {
		return nil, err
	}
	if err := m.schema.ApplyGetters(rec); err != nil {
		return nil, err
	}
	return m.document(rec), nil
}

// record converts input into a fresh record. Live documents give their
// record, without populated or virtual values.
func (m *Model) record(input any) (data.M, error) {
	if doc, ok := input.(*document.Document); ok {
		return doc.Record().Clone(), nil
	}
	return data.NewM(input)
}

func (m *Model) document(rec data.M) *document.Document {
	return document.New(rec, m.schema, m, document.WithSerializer(m.serializer))
}

// live materializes a stored record.
func (m *Model) live(rec data.M) *document.Document {
	rec = rec.Clone()
	if err := m.schema.ApplyGetters(rec); err != nil {
		m.logger.Warn("cannot materialize record", slog.Any("id", rec.ID()), slog.Any("error", err))
	}
	return m.document(rec)
}

func (m *Model) view(rec data.M, lean bool) domain.Document {
	if lean {
		return rec.Clone()
	}
	return m.live(rec)
}

func (m *Model) lock(ctx context.Context) error {
	return m.executor.LockWithContext(ctx)
}

// InsertOne stores a new record built from input. It fails with
// [domain.ErrIDUndefined] when the record has no id after materialization
// and with [domain.ErrIDExist] when the id is already stored.
func (m *Model) InsertOne(ctx context.Context, input any) (domain.Document, error) {
	if err := m.lock(ctx); err != nil {
		return nil, err
	}
	defer m.executor.Unlock()
	return m.insertOne(ctx, input)
}

func (m *Model) insertOne(ctx context.Context, input any) (domain.Document, error) {
	rec, err := m.record(input)
	if err != nil {
		return nil, err
	}
	if err := m.schema.ApplyGetters(rec); err != nil {
		return nil, err
	}
	id := rec.ID()
	if id == nil || id == "" {
		return nil, domain.ErrIDUndefined
	}
	k := key(id)
	if m.store.has(k) {
		return nil, domain.ErrIDExist{ID: id}
	}
	return m.commit(ctx, k, rec, domain.EventInsert)
}

// commit derives the stored form of rec and writes it under k, running the
// save hooks around the write.
func (m *Model) commit(ctx context.Context, k string, rec data.M, event domain.EventType) (domain.Document, error) {
	doc := m.document(rec)
	stored := rec.Clone()
	if err := m.schema.ApplySetters(stored); err != nil {
		return nil, err
	}

	if err := m.schema.RunPre(ctx, domain.HookSave, doc); err != nil {
		return nil, err
	}
	m.store.put(k, stored)
	m.logger.Debug(string(event), slog.Any("id", rec.ID()))
	m.emit(event, doc)
	if err := m.schema.RunPost(ctx, domain.HookSave, doc); err != nil {
		m.logger.Warn("post hook failed", slog.String("event", string(event)), slog.Any("id", rec.ID()), slog.Any("error", err))
		return doc, err
	}
	return doc, nil
}

// Insert inserts every item in order, each under its own lock acquisition.
// It stops at the first failure and returns the documents inserted so far
// along with the error.
func (m *Model) Insert(ctx context.Context, items ...any) ([]domain.Document, error) {
	res := make([]domain.Document, 0, len(items))
	for _, item := range items {
		doc, err := m.InsertOne(ctx, item)
		if err != nil {
			return res, err
		}
		res = append(res, doc)
	}
	return res, nil
}

// Save implements [domain.Collection]. Input without an id is inserted,
// otherwise the stored record with the same id is replaced, or the input is
// inserted when there is none.
func (m *Model) Save(ctx context.Context, input any) (domain.Document, error) {
	rec, err := m.record(input)
	if err != nil {
		return nil, err
	}
	id := rec.ID()
	if id == nil || id == "" {
		return m.InsertOne(ctx, rec)
	}

	if err := m.lock(ctx); err != nil {
		return nil, err
	}
	defer m.executor.Unlock()
	if m.store.has(key(id)) {
		return m.replaceByID(ctx, id, rec)
	}
	return m.insertOne(ctx, rec)
}

// UpdateByID implements [domain.Collection]. The update expression is
// applied to a copy of the stored record, which is then validated again. The
// id of a record cannot be changed.
func (m *Model) UpdateByID(ctx context.Context, id any, update any) (domain.Document, error) {
	if err := m.lock(ctx); err != nil {
		return nil, err
	}
	defer m.executor.Unlock()

	mutators, err := m.schema.CompileUpdate(update)
	if err != nil {
		return nil, err
	}
	k := key(id)
	current, ok := m.store.get(k)
	if !ok {
		return nil, domain.ErrIDNotExist{ID: id}
	}

	rec := current.Clone()
	for _, mut := range mutators {
		if err := mut(rec); err != nil {
			return nil, err
		}
	}
	if err := m.schema.ApplyGetters(rec); err != nil {
		return nil, err
	}
	if newID := rec.ID(); newID == nil || key(newID) != k {
		return nil, domain.ErrValidation{Path: IDPath, Reason: "cannot be changed"}
	}
	return m.commit(ctx, k, rec, domain.EventUpdate)
}

// Update applies update to every record matching q. See [query.Query.Update].
func (m *Model) Update(ctx context.Context, q any, update any) ([]domain.Document, error) {
	res, err := m.Find(q)
	if err != nil {
		return nil, err
	}
	return res.Update(ctx, update)
}

// ReplaceByID implements [domain.Collection]. The stored record is replaced
// by one built from input, keeping id.
func (m *Model) ReplaceByID(ctx context.Context, id any, input any) (domain.Document, error) {
	if err := m.lock(ctx); err != nil {
		return nil, err
	}
	defer m.executor.Unlock()
	return m.replaceByID(ctx, id, input)
}

func (m *Model) replaceByID(ctx context.Context, id any, input any) (domain.Document, error) {
	k := key(id)
	if !m.store.has(k) {
		return nil, domain.ErrIDNotExist{ID: id}
	}
	rec, err := m.record(input)
	if err != nil {
		return nil, err
	}
	rec[IDPath] = id
	if err := m.schema.ApplyGetters(rec); err != nil {
		return nil, err
	}
	return m.commit(ctx, k, rec, domain.EventUpdate)
}

// Replace replaces every record matching q. See [query.Query.Replace].
func (m *Model) Replace(ctx context.Context, q any, input any) ([]domain.Document, error) {
	res, err := m.Find(q)
	if err != nil {
		return nil, err
	}
	return res.Replace(ctx, input)
}

// RemoveByID implements [domain.Collection]. The slot of the record is kept,
// so inserting the id again puts it back in its former position.
func (m *Model) RemoveByID(ctx context.Context, id any) (domain.Document, error) {
	if err := m.lock(ctx); err != nil {
		return nil, err
	}
	defer m.executor.Unlock()

	k := key(id)
	rec, ok := m.store.get(k)
	if !ok {
		return nil, domain.ErrIDNotExist{ID: id}
	}
	doc := m.live(rec)
	if err := m.schema.RunPre(ctx, domain.HookRemove, doc); err != nil {
		return nil, err
	}
	m.store.clear(k)
	m.logger.Debug(string(domain.EventRemove), slog.Any("id", id))
	m.emit(domain.EventRemove, doc)
	if err := m.schema.RunPost(ctx, domain.HookRemove, doc); err != nil {
		m.logger.Warn("post hook failed", slog.String("event", string(domain.EventRemove)), slog.Any("id", id), slog.Any("error", err))
		return doc, err
	}
	return doc, nil
}

// Remove removes every record matching q. See [query.Query.Remove].
func (m *Model) Remove(ctx context.Context, q any) ([]domain.Document, error) {
	res, err := m.Find(q)
	if err != nil {
		return nil, err
	}
	return res.Remove(ctx)
}

// Import loads records read from a snapshot straight into the store. Hooks
// are not run and the write lock is not taken: it is meant for loading a
// collection before it is used.
func (m *Model) Import(records []data.M) error {
	for _, r := range records {
		rec := r.Clone()
		if err := m.schema.FromStorage(rec); err != nil {
			return err
		}
		id := rec.ID()
		if id == nil || id == "" {
			return domain.ErrIDUndefined
		}
		m.store.put(key(id), rec)
	}
	m.logger.Debug("import", slog.Int("count", len(records)))
	return nil
}

// Export returns the snapshot form of every stored record, in store order.
func (m *Model) Export() ([]data.M, error) {
	records := m.store.records()
	res := make([]data.M, len(records))
	for i, r := range records {
		rec := r.Clone()
		if err := m.schema.ToStorage(rec); err != nil {
			return nil, err
		}
		res[i] = rec
	}
	return res, nil
}
