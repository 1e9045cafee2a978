// Package database contains the registry of models and the persistence of
// their records in a single JSON snapshot file.
//
// The snapshot has the form
//
//	{"meta": {"version": 1}, "models": {"Post": [{"_id": "..."}]}}
//
// and is replaced atomically on every save.
package database

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"

	"github.com/dolmen-go/contextio"
	"golang.org/x/sync/errgroup"

	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/decoder"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/deserializer"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/model"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/schema"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/serializer"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/storage"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

const (
	// DefaultDirMode is the mode of directories created for the snapshot.
	DefaultDirMode os.FileMode = 0o755

	// DefaultFileMode is the mode of a newly created snapshot file.
	DefaultFileMode os.FileMode = 0o644
)

// ErrNoPath is returned when loading or saving a database created without a
// path.
var ErrNoPath = errors.New("database has no path")

// ErrInvalidSnapshot is returned when the snapshot file does not have the
// expected structure.
type ErrInvalidSnapshot struct {
	Reason string
}

func (e ErrInvalidSnapshot) Error() string {
	return "invalid snapshot: " + e.Reason
}

// Database is a registry of models backed by a snapshot file. It implements
// [model.Registry].
type Database struct {
	path         string
	version      int
	migrate      func(ctx context.Context, db *Database, from, to int) error
	logger       *slog.Logger
	fileMode     os.FileMode
	dirMode      os.FileMode
	storage      domain.Storage
	serializer   domain.Serializer
	deserializer domain.Deserializer
	modelOptions []model.Option

	mu     sync.RWMutex
	models map[string]*model.Model
}

// New returns an empty database.
func New(options ...Option) *Database {
	db := &Database{
		logger:     slog.New(slog.DiscardHandler),
		fileMode:   DefaultFileMode,
		dirMode:    DefaultDirMode,
		storage:    storage.NewStorage(),
		serializer: serializer.NewSerializer(),
		models:     make(map[string]*model.Model),
	}
	for _, option := range options {
		option(db)
	}
	if db.deserializer == nil {
		db.deserializer = deserializer.NewDeserializer(decoder.NewDecoder())
	}
	return db
}

// Version returns the version written to the snapshot.
func (db *Database) Version() int { return db.version }

// Path returns the snapshot file.
func (db *Database) Path() string { return db.path }

// Model returns the model registered under name, creating it with s if there
// is none. s is ignored when the model already exists.
func (db *Database) Model(name string, s *schema.Schema) (*model.Model, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if m, ok := db.models[name]; ok {
		return m, nil
	}
	opts := append(slices.Clone(db.modelOptions), model.WithRegistry(db), model.WithLogger(db.logger))
	m, err := model.New(name, s, opts...)
	if err != nil {
		return nil, err
	}
	db.models[name] = m
	return m, nil
}

// Lookup implements [model.Registry].
func (db *Database) Lookup(name string) (*model.Model, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	m, ok := db.models[name]
	return m, ok
}

// Deregister implements [model.Registry].
func (db *Database) Deregister(name string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.models, name)
}

// Models returns the names of the registered models in lexical order.
func (db *Database) Models() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return slices.Sorted(maps.Keys(db.models))
}

// Load imports the records of the snapshot file into the registered models.
// Models named in the snapshot but not registered are created without a
// schema. A missing file leaves the database untouched.
func (db *Database) Load(ctx context.Context) error {
	if db.path == "" {
		return ErrNoPath
	}
	exists, err := db.storage.Exists(db.path)
	if err != nil {
		return err
	}
	if !exists {
		db.logger.Info("snapshot not found", slog.String("path", db.path))
		return nil
	}

	f, err := db.storage.ReadFileStream(db.path)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := io.ReadAll(contextio.NewReader(ctx, f))
	if err != nil {
		return err
	}

	var snap data.M
	if err := db.deserializer.Deserialize(ctx, b, &snap); err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	version, models, err := parseSnapshot(snap)
	if err != nil {
		return err
	}

	for _, name := range slices.Sorted(maps.Keys(models)) {
		m, err := db.Model(name, nil)
		if err != nil {
			return err
		}
		if err := m.Import(models[name]); err != nil {
			return fmt.Errorf("import %s: %w", name, err)
		}
	}
	db.logger.Info("snapshot loaded", slog.String("path", db.path), slog.Int("version", version), slog.Int("models", len(models)))

	if version != db.version && db.migrate != nil {
		if err := db.migrate(ctx, db, version, db.version); err != nil {
			return fmt.Errorf("migrate from version %d to %d: %w", version, db.version, err)
		}
	}
	return nil
}

func parseSnapshot(snap data.M) (int, map[string][]data.M, error) {
	version := 0
	if meta, ok := snap["meta"].(data.M); ok {
		if v, ok := meta["version"].(float64); ok {
			version = int(v)
		}
	}

	raw, ok := snap["models"]
	if !ok {
		return version, nil, nil
	}
	entries, ok := raw.(data.M)
	if !ok {
		return 0, nil, ErrInvalidSnapshot{Reason: fmt.Sprintf("models must be an object, got %T", raw)}
	}
	models := make(map[string][]data.M, len(entries))
	for name, list := range entries {
		items, ok := list.([]any)
		if !ok {
			return 0, nil, ErrInvalidSnapshot{Reason: fmt.Sprintf("records of %s must be a list, got %T", name, list)}
		}
		records := make([]data.M, len(items))
		for i, item := range items {
			if records[i], ok = item.(data.M); !ok {
				return 0, nil, ErrInvalidSnapshot{Reason: fmt.Sprintf("record %d of %s must be an object, got %T", i, name, item)}
			}
		}
		models[name] = records
	}
	return version, models, nil
}

// Save writes the records of every registered model to the snapshot file.
// Models are exported concurrently and the file is replaced atomically.
func (db *Database) Save(ctx context.Context) error {
	if db.path == "" {
		return ErrNoPath
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	names := db.Models()
	exported := make([][]data.M, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		m, ok := db.Lookup(name)
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records, err := m.Export()
			if err != nil {
				return fmt.Errorf("export %s: %w", name, err)
			}
			exported[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	models := make(data.M, len(names))
	for i, name := range names {
		if exported[i] == nil {
			exported[i] = []data.M{}
		}
		models[name] = exported[i]
	}
	snap := data.M{
		"meta":   data.M{"version": db.version},
		"models": models,
	}
	b, err := db.serializer.Serialize(ctx, snap)
	if err != nil {
		return err
	}

	if err := db.storage.EnsureParentDirectoryExists(db.path, db.dirMode); err != nil {
		return err
	}
	r := contextio.NewReader(ctx, bytes.NewReader(b))
	if err := db.storage.WriteFileAtomic(db.path, r, db.fileMode); err != nil {
		return err
	}
	db.logger.Info("snapshot saved", slog.String("path", db.path), slog.Int("models", len(names)))
	return nil
}
