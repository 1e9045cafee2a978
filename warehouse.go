// Package warehouse provides an embedded, schema-validated document store
// for Go.
//
// Records live in memory inside named models. Every model validates its
// records against a [Schema] made of typed paths, exposes a query language
// similar to MongoDB's and runs user hooks around writes. Models are kept by
// a [Database], which resolves references between them and persists all of
// them into a single JSON snapshot file.
//
// The basic usage starts with creating a new [Database] by calling [New] and
// declaring models with [Database.Model].
package warehouse

import (
	"context"
	"log/slog"
	"os"

	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/database"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/document"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/model"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/query"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/schema"
	"github.com/vinicius-lino-figueiredo/warehouse/adapter/schematype"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

var (
	// ErrIDUndefined is returned when a record has no identifier after
	// defaults are applied.
	ErrIDUndefined = domain.ErrIDUndefined
	// ErrSchemaFrozen is returned when a schema already bound to a model
	// is modified.
	ErrSchemaFrozen = domain.ErrSchemaFrozen
	// ErrNoRegistry is returned when populating references of a model
	// created outside of a [Database].
	ErrNoRegistry = domain.ErrNoRegistry
	// ErrNoPath is returned by [Database.Load] and [Database.Save] when no
	// path was set with [WithPath].
	ErrNoPath = database.ErrNoPath
)

// ErrIDExist is returned when inserting a record whose id is already stored.
type ErrIDExist = domain.ErrIDExist

// ErrIDNotExist is returned when addressing a record that is not stored.
type ErrIDNotExist = domain.ErrIDNotExist

// ErrValidation is returned when a value does not satisfy the type of its
// path, or when a required path is missing.
type ErrValidation = domain.ErrValidation

// ErrQueryCompile is returned when a query, sort or update expression is
// malformed.
type ErrQueryCompile = domain.ErrQueryCompile

// ErrPopulation is returned when a population expression cannot be resolved.
type ErrPopulation = domain.ErrPopulation

// ErrUnknownMethod is returned when calling a static or a method that was
// never registered.
type ErrUnknownMethod = domain.ErrUnknownMethod

// ErrInvalidSnapshot is returned by [Database.Load] when the snapshot file
// is malformed.
type ErrInvalidSnapshot = database.ErrInvalidSnapshot

// Kind classifies errors returned by models. See [KindOf].
type Kind = domain.Kind

// Error kinds.
const (
	KindUnknown      = domain.KindUnknown
	KindIDUndefined  = domain.KindIDUndefined
	KindIDExist      = domain.KindIDExist
	KindIDNotExist   = domain.KindIDNotExist
	KindValidation   = domain.KindValidation
	KindQueryCompile = domain.KindQueryCompile
	KindPopulation   = domain.KindPopulation
)

// KindOf classifies err, looking through wrapped errors.
func KindOf(err error) Kind { return domain.KindOf(err) }

type (
	// Database is a registry of models persisted into a snapshot file.
	Database = database.Database
	// Model is a named collection of records.
	Model = model.Model
	// Schema is the ordered set of typed paths of a model.
	Schema = schema.Schema
	// Field declares a path with options inside a schema definition.
	Field = schema.Field
	// SchemaType is a pluggable path type.
	SchemaType = domain.SchemaType
	// Document is the record interface returned by reads and writes.
	Document = domain.Document
	// LiveDocument is a materialized record exposing virtual and populated
	// paths.
	LiveDocument = document.Document
	// Query is an ordered, immutable list of documents.
	Query = query.Query
	// PopulateOptions describes how a reference path is populated.
	PopulateOptions = domain.PopulateOptions
	// Event is emitted by a model after a committed write.
	Event = domain.Event
	// EventType names a model event.
	EventType = domain.EventType
	// HookEvent names the lifecycle moment a hook runs at.
	HookEvent = domain.HookEvent
	// Hook is a lifecycle callback.
	Hook = domain.Hook
	// Static is a model level method.
	Static = domain.Static
	// Method is a document level method.
	Method = domain.Method
	// Storage provides the file operations used to persist snapshots.
	Storage = domain.Storage
	// FindOption configures reads.
	FindOption = domain.FindOption
	// Option configures a [Database].
	Option = database.Option
	// M is a record.
	M = data.M
	// D is an ordered expression, used where key order matters, such as
	// sorts and schema definitions.
	D = data.D
	// E is an element of [D].
	E = data.E
)

// Model events.
const (
	EventInsert = domain.EventInsert
	EventUpdate = domain.EventUpdate
	EventRemove = domain.EventRemove
)

// Hook events.
const (
	HookSave   = domain.HookSave
	HookRemove = domain.HookRemove
)

// New creates a new [Database] with the provided options:
//
// - [WithPath]: sets the snapshot file.
//
// - [WithVersion]: sets the version written to the snapshot.
//
// - [WithMigration]: sets the function run when loading another version.
//
// - [WithLogger]: sets the logger of the database and its models.
//
// - [WithFileMode]: sets the permissions of a new snapshot file.
//
// - [WithDirMode]: sets the permissions of created directories.
//
// - [WithStorage]: sets the storage implementation for file operations.
func New(options ...Option) *Database {
	return database.New(options...)
}

// NewSchema returns a schema declaring the paths of def. See [schema.New]
// for the accepted definitions.
func NewSchema(def any) (*Schema, error) {
	return schema.New(def)
}

// String returns the String path type.
func String() SchemaType { return schematype.NewString() }

// Enum returns a String path type accepting only values.
func Enum(values ...string) SchemaType { return schematype.NewEnum(values...) }

// Number returns the Number path type.
func Number() SchemaType { return schematype.NewNumber() }

// Boolean returns the Boolean path type.
func Boolean() SchemaType { return schematype.NewBoolean() }

// Date returns the Date path type.
func Date() SchemaType { return schematype.NewDate() }

// Mixed returns the path type accepting any value.
func Mixed() SchemaType { return schematype.NewMixed() }

// Object returns the Object path type.
func Object() SchemaType { return schematype.NewObject() }

// Array returns the Array path type holding child values. A nil child
// accepts any value.
func Array(child SchemaType) SchemaType { return schematype.NewArray(child) }

// Reference returns the path type holding the id of a record of the model
// named model.
func Reference(model string) SchemaType { return schematype.NewReference(model) }

// WithPath sets the snapshot file.
func WithPath(p string) Option { return database.WithPath(p) }

// WithVersion sets the version written to the snapshot.
func WithVersion(v int) Option { return database.WithVersion(v) }

// WithMigration sets the function called when the snapshot was written with
// another version.
func WithMigration(fn func(ctx context.Context, db *Database, from, to int) error) Option {
	return database.WithMigration(fn)
}

// WithLogger sets the logger of the database and its models.
func WithLogger(l *slog.Logger) Option { return database.WithLogger(l) }

// WithFileMode sets the permissions of a new snapshot file.
func WithFileMode(m os.FileMode) Option { return database.WithFileMode(m) }

// WithDirMode sets the permissions of created directories.
func WithDirMode(m os.FileMode) Option { return database.WithDirMode(m) }

// WithStorage sets the storage implementation for file operations.
func WithStorage(s Storage) Option { return database.WithStorage(s) }

// WithSkip skips the first n matches of a read.
func WithSkip(n int) FindOption { return domain.WithFindSkip(n) }

// WithLimit stops a read after n matches. Zero means no limit.
func WithLimit(n int) FindOption { return domain.WithFindLimit(n) }

// WithLean makes reads return plain [M] copies instead of live documents.
func WithLean(l bool) FindOption { return domain.WithFindLean(l) }
