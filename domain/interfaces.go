// Package domain contains domain-specific interfaces, entities, errors and
// option types for warehouse.
//
// This package defines the contracts that must be implemented by adapters
// (documents, field types, navigators, comparers, id generators, storage) and
// the functional options used to configure reads and population.
package domain

import (
	"context"
	"io"
	"iter"
	"os"
)

// Document is a key-value record. Keys are top-level field names; nested
// objects are themselves Documents.
type Document interface {
	// ID returns the value stored under "_id", or nil.
	ID() any
	// Get returns the value stored under key, or nil.
	Get(key string) any
	// Set stores value under key.
	Set(key string, value any)
	// Unset removes key.
	Unset(key string)
	// Has reports whether key is set.
	Has(key string) bool
	// Iter iterates over every key-value pair.
	Iter() iter.Seq2[string, any]
	// Keys iterates over every key.
	Keys() iter.Seq[string]
	// Len returns the number of keys.
	Len() int
}

// PathGetter is implemented by documents that resolve dotted paths on their
// own, such as live documents exposing virtual and populated fields.
type PathGetter interface {
	GetPath(path string) (any, bool)
}

// FieldNavigator provides field access operations with dot notation support.
type FieldNavigator interface {
	// GetAddress splits a dotted field name into its parts.
	GetAddress(field string) []string
	// Get returns the value found at addr and whether it is defined.
	Get(obj any, addr ...string) (any, bool)
	// Set stores value at addr, creating intermediate objects.
	Set(obj any, value any, addr ...string) error
	// Unset removes the value at addr, if any.
	Unset(obj any, addr ...string)
}

// Comparer provides a total order over every supported value type.
type Comparer interface {
	// Compare returns -1, 0, or 1 based on the comparison of two values.
	Compare(a, b any) int
	// Comparable returns true if two values have the same ordering class.
	Comparable(a, b any) bool
}

// IDGenerator generates random identifiers for new records.
type IDGenerator interface {
	GenerateID() (string, error)
}

// Decoder converts between different data representations.
type Decoder interface {
	// Decode converts from one data format to another.
	Decode(source any, target any) error
}

// Storage provides low-level file operations with crash-safety guarantees.
type Storage interface {
	// Exists checks if a file exists.
	Exists(name string) (bool, error)
	// EnsureParentDirectoryExists creates parent directories if needed.
	EnsureParentDirectoryExists(name string, mode os.FileMode) error
	// ReadFileStream opens a file for streaming reads.
	ReadFileStream(name string) (io.ReadCloser, error)
	// WriteFileAtomic replaces the content of a file without ever exposing
	// a partially written version.
	WriteFileAtomic(name string, r io.Reader, mode os.FileMode) error
	// Remove deletes a file.
	Remove(name string) error
}

// FieldPredicate tests a single field value. defined is false when the path
// is missing from the record.
type FieldPredicate func(value any, defined bool) bool

// QueryOperator compiles an operator argument into a [FieldPredicate].
type QueryOperator func(arg any) (FieldPredicate, error)

// FieldMutator computes the new value of a field. Returning keep as false
// removes the field. rec is the whole record being updated.
type FieldMutator func(rec Document, value any, defined bool) (newValue any, keep bool, err error)

// UpdateOperator compiles an operator argument into a [FieldMutator].
type UpdateOperator func(arg any) (FieldMutator, error)

// SchemaType is a pluggable field type: coercion, validation, ordering and
// the operator tables used when compiling queries and updates.
type SchemaType interface {
	// Name identifies the type in error messages.
	Name() string
	// CastIn coerces a raw value into the live form.
	CastIn(value any, defined bool, doc Document) (any, error)
	// CastOut converts a live value into its storage form. Returning false
	// drops the path from the stored record.
	CastOut(value any, doc Document) (any, bool)
	// Compare orders two live values of this type.
	Compare(a, b any) int
	// QueryOperator returns the query operator registered under name.
	QueryOperator(name string) (QueryOperator, bool)
	// UpdateOperator returns the update operator registered under name.
	UpdateOperator(name string) (UpdateOperator, bool)
}

// Exporter is implemented by types whose storage form differs from the
// snapshot form.
type Exporter interface {
	Export(value any) any
	Import(value any) (any, error)
}

// Generator is implemented by types able to produce a value for a missing
// path, such as identifier types.
type Generator interface {
	Generate() (any, error)
}

// Referencer is implemented by types storing the id of a record from another
// collection.
type Referencer interface {
	Ref() string
}

// Collection is the write surface a document or query forwards to.
type Collection interface {
	Name() string
	Save(ctx context.Context, data any) (Document, error)
	UpdateByID(ctx context.Context, id any, update any) (Document, error)
	ReplaceByID(ctx context.Context, id any, data any) (Document, error)
	RemoveByID(ctx context.Context, id any) (Document, error)
}

// Populator replaces reference ids of a document with the referenced
// documents.
type Populator interface {
	PopulateDocument(doc Document, expr any) (Document, error)
}

// Hook is a lifecycle callback executed around save and remove.
type Hook func(ctx context.Context, doc Document) error

// Static is a collection-level method registered on a schema.
type Static func(ctx context.Context, c Collection, args ...any) (any, error)

// Method is a document-level method registered on a schema.
type Method func(ctx context.Context, doc Document, args ...any) (any, error)

// Listener receives collection events.
type Listener func(Event)

// Serializer converts records and documents into their JSON form.
type Serializer interface {
	Serialize(ctx context.Context, obj any) ([]byte, error)
}

// Deserializer parses JSON produced by a [Serializer] into target.
type Deserializer interface {
	Deserialize(ctx context.Context, b []byte, target any) error
}
