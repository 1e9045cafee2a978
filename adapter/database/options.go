package database

import (
	"context"
	"log/slog"
	"os"

	"github.com/vinicius-lino-figueiredo/warehouse/adapter/model"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

// WithPath sets the snapshot file. A database without a path cannot be
// loaded or saved.
func WithPath(p string) Option {
	return func(db *Database) {
		db.path = p
	}
}

// WithVersion sets the version written to the snapshot.
func WithVersion(v int) Option {
	return func(db *Database) {
		db.version = v
	}
}

// WithMigration sets the function called by [Database.Load] when the
// snapshot was written with another version. It runs after every model is
// imported.
func WithMigration(fn func(ctx context.Context, db *Database, from, to int) error) Option {
	return func(db *Database) {
		db.migrate = fn
	}
}

// WithLogger sets the logger of the database and of the models it creates.
func WithLogger(l *slog.Logger) Option {
	return func(db *Database) {
		db.logger = l
	}
}

// WithFileMode sets the permissions of a newly created snapshot file.
func WithFileMode(m os.FileMode) Option {
	return func(db *Database) {
		db.fileMode = m
	}
}

// WithDirMode sets the permissions of the directories created for the
// snapshot file.
func WithDirMode(m os.FileMode) Option {
	return func(db *Database) {
		db.dirMode = m
	}
}

// WithStorage sets the storage the snapshot is read from and written to.
func WithStorage(s domain.Storage) Option {
	return func(db *Database) {
		db.storage = s
	}
}

// WithSerializer sets the serializer used to write snapshots.
func WithSerializer(s domain.Serializer) Option {
	return func(db *Database) {
		db.serializer = s
	}
}

// WithDeserializer sets the deserializer used to read snapshots.
func WithDeserializer(d domain.Deserializer) Option {
	return func(db *Database) {
		db.deserializer = d
	}
}

// WithModelOptions sets options applied to every model created by the
// database, before the registry and logger of the database.
func WithModelOptions(opts ...model.Option) Option {
	return func(db *Database) {
		db.modelOptions = append(db.modelOptions, opts...)
	}
}

// Option configures a [Database].
type Option func(*Database)
