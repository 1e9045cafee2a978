// Package storage implements [domain.Storage] over the local file system.
package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/vinicius-lino-figueiredo/warehouse/domain"
)

var (
	osSpecificEnsureDir = func(o osOps, dir string, mode os.FileMode) error {
		return o.MkdirAll(dir, mode)
	}
	osSpecificSync = func(f *os.File, _ bool) error {
		return f.Sync()
	}
)

// ErrFlushToStorage is returned when a directory entry could not be flushed
// after a write.
type ErrFlushToStorage struct {
	ErrorOnFsync error
	ErrorOnClose error
}

func (e ErrFlushToStorage) Error() string {
	return "failed to flush to storage: " + errors.Join(e.ErrorOnFsync, e.ErrorOnClose).Error()
}

func (e ErrFlushToStorage) Unwrap() []error {
	return []error{e.ErrorOnFsync, e.ErrorOnClose}
}

// Storage implements [domain.Storage].
type Storage struct {
	os          osOps
	writeAtomic func(name string, r io.Reader) error
}

// NewStorage returns a new implementation of [domain.Storage].
func NewStorage() domain.Storage {
	return &Storage{os: &osImpl{}, writeAtomic: atomic.WriteFile}
}

// Exists implements [domain.Storage].
func (d *Storage) Exists(name string) (bool, error) {
	if _, err := d.os.Stat(name); err != nil {
		if d.os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// EnsureParentDirectoryExists implements [domain.Storage].
func (d *Storage) EnsureParentDirectoryExists(name string, mode os.FileMode) error {
	dir, err := filepath.Abs(filepath.Dir(name))
	if err != nil {
		return err
	}
	return osSpecificEnsureDir(d.os, dir, mode)
}

// ReadFileStream implements [domain.Storage].
func (d *Storage) ReadFileStream(name string) (io.ReadCloser, error) {
	return d.os.OpenFile(name, os.O_RDONLY, 0)
}

// WriteFileAtomic implements [domain.Storage]. The content is written to a
// temporary file in the same directory, which is then renamed over name. A
// file that did not exist before gets mode; an existing one keeps its own.
func (d *Storage) WriteFileAtomic(name string, r io.Reader, mode os.FileMode) error {
	existed, err := d.Exists(name)
	if err != nil {
		return err
	}
	if err := d.writeAtomic(name, r); err != nil {
		return err
	}
	if !existed {
		if err := d.os.Chmod(name, mode); err != nil {
			return err
		}
	}
	return d.flushDir(filepath.Dir(name))
}

func (d *Storage) flushDir(dir string) error {
	f, err := d.os.OpenFile(dir, os.O_RDONLY, 0)
	if err != nil {
		return ErrFlushToStorage{ErrorOnFsync: err}
	}
	if err := osSpecificSync(f, true); err != nil {
		f.Close()
		return ErrFlushToStorage{ErrorOnFsync: err}
	}
	if err := f.Close(); err != nil {
		return ErrFlushToStorage{ErrorOnClose: err}
	}
	return nil
}

// Remove implements [domain.Storage].
func (d *Storage) Remove(name string) error {
	return d.os.Remove(name)
}
