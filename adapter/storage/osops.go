package storage

import "os"

type osOps interface {
	Chmod(name string, mode os.FileMode) error
	IsNotExist(err error) bool
	MkdirAll(path string, perm os.FileMode) error
	OpenFile(name string, flag int, perm os.FileMode) (*os.File, error)
	Remove(name string) error
	Stat(name string) (os.FileInfo, error)
}

type osImpl struct{}

// Chmod implements [osOps].
func (o *osImpl) Chmod(name string, mode os.FileMode) error {
	return os.Chmod(name, mode)
}

// IsNotExist implements [osOps].
func (o *osImpl) IsNotExist(err error) bool {
	return os.IsNotExist(err)
}

// MkdirAll implements [osOps].
func (o *osImpl) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// OpenFile implements [osOps].
func (o *osImpl) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, flag, perm)
}

// Remove implements [osOps].
func (o *osImpl) Remove(name string) error {
	return os.Remove(name)
}

// Stat implements [osOps].
func (o *osImpl) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}
