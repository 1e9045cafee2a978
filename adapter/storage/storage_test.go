package storage

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/natefinch/atomic"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const testContent = `{"meta":{"version":0},"models":{}}`

type osOpsMock struct {
	mock.Mock
	mockCount int
}

// Chmod implements osOps.
func (o *osOpsMock) Chmod(name string, mode os.FileMode) error {
	if o.mockCount > 0 {
		o.mockCount--
		return os.Chmod(name, mode)
	}
	return o.Called(name, mode).Error(0)
}

// IsNotExist implements osOps.
func (o *osOpsMock) IsNotExist(err error) bool {
	if o.mockCount > 0 {
		o.mockCount--
		return os.IsNotExist(err)
	}
	return o.Called(err).Bool(0)
}

// MkdirAll implements osOps.
func (o *osOpsMock) MkdirAll(path string, perm os.FileMode) error {
	if o.mockCount > 0 {
		o.mockCount--
		return os.MkdirAll(path, perm)
	}
	return o.Called(path, perm).Error(0)
}

// OpenFile implements osOps.
func (o *osOpsMock) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	if o.mockCount > 0 {
		o.mockCount--
		return os.OpenFile(name, flag, perm)
	}
	call := o.Called(name, flag, perm)
	f, _ := call.Get(0).(*os.File)
	return f, call.Error(1)
}

// Remove implements osOps.
func (o *osOpsMock) Remove(name string) error {
	if o.mockCount > 0 {
		o.mockCount--
		return os.Remove(name)
	}
	return o.Called(name).Error(0)
}

// Stat implements osOps.
func (o *osOpsMock) Stat(name string) (os.FileInfo, error) {
	if o.mockCount > 0 {
		o.mockCount--
		return os.Stat(name)
	}
	call := o.Called(name)
	if call.Get(0) == nil {
		return nil, call.Error(1)
	}
	return call.Get(0).(os.FileInfo), call.Error(1)
}

type StorageTestSuite struct {
	suite.Suite
	store *Storage
}

func (s *StorageTestSuite) SetupTest() {
	s.store = NewStorage().(*Storage)
}

func (s *StorageTestSuite) mocked(count int) *osOpsMock {
	m := &osOpsMock{mockCount: count}
	s.store.os = m
	return m
}

func (s *StorageTestSuite) TestExists() {
	file := s.CreateFile(s.T(), []byte(testContent), 0o666)
	exists, err := s.store.Exists(file)
	s.NoError(err)
	s.True(exists)

	exists, err = s.store.Exists(s.NonexistentFile(s.T()))
	s.NoError(err)
	s.False(exists)
}

func (s *StorageTestSuite) TestExistsStatError() {
	m := s.mocked(0)
	errStat := errors.New("stat error")
	m.On("Stat", "db.json").Return(nil, errStat).Once()
	m.On("IsNotExist", errStat).Return(false).Once()

	exists, err := s.store.Exists("db.json")
	s.ErrorIs(err, errStat)
	s.False(exists)
	m.AssertExpectations(s.T())
}

func (s *StorageTestSuite) TestEnsureParentDirectoryExists() {
	file := filepath.Join(s.T().TempDir(), "a", "b", "db.json")
	s.NoError(s.store.EnsureParentDirectoryExists(file, 0o755))
	s.DirExists(filepath.Dir(file))

	s.NoError(s.store.EnsureParentDirectoryExists(file, 0o755))
}

func (s *StorageTestSuite) TestEnsureParentDirectoryExistsFail() {
	m := s.mocked(0)
	errMkdir := errors.New("mkdir error")
	m.On("MkdirAll", mock.Anything, os.FileMode(0o755)).Return(errMkdir).Once()

	s.ErrorIs(s.store.EnsureParentDirectoryExists("dir/db.json", 0o755), errMkdir)
}

func (s *StorageTestSuite) TestWriteFileAtomicNewFile() {
	file := s.NonexistentFile(s.T())

	s.NoError(s.store.WriteFileAtomic(file, strings.NewReader(testContent), 0o640))
	b, err := os.ReadFile(file)
	s.NoError(err)
	s.Equal(testContent, string(b))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(file)
		s.Require().NoError(err)
		s.Equal(os.FileMode(0o640), info.Mode().Perm())
	}

	entries, err := os.ReadDir(filepath.Dir(file))
	s.NoError(err)
	s.Len(entries, 1)
}

func (s *StorageTestSuite) TestWriteFileAtomicExistingFile() {
	if runtime.GOOS == "windows" {
		s.T().Skip("file modes are not enforced")
	}
	file := s.CreateFile(s.T(), []byte("old"), 0o600)

	s.NoError(s.store.WriteFileAtomic(file, strings.NewReader(testContent), 0o644))
	b, err := os.ReadFile(file)
	s.NoError(err)
	s.Equal(testContent, string(b))

	info, err := os.Stat(file)
	s.Require().NoError(err)
	s.Equal(os.FileMode(0o600), info.Mode().Perm())
}

func (s *StorageTestSuite) TestWriteFileAtomicFailKeepsFile() {
	file := s.CreateFile(s.T(), []byte("old"), 0o666)
	errWrite := errors.New("write error")
	s.store.writeAtomic = func(name string, r io.Reader) error {
		return atomic.WriteFile(name, io.MultiReader(r, failingReader{errWrite}))
	}

	err := s.store.WriteFileAtomic(file, strings.NewReader(testContent), 0o666)
	s.ErrorContains(err, errWrite.Error())
	b, err := os.ReadFile(file)
	s.NoError(err)
	s.Equal("old", string(b))
}

func (s *StorageTestSuite) TestWriteFileAtomicFailChmod() {
	file := s.NonexistentFile(s.T())
	m := s.mocked(2)
	errChmod := errors.New("chmod error")
	m.On("Chmod", file, os.FileMode(0o600)).Return(errChmod).Once()

	s.ErrorIs(s.store.WriteFileAtomic(file, strings.NewReader(testContent), 0o600), errChmod)
	m.AssertExpectations(s.T())
}

func (s *StorageTestSuite) TestWriteFileAtomicFailFlush() {
	file := s.CreateFile(s.T(), []byte("old"), 0o666)
	m := s.mocked(1)
	errOpen := errors.New("open error")
	m.On("OpenFile", filepath.Dir(file), os.O_RDONLY, os.FileMode(0)).Return(nil, errOpen).Once()

	err := s.store.WriteFileAtomic(file, strings.NewReader(testContent), 0o666)
	s.ErrorAs(err, &ErrFlushToStorage{})
	s.ErrorIs(err, errOpen)
	m.AssertExpectations(s.T())
}

func (s *StorageTestSuite) TestReadFileStream() {
	file := s.CreateFile(s.T(), []byte(testContent), 0o666)

	r, err := s.store.ReadFileStream(file)
	s.Require().NoError(err)
	defer r.Close()
	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	s.NoError(err)
	s.Equal(testContent, buf.String())

	_, err = s.store.ReadFileStream(s.NonexistentFile(s.T()))
	s.ErrorIs(err, os.ErrNotExist)
}

func (s *StorageTestSuite) TestRemove() {
	file := s.CreateFile(s.T(), []byte(testContent), 0o666)
	s.NoError(s.store.Remove(file))
	s.NoFileExists(file)
	s.ErrorIs(s.store.Remove(file), os.ErrNotExist)
}

func (s *StorageTestSuite) NonexistentFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "db.json")
}

func (s *StorageTestSuite) CreateFile(t *testing.T, content []byte, mode os.FileMode) string {
	file := filepath.Join(t.TempDir(), "db.json")
	if err := os.WriteFile(file, content, mode); err != nil {
		t.Fatal(err)
	}
	return file
}

type failingReader struct {
	err error
}

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestStorageTestSuite(t *testing.T) {
	suite.Run(t, new(StorageTestSuite))
}
