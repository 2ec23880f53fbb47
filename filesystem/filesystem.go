// Package filesystem routes every file access of the application through one swappable afero backend.
package filesystem

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/afero"
)

var backend = afero.Afero{Fs: afero.NewOsFs()}

// API returns the active backend.
func API() afero.Afero {
	return backend
}

// SetOsFs restores the native filesystem.
func SetOsFs() {
	backend = afero.Afero{Fs: afero.NewOsFs()}
}

// SetMemMapFs switches to an in-memory filesystem. Tests call it from init.
func SetMemMapFs() {
	backend = afero.Afero{Fs: afero.NewMemMapFs()}
}

// Exists reports whether path exists. Errors other than "not exist" count as existing.
func Exists(path string) bool {
	_, err := backend.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// GacheFs lets gache caches, like the progress outbox, write through the active backend.
type GacheFs struct{}

func (GacheFs) OpenFile(name string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	return API().OpenFile(name, flag, perm)
}

func (GacheFs) MkdirAll(path string, perm os.FileMode) error {
	return API().MkdirAll(path, perm)
}
