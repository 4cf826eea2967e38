// Package filesystem abstracts the file operations used when resolving tools and unpacking archives.
package filesystem

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystem describes the file operations required by tool resolution and archive extraction.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	Chmod(path string, permissions fs.FileMode) error
	Abs(path string) (string, error)
	MkdirAll(path string, permissions fs.FileMode) error
	Create(path string, permissions fs.FileMode) (io.WriteCloser, error)
	Symlink(target string, linkPath string) error
	Link(existingPath string, linkPath string) error
	EvalSymlinks(path string) (string, error)
	Open(path string) (io.ReadCloser, error)
}

// OSFileSystem implements FileSystem using the operating system primitives.
type OSFileSystem struct{}

// Stat retrieves file metadata, following symbolic links.
func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// Chmod replaces the permission bits of a file.
func (OSFileSystem) Chmod(path string, permissions fs.FileMode) error {
	return os.Chmod(path, permissions)
}

// Abs resolves an absolute path.
func (OSFileSystem) Abs(path string) (string, error) {
	return filepath.Abs(path)
}

// MkdirAll ensures a directory hierarchy exists with the provided permissions.
func (OSFileSystem) MkdirAll(path string, permissions fs.FileMode) error {
	return os.MkdirAll(path, permissions)
}

// Create truncates or creates a file for writing with the supplied permissions.
func (OSFileSystem) Create(path string, permissions fs.FileMode) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, permissions)
}

// Symlink creates linkPath pointing at target.
func (OSFileSystem) Symlink(target string, linkPath string) error {
	return os.Symlink(target, linkPath)
}

// Open opens a file for reading.
func (OSFileSystem) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Link creates linkPath as a hard link to existingPath.
func (OSFileSystem) Link(existingPath string, linkPath string) error {
	return os.Link(existingPath, linkPath)
}

// EvalSymlinks returns path with every symbolic link resolved. Every component must exist.
func (OSFileSystem) EvalSymlinks(path string) (string, error) {
	return filepath.EvalSymlinks(path)
}
