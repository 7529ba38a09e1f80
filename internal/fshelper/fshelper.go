package fshelper

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// NameFS is a filesystem that has a name
type NameFS interface {
	fs.FS
	Name() string
}

// DirFS represents a directory filesystem with a name
type DirFS struct {
	fs.FS
	name string
	root string
}

// Name returns the name of the filesystem
func (d *DirFS) Name() string {
	return d.name
}

// Root returns the directory the filesystem is rooted at
func (d *DirFS) Root() string {
	return d.root
}

// ZipFS represents a zip filesystem with a name
type ZipFS struct {
	*zip.Reader
	name string
	rc   io.Closer
}

// Name returns the name of the filesystem
func (z *ZipFS) Name() string {
	return z.name
}

// Close closes the zip file
func (z *ZipFS) Close() error {
	if z.rc != nil {
		return z.rc.Close()
	}
	return nil
}

// IsArchive reports whether path names a zip archive
func IsArchive(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".zip")
}

// Open returns a filesystem for a directory or a zip archive
func Open(path string) (NameFS, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("path does not exist: %s", path)
		}
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}

	switch {
	case info.IsDir():
		return &DirFS{
			FS:   os.DirFS(path),
			name: filepath.Base(path),
			root: path,
		}, nil
	case IsArchive(path):
		return OpenZip(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}
}

// OpenZip opens a zip file and returns a filesystem
func OpenZip(path string) (*ZipFS, error) {
	zipFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening zip file: %w", err)
	}

	info, err := zipFile.Stat()
	if err != nil {
		zipFile.Close()
		return nil, fmt.Errorf("error getting zip file info: %w", err)
	}

	zipReader, err := zip.NewReader(zipFile, info.Size())
	if err != nil {
		zipFile.Close()
		return nil, fmt.Errorf("error creating zip reader: %w", err)
	}

	return &ZipFS{
		Reader: zipReader,
		name:   filepath.Base(path),
		rc:     zipFile,
	}, nil
}

// WalkFiles calls fn for every regular file of fsys in lexical order
func WalkFiles(fsys fs.FS, fn func(path string) error) error {
	return fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !d.Type().IsRegular() {
			return nil
		}
		return fn(path)
	})
}
