package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bstardust/photo-timeline/internal/fshelper"
	"github.com/bstardust/photo-timeline/internal/logger"
	"github.com/bstardust/photo-timeline/pkg/models"
)

// FromPath creates a source for a local file
func FromPath(path string) models.PhotoSource {
	return models.NewSource(models.PhotoSource{Path: path})
}

// FromBytes creates a source for in-memory content. mediaType may be empty.
func FromBytes(name, mediaType string, data []byte) models.PhotoSource {
	return models.NewSource(models.PhotoSource{Name: name, MediaType: mediaType, Data: data})
}

// FromURL creates a source for an http(s) or s3 URL
func FromURL(rawURL string) models.PhotoSource {
	return models.NewSource(models.PhotoSource{URL: rawURL})
}

// Collect expands command line arguments into photo sources in argument order.
// Arguments may be URLs, image files, directories or zip archives. The returned
// close function releases opened archives and must be called once the sources
// have been processed.
func Collect(ctx context.Context, args []string) ([]models.PhotoSource, func() error, error) {
	var sources []models.PhotoSource
	var closers []io.Closer

	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
		return errors.Join(errs...)
	}

	for _, arg := range args {
		if err := ctx.Err(); err != nil {
			closeAll()
			return nil, nil, err
		}

		if IsURL(arg) {
			if _, err := ParseURL(arg); err != nil {
				closeAll()
				return nil, nil, err
			}
			sources = append(sources, FromURL(arg))
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("error accessing path %s: %w", arg, err)
		}

		if !info.IsDir() && !fshelper.IsArchive(arg) {
			sources = append(sources, FromPath(arg))
			continue
		}

		fsys, err := fshelper.Open(arg)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		if c, ok := fsys.(io.Closer); ok {
			closers = append(closers, c)
		}

		found, err := collectFS(fsys)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
		logger.Info("Found %d photos in %s", len(found), fsys.Name())
		sources = append(sources, found...)
	}

	return sources, closeAll, nil
}

func collectFS(fsys fshelper.NameFS) ([]models.PhotoSource, error) {
	var sources []models.PhotoSource

	err := fshelper.WalkFiles(fsys, func(path string) error {
		if !IsImageFile(path) {
			logger.Debug("Skipping non-image file %s", path)
			return nil
		}

		src := models.PhotoSource{Name: filepath.Base(path)}
		if dir, ok := fsys.(*fshelper.DirFS); ok {
			src.Path = filepath.Join(dir.Root(), filepath.FromSlash(path))
		} else {
			p := path
			src.Open = func() (io.ReadCloser, error) {
				return fsys.Open(p)
			}
		}
		sources = append(sources, models.NewSource(src))
		return nil
	})

	return sources, err
}
