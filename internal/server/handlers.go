package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/bstardust/photo-timeline/internal/source"
	"github.com/bstardust/photo-timeline/pkg/models"
	"github.com/labstack/echo/v4"
)

// FileField is the multipart field photos are uploaded in
const FileField = "file"

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleTimeline handles POST /v1/timeline with one or more photos
func (s *Server) handleTimeline(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "expected a multipart form"})
	}

	files := form.File[FileField]
	if len(files) == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "no photos in field \"" + FileField + "\""})
	}

	sources := make([]models.PhotoSource, 0, len(files))
	for _, fh := range files {
		fh := fh
		src := source.FromBytes(fh.Filename, fh.Header.Get(echo.HeaderContentType), nil)
		src.Open = func() (io.ReadCloser, error) {
			return fh.Open()
		}
		sources = append(sources, src)
	}

	groups, err := s.processor.Timeline(c.Request().Context(), sources, nil)
	if err != nil {
		return processingError(c, err)
	}

	return c.JSON(http.StatusOK, groups)
}

// handleInspect handles POST /v1/inspect with a single photo
func (s *Server) handleInspect(c echo.Context) error {
	fh, err := c.FormFile(FileField)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "no photo in field \"" + FileField + "\""})
	}

	src := source.FromBytes(fh.Filename, fh.Header.Get(echo.HeaderContentType), nil)
	src.Open = func() (io.ReadCloser, error) {
		return fh.Open()
	}

	photo, err := s.processor.Inspect(c.Request().Context(), src)
	if err != nil {
		return processingError(c, err)
	}

	return c.JSON(http.StatusOK, photo)
}

func processingError(c echo.Context, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "request cancelled"})
	}
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}
