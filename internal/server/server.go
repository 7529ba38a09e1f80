package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bstardust/photo-timeline/internal/config"
	"github.com/bstardust/photo-timeline/internal/logger"
	"github.com/bstardust/photo-timeline/internal/progress"
	"github.com/bstardust/photo-timeline/pkg/models"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// Processor is the part of the pipeline the API exposes
type Processor interface {
	Timeline(ctx context.Context, sources []models.PhotoSource, updates chan<- progress.Update) ([]models.PhotoGroup, error)
	Inspect(ctx context.Context, src models.PhotoSource) (*models.EnrichedPhoto, error)
}

// Server serves the photo timeline over HTTP
type Server struct {
	echo      *echo.Echo
	processor Processor
	cfg       config.ServerConfig
}

// New creates a new Server
func New(processor Processor, cfg config.ServerConfig) *Server {
	s := &Server{
		echo:      echo.New(),
		processor: processor,
		cfg:       cfg,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true

	e.Use(echoMiddleware.RequestIDWithConfig(echoMiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			logger.Info("%s %s %d %s (%s)", v.Method, v.URI, v.Status, v.Latency.Round(time.Millisecond), v.RequestID)
			return nil
		},
	}))
	e.Use(echoMiddleware.Recover())
	if cfg.MaxUploadMiB > 0 {
		e.Use(echoMiddleware.BodyLimit(fmt.Sprintf("%dM", cfg.MaxUploadMiB)))
	}

	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/timeline", s.handleTimeline)
	e.POST("/v1/inspect", s.handleInspect)

	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on the configured address until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s", s.cfg.Addr)
		if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("Shutting down server")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
