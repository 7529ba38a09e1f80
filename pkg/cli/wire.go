package cli

import (
	"fmt"
	"io"

	"github.com/bstardust/photo-timeline/internal/adapter/s3"
	"github.com/bstardust/photo-timeline/internal/config"
	"github.com/bstardust/photo-timeline/internal/geocode"
	"github.com/bstardust/photo-timeline/internal/grouping"
	"github.com/bstardust/photo-timeline/internal/logger"
	"github.com/bstardust/photo-timeline/internal/metadata"
	"github.com/bstardust/photo-timeline/internal/normalize"
	"github.com/bstardust/photo-timeline/internal/pipeline"
	"github.com/bstardust/photo-timeline/internal/source"
)

// newOrchestrator assembles the pipeline from the configuration. The returned
// function releases the geocode cache.
func newOrchestrator(cfg *config.Config) (*pipeline.Orchestrator, func(), error) {
	var objects source.ObjectStore
	if cfg.Storage.Endpoint != "" {
		client, err := s3.NewClient(cfg.Storage)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		objects = client
	}

	var resolver pipeline.Resolver
	cleanup := func() {}

	switch {
	case !cfg.Geocode.Enabled:
		logger.Info("Reverse geocoding disabled")
	case cfg.Geocode.APIKey == "":
		logger.Warn("No geocoding API key configured, addresses will not be resolved")
	default:
		cache, err := geocode.NewCache(cfg.Geocode.Cache)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize geocode cache: %w", err)
		}
		if c, ok := cache.(io.Closer); ok {
			cleanup = func() {
				if err := c.Close(); err != nil {
					logger.Warn("Failed to close geocode cache: %v", err)
				}
			}
		}
		resolver = geocode.NewResolver(geocode.NewGoogleClient(cfg.Geocode), cache, cfg.Geocode.Precision)
	}

	orchestrator := pipeline.New(
		source.NewLoader(cfg.Pipeline.FetchTimeout, cfg.Pipeline.MaxSourceBytes, objects),
		normalize.NewNormalizer(cfg.Pipeline.JPEGQuality),
		metadata.NewExtractor(cfg.Pipeline.Location()),
		resolver,
		grouping.NewEngine(grouping.Options{
			LocationPrecision: cfg.Grouping.LocationPrecision,
			DateLayout:        cfg.Grouping.DateLayout,
		}),
		cfg.Pipeline.Concurrency,
	)

	return orchestrator, cleanup, nil
}
