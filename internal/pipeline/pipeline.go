package pipeline

import (
	"context"
	"slices"

	"github.com/bstardust/photo-timeline/internal/logger"
	"github.com/bstardust/photo-timeline/internal/metadata"
	"github.com/bstardust/photo-timeline/internal/progress"
	"github.com/bstardust/photo-timeline/internal/source"
	"github.com/bstardust/photo-timeline/internal/worker"
	"github.com/bstardust/photo-timeline/pkg/models"
)

// Loader reads the bytes of a photo source
type Loader interface {
	Load(ctx context.Context, src models.PhotoSource) (*source.Payload, error)
}

// Normalizer produces the display form of a photo
type Normalizer interface {
	Normalize(ctx context.Context, src models.PhotoSource, payload *source.Payload) (models.DisplayImage, error)
}

// Extractor reads capture time and location from image bytes
type Extractor interface {
	Extract(data []byte) *metadata.Metadata
}

// Resolver reverse-geocodes coordinates
type Resolver interface {
	Resolve(ctx context.Context, lat, lng float64) (models.Address, error)
}

// Grouper partitions an ordered photo sequence
type Grouper interface {
	Group(photos []*models.EnrichedPhoto) []models.PhotoGroup
}

// Orchestrator runs every photo of a batch through loading, normalization,
// metadata extraction and reverse geocoding on a bounded worker pool
type Orchestrator struct {
	loader      Loader
	normalizer  Normalizer
	extractor   Extractor
	resolver    Resolver
	grouper     Grouper
	concurrency int
}

// New creates a new Orchestrator. resolver may be nil to skip reverse geocoding.
func New(loader Loader, normalizer Normalizer, extractor Extractor, resolver Resolver,
	grouper Grouper, concurrency int) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		loader:      loader,
		normalizer:  normalizer,
		extractor:   extractor,
		resolver:    resolver,
		grouper:     grouper,
		concurrency: concurrency,
	}
}

// Process enriches every source and returns the photos ordered by capture
// time, undated photos last in input order. A failing photo never fails the
// batch: it is returned with the metadata that could be gathered and its
// error recorded. updates may be nil. The only error returned is ctx.Err()
// when the batch is cancelled, in which case no photos are returned.
func (o *Orchestrator) Process(ctx context.Context, sources []models.PhotoSource, updates chan<- progress.Update) ([]*models.EnrichedPhoto, error) {
	reporter := progress.New(updates)
	reporter.Start(len(sources))

	results := make([]*models.EnrichedPhoto, len(sources))
	pool := worker.NewPool(o.concurrency)

	for i, src := range sources {
		i, src := i, src
		err := pool.Submit(ctx, func() {
			photo := o.enrich(ctx, i, src, reporter)
			if photo.Err != nil {
				reporter.Error(ctx, i, src.Name, photo.Err)
			} else {
				reporter.Complete(ctx, i, src.Name)
			}
			results[i] = photo
		})
		if err != nil {
			break
		}
	}

	pool.Wait()

	if err := ctx.Err(); err != nil {
		logger.Warn("Processing cancelled: %v", err)
		return nil, err
	}

	reporter.Finish()

	SortByCaptureTime(results)
	return results, nil
}

// Timeline processes the sources and groups the result
func (o *Orchestrator) Timeline(ctx context.Context, sources []models.PhotoSource, updates chan<- progress.Update) ([]models.PhotoGroup, error) {
	photos, err := o.Process(ctx, sources, updates)
	if err != nil {
		return nil, err
	}
	return o.grouper.Group(photos), nil
}

// Inspect enriches a single photo
func (o *Orchestrator) Inspect(ctx context.Context, src models.PhotoSource) (*models.EnrichedPhoto, error) {
	photos, err := o.Process(ctx, []models.PhotoSource{src}, nil)
	if err != nil {
		return nil, err
	}
	return photos[0], nil
}

func (o *Orchestrator) enrich(ctx context.Context, index int, src models.PhotoSource, reporter *progress.Reporter) *models.EnrichedPhoto {
	photo := models.NewEnrichedPhoto(src)

	reporter.Stage(ctx, index, src.Name, progress.StatusLoading)
	payload, err := o.loader.Load(ctx, src)
	if err != nil {
		photo.SetError(err)
		return photo
	}

	reporter.Stage(ctx, index, src.Name, progress.StatusNormalizing)
	display, err := o.normalizer.Normalize(ctx, src, payload)
	photo.Display = display
	if err != nil {
		photo.SetError(err)
	}

	// metadata comes from the original bytes, which survive a failed transcode
	reporter.Stage(ctx, index, src.Name, progress.StatusExtracting)
	meta := o.extractor.Extract(payload.Data)
	photo.CapturedAt = meta.CapturedAt
	photo.SetLocation(meta.Latitude, meta.Longitude)

	if !photo.HasLocation() || o.resolver == nil {
		return photo
	}

	reporter.Stage(ctx, index, src.Name, progress.StatusResolving)
	addr, err := o.resolver.Resolve(ctx, *photo.Latitude, *photo.Longitude)
	if err != nil {
		photo.SetError(err)
	}
	photo.SetAddress(addr)

	return photo
}

// SortByCaptureTime orders photos by capture time. Photos without one keep
// their relative order and go after all dated photos.
func SortByCaptureTime(photos []*models.EnrichedPhoto) {
	slices.SortStableFunc(photos, func(a, b *models.EnrichedPhoto) int {
		switch {
		case a.CapturedAt == nil && b.CapturedAt == nil:
			return 0
		case a.CapturedAt == nil:
			return 1
		case b.CapturedAt == nil:
			return -1
		default:
			return a.CapturedAt.Compare(*b.CapturedAt)
		}
	})
}
