package grouping

import (
	"github.com/bstardust/photo-timeline/pkg/models"
	"github.com/shopspring/decimal"
)

const (
	// UnknownDate is the date key of photos without a capture time
	UnknownDate = "Unknown Date"
	// UnknownLocation is the location key of photos without coordinates
	UnknownLocation = "Unknown Location"

	DefaultLocationPrecision = 3
	DefaultDateLayout        = "2006-01-02"
)

// Options control how coarse the grouping keys are. The zero value selects
// DefaultLocationPrecision and DefaultDateLayout.
type Options struct {
	// LocationPrecision is the number of decimals of the location key; 0 or
	// less means DefaultLocationPrecision
	LocationPrecision int32
	DateLayout        string
}

// Engine partitions an ordered photo sequence into runs of adjacent photos
// taken on the same day at the same place
type Engine struct {
	opts Options
}

// NewEngine creates a new grouping engine
func NewEngine(opts Options) *Engine {
	if opts.DateLayout == "" {
		opts.DateLayout = DefaultDateLayout
	}
	if opts.LocationPrecision <= 0 {
		opts.LocationPrecision = DefaultLocationPrecision
	}
	return &Engine{opts: opts}
}

// Group splits photos, which must already be in timeline order, into groups.
// A new group starts whenever the date key or the location key differs from
// the previous photo's, so non-adjacent photos with equal keys end up in
// separate groups. The result is never nil.
func (e *Engine) Group(photos []*models.EnrichedPhoto) []models.PhotoGroup {
	groups := make([]models.PhotoGroup, 0)

	var current *models.PhotoGroup
	for _, photo := range photos {
		dateKey := e.DateKey(photo)
		locationKey := e.LocationKey(photo)

		if current == nil || current.DateKey != dateKey || current.LocationKey != locationKey {
			groups = append(groups, models.PhotoGroup{
				DateKey:     dateKey,
				LocationKey: locationKey,
			})
			current = &groups[len(groups)-1]
		}
		current.Photos = append(current.Photos, photo)
	}

	return groups
}

// DateKey formats the capture day of a photo, in the location the time carries
func (e *Engine) DateKey(photo *models.EnrichedPhoto) string {
	if photo.CapturedAt == nil {
		return UnknownDate
	}
	return photo.CapturedAt.Format(e.opts.DateLayout)
}

// LocationKey rounds the coordinates half away from zero to the configured precision
func (e *Engine) LocationKey(photo *models.EnrichedPhoto) string {
	if !photo.HasLocation() {
		return UnknownLocation
	}
	p := e.opts.LocationPrecision
	return decimal.NewFromFloat(*photo.Latitude).StringFixed(p) + "," + decimal.NewFromFloat(*photo.Longitude).StringFixed(p)
}
