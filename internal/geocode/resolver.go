package geocode

import (
	"context"
	"errors"

	"github.com/bstardust/photo-timeline/internal/logger"
	"github.com/bstardust/photo-timeline/pkg/models"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// DefaultPrecision is the number of decimals coordinates are rounded to for caching
const DefaultPrecision = 5

// Key returns the cache key of a coordinate: both values rounded half away
// from zero to precision decimals, joined by a comma
func Key(lat, lng float64, precision int32) string {
	return decimal.NewFromFloat(lat).StringFixed(precision) + "," + decimal.NewFromFloat(lng).StringFixed(precision)
}

func round(v float64, precision int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(precision).Float64()
	return f
}

// Resolver turns coordinates into addresses, asking the client at most once per key
type Resolver struct {
	client    Client
	cache     Cache
	precision int32
	group     singleflight.Group
}

// NewResolver creates a new resolver. cache defaults to a MemoryCache and a
// precision of 0 or less selects DefaultPrecision.
func NewResolver(client Client, cache Cache, precision int32) *Resolver {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if precision <= 0 {
		precision = DefaultPrecision
	}
	return &Resolver{
		client:    client,
		cache:     cache,
		precision: precision,
	}
}

// Resolve returns the address of a coordinate. "No data" and permanent
// service errors yield an empty address and a nil error; both are cached.
// Transient failures yield an empty address and the error, and are not cached.
//
// Concurrent callers for the same key share one lookup. That lookup is not
// tied to any single caller's context, so a caller that gives up only stops
// waiting; the client's own timeout bounds the request.
func (r *Resolver) Resolve(ctx context.Context, lat, lng float64) (models.Address, error) {
	if err := ctx.Err(); err != nil {
		return models.Address{}, err
	}

	key := Key(lat, lng, r.precision)

	if addr, ok := r.cached(ctx, key); ok {
		return addr, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key, func() (interface{}, error) {
		if addr, ok := r.cached(shared, key); ok {
			return addr, nil
		}
		return r.lookup(shared, key, round(lat, r.precision), round(lng, r.precision))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return models.Address{}, res.Err
		}
		return res.Val.(models.Address), nil
	case <-ctx.Done():
		return models.Address{}, ctx.Err()
	}
}

func (r *Resolver) lookup(ctx context.Context, key string, lat, lng float64) (models.Address, error) {
	addr, err := r.client.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		if IsTransient(err) {
			logger.Warn("Reverse geocoding %s failed: %v", key, err)
			return models.Address{}, err
		}
		if errors.Is(err, ErrNoResults) {
			logger.Debug("No address for %s", key)
		} else {
			logger.Warn("Reverse geocoding %s rejected: %v", key, err)
		}
		addr = models.Address{}
	}

	if err := r.cache.Set(ctx, key, addr); err != nil {
		logger.Warn("Failed to cache address for %s: %v", key, err)
	}
	return addr, nil
}

func (r *Resolver) cached(ctx context.Context, key string) (models.Address, bool) {
	addr, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("Geocode cache lookup for %s failed: %v", key, err)
		return models.Address{}, false
	}
	return addr, ok
}
