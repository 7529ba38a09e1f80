// internal/progress/reporter.go
package progress

import (
	"context"
	"sync"
	"time"

	"github.com/bstardust/photo-timeline/internal/logger"
)

// Status is the stage a photo has reached
type Status string

const (
	StatusLoading     Status = "loading"
	StatusNormalizing Status = "normalizing"
	StatusExtracting  Status = "extracting"
	StatusResolving   Status = "resolving"
	StatusDone        Status = "done"
	StatusFailed      Status = "failed"
)

// Update reports the progress of one photo of a batch
type Update struct {
	Index  int    `json:"index"`
	Total  int    `json:"total"`
	Status Status `json:"status"`
	Path   string `json:"path"`
	Err    error  `json:"-"`
}

// Reporter tracks batch progress, logs it and forwards updates to an optional channel
type Reporter struct {
	mu             sync.Mutex
	total          int
	completed      int
	errors         int
	startTime      time.Time
	lastUpdateTime time.Time
	updateInterval time.Duration
	updates        chan<- Update
}

// New creates a new progress reporter. updates may be nil.
func New(updates chan<- Update) *Reporter {
	return &Reporter{
		updateInterval: 2 * time.Second,
		updates:        updates,
	}
}

// Start initializes the progress reporter with the total number of photos
func (r *Reporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total = total
	r.completed = 0
	r.errors = 0
	r.startTime = time.Now()
	r.lastUpdateTime = time.Now()

	logger.Info("Starting processing of %d photos", total)
}

// Stage reports that a photo entered a processing stage
func (r *Reporter) Stage(ctx context.Context, index int, path string, status Status) {
	r.send(ctx, Update{Index: index, Total: r.Total(), Status: status, Path: path})
}

// Complete marks a photo as successfully processed
func (r *Reporter) Complete(ctx context.Context, index int, path string) {
	r.mu.Lock()
	r.completed++
	r.updateProgress()
	total := r.total
	r.mu.Unlock()

	r.send(ctx, Update{Index: index, Total: total, Status: StatusDone, Path: path})
}

// Error marks a photo as processed with a failure. The photo is still part of the result.
func (r *Reporter) Error(ctx context.Context, index int, path string, err error) {
	r.mu.Lock()
	r.errors++
	r.updateProgress()
	total := r.total
	r.mu.Unlock()

	logger.Warn("Failed to enrich %s: %v", path, err)
	r.send(ctx, Update{Index: index, Total: total, Status: StatusFailed, Path: path, Err: err})
}

// Total returns the number of photos of the current batch
func (r *Reporter) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// Counts returns the number of completed and failed photos
func (r *Reporter) Counts() (completed, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed, r.errors
}

// Finish completes the progress reporting
func (r *Reporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	duration := time.Since(r.startTime)

	logger.Info("Processing complete: %d/%d photos enriched, %d with errors in %s",
		r.completed, r.total, r.errors, duration.Round(time.Millisecond))
}

// send delivers u to the caller's channel unless ctx is done first
func (r *Reporter) send(ctx context.Context, u Update) {
	if r.updates == nil {
		return
	}
	select {
	case r.updates <- u:
	case <-ctx.Done():
	}
}

// updateProgress logs the progress at most once per update interval
func (r *Reporter) updateProgress() {
	now := time.Now()
	if now.Sub(r.lastUpdateTime) < r.updateInterval {
		return
	}

	r.lastUpdateTime = now
	duration := now.Sub(r.startTime)
	processed := r.completed + r.errors

	if processed == 0 || r.total == 0 {
		return
	}

	percentage := float64(processed) / float64(r.total) * 100

	timePerPhoto := duration / time.Duration(processed)
	remaining := timePerPhoto * time.Duration(r.total-processed)

	logger.Info("Progress: %.1f%% (%d/%d, %d enriched, %d errors) ETA: %s",
		percentage, processed, r.total, r.completed, r.errors, remaining.Round(time.Second))
}
