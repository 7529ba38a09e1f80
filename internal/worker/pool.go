// internal/worker/pool.go
package worker

import (
	"context"
	"sync"
)

// Pool represents a worker pool for concurrent operations
type Pool struct {
	wg      sync.WaitGroup
	workers chan struct{}
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		workers: make(chan struct{}, size),
	}
}

// Size returns the maximum number of concurrently running tasks
func (p *Pool) Size() int {
	return cap(p.workers)
}

// Submit blocks until a worker is free and runs task on it. It returns
// ctx.Err() without running the task if ctx is done first.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	select {
	case p.workers <- struct{}{}: // Acquire a worker
	case <-ctx.Done():
		return ctx.Err()
	}

	p.wg.Add(1)
	go func() {
		defer func() {
			<-p.workers // Release the worker
			p.wg.Done()
		}()

		task()
	}()

	return nil
}

// Wait waits for all submitted tasks to complete
func (p *Pool) Wait() {
	p.wg.Wait()
}
