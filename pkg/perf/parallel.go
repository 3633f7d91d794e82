// Package perf provides bounded concurrency helpers for planning work.
package perf

import (
	"context"
	"fmt"
	"sync"
)

// Map applies fn to each element of items with at most concurrency calls in
// flight. Results keep the input order. The first error cancels the context
// handed to the remaining calls and is returned.
func Map[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error), concurrency int) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}

	if concurrency <= 0 {
		concurrency = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]R, len(items))
	errCh := make(chan error, len(items))
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func(idx int, it T) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			result, err := fn(ctx, it)
			if err != nil {
				errCh <- fmt.Errorf("error at index %d: %w", idx, err)
				cancel()
				return
			}
			results[idx] = result
		}(i, item)
	}

	wg.Wait()
	close(errCh)

	if err, ok := <-errCh; ok {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// RateLimiter bounds the number of concurrent operations.
type RateLimiter struct {
	sem   chan struct{}
	close chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(maxConcurrent int) *RateLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &RateLimiter{
		sem:   make(chan struct{}, maxConcurrent),
		close: make(chan struct{}),
	}
}

// Do runs fn once a slot is free. The context bounds the wait, not fn.
func (r *RateLimiter) Do(ctx context.Context, fn func() error) error {
	select {
	case <-r.close:
		return fmt.Errorf("rate limiter is closed")
	default:
	}

	select {
	case r.sem <- struct{}{}:
		r.wg.Add(1)
		defer func() {
			<-r.sem
			r.wg.Done()
		}()
		return fn()
	case <-r.close:
		return fmt.Errorf("rate limiter is closed")
	case <-ctx.Done():
		return fmt.Errorf("rate limiter: %w", ctx.Err())
	}
}

// Close rejects new work and waits for active operations to complete.
func (r *RateLimiter) Close() error {
	r.once.Do(func() {
		close(r.close)
	})
	r.wg.Wait()
	return nil
}
