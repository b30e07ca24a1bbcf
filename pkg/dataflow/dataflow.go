// Package dataflow provides small channel-based pipeline stages.
package dataflow

import (
	"context"
	"sync"
	"sync/atomic"
)

// FromSlice emits items on a channel that is closed after the last one or
// when ctx is done.
func FromSlice[T any](ctx context.Context, items []T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for _, item := range items {
			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Map applies fn to every input item on the configured number of workers.
// With more than one worker the output order is not preserved. An item fn
// fails on is dropped; the error handler, when set, sees the error and stops
// the stage by returning false.
func Map[In, Out any](ctx context.Context, in <-chan In, fn func(In) (Out, error), opts ...Option) <-chan Out {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	out := make(chan Out, cfg.bufferSize)
	var wg sync.WaitGroup
	var stopped atomic.Bool

	for i := 0; i < cfg.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range in {
				if stopped.Load() {
					continue
				}
				res, err := fn(item)
				if err != nil {
					if cfg.errorHandler != nil && !cfg.errorHandler(err) {
						stopped.Store(true)
					}
					continue
				}
				select {
				case out <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// ForEach calls fn for every item until the channel closes. It stops at the
// first error fn returns, or when ctx is done.
func ForEach[T any](ctx context.Context, in <-chan T, fn func(T) error) error {
	for {
		select {
		case <-ctx.Done():
			go drain(in)
			return ctx.Err()
		case item, ok := <-in:
			if !ok {
				return nil
			}
			if err := fn(item); err != nil {
				go drain(in)
				return err
			}
		}
	}
}

func drain[T any](in <-chan T) {
	for range in {
	}
}
