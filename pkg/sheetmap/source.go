package sheetmap

import (
	"context"
)

// RecordSource yields records one at a time. Next returns false once the
// source is exhausted.
type RecordSource[T any] interface {
	Next() (T, bool, error)
	Close() error
}

type sliceSource[T any] struct {
	records []T
	pos     int
}

// SliceSource reads records from an in-memory slice.
func SliceSource[T any](records []T) RecordSource[T] {
	return &sliceSource[T]{records: records}
}

func (s *sliceSource[T]) Next() (T, bool, error) {
	var zero T
	if s.pos >= len(s.records) {
		return zero, false, nil
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, true, nil
}

func (s *sliceSource[T]) Close() error {
	s.pos = len(s.records)
	return nil
}

type channelSource[T any] struct {
	ctx context.Context
	ch  <-chan T
}

// ChannelSource reads records from a channel until it is closed or ctx is
// done.
func ChannelSource[T any](ctx context.Context, ch <-chan T) RecordSource[T] {
	return &channelSource[T]{ctx: ctx, ch: ch}
}

func (s *channelSource[T]) Next() (T, bool, error) {
	var zero T
	select {
	case <-s.ctx.Done():
		return zero, false, s.ctx.Err()
	case rec, ok := <-s.ch:
		return rec, ok, nil
	}
}

func (s *channelSource[T]) Close() error { return nil }

type iteratorSource[T any] struct {
	next func() (T, bool, error)
	done bool
}

// IteratorSource reads records from a custom iterator function, such as a
// database cursor.
func IteratorSource[T any](next func() (T, bool, error)) RecordSource[T] {
	return &iteratorSource[T]{next: next}
}

func (s *iteratorSource[T]) Next() (T, bool, error) {
	var zero T
	if s.done {
		return zero, false, nil
	}
	rec, ok, err := s.next()
	if err != nil || !ok {
		s.done = true
	}
	return rec, ok, err
}

func (s *iteratorSource[T]) Close() error {
	s.done = true
	return nil
}
