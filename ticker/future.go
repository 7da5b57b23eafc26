package ticker

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrDeadline is returned by Await when the work did not finish in time.
var ErrDeadline = errors.New("ticker: deadline exceeded")

type result[T any] struct {
	val T
	err error
}

// Future is the pending result of work started with Go. A future that is
// abandoned after a timeout is never retried; its goroutine finishes on its
// own and the result is dropped.
type Future[T any] struct {
	ch   chan result[T]
	done bool
	val  T
	err  error
}

// Go runs fn on its own goroutine. Panics in fn are reported as errors.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{ch: make(chan result[T], 1)}
	go func() {
		var r result[T]
		defer func() {
			if p := recover(); p != nil {
				r.err = fmt.Errorf("ticker: panic in background work: %v", p)
			}
			f.ch <- r
		}()
		r.val, r.err = fn(ctx)
	}()
	return f
}

// Poll returns the result if it is ready. It never blocks.
func (f *Future[T]) Poll() (T, bool, error) {
	if f.done {
		return f.val, true, f.err
	}
	select {
	case r := <-f.ch:
		f.settle(r)
		return f.val, true, f.err
	default:
		var zero T
		return zero, false, nil
	}
}

// Await waits up to timeout for the result. On timeout it returns
// ErrDeadline and the future may still be polled later.
func (f *Future[T]) Await(ctx context.Context, timeout time.Duration) (T, error) {
	if f.done {
		return f.val, f.err
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case r := <-f.ch:
		f.settle(r)
		return f.val, f.err
	case <-timer.C:
		return zero, fmt.Errorf("%w after %s", ErrDeadline, timeout)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (f *Future[T]) settle(r result[T]) {
	f.done = true
	f.val = r.val
	f.err = r.err
}
