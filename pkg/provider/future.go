package provider

import (
	"context"
	"sync"
)

// Future is a write-once promise. It is resolved (or rejected) exactly once;
// later attempts are ignored. Waiting on an unresolved future is a suspension
// point that yields to other in-flight work.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// NewFuture creates an unresolved future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// ResolvedFuture creates a future already resolved to value.
func ResolvedFuture[T any](value T) *Future[T] {
	f := NewFuture[T]()
	f.Resolve(value)
	return f
}

// Resolve settles the future with a value. It reports whether this call was
// the one that settled it.
func (f *Future[T]) Resolve(value T) bool {
	settled := false
	f.once.Do(func() {
		f.value = value
		close(f.done)
		settled = true
	})
	return settled
}

// Reject settles the future with an error. It reports whether this call was
// the one that settled it.
func (f *Future[T]) Reject(err error) bool {
	settled := false
	f.once.Do(func() {
		f.err = err
		close(f.done)
		settled = true
	})
	return settled
}

// Result blocks until the future settles or ctx is done.
func (f *Future[T]) Result(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel closed when the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}
