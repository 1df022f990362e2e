// Package tasks tracks asynchronous work spawned while serving a request so
// the bridge can drain it before responding. Work is registered in one of two
// explicit pools: request-scoped work is always drained, server-scoped work
// (the listener's accept loop and friends) is never drained by request
// handling, which is what keeps the drain from deadlocking on tasks with no
// natural completion.
package tasks

import (
	"context"
	"sync"
)

// Scope classifies a tracked task.
type Scope int

const (
	// ScopeRequest marks work that must complete before the current request's
	// response is sent.
	ScopeRequest Scope = iota

	// ScopeServer marks work that lives as long as the server and is never
	// waited on by request handling.
	ScopeServer
)

// Registry tracks spawned tasks by scope.
type Registry struct {
	mu      sync.Mutex
	request int
	server  int
	waiters []chan struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Go runs fn on a new goroutine tracked under the given scope.
func (r *Registry) Go(scope Scope, fn func()) {
	done := r.Track(scope)
	go func() {
		defer done()
		fn()
	}()
}

// Track registers one unit of work under the given scope and returns the
// function that marks it complete. The returned function is idempotent.
func (r *Registry) Track(scope Scope) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if scope == ScopeServer {
		r.server++
	} else {
		r.request++
	}

	var once sync.Once
	return func() {
		once.Do(func() { r.complete(scope) })
	}
}

func (r *Registry) complete(scope Scope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if scope == ScopeServer {
		r.server--
		return
	}
	r.request--
	if r.request == 0 {
		for _, w := range r.waiters {
			close(w)
		}
		r.waiters = nil
	}
}

// Pending returns the number of incomplete tasks in a scope.
func (r *Registry) Pending(scope Scope) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if scope == ScopeServer {
		return r.server
	}
	return r.request
}

// Drain blocks until every request-scoped task has completed or ctx is done.
// Server-scoped tasks are deliberately not waited on.
func (r *Registry) Drain(ctx context.Context) error {
	for {
		r.mu.Lock()
		if r.request == 0 {
			r.mu.Unlock()
			return nil
		}
		w := make(chan struct{})
		r.waiters = append(r.waiters, w)
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w:
			// Re-check: a task registered after the wake-up keeps us waiting.
		}
	}
}
