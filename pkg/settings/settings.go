// Package settings holds the per-process configuration the engine pushes at
// the start of every construct/call invocation: project, stack, parallelism,
// endpoints, dry-run flag, and the stack configuration key/value pairs with
// their secret-key subset.
//
// The store is written exactly once per invocation (a full overwrite, never a
// merge) and read-only afterwards within that invocation. Handlers receive an
// immutable Snapshot on their context so new code never has to touch the
// process-wide store; the store itself remains for compatibility with handler
// code written against the global contract.
package settings

import (
	"context"
	"sync"
)

// Options are the invocation-scoped engine options.
type Options struct {
	// Project is the engine project the component belongs to.
	Project string

	// Stack is the engine stack being deployed.
	Stack string

	// Parallel is the engine's requested degree of parallelism; zero means
	// unspecified.
	Parallel int

	// EngineEndpoint is the address of the engine the bridge was started for.
	EngineEndpoint string

	// MonitorEndpoint is the address of the engine's resource monitor.
	MonitorEndpoint string

	// DryRun is true during a preview pass.
	DryRun bool
}

// Store is the process-wide settings store.
type Store struct {
	mu         sync.RWMutex
	opts       Options
	config     map[string]string
	secretKeys map[string]struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		config:     make(map[string]string),
		secretKeys: make(map[string]struct{}),
	}
}

// Reset overwrites the options wholesale. Values absent from opts are cleared,
// not preserved.
func (s *Store) Reset(opts Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts = opts
}

// SetAllConfig overwrites the stack configuration wholesale, marking the
// given keys as secret.
func (s *Store) SetAllConfig(config map[string]string, secretKeys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = make(map[string]string, len(config))
	for k, v := range config {
		s.config[k] = v
	}
	s.secretKeys = make(map[string]struct{}, len(secretKeys))
	for _, k := range secretKeys {
		s.secretKeys[k] = struct{}{}
	}
}

// Options returns the current options.
func (s *Store) Options() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

// Config returns a configuration value and whether it was set.
func (s *Store) Config(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.config[key]
	return v, ok
}

// IsSecretKey reports whether a configuration key was marked secret by the
// engine.
func (s *Store) IsSecretKey(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.secretKeys[key]
	return ok
}

// Snapshot returns an immutable copy of the store's current contents.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	config := make(map[string]string, len(s.config))
	for k, v := range s.config {
		config[k] = v
	}
	secret := make(map[string]struct{}, len(s.secretKeys))
	for k := range s.secretKeys {
		secret[k] = struct{}{}
	}
	return Snapshot{opts: s.opts, config: config, secretKeys: secret}
}

// Snapshot is an immutable view of the settings at one point in time. It is
// what handlers should read instead of the process-wide store.
type Snapshot struct {
	opts       Options
	config     map[string]string
	secretKeys map[string]struct{}
}

// Options returns the invocation options.
func (s Snapshot) Options() Options { return s.opts }

// Config returns a configuration value and whether it was set.
func (s Snapshot) Config(key string) (string, bool) {
	v, ok := s.config[key]
	return v, ok
}

// IsSecretKey reports whether a configuration key was marked secret.
func (s Snapshot) IsSecretKey(key string) bool {
	_, ok := s.secretKeys[key]
	return ok
}

// ConfigKeys returns the set of configuration keys present.
func (s Snapshot) ConfigKeys() []string {
	keys := make([]string, 0, len(s.config))
	for k := range s.config {
		keys = append(keys, k)
	}
	return keys
}

type contextKey struct{}

// NewContext returns a context carrying the snapshot.
func NewContext(ctx context.Context, snap Snapshot) context.Context {
	return context.WithValue(ctx, contextKey{}, snap)
}

// FromContext returns the snapshot carried by the context, if any.
func FromContext(ctx context.Context) (Snapshot, bool) {
	snap, ok := ctx.Value(contextKey{}).(Snapshot)
	return snap, ok
}
