package provider

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/graftlabs/graft/pkg/telemetry"
)

// SchemaFile serves a schema document from disk, reloading it when the file
// changes. It exists for the development loop: regenerate the schema and the
// running provider picks it up without a restart.
type SchemaFile struct {
	path    string
	watcher *fsnotify.Watcher
	log     *telemetry.Logger

	mu     sync.RWMutex
	schema string
}

// WatchSchemaFile loads the schema file and starts watching it for changes.
func WatchSchemaFile(path string, log *telemetry.Logger) (*SchemaFile, error) {
	if log == nil {
		log = telemetry.NopLogger()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating schema watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching schema file: %w", err)
	}

	f := &SchemaFile{
		path:    path,
		watcher: watcher,
		log:     log,
		schema:  string(data),
	}
	go f.watch()
	return f, nil
}

func (f *SchemaFile) watch() {
	for {
		select {
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			f.reload()
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.log.Warn().Err(err).Str("path", f.path).Msg("schema watcher error")
		}
	}
}

func (f *SchemaFile) reload() {
	data, err := os.ReadFile(f.path)
	if err != nil {
		// Editors often replace files non-atomically; keep the last good copy.
		f.log.Warn().Err(err).Str("path", f.path).Msg("schema reload failed")
		return
	}
	f.mu.Lock()
	f.schema = string(data)
	f.mu.Unlock()
	f.log.Debug().Str("path", f.path).Msg("schema reloaded")
}

// Schema returns the most recently loaded schema document.
func (f *SchemaFile) Schema() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.schema
}

// Close stops watching the file.
func (f *SchemaFile) Close() error {
	return f.watcher.Close()
}
