// Package prefs is a small persistent key-value store for user preferences,
// kept as one YAML file per named store.
package prefs

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-tivi/framework/disposable"
)

// Store is a named preference file. Reads are served from memory; writes go
// through an Editor.
type Store struct {
	name string
	path string
	log  *zap.Logger

	mu        sync.RWMutex
	values    map[string]any
	listeners map[int]func(key string)
	nextID    int

	writeMu sync.Mutex
	pending sync.WaitGroup
}

// Open loads <dir>/<name>.yaml. A missing file yields an empty store.
func Open(dir, name string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		name:      name,
		path:      filepath.Join(dir, name+".yaml"),
		log:       log.With(zap.String("prefs", name)),
		values:    make(map[string]any),
		listeners: make(map[int]func(string)),
	}

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, errors.Wrapf(err, "prefs: read %s", s.path)
	}
	if err := yaml.Unmarshal(data, &s.values); err != nil {
		return nil, errors.Wrapf(err, "prefs: decode %s", s.path)
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}
	return s, nil
}

// Default opens the package-wide default store, <packageName>_preferences.
func Default(dataDir, packageName string, log *zap.Logger) (*Store, error) {
	return Open(dataDir, packageName+"_preferences", log)
}

// Name returns the store name.
func (s *Store) Name() string { return s.name }

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *Store) get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// String returns the string at key, or def when absent or of another type.
func (s *Store) String(key, def string) string {
	if v, ok := s.get(key); ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return def
}

// Bool returns the bool at key, or def.
func (s *Store) Bool(key string, def bool) bool {
	if v, ok := s.get(key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int at key, or def.
func (s *Store) Int(key string, def int) int {
	if v, ok := s.get(key); ok {
		if i, ok := v.(int); ok {
			return i
		}
	}
	return def
}

// Float returns the float at key, or def. Integral values are widened.
func (s *Store) Float(key string, def float64) float64 {
	if v, ok := s.get(key); ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

// Contains reports whether key is set.
func (s *Store) Contains(key string) bool {
	_, ok := s.get(key)
	return ok
}

// All returns a copy of every entry.
func (s *Store) All() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// ── Listeners ────────────────────────────────────────────────────────────────

// OnChange registers fn to be called with each key an edit changes.
// Disposing the result unregisters fn.
func (s *Store) OnChange(fn func(key string)) disposable.Disposable {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return disposable.FromFunc(func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	})
}

func (s *Store) notify(keys []string) {
	if len(keys) == 0 {
		return
	}
	s.mu.RLock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(string), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.mu.RUnlock()

	for _, key := range keys {
		for _, fn := range fns {
			fn(key)
		}
	}
}

// ── Persistence ──────────────────────────────────────────────────────────────

// write persists the latest in-memory state, so concurrent writers can never
// leave an older snapshot on disk.
func (s *Store) write() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data, err := yaml.Marshal(s.All())
	if err != nil {
		return errors.Wrap(err, "prefs: encode")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrapf(err, "prefs: create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "prefs: temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "prefs: write")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "prefs: sync")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "prefs: close")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrapf(err, "prefs: replace %s", s.path)
	}
	return nil
}

// Flush waits for every pending Apply to reach disk.
func (s *Store) Flush() {
	s.pending.Wait()
}
