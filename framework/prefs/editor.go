package prefs

import (
	"reflect"

	"go.uber.org/zap"
)

type change struct {
	key    string
	value  any
	remove bool
}

// Editor batches modifications to a Store. Nothing is visible until Commit
// or Apply; a Clear always runs before the batch's puts and removes.
type Editor struct {
	s       *Store
	changes []change
	clear   bool
}

// Edit starts a batch.
func (s *Store) Edit() *Editor {
	return &Editor{s: s}
}

func (e *Editor) put(key string, v any) *Editor {
	e.changes = append(e.changes, change{key: key, value: v})
	return e
}

func (e *Editor) PutString(key, v string) *Editor        { return e.put(key, v) }
func (e *Editor) PutBool(key string, v bool) *Editor     { return e.put(key, v) }
func (e *Editor) PutInt(key string, v int) *Editor       { return e.put(key, v) }
func (e *Editor) PutFloat(key string, v float64) *Editor { return e.put(key, v) }

// Remove deletes key.
func (e *Editor) Remove(key string) *Editor {
	e.changes = append(e.changes, change{key: key, remove: true})
	return e
}

// Clear deletes every key.
func (e *Editor) Clear() *Editor {
	e.clear = true
	return e
}

// Commit applies the batch and writes it to disk before returning.
func (e *Editor) Commit() error {
	keys := e.commitToMemory()
	err := e.s.write()
	e.s.notify(keys)
	return err
}

// Apply applies the batch in memory immediately and writes it to disk in the
// background. Write failures are logged; Store.Flush waits for them.
func (e *Editor) Apply() {
	keys := e.commitToMemory()
	s := e.s
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.write(); err != nil {
			s.log.Error("prefs apply failed", zap.Error(err))
		}
	}()
	s.notify(keys)
}

// commitToMemory returns the keys whose value actually changed.
func (e *Editor) commitToMemory() []string {
	s := e.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []string
	seen := make(map[string]bool)
	mark := func(k string) {
		if !seen[k] {
			seen[k] = true
			changed = append(changed, k)
		}
	}

	if e.clear {
		for k := range s.values {
			mark(k)
		}
		s.values = make(map[string]any)
	}
	for _, c := range e.changes {
		old, had := s.values[c.key]
		if c.remove {
			if had {
				delete(s.values, c.key)
				mark(c.key)
			}
			continue
		}
		if had && reflect.DeepEqual(old, c.value) {
			continue
		}
		s.values[c.key] = c.value
		mark(c.key)
	}
	e.changes = nil
	e.clear = false
	return changed
}
