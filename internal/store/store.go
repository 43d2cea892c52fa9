// Package store persists front-end key/value data as JSON documents in the
// application data directory.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/natefinch/atomic"
)

// Store is one JSON document on disk. Values are kept as raw JSON so a value
// reads back exactly as it was written.
type Store struct {
	path string

	mu     sync.RWMutex
	loaded bool
	data   map[string]json.RawMessage
}

// Open returns a store backed by path. The file is read on first access.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// ensureLoaded must be called with s.mu held for writing.
func (s *Store) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	return s.loadLocked()
}

func (s *Store) loadLocked() error {
	data := make(map[string]json.RawMessage)

	raw, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read store %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("failed to parse store %s: %w", s.path, err)
		}
	}

	s.data = data
	s.loaded = true
	return nil
}

// writeLocked persists data. It does not touch s.data, so a failed write
// leaves the in-memory document as it was.
func (s *Store) writeLocked(data map[string]json.RawMessage) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	if data == nil {
		data = map[string]json.RawMessage{}
	}
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(encoded)); err != nil {
		return fmt.Errorf("failed to write store %s: %w", s.path, err)
	}
	return nil
}

// commitLocked writes next and makes it the current document only once the
// write has succeeded.
func (s *Store) commitLocked(next map[string]json.RawMessage) error {
	if err := s.writeLocked(next); err != nil {
		return err
	}
	s.data = next
	s.loaded = true
	return nil
}

// cloneLocked copies the current document for a pending mutation.
func (s *Store) cloneLocked() map[string]json.RawMessage {
	next := make(map[string]json.RawMessage, len(s.data)+1)
	for k, v := range s.data {
		next[k] = v
	}
	return next
}

// withRead runs fn under the read lock once the document is loaded.
func (s *Store) withRead(fn func() error) error {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return fn()
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	return fn()
}

// Get returns the value stored under key decoded into a generic JSON value.
func (s *Store) Get(key string) (any, bool, error) {
	var (
		value any
		found bool
	)
	err := s.withRead(func() error {
		raw, ok := s.data[key]
		if !ok {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &value)
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

// Set stores value under key and persists the document.
func (s *Store) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value for %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	next := s.cloneLocked()
	next[key] = raw
	return s.commitLocked(next)
}

// Has reports whether key is present.
func (s *Store) Has(key string) (bool, error) {
	var ok bool
	err := s.withRead(func() error {
		_, ok = s.data[key]
		return nil
	})
	return ok, err
}

// Delete removes key and reports whether it was present.
func (s *Store) Delete(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(); err != nil {
		return false, err
	}
	if _, ok := s.data[key]; !ok {
		return false, nil
	}
	next := s.cloneLocked()
	delete(next, key)
	if err := s.commitLocked(next); err != nil {
		return false, err
	}
	return true, nil
}

// Clear removes every key.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(make(map[string]json.RawMessage))
}

// Keys returns all keys in sorted order.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.withRead(func() error {
		keys = make([]string, 0, len(s.data))
		for k := range s.data {
			keys = append(keys, k)
		}
		return nil
	})
	sort.Strings(keys)
	return keys, err
}

// Entries returns a decoded copy of the whole document.
func (s *Store) Entries() (map[string]any, error) {
	out := make(map[string]any)
	err := s.withRead(func() error {
		for k, raw := range s.data {
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("failed to decode %q: %w", k, err)
			}
			out[k] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Length returns the number of keys.
func (s *Store) Length() (int, error) {
	var n int
	err := s.withRead(func() error {
		n = len(s.data)
		return nil
	})
	return n, err
}

// Load discards in-memory state and re-reads the file.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	return s.loadLocked()
}

// Save writes the current document to disk. A store that was never loaded
// has nothing to write.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil
	}
	return s.writeLocked(s.data)
}
