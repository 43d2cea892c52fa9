package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrInvalidName is returned for store names that would escape the data dir.
var ErrInvalidName = errors.New("invalid store name")

// Registry hands out one Store per file name inside a data directory.
type Registry struct {
	dir string

	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry creates a registry rooted at dir.
func NewRegistry(dir string) *Registry {
	return &Registry{
		dir:    dir,
		stores: make(map[string]*Store),
	}
}

// Dir returns the data directory.
func (r *Registry) Dir() string {
	return r.dir
}

// Get returns the store for name, creating it on first use.
func (r *Registry) Get(name string) (*Store, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[name]; ok {
		return s, nil
	}
	s := Open(filepath.Join(r.dir, name))
	r.stores[name] = s
	return s, nil
}

// SaveAll flushes every store opened through the registry. All stores are
// attempted; the errors are joined.
func (r *Registry) SaveAll() error {
	r.mu.Lock()
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	stores := make([]*Store, 0, len(names))
	sort.Strings(names)
	for _, name := range names {
		stores = append(stores, r.stores[name])
	}
	r.mu.Unlock()

	var errs []error
	for _, s := range stores {
		if err := s.Save(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func validateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case strings.Contains(name, ".."):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
