// Package fscopy copies directory trees on behalf of the front end.
package fscopy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cp "github.com/otiai10/copy"
)

// ErrOutsideHome is returned when the home guard rejects a path.
var ErrOutsideHome = errors.New("path must be in home dir")

// CopyError reports a failed copy. Files copied before the failure are left
// in place.
type CopyError struct {
	Source string
	Dest   string
	Err    error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("Failed copying %s to %s. %v", e.Source, e.Dest, e.Err)
}

func (e *CopyError) Unwrap() error { return e.Err }

// Copier copies directories, optionally restricted to the user's home.
type Copier struct {
	// home is the directory both paths must live under. Empty disables the guard.
	home string
}

// NewCopier returns a Copier. When restrictToHome is set, both source and
// destination must resolve inside the current user's home directory.
func NewCopier(restrictToHome bool) (*Copier, error) {
	if !restrictToHome {
		return &Copier{}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine home directory: %w", err)
	}
	return &Copier{home: home}, nil
}

// NewCopierWithin returns a Copier that only accepts paths under root.
func NewCopierWithin(root string) *Copier {
	return &Copier{home: filepath.Clean(root)}
}

// CopyDir makes dest mirror the contents of source, overwriting files that
// already exist and merging into existing directories.
func (c *Copier) CopyDir(source, dest string) error {
	if c.home != "" {
		if err := c.checkInside(source); err != nil {
			return &CopyError{Source: source, Dest: dest, Err: err}
		}
		if err := c.checkInside(dest); err != nil {
			return &CopyError{Source: source, Dest: dest, Err: err}
		}
	}

	// An existing destination is fine
	if err := os.MkdirAll(dest, 0755); err != nil && !errors.Is(err, os.ErrExist) {
		return &CopyError{Source: source, Dest: dest, Err: err}
	}

	err := cp.Copy(source, dest, cp.Options{
		OnDirExists: func(_, _ string) cp.DirExistsAction {
			return cp.Merge
		},
	})
	if err != nil {
		return &CopyError{Source: source, Dest: dest, Err: err}
	}
	return nil
}

// checkInside reports ErrOutsideHome unless path is under the guard root.
func (c *Copier) checkInside(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(c.home, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrOutsideHome, path)
	}
	return nil
}
