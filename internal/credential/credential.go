// Package credential stores and retrieves code-host passwords in the OS
// secret store (macOS Keychain, Windows Credential Manager, Secret Service).
package credential

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// DefaultService is the keyring service every entry is filed under.
const DefaultService = "mega-manipipulator"

// ErrNotFound is returned (wrapped) when no entry exists for a username.
var ErrNotFound = keyring.ErrNotFound

// Keyring is the minimal secret store surface the bridge needs.
type Keyring interface {
	Set(service, user, password string) error
	Get(service, user string) (string, error)
	Delete(service, user string) error
}

// osKeyring delegates to go-keyring's platform provider.
type osKeyring struct{}

func (osKeyring) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}

func (osKeyring) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}

func (osKeyring) Delete(service, user string) error {
	return keyring.Delete(service, user)
}

// OSKeyring returns the platform secret store.
func OSKeyring() Keyring {
	return osKeyring{}
}

// StoreError is returned when a write or delete is rejected by the secret store.
type StoreError struct {
	Op       string
	Username string
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("Failed %s password. %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// LookupError is returned when a password cannot be read, either because no
// entry exists or because the secret store is unavailable.
type LookupError struct {
	Username string
	Err      error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("Failed getting password. %v", e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Bridge forwards credential requests to a Keyring under one service name.
type Bridge struct {
	service string
	ring    Keyring
}

// NewBridge creates a bridge for service. An empty service falls back to
// DefaultService and a nil ring to the OS secret store.
func NewBridge(service string, ring Keyring) *Bridge {
	if service == "" {
		service = DefaultService
	}
	if ring == nil {
		ring = OSKeyring()
	}
	return &Bridge{service: service, ring: ring}
}

// Service returns the keyring service name entries are stored under.
func (b *Bridge) Service() string {
	return b.service
}

// StorePassword writes password for username, replacing any existing entry.
func (b *Bridge) StorePassword(username, password string) error {
	if err := b.ring.Set(b.service, username, password); err != nil {
		return &StoreError{Op: "setting", Username: username, Err: err}
	}
	return nil
}

// GetPassword reads the password stored for username.
func (b *Bridge) GetPassword(username string) (string, error) {
	password, err := b.ring.Get(b.service, username)
	if err != nil {
		return "", &LookupError{Username: username, Err: err}
	}
	return password, nil
}

// DeletePassword removes the entry for username. Deleting an entry that does
// not exist succeeds.
func (b *Bridge) DeletePassword(username string) error {
	err := b.ring.Delete(b.service, username)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return &StoreError{Op: "deleting", Username: username, Err: err}
	}
	return nil
}

// Account joins a code-host username and base URL into the single identifier
// used as the keyring user, e.g. "jensim@https://api.github.com".
func Account(username, baseURL string) string {
	return username + "@" + baseURL
}
