package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jensim/mega-manipulator/internal/applog"
	"github.com/jensim/mega-manipulator/internal/config"
	"github.com/jensim/mega-manipulator/internal/counter"
	"github.com/jensim/mega-manipulator/internal/credential"
	"github.com/jensim/mega-manipulator/internal/fscopy"
	"github.com/jensim/mega-manipulator/internal/store"
	"github.com/jensim/mega-manipulator/internal/theme"
)

// devVersion is the Version of binaries built without release ldflags.
const devVersion = "0.1.0-dev"

// Version is set at build time with
//
//	-ldflags "-X main.Version=1.2.3"
//
// Release builds must set it: a binary still reporting devVersion runs in
// development mode, which opens the web inspector and logs at debug.
var Version = devVersion

// App struct holds the application state. Every exported method is bound to
// the front end.
type App struct {
	ctx          context.Context
	log          *applog.Logger
	credentials  *credential.Bridge
	copier       *fscopy.Copier
	counter      *counter.Counter
	stores       *store.Registry
	settingsFile string
	theme        string
}

// NewApp creates the App from configuration.
func NewApp(cfg *config.Config, log *applog.Logger) (*App, error) {
	copier, err := fscopy.NewCopier(cfg.Copy.RestrictToHome)
	if err != nil {
		return nil, err
	}
	return &App{
		log:          log,
		credentials:  credential.NewBridge(cfg.Credentials.Service, credential.OSKeyring()),
		copier:       copier,
		counter:      &counter.Counter{},
		stores:       store.NewRegistry(cfg.Store.Dir),
		settingsFile: cfg.Store.SettingsFile,
		theme:        theme.Detect(),
	}, nil
}

// startup is called when the app starts.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.log.Attach(ctx)
	a.log.Info("application started",
		"version", Version,
		"keyring_service", a.credentials.Service(),
		"store_dir", a.stores.Dir(),
	)
}

// shutdown is called when the app is closing.
func (a *App) shutdown(ctx context.Context) {
	if err := a.stores.SaveAll(); err != nil {
		a.log.Error("failed to flush stores", "error", err)
	}
	a.log.Info("application stopped", "counter", a.counter.Value())
	if err := a.log.Close(); err != nil {
		fmt.Println("Error closing log:", err.Error())
	}
}

// GetVersion returns the application version.
func (a *App) GetVersion() string {
	return Version
}

// GetSystemTheme returns "dark" or "light" as detected at startup.
func (a *App) GetSystemTheme() string {
	return a.theme
}

// ==================== Credential Methods ====================

// StorePassword saves a password for username in the OS secret store.
func (a *App) StorePassword(username, password string) error {
	a.log.Debug("store_password", "username", username)
	if err := a.credentials.StorePassword(username, password); err != nil {
		a.log.Error("store_password failed", "username", username, "error", err)
		return err
	}
	return nil
}

// GetPassword reads the password for username from the OS secret store.
func (a *App) GetPassword(username string) (string, error) {
	a.log.Debug("get_password", "username", username)
	password, err := a.credentials.GetPassword(username)
	if err != nil {
		a.log.Debug("get_password failed", "username", username, "error", err)
		return "", err
	}
	return password, nil
}

// DeletePassword removes the stored password for username.
func (a *App) DeletePassword(username string) error {
	a.log.Debug("delete_password", "username", username)
	if err := a.credentials.DeletePassword(username); err != nil {
		a.log.Error("delete_password failed", "username", username, "error", err)
		return err
	}
	return nil
}

// ==================== File Methods ====================

// CopyDir recursively copies source into dest, overwriting existing files.
func (a *App) CopyDir(source, dest string) error {
	a.log.Debug("copy_dir", "source", source, "dest", dest)
	if err := a.copier.CopyDir(source, dest); err != nil {
		a.log.Error("copy_dir failed", "source", source, "dest", dest, "error", err)
		return err
	}
	return nil
}

// ==================== Counter Methods ====================

// IncrementCounter bumps the process-wide counter and returns the new value.
func (a *App) IncrementCounter() uint32 {
	v := a.counter.Increment()
	a.log.Debug("increment_counter", "value", v)
	return v
}

// ==================== Logging Methods ====================

// Log writes a message from the front end to the application log.
// level is one of "trace", "debug", "info", "warn", "error".
func (a *App) Log(level, message string) {
	a.log.FromWebview(level, message)
}

// SetLogLevel changes the minimum level for every sink. Unknown names mean
// info. It returns the level now in effect.
func (a *App) SetLogLevel(level string) string {
	l := applog.ParseLevel(level)
	a.log.SetLevel(l)
	a.log.Info("log level changed", "level", applog.LevelName(l))
	return applog.LevelName(l)
}

// ==================== Store Methods ====================
//
// name selects the store file inside the data directory; an empty name is the
// settings store.

func (a *App) store(name string) (*store.Store, error) {
	if name == "" {
		name = a.settingsFile
	}
	s, err := a.stores.Get(name)
	if err != nil {
		a.log.Error("store open failed", "store", name, "error", err)
		return nil, err
	}
	return s, nil
}

// StoreGet returns the value for key, or nil if it is not set.
func (a *App) StoreGet(name, key string) (interface{}, error) {
	s, err := a.store(name)
	if err != nil {
		return nil, err
	}
	v, _, err := s.Get(key)
	if err != nil {
		a.logStoreError("get", s, err)
		return nil, err
	}
	return v, nil
}

// StoreSet saves value under key and persists the store.
func (a *App) StoreSet(name, key string, value interface{}) error {
	s, err := a.store(name)
	if err != nil {
		return err
	}
	if err := s.Set(key, value); err != nil {
		a.logStoreError("set", s, err)
		return err
	}
	return nil
}

// StoreHas reports whether key is set.
func (a *App) StoreHas(name, key string) (bool, error) {
	s, err := a.store(name)
	if err != nil {
		return false, err
	}
	return s.Has(key)
}

// StoreDelete removes key and reports whether it was set.
func (a *App) StoreDelete(name, key string) (bool, error) {
	s, err := a.store(name)
	if err != nil {
		return false, err
	}
	removed, err := s.Delete(key)
	if err != nil {
		a.logStoreError("delete", s, err)
	}
	return removed, err
}

// StoreClear removes every key.
func (a *App) StoreClear(name string) error {
	s, err := a.store(name)
	if err != nil {
		return err
	}
	if err := s.Clear(); err != nil {
		a.logStoreError("clear", s, err)
		return err
	}
	return nil
}

// StoreKeys returns all keys, sorted.
func (a *App) StoreKeys(name string) ([]string, error) {
	s, err := a.store(name)
	if err != nil {
		return nil, err
	}
	return s.Keys()
}

// StoreEntries returns the whole store.
func (a *App) StoreEntries(name string) (map[string]interface{}, error) {
	s, err := a.store(name)
	if err != nil {
		return nil, err
	}
	return s.Entries()
}

// StoreLength returns the number of keys.
func (a *App) StoreLength(name string) (int, error) {
	s, err := a.store(name)
	if err != nil {
		return 0, err
	}
	return s.Length()
}

// StoreLoad re-reads the store from disk.
func (a *App) StoreLoad(name string) error {
	s, err := a.store(name)
	if err != nil {
		return err
	}
	if err := s.Load(); err != nil {
		a.logStoreError("load", s, err)
		return err
	}
	return nil
}

// StoreSave writes the store to disk.
func (a *App) StoreSave(name string) error {
	s, err := a.store(name)
	if err != nil {
		return err
	}
	if err := s.Save(); err != nil {
		a.logStoreError("save", s, err)
		return err
	}
	return nil
}

func (a *App) logStoreError(op string, s *store.Store, err error) {
	a.log.LogAttrs(context.Background(), slog.LevelError, "store "+op+" failed",
		slog.String("path", s.Path()),
		slog.Any("error", err),
	)
}
