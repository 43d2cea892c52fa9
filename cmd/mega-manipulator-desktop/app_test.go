package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/jensim/mega-manipulator/internal/applog"
	"github.com/jensim/mega-manipulator/internal/config"
	"github.com/jensim/mega-manipulator/internal/credential"
	"github.com/jensim/mega-manipulator/internal/fscopy"
)

// newTestApp builds an App over a temp data dir and go-keyring's in-memory
// provider. No Wails runtime is started.
func newTestApp(t *testing.T) *App {
	t.Helper()
	keyring.MockInit()

	dir := t.TempDir()
	cfg := config.Defaults(dir)

	log, err := applog.New(applog.Options{Level: slog.LevelDebug, Dir: filepath.Join(dir, "logs")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })

	app, err := NewApp(cfg, log)
	require.NoError(t, err)
	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	assert.NotNil(t, app)
	assert.NotEmpty(t, app.GetVersion())
	assert.Contains(t, []string{"dark", "light"}, app.GetSystemTheme())
	assert.Equal(t, config.DefaultService, app.credentials.Service())
}

func TestStoreAndGetPassword(t *testing.T) {
	app := newTestApp(t)
	user := credential.Account("jensim", "https://api.github.com")

	require.NoError(t, app.StorePassword(user, "hunter2"))

	got, err := app.GetPassword(user)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)
}

func TestGetPasswordUnknownUser(t *testing.T) {
	app := newTestApp(t)

	_, err := app.GetPassword("never-stored")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed getting password.")

	var lookupErr *credential.LookupError
	assert.True(t, errors.As(err, &lookupErr))
}

func TestStorePasswordUnavailableStore(t *testing.T) {
	app := newTestApp(t)
	keyring.MockInitWithError(errors.New("no secret service"))
	t.Cleanup(keyring.MockInit)

	err := app.StorePassword("alice", "pw")
	require.Error(t, err)
	assert.Equal(t, "Failed setting password. no secret service", err.Error())
}

func TestDeletePassword(t *testing.T) {
	app := newTestApp(t)

	require.NoError(t, app.StorePassword("alice", "pw"))
	require.NoError(t, app.DeletePassword("alice"))

	_, err := app.GetPassword("alice")
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestPasswordNeverLogged(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.StorePassword("alice", "super-secret-value"))
	_, _ = app.GetPassword("alice")
	require.NoError(t, app.log.Close())

	data, err := os.ReadFile(filepath.Join(app.stores.Dir(), "logs", applog.FileName+".log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "store_password")
	assert.NotContains(t, string(data), "super-secret-value")
}

func TestCopyDir(t *testing.T) {
	app := newTestApp(t)
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	dest := filepath.Join(tmp, "dest")
	require.NoError(t, os.MkdirAll(src, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "A"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "B"), []byte("b"), 0644))

	require.NoError(t, app.CopyDir(src, dest))
	require.NoError(t, app.CopyDir(src, dest))

	a, err := os.ReadFile(filepath.Join(dest, "A"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(a))
	b, err := os.ReadFile(filepath.Join(dest, "B"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(b))
}

func TestCopyDirMissingSource(t *testing.T) {
	app := newTestApp(t)
	tmp := t.TempDir()

	err := app.CopyDir(filepath.Join(tmp, "missing"), filepath.Join(tmp, "dest"))
	var copyErr *fscopy.CopyError
	assert.True(t, errors.As(err, &copyErr))
}

func TestCopyDirRestrictedToRoot(t *testing.T) {
	app := newTestApp(t)
	root := t.TempDir()
	app.copier = fscopy.NewCopierWithin(root)

	err := app.CopyDir(t.TempDir(), filepath.Join(root, "dest"))
	assert.ErrorIs(t, err, fscopy.ErrOutsideHome)
}

func TestIncrementCounterSequential(t *testing.T) {
	app := newTestApp(t)
	for want := uint32(1); want <= 10; want++ {
		assert.Equal(t, want, app.IncrementCounter())
	}
}

func TestIncrementCounterConcurrent(t *testing.T) {
	app := newTestApp(t)

	const calls = 500
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.IncrementCounter()
		}()
	}
	wg.Wait()

	assert.Equal(t, uint32(calls), app.counter.Value())
	assert.Equal(t, uint32(calls+1), app.IncrementCounter())
}

func TestSettingsStore(t *testing.T) {
	app := newTestApp(t)

	v, err := app.StoreGet("", "settings")
	require.NoError(t, err)
	assert.Nil(t, v)

	settings := map[string]interface{}{
		"version":            "1",
		"theme":              "dark",
		"keepLocalReposPath": "~/vcs",
		"clonePath":          "~/vcs/mega-manipulator-workdir",
	}
	require.NoError(t, app.StoreSet("", "settings", settings))

	has, err := app.StoreHas("", "settings")
	require.NoError(t, err)
	assert.True(t, has)

	got, err := app.StoreGet("", "settings")
	require.NoError(t, err)
	assert.Equal(t, settings, got)

	_, err = os.Stat(filepath.Join(app.stores.Dir(), config.DefaultSettingsFile))
	assert.NoError(t, err, "settings store should be on disk")
}

func TestNamedStores(t *testing.T) {
	app := newTestApp(t)

	require.NoError(t, app.StoreSet("work.dat", "b", 2))
	require.NoError(t, app.StoreSet("work.dat", "a", 1))

	keys, err := app.StoreKeys("work.dat")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	n, err := app.StoreLength("work.dat")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = app.StoreLength("")
	require.NoError(t, err)
	assert.Equal(t, 0, n, "settings store is separate")

	removed, err := app.StoreDelete("work.dat", "a")
	require.NoError(t, err)
	assert.True(t, removed)

	entries, err := app.StoreEntries("work.dat")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"b": float64(2)}, entries)

	require.NoError(t, app.StoreSave("work.dat"))
	require.NoError(t, app.StoreLoad("work.dat"))
	require.NoError(t, app.StoreClear("work.dat"))

	n, err = app.StoreLength("work.dat")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStoreRejectsPathTraversal(t *testing.T) {
	app := newTestApp(t)
	err := app.StoreSet("../outside.dat", "k", "v")
	assert.Error(t, err)
}

func TestLogFromFrontend(t *testing.T) {
	app := newTestApp(t)
	app.Log("error", "Failed action: clone")
	require.NoError(t, app.log.Close())

	data, err := os.ReadFile(filepath.Join(app.stores.Dir(), "logs", applog.FileName+".log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Failed action: clone")
	assert.Contains(t, string(data), `"source":"webview"`)
}

func TestSetLogLevel(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, "WARN", app.SetLogLevel("warn"))
	app.Log("info", "dropped while at warn")
	assert.Equal(t, "DEBUG", app.SetLogLevel("debug"))
	app.Log("debug", "kept at debug")
	require.NoError(t, app.log.Close())

	data, err := os.ReadFile(filepath.Join(app.stores.Dir(), "logs", applog.FileName+".log"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped while at warn")
	assert.Contains(t, string(data), "kept at debug")
}

func TestSetLogLevelUnknownIsInfo(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, "INFO", app.SetLogLevel("loud"))
}

func TestShutdownFlushesAndClosesLog(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.StoreSet("", "k", "v"))
	app.IncrementCounter()

	app.shutdown(context.Background())

	data, err := os.ReadFile(filepath.Join(app.stores.Dir(), "logs", applog.FileName+".log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "application stopped")
	assert.Contains(t, string(data), `"counter":1`)
}
