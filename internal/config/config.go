// Package config loads the desktop application's config.toml.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/natefinch/atomic"
)

const (
	// DirName is the per-user configuration directory under $HOME.
	DirName = ".mega-manipulator"
	// FileName is the TOML config file inside DirName.
	FileName = "config.toml"

	DefaultService        = "mega-manipipulator"
	DefaultSettingsFile   = ".settings.dat"
	DefaultLogLevel       = "info"
	DefaultMaxFileMB      = 10
	MinMaxFileMB          = 1
	DefaultWindowWidth    = 1024
	DefaultWindowHeight   = 768
	minWindowDimension    = 400
	maxWindowDimension    = 8192
	defaultLogSubdir      = "logs"
	defaultConfigTemplate = "# Mega Manipulator desktop configuration\n\n"
)

// Config is the full config.toml.
type Config struct {
	Credentials CredentialSettings `toml:"credentials"`
	Copy        CopySettings       `toml:"copy"`
	Logging     LogSettings        `toml:"logging"`
	Store       StoreSettings      `toml:"store"`
	Window      WindowSettings     `toml:"window"`
}

// CredentialSettings controls the OS secret store bridge.
type CredentialSettings struct {
	// Service is the keyring service name entries are filed under
	Service string `toml:"service"`
}

// CopySettings controls directory copies requested by the front end.
type CopySettings struct {
	// RestrictToHome rejects sources and destinations outside $HOME
	RestrictToHome bool `toml:"restrict_to_home"`
}

// LogSettings controls the log sinks.
type LogSettings struct {
	// Level is one of "trace", "debug", "info", "warn", "error"
	Level string `toml:"level"`
	// Dir holds mega-manipulator.log and its rotated siblings
	Dir string `toml:"dir"`
	// Stdout enables logging to the terminal
	Stdout *bool `toml:"stdout"`
	// Webview enables forwarding log records to the front end
	Webview *bool `toml:"webview"`
	// MaxFileMB rotates the active log file once it reaches this many megabytes
	MaxFileMB int `toml:"max_file_mb"`
}

// StoreSettings controls the persisted key/value stores.
type StoreSettings struct {
	// Dir holds the store files
	Dir string `toml:"dir"`
	// SettingsFile is the store the front end keeps its settings in
	SettingsFile string `toml:"settings_file"`
}

// WindowSettings controls the initial window size.
type WindowSettings struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// StdoutEnabled reports whether the stdout sink is on (default true).
func (l LogSettings) StdoutEnabled() bool {
	return l.Stdout == nil || *l.Stdout
}

// WebviewEnabled reports whether the webview sink is on (default true).
func (l LogSettings) WebviewEnabled() bool {
	return l.Webview == nil || *l.Webview
}

// DefaultDir returns ~/.mega-manipulator.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// DefaultPath returns ~/.mega-manipulator/config.toml.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Defaults returns the configuration used when no file exists. dir is the
// configuration directory that relative defaults hang off.
func Defaults(dir string) *Config {
	return &Config{
		Credentials: CredentialSettings{Service: DefaultService},
		Logging: LogSettings{
			Level:     DefaultLogLevel,
			Dir:       filepath.Join(dir, defaultLogSubdir),
			MaxFileMB: DefaultMaxFileMB,
		},
		Store: StoreSettings{
			Dir:          dir,
			SettingsFile: DefaultSettingsFile,
		},
		Window: WindowSettings{
			Width:  DefaultWindowWidth,
			Height: DefaultWindowHeight,
		},
	}
}

// Load reads path. A missing file yields defaults with a nil error. A file
// that cannot be parsed yields defaults together with the parse error, so the
// caller can log it and keep running.
func Load(path string) (*Config, error) {
	dir := filepath.Dir(path)
	defaults := Defaults(dir)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Defaults(dir)
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return defaults, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.normalize(dir)
	return cfg, nil
}

// normalize replaces empty values with defaults, clamps ranges and expands ~.
func (c *Config) normalize(dir string) {
	d := Defaults(dir)

	c.Credentials.Service = strings.TrimSpace(c.Credentials.Service)
	if c.Credentials.Service == "" {
		c.Credentials.Service = d.Credentials.Service
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error":
		// Valid
	default:
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = d.Logging.Dir
	}
	c.Logging.Dir = expandHome(c.Logging.Dir)
	if c.Logging.MaxFileMB == 0 {
		c.Logging.MaxFileMB = d.Logging.MaxFileMB
	} else if c.Logging.MaxFileMB < MinMaxFileMB {
		c.Logging.MaxFileMB = MinMaxFileMB
	}

	if c.Store.Dir == "" {
		c.Store.Dir = d.Store.Dir
	}
	c.Store.Dir = expandHome(c.Store.Dir)
	if c.Store.SettingsFile == "" {
		c.Store.SettingsFile = d.Store.SettingsFile
	}

	c.Window.Width = clampDimension(c.Window.Width, d.Window.Width)
	c.Window.Height = clampDimension(c.Window.Height, d.Window.Height)
}

func clampDimension(v, def int) int {
	switch {
	case v == 0:
		return def
	case v < minWindowDimension:
		return minWindowDimension
	case v > maxWindowDimension:
		return maxWindowDimension
	}
	return v
}

// LoadOrCreate is Load, except that a missing file is first written out with
// the defaults so the user has a file to edit. If that write fails the
// defaults are returned together with the error, as for a parse error.
func LoadOrCreate(path string) (*Config, error) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		defaults := Defaults(filepath.Dir(path))
		if err := Save(path, defaults); err != nil {
			return defaults, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}
	return Load(path)
}

// Save writes cfg to path, creating the directory if needed. The file is
// replaced atomically, so a failed write leaves the previous config intact.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(defaultConfigTemplate)
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
