package main

import (
	"embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/jensim/mega-manipulator/internal/applog"
	"github.com/jensim/mega-manipulator/internal/config"
	"github.com/jensim/mega-manipulator/internal/theme"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		os.Exit(1)
	}
}

func run() error {
	isDev := isDevBuild(Version, os.Getenv)

	configPath := os.Getenv("MEGA_MANIPULATOR_CONFIG")
	if configPath == "" {
		var err error
		if configPath, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	cfg, cfgErr := config.LoadOrCreate(configPath)
	if cfg == nil {
		return cfgErr
	}

	log, err := newLogger(cfg, isDev)
	if err != nil {
		return err
	}
	if cfgErr != nil {
		log.Warn("using default configuration", "path", configPath, "error", cfgErr)
	}

	app, err := NewApp(cfg, log)
	if err != nil {
		_ = log.Close()
		return err
	}

	r, g, b, a := theme.Background(app.theme)

	// Create application with options
	err = wails.Run(&options.App{
		Title:  "Mega Manipulator",
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Menu:             buildMenu(runtime.GOOS, app.quit),
		BackgroundColour: &options.RGBA{R: r, G: g, B: b, A: a},
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		Bind: []interface{}{
			app,
		},
		Logger:             log.Wails(),
		LogLevel:           wailsLevel(cfg.Logging.Level, isDev),
		LogLevelProduction: logger.ERROR,
		Debug: options.Debug{
			OpenInspectorOnStartup: isDev,
		},
	})
	if err != nil {
		log.Error("error while running application", "error", err)
		_ = log.Close()
		return err
	}
	return nil
}

// isDevBuild reports whether to run in development mode: under `wails dev`, or
// for a binary built without a release Version.
func isDevBuild(version string, getenv func(string) string) bool {
	return getenv("WAILS_DEV") != "" || version == devVersion
}

// newLogger builds the logger from the [logging] section. Dev mode lowers the
// level to debug unless the config asks for trace.
func newLogger(cfg *config.Config, isDev bool) (*applog.Logger, error) {
	level := applog.ParseLevel(cfg.Logging.Level)
	if isDev && level > slog.LevelDebug {
		level = slog.LevelDebug
	}

	var stdout io.Writer
	if cfg.Logging.StdoutEnabled() {
		stdout = os.Stdout
	}

	return applog.New(applog.Options{
		Level:     level,
		Dir:       cfg.Logging.Dir,
		MaxFileMB: cfg.Logging.MaxFileMB,
		Stdout:    stdout,
		Webview:   cfg.Logging.WebviewEnabled(),
	})
}

// wailsLevel maps the configured level onto the framework's own filter.
func wailsLevel(level string, isDev bool) logger.LogLevel {
	if isDev {
		return logger.DEBUG
	}
	switch applog.ParseLevel(level) {
	case applog.LevelTrace:
		return logger.TRACE
	case slog.LevelDebug:
		return logger.DEBUG
	case slog.LevelWarn:
		return logger.WARNING
	case slog.LevelError:
		return logger.ERROR
	default:
		return logger.INFO
	}
}
