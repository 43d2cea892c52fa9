package applog

import (
	"context"
	"log/slog"

	"github.com/wailsapp/wails/v2/pkg/logger"
)

var _ logger.Logger = (*wailsLogger)(nil)

// wailsLogger routes the framework's own log lines into the same sinks,
// tagged source=wails.
type wailsLogger struct {
	l *Logger
}

// Wails returns an adapter for options.App.Logger.
func (l *Logger) Wails() logger.Logger {
	return &wailsLogger{l: l}
}

func (w *wailsLogger) log(level slog.Level, message string, args ...any) {
	w.l.Log(context.Background(), level, message, append([]any{"source", "wails"}, args...)...)
}

func (w *wailsLogger) Print(message string)   { w.log(slog.LevelInfo, message) }
func (w *wailsLogger) Trace(message string)   { w.log(LevelTrace, message) }
func (w *wailsLogger) Debug(message string)   { w.log(slog.LevelDebug, message) }
func (w *wailsLogger) Info(message string)    { w.log(slog.LevelInfo, message) }
func (w *wailsLogger) Warning(message string) { w.log(slog.LevelWarn, message) }
func (w *wailsLogger) Error(message string)   { w.log(slog.LevelError, message) }

// Fatal logs, closes the log file and exits with status 1.
func (w *wailsLogger) Fatal(message string) {
	w.log(slog.LevelError, message, "fatal", true)
	_ = w.l.Close()
	w.l.exit(1)
}
