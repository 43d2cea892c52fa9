// Package applog builds the application logger: structured records fanned out
// to a log directory, stdout and the webview.
package applog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelTrace sits below slog.LevelDebug for the framework's trace output.
const LevelTrace = slog.LevelDebug - 4

// FileName is the base name of the active log file in the log directory.
const FileName = "mega-manipulator"

// DefaultMaxFileMB is the rotation threshold used when Options leaves it unset.
const DefaultMaxFileMB = 10

// Options selects the sinks a Logger writes to.
type Options struct {
	Level slog.Level

	// Dir enables the log directory sink when non-empty.
	Dir string
	// MaxFileMB is the size in megabytes at which the active file is rotated.
	// Rotated files are never deleted.
	MaxFileMB int

	// Stdout enables the text sink when non-nil.
	Stdout io.Writer

	// Webview enables the front-end sink.
	Webview bool
	// Emit overrides the Wails event emitter, mainly for tests.
	Emit Emitter

	// RunID tags every record. A random one is generated when empty.
	RunID string

	// exit replaces os.Exit for Fatal.
	exit func(code int)
}

// Logger is the application slog.Logger plus control over its sinks.
type Logger struct {
	*slog.Logger

	level   *slog.LevelVar
	file    *lumberjack.Logger
	webview *webviewSink
	runID   string
	exit    func(code int)
}

// New builds a Logger. With no sinks enabled the logger discards everything.
func New(opts Options) (*Logger, error) {
	level := new(slog.LevelVar)
	level.Set(opts.Level)

	l := &Logger{
		level: level,
		runID: opts.RunID,
		exit:  opts.exit,
	}
	if l.runID == "" {
		l.runID = uuid.NewString()
	}
	if l.exit == nil {
		l.exit = os.Exit
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevel,
	}

	var handlers []slog.Handler
	if opts.Dir != "" {
		file, err := openFile(opts.Dir, opts.MaxFileMB)
		if err != nil {
			return nil, err
		}
		l.file = file
		handlers = append(handlers, slog.NewJSONHandler(file, handlerOpts))
	}
	if opts.Stdout != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.Stdout, handlerOpts))
	}
	if opts.Webview {
		l.webview = newWebviewSink(opts.Emit)
		handlers = append(handlers, &webviewHandler{sink: l.webview, level: level})
	}

	l.Logger = slog.New(slogmulti.Fanout(handlers...)).With("run", l.runID)
	return l, nil
}

// openFile returns the rotating dir sink. MaxBackups and MaxAge stay zero so
// rotated files are kept.
func openFile(dir string, maxMB int) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if maxMB <= 0 {
		maxMB = DefaultMaxFileMB
	}
	return &lumberjack.Logger{
		Filename:  filepath.Join(dir, FileName+".log"),
		MaxSize:   maxMB,
		LocalTime: true,
	}, nil
}

// Attach connects the webview sink to the running Wails context.
func (l *Logger) Attach(ctx context.Context) {
	if l.webview != nil {
		l.webview.attach(ctx)
	}
}

// RunID returns the identifier attached to every record.
func (l *Logger) RunID() string {
	return l.runID
}

// SetLevel changes the minimum level for all sinks.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// FromWebview logs a message sent by the front end.
func (l *Logger) FromWebview(level, message string) {
	l.Log(context.Background(), ParseLevel(level), message, "source", "webview")
}

// ParseLevel maps a level name to a slog level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelName is the inverse of ParseLevel.
func LevelName(l slog.Level) string {
	switch {
	case l < slog.LevelDebug:
		return "TRACE"
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.LevelKey {
		if lvl, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(LevelName(lvl))
		}
	}
	return a
}
