package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Handler names accepted in Options.Handler. Any other non-empty value is
// treated as the path of a log file.
const (
	HandlerStream = "stream"
	HandlerFile   = "file"
)

// Format names accepted in Options.Format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Logger defines the logging interface used throughout the application.
// It separates structured diagnostics (Debug, Info, Warning, Error) from
// messages meant for the person watching the terminal (InfoToUser,
// WarningToUser, Success, StatusMessage).
type Logger interface {
	// Debug logs a step-level trace message. Only emitted at the debug level.
	Debug(format string, args ...any)

	// Info logs an informational message to the structured log.
	Info(format string, args ...any)

	// Warning logs a warning message. It is echoed to the user in verbose mode.
	Warning(format string, args ...any)

	// Error logs an error message. It is always shown to the user.
	Error(format string, args ...any)

	// InfoToUser logs an informational message and prints it to stdout.
	InfoToUser(format string, args ...any)

	// WarningToUser logs a warning and prints it to stdout regardless of verbosity.
	WarningToUser(format string, args ...any)

	// Success logs a success message and prints it to stdout.
	Success(format string, args ...any)

	// StatusMessage prints a status line to stdout only.
	StatusMessage(format string, args ...any)

	// Close flushes and closes any open log file.
	Close() error
}

// Options configures a DefaultLogger.
type Options struct {
	// Level is one of debug, info, warn or error. Empty means info.
	Level string

	// Handler selects the structured log destination: "stream" for stderr,
	// "file" for File, or a file path.
	Handler string

	// Format is "text" or "json". Empty means text.
	Format string

	// File is the log file used by the "file" handler.
	File string

	// Verbose echoes warnings to stdout.
	Verbose bool

	// NoColor disables coloured user output.
	NoColor bool

	Stdout io.Writer
	Stderr io.Writer
}

// DefaultLogger provides structured logging capability and implements the Logger interface
type DefaultLogger struct {
	mu      sync.Mutex
	logger  *slog.Logger
	stream  bool
	verbose bool
	stdout  io.Writer
	stderr  io.Writer
	file    *os.File
	palette palette
}

type palette struct {
	info    func(a ...any) string
	success func(a ...any) string
	warning func(a ...any) string
	failure func(a ...any) string
}

func newPalette(noColor bool) palette {
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if noColor {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		info:    mk(color.FgCyan),
		success: mk(color.FgGreen),
		warning: mk(color.FgYellow),
		failure: mk(color.FgRed, color.Bold),
	}
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// ValidFormat reports whether format names a supported log format.
func ValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case "", FormatText, FormatJSON:
		return true
	}
	return false
}

// New creates a logger writing user output to os.Stdout and os.Stderr.
func New(opts Options) *DefaultLogger {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return NewWithOptions(opts)
}

// NewWithOptions creates a DefaultLogger. Failure to open the log file is not
// fatal: the logger falls back to stderr and says so.
func NewWithOptions(opts Options) *DefaultLogger {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "⚠️  %v, using info\n", err)
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var (
		out    io.Writer = stderr
		file   *os.File
		stream = true
	)

	if path := logFilePath(opts); path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				_, _ = fmt.Fprintf(stderr, "⚠️  Failed to create log directory: %v\n", err)
			}
		}

		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err == nil {
			file = f
			out = f
			stream = false
		} else {
			_, _ = fmt.Fprintf(stderr, "⚠️  Failed to open log file: %v, using stderr instead\n", err)
		}
	}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, FormatJSON) {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	return &DefaultLogger{
		logger:  slog.New(handler),
		stream:  stream,
		verbose: opts.Verbose,
		stdout:  stdout,
		stderr:  stderr,
		file:    file,
		palette: newPalette(opts.NoColor || color.NoColor),
	}
}

// logFilePath resolves the file the structured log goes to, or "" for stderr.
func logFilePath(opts Options) string {
	switch opts.Handler {
	case "", HandlerStream:
		return ""
	case HandlerFile:
		return opts.File
	default:
		return opts.Handler
	}
}

// Debug logs a debug message
func (l *DefaultLogger) Debug(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Info logs an informational message (structured log only)
func (l *DefaultLogger) Info(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logger.Info(fmt.Sprintf(format, args...))
}

// InfoToUser logs an informational message to both the log and stdout
func (l *DefaultLogger) InfoToUser(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.logger.Info(msg)

	_, _ = fmt.Fprintf(l.stdout, "%s  %s\n", l.palette.info("ℹ️"), msg)
}

// Success logs a success message to both the log and stdout
func (l *DefaultLogger) Success(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.logger.Info(msg)

	_, _ = fmt.Fprintf(l.stdout, "%s %s\n", l.palette.success("✅"), l.palette.success(msg))
}

// Warning logs a warning message
func (l *DefaultLogger) Warning(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.logger.Warn(msg)

	if l.verbose {
		_, _ = fmt.Fprintf(l.stdout, "%s  %s\n", l.palette.warning("⚠️"), msg)
	}
}

// WarningToUser logs a warning message to both the log and stdout
func (l *DefaultLogger) WarningToUser(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.logger.Warn(msg)

	_, _ = fmt.Fprintf(l.stdout, "%s  %s\n", l.palette.warning("⚠️"), l.palette.warning(msg))
}

// Error logs an error message
func (l *DefaultLogger) Error(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.logger.Error(msg)

	// The stream handler already wrote the record to stderr.
	if !l.stream {
		_, _ = fmt.Fprintf(l.stderr, "%s %s\n", l.palette.failure("❌"), l.palette.failure(msg))
	}
}

// StatusMessage prints a status message to stdout only (no logging)
func (l *DefaultLogger) StatusMessage(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, _ = fmt.Fprintln(l.stdout, fmt.Sprintf(format, args...))
}

// Close ensures any buffered data is written and closes open log file handles
func (l *DefaultLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	f := l.file
	l.file = nil
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
