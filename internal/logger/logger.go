// Package logger wraps slog with termharness's conventions: output to
// stderr (optionally also to a log file) and never to stdout, since stdout
// is reserved for the MCP stdio transport's framed protocol messages, and
// a shortened time format.
package logger

import (
	"io"
	"log/slog"
	"os"
)

var Log *slog.Logger

func init() {
	Log = slog.New(newHandler(slog.LevelInfo, os.Stderr))
	slog.SetDefault(Log)
}

// Init reconfigures the global logger. logFile, if non-empty, additionally
// writes to that path (the process's own stderr still gets everything).
func Init(level string, logFile string) error {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var w io.Writer = os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		w = io.MultiWriter(os.Stderr, f)
	}

	Log = slog.New(newHandler(logLevel, w))
	slog.SetDefault(Log)
	return nil
}

func newHandler(level slog.Level, w io.Writer) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String("time", a.Value.Time().Format("15:04:05.000"))
			}
			return a
		},
	})
}

// Debug logs at debug level
func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

// Info logs at info level
func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

// Warn logs at warn level
func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}

// Error logs at error level
func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}

// With returns a logger scoped with the given attributes, e.g. a
// sessionId, for per-session structured logging.
func With(args ...any) *slog.Logger {
	return Log.With(args...)
}
