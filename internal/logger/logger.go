package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Log is the global logger instance
var Log *slog.Logger

// Options controls how Init builds the handler chain.
type Options struct {
	IsDev     bool
	Level     string // optional override: debug, info, warn, error
	SentryDSN string
	AppName   string
	Output    io.Writer // defaults to os.Stdout
}

// Init initializes the global logger.
// Development: text format at debug level. Production: JSON at info level.
// Errors are additionally forwarded to Sentry when a DSN is configured.
func Init(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	level := slog.LevelInfo
	if opts.IsDev {
		level = slog.LevelDebug
	}
	if opts.Level != "" {
		level = ParseLevel(opts.Level, level)
	}

	var handlers []slog.Handler
	handlerOpts := &slog.HandlerOptions{Level: level}
	if opts.IsDev {
		handlers = append(handlers, slog.NewTextHandler(out, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(out, handlerOpts))
	}

	if opts.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              opts.SentryDSN,
			TracesSampleRate: 1.0,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		}
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	} else {
		handler = handlers[0]
	}

	Log = slog.New(handler)
	if opts.AppName != "" {
		Log = Log.With("app", opts.AppName)
	}
	slog.SetDefault(Log)
	return Log
}

// ParseLevel maps a level name to slog.Level, returning def for unknown names.
func ParseLevel(name string, def slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return def
}
