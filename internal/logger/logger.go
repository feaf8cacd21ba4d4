package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Log is the global logger instance
var Log = slog.Default()

// Config holds logger configuration
type Config struct {
	Level     string // debug, info, warn, error
	Format    string // "json" or "text"
	SentryDSN string
	Output    io.Writer // defaults to stdout
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Init initializes the global logger. Errors are also sent to Sentry when a
// DSN is configured.
func Init(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	var handlers []slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handlers = append(handlers, slog.NewTextHandler(out, opts))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(out, opts))
	}

	var sentryErr error
	if cfg.SentryDSN != "" {
		sentryErr = sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 1.0,
		})
		if sentryErr == nil {
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
	slog.SetDefault(Log)
	if sentryErr != nil {
		Log.Warn("sentry disabled, could not initialize client", "error", sentryErr)
	}
	return Log
}

// Flush waits for buffered Sentry events. Safe to call without Sentry.
func Flush() {
	sentry.Flush(2 * time.Second)
}
