package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls handler construction. It is loaded from the environment
// by core/config in the usual way.
type Config struct {
	Level     string `env:"LOG_LEVEL" envDefault:"info"`
	Format    string `env:"LOG_FORMAT" envDefault:"text"`
	AddSource bool   `env:"LOG_ADD_SOURCE" envDefault:"false"`
}

// New creates a slog.Logger writing to w according to cfg.
// Unknown levels fall back to info, unknown formats to text.
func New(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// NewDynamic creates a logger whose level can be changed at runtime through
// the returned LevelVar. The configuration reload path uses it to apply the
// site's log level without rebuilding the logger.
func NewDynamic(w io.Writer, cfg Config) (*slog.Logger, *slog.LevelVar) {
	level := new(slog.LevelVar)
	level.Set(ParseLevel(cfg.Level))

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), level
}

// Default creates a logger with the given config writing to stderr.
func Default(cfg Config) *slog.Logger {
	return New(os.Stderr, cfg)
}

// Discard creates a logger that drops everything. Useful in tests and as a
// safe default for optional logger fields.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
