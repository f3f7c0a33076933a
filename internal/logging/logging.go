// Package logging configures the process-wide structured logger. Output is a
// single line per event with a stable key order, either key=value (debug
// profile) or JSON (prod).
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Config defines logging related configuration.
type Config struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

var (
	initOnce sync.Once

	// L is the base logger; Init replaces the stderr fallback.
	L = slog.New(newLineHandler(handlerConfig{
		level:  slog.LevelInfo,
		writer: os.Stdout,
		format: formatKV,
	}))
)

// Init configures the global structured logger. It may be called only once.
func Init(cfg Config) {
	initOnce.Do(func() {
		initTo(cfg, os.Stdout)
	})
}

func initTo(cfg Config, w io.Writer) {
	handler := newLineHandler(handlerConfig{
		level:  selectLevel(cfg),
		writer: w,
		format: selectFormat(cfg),
	})
	L = slog.New(handler)
	slog.SetDefault(L)
}

// Component constructs a logger scoped to the provided component attribute.
func Component(name string) *slog.Logger {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return L
	}
	return L.With("component", trimmed)
}

// RoundMS rounds duration to the nearest millisecond for consistent logging.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

func selectLevel(cfg Config) slog.Level {
	switch strings.ToLower(strings.TrimSpace(cfg.Level)) {
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

func selectFormat(cfg Config) logFormat {
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	// Prefer human-friendly format when profile indicates debug/dev mode.
	if strings.EqualFold(cfg.Profile, "debug") || strings.EqualFold(cfg.Profile, "dev") {
		return formatKV
	}
	return formatJSON
}
