// Package logger configures the process-wide slog logger.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Config controls log level and output format.
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Init installs the default logger. Format "json" selects the JSON handler,
// anything else the text handler.
func Init(cfg Config) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	defaultLogger = slog.New(handler.WithAttrs([]slog.Attr{
		slog.String("service", "docqa"),
	}))
	slog.SetDefault(defaultLogger)
}

// Get returns the default logger, initializing it lazily if needed.
func Get() *slog.Logger {
	if defaultLogger == nil {
		Init(Config{Level: "info"})
	}
	return defaultLogger
}

// ForComponent returns a logger scoped to one component.
func ForComponent(component string) *slog.Logger {
	return Get().With(slog.String("component", component))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
