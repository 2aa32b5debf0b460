package logger

import (
	"io"
	"os"
	"time"

	"canx-backend/internal/config"

	"github.com/rs/zerolog"
)

// New builds the service logger from the LOG_* settings. Unknown levels fall back to info.
func New(cfg config.Log, env config.Environment) zerolog.Logger {
	return NewWithWriter(os.Stdout, cfg, env)
}

func NewWithWriter(w io.Writer, cfg config.Log, env config.Environment) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("env", env.Name).
		Logger()
}

// Component tags log events with the component that produced them.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
