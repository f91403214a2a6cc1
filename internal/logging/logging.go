// Package logging builds the zerolog logger shared by all components.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"tour-planner/internal/config"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
}

// New returns a logger writing to stderr, formatted for humans when
// cfg.Logging.Pretty is set.
func New(cfg config.Config) zerolog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with an explicit output.
func NewWithWriter(cfg config.Config, w io.Writer) zerolog.Logger {
	out := w
	if cfg.Logging.Pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil || cfg.Logging.Level == "" {
		level = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
