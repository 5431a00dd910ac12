// Package logging configures zerolog for the CLI and server and adapts it to
// the planner's Logger interface.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpgo/etf-income-planner/internal/calculation"
)

// ParseLevel maps a level name to a zerolog level. Empty means info.
func ParseLevel(level string) (zerolog.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	if level == "warning" {
		level = "warn"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// Setup configures the global zerolog logger. Pretty output goes through a
// ConsoleWriter on stderr; otherwise JSON lines are written.
func Setup(level string, pretty bool) error {
	return SetupWriter(os.Stderr, level, pretty)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, level string, pretty bool) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(lvl)

	out := w
	if pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return nil
}

// Adapter implements calculation.Logger on top of a zerolog.Logger.
type Adapter struct {
	logger zerolog.Logger
}

var _ calculation.Logger = Adapter{}

// NewAdapter wraps logger, tagging every line with the given component.
func NewAdapter(logger zerolog.Logger, component string) Adapter {
	if component != "" {
		logger = logger.With().Str("component", component).Logger()
	}
	return Adapter{logger: logger}
}

// Global wraps the global logger configured by Setup.
func Global(component string) Adapter {
	return NewAdapter(log.Logger, component)
}

func (a Adapter) Debugf(format string, args ...any) { a.logger.Debug().Msgf(format, args...) }
func (a Adapter) Infof(format string, args ...any)  { a.logger.Info().Msgf(format, args...) }
func (a Adapter) Warnf(format string, args ...any)  { a.logger.Warn().Msgf(format, args...) }
func (a Adapter) Errorf(format string, args ...any) { a.logger.Error().Msgf(format, args...) }
