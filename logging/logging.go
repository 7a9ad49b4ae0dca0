// Package logging bootstraps the bridge wide zerolog logger.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// DefaultLevel applies when no level is configured.
const DefaultLevel = zerolog.InfoLevel

// New returns a logger writing structured events to stderr at the supplied
// level; an unparsable level falls back to the default.
func New(level string) zerolog.Logger {
	lvl := DefaultLevel
	if level != "" {
		if parsed, err := zerolog.ParseLevel(level); err == nil {
			lvl = parsed
		}
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
