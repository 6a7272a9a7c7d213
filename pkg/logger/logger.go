package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a service-scoped logger. Level comes from LOG_LEVEL
// (debug/info/warn/error), defaulting to info.
func New(service string) zerolog.Logger {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL"))); err == nil && parsed != zerolog.NoLevel {
		level = parsed
	}

	return zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
