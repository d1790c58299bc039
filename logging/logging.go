// Package logging constructs the component-tagged loggers used across the
// library. Output goes to stderr; the level is taken from the
// ELISA_LOG_LEVEL environment variable (zerolog level names) and defaults
// to warn so that library use stays quiet unless asked.
package logging

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	once sync.Once
	root zerolog.Logger
)

func rootLogger() zerolog.Logger {
	once.Do(func() {
		level := zerolog.WarnLevel
		if raw := os.Getenv("ELISA_LOG_LEVEL"); raw != "" {
			if parsed, err := zerolog.ParseLevel(raw); err == nil {
				level = parsed
			}
		}
		writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
		root = zerolog.New(writer).Level(level).With().Timestamp().Logger()
	})
	return root
}

// New returns a logger tagged with the given component name.
func New(component string) zerolog.Logger {
	return rootLogger().With().Str("component", component).Logger()
}
