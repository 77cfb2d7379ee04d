package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	defaultLogger     *zerolog.Logger
	defaultLoggerOnce sync.Once
	defaultOutput     io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
)

// GetDefaultLogger returns the process-wide logger.
func GetDefaultLogger() *zerolog.Logger {
	defaultLoggerOnce.Do(func() {
		l := zerolog.New(defaultOutput).With().Timestamp().Logger()
		defaultLogger = &l
	})
	return defaultLogger
}

// GetSubsystemLogger returns the default logger scoped to a component.
func GetSubsystemLogger(component string) *zerolog.Logger {
	l := GetDefaultLogger().With().Str("component", component).Logger()
	return &l
}

// SetOutput replaces the writer used by the default logger. It must be
// called before the first GetDefaultLogger call to take effect.
func SetOutput(w io.Writer) {
	defaultOutput = w
}

// SetLevel sets the global log level. Unknown levels fall back to info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
