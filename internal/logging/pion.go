package logging

import (
	"fmt"

	"github.com/pion/logging"
	"github.com/rs/zerolog"
)

// pionLogger forwards pion's leveled logging into zerolog.
type pionLogger struct {
	logger zerolog.Logger
}

func (p pionLogger) Trace(msg string) { p.logger.Trace().Msg(msg) }
func (p pionLogger) Tracef(format string, a ...any) { p.logger.Trace().Msg(fmt.Sprintf(format, a...)) }
func (p pionLogger) Debug(msg string) { p.logger.Debug().Msg(msg) }
func (p pionLogger) Debugf(format string, a ...any) { p.logger.Debug().Msg(fmt.Sprintf(format, a...)) }
func (p pionLogger) Info(msg string) { p.logger.Info().Msg(msg) }
func (p pionLogger) Infof(format string, a ...any) { p.logger.Info().Msg(fmt.Sprintf(format, a...)) }
func (p pionLogger) Warn(msg string) { p.logger.Warn().Msg(msg) }
func (p pionLogger) Warnf(format string, a ...any) { p.logger.Warn().Msg(fmt.Sprintf(format, a...)) }
func (p pionLogger) Error(msg string) { p.logger.Error().Msg(msg) }
func (p pionLogger) Errorf(format string, a ...any) { p.logger.Error().Msg(fmt.Sprintf(format, a...)) }

type pionLoggerFactory struct {
	base *zerolog.Logger
}

func (f pionLoggerFactory) NewLogger(scope string) logging.LeveledLogger {
	return pionLogger{logger: f.base.With().Str("component", "pion").Str("scope", scope).Logger()}
}

// GetPionDefaultLoggerFactory returns a pion LoggerFactory backed by the
// default zerolog logger.
func GetPionDefaultLoggerFactory() logging.LoggerFactory {
	return pionLoggerFactory{base: GetDefaultLogger()}
}
