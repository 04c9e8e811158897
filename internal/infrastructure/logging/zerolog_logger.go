package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

var zeroLogLevelMapping = map[string]zerolog.Level{
	"debug": zerolog.DebugLevel,
	"info":  zerolog.InfoLevel,
	"warn":  zerolog.WarnLevel,
	"error": zerolog.ErrorLevel,
	"fatal": zerolog.FatalLevel,
}

type zeroLogger struct {
	cfg    *LoggerConfig
	logger *zerolog.Logger
}

func newZeroLogger(cfg *LoggerConfig) *zeroLogger {
	return newZeroLoggerTo(cfg, cfg.output())
}

func newZeroLoggerTo(cfg *LoggerConfig, w io.Writer) *zeroLogger {
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Encoding == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(w).
		Level(cfg.zeroLevel()).
		With().
		Timestamp().
		Str(string(AppName), appName).
		Str(string(LoggerName), "zerolog").
		Logger()

	return &zeroLogger{cfg: cfg, logger: &logger}
}

func (cfg *LoggerConfig) zeroLevel() zerolog.Level {
	level, exists := zeroLogLevelMapping[cfg.Level]
	if !exists {
		return zerolog.DebugLevel
	}
	return level
}

func (l *zeroLogger) Debug(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Debug().Fields(logParamsToZeroParams(prepareLogInfo(cat, sub, extra))).Msg(msg)
}

func (l *zeroLogger) Debugf(template string, args ...any) {
	l.logger.Debug().Msgf(template, args...)
}

func (l *zeroLogger) Info(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Info().Fields(logParamsToZeroParams(prepareLogInfo(cat, sub, extra))).Msg(msg)
}

func (l *zeroLogger) Infof(template string, args ...any) {
	l.logger.Info().Msgf(template, args...)
}

func (l *zeroLogger) Warn(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Warn().Fields(logParamsToZeroParams(prepareLogInfo(cat, sub, extra))).Msg(msg)
}

func (l *zeroLogger) Warnf(template string, args ...any) {
	l.logger.Warn().Msgf(template, args...)
}

func (l *zeroLogger) Error(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Error().Fields(logParamsToZeroParams(prepareLogInfo(cat, sub, extra))).Msg(msg)
}

func (l *zeroLogger) Errorf(template string, args ...any) {
	l.logger.Error().Msgf(template, args...)
}

func (l *zeroLogger) Fatal(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Fatal().Fields(logParamsToZeroParams(prepareLogInfo(cat, sub, extra))).Msg(msg)
}

func (l *zeroLogger) Fatalf(template string, args ...any) {
	l.logger.Fatal().Msgf(template, args...)
}

func (l *zeroLogger) Sync() error {
	return nil
}
