package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var zapLogLevelMapping = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"fatal": zapcore.FatalLevel,
}

type zapLogger struct {
	cfg    *LoggerConfig
	logger *zap.SugaredLogger
}

func newZapLogger(cfg *LoggerConfig) *zapLogger {
	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Encoding == "console" {
		encoder = zapcore.NewConsoleEncoder(config)
	} else {
		encoder = zapcore.NewJSONEncoder(config)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(cfg.output()), cfg.zapLevel())
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)).Sugar()

	return &zapLogger{
		cfg:    cfg,
		logger: logger.With(string(AppName), appName, string(LoggerName), "zap"),
	}
}

// NewNopLogger discards everything. Used by tests and as a safe default.
func NewNopLogger() Logger {
	return &zapLogger{cfg: &LoggerConfig{}, logger: zap.NewNop().Sugar()}
}

func (cfg *LoggerConfig) zapLevel() zapcore.Level {
	level, exists := zapLogLevelMapping[cfg.Level]
	if !exists {
		return zapcore.DebugLevel
	}
	return level
}

func (l *zapLogger) Debug(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Debugw(msg, logParamsToZapParams(prepareLogInfo(cat, sub, extra))...)
}

func (l *zapLogger) Debugf(template string, args ...any) {
	l.logger.Debugf(template, args...)
}

func (l *zapLogger) Info(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Infow(msg, logParamsToZapParams(prepareLogInfo(cat, sub, extra))...)
}

func (l *zapLogger) Infof(template string, args ...any) {
	l.logger.Infof(template, args...)
}

func (l *zapLogger) Warn(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Warnw(msg, logParamsToZapParams(prepareLogInfo(cat, sub, extra))...)
}

func (l *zapLogger) Warnf(template string, args ...any) {
	l.logger.Warnf(template, args...)
}

func (l *zapLogger) Error(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Errorw(msg, logParamsToZapParams(prepareLogInfo(cat, sub, extra))...)
}

func (l *zapLogger) Errorf(template string, args ...any) {
	l.logger.Errorf(template, args...)
}

func (l *zapLogger) Fatal(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any) {
	l.logger.Fatalw(msg, logParamsToZapParams(prepareLogInfo(cat, sub, extra))...)
}

func (l *zapLogger) Fatalf(template string, args ...any) {
	l.logger.Fatalf(template, args...)
}

func (l *zapLogger) Sync() error {
	return l.logger.Sync()
}
