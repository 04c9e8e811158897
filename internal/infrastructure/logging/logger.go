package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/hilthontt/huddle/internal/infrastructure/env"
	"gopkg.in/natefinch/lumberjack.v2"
)

const appName = "huddle"

type Logger interface {
	Debug(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Debugf(template string, args ...any)

	Info(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Infof(template string, args ...any)

	Warn(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Warnf(template string, args ...any)

	Error(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Errorf(template string, args ...any)

	Fatal(cat Category, sub SubCategory, msg string, extra map[ExtraKey]any)
	Fatalf(template string, args ...any)

	Sync() error
}

type LoggerConfig struct {
	FilePath string `koanf:"file_path"`
	Encoding string `koanf:"encoding"`
	Level    string `koanf:"level"`
	Logger   string `koanf:"logger"`
}

func NewDefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		FilePath: env.GetString("LOGGER_FILE_PATH", ""),
		Encoding: env.GetString("LOGGER_ENCODING", "json"),
		Level:    env.GetString("LOGGER_LEVEL", "info"),
		Logger:   env.GetString("LOGGER_LOGGER", "zap"),
	}
}

func NewLogger(cfg *LoggerConfig) Logger {
	switch cfg.Logger {
	case "zap", "":
		return newZapLogger(cfg)
	case "zerolog":
		return newZeroLogger(cfg)
	}

	panic("logger not supported: supported loggers: [zap, zerolog]")
}

// output writes to stdout, and also to a rotated file when FilePath is set.
func (cfg *LoggerConfig) output() io.Writer {
	if cfg.FilePath == "" {
		return os.Stdout
	}

	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   filepath.Join(cfg.FilePath, appName+".log"),
		MaxSize:    10,
		MaxAge:     20,
		MaxBackups: 5,
		LocalTime:  true,
		Compress:   true,
	})
}
