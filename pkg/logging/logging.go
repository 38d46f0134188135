package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents a logging level
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging settings
type Config struct {
	Level      Level  `mapstructure:"level" yaml:"level" json:"level"`
	Format     string `mapstructure:"format" yaml:"format" json:"format"` // "json" or "console"
	Filename   string `mapstructure:"file" yaml:"file" json:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days" json:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress" json:"compress"`
	Console    bool   `mapstructure:"console" yaml:"console" json:"console"`
}

// DefaultConfig returns default logging configuration
func DefaultConfig() Config {
	return Config{
		Level:      InfoLevel,
		Format:     "console",
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Console:    true,
	}
}

// New builds a zap logger from the given configuration. Output goes to the
// configured rotating file, the console, or both.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	var syncers []zapcore.WriteSyncer
	if cfg.Filename != "" {
		syncers = append(syncers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}))
	}
	if cfg.Console || len(syncers) == 0 {
		syncers = append(syncers, zapcore.AddSync(os.Stdout))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(syncers...), zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddCaller()), nil
}

// NewNop returns a logger that discards everything, for tests and defaults.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

func zapLevel(level Level) (zapcore.Level, error) {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel, nil
	case InfoLevel, "":
		return zapcore.InfoLevel, nil
	case WarnLevel:
		return zapcore.WarnLevel, nil
	case ErrorLevel:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}
