package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every entry so shipped logs can be filtered
// per service.
const ServiceName = "resto-be"

var log *zap.Logger

// New builds a logger for env. level overrides the env default when it
// parses ("debug", "info", "warn", "error"); component names the binary.
func New(env, level, component string, opts ...zap.Option) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.MessageKey = "message"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{"stdout"}
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	fields := []zap.Field{zap.String("service", ServiceName)}
	if component != "" {
		fields = append(fields, zap.String("component", component))
	}
	opts = append(opts, zap.Fields(fields...), zap.AddCaller(), zap.AddCallerSkip(1))

	return cfg.Build(opts...)
}

// Init installs the global logger. An unparsable level falls back to the
// env default and is reported once the logger is up.
func Init(env, level, component string) {
	l, err := New(env, level, component)
	if err != nil {
		l, err = New(env, "", component)
		if err != nil {
			panic(err)
		}
		l.Warn("invalid log level, using default", zap.String("level", level))
	}
	log = l
}

// L returns the global logger.
func L() *zap.Logger {
	if log == nil {
		Init(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"), "")
	}
	return log
}

func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}
