package logger

import (
	"context"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalSugar *zap.SugaredLogger
	globalBase  *zap.Logger
	initMu      sync.Mutex
)

type ctxKey struct{}

// Init initializes the global zap logger. env "prod" or "production" selects the
// JSON production config, anything else the development config. level, when set,
// overrides the config's default level.
// The stdlib log output is redirected to zap.
func Init(env string, level ...string) (*zap.SugaredLogger, error) {
	initMu.Lock()
	defer initMu.Unlock()

	if globalSugar != nil && globalBase != nil {
		return globalSugar, nil
	}

	var cfg zap.Config
	if strings.EqualFold(env, "prod") || strings.EqualFold(env, "production") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	if len(level) > 0 && level[0] != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level[0])); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}

	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	zap.ReplaceGlobals(base)
	_ = zap.RedirectStdLog(base)

	globalBase = base
	globalSugar = base.Sugar()
	return globalSugar, nil
}

// L returns the global sugared logger, initializing it on first use.
func L() *zap.SugaredLogger {
	return Base().Sugar()
}

// Base returns the base *zap.Logger (non-sugared).
func Base() *zap.Logger {
	if globalBase == nil {
		if _, err := Init(os.Getenv("LOG_ENV")); err != nil {
			base, _ := zap.NewDevelopment()
			initMu.Lock()
			globalBase = base
			globalSugar = base.Sugar()
			initMu.Unlock()
		}
	}
	return globalBase
}

// WithFields returns a child context whose logger carries the given fields.
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	return context.WithValue(ctx, ctxKey{}, FromContext(ctx).With(fields...))
}

// FromContext returns the logger stored in ctx, or the base logger.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
			return l
		}
	}
	return Base()
}

// Debug logs with context and fields.
func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	FromContext(ctx).Debug(msg, fields...)
}

// Info logs with context and fields.
func Info(ctx context.Context, msg string, fields ...zap.Field) {
	FromContext(ctx).Info(msg, fields...)
}

// Warn logs with context and fields.
func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	FromContext(ctx).Warn(msg, fields...)
}

// Error logs with context and fields.
func Error(ctx context.Context, msg string, fields ...zap.Field) {
	FromContext(ctx).Error(msg, fields...)
}

// Sync flushes any buffered log entries.
func Sync() {
	if globalBase != nil {
		_ = globalBase.Sync()
	}
}
