// Package logger provides structured, leveled logging backed by zap. It is
// the logging surface every other internal package and business module
// depends on through LoggerInterface, so call sites never import zap
// directly.
package logger

import (
	"context"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is a logging threshold.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// LoggerInterface is what business and internal packages take a dependency
// on. Every call takes a context first so a future trace-ID correlation hook
// can be added without touching call sites.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, keyvals ...interface{})
	Info(ctx context.Context, msg string, keyvals ...interface{})
	Warn(ctx context.Context, msg string, keyvals ...interface{})
	Error(ctx context.Context, msg string, keyvals ...interface{})
	With(keyvals ...interface{}) LoggerInterface
}

// Logger is the zap-backed LoggerInterface implementation.
type Logger struct {
	z *zap.SugaredLogger
}

var _ LoggerInterface = (*Logger)(nil)

// New builds a Logger writing to w at the given level. name tags every line
// with a "service" field; fields adds any further static key/values (nil is
// fine).
func New(w io.Writer, level Level, name string, fields map[string]interface{}) *Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(w),
		level.zapLevel(),
	)

	base := zap.New(core).Sugar().With("service", name)
	for k, v := range fields {
		base = base.With(k, v)
	}

	return &Logger{z: base}
}

func (l *Logger) Debug(_ context.Context, msg string, keyvals ...interface{}) {
	l.z.Debugw(msg, keyvals...)
}

func (l *Logger) Info(_ context.Context, msg string, keyvals ...interface{}) {
	l.z.Infow(msg, keyvals...)
}

func (l *Logger) Warn(_ context.Context, msg string, keyvals ...interface{}) {
	l.z.Warnw(msg, keyvals...)
}

func (l *Logger) Error(_ context.Context, msg string, keyvals ...interface{}) {
	l.z.Errorw(msg, keyvals...)
}

// With returns a derived logger carrying the given static key/values.
func (l *Logger) With(keyvals ...interface{}) LoggerInterface {
	return &Logger{z: l.z.With(keyvals...)}
}

// Sync flushes any buffered log entries. Callers should defer it once at
// process startup.
func (l *Logger) Sync() error {
	return l.z.Sync()
}
