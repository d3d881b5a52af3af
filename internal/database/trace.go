package database

import (
	"context"

	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapTracer forwards pgx query traces to a zap logger.
type zapTracer struct {
	logger *zap.Logger
}

func newZapTracer(l *zap.Logger) *zapTracer {
	return &zapTracer{logger: l.Named("pgx")}
}

func (t *zapTracer) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	fields := make([]zap.Field, 0, len(data))
	for k, v := range data {
		if err, ok := v.(error); ok {
			fields = append(fields, zap.NamedError(k, err))
			continue
		}
		fields = append(fields, zap.Any(k, v))
	}

	switch level {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug:
		t.logger.Debug(msg, fields...)
	case tracelog.LogLevelInfo:
		t.logger.Info(msg, fields...)
	case tracelog.LogLevelWarn:
		t.logger.Warn(msg, fields...)
	case tracelog.LogLevelError:
		t.logger.Error(msg, fields...)
	default:
		t.logger.Info(msg, append(fields, zap.Stringer("pgx_level", level))...)
	}
}

// traceLevel keeps pgx from building traces the logger would drop anyway.
func traceLevel(l *zap.Logger) tracelog.LogLevel {
	switch {
	case l.Core().Enabled(zapcore.DebugLevel):
		return tracelog.LogLevelDebug
	case l.Core().Enabled(zapcore.InfoLevel):
		return tracelog.LogLevelInfo
	case l.Core().Enabled(zapcore.WarnLevel):
		return tracelog.LogLevelWarn
	default:
		return tracelog.LogLevelError
	}
}
