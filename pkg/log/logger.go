// Package log is a leveled structured logger with request-scoped context
// fields, emitting JSON through zap.
package log

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the main logging type.
type Logger struct {
	level zap.AtomicLevel
	zl    *zap.Logger
}

// New creates a logger with the given minimum level writing JSON to sinks.
// Without sinks it writes to stdout.
func New(level Level, sinks ...zapcore.WriteSyncer) *Logger {
	if len(sinks) == 0 {
		sinks = []zapcore.WriteSyncer{Stdout()}
	}

	atom := zap.NewAtomicLevelAt(level.zapLevel())
	core := zapcore.NewCore(newEncoder(), zapcore.NewMultiWriteSyncer(sinks...), atom)
	return &Logger{
		level: atom,
		// skip log and the exported method so caller is the call site
		zl: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)),
	}
}

func newEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = encodeLevel
	return zapcore.NewJSONEncoder(cfg)
}

// SetLevel changes the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(level.zapLevel())
}

// With creates a child logger with additional base fields.
func (l *Logger) With(keysAndValues ...any) *Logger {
	fields := toFields(keysAndValues)
	return &Logger{
		level: l.level,
		zl:    l.zl.With(fields...),
	}
}

// Close flushes buffered entries.
func (l *Logger) Close() {
	_ = l.zl.Sync()
}

func (l *Logger) log(level Level, ctx context.Context, msg string, keysAndValues ...any) {
	ce := l.zl.Check(level.zapLevel(), msg)
	if ce == nil {
		return
	}
	fields := append(contextFields(ctx), toFields(keysAndValues)...)
	ce.Write(fields...)
}

func toFields(keysAndValues []any) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, ok := keysAndValues[i+1].(error); ok {
			fields = append(fields, zap.String(key, err.Error()))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

func (l *Logger) Trace(msg string, keysAndValues ...any) {
	l.log(Trace, nil, msg, keysAndValues...)
}

func (l *Logger) Debug(msg string, keysAndValues ...any) {
	l.log(Debug, nil, msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.log(Info, nil, msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.log(Warn, nil, msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...any) {
	l.log(Error, nil, msg, keysAndValues...)
}

// Fatal logs at Fatal level. It does not exit.
func (l *Logger) Fatal(msg string, keysAndValues ...any) {
	l.log(Fatal, nil, msg, keysAndValues...)
}

func (l *Logger) TraceCtx(ctx context.Context, msg string, keysAndValues ...any) {
	l.log(Trace, ctx, msg, keysAndValues...)
}

func (l *Logger) DebugCtx(ctx context.Context, msg string, keysAndValues ...any) {
	l.log(Debug, ctx, msg, keysAndValues...)
}

func (l *Logger) InfoCtx(ctx context.Context, msg string, keysAndValues ...any) {
	l.log(Info, ctx, msg, keysAndValues...)
}

func (l *Logger) WarnCtx(ctx context.Context, msg string, keysAndValues ...any) {
	l.log(Warn, ctx, msg, keysAndValues...)
}

func (l *Logger) ErrorCtx(ctx context.Context, msg string, keysAndValues ...any) {
	l.log(Error, ctx, msg, keysAndValues...)
}

func (l *Logger) FatalCtx(ctx context.Context, msg string, keysAndValues ...any) {
	l.log(Fatal, ctx, msg, keysAndValues...)
}

// --- Global Logger ---

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
	nopLogger    = &Logger{
		level: zap.NewAtomicLevelAt(zapcore.InvalidLevel),
		zl:    zap.NewNop(),
	}
)

// SetDefault sets the global default logger.
func SetDefault(l *Logger) {
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

// Default returns the global logger, or a no-op logger if none is set.
func Default() *Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()

	if l == nil {
		return nopLogger
	}
	return l
}

func GlobalTrace(msg string, keysAndValues ...any) {
	Default().log(Trace, nil, msg, keysAndValues...)
}

func GlobalDebug(msg string, keysAndValues ...any) {
	Default().log(Debug, nil, msg, keysAndValues...)
}

func GlobalInfo(msg string, keysAndValues ...any) {
	Default().log(Info, nil, msg, keysAndValues...)
}

func GlobalWarn(msg string, keysAndValues ...any) {
	Default().log(Warn, nil, msg, keysAndValues...)
}

func GlobalError(msg string, keysAndValues ...any) {
	Default().log(Error, nil, msg, keysAndValues...)
}

func GlobalFatal(msg string, keysAndValues ...any) {
	Default().log(Fatal, nil, msg, keysAndValues...)
}

func GlobalTraceCtx(ctx context.Context, msg string, keysAndValues ...any) {
	Default().log(Trace, ctx, msg, keysAndValues...)
}

func GlobalDebugCtx(ctx context.Context, msg string, keysAndValues ...any) {
	Default().log(Debug, ctx, msg, keysAndValues...)
}

// GlobalInfoCtx logs at Info level with context using the global logger.
func GlobalInfoCtx(ctx context.Context, msg string, keysAndValues ...any) {
	Default().log(Info, ctx, msg, keysAndValues...)
}

func GlobalWarnCtx(ctx context.Context, msg string, keysAndValues ...any) {
	Default().log(Warn, ctx, msg, keysAndValues...)
}

// GlobalErrorCtx logs at Error level with context using the global logger.
func GlobalErrorCtx(ctx context.Context, msg string, keysAndValues ...any) {
	Default().log(Error, ctx, msg, keysAndValues...)
}

func GlobalFatalCtx(ctx context.Context, msg string, keysAndValues ...any) {
	Default().log(Fatal, ctx, msg, keysAndValues...)
}
