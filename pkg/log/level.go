package log

import (
	"errors"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Level represents the severity of a log entry.
type Level int

const (
	Trace Level = iota
	Debug
	Info
	Warn
	Error
	Fatal
)

var levelNames = [...]string{
	"TRACE",
	"DEBUG",
	"INFO",
	"WARN",
	"ERROR",
	"FATAL",
}

// String returns the string representation of the level.
func (l Level) String() string {
	if l < Trace || l > Fatal {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ErrInvalidLevel is returned when parsing an unknown level string.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a string into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return Trace, nil
	case "DEBUG":
		return Debug, nil
	case "INFO":
		return Info, nil
	case "WARN", "WARNING":
		return Warn, nil
	case "ERROR":
		return Error, nil
	case "FATAL":
		return Fatal, nil
	default:
		return Info, ErrInvalidLevel
	}
}

// Enables returns true if this level allows logging at the given level.
func (l Level) Enables(target Level) bool {
	return target >= l
}

// traceLevel sits below zap's debug level.
const traceLevel = zapcore.DebugLevel - 1

// zapLevel maps a Level onto zap. Fatal maps to DPanic so that logging
// at Fatal never exits the process; stopping is the caller's decision.
func (l Level) zapLevel() zapcore.Level {
	switch l {
	case Trace:
		return traceLevel
	case Debug:
		return zapcore.DebugLevel
	case Warn:
		return zapcore.WarnLevel
	case Error:
		return zapcore.ErrorLevel
	case Fatal:
		return zapcore.DPanicLevel
	default:
		return zapcore.InfoLevel
	}
}

// encodeLevel writes our level names instead of zap's.
func encodeLevel(z zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch {
	case z <= traceLevel:
		enc.AppendString(Trace.String())
	case z == zapcore.DebugLevel:
		enc.AppendString(Debug.String())
	case z == zapcore.InfoLevel:
		enc.AppendString(Info.String())
	case z == zapcore.WarnLevel:
		enc.AppendString(Warn.String())
	case z == zapcore.ErrorLevel:
		enc.AppendString(Error.String())
	default:
		enc.AppendString(Fatal.String())
	}
}
