package log

import (
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation controls the rotating file sink.
type Rotation struct {
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}

// Stdout returns a sink writing to standard output.
func Stdout() zapcore.WriteSyncer {
	return zapcore.Lock(os.Stdout)
}

// RotatingFile returns a sink that writes to path and rotates it by size.
func RotatingFile(path string, r Rotation) zapcore.WriteSyncer {
	if r.MaxSizeMB <= 0 {
		r.MaxSizeMB = 100
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    r.MaxSizeMB,
		MaxAge:     r.MaxAgeDays,
		MaxBackups: r.MaxBackups,
		Compress:   r.Compress,
	})
}
