// internal/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	level                      = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	output zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	sugar                      = build()
)

func build() *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), output, level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// Init initializes the logger with the given level
func Init(levelStr string) {
	SetLevel(levelStr)
}

// SetOutput sets the output for all log levels
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	output = zapcore.Lock(zapcore.AddSync(w))
	sugar = build()
}

// SetLevel sets the log level
func SetLevel(levelStr string) {
	switch strings.ToLower(levelStr) {
	case "debug":
		level.SetLevel(zapcore.DebugLevel)
	case "warn", "warning":
		level.SetLevel(zapcore.WarnLevel)
	case "error":
		level.SetLevel(zapcore.ErrorLevel)
	default:
		level.SetLevel(zapcore.InfoLevel)
	}
}

// Sync flushes buffered log entries
func Sync() {
	_ = get().Sync()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	get().Debugf(format, v...)
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	get().Infof(format, v...)
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	get().Warnf(format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	get().Errorf(format, v...)
}
