package internal

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents different logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

// ParseLogLevel maps ERROR/WARN/INFO/DEBUG/TRACE (any case) to a level, INFO otherwise
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LogLevelError
	case "WARN", "WARNING":
		return LogLevelWarn
	case "DEBUG":
		return LogLevelDebug
	case "TRACE":
		return LogLevelTrace
	default:
		return LogLevelInfo
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogLevelError:
		return zapcore.ErrorLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// Logger provides leveled printf-style logging on top of zap
type Logger struct {
	level LogLevel
	sugar *zap.SugaredLogger
}

// NewLogger creates a new logger with the specified level
func NewLogger(level LogLevel) *Logger {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level.zapLevel())
	config.DisableStacktrace = true
	z, err := config.Build()
	if err != nil {
		z = zap.NewNop()
	}
	return &Logger{level: level, sugar: z.Sugar()}
}

// NewNopLogger discards everything; used by tests
func NewNopLogger() *Logger {
	return &Logger{level: LogLevelError, sugar: zap.NewNop().Sugar()}
}

// NewDefaultLogger creates a logger based on LOG_LEVEL environment variable
func NewDefaultLogger() *Logger {
	return NewLogger(ParseLogLevel(os.Getenv("LOG_LEVEL")))
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	if l.level >= LogLevelError {
		l.sugar.Errorf(format, args...)
	}
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.level >= LogLevelWarn {
		l.sugar.Warnf(format, args...)
	}
}

// Info logs info messages
func (l *Logger) Info(format string, args ...interface{}) {
	if l.level >= LogLevelInfo {
		l.sugar.Infof(format, args...)
	}
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.level >= LogLevelDebug {
		l.sugar.Debugf(format, args...)
	}
}

// Trace logs trace messages. zap has no trace level so these go out at debug.
func (l *Logger) Trace(format string, args ...interface{}) {
	if l.level >= LogLevelTrace {
		l.sugar.Debugf("[TRACE] "+format, args...)
	}
}

// With returns a child logger carrying structured key/value context
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{level: l.level, sugar: l.sugar.With(keysAndValues...)}
}

// Sync flushes buffered entries
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// Global logger instance
var DefaultLogger = NewDefaultLogger()

// SetDefaultLevel rebuilds the global logger, used once config is loaded
func SetDefaultLevel(level LogLevel) {
	DefaultLogger = NewLogger(level)
}
