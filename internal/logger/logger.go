package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/subkit/subkit/internal/config"
	"github.com/subkit/subkit/internal/types"
)

// Logger wraps zap.SugaredLogger to provide logging functionality
type Logger struct {
	*zap.SugaredLogger
}

// Global logger for convenience
var L *Logger

// NewLogger creates and returns a new Logger instance honouring the
// configured log level
func NewLogger(cfg *config.Configuration) (*Logger, error) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg != nil && cfg.Logging.Level == types.LogLevelDebug {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{
		SugaredLogger: zapLogger.Sugar(),
	}, nil
}

// Initialize a default logger and set it as the global. The global is kept
// for scripts and one-off commands; everywhere else the injected logger
// should be used.
func init() {
	L, _ = NewLogger(nil)
}

// With returns a child logger with the given structured context attached
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...)}
}

// WithLogGroup returns a child logger tagged with an operation's log group
func (l *Logger) WithLogGroup(logGroup string) *Logger {
	if logGroup == "" {
		return l
	}
	return l.With("log_group", logGroup)
}
