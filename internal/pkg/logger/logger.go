// Package logger is the structured observability sink shared by the server,
// the worker and the client workflow. Callers depend on the Logger interface;
// the zap-backed implementation is built once per process in main.
package logger

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zahlentech/str8up_server/config"
)

// Event types attached to the structured helpers.
const (
	TypeAPIRequest      = "API_REQUEST"
	TypeUserAction      = "USER_ACTION"
	TypeStageTransition = "STAGE_TRANSITION"
)

// APICall describes one remote call made by a client.
type APICall struct {
	Method     string
	Endpoint   string
	StatusCode int
	Duration   time.Duration
	Err        error
}

type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	With(keyvals ...interface{}) Logger

	APIRequest(msg string, call APICall, keyvals ...interface{})
	UserAction(action string, keyvals ...interface{})
	StageTransition(from, to string, keyvals ...interface{})
}

// ZapLogger implements Logger on top of a sugared zap logger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// New builds a logger from the log section of the config.
func New(cfg config.LogConfig) (*ZapLogger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	l, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return NewZap(l), nil
}

// NewZap wraps an existing zap logger.
func NewZap(l *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: l.Sugar()}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return NewZap(zap.NewNop())
}

// ParseLevel maps debug|info|warn|error onto zap levels.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

func (z *ZapLogger) Debug(msg string, keyvals ...interface{}) { z.sugar.Debugw(msg, keyvals...) }
func (z *ZapLogger) Info(msg string, keyvals ...interface{})  { z.sugar.Infow(msg, keyvals...) }
func (z *ZapLogger) Warn(msg string, keyvals ...interface{})  { z.sugar.Warnw(msg, keyvals...) }
func (z *ZapLogger) Error(msg string, keyvals ...interface{}) { z.sugar.Errorw(msg, keyvals...) }

func (z *ZapLogger) With(keyvals ...interface{}) Logger {
	return &ZapLogger{sugar: z.sugar.With(keyvals...)}
}

// APIRequest logs a remote call; failed calls are logged at error level.
func (z *ZapLogger) APIRequest(msg string, call APICall, keyvals ...interface{}) {
	fields := append([]interface{}{
		"type", TypeAPIRequest,
		"method", call.Method,
		"endpoint", call.Endpoint,
		"status_code", call.StatusCode,
		"duration_ms", call.Duration.Milliseconds(),
	}, keyvals...)

	if call.Err != nil {
		z.sugar.Errorw(msg, append(fields, "error", call.Err.Error())...)
		return
	}
	z.sugar.Infow(msg, fields...)
}

func (z *ZapLogger) UserAction(action string, keyvals ...interface{}) {
	z.sugar.Infow("User Action: "+action, append([]interface{}{"type", TypeUserAction}, keyvals...)...)
}

func (z *ZapLogger) StageTransition(from, to string, keyvals ...interface{}) {
	fields := append([]interface{}{
		"type", TypeStageTransition,
		"from_stage", from,
		"to_stage", to,
	}, keyvals...)
	z.sugar.Infow(fmt.Sprintf("Stage Transition: %s -> %s", from, to), fields...)
}

// Sync flushes buffered entries.
func (z *ZapLogger) Sync() error {
	return z.sugar.Sync()
}
