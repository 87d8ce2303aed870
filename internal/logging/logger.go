// Package logging is the app-wide structured logging facade, key-value
// style in the manner of zap.SugaredLogger.
package logging

import (
	"go.uber.org/zap"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

type zapLogger struct {
	s *zap.SugaredLogger
}

// New creates a JSON logger with service + env fields pre-attached.
func New(serviceName, env string) Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.OutputPaths = []string{"stdout"}

	core, err := cfg.Build()
	if err != nil {
		panic(err)
	}

	s := core.Sugar().With(
		"service", serviceName,
		"env", env,
	)

	return &zapLogger{s: s}
}

// NewNop returns a logger that discards everything; used in tests.
func NewNop() Logger {
	return &zapLogger{s: zap.NewNop().Sugar()}
}

func (l *zapLogger) Debug(msg string, args ...any) { l.s.Debugw(msg, args...) }
func (l *zapLogger) Info(msg string, args ...any)  { l.s.Infow(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...any)  { l.s.Warnw(msg, args...) }
func (l *zapLogger) Error(msg string, args ...any) { l.s.Errorw(msg, args...) }

func (l *zapLogger) With(args ...any) Logger {
	return &zapLogger{s: l.s.With(args...)}
}
