package logging

import (
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

type retryableLogger struct {
	s *zap.SugaredLogger
}

// RetryableLogger adapts zap to the leveled logger interface of go-retryablehttp
func RetryableLogger(l *zap.Logger) retryablehttp.LeveledLogger {
	return &retryableLogger{s: OrNop(l).WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (r *retryableLogger) Error(msg string, keysAndValues ...interface{}) {
	r.s.Errorw(msg, keysAndValues...)
}

func (r *retryableLogger) Info(msg string, keysAndValues ...interface{}) {
	r.s.Infow(msg, keysAndValues...)
}

// Debug is where retryablehttp reports every request; keep it out of info.
func (r *retryableLogger) Debug(msg string, keysAndValues ...interface{}) {
	r.s.Debugw(msg, keysAndValues...)
}

func (r *retryableLogger) Warn(msg string, keysAndValues ...interface{}) {
	r.s.Warnw(msg, keysAndValues...)
}
