// Package logging carries request-scoped identity and trace metadata
// through context and exposes a logger aware of both.
package logging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Gather-Network/conference_layer/pkg/logger"
)

type contextKey string

const (
	// TraceIDKey identifies the request trace in context.
	TraceIDKey contextKey = "trace_id"
	// UserIDKey identifies the authenticated user in context.
	UserIDKey contextKey = "user_id"
	// RoleKey identifies the authenticated role in context.
	RoleKey contextKey = "role"
)

// Logger decorates the component logger with context extraction.
type Logger struct {
	*logger.Logger
}

// NewLogger wraps a component logger.
func NewLogger(base *logger.Logger) *Logger {
	if base == nil {
		base = logger.NewDefault("http")
	}
	return &Logger{Logger: base}
}

// NewTraceID returns a fresh trace identifier.
func NewTraceID() string {
	return uuid.NewString()
}

// WithTraceID stores a trace ID in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID returns the trace ID stored in the context, if any.
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

// GetUserID returns the authenticated user ID stored in the context.
func GetUserID(ctx context.Context) string {
	return stringValue(ctx, UserIDKey)
}

// GetRole returns the authenticated role stored in the context.
func GetRole(ctx context.Context) string {
	return stringValue(ctx, RoleKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// WithContext returns a logger enriched with whatever identity and trace
// fields the context carries.
func (l *Logger) WithContext(ctx context.Context) *logger.Logger {
	out := l.Logger
	if traceID := GetTraceID(ctx); traceID != "" {
		out = out.WithField("trace_id", traceID)
	}
	if userID := GetUserID(ctx); userID != "" {
		out = out.WithField("user_id", userID)
	}
	if role := GetRole(ctx); role != "" {
		out = out.WithField("role", role)
	}
	return out
}

// LogRequest emits one access-log line per handled request.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	l.WithContext(ctx).WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	}).Info("request handled")
}

// LogSecurityEvent records an auth or abuse-relevant event.
func (l *Logger) LogSecurityEvent(ctx context.Context, event string, details map[string]interface{}) {
	entry := l.WithContext(ctx).WithField("event", event)
	if len(details) > 0 {
		entry = entry.WithFields(details)
	}
	entry.Warn("security event")
}
