package logger

import (
	"context"
	"time"
)

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds request-scoped logging fields.
type LogContext struct {
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	RequestID string    // API request id
	JobID     string    // permission job id
	Method    string    // operation name (filesystem.setacl, ...)
	ClientIP  string    // API client address, without port
	Subject   string    // authenticated API subject
	StartTime time.Time // for duration calculation
}

// WithContext returns a context carrying lc.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext returns the LogContext of ctx, or nil.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a LogContext for a request from clientIP.
func NewLogContext(clientIP string) *LogContext {
	return &LogContext{
		ClientIP:  clientIP,
		StartTime: time.Now(),
	}
}

// Clone returns a copy of lc.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithMethod returns a copy with the operation name set.
func (lc *LogContext) WithMethod(method string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Method = method
	}
	return clone
}

// WithJob returns a copy with the job id set.
func (lc *LogContext) WithJob(jobID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.JobID = jobID
	}
	return clone
}

// WithSubject returns a copy with the authenticated subject set.
func (lc *LogContext) WithSubject(subject string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Subject = subject
	}
	return clone
}

// WithTrace returns a copy with trace info set.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the time since StartTime in milliseconds.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}

// EnsureContext returns ctx with a LogContext, creating one if absent,
// and the LogContext itself.
func EnsureContext(ctx context.Context) (context.Context, *LogContext) {
	if lc := FromContext(ctx); lc != nil {
		return ctx, lc
	}
	lc := &LogContext{StartTime: time.Now()}
	return WithContext(ctx, lc), lc
}
