// Package tracer is a small tracing seam over OpenTelemetry so provider
// adapters can emit spans without importing otel APIs directly.
package tracer

import (
	"context"
	"time"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	// End completes the span; a non-nil err marks it failed.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute          { return Attribute{Key: key, Value: value} }
func Bool(key string, value bool) Attribute       { return Attribute{Key: key, Value: value} }
func Int(key string, value int) Attribute         { return Attribute{Key: key, Value: int64(value)} }
func Int64(key string, value int64) Attribute     { return Attribute{Key: key, Value: value} }
func Float64(key string, value float64) Attribute { return Attribute{Key: key, Value: value} }

// Duration records d in milliseconds.
func Duration(key string, d time.Duration) Attribute {
	return Attribute{Key: key, Value: d.Milliseconds()}
}

// Attribute keys for identity provider spans. Never attach emails, codes, or secrets.
const (
	AttrOperation    = "identity.operation"
	AttrHTTPMethod   = "http.method"
	AttrHTTPStatus   = "http.status_code"
	AttrErrorCode    = "identity.error_code"
	AttrBreakerState = "circuit.state"
)

// EventBreakerRejected marks a call refused locally by the open breaker.
const EventBreakerRejected = "circuit.rejected"
