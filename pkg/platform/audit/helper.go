package audit

import (
	"context"
	"log/slog"

	"dashgate/pkg/requestcontext"
)

// Emitter is the interface for audit event emission.
// Satisfied by publisher.Publisher.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Logger writes audit events to the text log and, when an emitter is set, to
// the audit store. A nil *Logger is a valid no-op.
type Logger struct {
	textLogger *slog.Logger
	emitter    Emitter
}

// NewLogger creates an audit logger. emitter is optional.
func NewLogger(textLogger *slog.Logger, emitter Emitter) *Logger {
	return &Logger{
		textLogger: textLogger,
		emitter:    emitter,
	}
}

// Log enriches event with request metadata from ctx, then logs and emits it.
func (l *Logger) Log(ctx context.Context, event Event) {
	if l == nil {
		return
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = requestcontext.UserAgent(ctx)
	}
	if event.Outcome == "" {
		event.Outcome = OutcomeSuccess
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}

	l.logToText(ctx, event)
	l.emitToAudit(ctx, event)
}

func (l *Logger) logToText(ctx context.Context, event Event) {
	if l.textLogger == nil {
		return
	}
	l.textLogger.InfoContext(ctx, event.Action,
		"event", event.Action,
		"log_type", "audit",
		"outcome", event.Outcome,
		"principal_id", event.PrincipalID,
		"session_id", event.SessionID,
		"subject", event.Subject,
		"reason", event.Reason,
		"request_id", event.RequestID,
	)
}

func (l *Logger) emitToAudit(ctx context.Context, event Event) {
	if l.emitter == nil {
		return
	}
	if err := l.emitter.Emit(ctx, event); err != nil && l.textLogger != nil {
		l.textLogger.ErrorContext(ctx, "failed to emit audit event",
			"error", err,
			"event", event.Action,
		)
	}
}
