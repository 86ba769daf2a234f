package audit

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/google/uuid"
)

// Sink receives every security-relevant event after it has been logged.
type Sink interface {
	Write(ctx context.Context, e Event) error
}

// Logger writes audit events through a structured logger and fans them out
// to sinks. Sink failures are logged and otherwise ignored.
type Logger struct {
	log   logging.Logger
	sinks []Sink
	now   func() time.Time
}

func NewLogger(l logging.Logger, sinks ...Sink) *Logger {
	return &Logger{
		log:   l.With("module", "audit"),
		sinks: sinks,
		now:   time.Now,
	}
}

func (l *Logger) newEvent(t EventType) Event {
	return Event{ID: uuid.NewString(), Type: t, Time: l.now().UTC()}
}

func (l *Logger) dispatch(ctx context.Context, e Event) {
	for _, s := range l.sinks {
		if err := s.Write(ctx, e); err != nil {
			l.log.Error(ctx, "audit sink write failed", "event_id", e.ID, "error", err)
		}
	}
}

func (l *Logger) AuthenticationSuccess(ctx context.Context, userID, email string) {
	e := l.newEvent(EventAuthenticationSuccess)
	e.UserID, e.Email = userID, email
	l.log.Info(ctx, "authentication succeeded",
		"audit_event", e.Type, "event_id", e.ID, "user_id", userID, "email", email)
	l.dispatch(ctx, e)
}

func (l *Logger) AuthenticationFailure(ctx context.Context, email, reason string) {
	e := l.newEvent(EventAuthenticationFailure)
	e.Email, e.Reason = email, reason
	l.log.Warn(ctx, "authentication failed",
		"audit_event", e.Type, "event_id", e.ID, "email", email, "reason", reason)
	l.dispatch(ctx, e)
}

func (l *Logger) SecurityEvent(ctx context.Context, eventType, userID, details string) {
	e := l.newEvent(EventSecurity)
	e.Name, e.UserID, e.Details = eventType, userID, details
	l.log.Info(ctx, "security event",
		"audit_event", e.Type, "event_id", e.ID, "event_type", eventType, "user_id", userID, "details", details)
	l.dispatch(ctx, e)
}

func (l *Logger) DataAccess(ctx context.Context, operation, entity, userID, details string) {
	e := l.newEvent(EventDataAccess)
	e.Operation, e.Entity, e.UserID, e.Details = operation, entity, userID, details
	l.log.Info(ctx, "data access",
		"audit_event", e.Type, "event_id", e.ID, "operation", operation, "entity", entity, "user_id", userID, "details", details)
	l.dispatch(ctx, e)
}

func (l *Logger) TimedOperation(ctx context.Context, name string) *Span {
	started := l.newEvent(EventOperationStarted)
	started.Name = name
	l.log.Debug(ctx, "operation started",
		"audit_event", started.Type, "event_id", started.ID, "operation", name)
	l.dispatch(ctx, started)

	since := func(t time.Time) time.Duration { return l.now().Sub(t) }
	return newSpan(started.Time, since, func(elapsed time.Duration) {
		e := l.newEvent(EventOperationCompleted)
		e.Name, e.ElapsedMs = name, millis(elapsed)
		l.log.Info(ctx, "operation completed",
			"audit_event", e.Type, "event_id", e.ID, "operation", name, "elapsed_ms", e.ElapsedMs)
		l.dispatch(ctx, e)
	})
}
