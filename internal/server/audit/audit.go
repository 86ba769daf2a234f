// Package audit records the security audit trail: authentication outcomes,
// account lifecycle events, data mutations and timed operation spans.
package audit

import (
	"context"
	"sync"
	"time"
)

// EventType classifies an audit Event.
type EventType string

const (
	EventAuthenticationSuccess EventType = "authentication_success"
	EventAuthenticationFailure EventType = "authentication_failure"
	EventSecurity              EventType = "security_event"
	EventDataAccess            EventType = "data_access"
	EventOperationStarted      EventType = "operation_started"
	EventOperationCompleted    EventType = "operation_completed"
)

// Event is one immutable audit record.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Time      time.Time `json:"time"`
	UserID    string    `json:"userId,omitempty"`
	Email     string    `json:"email,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Name      string    `json:"name,omitempty"`
	Operation string    `json:"operation,omitempty"`
	Entity    string    `json:"entity,omitempty"`
	Details   string    `json:"details,omitempty"`
	ElapsedMs float64   `json:"elapsedMs,omitempty"`
}

// Log is the audit capability consumed by services.
type Log interface {
	AuthenticationSuccess(ctx context.Context, userID, email string)
	AuthenticationFailure(ctx context.Context, email, reason string)
	SecurityEvent(ctx context.Context, eventType, userID, details string)
	DataAccess(ctx context.Context, operation, entity, userID, details string)

	// TimedOperation starts a span. Callers must End it, normally with defer:
	//
	//	defer log.TimedOperation(ctx, "Register").End()
	TimedOperation(ctx context.Context, name string) *Span
}

// Span measures one operation. End is idempotent.
type Span struct {
	start time.Time
	since func(time.Time) time.Duration
	done  func(elapsed time.Duration)
	once  sync.Once
}

func newSpan(start time.Time, since func(time.Time) time.Duration, done func(time.Duration)) *Span {
	return &Span{start: start, since: since, done: done}
}

// End reports the elapsed wall-clock time. Only the first call has effect.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.done(s.since(s.start))
	})
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
