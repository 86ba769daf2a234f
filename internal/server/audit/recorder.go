package audit

import (
	"context"
	"sync"
	"time"
)

// Recorder is an in-memory Log. Tests use it to assert on emitted events.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.Time = time.Now().UTC()
	r.events = append(r.events, e)
}

func (r *Recorder) AuthenticationSuccess(_ context.Context, userID, email string) {
	r.add(Event{Type: EventAuthenticationSuccess, UserID: userID, Email: email})
}

func (r *Recorder) AuthenticationFailure(_ context.Context, email, reason string) {
	r.add(Event{Type: EventAuthenticationFailure, Email: email, Reason: reason})
}

func (r *Recorder) SecurityEvent(_ context.Context, eventType, userID, details string) {
	r.add(Event{Type: EventSecurity, Name: eventType, UserID: userID, Details: details})
}

func (r *Recorder) DataAccess(_ context.Context, operation, entity, userID, details string) {
	r.add(Event{Type: EventDataAccess, Operation: operation, Entity: entity, UserID: userID, Details: details})
}

func (r *Recorder) TimedOperation(_ context.Context, name string) *Span {
	r.add(Event{Type: EventOperationStarted, Name: name})
	return newSpan(time.Now(), time.Since, func(elapsed time.Duration) {
		r.add(Event{Type: EventOperationCompleted, Name: name, ElapsedMs: millis(elapsed)})
	})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events of type t, in order.
func (r *Recorder) OfType(t EventType) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
