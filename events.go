package guauth

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// EventType classifies flow and client events.
type EventType string

const (
	// EventStepChanged fires on every state-machine transition.
	EventStepChanged EventType = "flow.step_changed"
	// EventFlowReset fires when the flow performs a full reset.
	EventFlowReset EventType = "flow.reset"
	// EventOTPRequested fires after an OTP request completes.
	EventOTPRequested EventType = "auth.otp_requested"
	// EventOTPVerified fires after an OTP verification completes.
	EventOTPVerified EventType = "auth.otp_verified"
	// EventUsernameChecked fires after a username-availability check that was
	// not cancelled completes.
	EventUsernameChecked EventType = "auth.username_checked"
	// EventRegistered fires after a registration attempt completes.
	EventRegistered EventType = "auth.registered"
	// EventLoggedIn fires after a login attempt completes.
	EventLoggedIn EventType = "auth.logged_in"
	// EventPasswordReset fires after a password-reset submission completes.
	EventPasswordReset EventType = "auth.password_reset"
	// EventLoggedOut fires when the session is cleared through logout.
	EventLoggedOut EventType = "auth.logged_out"
	// EventSessionCleared fires when a 401 response cleared the session.
	EventSessionCleared EventType = "auth.session_cleared"
)

// Event is one observation emitted by the client or the flow.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      EventType         `json:"event_type"`
	Step      Step              `json:"step,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// EventSink receives events from the asynchronous dispatcher.
type EventSink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink discards every event.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink forwards events to a buffered channel for in-process
// consumers.
type ChannelSink struct {
	events chan Event
}

// NewChannelSink returns a sink buffering up to buffer events.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events exposes the receiving side of the sink.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON line per event.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink returns a sink writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
