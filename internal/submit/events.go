package submit

import (
	"sync"
	"time"

	"transcreva/internal/domain"
)

// EventType classifies messages emitted during a submission run.
type EventType string

const (
	EventTypeStatus  EventType = "status"
	EventTypeToast   EventType = "toast"
	EventTypeLog     EventType = "log"
	EventTypeResult  EventType = "result"
	EventTypePrompts EventType = "prompts"
)

// Event is a sequenced payload consumed by UI subscribers.
type Event struct {
	Seq          int64         `json:"seq"`
	Timestamp    time.Time     `json:"timestamp"`
	SubmissionID string        `json:"submissionId,omitempty"`
	Type         EventType     `json:"type"`
	Status       domain.Status `json:"status,omitempty"`
	Label        string        `json:"label,omitempty"`
	Toast        *domain.Toast `json:"toast,omitempty"`
	Message      string        `json:"message,omitempty"`
	Command      string        `json:"command,omitempty"`
	Args         []string      `json:"args,omitempty"`
	ExitCode     int           `json:"exitCode,omitempty"`
	Stderr       string        `json:"stderr,omitempty"`
	VideoID      string        `json:"videoId,omitempty"`
}

// EventBus stores recent events and provides incremental reads.
type EventBus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
	notify    func(Event)
}

// NewEventBus creates a bounded in-memory event buffer.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// Notify registers a callback invoked for every published event, used to
// push events to the UI in addition to incremental reads.
func (b *EventBus) Notify(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notify = fn
}

// Publish appends one event and assigns sequence and timestamp.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}

	notify := b.notify
	b.mu.Unlock()

	if notify != nil {
		notify(event)
	}

	return event
}

// Since returns events with sequence strictly greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}
