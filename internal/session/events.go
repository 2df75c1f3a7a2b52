package session

import (
	"moralsim/domain/core"
)

// EventType names a session lifecycle event pushed to listeners
type EventType string

const (
	EventScenarioPresented EventType = "scenario_presented"
	EventChoiceRecorded    EventType = "choice_recorded"
	EventSessionComplete   EventType = "session_complete"
	EventSessionReset      EventType = "session_reset"
)

// Event is a lifecycle notification
type Event struct {
	Type      EventType      `json:"type"`
	SessionID core.SessionID `json:"session_id"`
	Data      interface{}    `json:"data,omitempty"`
	Timestamp core.Timestamp `json:"timestamp"`
}

// Publisher receives session events. Implementations must not block.
type Publisher interface {
	Publish(Event)
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(Event)

func (f PublisherFunc) Publish(e Event) { f(e) }

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}
