package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	SessionID  ID
	ScenarioID ID
	ChoiceID   ID
)

// Constructors
func NewSessionID() SessionID   { return SessionID(NewID()) }
func NewScenarioID() ScenarioID { return ScenarioID(NewID()) }
func NewChoiceID() ChoiceID     { return ChoiceID(NewID()) }

// String conversions for domain IDs
func (id SessionID) String() string  { return ID(id).String() }
func (id ScenarioID) String() string { return ID(id).String() }
func (id ChoiceID) String() string   { return ID(id).String() }

// ParseSessionID validates a session identifier received from outside the engine.
// Session IDs are always UUIDs.
func ParseSessionID(s string) (SessionID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("session ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("invalid session ID %q: %w", s, err)
	}
	return SessionID(s), nil
}
