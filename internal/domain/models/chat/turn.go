package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid returns true for the three known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

// Turn is one message in the conversation transcript. Turns are append-only:
// after creation the only mutation is flipping InteractionConsumed, which
// prevents a selection from being re-applied when the transcript is replayed.
type Turn struct {
	ID                  string        `json:"id" db:"id"`
	Role                Role          `json:"role" db:"role"`
	Content             string        `json:"content" db:"content"`
	Timestamp           time.Time     `json:"timestamp" db:"created_at"`
	Selection           *SelectionRef `json:"selection,omitempty" db:"selection"`
	InteractionConsumed bool          `json:"interaction_consumed" db:"interaction_consumed"`
}

// NewTurn creates a turn with a fresh ID and the current time.
func NewTurn(role Role, content string) *Turn {
	return &Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}
