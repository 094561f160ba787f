package repositories

import (
	"context"
	"encoding/json"
	"time"
)

// TurnRecord is the storage shape of one transcript turn. Selection payloads
// are stored opaquely; the restore path decodes and coerces them.
type TurnRecord struct {
	ID                  string
	Role                string
	Content             string
	CreatedAt           time.Time
	Selection           json.RawMessage
	InteractionConsumed bool
}

// SessionRecord is the storage shape of one conversation session: the
// transcript, the brief and the phase for a single target. The brief is kept
// as raw JSON so a partially failed serialization upstream can still save
// the fields that did marshal.
type SessionRecord struct {
	ID        string
	SiteName  string
	Brief     json.RawMessage
	Phase     string
	UpdatedAt time.Time
	Turns     []TurnRecord
}

// SessionRepository round-trips sessions to durable storage.
type SessionRepository interface {
	// Create inserts a new session row with no turns.
	Create(ctx context.Context, record *SessionRecord) error

	// Save overwrites the session's brief, phase and transcript in one
	// transaction.
	Save(ctx context.Context, record *SessionRecord) error

	// SaveBriefAndPhase is the degraded save used when the transcript could
	// not be serialized: it updates only the session row, leaving previously
	// stored turns untouched.
	SaveBriefAndPhase(ctx context.Context, id string, brief json.RawMessage, phase string) error

	// Get loads a session with its turns in chronological order.
	// Returns domain.ErrNotFound when the session does not exist.
	Get(ctx context.Context, id string) (*SessionRecord, error)
}
