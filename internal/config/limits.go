package config

import "time"

const (
	// MaxSiteNameLength is the maximum length for site names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxSiteNameLength = 255

	// MaxTurnContentLength is the maximum length for a single chat turn.
	// Assistant turns can carry long explanations plus interactive
	// component data, so this is generous but still bounded.
	MaxTurnContentLength = 50000

	// MaxTranscriptTurns caps the in-memory transcript. Oldest turns are
	// dropped first once the cap is reached.
	MaxTranscriptTurns = 50

	// MaxStructureNodes bounds the site structure tree. Deeply nested or
	// enormous trees indicate a runaway client, not a real site plan.
	MaxStructureNodes = 200

	// DefaultGenerationTimeout bounds a single generation call. The external
	// model can take many minutes on a large site; the timeout is raced
	// against the call, not sequenced after it.
	DefaultGenerationTimeout = 30 * time.Minute

	// JobRetention is how long terminal (completed/failed) jobs stay
	// pollable before the passive sweep evicts them.
	JobRetention = time.Hour

	// AutosaveInterval is the cadence of background session saves once
	// restoration has completed.
	AutosaveInterval = 30 * time.Second
)
