package models

import "time"

// Session event types.
const (
	EventConnect    = "CONNECT"
	EventDisconnect = "DISCONNECT"
	EventError      = "ERROR"
	EventAnalysis   = "ANALYSIS"
	EventCalibrate  = "CALIBRATION"
)

// SessionEvent is a single entry of the in-memory session log.
type SessionEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // CONNECT | DISCONNECT | ERROR | ANALYSIS | CALIBRATION
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
