package models

import "time"

// Snapshot is the read-only view handed to the presentation layer.
type Snapshot struct {
	HeartRate int                   `json:"heart_rate"`
	SpO2      int                   `json:"spo2"`
	State     ConnectionState       `json:"state"`
	Connected bool                  `json:"connected"`
	Transport TransportKind         `json:"transport,omitempty"`
	Analyzing bool                  `json:"analyzing"`
	Analysis  *ClassificationResult `json:"analysis,omitempty"`
	History   []HistoryPoint        `json:"history"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// Update types published to subscribers.
const (
	UpdateReading     = "reading"
	UpdateConnection  = "connection"
	UpdateCalibration = "calibration"
	UpdateAnalysis    = "analysis"
	UpdateNotice      = "notice"
)

// Update is a state-update message emitted by the core.
// Only the field matching Type is set.
type Update struct {
	Type       string                `json:"type"`
	HeartRate  *int                  `json:"heart_rate,omitempty"`
	SpO2       *int                  `json:"spo2,omitempty"`
	Point      *HistoryPoint         `json:"point,omitempty"`
	Connection *StateChange          `json:"connection,omitempty"`
	Analysis   *ClassificationResult `json:"analysis,omitempty"`
	Analyzing  *bool                 `json:"analyzing,omitempty"`
	Notice     string                `json:"notice,omitempty"`
	At         time.Time             `json:"at"`
}
