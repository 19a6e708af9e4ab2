package models

// Reading is one heart-rate value extracted from a telemetry line.
type Reading struct {
	HeartRate int `json:"heart_rate"` // BPM, always >= 0
}

// HistoryPoint is a single sample on the rolling chart window.
type HistoryPoint struct {
	Time      string `json:"time"` // mm:ss
	HeartRate int    `json:"heart_rate"`
	SpO2      int    `json:"spo2"`
}
