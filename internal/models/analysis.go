package models

import "time"

// StressLevel is the category produced by the classifier.
type StressLevel string

const (
	StressNormal  StressLevel = "Normal"
	StressMild    StressLevel = "Mild Stress"
	StressHigh    StressLevel = "High Stress"
	StressUnknown StressLevel = "Unknown"
	StressNoData  StressLevel = "No Data"
)

// ClassificationResult is the outcome of one analysis request.
// It is replaced wholesale on every analysis, never edited.
type ClassificationResult struct {
	StressLevel StressLevel `json:"stress_level"`
	Reason      string      `json:"reason"`
	Suggestion  string      `json:"suggestion"`
	HeartRate   int         `json:"heart_rate"`
	SpO2        int         `json:"spo2"`
	AnalyzedAt  time.Time   `json:"analyzed_at"`
}
