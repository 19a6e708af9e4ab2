// Package classifier maps a heart-rate reading to a stress category using
// the same fixed thresholds as the device firmware.
package classifier

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"neurocalm/internal/models"
)

// Thresholds in BPM. MildStress covers [MildStressMin, HighStressAbove].
const (
	MildStressMin   = 80
	HighStressAbove = 120
)

const (
	reasonNoData     = "Arduino/ESP32 not connected or sensor data invalid."
	reasonNormal     = "Heart rate (%d BPM) is within the normal resting range."
	reasonMildStress = "Heart rate is moderately elevated (%d BPM)."
	reasonHighStress = "Heart rate is significantly high (%d BPM) indicating stress."

	reasonDisconnected     = "Device disconnected or no heartbeat detected."
	suggestionDisconnected = "Please connect the ESP32 device and ensure sensor placement."
)

// Classifier draws suggestions from per-category phrase pools.
type Classifier struct {
	mu  sync.Mutex // guards rng
	rng *rand.Rand
	now func() time.Time
}

// Option customizes a Classifier.
type Option func(*Classifier)

// WithRand makes suggestion selection reproducible.
func WithRand(r *rand.Rand) Option {
	return func(c *Classifier) {
		if r != nil {
			c.rng = r
		}
	}
}

// WithClock overrides the timestamp source for results.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns a classifier seeded from the runtime's random source.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Level returns the category for heartRate. It is total over all ints.
func Level(heartRate int) models.StressLevel {
	switch {
	case heartRate <= 0:
		return models.StressNoData
	case heartRate < MildStressMin:
		return models.StressNormal
	case heartRate <= HighStressAbove:
		return models.StressMild
	default:
		return models.StressHigh
	}
}

// Reason returns the deterministic explanation for heartRate.
func Reason(heartRate int) string {
	switch Level(heartRate) {
	case models.StressNoData:
		return reasonNoData
	case models.StressNormal:
		return fmt.Sprintf(reasonNormal, heartRate)
	case models.StressMild:
		return fmt.Sprintf(reasonMildStress, heartRate)
	default:
		return fmt.Sprintf(reasonHighStress, heartRate)
	}
}

// Classify returns a fresh result for the reading. spo2 is reported but
// does not influence the category. The suggestion is drawn uniformly at
// random, so identical inputs may yield different suggestion text.
func (c *Classifier) Classify(heartRate, spo2 int) models.ClassificationResult {
	level := Level(heartRate)
	return models.ClassificationResult{
		StressLevel: level,
		Reason:      Reason(heartRate),
		Suggestion:  c.Suggest(level),
		HeartRate:   heartRate,
		SpO2:        spo2,
		AnalyzedAt:  c.now().UTC(),
	}
}

// Suggest picks a phrase for level. Levels without a pool use the Normal pool.
func (c *Classifier) Suggest(level models.StressLevel) string {
	pool := Suggestions(level)
	c.mu.Lock()
	i := c.rng.IntN(len(pool))
	c.mu.Unlock()
	return pool[i]
}

// Disconnected is the result reported when there is no live reading to
// classify: the link is down or the current heart rate is zero.
func (c *Classifier) Disconnected(heartRate, spo2 int) models.ClassificationResult {
	return models.ClassificationResult{
		StressLevel: models.StressNoData,
		Reason:      reasonDisconnected,
		Suggestion:  suggestionDisconnected,
		HeartRate:   heartRate,
		SpO2:        spo2,
		AnalyzedAt:  c.now().UTC(),
	}
}
