// Package history keeps the bounded rolling window of heart-rate samples
// that backs the live chart.
package history

import (
	"sync"
	"time"

	"neurocalm/internal/models"
)

const (
	// DefaultCapacity matches the chart window of the dashboard.
	DefaultCapacity = 30

	// TimeLayout renders a sample time as a zero-padded minute:second label.
	TimeLayout = "04:05"

	seedInterval = time.Second
)

// Buffer is a fixed-capacity, time-ordered sequence of samples.
// Appends beyond capacity evict the oldest sample first.
type Buffer struct {
	mu       sync.RWMutex
	points   []models.HistoryPoint // ring storage, len == capacity once full
	head     int                   // index of the oldest point
	size     int
	capacity int
	now      func() time.Time
}

// Option customizes a Buffer.
type Option func(*Buffer)

// WithClock replaces the wall clock used to stamp samples.
func WithClock(now func() time.Time) Option {
	return func(b *Buffer) {
		if now != nil {
			b.now = now
		}
	}
}

// New returns an empty buffer. Capacities below 1 are raised to 1.
func New(capacity int, opts ...Option) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	b := &Buffer{
		points:   make([]models.HistoryPoint, capacity),
		capacity: capacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Initialize fills the buffer with zero-valued samples stamped one second
// apart, the newest one second before now, so the chart has a full-width
// baseline before any data arrives. Existing samples are discarded.
func (b *Buffer) Initialize() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.head, b.size = 0, 0
	for i := b.capacity; i > 0; i-- {
		b.push(models.HistoryPoint{
			Time: now.Add(-time.Duration(i) * seedInterval).Format(TimeLayout),
		})
	}
}

// Append stamps a sample with the current time and adds it as the newest
// entry, dropping the oldest one when the buffer is full.
func (b *Buffer) Append(heartRate, spo2 int) models.HistoryPoint {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := models.HistoryPoint{
		Time:      b.now().Format(TimeLayout),
		HeartRate: heartRate,
		SpO2:      spo2,
	}
	b.push(p)
	return p
}

// push must be called with mu held.
func (b *Buffer) push(p models.HistoryPoint) {
	if b.size < b.capacity {
		b.points[(b.head+b.size)%b.capacity] = p
		b.size++
		return
	}
	// full: overwrite the oldest slot and advance head
	b.points[b.head] = p
	b.head = (b.head + 1) % b.capacity
}

// Snapshot returns the samples oldest first. The slice is a copy.
func (b *Buffer) Snapshot() []models.HistoryPoint {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]models.HistoryPoint, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.points[(b.head+i)%b.capacity]
	}
	return out
}

// Len returns the number of stored samples.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int {
	return b.capacity
}
