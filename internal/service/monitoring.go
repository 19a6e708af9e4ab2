package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"neurocalm/internal/history"
	"neurocalm/internal/logger"
	"neurocalm/internal/metrics"
	"neurocalm/internal/models"
	"neurocalm/internal/repository"
	"neurocalm/internal/telemetry"
)

const (
	MinSpO2           = 80
	MaxSpO2           = 100
	DefaultSpO2       = 98
	subscriberBacklog = 64
)

var (
	ErrCalibrationOutOfRange = fmt.Errorf("spo2 calibration must be within [%d, %d]", MinSpO2, MaxSpO2)
	ErrInvalidHeartRate      = errors.New("heart rate must be >= 0")
)

type MonitoringOptions struct {
	HistoryLength int
	DefaultSpO2   int
	Log           *logger.Logger
	Metrics       *metrics.Metrics
	Clock         func() time.Time
}

// MonitoringService owns the live view: current heart rate, calibration,
// rolling history, connection mirror and the latest analysis. Every change
// is published to subscribers in the order it was applied.
type MonitoringService struct {
	events  repository.EventRepo
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	history *history.Buffer

	mu        sync.RWMutex
	heartRate int
	spo2      int
	state     models.ConnectionState
	kind      models.TransportKind
	analyzing bool
	analysis  *models.ClassificationResult
	updatedAt time.Time

	subMu   sync.Mutex
	subs    map[int]chan models.Update
	nextSub int
}

func NewMonitoringService(events repository.EventRepo, opts MonitoringOptions) *MonitoringService {
	if opts.HistoryLength <= 0 {
		opts.HistoryLength = history.DefaultCapacity
	}
	if opts.DefaultSpO2 < MinSpO2 || opts.DefaultSpO2 > MaxSpO2 {
		opts.DefaultSpO2 = DefaultSpO2
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	buf := history.New(opts.HistoryLength, history.WithClock(opts.Clock))
	buf.Initialize()

	return &MonitoringService{
		events:    events,
		log:       logger.OrNop(opts.Log),
		metrics:   opts.Metrics,
		now:       opts.Clock,
		history:   buf,
		spo2:      opts.DefaultSpO2,
		state:     models.StateDisconnected,
		updatedAt: opts.Clock().UTC(),
		subs:      make(map[int]chan models.Update),
	}
}

// HandleLine consumes one framed telemetry line. Lines without a reading
// are dropped silently.
func (s *MonitoringService) HandleLine(line string) {
	r, ok := telemetry.Parse(line)
	if !ok {
		s.metrics.LineIgnored()
		return
	}
	s.metrics.ReadingParsed(r.HeartRate)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.heartRate = r.HeartRate
	spo2 := s.spo2
	point := s.history.Append(r.HeartRate, spo2)
	s.updatedAt = s.now().UTC()
	s.metrics.SetHeartRate(r.HeartRate)
	s.publish(models.Update{
		Type:      models.UpdateReading,
		HeartRate: &r.HeartRate,
		SpO2:      &spo2,
		Point:     &point,
		At:        s.updatedAt,
	})
}

func (s *MonitoringService) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := models.Snapshot{
		HeartRate: s.heartRate,
		SpO2:      s.spo2,
		State:     s.state,
		Connected: s.state == models.StateConnected,
		Transport: s.kind,
		Analyzing: s.analyzing,
		History:   s.history.Snapshot(),
		UpdatedAt: s.updatedAt,
	}
	if s.analysis != nil {
		a := *s.analysis
		snap.Analysis = &a
	}
	return snap
}

func (s *MonitoringService) History() []models.HistoryPoint {
	return s.history.Snapshot()
}

// SetCalibration changes the spo2 value stamped on subsequent history points.
func (s *MonitoringService) SetCalibration(ctx context.Context, spo2 int) error {
	if spo2 < MinSpO2 || spo2 > MaxSpO2 {
		return fmt.Errorf("%w: got %d", ErrCalibrationOutOfRange, spo2)
	}

	s.mu.Lock()
	prev := s.spo2
	s.spo2 = spo2
	s.updatedAt = s.now().UTC()
	s.publish(models.Update{Type: models.UpdateCalibration, SpO2: &spo2, At: s.updatedAt})
	s.mu.Unlock()

	s.log.Infow("calibration_changed", "from", prev, "to", spo2)
	if s.events != nil {
		if err := s.events.Append(ctx, models.SessionEvent{
			OccurredAt:  s.now().UTC(),
			Type:        models.EventCalibrate,
			Description: fmt.Sprintf("SpO2 calibration set to %d%%", spo2),
			Metadata:    map[string]any{"from": prev, "to": spo2},
		}); err != nil {
			s.log.Warnw("event_append_failed", "type", models.EventCalibrate, "error", err)
		}
	}
	return nil
}

// SetHeartRate overrides the current heart rate by hand. The history is
// left untouched; it only records device readings.
func (s *MonitoringService) SetHeartRate(heartRate int) error {
	if heartRate < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidHeartRate, heartRate)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heartRate = heartRate
	s.updatedAt = s.now().UTC()
	s.metrics.SetHeartRate(heartRate)
	s.publish(models.Update{Type: models.UpdateReading, HeartRate: &heartRate, At: s.updatedAt})
	return nil
}

// ConnectionChanged mirrors a connection transition. An explicit
// disconnect resets the heart rate to 0; a dropped link keeps the last value.
func (s *MonitoringService) ConnectionChanged(c models.StateChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = c.To
	s.kind = c.Transport
	if c.To == models.StateDisconnected {
		s.kind = ""
		if c.Explicit {
			s.resetHeartRateLocked(c.At)
		}
	}
	s.updatedAt = s.now().UTC()
	change := c
	s.publish(models.Update{Type: models.UpdateConnection, Connection: &change, At: c.At})
}

// ResetHeartRate sets the current heart rate to 0. Subscribers hear about it
// only when the value changes.
func (s *MonitoringService) ResetHeartRate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	if s.resetHeartRateLocked(now) {
		s.updatedAt = now
	}
}

// resetHeartRateLocked reports whether the value changed. Caller holds s.mu.
func (s *MonitoringService) resetHeartRateLocked(at time.Time) bool {
	if s.heartRate == 0 {
		return false
	}
	s.heartRate = 0
	zero := 0
	s.metrics.SetHeartRate(0)
	s.publish(models.Update{Type: models.UpdateReading, HeartRate: &zero, At: at})
	return true
}

// Notify publishes a user-visible message on the notification channel.
func (s *MonitoringService) Notify(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publish(models.Update{Type: models.UpdateNotice, Notice: msg, At: s.now().UTC()})
}

// Reading returns the values an analysis runs on.
func (s *MonitoringService) Reading() (heartRate, spo2 int, connected bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.heartRate, s.spo2, s.state == models.StateConnected
}

func (s *MonitoringService) SetAnalyzing(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.analyzing == on {
		return
	}
	s.analyzing = on
	s.publish(models.Update{Type: models.UpdateAnalysis, Analyzing: &on, At: s.now().UTC()})
}

// StoreAnalysis replaces the latest result wholesale.
func (s *MonitoringService) StoreAnalysis(r models.ClassificationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := r
	s.analysis = &stored
	s.updatedAt = s.now().UTC()
	out := r
	s.publish(models.Update{Type: models.UpdateAnalysis, Analysis: &out, At: s.updatedAt})
}

func (s *MonitoringService) LatestAnalysis() (models.ClassificationResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.analysis == nil {
		return models.ClassificationResult{}, false
	}
	return *s.analysis, true
}

// Subscribe returns a channel of updates and a function that ends the
// subscription. A subscriber that falls behind loses updates rather than
// stalling the pipeline.
func (s *MonitoringService) Subscribe() (<-chan models.Update, func()) {
	ch := make(chan models.Update, subscriberBacklog)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

// publish fans u out without blocking. Callers hold s.mu so updates leave
// in the order they were applied.
func (s *MonitoringService) publish(u models.Update) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- u:
		default:
			s.log.Debugw("subscriber_lagging", "subscriber", id, "type", u.Type)
		}
	}
}
