package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"neurocalm/internal/classifier"
	"neurocalm/internal/logger"
	"neurocalm/internal/metrics"
	"neurocalm/internal/models"
	"neurocalm/internal/repository"
)

const DefaultAnalysisDelay = 600 * time.Millisecond

var ErrAnalysisInProgress = errors.New("an analysis is already in progress")

type AnalysisOptions struct {
	Delay   time.Duration
	Log     *logger.Logger
	Metrics *metrics.Metrics
}

type AnalysisService struct {
	monitor    *MonitoringService
	classifier *classifier.Classifier
	events     repository.EventRepo
	log        *logger.Logger
	metrics    *metrics.Metrics
	delay      time.Duration

	mu      sync.Mutex
	running bool
}

func NewAnalysisService(monitor *MonitoringService, c *classifier.Classifier, events repository.EventRepo, opts AnalysisOptions) *AnalysisService {
	if c == nil {
		c = classifier.New()
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	return &AnalysisService{
		monitor:    monitor,
		classifier: c,
		events:     events,
		log:        logger.OrNop(opts.Log),
		metrics:    opts.Metrics,
		delay:      opts.Delay,
	}
}

// Analyze classifies the reading current at call time. Without a live
// reading it resolves at once with the disconnected result; otherwise it
// waits the configured delay first. Only one analysis runs at a time.
func (s *AnalysisService) Analyze(ctx context.Context) (models.ClassificationResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return models.ClassificationResult{}, ErrAnalysisInProgress
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.monitor.SetAnalyzing(true)
	defer s.monitor.SetAnalyzing(false)

	hr, spo2, connected := s.monitor.Reading()

	var res models.ClassificationResult
	if !connected || hr == 0 {
		res = s.classifier.Disconnected(hr, spo2)
	} else {
		if s.delay > 0 {
			timer := time.NewTimer(s.delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return models.ClassificationResult{}, ctx.Err()
			}
		}
		res = s.classifier.Classify(hr, spo2)
	}

	s.monitor.StoreAnalysis(res)
	s.metrics.Analysis(res.StressLevel)
	s.log.Infow("analysis_completed", "heart_rate", hr, "spo2", spo2, "stress_level", res.StressLevel)

	if s.events != nil {
		if err := s.events.Append(context.WithoutCancel(ctx), models.SessionEvent{
			OccurredAt:  res.AnalyzedAt,
			Type:        models.EventAnalysis,
			Description: string(res.StressLevel),
			Metadata: map[string]any{
				"heart_rate":   hr,
				"spo2":         spo2,
				"stress_level": res.StressLevel,
				"reason":       res.Reason,
			},
		}); err != nil {
			s.log.Warnw("event_append_failed", "type", models.EventAnalysis, "error", err)
		}
	}
	return res, nil
}

func (s *AnalysisService) Latest() (models.ClassificationResult, bool) {
	return s.monitor.LatestAnalysis()
}
