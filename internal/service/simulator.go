package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"neurocalm/internal/logger"
)

// ----------- Emulated sensor constants -----------
const (
	RestingBPM     = 72.0  // value the walk drifts back to
	MinBPM         = 50.0  // lower clamp
	MaxBPM         = 150.0 // upper clamp
	MaxStepBPM     = 4.0   // largest change per tick
	RestoringForce = 0.05  // share of the distance to RestingBPM recovered per tick
	BeatEvery      = 3     // ticks between "Beat!" markers
	listenBacklog  = 16
)

// SimulatorService emulates the sensor firmware: every tick it produces a
// "Heart rate: NN.NN" line (and now and then a "Beat!" marker) for each
// listener, the same text the device streams over its websocket.
type SimulatorService struct {
	log *logger.Logger

	mu        sync.Mutex
	rng       *rand.Rand
	heartRate float64
	ticks     int

	subMu     sync.Mutex
	listeners map[int]chan string
	nextID    int
}

type SimulatorOption func(*SimulatorService)

// WithSimulatorRand makes the emulated readings reproducible.
func WithSimulatorRand(r *rand.Rand) SimulatorOption {
	return func(s *SimulatorService) {
		if r != nil {
			s.rng = r
		}
	}
}

// NewSimulatorService returns a simulator with defaults.
func NewSimulatorService(log *logger.Logger, opts ...SimulatorOption) *SimulatorService {
	s := &SimulatorService{
		log:       logger.OrNop(log),
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		heartRate: RestingBPM,
		listeners: make(map[int]chan string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks at the given interval until ctx is canceled.
func (s *SimulatorService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = time.Second
	}
	s.log.Infow("simulator_started", "interval", tick)
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Infow("simulator_stopped")
			return
		case <-t.C:
			for _, line := range s.step() {
				s.broadcast(line)
			}
		}
	}
}

// step advances the random walk by one tick and returns the lines to send.
func (s *SimulatorService) step() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	delta := (s.rng.Float64()*2 - 1) * MaxStepBPM
	s.heartRate += delta + (RestingBPM-s.heartRate)*RestoringForce
	s.heartRate = clampFloat(s.heartRate, MinBPM, MaxBPM)
	s.ticks++

	lines := make([]string, 0, 2)
	if s.ticks%BeatEvery == 0 {
		lines = append(lines, "Beat!")
	}
	return append(lines, fmt.Sprintf("Heart rate: %.2f", s.heartRate))
}

// Listen registers a consumer of emulated lines. Call the returned
// function to stop listening.
func (s *SimulatorService) Listen() (<-chan string, func()) {
	ch := make(chan string, listenBacklog)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.listeners, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *SimulatorService) broadcast(line string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.listeners {
		select {
		case ch <- line:
		default: // slow listener: drop, like a device that does not buffer
		}
	}
}

// helpers
func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
