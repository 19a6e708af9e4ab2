package service

import (
	"context"
	"time"

	"neurocalm/internal/classifier"
	"neurocalm/internal/logger"
	"neurocalm/internal/metrics"
	"neurocalm/internal/models"
	"neurocalm/internal/repository"
	"neurocalm/internal/transport"
)

// Connection owns the single device link.
type Connection interface {
	Connect(ctx context.Context, kind models.TransportKind, p ConnectParams) error
	Disconnect(ctx context.Context) error
	State() models.ConnectionState
	Kind() models.TransportKind
}

// Monitoring exposes the live readings and accepts operator adjustments.
type Monitoring interface {
	Snapshot() models.Snapshot
	History() []models.HistoryPoint
	SetCalibration(ctx context.Context, spo2 int) error
	SetHeartRate(heartRate int) error
	Subscribe() (<-chan models.Update, func())
}

// Analysis classifies the current reading on demand.
type Analysis interface {
	Analyze(ctx context.Context) (models.ClassificationResult, error)
	Latest() (models.ClassificationResult, bool)
}

// EventLog exposes the session log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.SessionEvent, error)
}

// Simulator emulates the device firmware for development without hardware.
// Stop via context cancellation in main() for graceful shutdown.
type Simulator interface {
	Run(ctx context.Context, tick time.Duration)
	Listen() (<-chan string, func())
}

type Service struct {
	Connection
	Monitoring
	Analysis
	EventLog
	Simulator
}

// Options carries the tunables and collaborators for NewService.
type Options struct {
	Factory        transport.Factory
	Log            *logger.Logger
	Metrics        *metrics.Metrics
	Classifier     *classifier.Classifier
	HistoryLength  int
	DefaultSpO2    int
	MaxLineBytes   int
	AnalysisDelay  time.Duration
	ReleaseTimeout time.Duration
}

// NewService wires the repository layer and the device link into the
// concrete services. Lines received on the link flow into monitoring;
// connection state changes are mirrored there as well.
func NewService(repos *repository.Repository, opts Options) *Service {
	log := logger.OrNop(opts.Log)

	monitoring := NewMonitoringService(repos.EventRepo, MonitoringOptions{
		HistoryLength: opts.HistoryLength,
		DefaultSpO2:   opts.DefaultSpO2,
		Log:           log.Named("monitoring"),
		Metrics:       opts.Metrics,
	})
	connection := NewConnectionService(opts.Factory, repos.EventRepo, ConnectionOptions{
		MaxLineBytes:   opts.MaxLineBytes,
		ReleaseTimeout: opts.ReleaseTimeout,
		Log:            log.Named("connection"),
		Metrics:        opts.Metrics,
	})
	connection.OnData(monitoring.HandleLine)
	connection.OnStateChange(monitoring.ConnectionChanged)
	connection.OnNotice(monitoring.Notify)
	connection.OnReset(monitoring.ResetHeartRate)

	analysis := NewAnalysisService(monitoring, opts.Classifier, repos.EventRepo, AnalysisOptions{
		Delay:   opts.AnalysisDelay,
		Log:     log.Named("analysis"),
		Metrics: opts.Metrics,
	})

	return &Service{
		Connection: connection,
		Monitoring: monitoring,
		Analysis:   analysis,
		EventLog:   NewEventLogService(repos.EventRepo),
		Simulator:  NewSimulatorService(log.Named("simulator")),
	}
}
