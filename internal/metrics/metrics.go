// Package metrics exposes Prometheus collectors for the telemetry pipeline.
// All recording methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"neurocalm/internal/models"
)

const namespace = "neurocalm"

// Connect attempt outcomes.
const (
	ResultConnected   = "connected"
	ResultRejected    = "rejected"
	ResultFailed      = "failed"
	ResultCanceled    = "canceled"
	ResultUnsupported = "unsupported"
)

type Metrics struct {
	registry *prometheus.Registry

	linesFramed     prometheus.Counter
	linesIgnored    prometheus.Counter
	readingsParsed  prometheus.Counter
	framerOverflows prometheus.Counter
	heartRate       prometheus.Gauge
	connectAttempts *prometheus.CounterVec
	streamEnds      *prometheus.CounterVec
	connectionState *prometheus.GaugeVec
	analyses        *prometheus.CounterVec
}

// New builds the collectors on a private registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		linesFramed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telemetry",
			Name:      "lines_total",
			Help:      "Complete telemetry lines produced by the framer",
		}),
		linesIgnored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telemetry",
			Name:      "lines_ignored_total",
			Help:      "Lines that carried no heart-rate reading",
		}),
		readingsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telemetry",
			Name:      "readings_total",
			Help:      "Heart-rate readings accepted",
		}),
		framerOverflows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telemetry",
			Name:      "framer_overflows_total",
			Help:      "Partial lines dropped for exceeding the carry-over cap",
		}),
		heartRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "telemetry",
			Name:      "heart_rate_bpm",
			Help:      "Most recent heart rate, 0 when no reading",
		}),
		connectAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "attempts_total",
			Help:      "Connect attempts by transport and outcome",
		}, []string{"transport", "result"}),
		streamEnds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "stream_ends_total",
			Help:      "Read loops that ended on their own, by transport and cause",
		}, []string{"transport", "cause"}),
		connectionState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "state",
			Help:      "1 for the current connection state, 0 otherwise",
		}, []string{"state"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "results_total",
			Help:      "Completed analyses by stress level",
		}, []string{"level"}),
	}

	m.registry.MustRegister(
		m.linesFramed,
		m.linesIgnored,
		m.readingsParsed,
		m.framerOverflows,
		m.heartRate,
		m.connectAttempts,
		m.streamEnds,
		m.connectionState,
		m.analyses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.SetConnectionState(models.StateDisconnected)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) LineFramed() {
	if m == nil {
		return
	}
	m.linesFramed.Inc()
}

func (m *Metrics) LineIgnored() {
	if m == nil {
		return
	}
	m.linesIgnored.Inc()
}

func (m *Metrics) ReadingParsed(heartRate int) {
	if m == nil {
		return
	}
	m.readingsParsed.Inc()
	m.heartRate.Set(float64(heartRate))
}

func (m *Metrics) SetHeartRate(heartRate int) {
	if m == nil {
		return
	}
	m.heartRate.Set(float64(heartRate))
}

func (m *Metrics) FramerOverflow(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.framerOverflows.Add(float64(n))
}

func (m *Metrics) ConnectAttempt(kind models.TransportKind, result string) {
	if m == nil {
		return
	}
	m.connectAttempts.WithLabelValues(string(kind), result).Inc()
}

// StreamEnded records a read loop that finished without a Disconnect call;
// cause is "eof" or "error".
func (m *Metrics) StreamEnded(kind models.TransportKind, cause string) {
	if m == nil {
		return
	}
	m.streamEnds.WithLabelValues(string(kind), cause).Inc()
}

func (m *Metrics) SetConnectionState(state models.ConnectionState) {
	if m == nil {
		return
	}
	for _, s := range []models.ConnectionState{models.StateDisconnected, models.StateConnecting, models.StateConnected} {
		v := 0.0
		if s == state {
			v = 1
		}
		m.connectionState.WithLabelValues(string(s)).Set(v)
	}
}

func (m *Metrics) Analysis(level models.StressLevel) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(string(level)).Inc()
}
