package handlers

import (
	"context"
	"sync"
	"time"

	"neurocalm/internal/models"
	"neurocalm/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockConnection struct {
	connectErr    error
	disconnectErr error
	state         models.ConnectionState
	kind          models.TransportKind

	lastKind        models.TransportKind
	lastParams      service.ConnectParams
	connectCalls    int
	disconnectCalls int
}

func (m *mockConnection) Connect(ctx context.Context, kind models.TransportKind, p service.ConnectParams) error {
	m.connectCalls++
	m.lastKind = kind
	m.lastParams = p
	return m.connectErr
}
func (m *mockConnection) Disconnect(ctx context.Context) error {
	m.disconnectCalls++
	return m.disconnectErr
}
func (m *mockConnection) State() models.ConnectionState { return m.state }
func (m *mockConnection) Kind() models.TransportKind { return m.kind }

type mockMonitoring struct {
	mu       sync.Mutex
	snapshot models.Snapshot
	history  []models.HistoryPoint
	calErr   error
	hrErr    error
	updates  chan models.Update

	lastSpO2      int
	lastHeartRate int
	subscribed    chan struct{}
}

func (m *mockMonitoring) Snapshot() models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}
func (m *mockMonitoring) History() []models.HistoryPoint { return m.history }
func (m *mockMonitoring) SetCalibration(ctx context.Context, spo2 int) error {
	m.lastSpO2 = spo2
	return m.calErr
}
func (m *mockMonitoring) SetHeartRate(heartRate int) error {
	m.lastHeartRate = heartRate
	return m.hrErr
}
func (m *mockMonitoring) Subscribe() (<-chan models.Update, func()) {
	ch := m.updates
	if ch == nil {
		ch = make(chan models.Update)
	}
	if m.subscribed != nil {
		close(m.subscribed)
	}
	return ch, func() {}
}

type mockAnalysis struct {
	result  models.ClassificationResult
	err     error
	latest  *models.ClassificationResult
	calls   int
	lastCtx context.Context
}

func (m *mockAnalysis) Analyze(ctx context.Context) (models.ClassificationResult, error) {
	m.calls++
	m.lastCtx = ctx
	return m.result, m.err
}
func (m *mockAnalysis) Latest() (models.ClassificationResult, bool) {
	if m.latest == nil {
		return models.ClassificationResult{}, false
	}
	return *m.latest, true
}

type mockEventLog struct {
	resp     []models.SessionEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.SessionEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

type mockSimulator struct {
	lines chan string
}

func (m *mockSimulator) Run(ctx context.Context, tick time.Duration) {}
func (m *mockSimulator) Listen() (<-chan string, func()) {
	return m.lines, func() {}
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
