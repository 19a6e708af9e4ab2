package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"neurocalm/internal/metrics"
	"neurocalm/internal/models"
	"neurocalm/internal/service"

	"github.com/gin-gonic/gin"
)

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{})
	w := doJSON(r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}
}

func TestGetStateAndHistory(t *testing.T) {
	points := []models.HistoryPoint{
		{Time: "00:01", HeartRate: 70, SpO2: 98},
		{Time: "00:02", HeartRate: 72, SpO2: 98},
	}
	mon := &mockMonitoring{
		snapshot: models.Snapshot{HeartRate: 72, SpO2: 98, State: models.StateDisconnected, History: points},
		history:  points,
	}
	r := newTestRouter(&service.Service{Monitoring: mon})

	w := doJSON(r, http.MethodGet, "/api/v1/device/state", "")
	if w.Code != http.StatusOK {
		t.Fatalf("state status=%d", w.Code)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.HeartRate != 72 || snap.State != models.StateDisconnected || len(snap.History) != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	w = doJSON(r, http.MethodGet, "/api/v1/device/history", "")
	var hist struct {
		Count  int                   `json:"count"`
		Points []models.HistoryPoint `json:"points"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &hist)
	if w.Code != http.StatusOK || hist.Count != 2 || hist.Points[1].HeartRate != 72 {
		t.Fatalf("history: %d %+v", w.Code, hist)
	}
}

func TestConnect_Success(t *testing.T) {
	conn := &mockConnection{}
	mon := &mockMonitoring{snapshot: models.Snapshot{State: models.StateConnected, Connected: true}}
	r := newTestRouter(&service.Service{Connection: conn, Monitoring: mon})

	w := doJSON(r, http.MethodPost, "/api/v1/device/connect",
		`{"transport":"network-socket","endpoint":"192.168.4.1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if conn.lastKind != models.TransportNetworkSocket || conn.lastParams.Endpoint != "192.168.4.1" {
		t.Fatalf("unexpected call: kind=%q params=%+v", conn.lastKind, conn.lastParams)
	}
	var out struct {
		Status string          `json:"status"`
		State  models.Snapshot `json:"state"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Status != "connected" || !out.State.Connected {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestConnect_LocalLinkPassesPort(t *testing.T) {
	conn := &mockConnection{}
	r := newTestRouter(&service.Service{Connection: conn, Monitoring: &mockMonitoring{}})

	w := doJSON(r, http.MethodPost, "/api/v1/device/connect", `{"transport":"local-link","port":" /dev/ttyUSB0 "}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if conn.lastKind != models.TransportLocalLink || conn.lastParams.Port != "/dev/ttyUSB0" {
		t.Fatalf("unexpected call: kind=%q params=%+v", conn.lastKind, conn.lastParams)
	}
}

func TestConnect_BadBody(t *testing.T) {
	conn := &mockConnection{}
	r := newTestRouter(&service.Service{Connection: conn, Monitoring: &mockMonitoring{}})

	for _, body := range []string{``, `{}`, `{"transport":`} {
		w := doJSON(r, http.MethodPost, "/api/v1/device/connect", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status=%d", body, w.Code)
		}
	}
	if conn.connectCalls != 0 {
		t.Fatalf("Connect called %d times on bad bodies", conn.connectCalls)
	}
}

func TestConnect_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"canceled", service.ErrConnectCanceled, http.StatusAccepted},
		{"unsupported", fmt.Errorf("%w: serial disabled", service.ErrUnsupportedTransport), http.StatusNotImplemented},
		{"unknown", service.ErrUnknownTransport, http.StatusBadRequest},
		{"missing_endpoint", service.ErrMissingEndpoint, http.StatusBadRequest},
		{"malformed_endpoint", service.ErrMalformedEndpoint, http.StatusBadRequest},
		{"already_active", service.ErrAlreadyActive, http.StatusConflict},
		{"open_failed", fmt.Errorf("%w: %w", service.ErrTransportOpen, errors.New("connection refused")), http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&service.Service{
				Connection: &mockConnection{connectErr: tc.err},
				Monitoring: &mockMonitoring{},
			})
			w := doJSON(r, http.MethodPost, "/api/v1/device/connect", `{"transport":"network-socket","endpoint":"x"}`)
			if w.Code != tc.want {
				t.Fatalf("status=%d, want %d (body=%s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestDisconnect_AlwaysOK(t *testing.T) {
	for _, derr := range []error{nil, errors.New("release timed out")} {
		conn := &mockConnection{disconnectErr: derr}
		mon := &mockMonitoring{snapshot: models.Snapshot{State: models.StateDisconnected}}
		r := newTestRouter(&service.Service{Connection: conn, Monitoring: mon})

		w := doJSON(r, http.MethodPost, "/api/v1/device/disconnect", "")
		if w.Code != http.StatusOK {
			t.Fatalf("err=%v: status=%d", derr, w.Code)
		}
		if conn.disconnectCalls != 1 {
			t.Fatalf("disconnect calls=%d", conn.disconnectCalls)
		}
		if !strings.Contains(w.Body.String(), `"disconnected"`) {
			t.Fatalf("body=%s", w.Body.String())
		}
	}
}

func TestSetCalibration(t *testing.T) {
	mon := &mockMonitoring{}
	r := newTestRouter(&service.Service{Monitoring: mon})

	w := doJSON(r, http.MethodPost, "/api/v1/device/calibration", `{"spo2":95}`)
	if w.Code != http.StatusOK || mon.lastSpO2 != 95 {
		t.Fatalf("status=%d lastSpO2=%d", w.Code, mon.lastSpO2)
	}

	w = doJSON(r, http.MethodPost, "/api/v1/device/calibration", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing spo2: status=%d", w.Code)
	}

	mon.calErr = fmt.Errorf("%w: got 70", service.ErrCalibrationOutOfRange)
	w = doJSON(r, http.MethodPost, "/api/v1/device/calibration", `{"spo2":70}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("out of range: status=%d", w.Code)
	}

	mon.calErr = errors.New("boom")
	w = doJSON(r, http.MethodPost, "/api/v1/device/calibration", `{"spo2":90}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("internal: status=%d", w.Code)
	}
}

func TestSetHeartRate(t *testing.T) {
	mon := &mockMonitoring{}
	r := newTestRouter(&service.Service{Monitoring: mon})

	// Zero is a valid value and must not be rejected as missing.
	w := doJSON(r, http.MethodPost, "/api/v1/device/heart-rate", `{"heart_rate":0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("zero: status=%d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPost, "/api/v1/device/heart-rate", `{"heart_rate":110}`)
	if w.Code != http.StatusOK || mon.lastHeartRate != 110 {
		t.Fatalf("status=%d last=%d", w.Code, mon.lastHeartRate)
	}

	mon.hrErr = fmt.Errorf("%w: got -1", service.ErrInvalidHeartRate)
	w = doJSON(r, http.MethodPost, "/api/v1/device/heart-rate", `{"heart_rate":-1}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("negative: status=%d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := NewHandler(&service.Service{}, nil, nil).InitRoutes()
	if w := doJSON(r, http.MethodGet, "/metrics", ""); w.Code != http.StatusNotFound {
		t.Fatalf("nil metrics: status=%d", w.Code)
	}

	m := metrics.New()
	m.SetHeartRate(81)
	r = NewHandler(&service.Service{}, nil, m).InitRoutes()
	w := doJSON(r, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "heart_rate_bpm 81") {
		t.Fatalf("heart rate gauge missing from exposition:\n%s", w.Body.String())
	}
}
