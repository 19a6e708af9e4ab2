package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"neurocalm/internal/models"
	"neurocalm/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// --- parseInterval unit tests ---

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil, nil)

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", 1 * time.Second},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_large", "/ws?interval=20s", 1 * time.Second},
		{"interval_ms_too_large", "/ws?interval_ms=20000", 1 * time.Second},
		{"interval_invalid_string", "/ws?interval=bogus", 1 * time.Second},
		{"interval_ms_invalid", "/ws?interval_ms=NaN", 1 * time.Second},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.u, nil)
			c, _ := gin.CreateTestContext(w)
			c.Request = req
			got := h.parseInterval(c)
			if got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

// --- websocket integration tests ---

type envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func dialWS(t *testing.T, srv *httptest.Server, path, rawQuery string) *websocket.Conn {
	t.Helper()
	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = path
	u.RawQuery = rawQuery

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	return conn
}

func TestWebSocket_StateStream_InitialAndPeriodic(t *testing.T) {
	mon := &mockMonitoring{snapshot: models.Snapshot{
		HeartRate: 88,
		SpO2:      97,
		State:     models.StateConnected,
		Connected: true,
		Transport: models.TransportNetworkSocket,
		History:   []models.HistoryPoint{{Time: "00:01", HeartRate: 88, SpO2: 97}},
	}}
	s := &service.Service{Monitoring: mon}

	r := gin.New()
	h := NewHandler(s, nil, nil)
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dialWS(t, srv, "/ws", "interval_ms=20") // fast ticks for the test
	defer conn.Close()

	// Read initial state
	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if env.Type != "state" || len(env.Data) == 0 {
		t.Fatalf("bad envelope: %+v", env)
	}
	var st models.Snapshot
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if st.HeartRate != 88 || st.SpO2 != 97 || !st.Connected || len(st.History) != 1 {
		t.Fatalf("unexpected state: %+v", st)
	}

	// Read a subsequent tick
	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	env = envelope{}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read second: %v", err)
	}
	if env.Type != "state" {
		t.Fatalf("expected type=state, got %+v", env)
	}
}

func TestWebSocket_PushesUpdates(t *testing.T) {
	mon := &mockMonitoring{
		updates:    make(chan models.Update, 4),
		subscribed: make(chan struct{}),
	}
	s := &service.Service{Monitoring: mon}

	r := gin.New()
	h := NewHandler(s, nil, nil)
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dialWS(t, srv, "/ws", "interval=10s")
	defer conn.Close()

	select {
	case <-mon.subscribed:
	case <-time.After(time.Second):
		t.Fatal("handler never subscribed")
	}

	hr := 95
	mon.updates <- models.Update{Type: models.UpdateReading, HeartRate: &hr, At: time.Now().UTC()}
	mon.updates <- models.Update{Type: models.UpdateNotice, Notice: "Device connection lost: EOF"}

	var got []models.Update
	deadline := time.Now().Add(2 * time.Second)
	for len(got) < 2 {
		_ = conn.SetReadDeadline(deadline)
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("read: %v", err)
		}
		if env.Type != "update" {
			continue
		}
		var u models.Update
		if err := json.Unmarshal(env.Data, &u); err != nil {
			t.Fatalf("unmarshal update: %v", err)
		}
		got = append(got, u)
	}

	if got[0].Type != models.UpdateReading || got[0].HeartRate == nil || *got[0].HeartRate != 95 {
		t.Fatalf("unexpected first update: %+v", got[0])
	}
	if got[1].Type != models.UpdateNotice || got[1].Notice != "Device connection lost: EOF" {
		t.Fatalf("unexpected second update: %+v", got[1])
	}
}

func TestWebSocket_ClosedSubscriptionEndsStream(t *testing.T) {
	updates := make(chan models.Update)
	close(updates)
	s := &service.Service{Monitoring: &mockMonitoring{updates: updates}}

	r := gin.New()
	h := NewHandler(s, nil, nil)
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	defer srv.Close()

	conn := dialWS(t, srv, "/ws", "interval=10s")
	defer conn.Close()

	// Initial state arrives, then the server closes.
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var raw json.RawMessage
	if err := conn.ReadJSON(&raw); err == nil {
		t.Fatalf("expected read error (closed), got message: %s", string(raw))
	}
}
