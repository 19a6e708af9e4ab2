package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"neurocalm/internal/logger"
	"neurocalm/internal/metrics"
	"neurocalm/internal/models"
	"neurocalm/internal/repository"
	"neurocalm/internal/telemetry"
	"neurocalm/internal/transport"
)

const DefaultReleaseTimeout = 2 * time.Second

var (
	ErrAlreadyActive   = errors.New("a device connection is already active or in progress")
	ErrTransportOpen   = errors.New("failed to open transport")
	ErrConnectCanceled = errors.New("connect canceled")

	ErrUnsupportedTransport = transport.ErrUnsupported
	ErrUnknownTransport     = transport.ErrUnknownKind
	ErrMissingEndpoint      = transport.ErrMissingEndpoint
	ErrMalformedEndpoint    = transport.ErrMalformedEndpoint
)

// ConnectParams selects the remote end for Connect.
type ConnectParams struct {
	Endpoint string // network-socket: host, host:port or ws(s):// URL
	Port     string // local-link: optional serial port override
}

type ConnectionOptions struct {
	MaxLineBytes   int
	ReleaseTimeout time.Duration
	Log            *logger.Logger
	Metrics        *metrics.Metrics
}

// ConnectionService is the connection state machine. It owns at most one
// transport at a time; received chunks are framed into lines and handed to
// the data callback in arrival order from a single read goroutine.
type ConnectionService struct {
	factory        transport.Factory
	events         repository.EventRepo
	log            *logger.Logger
	metrics        *metrics.Metrics
	maxLine        int
	releaseTimeout time.Duration

	mu        sync.Mutex
	state     models.ConnectionState
	kind      models.TransportKind
	id        string
	gen       uint64 // bumped whenever the current link is superseded
	tr        transport.Transport
	cancel    context.CancelFunc
	done      chan struct{} // closed once the link's goroutine work is over
	releasing bool

	cbMu     sync.RWMutex
	onData   func(line string)
	onState  func(models.StateChange)
	onNotice func(msg string)
	onReset  func()
}

func NewConnectionService(factory transport.Factory, events repository.EventRepo, opts ConnectionOptions) *ConnectionService {
	if opts.ReleaseTimeout <= 0 {
		opts.ReleaseTimeout = DefaultReleaseTimeout
	}
	return &ConnectionService{
		factory:        factory,
		events:         events,
		log:            logger.OrNop(opts.Log),
		metrics:        opts.Metrics,
		maxLine:        opts.MaxLineBytes,
		releaseTimeout: opts.ReleaseTimeout,
		state:          models.StateDisconnected,
	}
}

// OnData registers the receiver of framed lines. One receiver at a time.
func (s *ConnectionService) OnData(fn func(line string)) {
	s.cbMu.Lock()
	s.onData = fn
	s.cbMu.Unlock()
}

// OnStateChange registers the receiver of state transitions. It is called
// with the service lock held and must not call back into the service.
func (s *ConnectionService) OnStateChange(fn func(models.StateChange)) {
	s.cbMu.Lock()
	s.onState = fn
	s.cbMu.Unlock()
}

// OnNotice registers the receiver of user-visible failure messages.
func (s *ConnectionService) OnNotice(fn func(msg string)) {
	s.cbMu.Lock()
	s.onNotice = fn
	s.cbMu.Unlock()
}

// OnReset registers the receiver called when Disconnect has no link of its
// own to tear down. The receiver clears the current reading.
func (s *ConnectionService) OnReset(fn func()) {
	s.cbMu.Lock()
	s.onReset = fn
	s.cbMu.Unlock()
}

func (s *ConnectionService) State() models.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Kind returns the transport kind of the active link, or "" when disconnected.
func (s *ConnectionService) Kind() models.TransportKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kind
}

// Connect validates the request, opens the transport and starts the read
// loop. It returns once the link is Connected or the attempt failed.
// Connect never queues: a second attempt while one is in flight, connected
// or being released fails with ErrAlreadyActive.
func (s *ConnectionService) Connect(ctx context.Context, kind models.TransportKind, p ConnectParams) error {
	if !kind.Valid() {
		s.metrics.ConnectAttempt(kind, metrics.ResultRejected)
		return fmt.Errorf("%w: %q", ErrUnknownTransport, kind)
	}
	tr, err := s.factory.New(kind, transport.Params{Endpoint: p.Endpoint, Port: p.Port})
	if err != nil {
		result := metrics.ResultRejected
		if errors.Is(err, ErrUnsupportedTransport) {
			result = metrics.ResultUnsupported
		}
		s.metrics.ConnectAttempt(kind, result)
		return err
	}

	s.mu.Lock()
	if s.state != models.StateDisconnected || s.releasing {
		s.mu.Unlock()
		s.metrics.ConnectAttempt(kind, metrics.ResultRejected)
		return ErrAlreadyActive
	}
	s.gen++
	gen := s.gen
	linkCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	s.kind, s.id, s.tr, s.cancel, s.done = kind, uuid.NewString(), tr, cancel, done
	id := s.id
	s.setStateLocked(models.StateConnecting, false, "")
	s.mu.Unlock()

	s.log.Infow("connect_started", "connection_id", id, "transport", kind, "remote", tr.Describe())

	// The caller's ctx bounds the open only; the link itself outlives the request.
	stop := context.AfterFunc(ctx, cancel)
	openErr := tr.Open(linkCtx)
	stop()
	if openErr != nil || linkCtx.Err() != nil {
		_ = tr.Close()
	}

	s.mu.Lock()
	if s.gen != gen {
		// Disconnect took over while we were opening; it owns the state.
		s.mu.Unlock()
		_ = tr.Close()
		cancel()
		close(done)
		s.metrics.ConnectAttempt(kind, metrics.ResultCanceled)
		s.log.Infow("connect_canceled", "connection_id", id)
		return ErrConnectCanceled
	}
	if openErr != nil || linkCtx.Err() != nil {
		canceled := linkCtx.Err() != nil
		s.gen++
		s.clearLocked()
		reason := "canceled"
		if !canceled {
			reason = openErr.Error()
		}
		s.setStateLocked(models.StateDisconnected, false, reason)
		s.mu.Unlock()
		cancel()
		close(done)

		if canceled {
			s.metrics.ConnectAttempt(kind, metrics.ResultCanceled)
			s.log.Infow("connect_canceled", "connection_id", id)
			return ErrConnectCanceled
		}
		s.metrics.ConnectAttempt(kind, metrics.ResultFailed)
		s.log.Errorw("connect_failed", "connection_id", id, "transport", kind, "error", openErr)
		s.notify(fmt.Sprintf("Connection failed: %v", openErr))
		s.appendEvent(models.EventError, "Connection failed", map[string]any{
			"connection_id": id,
			"transport":     kind,
			"error":         openErr.Error(),
		})
		return fmt.Errorf("%w: %w", ErrTransportOpen, openErr)
	}
	s.setStateLocked(models.StateConnected, false, "")
	s.mu.Unlock()

	s.metrics.ConnectAttempt(kind, metrics.ResultConnected)
	s.log.Infow("connected", "connection_id", id, "transport", kind, "remote", tr.Describe())
	s.appendEvent(models.EventConnect, "Device connected", map[string]any{
		"connection_id": id,
		"transport":     kind,
		"remote":        tr.Describe(),
	})

	go s.readLoop(linkCtx, gen, id, kind, tr, done)
	return nil
}

// Disconnect tears down the active link, if any, and waits (bounded by the
// release timeout) for its read loop to finish. It is idempotent and never
// fails; release errors are logged. The current reading is cleared on every
// call, including when there is no link.
func (s *ConnectionService) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	if s.state == models.StateDisconnected {
		s.mu.Unlock()
		s.reset()
		return nil
	}
	if s.releasing {
		// Another release is in flight; wait for it instead of racing it.
		done := s.done
		s.mu.Unlock()
		s.wait(ctx, done, "")
		s.reset()
		return nil
	}
	s.releasing = true
	s.gen++
	tr, cancel, done, id, kind := s.tr, s.cancel, s.done, s.id, s.kind
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if tr != nil {
		if err := tr.Close(); err != nil {
			s.log.Warnw("release_failed", "connection_id", id, "transport", kind, "error", err)
		}
	}
	s.wait(ctx, done, id)

	s.mu.Lock()
	s.clearLocked()
	s.releasing = false
	s.setStateLocked(models.StateDisconnected, true, "disconnect requested")
	s.mu.Unlock()

	s.log.Infow("disconnected", "connection_id", id, "transport", kind)
	s.appendEvent(models.EventDisconnect, "Device disconnected", map[string]any{
		"connection_id": id,
		"transport":     kind,
		"explicit":      true,
	})
	return nil
}

func (s *ConnectionService) readLoop(ctx context.Context, gen uint64, id string, kind models.TransportKind, tr transport.Transport, done chan struct{}) {
	defer close(done)

	framer := telemetry.NewFramer(s.maxLine)
	overflows := 0
	err := tr.Receive(ctx, func(chunk string) {
		if !s.current(gen) {
			return
		}
		for _, line := range framer.Feed(chunk) {
			s.metrics.LineFramed()
			s.deliver(line)
		}
		if n := framer.Overflows(); n > overflows {
			s.metrics.FramerOverflow(n - overflows)
			s.log.Warnw("line_overflow", "connection_id", id, "dropped", n-overflows)
			overflows = n
		}
	})

	s.mu.Lock()
	if s.gen != gen {
		// Disconnect owns the release.
		s.mu.Unlock()
		return
	}
	s.gen++
	s.releasing = true
	cancel := s.cancel
	s.mu.Unlock()

	if closeErr := tr.Close(); closeErr != nil {
		s.log.Warnw("release_failed", "connection_id", id, "transport", kind, "error", closeErr)
	}
	if cancel != nil {
		cancel()
	}

	reason := "stream ended"
	if err != nil {
		reason = err.Error()
	}
	s.mu.Lock()
	s.clearLocked()
	s.releasing = false
	s.setStateLocked(models.StateDisconnected, false, reason)
	s.mu.Unlock()

	if err != nil {
		s.metrics.StreamEnded(kind, "error")
		s.log.Errorw("read_loop_failed", "connection_id", id, "transport", kind, "error", err)
		s.notify(fmt.Sprintf("Device connection lost: %v", err))
		s.appendEvent(models.EventError, "Device connection lost", map[string]any{
			"connection_id": id,
			"transport":     kind,
			"error":         err.Error(),
		})
		return
	}
	s.metrics.StreamEnded(kind, "eof")
	s.log.Infow("read_loop_ended", "connection_id", id, "transport", kind)
	s.appendEvent(models.EventDisconnect, "Device stream ended", map[string]any{
		"connection_id": id,
		"transport":     kind,
		"explicit":      false,
	})
}

// wait blocks until done is closed, the release timeout passes or ctx ends.
func (s *ConnectionService) wait(ctx context.Context, done <-chan struct{}, id string) {
	if done == nil {
		return
	}
	timer := time.NewTimer(s.releaseTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		s.log.Warnw("release_timeout", "connection_id", id, "timeout", s.releaseTimeout)
	case <-ctx.Done():
		s.log.Warnw("release_abandoned", "connection_id", id, "error", ctx.Err())
	}
}

func (s *ConnectionService) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}

// clearLocked drops the link handles. Caller holds s.mu.
func (s *ConnectionService) clearLocked() {
	s.tr, s.cancel, s.done = nil, nil, nil
}

// setStateLocked records a transition and reports it. Caller holds s.mu,
// which keeps the listener's view in transition order.
func (s *ConnectionService) setStateLocked(to models.ConnectionState, explicit bool, reason string) {
	from := s.state
	s.state = to
	change := models.StateChange{
		ConnectionID: s.id,
		Transport:    s.kind,
		From:         from,
		To:           to,
		Explicit:     explicit,
		Reason:       reason,
		At:           time.Now().UTC(),
	}
	if to == models.StateDisconnected {
		s.kind, s.id = "", ""
	}
	s.metrics.SetConnectionState(to)

	s.cbMu.RLock()
	fn := s.onState
	s.cbMu.RUnlock()
	if fn != nil {
		fn(change)
	}
}

func (s *ConnectionService) deliver(line string) {
	s.cbMu.RLock()
	fn := s.onData
	s.cbMu.RUnlock()
	if fn != nil {
		fn(line)
	}
}

func (s *ConnectionService) notify(msg string) {
	s.cbMu.RLock()
	fn := s.onNotice
	s.cbMu.RUnlock()
	if fn != nil {
		fn(msg)
	}
}

func (s *ConnectionService) reset() {
	s.cbMu.RLock()
	fn := s.onReset
	s.cbMu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (s *ConnectionService) appendEvent(typ, desc string, meta map[string]any) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.events.Append(ctx, models.SessionEvent{
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	}); err != nil {
		s.log.Warnw("event_append_failed", "type", typ, "error", err)
	}
}
