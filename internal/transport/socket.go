package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"neurocalm/internal/models"
)

const (
	DefaultDialTimeout = 5 * time.Second
	closeWriteWait     = time.Second
	maxMessageSize     = 1 << 16 // 64 KB
)

// Socket is the network-socket transport: a websocket client to the device.
// Each message is one or more complete lines; a message without a trailing
// newline is terminated so that message boundaries frame lines.
type Socket struct {
	url    string
	dialer *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewSocket returns an unopened socket link to url (already normalized).
func NewSocket(url string, dialTimeout time.Duration) *Socket {
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	return &Socket{
		url:    url,
		dialer: &websocket.Dialer{HandshakeTimeout: dialTimeout},
	}
}

func (s *Socket) Kind() models.TransportKind { return models.TransportNetworkSocket }

func (s *Socket) Describe() string { return s.url }

// Open dials the device and waits for the websocket handshake.
func (s *Socket) Open(ctx context.Context) error {
	conn, resp, err := s.dialer.DialContext(ctx, s.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("dial %s: %w", s.url, err)
	}
	conn.SetReadLimit(maxMessageSize)

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	return nil
}

// Receive reads messages until the peer closes, an error occurs, Close is
// called or ctx is canceled.
func (s *Socket) Receive(ctx context.Context, onData func(chunk string)) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotOpen
	}

	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
				ctx.Err() != nil || s.closed() {
				return nil
			}
			return fmt.Errorf("read %s: %w", s.url, err)
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		chunk := string(data)
		if !strings.HasSuffix(chunk, "\n") {
			chunk += "\n"
		}
		onData(chunk)
	}
}

func (s *Socket) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn == nil
}

// Close sends a close frame (best effort) and releases the connection.
func (s *Socket) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn == nil {
		return nil
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	werr := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteWait))
	if errors.Is(werr, websocket.ErrCloseSent) {
		werr = nil
	}
	if err := conn.Close(); err != nil {
		return err
	}
	if werr != nil && !isClosedConnErr(werr) {
		return werr
	}
	return nil
}

// isClosedConnErr matches writes on a connection the peer already dropped.
func isClosedConnErr(err error) bool {
	return strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset")
}
