// Package transport provides the two device links behind one interface:
// a serial line (local-link) and a websocket client (network-socket).
package transport

import (
	"context"
	"errors"

	"neurocalm/internal/models"
)

var (
	ErrUnsupported       = errors.New("transport not supported in this environment")
	ErrUnknownKind       = errors.New("unknown transport kind")
	ErrMissingEndpoint   = errors.New("network-socket transport requires an endpoint")
	ErrMalformedEndpoint = errors.New("malformed endpoint")
	ErrNoDevice          = errors.New("no serial device found")
	ErrNotOpen           = errors.New("transport is not open")
)

// Transport is one device link. Open must succeed before Receive; Close may
// be called at any time, more than once, and unblocks a pending Receive.
type Transport interface {
	Kind() models.TransportKind
	// Describe names the remote end (port name or URL) for logs.
	Describe() string
	Open(ctx context.Context) error
	// Receive delivers raw text chunks to onData, in arrival order, until the
	// link ends. A clean end of data, a Close or a canceled ctx return nil.
	Receive(ctx context.Context, onData func(chunk string)) error
	Close() error
}

// Params selects the remote end of a link.
type Params struct {
	Endpoint string // network-socket: host, host:port or ws(s):// URL
	Port     string // local-link: optional serial port override
}

// Factory builds a transport for a connect request, validating the
// request before any I/O happens.
type Factory interface {
	New(kind models.TransportKind, p Params) (Transport, error)
}
