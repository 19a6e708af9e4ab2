package transport

import (
	"time"

	"neurocalm/internal/models"
)

// FactoryOptions configures DefaultFactory.
type FactoryOptions struct {
	SerialEnabled bool
	Serial        SerialOptions
	SocketPort    int // default port for bare hosts
	DialTimeout   time.Duration
	// Lister overrides serial port enumeration, used for the capability probe.
	Lister PortLister
}

// DefaultFactory builds the real serial and websocket links.
type DefaultFactory struct {
	opts FactoryOptions
}

func NewFactory(opts FactoryOptions) *DefaultFactory {
	return &DefaultFactory{opts: opts}
}

// New validates the request and returns an unopened transport.
func (f *DefaultFactory) New(kind models.TransportKind, p Params) (Transport, error) {
	switch kind {
	case models.TransportLocalLink:
		if !f.opts.SerialEnabled {
			return nil, ErrUnsupported
		}
		if err := ProbeSerial(f.opts.Lister); err != nil {
			return nil, err
		}
		so := f.opts.Serial
		if p.Port != "" {
			so.Port = p.Port
		}
		s := NewSerial(so)
		if f.opts.Lister != nil {
			s.list = f.opts.Lister
		}
		return s, nil

	case models.TransportNetworkSocket:
		url, err := NormalizeEndpoint(p.Endpoint, f.opts.SocketPort)
		if err != nil {
			return nil, err
		}
		return NewSocket(url, f.opts.DialTimeout), nil

	default:
		return nil, ErrUnknownKind
	}
}
