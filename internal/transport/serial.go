package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"

	"neurocalm/internal/models"
)

const (
	DefaultBaudRate = 115200
	readBufferSize  = 1024
)

// serialPort is the subset of serial.Port the link needs.
type serialPort interface {
	io.ReadCloser
}

// PortLister enumerates available serial ports.
type PortLister func() ([]string, error)

type portOpener func(name string, mode *serial.Mode) (serialPort, error)

func openSerialPort(name string, mode *serial.Mode) (serialPort, error) {
	return serial.Open(name, mode)
}

// SerialOptions configures the local-link transport.
type SerialOptions struct {
	Port     string // empty: first enumerated port
	BaudRate int
}

// Serial is the local-link transport over a USB serial bridge.
type Serial struct {
	opts SerialOptions
	list PortLister
	open portOpener

	mu   sync.Mutex
	port serialPort
	name string
}

// NewSerial returns an unopened serial link.
func NewSerial(opts SerialOptions) *Serial {
	if opts.BaudRate <= 0 {
		opts.BaudRate = DefaultBaudRate
	}
	return &Serial{
		opts: opts,
		list: serial.GetPortsList,
		open: openSerialPort,
		name: opts.Port,
	}
}

func (s *Serial) Kind() models.TransportKind { return models.TransportLocalLink }

func (s *Serial) Describe() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.name == "" {
		return "serial:auto"
	}
	return "serial:" + s.name
}

// Open resolves the port name and opens it at the configured baud rate.
func (s *Serial) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name := s.opts.Port
	if name == "" {
		ports, err := s.list()
		if err != nil {
			return fmt.Errorf("enumerate serial ports: %w", err)
		}
		if len(ports) == 0 {
			return ErrNoDevice
		}
		name = ports[0]
	}

	port, err := s.open(name, &serial.Mode{
		BaudRate: s.opts.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		_ = port.Close()
		return err
	}

	s.mu.Lock()
	s.port = port
	s.name = name
	s.mu.Unlock()
	return nil
}

// Receive pulls chunks until EOF, a read error, Close, or ctx cancellation.
// Bytes are passed through as-is; a multi-byte character split across reads
// is reassembled by the line framer since '\n' never occurs inside one.
func (s *Serial) Receive(ctx context.Context, onData func(chunk string)) error {
	s.mu.Lock()
	port := s.port
	s.mu.Unlock()
	if port == nil {
		return ErrNotOpen
	}

	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	buf := make([]byte, readBufferSize)
	for {
		n, err := port.Read(buf)
		if n > 0 {
			onData(string(buf[:n]))
		}
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil || s.closed() {
				return nil
			}
			return fmt.Errorf("read %s: %w", s.Describe(), err)
		}
		if n == 0 && s.closed() {
			return nil
		}
	}
}

func (s *Serial) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port == nil
}

// Close releases the port. Closing an unopened or closed link is a no-op.
func (s *Serial) Close() error {
	s.mu.Lock()
	port := s.port
	s.port = nil
	s.mu.Unlock()
	if port == nil {
		return nil
	}
	return port.Close()
}

// ProbeSerial reports whether serial ports can be enumerated on this host.
func ProbeSerial(list PortLister) error {
	if list == nil {
		list = serial.GetPortsList
	}
	if _, err := list(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return nil
}
