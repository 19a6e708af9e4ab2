package models

import "time"

// ConnectionState is the lifecycle state of the device link.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "DISCONNECTED"
	StateConnecting   ConnectionState = "CONNECTING"
	StateConnected    ConnectionState = "CONNECTED"
)

// TransportKind selects which of the two device links is used.
type TransportKind string

const (
	TransportLocalLink     TransportKind = "local-link"     // serial over USB
	TransportNetworkSocket TransportKind = "network-socket" // websocket
)

// Valid reports whether k names a supported transport kind.
func (k TransportKind) Valid() bool {
	return k == TransportLocalLink || k == TransportNetworkSocket
}

// StateChange describes one transition of the connection state machine.
type StateChange struct {
	ConnectionID string          `json:"connection_id,omitempty"`
	Transport    TransportKind   `json:"transport,omitempty"`
	From         ConnectionState `json:"from"`
	To           ConnectionState `json:"to"`
	Explicit     bool            `json:"explicit"` // caused by a Disconnect call
	Reason       string          `json:"reason,omitempty"`
	At           time.Time       `json:"at"`
}
