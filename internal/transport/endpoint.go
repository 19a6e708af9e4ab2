package transport

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// DefaultSocketPort is where the companion firmware serves its websocket.
const DefaultSocketPort = 81

// NormalizeEndpoint turns operator input into a websocket URL.
// ws:// and wss:// URLs are used verbatim. A bare host becomes
// ws://<host>:<defaultPort>; a bare host:port keeps its port.
func NormalizeEndpoint(endpoint string, defaultPort int) (string, error) {
	raw := strings.TrimSpace(endpoint)
	if raw == "" {
		return "", ErrMissingEndpoint
	}
	if defaultPort <= 0 {
		defaultPort = DefaultSocketPort
	}

	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "ws://") || strings.HasPrefix(lower, "wss://") {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return "", fmt.Errorf("%w: %q", ErrMalformedEndpoint, endpoint)
		}
		return raw, nil
	}
	if strings.Contains(raw, "://") {
		return "", fmt.Errorf("%w: %q: only ws:// and wss:// are supported", ErrMalformedEndpoint, endpoint)
	}
	if strings.ContainsAny(raw, " \t/?#@") {
		return "", fmt.Errorf("%w: %q", ErrMalformedEndpoint, endpoint)
	}

	u, err := url.Parse("ws://" + raw)
	if err != nil || u.Hostname() == "" {
		return "", fmt.Errorf("%w: %q", ErrMalformedEndpoint, endpoint)
	}
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(defaultPort))
	}
	return u.String(), nil
}
