package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurocalm/internal/models"
)

func TestFactory_New(t *testing.T) {
	t.Parallel()

	okLister := func() ([]string, error) { return []string{"/dev/ttyUSB0"}, nil }

	f := NewFactory(FactoryOptions{SerialEnabled: true, SocketPort: 81, Lister: okLister})

	tr, err := f.New(models.TransportLocalLink, Params{Port: "/dev/ttyACM1"})
	require.NoError(t, err)
	assert.Equal(t, models.TransportLocalLink, tr.Kind())
	assert.Equal(t, "serial:/dev/ttyACM1", tr.Describe())

	tr, err = f.New(models.TransportNetworkSocket, Params{Endpoint: "192.168.4.1"})
	require.NoError(t, err)
	assert.Equal(t, models.TransportNetworkSocket, tr.Kind())
	assert.Equal(t, "ws://192.168.4.1:81", tr.Describe())

	_, err = f.New(models.TransportNetworkSocket, Params{})
	assert.ErrorIs(t, err, ErrMissingEndpoint)

	_, err = f.New("bluetooth", Params{})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestFactory_SerialUnsupported(t *testing.T) {
	t.Parallel()

	f := NewFactory(FactoryOptions{SerialEnabled: false})
	_, err := f.New(models.TransportLocalLink, Params{})
	assert.ErrorIs(t, err, ErrUnsupported)

	f = NewFactory(FactoryOptions{
		SerialEnabled: true,
		Lister:        func() ([]string, error) { return nil, errors.New("no serial subsystem") },
	})
	_, err = f.New(models.TransportLocalLink, Params{})
	assert.ErrorIs(t, err, ErrUnsupported)
}
