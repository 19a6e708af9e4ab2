package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":memory:", cfg.DB.Path)
	assert.Equal(t, 30, cfg.History.Length)
	assert.Equal(t, 4096, cfg.Telemetry.MaxLineBytes)
	assert.Equal(t, 600*time.Millisecond, cfg.Analysis.Delay)
	assert.Equal(t, 98, cfg.Calibration.DefaultSpO2)
	assert.True(t, cfg.Serial.Enabled)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, 81, cfg.Socket.DefaultPort)
	assert.Equal(t, 5*time.Second, cfg.Socket.DialTimeout)
	assert.Equal(t, 2*time.Second, cfg.Connection.ReleaseTimeout)
	assert.False(t, cfg.Simulator.Enabled)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yml := []byte(`
port: "9000"
history:
  length: 60
analysis:
  delay: 250ms
serial:
  port: /dev/ttyUSB0
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), yml, 0o600))
	t.Setenv("NEUROCALM_HISTORY_LENGTH", "45")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 45, cfg.History.Length)
	assert.Equal(t, 250*time.Millisecond, cfg.Analysis.Delay)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
}

func TestLoad_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("calibration:\n  default_spo2: 70\n"), 0o600))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_spo2")
}

func TestValidate(t *testing.T) {
	base := Config{
		History:     HistoryConfig{Length: 30},
		Calibration: CalibrationConfig{DefaultSpO2: 98},
		Serial:      SerialConfig{BaudRate: 115200},
		Socket:      SocketConfig{DefaultPort: 81},
	}
	require.NoError(t, base.Validate())

	bad := base
	bad.History.Length = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.Telemetry.MaxLineBytes = -1
	assert.Error(t, bad.Validate())

	bad = base
	bad.Socket.DefaultPort = 70000
	assert.Error(t, bad.Validate())

	bad = base
	bad.Serial.BaudRate = 0
	assert.Error(t, bad.Validate())
}
