// Package config loads the service configuration from configs/config.yml,
// NEUROCALM_* environment variables and built-in defaults, in that order of
// precedence (env wins).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "NEUROCALM"

type Config struct {
	Port        string            `mapstructure:"port"`
	Log         LogConfig         `mapstructure:"log"`
	DB          DBConfig          `mapstructure:"db"`
	History     HistoryConfig     `mapstructure:"history"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
	Analysis    AnalysisConfig    `mapstructure:"analysis"`
	Calibration CalibrationConfig `mapstructure:"calibration"`
	Serial      SerialConfig      `mapstructure:"serial"`
	Socket      SocketConfig      `mapstructure:"socket"`
	Connection  ConnectionConfig  `mapstructure:"connection"`
	Simulator   SimulatorConfig   `mapstructure:"simulator"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DBConfig points at the session event log. ":memory:" keeps it process-local.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

type HistoryConfig struct {
	Length int `mapstructure:"length"`
}

type TelemetryConfig struct {
	MaxLineBytes int `mapstructure:"max_line_bytes"`
}

type AnalysisConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

type CalibrationConfig struct {
	DefaultSpO2 int `mapstructure:"default_spo2"`
}

type SerialConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Port     string `mapstructure:"port"` // empty: first enumerated port
	BaudRate int    `mapstructure:"baud_rate"`
}

type SocketConfig struct {
	DefaultPort int           `mapstructure:"default_port"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type ConnectionConfig struct {
	ReleaseTimeout time.Duration `mapstructure:"release_timeout"`
}

type SimulatorConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Port     string        `mapstructure:"port"`
	Interval time.Duration `mapstructure:"interval"`
}

// setDefaults registers every key so env overrides work without a file entry.
func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", ":memory:")
	v.SetDefault("history.length", 30)
	v.SetDefault("telemetry.max_line_bytes", 4096)
	v.SetDefault("analysis.delay", 600*time.Millisecond)
	v.SetDefault("calibration.default_spo2", 98)
	v.SetDefault("serial.enabled", true)
	v.SetDefault("serial.port", "")
	v.SetDefault("serial.baud_rate", 115200)
	v.SetDefault("socket.default_port", 81)
	v.SetDefault("socket.dial_timeout", 5*time.Second)
	v.SetDefault("connection.release_timeout", 2*time.Second)
	v.SetDefault("simulator.enabled", false)
	v.SetDefault("simulator.port", "81")
	v.SetDefault("simulator.interval", time.Second)
}

// Load reads config.yml from the given search paths. A missing file is not
// an error; defaults and environment still apply.
func Load(paths ...string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot run with.
func (c Config) Validate() error {
	if c.History.Length < 1 {
		return fmt.Errorf("history.length must be >= 1, got %d", c.History.Length)
	}
	if c.Telemetry.MaxLineBytes < 0 {
		return fmt.Errorf("telemetry.max_line_bytes must be >= 0, got %d", c.Telemetry.MaxLineBytes)
	}
	if c.Calibration.DefaultSpO2 < 80 || c.Calibration.DefaultSpO2 > 100 {
		return fmt.Errorf("calibration.default_spo2 must be within [80,100], got %d", c.Calibration.DefaultSpO2)
	}
	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("serial.baud_rate must be > 0, got %d", c.Serial.BaudRate)
	}
	if c.Socket.DefaultPort <= 0 || c.Socket.DefaultPort > 65535 {
		return fmt.Errorf("socket.default_port out of range: %d", c.Socket.DefaultPort)
	}
	if c.Analysis.Delay < 0 {
		return fmt.Errorf("analysis.delay must be >= 0, got %s", c.Analysis.Delay)
	}
	return nil
}
