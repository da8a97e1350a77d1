// Package config loads and validates the node's YAML configuration.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/santicomp2014/lumino/errors"
	"github.com/santicomp2014/lumino/transfer"
)

// Storage backend names for the durable log.
const (
	StorageMemory = "memory" // in-process only, lost on restart
	StorageKV     = "kv"     // NATS JetStream key-value bucket
)

// Config is the complete node configuration.
type Config struct {
	Node    NodeConfig    `yaml:"node"`
	NATS    NATSConfig    `yaml:"nats"`
	Storage StorageConfig `yaml:"storage"`
	Routing RoutingConfig `yaml:"routing"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// NodeConfig identifies the local node.
type NodeConfig struct {
	// Address is the node's hex-encoded 20-byte address, 0x-prefixed.
	Address string `yaml:"address"`
}

// Duration is a time.Duration that unmarshals from YAML duration strings
// such as "5s" or "250ms".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return errors.WrapInvalid(err, "config", "Duration", "decode duration")
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.WrapInvalid(err, "config", "Duration", "parse duration "+raw)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library form.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// NATSConfig configures the JetStream connection backing the durable log.
type NATSConfig struct {
	URL           string   `yaml:"url"`
	Timeout       Duration `yaml:"timeout"`
	ReconnectWait Duration `yaml:"reconnect_wait"`
	MaxReconnects int      `yaml:"max_reconnects"`
}

// StorageConfig selects and names the durable log backend.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Bucket  string `yaml:"bucket"`
}

// RoutingConfig bounds route resolution.
type RoutingConfig struct {
	MaxPaths int `yaml:"max_paths"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration used when a field is left unset.
func Default() Config {
	return Config{
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			Timeout:       Duration(5 * time.Second),
			ReconnectWait: Duration(2 * time.Second),
			MaxReconnects: -1,
		},
		Storage: StorageConfig{
			Backend: StorageMemory,
			Bucket:  "lumino-wal",
		},
		Routing: RoutingConfig{
			MaxPaths: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
	}
}

// Load reads and validates a YAML configuration file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.WrapInvalid(err, "config", "Load", "read "+path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.WrapInvalid(err, "config", "Load", "parse "+path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for usability.
func (c Config) Validate() error {
	if _, err := c.NodeAddress(); err != nil {
		return err
	}
	switch c.Storage.Backend {
	case StorageMemory:
	case StorageKV:
		if c.NATS.URL == "" {
			return errors.WrapInvalid(errors.ErrMissingConfig, "config", "Validate", "kv backend requires nats.url")
		}
		if c.Storage.Bucket == "" {
			return errors.WrapInvalid(errors.ErrMissingConfig, "config", "Validate", "kv backend requires storage.bucket")
		}
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate",
			fmt.Sprintf("unknown storage backend %q", c.Storage.Backend))
	}
	if c.Routing.MaxPaths < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Validate", "routing.max_paths must be >= 0")
	}
	return nil
}

// NodeAddress decodes the configured node address.
func (c Config) NodeAddress() (transfer.Address, error) {
	var addr transfer.Address
	raw := strings.TrimPrefix(c.Node.Address, "0x")
	if raw == "" {
		return addr, errors.WrapInvalid(errors.ErrMissingConfig, "config", "NodeAddress", "node.address is required")
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return addr, errors.WrapInvalid(err, "config", "NodeAddress", "decode node.address")
	}
	if len(decoded) != len(addr) {
		return addr, errors.WrapInvalid(errors.ErrInvalidConfig, "config", "NodeAddress",
			fmt.Sprintf("node.address must be %d bytes, got %d", len(addr), len(decoded)))
	}
	copy(addr[:], decoded)
	return addr, nil
}
