package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santicomp2014/lumino/errors"
	"github.com/santicomp2014/lumino/transfer"
)

const testAddress = "0x0102030405060708090a0b0c0d0e0f1011121314"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "node.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, 5*time.Second, cfg.NATS.Timeout.Std())
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, "lumino-wal", cfg.Storage.Bucket)
	assert.Equal(t, 5, cfg.Routing.MaxPaths)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
node:
  address: "`+testAddress+`"
nats:
  url: nats://nats.internal:4222
  timeout: 10s
storage:
  backend: kv
  bucket: payments-wal
routing:
  max_paths: 3
log:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "nats://nats.internal:4222", cfg.NATS.URL)
	assert.Equal(t, 10*time.Second, cfg.NATS.Timeout.Std())
	// Unset fields keep their defaults.
	assert.Equal(t, 2*time.Second, cfg.NATS.ReconnectWait.Std())
	assert.Equal(t, StorageKV, cfg.Storage.Backend)
	assert.Equal(t, "payments-wal", cfg.Storage.Bucket)
	assert.Equal(t, 3, cfg.Routing.MaxPaths)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, errors.IsInvalid(err))
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, `
node:
  address: "`+testAddress+`"
nats:
  timeout: soon
`)
	_, err := Load(path)
	assert.True(t, errors.IsInvalid(err))
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "node: [not a mapping")
	_, err := Load(path)
	assert.True(t, errors.IsInvalid(err))
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Node.Address = testAddress

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid memory backend", func(*Config) {}, nil},
		{"missing address", func(c *Config) { c.Node.Address = "" }, errors.ErrMissingConfig},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "sqlite" }, errors.ErrInvalidConfig},
		{"kv without url", func(c *Config) {
			c.Storage.Backend = StorageKV
			c.NATS.URL = ""
		}, errors.ErrMissingConfig},
		{"kv without bucket", func(c *Config) {
			c.Storage.Backend = StorageKV
			c.Storage.Bucket = ""
		}, errors.ErrMissingConfig},
		{"negative max paths", func(c *Config) { c.Routing.MaxPaths = -1 }, errors.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, tt.wantErr))
			}
		})
	}
}

func TestNodeAddress(t *testing.T) {
	cfg := Default()

	cfg.Node.Address = testAddress
	addr, err := cfg.NodeAddress()
	require.NoError(t, err)
	assert.Equal(t, transfer.Address{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a,
		0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10, 0x11, 0x12, 0x13, 0x14,
	}, addr)

	// Unprefixed addresses are accepted too.
	cfg.Node.Address = testAddress[2:]
	_, err = cfg.NodeAddress()
	assert.NoError(t, err)

	cfg.Node.Address = "0xzz"
	_, err = cfg.NodeAddress()
	assert.True(t, errors.IsInvalid(err))

	cfg.Node.Address = "0x0102"
	_, err = cfg.NodeAddress()
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}
