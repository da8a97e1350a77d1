package natsclient

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santicomp2014/lumino/errors"
)

func TestNew_Validation(t *testing.T) {
	_, err := New("")
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))

	_, err = New("nats://127.0.0.1:4222", WithLogger(nil))
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestNew_AppliesOptions(t *testing.T) {
	logger := slog.Default()
	client, err := New("nats://127.0.0.1:4222",
		WithLogger(logger),
		WithMaxReconnects(3),
		WithReconnectWait(time.Second),
		WithTimeout(2*time.Second),
		WithClientName("node-under-test"),
	)
	require.NoError(t, err)
	assert.Equal(t, 3, client.maxReconnects)
	assert.Equal(t, time.Second, client.reconnectWait)
	assert.Equal(t, 2*time.Second, client.timeout)
	assert.Equal(t, "node-under-test", client.clientName)
}

func TestKeyValue_RequiresConnection(t *testing.T) {
	client, err := New("nats://127.0.0.1:4222")
	require.NoError(t, err)

	_, err = client.KeyValue(context.Background(), "any")
	assert.True(t, errors.Is(err, errors.ErrNoConnection))
}

func TestClose_WithoutConnection(t *testing.T) {
	client, err := New("nats://127.0.0.1:4222")
	require.NoError(t, err)
	client.Close()
}
