package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name string
		subs []Status
		want string
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", []Status{
			Healthy("nats", ""), Healthy("service", ""),
		}, StatusHealthy},
		{"degraded wins over healthy", []Status{
			Healthy("service", ""), Degraded("nats", "reconnecting"),
		}, StatusDegraded},
		{"unhealthy wins over degraded", []Status{
			Degraded("nats", ""), Unhealthy("wal", "bucket unavailable"),
		}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate("node", tt.subs)
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, tt.want == StatusHealthy, got.Healthy)
			assert.Len(t, got.SubStatuses, len(tt.subs))
		})
	}
}

func TestMonitor_TracksComponents(t *testing.T) {
	m := NewMonitor("node")

	m.SetHealthy("nats", "connected")
	m.SetHealthy("service", "running")

	status, ok := m.Get("nats")
	require.True(t, ok)
	assert.True(t, status.IsHealthy())
	assert.Equal(t, "connected", status.Message)

	assert.True(t, m.Node().IsHealthy())

	m.SetUnhealthy("nats", "connection lost")
	node := m.Node()
	assert.True(t, node.IsUnhealthy())
	require.Len(t, node.SubStatuses, 2)
	// Components are reported in stable order.
	assert.Equal(t, "nats", node.SubStatuses[0].Component)
	assert.Equal(t, "service", node.SubStatuses[1].Component)
}

func TestMonitor_UpdateOverwritesName(t *testing.T) {
	m := NewMonitor("node")
	m.Update("wal", Healthy("something-else", "ok"))

	status, ok := m.Get("wal")
	require.True(t, ok)
	assert.Equal(t, "wal", status.Component)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHandler(t *testing.T) {
	m := NewMonitor("node")
	m.SetHealthy("nats", "connected")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "node", status.Component)
	assert.True(t, status.Healthy)

	m.SetUnhealthy("nats", "connection lost")
	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
