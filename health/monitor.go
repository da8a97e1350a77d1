package health

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Monitor tracks component statuses. Safe for concurrent use.
type Monitor struct {
	node string

	mu       sync.RWMutex
	statuses map[string]Status
}

// NewMonitor creates a monitor reporting under the given node name.
func NewMonitor(node string) *Monitor {
	return &Monitor{
		node:     node,
		statuses: make(map[string]Status),
	}
}

// Update records the status for a named component.
func (m *Monitor) Update(name string, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status.Component = name
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}
	m.statuses[name] = status
}

// SetHealthy marks a component healthy.
func (m *Monitor) SetHealthy(name, message string) {
	m.Update(name, Healthy(name, message))
}

// SetDegraded marks a component degraded.
func (m *Monitor) SetDegraded(name, message string) {
	m.Update(name, Degraded(name, message))
}

// SetUnhealthy marks a component unhealthy.
func (m *Monitor) SetUnhealthy(name, message string) {
	m.Update(name, Unhealthy(name, message))
}

// Get returns the status recorded for a component.
func (m *Monitor) Get(name string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, ok := m.statuses[name]
	return status, ok
}

// Node returns the aggregate node status with components in stable order.
func (m *Monitor) Node() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.statuses))
	for name := range m.statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	subs := make([]Status, 0, len(names))
	for _, name := range names {
		subs = append(subs, m.statuses[name])
	}
	return Aggregate(m.node, subs)
}

// Handler serves the aggregate status as JSON. Unhealthy nodes answer 503
// so the endpoint doubles as a readiness probe.
func (m *Monitor) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status := m.Node()

		w.Header().Set("Content-Type", "application/json")
		if status.IsUnhealthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(status)
	})
}
