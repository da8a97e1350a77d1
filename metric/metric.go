// Package metric defines the node core's Prometheus metrics: inbound
// message counters, drop reasons, state-change submissions, and handling
// duration.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Drop reasons used as the "reason" label on MessagesDropped.
const (
	ReasonUnknownKind      = "unknown_kind"
	ReasonInvalid          = "invalid"
	ReasonSecretRegistered = "secret_registered"
)

// Metrics holds the inbound-core metrics. All helper methods are nil-safe
// so components can run without a registry.
type Metrics struct {
	MessagesReceived   *prometheus.CounterVec
	MessagesDropped    *prometheus.CounterVec
	StateChanges       *prometheus.CounterVec
	ProcessingDuration *prometheus.HistogramVec
}

// NewMetrics creates the metric set and registers it with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		MessagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lumino",
				Subsystem: "messages",
				Name:      "received_total",
				Help:      "Total number of inbound protocol messages dispatched",
			},
			[]string{"kind"},
		),
		MessagesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lumino",
				Subsystem: "messages",
				Name:      "dropped_total",
				Help:      "Total number of inbound messages dropped without a state change",
			},
			[]string{"kind", "reason"},
		),
		StateChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lumino",
				Subsystem: "statechanges",
				Name:      "submitted_total",
				Help:      "Total number of state changes submitted to the pipeline",
			},
			[]string{"type"},
		),
		ProcessingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "lumino",
				Subsystem: "messages",
				Name:      "processing_duration_seconds",
				Help:      "Time spent handling one inbound message",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.MessagesReceived, m.MessagesDropped, m.StateChanges, m.ProcessingDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveReceived counts one dispatched message.
func (m *Metrics) ObserveReceived(kind string) {
	if m == nil {
		return
	}
	m.MessagesReceived.WithLabelValues(kind).Inc()
}

// ObserveDropped counts one dropped message.
func (m *Metrics) ObserveDropped(kind, reason string) {
	if m == nil {
		return
	}
	m.MessagesDropped.WithLabelValues(kind, reason).Inc()
}

// ObserveStateChange counts one submitted state change.
func (m *Metrics) ObserveStateChange(changeType string) {
	if m == nil {
		return
	}
	m.StateChanges.WithLabelValues(changeType).Inc()
}

// ObserveDuration records the handling time of one message.
func (m *Metrics) ObserveDuration(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProcessingDuration.WithLabelValues(kind).Observe(d.Seconds())
}
