// Package health tracks the liveness of the node's collaborators (NATS
// connection, durable log, message service) and serves the aggregate over
// HTTP next to the metrics endpoint.
package health

import "time"

// Component status values.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Status is the health of one collaborator or of the whole node.
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"`
	Status      string    `json:"status"`
	Message     string    `json:"message,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
}

// IsHealthy reports whether the status is healthy.
func (s Status) IsHealthy() bool { return s.Status == StatusHealthy }

// IsDegraded reports whether the status is degraded.
func (s Status) IsDegraded() bool { return s.Status == StatusDegraded }

// IsUnhealthy reports whether the status is unhealthy.
func (s Status) IsUnhealthy() bool { return s.Status == StatusUnhealthy }

// Healthy creates a healthy status for a component.
func Healthy(component, message string) Status {
	return Status{
		Component: component,
		Healthy:   true,
		Status:    StatusHealthy,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Degraded creates a degraded status for a component. Degraded components
// keep the node serving but flag reduced capability, for example a NATS
// connection in reconnect.
func Degraded(component, message string) Status {
	return Status{
		Component: component,
		Status:    StatusDegraded,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Unhealthy creates an unhealthy status for a component.
func Unhealthy(component, message string) Status {
	return Status{
		Component: component,
		Status:    StatusUnhealthy,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Aggregate folds component statuses into one node status. Any unhealthy
// component makes the node unhealthy; otherwise any degraded component
// makes it degraded.
func Aggregate(component string, subStatuses []Status) Status {
	if len(subStatuses) == 0 {
		return Healthy(component, "no components registered")
	}

	hasUnhealthy, hasDegraded := false, false
	for _, sub := range subStatuses {
		switch {
		case sub.IsUnhealthy():
			hasUnhealthy = true
		case sub.IsDegraded():
			hasDegraded = true
		}
	}

	var status Status
	switch {
	case hasUnhealthy:
		status = Unhealthy(component, "one or more components are unhealthy")
	case hasDegraded:
		status = Degraded(component, "one or more components are degraded")
	default:
		status = Healthy(component, "all components are healthy")
	}
	status.SubStatuses = make([]Status, len(subStatuses))
	copy(status.SubStatuses, subStatuses)
	return status
}
