// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CircuitState is a circuit breaker's current position.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

// CircuitStatus is a point-in-time snapshot of one dependency's
// breaker, as returned by Status and surfaced in circuit-open errors.
type CircuitStatus struct {
	Dependency   string       `json:"dependency" yaml:"dependency"`
	State        CircuitState `json:"state" yaml:"state"`
	FailureCount int          `json:"failure_count" yaml:"failure_count"`
	SuccessCount int          `json:"success_count,omitempty" yaml:"success_count,omitempty"`
	LastFailure  time.Time    `json:"last_failure,omitempty" yaml:"last_failure,omitempty"`

	// NextAttemptIn is how long until an open breaker admits a probe.
	// Zero when the breaker is not open.
	NextAttemptIn time.Duration `json:"next_attempt_in,omitempty" yaml:"next_attempt_in,omitempty"`
}
