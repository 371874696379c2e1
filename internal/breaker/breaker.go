// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package breaker implements a per-dependency circuit breaker. One
// Breaker instance guards one external dependency and is shared by
// every session in the process; cross-session failure correlation is
// the point, so all state transitions serialize through its mutex.
package breaker

import (
	"fmt"
	"sync"
	"time"

	"github.com/kryptobaseddev/aris/pkg/types"
)

// ErrCircuitOpen is returned to callers when a breaker refuses a call.
// It carries how long until the breaker will admit a probe.
type ErrCircuitOpen struct {
	Dependency    string
	NextAttemptIn time.Duration
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit open for %s: next attempt in %s", e.Dependency, e.NextAttemptIn.Round(time.Second))
}

// Breaker is a three-state circuit breaker: closed (calls flow), open
// (calls refused), half-open (probe calls admitted). The open→half-open
// transition is evaluated lazily inside CanExecute rather than by a
// timer.
type Breaker struct {
	mu sync.Mutex

	dependency string
	cfg        types.BreakerConfig

	state       types.CircuitState
	failures    int
	successes   int
	lastFailure time.Time

	// now is replaceable in tests.
	now func() time.Time
}

// New returns a closed Breaker for the named dependency. Thresholds
// are per-instance so independent dependencies tune independently.
func New(dependency string, cfg types.BreakerConfig) *Breaker {
	cfg.Normalize()
	return &Breaker{
		dependency: dependency,
		cfg:        cfg,
		state:      types.CircuitClosed,
		now:        time.Now,
	}
}

// CanExecute reports whether a call may proceed. While open it returns
// false without side effects, except that once the configured timeout
// has elapsed since the last failure the breaker moves to half-open and
// admits the call as a probe.
func (b *Breaker) CanExecute() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case types.CircuitClosed, types.CircuitHalfOpen:
		return true
	case types.CircuitOpen:
		if b.now().Sub(b.lastFailure) >= b.cfg.Timeout {
			b.state = types.CircuitHalfOpen
			b.successes = 0
			return true
		}
		return false
	}
	return false
}

// RecordSuccess notes a successful call. In half-open state the breaker
// closes after the configured consecutive-success count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case types.CircuitClosed:
		b.failures = 0
	case types.CircuitHalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.state = types.CircuitClosed
			b.failures = 0
			b.successes = 0
		}
	}
}

// RecordFailure notes a failed call. A closed breaker opens after the
// configured consecutive-failure count; a half-open breaker reopens on
// any single failure.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = b.now()

	switch b.state {
	case types.CircuitClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.state = types.CircuitOpen
		}
	case types.CircuitHalfOpen:
		b.state = types.CircuitOpen
		b.failures = b.cfg.FailureThreshold
		b.successes = 0
	}
}

// Status returns a snapshot of the breaker. NextAttemptIn is nonzero
// only while open.
func (b *Breaker) Status() types.CircuitStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := types.CircuitStatus{
		Dependency:   b.dependency,
		State:        b.state,
		FailureCount: b.failures,
		SuccessCount: b.successes,
		LastFailure:  b.lastFailure,
	}
	if b.state == types.CircuitOpen {
		if remaining := b.cfg.Timeout - b.now().Sub(b.lastFailure); remaining > 0 {
			st.NextAttemptIn = remaining
		}
	}
	return st
}

// Reset forces the breaker closed and clears its counters. This is the
// administrative escape hatch; normal recovery goes through half-open.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = types.CircuitClosed
	b.failures = 0
	b.successes = 0
	b.lastFailure = time.Time{}
}

// OpenError builds the caller-visible circuit-open condition with the
// current retry-in estimate.
func (b *Breaker) OpenError() *ErrCircuitOpen {
	st := b.Status()
	return &ErrCircuitOpen{Dependency: b.dependency, NextAttemptIn: st.NextAttemptIn}
}
