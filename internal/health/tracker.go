// Package health implements the provider circuit breaker: it tracks
// consecutive failures per provider and opens a cooldown window once a
// failure threshold is crossed, so the turn loop stops retrying a
// provider that is clearly down.
package health

import (
	"sync"
	"time"
)

// State is the failure-tracking state for one provider. It is never
// cleared on cooldown expiry, only on an explicit success, so repeated
// open/close cycles remain visible for observability.
type State struct {
	FailureCount int
	LastError    string
}

// Tracker is a two-state breaker (closed/open, no half-open probing) per
// provider name, backed by a failure counter and a separate cooldown
// store.
type Tracker struct {
	mu               sync.Mutex
	states           map[string]State
	cooldownUntil    map[string]time.Time
	failureThreshold int
	cooldown         time.Duration
}

// NewTracker builds a Tracker that opens the circuit after
// failureThreshold consecutive failures, staying open for cooldown.
func NewTracker(failureThreshold int, cooldown time.Duration) *Tracker {
	if failureThreshold <= 0 {
		failureThreshold = 3
	}
	return &Tracker{
		states:           make(map[string]State),
		cooldownUntil:    make(map[string]time.Time),
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
	}
}

// ShouldTry reports whether provider's circuit is closed. If it is open,
// it returns the remaining cooldown and the current failure state.
func (t *Tracker) ShouldTry(provider string) (ok bool, remaining time.Duration, state State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	until, open := t.cooldownUntil[provider]
	if !open {
		return true, 0, t.states[provider]
	}
	remain := time.Until(until)
	if remain <= 0 {
		delete(t.cooldownUntil, provider)
		return true, 0, t.states[provider]
	}
	return false, remain, t.states[provider]
}

// RecordSuccess zeroes provider's failure count and closes its circuit.
func (t *Tracker) RecordSuccess(provider string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[provider] = State{}
	delete(t.cooldownUntil, provider)
}

// RecordFailure increments provider's failure count and, once it reaches
// the threshold, opens the circuit for the configured cooldown.
func (t *Tracker) RecordFailure(provider, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.states[provider]
	s.FailureCount++
	s.LastError = errMsg
	t.states[provider] = s

	if s.FailureCount >= t.failureThreshold {
		t.cooldownUntil[provider] = time.Now().Add(t.cooldown)
	}
}

// GetState returns a snapshot of provider's current failure state.
func (t *Tracker) GetState(provider string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[provider]
}

// GetAllStates returns a snapshot of every tracked provider's state.
func (t *Tracker) GetAllStates() map[string]State {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]State, len(t.states))
	for k, v := range t.states {
		out[k] = v
	}
	return out
}

// ClearAll resets the tracker. Intended for tests.
func (t *Tracker) ClearAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states = make(map[string]State)
	t.cooldownUntil = make(map[string]time.Time)
}
