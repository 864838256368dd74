package provider

import (
	"context"
	"time"

	"github.com/agentcore/sentinel/internal/backoff"
	"github.com/agentcore/sentinel/internal/health"
)

// base holds retry configuration and an optional circuit breaker shared by
// every concrete provider. Backoff delays between attempts are computed by
// internal/backoff rather than hand-rolled here.
type base struct {
	name       string
	maxRetries int
	policy     backoff.BackoffPolicy
	tracker    *health.Tracker
}

func newBase(name string, maxRetries int, retryDelay time.Duration, tracker *health.Tracker) base {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	policy := backoff.DefaultPolicy()
	policy.InitialMs = float64(retryDelay.Milliseconds())
	policy.MaxMs = float64(retryDelay.Milliseconds()) * float64(maxRetries)
	return base{name: name, maxRetries: maxRetries, policy: policy, tracker: tracker}
}

// call runs op, consulting and updating the circuit breaker (when one is
// configured) and retrying with exponential backoff on classified-retryable
// failures.
func (b *base) call(ctx context.Context, op func() error) error {
	if b.tracker != nil {
		if ok, remaining, state := b.tracker.ShouldTry(b.name); !ok {
			return NewProviderError(b.name, "", &circuitOpenError{provider: b.name, remaining: remaining, lastError: state.LastError})
		}
	}

	var lastErr error
	for attempt := 1; attempt <= b.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = op()
		if lastErr == nil {
			if b.tracker != nil {
				b.tracker.RecordSuccess(b.name)
			}
			return nil
		}
		if !IsRetryable(lastErr) {
			break
		}
		if attempt >= b.maxRetries {
			break
		}
		if err := backoff.SleepWithBackoff(ctx, b.policy, attempt); err != nil {
			return err
		}
	}

	if b.tracker != nil {
		b.tracker.RecordFailure(b.name, lastErr.Error())
	}
	return lastErr
}

type circuitOpenError struct {
	provider  string
	remaining time.Duration
	lastError string
}

func (e *circuitOpenError) Error() string {
	msg := e.provider + ": circuit open, retry in " + e.remaining.Round(time.Second).String()
	if e.lastError != "" {
		msg += " (last error: " + e.lastError + ")"
	}
	return msg
}
