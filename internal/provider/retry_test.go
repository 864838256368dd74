package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agentcore/sentinel/internal/health"
)

func TestBaseCallRetriesRetryableErrors(t *testing.T) {
	b := newBase("test", 3, time.Millisecond, nil)
	attempts := 0
	err := b.call(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("rate limit exceeded")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestBaseCallStopsOnNonRetryableError(t *testing.T) {
	b := newBase("test", 3, time.Millisecond, nil)
	attempts := 0
	err := b.call(context.Background(), func() error {
		attempts++
		return errors.New("invalid api key")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("expected a single attempt for a non-retryable error, got %d", attempts)
	}
}

func TestBaseCallOpensCircuitAfterThreshold(t *testing.T) {
	tracker := health.NewTracker(2, time.Minute)
	b := newBase("flaky", 1, time.Millisecond, tracker)

	for i := 0; i < 2; i++ {
		_ = b.call(context.Background(), func() error {
			return errors.New("internal server error")
		})
	}

	err := b.call(context.Background(), func() error {
		t.Fatal("op should not run while circuit is open")
		return nil
	})
	if err == nil {
		t.Fatal("expected circuit-open error")
	}
}

func TestBaseCallRecordsSuccess(t *testing.T) {
	tracker := health.NewTracker(1, time.Minute)
	b := newBase("recovering", 1, time.Millisecond, tracker)

	_ = b.call(context.Background(), func() error { return errors.New("server error") })
	if ok, _, _ := tracker.ShouldTry("recovering"); ok {
		t.Fatal("expected circuit to be open after one failure")
	}

	tracker.ClearAll()
	if err := b.call(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if ok, _, state := tracker.ShouldTry("recovering"); !ok || state.FailureCount != 0 {
		t.Errorf("expected circuit closed and failure count reset, got ok=%v state=%+v", ok, state)
	}
}
