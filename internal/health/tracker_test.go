package health

import (
	"testing"
	"time"
)

func TestAllowsProviderInitially(t *testing.T) {
	tr := NewTracker(3, time.Minute)
	ok, _, _ := tr.ShouldTry("anthropic")
	if !ok {
		t.Error("a never-seen provider should be tried")
	}
}

func TestTracksFailuresBelowThreshold(t *testing.T) {
	tr := NewTracker(3, time.Minute)
	tr.RecordFailure("openai", "timeout")
	tr.RecordFailure("openai", "timeout")
	ok, _, state := tr.ShouldTry("openai")
	if !ok {
		t.Error("circuit should stay closed below threshold")
	}
	if state.FailureCount != 2 {
		t.Errorf("expected failure count 2, got %d", state.FailureCount)
	}
}

func TestOpensCircuitAtThreshold(t *testing.T) {
	tr := NewTracker(3, time.Minute)
	for i := 0; i < 3; i++ {
		tr.RecordFailure("bedrock", "error")
	}
	ok, remaining, _ := tr.ShouldTry("bedrock")
	if ok {
		t.Error("circuit should open at the failure threshold")
	}
	if remaining <= 0 {
		t.Error("expected a positive cooldown remaining")
	}
}

func TestCircuitClosesAfterCooldown(t *testing.T) {
	tr := NewTracker(1, 10*time.Millisecond)
	tr.RecordFailure("flaky", "error")
	if ok, _, _ := tr.ShouldTry("flaky"); ok {
		t.Fatal("circuit should be open immediately after threshold failure")
	}
	time.Sleep(20 * time.Millisecond)
	if ok, _, _ := tr.ShouldTry("flaky"); !ok {
		t.Error("circuit should close after cooldown elapses")
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	tr := NewTracker(5, time.Minute)
	tr.RecordFailure("p", "e")
	tr.RecordFailure("p", "e")
	tr.RecordSuccess("p")
	if state := tr.GetState("p"); state.FailureCount != 0 {
		t.Errorf("expected failure count reset to 0, got %d", state.FailureCount)
	}
}

func TestSuccessClearsCircuitBreaker(t *testing.T) {
	tr := NewTracker(1, time.Hour)
	tr.RecordFailure("p", "e")
	if ok, _, _ := tr.ShouldTry("p"); ok {
		t.Fatal("circuit should be open")
	}
	tr.RecordSuccess("p")
	if ok, _, _ := tr.ShouldTry("p"); !ok {
		t.Error("success should clear the open circuit immediately, not wait for cooldown")
	}
}

func TestTracksMultipleProvidersIndependently(t *testing.T) {
	tr := NewTracker(1, time.Hour)
	tr.RecordFailure("a", "e")
	if ok, _, _ := tr.ShouldTry("b"); !ok {
		t.Error("provider b's circuit should be unaffected by provider a's failures")
	}
}

func TestGetAllStatesReturnsAllTrackedProviders(t *testing.T) {
	tr := NewTracker(3, time.Minute)
	tr.RecordFailure("a", "e")
	tr.RecordFailure("b", "e")
	states := tr.GetAllStates()
	if len(states) != 2 {
		t.Errorf("expected 2 tracked providers, got %d", len(states))
	}
}
