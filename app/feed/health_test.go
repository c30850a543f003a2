package feed

import (
	"testing"
)

func TestHealthStateThresholds(t *testing.T) {
	tracker := NewHealthTracker(3, 10)

	tests := []struct {
		errorCount int
		expected   HealthState
	}{
		{0, HealthHealthy},
		{1, HealthHealthy},
		{2, HealthHealthy},
		{3, HealthDegraded},
		{9, HealthDegraded},
		{10, HealthInactive},
		{25, HealthInactive},
	}

	for _, tt := range tests {
		if got := tracker.State(tt.errorCount); got != tt.expected {
			t.Errorf("State(%d): expected %s, got %s", tt.errorCount, tt.expected, got)
		}
	}
}

func TestObserveCountsConsecutiveErrors(t *testing.T) {
	tracker := NewHealthTracker(3, 10)

	count := 0
	var state HealthState

	// The counter strictly increases across consecutive failures
	for i := 1; i <= 10; i++ {
		count, state = tracker.Observe(count, OutcomeHTTPError)
		if count != i {
			t.Fatalf("After %d failures: expected counter %d, got %d", i, i, count)
		}
	}
	if state != HealthInactive {
		t.Errorf("Expected inactive after 10 consecutive failures, got %s", state)
	}
}

func TestObserveSuccessResets(t *testing.T) {
	tracker := NewHealthTracker(3, 10)

	count, state := tracker.Observe(7, OutcomeSuccess)
	if count != 0 {
		t.Errorf("Expected success to reset the counter, got %d", count)
	}
	if state != HealthHealthy {
		t.Errorf("Expected healthy after a success, got %s", state)
	}
}

func TestObserveAllFailureOutcomesCount(t *testing.T) {
	tracker := NewHealthTracker(3, 10)

	for _, outcome := range []Outcome{OutcomeHTTPError, OutcomeParseError, OutcomeTimeout} {
		count, _ := tracker.Observe(0, outcome)
		if count != 1 {
			t.Errorf("Outcome %s: expected counter 1, got %d", outcome, count)
		}
	}
}
