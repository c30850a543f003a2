package feed

// HealthState classifies a feed by its consecutive fetch failures.
type HealthState string

const (
	HealthHealthy  HealthState = "healthy"
	HealthDegraded HealthState = "degraded"
	HealthInactive HealthState = "inactive"
)

// HealthTracker decides, from fetch outcomes, when a feed should be
// considered degraded and when it should stop being polled altogether.
// Inactive feeds stay in the database and remain fetchable by explicit id.
type HealthTracker struct {
	degradedThreshold int
	inactiveThreshold int
}

func NewHealthTracker(degradedThreshold, inactiveThreshold int) *HealthTracker {
	return &HealthTracker{
		degradedThreshold: degradedThreshold,
		inactiveThreshold: inactiveThreshold,
	}
}

// Observe folds one fetch outcome into the consecutive-error counter and
// returns the new counter and resulting state. Any success resets the
// counter and returns the feed to healthy.
func (t *HealthTracker) Observe(errorCount int, outcome Outcome) (int, HealthState) {
	if outcome == OutcomeSuccess {
		return 0, HealthHealthy
	}

	errorCount++
	return errorCount, t.State(errorCount)
}

// State maps a consecutive-error counter to a health state.
func (t *HealthTracker) State(errorCount int) HealthState {
	switch {
	case errorCount >= t.inactiveThreshold:
		return HealthInactive
	case errorCount >= t.degradedThreshold:
		return HealthDegraded
	default:
		return HealthHealthy
	}
}
