package model

import "fmt"

// Run phases. A run is Idle until started, Running for the whole span from
// input validation through the last vendor code's outcome, and ends Completed
// or Aborted. Aborted means a setup failure before any per-code processing.
const (
	PhaseIdle      = "idle"
	PhaseRunning   = "running"
	PhaseCompleted = "completed"
	PhaseAborted   = "aborted"
)

var allowedPhaseTransitions = map[string]map[string]bool{
	PhaseIdle: {
		PhaseRunning: true,
	},
	PhaseRunning: {
		PhaseCompleted: true,
		PhaseAborted:   true,
	},
	PhaseCompleted: {
		PhaseRunning: true,
	},
	PhaseAborted: {
		PhaseRunning: true,
	},
}

// ValidPhaseTransition reports whether moving from one run phase to another
// is allowed. Starting a run that is already running is the notable rejection.
func ValidPhaseTransition(from, to string) error {
	if allowedPhaseTransitions[from][to] {
		return nil
	}
	return fmt.Errorf("invalid run phase transition %q -> %q", from, to)
}
