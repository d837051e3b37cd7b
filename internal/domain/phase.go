package domain

// Phase represents the current phase of a game
type Phase string

const (
	PhaseNight  Phase = "night"  // Active roles submit their actions
	PhaseDay    Phase = "day"    // Discussion window, no actions accepted
	PhaseVoting Phase = "voting" // Every living player nominates a target
	PhaseEnded  Phase = "ended"  // Terminal, winner recorded
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo checks if a transition from current phase to target phase is valid
func (p Phase) CanTransitionTo(target Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseNight:  {PhaseDay, PhaseEnded},
		PhaseDay:    {PhaseVoting, PhaseEnded},
		PhaseVoting: {PhaseNight, PhaseEnded},
		PhaseEnded:  {},
	}

	allowed, ok := validTransitions[p]
	if !ok {
		return false
	}

	for _, phase := range allowed {
		if phase == target {
			return true
		}
	}
	return false
}
