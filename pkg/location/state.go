package location

import "github.com/do4u-project/do4u/pkg/models"

// State is the tracker's lifecycle position. Transitions are computed by a
// single reducer from (job status, panel expansion); nothing else moves the
// machine.
type State int

const (
	// StateInactive: tracking not allowed or tracker stopped. No network
	// activity, no timers.
	StateInactive State = iota
	// StateCollapsedActive: tracking allowed but the detail panel is shut.
	// Owners do nothing here; genies still share, since sharing is a safety
	// requirement independent of what the owner is looking at.
	StateCollapsedActive
	// StateExpandedActive: panel open. Owners poll; genies can re-share on
	// demand.
	StateExpandedActive
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateCollapsedActive:
		return "collapsed"
	case StateExpandedActive:
		return "expanded"
	default:
		return "unknown"
	}
}

// Active reports whether any tracking work may happen in this state.
func (s State) Active() bool {
	return s != StateInactive
}

// reduce is the tracker's only transition function.
func reduce(status models.JobStatus, expanded bool) State {
	if !status.AllowsTracking() {
		return StateInactive
	}
	if expanded {
		return StateExpandedActive
	}
	return StateCollapsedActive
}
