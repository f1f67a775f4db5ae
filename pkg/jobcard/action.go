package jobcard

import "github.com/do4u-project/do4u/pkg/models"

// ActionKind identifies the backend transition behind a card's action button.
type ActionKind string

const (
	ActionAccept           ActionKind = "accept"
	ActionStart            ActionKind = "start"
	ActionComplete         ActionKind = "complete"
	ActionCancelAssignment ActionKind = "cancel-assignment"
	ActionRate             ActionKind = "rate"
)

// Action is the one contextual button a card may show.
type Action struct {
	Kind  ActionKind
	Label string
}

// ActionFor returns the action available to viewer on job, if any. Owners can
// only walk back an assignment; genies drive the forward transitions. The
// backend re-validates every transition, so this is an affordance filter, not
// an authorization check.
func ActionFor(job *models.Job, viewer models.Viewer) (Action, bool) {
	if !viewer.Known() {
		return Action{}, false
	}

	if viewer.IsOwner(job) {
		switch job.Status {
		case models.JobStatusAccepted, models.JobStatusInProgress:
			return Action{Kind: ActionCancelAssignment, Label: "Cancel Assignment"}, true
		}
		return Action{}, false
	}

	if viewer.Role != models.RoleGenie {
		return Action{}, false
	}

	switch job.Status {
	case models.JobStatusPosted:
		return Action{Kind: ActionAccept, Label: "Accept Job"}, true
	case models.JobStatusAccepted:
		if viewer.IsAssignee(job) {
			return Action{Kind: ActionStart, Label: "Start Job"}, true
		}
	case models.JobStatusInProgress:
		if viewer.IsAssignee(job) {
			return Action{Kind: ActionComplete, Label: "Complete Job"}, true
		}
	case models.JobStatusCompleted:
		if viewer.IsAssignee(job) && !job.Rated() {
			return Action{Kind: ActionRate, Label: "Rate User"}, true
		}
	}
	return Action{}, false
}
