// Package jobcard decides what a job card shows: which sub-widgets mount,
// which status badge renders, and which single contextual action the viewer
// may take. Everything here is a pure function of the job snapshot and the
// viewer identity; side effects live in the widgets themselves.
package jobcard

import (
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/do4u-project/do4u/pkg/models"
)

// Widgets lists the conditional sub-widgets a card mounts.
type Widgets struct {
	ShowLocation       bool
	ShowChat           bool
	ShowStopwatch      bool
	ShowStaticDuration bool
}

// ResolveVisibleWidgets computes widget visibility for one card.
func ResolveVisibleWidgets(job *models.Job, viewer models.Viewer) Widgets {
	return Widgets{
		ShowLocation:       job.Status.AllowsTracking() && viewer.Known(),
		ShowChat:           viewer.Known() && (viewer.IsOwner(job) || viewer.IsAssignee(job)),
		ShowStopwatch:      job.Status == models.JobStatusInProgress && job.StartedAt != nil,
		ShowStaticDuration: job.Status == models.JobStatusCompleted && job.StartedAt != nil && job.CompletedAt != nil,
	}
}

// Badge is a status label plus its terminal styling.
type Badge struct {
	Label  string
	Colors text.Colors
}

// StatusBadge maps a job status to its badge. Unrecognized values render
// verbatim with neutral styling rather than failing.
func StatusBadge(status models.JobStatus) Badge {
	switch status {
	case models.JobStatusPosted:
		return Badge{Label: "Posted", Colors: text.Colors{text.FgHiBlue}}
	case models.JobStatusAccepted:
		return Badge{Label: "Accepted", Colors: text.Colors{text.FgHiYellow}}
	case models.JobStatusInProgress:
		return Badge{Label: "In Progress", Colors: text.Colors{text.FgHiGreen}}
	case models.JobStatusCompleted:
		return Badge{Label: "Completed", Colors: text.Colors{text.FgHiBlack}}
	default:
		return Badge{Label: status.String(), Colors: text.Colors{text.FgWhite}}
	}
}
