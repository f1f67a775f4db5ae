package models

import (
	"time"
)

// JobStatus is the backend-owned lifecycle state of a job. The client never
// transitions a job itself; it only renders snapshots and asks the backend to
// perform transitions on its behalf.
type JobStatus string

const (
	JobStatusPosted     JobStatus = "POSTED"
	JobStatusAccepted   JobStatus = "ACCEPTED"
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	JobStatusCompleted  JobStatus = "COMPLETED"
)

func (s JobStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is one the client recognizes. Unknown
// values still render (verbatim, via the status badge) but gate off every
// conditional widget.
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPosted, JobStatusAccepted, JobStatusInProgress, JobStatusCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether the job can no longer change.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted
}

// AllowsChat reports whether the per-job chat channel may be opened at this
// status.
func (s JobStatus) AllowsChat() bool {
	switch s {
	case JobStatusPosted, JobStatusAccepted, JobStatusInProgress:
		return true
	}
	return false
}

// AllowsTracking reports whether live location tracking is meaningful at this
// status.
func (s JobStatus) AllowsTracking() bool {
	return s == JobStatusInProgress
}

// Job is a read-only snapshot of a backend job. Ids and timestamps are always
// server-assigned; the client refreshes snapshots by polling or by re-fetching
// after an action.
type Job struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Location      string     `json:"location,omitempty"`
	Duration      string     `json:"duration,omitempty"`
	Price         *float64   `json:"price,omitempty"`
	Status        JobStatus  `json:"status"`
	UserID        string     `json:"user_id"`
	AssignedGenie string     `json:"assigned_genie,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	GenieRating   *int       `json:"genie_rating,omitempty"`
	RatingComment string     `json:"rating_comment,omitempty"`
	RatedAt       *time.Time `json:"rated_at,omitempty"`
}

// Rated reports whether the assigned genie has already rated the job poster.
func (j *Job) Rated() bool {
	return j.GenieRating != nil
}

// StaticDuration returns the fixed started→completed duration for a finished
// job, or false when either timestamp is missing.
func (j *Job) StaticDuration() (time.Duration, bool) {
	if j.StartedAt == nil || j.CompletedAt == nil {
		return 0, false
	}
	return j.CompletedAt.Sub(*j.StartedAt), true
}
