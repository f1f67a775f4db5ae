package models

// Role distinguishes the two sides of the marketplace plus the back-office
// admin role.
type Role string

const (
	RoleUser  Role = "user"
	RoleGenie Role = "genie"
	RoleAdmin Role = "admin"
)

// Viewer is the authenticated identity operating the client. Which widgets
// and actions a job card shows is a pure function of the viewer and the job
// snapshot.
type Viewer struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Known reports whether a viewer identity is present at all. Cards rendered
// without an identity mount no location or chat widgets.
func (v Viewer) Known() bool {
	return v.ID != ""
}

// IsOwner reports whether the viewer posted the job.
func (v Viewer) IsOwner(job *Job) bool {
	return v.Known() && job.UserID == v.ID
}

// IsAssignee reports whether the viewer is the genie assigned to the job.
func (v Viewer) IsAssignee(job *Job) bool {
	return v.Known() && job.AssignedGenie != "" && job.AssignedGenie == v.ID
}
