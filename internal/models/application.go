// internal/models/application.go
package models

import "time"

// Status is the closed set of application lifecycle states.
type Status string

const (
	StatusPending     Status = "pending"
	StatusShortlisted Status = "shortlisted"
	StatusAccepted    Status = "accepted"
	StatusRejected    Status = "rejected"
	StatusWaitlisted  Status = "waitlisted"
)

// ParseStatus validates a raw status value. The bool is false for anything
// outside the five enumerated states.
func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusPending, StatusShortlisted, StatusAccepted, StatusRejected, StatusWaitlisted:
		return Status(raw), true
	}
	return "", false
}

// transitions is the lifecycle graph. Accepted and rejected are terminal.
// waitlisted -> shortlisted is the promotion cascade's edge.
var transitions = map[Status][]Status{
	StatusPending:     {StatusShortlisted, StatusWaitlisted, StatusRejected},
	StatusShortlisted: {StatusAccepted, StatusRejected},
	StatusWaitlisted:  {StatusShortlisted, StatusRejected},
	StatusAccepted:    {},
	StatusRejected:    {},
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Application is one admission submission by a prospective student.
type Application struct {
	ID          string `json:"id"`
	CourseID    string `json:"courseId"`
	CourseTitle string `json:"courseTitle"`
	CourseType  string `json:"courseType"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	BoardName   string `json:"boardName"`

	SubjectMarks map[string]float64 `json:"subjectMarks,omitempty"`

	// Derived fields, owned exclusively by the engine.
	MeritScore       float64 `json:"meritScore"`
	MeritRank        int     `json:"meritRank"`
	WaitlistPosition int     `json:"waitlistPosition"` // meaningful only while waitlisted

	Status            Status `json:"status"`
	AdminRemarks      string `json:"adminRemarks"`
	GeneratedUsername string `json:"generatedUsername,omitempty"`

	SubmittedAt time.Time `json:"submittedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
