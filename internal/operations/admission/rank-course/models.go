// internal/operations/admission/rank-course/models.go
package rankcourse

type Input struct {
	CourseID string `json:"courseId"`
	// StatusFilter limits ranking to one lifecycle state. Empty ranks the
	// whole batch.
	StatusFilter string `json:"statusFilter,omitempty"`
}

type RankedApplication struct {
	ApplicationID string  `json:"applicationId"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Status        string  `json:"status"`
	MeritScore    float64 `json:"meritScore"`
	MeritRank     int     `json:"meritRank"`
}

type Output struct {
	CourseID     string              `json:"courseId"`
	CourseTitle  string              `json:"courseTitle"`
	SeatCapacity int                 `json:"seatCapacity"`
	Applications []RankedApplication `json:"applications"`
	// CutoffScore is the merit score of the last applicant inside seat
	// capacity, nil when the batch does not fill the course.
	CutoffScore *float64 `json:"cutoffScore,omitempty"`
	FromCache   bool     `json:"fromCache"`
	RankedAt    string   `json:"rankedAt"`
}
