// internal/operations/admission/allocate-seats/models.go
package allocateseats

type Input struct {
	CourseID string `json:"courseId"`
}

type Output struct {
	CourseID       string   `json:"courseId"`
	SeatCapacity   int      `json:"seatCapacity"`
	ShortlistedIDs []string `json:"shortlistedIds"`
	WaitlistedIDs  []string `json:"waitlistedIds"`
	// CutoffScore is the merit score of the last shortlisted applicant,
	// nil when nothing was shortlisted.
	CutoffScore *float64 `json:"cutoffScore,omitempty"`
	AllocatedAt string   `json:"allocatedAt"`
}
