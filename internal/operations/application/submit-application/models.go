// internal/operations/application/submit-application/models.go
package submitapplication

type Input struct {
	FirstName    string             `json:"firstName"`
	LastName     string             `json:"lastName"`
	Email        string             `json:"email"`
	BoardName    string             `json:"boardName"`
	CourseTitle  string             `json:"courseTitle"`
	CourseType   string             `json:"courseType,omitempty"`
	SubjectMarks map[string]float64 `json:"subjectMarks"`
}

type Output struct {
	ApplicationID string  `json:"applicationId"`
	CourseID      string  `json:"courseId"`
	MeritScore    float64 `json:"meritScore"`
	Status        string  `json:"status"`
	SubmittedAt   string  `json:"submittedAt"`
}
