// internal/operations/admission/set-status/models.go
package setstatus

type Input struct {
	ApplicationID string `json:"applicationId"`
	Status        string `json:"status"`
	Remarks       string `json:"remarks,omitempty"`
}

type Output struct {
	ApplicationID     string `json:"applicationId"`
	CourseID          string `json:"courseId"`
	PreviousStatus    string `json:"previousStatus"`
	Status            string `json:"status"`
	GeneratedUsername string `json:"generatedUsername,omitempty"`
	// PromotedApplicationID identifies the waitlisted application that
	// took the freed seat, set only on rejection with a non-empty waitlist.
	PromotedApplicationID string `json:"promotedApplicationId,omitempty"`
	UpdatedAt             string `json:"updatedAt"`
}
