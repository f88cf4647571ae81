// internal/models/course.go
package models

// CourseType distinguishes undergraduate from graduate programs.
const (
	CourseTypeUndergraduate = "undergraduate"
	CourseTypeGraduate      = "graduate"
)

// Course is an academic program with a fixed seat capacity.
type Course struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	CourseType   string `json:"courseType"`
	SeatCapacity int    `json:"seatCapacity"`
}
