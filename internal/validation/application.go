// internal/validation/application.go

// Package validation checks submission payloads at the input boundary.
// The merit calculator assumes marks are already numeric and in range;
// everything malformed must be rejected here.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// submissionSchema validates the shape of a raw submission payload. The
// minimum-subject-count rule is injected per configuration.
const submissionSchema = `{
	"type": "object",
	"required": ["firstName", "email", "courseTitle", "subjectMarks"],
	"properties": {
		"firstName":   {"type": "string", "minLength": 1, "maxLength": 100},
		"lastName":    {"type": "string", "maxLength": 100},
		"email":       {"type": "string", "format": "email"},
		"boardName":   {"type": "string", "maxLength": 200},
		"courseTitle": {"type": "string", "minLength": 1, "maxLength": 200},
		"courseType":  {"type": "string", "enum": ["undergraduate", "graduate"]},
		"subjectMarks": {
			"type": "object",
			"minProperties": %d,
			"additionalProperties": {"type": "number", "minimum": 0, "maximum": 100}
		}
	}
}`

// Result carries field-level validation errors.
type Result struct {
	Valid  bool
	Errors []FieldError
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (r *Result) ErrorDetails() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

// ValidateSubmission checks a raw submission document against the schema,
// requiring at least minSubjects subject marks.
func ValidateSubmission(payload map[string]interface{}, minSubjects int) (*Result, error) {
	if minSubjects < 0 {
		minSubjects = 0
	}

	schemaLoader := gojsonschema.NewStringLoader(fmt.Sprintf(submissionSchema, minSubjects))
	documentLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	out := &Result{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, FieldError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return out, nil
}

// ValidateMarks enforces the mark invariants on an already-typed map. Used
// by callers that bypass the JSON boundary (admin imports, tests).
func ValidateMarks(marks map[string]float64, minSubjects int) *Result {
	out := &Result{Valid: true}

	if len(marks) < minSubjects {
		out.Valid = false
		out.Errors = append(out.Errors, FieldError{
			Field:   "subjectMarks",
			Message: fmt.Sprintf("at least %d subjects required, got %d", minSubjects, len(marks)),
		})
	}

	for subject, mark := range marks {
		if subject == "" {
			out.Valid = false
			out.Errors = append(out.Errors, FieldError{
				Field:   "subjectMarks",
				Message: "subject name must not be empty",
			})
			continue
		}
		if mark < 0 || mark > 100 {
			out.Valid = false
			out.Errors = append(out.Errors, FieldError{
				Field:   "subjectMarks." + subject,
				Message: fmt.Sprintf("mark %.2f outside [0,100]", mark),
			})
		}
	}
	return out
}
