// internal/validation/application_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPayload() map[string]interface{} {
	return map[string]interface{}{
		"firstName":   "Asha",
		"lastName":    "Verma",
		"email":       "asha@example.com",
		"boardName":   "CBSE",
		"courseTitle": "B.Sc Computer Science",
		"courseType":  "undergraduate",
		"subjectMarks": map[string]interface{}{
			"Physics":     88.0,
			"Chemistry":   91.5,
			"Mathematics": 79.0,
		},
	}
}

func TestValidateSubmission_Valid(t *testing.T) {
	result, err := ValidateSubmission(validPayload(), 3)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateSubmission_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p map[string]interface{})
	}{
		{
			name:   "missing first name",
			mutate: func(p map[string]interface{}) { delete(p, "firstName") },
		},
		{
			name:   "missing course title",
			mutate: func(p map[string]interface{}) { delete(p, "courseTitle") },
		},
		{
			name: "non numeric mark",
			mutate: func(p map[string]interface{}) {
				p["subjectMarks"].(map[string]interface{})["Physics"] = "ninety"
			},
		},
		{
			name: "mark above 100",
			mutate: func(p map[string]interface{}) {
				p["subjectMarks"].(map[string]interface{})["Physics"] = 105.0
			},
		},
		{
			name: "negative mark",
			mutate: func(p map[string]interface{}) {
				p["subjectMarks"].(map[string]interface{})["Physics"] = -1.0
			},
		},
		{
			name: "too few subjects",
			mutate: func(p map[string]interface{}) {
				p["subjectMarks"] = map[string]interface{}{"Physics": 90.0}
			},
		},
		{
			name: "unknown course type",
			mutate: func(p map[string]interface{}) {
				p["courseType"] = "doctorate"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := validPayload()
			tt.mutate(payload)

			result, err := ValidateSubmission(payload, 3)
			require.NoError(t, err)
			assert.False(t, result.Valid, "expected validation failure")
			assert.NotEmpty(t, result.Errors)
			assert.NotEmpty(t, result.ErrorDetails())
		})
	}
}

func TestValidateMarks(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		result := ValidateMarks(map[string]float64{"Physics": 90, "Chemistry": 80, "Biology": 70}, 3)
		assert.True(t, result.Valid)
	})

	t.Run("below minimum count", func(t *testing.T) {
		result := ValidateMarks(map[string]float64{"Physics": 90}, 3)
		assert.False(t, result.Valid)
	})

	t.Run("out of range", func(t *testing.T) {
		result := ValidateMarks(map[string]float64{"Physics": 101, "Chemistry": 80, "Biology": 70}, 3)
		assert.False(t, result.Valid)
	})

	t.Run("empty subject name", func(t *testing.T) {
		result := ValidateMarks(map[string]float64{"": 90, "Chemistry": 80, "Biology": 70}, 3)
		assert.False(t, result.Valid)
	})
}
