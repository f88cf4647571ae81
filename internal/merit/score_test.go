// internal/merit/score_test.go
package merit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		marks    map[string]float64
		expected float64
	}{
		{
			name:     "single subject",
			marks:    map[string]float64{"Mathematics": 88},
			expected: 88,
		},
		{
			name:     "mean of three subjects",
			marks:    map[string]float64{"Physics": 90, "Chemistry": 80, "Mathematics": 70},
			expected: 80,
		},
		{
			name:     "empty marks score zero",
			marks:    map[string]float64{},
			expected: 0,
		},
		{
			name:     "nil marks score zero",
			marks:    nil,
			expected: 0,
		},
		{
			name:     "all perfect",
			marks:    map[string]float64{"Physics": 100, "Chemistry": 100},
			expected: 100,
		},
		{
			name:     "clamped above 100",
			marks:    map[string]float64{"Physics": 110, "Chemistry": 104},
			expected: 100,
		},
		{
			name:     "clamped below 0",
			marks:    map[string]float64{"Physics": -5, "Chemistry": -10},
			expected: 0,
		},
		{
			name:     "fractional mean",
			marks:    map[string]float64{"Physics": 85, "Chemistry": 90},
			expected: 87.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Score(tt.marks), 1e-9)
		})
	}
}
