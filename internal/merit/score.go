// internal/merit/score.go

// Package merit computes merit scores and competition ranks. Both are pure
// functions over applicant data; persistence belongs to the operations that
// call them.
package merit

// Score returns the arithmetic mean of the subject marks, clamped to
// [0,100]. An empty map scores 0. Marks are validated at the input
// boundary before they reach here; the clamp guards derived state, not
// user input.
func Score(marks map[string]float64) float64 {
	if len(marks) == 0 {
		return 0
	}

	total := 0.0
	for _, mark := range marks {
		total += mark
	}
	score := total / float64(len(marks))

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
