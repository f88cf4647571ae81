// internal/models/application_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw   string
		valid bool
	}{
		{"pending", true},
		{"shortlisted", true},
		{"accepted", true},
		{"rejected", true},
		{"waitlisted", true},
		{"approved", false},
		{"", false},
		{"Pending", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			status, ok := ParseStatus(tt.raw)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, Status(tt.raw), status)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"pending to shortlisted", StatusPending, StatusShortlisted, true},
		{"pending to waitlisted", StatusPending, StatusWaitlisted, true},
		{"pending to rejected", StatusPending, StatusRejected, true},
		{"pending to accepted skips shortlisting", StatusPending, StatusAccepted, false},
		{"shortlisted to accepted", StatusShortlisted, StatusAccepted, true},
		{"shortlisted to rejected", StatusShortlisted, StatusRejected, true},
		{"shortlisted back to pending", StatusShortlisted, StatusPending, false},
		{"waitlisted to shortlisted via promotion", StatusWaitlisted, StatusShortlisted, true},
		{"waitlisted to rejected", StatusWaitlisted, StatusRejected, true},
		{"waitlisted straight to accepted", StatusWaitlisted, StatusAccepted, false},
		{"accepted is terminal", StatusAccepted, StatusRejected, false},
		{"rejected is terminal", StatusRejected, StatusShortlisted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}
