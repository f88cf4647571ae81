// internal/operations/admission/set-status/config.go
package setstatus

import "time"

type Config struct {
	// EnforceTransitions rejects writes outside the lifecycle graph.
	EnforceTransitions bool
	// RenumberWaitlist recomputes dense waitlist positions after a
	// promotion instead of leaving a gap.
	RenumberWaitlist bool
	Timeout          time.Duration
}

func LoadConfig() *Config {
	return &Config{
		EnforceTransitions: true,
		RenumberWaitlist:   false,
		Timeout:            30 * time.Second,
	}
}
