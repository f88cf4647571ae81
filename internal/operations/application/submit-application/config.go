// internal/operations/application/submit-application/config.go
package submitapplication

import "time"

type Config struct {
	MinSubjects int
	Timeout     time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MinSubjects: 3,
		Timeout:     30 * time.Second,
	}
}
