// internal/operations/admission/rank-course/config.go
package rankcourse

import "time"

type Config struct {
	CacheTTL time.Duration
	Timeout  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		CacheTTL: 60 * time.Second,
		Timeout:  30 * time.Second,
	}
}
