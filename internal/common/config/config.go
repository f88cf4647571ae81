// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Admission     AdmissionConfig    `mapstructure:"admission"`
	Provisioning  ProvisioningConfig `mapstructure:"provisioning"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AdmissionConfig holds the knobs of the ranking and allocation engine.
type AdmissionConfig struct {
	// EnforceTransitions rejects status writes outside the lifecycle graph.
	EnforceTransitions bool `mapstructure:"enforce_transitions"`
	// RenumberWaitlist recomputes dense waitlist positions after a promotion.
	RenumberWaitlist    bool          `mapstructure:"renumber_waitlist"`
	MinSubjects         int           `mapstructure:"min_subjects"`
	DefaultSeatCapacity int           `mapstructure:"default_seat_capacity"`
	RankingCacheTTL     time.Duration `mapstructure:"ranking_cache_ttl"`
}

// ProvisioningConfig holds settings for account/username generation.
type ProvisioningConfig struct {
	UsernamePrefix string `mapstructure:"username_prefix"`
	MaxAttempts    int    `mapstructure:"max_attempts"`
}

// NotificationConfig holds settings for the applicant notifier.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
