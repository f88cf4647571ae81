// internal/provision/provisioner.go

// Package provision creates and removes student portal accounts as
// applications move through admission decisions.
package provision

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"

	"admission-engine/internal/common/errors"
	"admission-engine/internal/common/logger"
	"admission-engine/internal/common/metrics"
	"admission-engine/internal/models"
)

type Config struct {
	UsernamePrefix string
	MaxAttempts    int
}

type Provisioner struct {
	config *Config
	db     *sql.DB
	logger logger.Logger

	// overridable for deterministic usernames in tests
	now func() time.Time
}

func NewProvisioner(config *Config, db *sql.DB, log logger.Logger) *Provisioner {
	return &Provisioner{
		config: config,
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "provisioner"}),
		now:    time.Now,
	}
}

// Provision ensures the application has a portal account and returns its
// username. Calling it twice is safe: an application that already carries
// a username keeps it, and an existing account for the same email is
// reused rather than duplicated.
func (p *Provisioner) Provision(ctx context.Context, app *models.Application) (string, error) {
	if app.GeneratedUsername != "" {
		return app.GeneratedUsername, nil
	}

	var existing string
	err := p.db.QueryRowContext(ctx,
		`SELECT username FROM accounts WHERE email = $1`, app.Email).Scan(&existing)
	switch {
	case err == nil:
		if err := p.attachUsername(ctx, app, existing); err != nil {
			return "", err
		}
		p.logger.Info("reusing existing account", map[string]interface{}{
			"applicationId": app.ID,
			"username":      existing,
		})
		return existing, nil
	case err != sql.ErrNoRows:
		return "", errors.NewDatabaseQueryFailedError("lookup account by email", err)
	}

	base := p.usernameBase(app.FirstName)
	username, err := p.resolveUsername(ctx, base)
	if err != nil {
		return "", err
	}

	// The username lands on the application before the account row is
	// inserted, so a crash between the two writes is repaired by rerunning
	// Provision, not by generating a second account.
	if err := p.attachUsername(ctx, app, username); err != nil {
		return "", err
	}

	_, err = p.db.ExecContext(ctx,
		`INSERT INTO accounts (username, email, first_name, last_name, role, profile_setup, created_at)
		 VALUES ($1, $2, $3, $4, 'student', FALSE, NOW())
		 ON CONFLICT (username) DO NOTHING`,
		username, app.Email, app.FirstName, app.LastName)
	if err != nil {
		return "", errors.NewDatabaseQueryFailedError("insert account", err)
	}

	metrics.AccountsProvisioned.Inc()
	p.logger.Info("account provisioned", map[string]interface{}{
		"applicationId": app.ID,
		"username":      username,
	})
	return username, nil
}

// Deprovision removes the account tied to the email, but only while the
// student has never completed profile setup. A configured profile means
// the account has independent life and survives the rejection.
func (p *Provisioner) Deprovision(ctx context.Context, email string) error {
	result, err := p.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE email = $1 AND profile_setup = FALSE`, email)
	if err != nil {
		return errors.NewDatabaseQueryFailedError("delete account", err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows > 0 {
		p.logger.Info("account deprovisioned", map[string]interface{}{"email": email})
	}
	return nil
}

func (p *Provisioner) attachUsername(ctx context.Context, app *models.Application, username string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE applications SET generated_username = $1, updated_at = NOW() WHERE id = $2`,
		username, app.ID)
	if err != nil {
		return errors.NewDatabaseQueryFailedError("attach username", err)
	}
	app.GeneratedUsername = username
	return nil
}

// resolveUsername probes base, base_1, base_2, ... until a free username
// is found or the attempt budget runs out.
func (p *Provisioner) resolveUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for attempt := 0; attempt <= p.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			candidate = fmt.Sprintf("%s_%d", base, attempt)
		}

		var exists bool
		err := p.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM accounts WHERE username = $1)`, candidate).Scan(&exists)
		if err != nil {
			return "", errors.NewDatabaseQueryFailedError("check username", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", errors.NewUsernameExhaustedError(base, p.config.MaxAttempts)
}

func (p *Provisioner) usernameBase(firstName string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, firstName)
	if cleaned == "" {
		cleaned = "applicant"
	}
	return fmt.Sprintf("%s_%s_%d", p.config.UsernamePrefix, cleaned, p.now().Unix())
}
