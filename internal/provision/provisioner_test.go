// internal/provision/provisioner_test.go
package provision

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"admission-engine/internal/common/errors"
	"admission-engine/internal/common/logger"
	"admission-engine/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvisioner(t *testing.T) (*Provisioner, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	p := NewProvisioner(&Config{UsernamePrefix: "student", MaxAttempts: 3}, db, logger.NewNoOpLogger())
	p.now = func() time.Time { return time.Unix(1717230000, 0) }
	return p, mock
}

func errNoRows() error { return sql.ErrNoRows }

func provisionApp() *models.Application {
	return &models.Application{
		ID:        "app-123",
		FirstName: "Asha",
		LastName:  "Verma",
		Email:     "asha@example.com",
	}
}

func TestProvision_GeneratesUsername(t *testing.T) {
	p, mock := newTestProvisioner(t)
	app := provisionApp()

	mock.ExpectQuery(`SELECT username FROM accounts WHERE email`).
		WithArgs("asha@example.com").
		WillReturnError(errNoRows())
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("student_asha_1717230000").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`UPDATE applications SET generated_username`).
		WithArgs("student_asha_1717230000", "app-123").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO accounts`).
		WithArgs("student_asha_1717230000", "asha@example.com", "Asha", "Verma").
		WillReturnResult(sqlmock.NewResult(0, 1))

	username, err := p.Provision(context.Background(), app)
	require.NoError(t, err)
	assert.Equal(t, "student_asha_1717230000", username)
	assert.Equal(t, username, app.GeneratedUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProvision_IdempotentWhenUsernameAlreadySet(t *testing.T) {
	p, mock := newTestProvisioner(t)
	app := provisionApp()
	app.GeneratedUsername = "student_asha_1717220000"

	username, err := p.Provision(context.Background(), app)
	require.NoError(t, err)
	assert.Equal(t, "student_asha_1717220000", username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProvision_ReusesAccountByEmail(t *testing.T) {
	p, mock := newTestProvisioner(t)
	app := provisionApp()

	mock.ExpectQuery(`SELECT username FROM accounts WHERE email`).
		WithArgs("asha@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"username"}).AddRow("student_asha_1700000000"))
	mock.ExpectExec(`UPDATE applications SET generated_username`).
		WithArgs("student_asha_1700000000", "app-123").
		WillReturnResult(sqlmock.NewResult(0, 1))

	username, err := p.Provision(context.Background(), app)
	require.NoError(t, err)
	assert.Equal(t, "student_asha_1700000000", username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProvision_ProbesCollisionSuffixes(t *testing.T) {
	p, mock := newTestProvisioner(t)
	app := provisionApp()

	mock.ExpectQuery(`SELECT username FROM accounts WHERE email`).
		WithArgs("asha@example.com").
		WillReturnError(errNoRows())
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("student_asha_1717230000").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("student_asha_1717230000_1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("student_asha_1717230000_2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`UPDATE applications SET generated_username`).
		WithArgs("student_asha_1717230000_2", "app-123").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO accounts`).
		WithArgs("student_asha_1717230000_2", "asha@example.com", "Asha", "Verma").
		WillReturnResult(sqlmock.NewResult(0, 1))

	username, err := p.Provision(context.Background(), app)
	require.NoError(t, err)
	assert.Equal(t, "student_asha_1717230000_2", username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProvision_ExhaustsAttempts(t *testing.T) {
	p, mock := newTestProvisioner(t)
	app := provisionApp()

	mock.ExpectQuery(`SELECT username FROM accounts WHERE email`).
		WithArgs("asha@example.com").
		WillReturnError(errNoRows())
	for i := 0; i <= 3; i++ {
		mock.ExpectQuery(`SELECT EXISTS`).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	}

	_, err := p.Provision(context.Background(), app)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUsernameExhausted, errors.GetCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProvision_SanitizesFirstName(t *testing.T) {
	p, _ := newTestProvisioner(t)

	assert.Equal(t, "student_marialuisa_1717230000", p.usernameBase("María-Luisa"))
	assert.Equal(t, "student_applicant_1717230000", p.usernameBase("!!!"))
}

func TestDeprovision(t *testing.T) {
	t.Run("removes unconfigured account", func(t *testing.T) {
		p, mock := newTestProvisioner(t)

		mock.ExpectExec(`DELETE FROM accounts WHERE email`).
			WithArgs("asha@example.com").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := p.Deprovision(context.Background(), "asha@example.com")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no matching account is not an error", func(t *testing.T) {
		p, mock := newTestProvisioner(t)

		mock.ExpectExec(`DELETE FROM accounts WHERE email`).
			WithArgs("ghost@example.com").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := p.Deprovision(context.Background(), "ghost@example.com")
		assert.NoError(t, err)
	})
}
