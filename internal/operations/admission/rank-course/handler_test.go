// internal/operations/admission/rank-course/handler_test.go
package rankcourse

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	commonerrors "admission-engine/internal/common/errors"
	"admission-engine/internal/common/locking"
	"admission-engine/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func setupHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()

	db, dbMock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	h := NewHandler(
		&Config{CacheTTL: time.Minute, Timeout: 5 * time.Second},
		db, redisClient, locking.New(), logger.NewNoOpLogger(),
	)
	return h, dbMock, mr
}

func expectCourse(dbMock sqlmock.Sqlmock, capacity int) {
	dbMock.ExpectQuery(`SELECT title, seat_capacity FROM courses`).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"title", "seat_capacity"}).
			AddRow("B.Sc Computer Science", capacity))
}

func applicationRows(t *testing.T) *sqlmock.Rows {
	t.Helper()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	cols := []string{"id", "first_name", "last_name", "status", "merit_score", "submitted_at"}
	return sqlmock.NewRows(cols).
		AddRow("app-b", "Bina", "Rao", "pending", 90.0, base.Add(time.Minute)).
		AddRow("app-a", "Asha", "Verma", "pending", 95.0, base).
		AddRow("app-c", "Chetan", "Iyer", "pending", 90.0, base.Add(2*time.Minute)).
		AddRow("app-d", "Dev", "Nair", "pending", 80.0, base.Add(3*time.Minute))
}

// ==========================
// Execute
// ==========================

func TestExecute_RanksAndPersists(t *testing.T) {
	h, dbMock, mr := setupHandler(t)

	expectCourse(dbMock, 2)
	dbMock.ExpectQuery(`SELECT id, first_name, last_name, status, merit_score, submitted_at`).
		WithArgs("course-1").
		WillReturnRows(applicationRows(t))

	dbMock.ExpectBegin()
	dbMock.ExpectExec(`UPDATE applications SET merit_rank`).
		WithArgs(1, "app-a").WillReturnResult(sqlmock.NewResult(0, 1))
	dbMock.ExpectExec(`UPDATE applications SET merit_rank`).
		WithArgs(2, "app-b").WillReturnResult(sqlmock.NewResult(0, 1))
	dbMock.ExpectExec(`UPDATE applications SET merit_rank`).
		WithArgs(2, "app-c").WillReturnResult(sqlmock.NewResult(0, 1))
	dbMock.ExpectExec(`UPDATE applications SET merit_rank`).
		WithArgs(4, "app-d").WillReturnResult(sqlmock.NewResult(0, 1))
	dbMock.ExpectCommit()

	output, err := h.Execute(context.Background(), &Input{CourseID: "course-1"})
	require.NoError(t, err)

	require.Len(t, output.Applications, 4)
	assert.Equal(t, "app-a", output.Applications[0].ApplicationID)
	assert.Equal(t, 1, output.Applications[0].MeritRank)
	assert.Equal(t, 2, output.Applications[1].MeritRank)
	assert.Equal(t, 2, output.Applications[2].MeritRank)
	assert.Equal(t, 4, output.Applications[3].MeritRank)

	require.NotNil(t, output.CutoffScore)
	assert.InDelta(t, 90.0, *output.CutoffScore, 1e-9)
	assert.False(t, output.FromCache)

	// Result is cached for subsequent reads
	assert.True(t, mr.Exists(CacheKey("course-1")))
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestExecute_ServesFromCache(t *testing.T) {
	h, dbMock, mr := setupHandler(t)

	cached, err := json.Marshal(&Output{
		CourseID:    "course-1",
		CourseTitle: "B.Sc Computer Science",
		Applications: []RankedApplication{
			{ApplicationID: "app-a", MeritRank: 1},
		},
	})
	require.NoError(t, err)
	require.NoError(t, mr.Set(CacheKey("course-1"), string(cached)))

	output, err := h.Execute(context.Background(), &Input{CourseID: "course-1"})
	require.NoError(t, err)

	assert.True(t, output.FromCache)
	assert.Len(t, output.Applications, 1)
	// No database expectations were registered, so a hit proves no queries ran
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestExecute_StatusFilterSkipsPersistAndCache(t *testing.T) {
	h, dbMock, mr := setupHandler(t)

	expectCourse(dbMock, 2)
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	dbMock.ExpectQuery(`SELECT id, first_name, last_name, status, merit_score, submitted_at`).
		WithArgs("course-1", "waitlisted").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "status", "merit_score", "submitted_at"}).
			AddRow("app-d", "Dev", "Nair", "waitlisted", 80.0, base))

	output, err := h.Execute(context.Background(), &Input{CourseID: "course-1", StatusFilter: "waitlisted"})
	require.NoError(t, err)

	require.Len(t, output.Applications, 1)
	assert.Equal(t, 1, output.Applications[0].MeritRank)
	assert.False(t, mr.Exists(CacheKey("course-1")))
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestExecute_CourseNotFound(t *testing.T) {
	h, dbMock, _ := setupHandler(t)

	dbMock.ExpectQuery(`SELECT title, seat_capacity FROM courses`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := h.Execute(context.Background(), &Input{CourseID: "missing"})
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeCourseNotFound, commonerrors.GetCode(err))
}

func TestExecute_InvalidStatusFilter(t *testing.T) {
	h, _, _ := setupHandler(t)

	_, err := h.Execute(context.Background(), &Input{CourseID: "course-1", StatusFilter: "enrolled"})
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeInvalidStatus, commonerrors.GetCode(err))
}

func TestExecute_EmptyBatch(t *testing.T) {
	h, dbMock, _ := setupHandler(t)

	expectCourse(dbMock, 2)
	dbMock.ExpectQuery(`SELECT id, first_name, last_name, status, merit_score, submitted_at`).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "status", "merit_score", "submitted_at"}))
	dbMock.ExpectBegin()
	dbMock.ExpectCommit()

	output, err := h.Execute(context.Background(), &Input{CourseID: "course-1"})
	require.NoError(t, err)
	assert.Empty(t, output.Applications)
	assert.Nil(t, output.CutoffScore)
}
