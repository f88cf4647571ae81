// internal/operations/application/submit-application/handler.go
package submitapplication

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"admission-engine/internal/common/errors"
	"admission-engine/internal/common/logger"
	"admission-engine/internal/common/metrics"
	"admission-engine/internal/merit"
	"admission-engine/internal/models"
	"admission-engine/internal/notify"
	"admission-engine/internal/validation"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const OperationName = "submit-application"

type Handler struct {
	config   *Config
	db       *sql.DB
	notifier notify.Notifier
	logger   logger.Logger
}

func NewHandler(config *Config, db *sql.DB, notifier notify.Notifier, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		db:       db,
		notifier: notifier,
		logger:   log.WithFields(map[string]interface{}{"operation": OperationName}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	timer := prometheus.NewTimer(metrics.OperationDuration.WithLabelValues(OperationName))
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := h.validateInput(input); err != nil {
		return nil, err
	}

	var (
		courseID     string
		courseType   string
		seatCapacity int
	)
	err := h.db.QueryRowContext(ctx,
		`SELECT id, course_type, seat_capacity FROM courses WHERE title = $1`,
		input.CourseTitle).Scan(&courseID, &courseType, &seatCapacity)
	switch {
	case err == sql.ErrNoRows:
		return nil, errors.NewCourseNotFoundError(input.CourseTitle)
	case err != nil:
		return nil, errors.NewDatabaseQueryFailedError("lookup course by title", err)
	}

	// Score is computed exactly once, at submission. Later operations read
	// the stored value and never recompute it.
	score := merit.Score(input.SubjectMarks)

	marksJSON, err := json.Marshal(input.SubjectMarks)
	if err != nil {
		return nil, fmt.Errorf("marshal subject marks: %w", err)
	}

	applicationID := uuid.New().String()
	var submittedAt time.Time
	err = h.db.QueryRowContext(ctx,
		`INSERT INTO applications
		   (id, course_id, course_title, course_type, first_name, last_name, email,
		    board_name, subject_marks, merit_score, status, submitted_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'pending', NOW(), NOW())
		 RETURNING submitted_at`,
		applicationID, courseID, input.CourseTitle, courseType,
		input.FirstName, input.LastName, input.Email,
		input.BoardName, marksJSON, score).Scan(&submittedAt)
	if err != nil {
		return nil, errors.NewDatabaseQueryFailedError("insert application", err)
	}

	h.logger.Info("application submitted", map[string]interface{}{
		"applicationId": applicationID,
		"courseId":      courseID,
		"meritScore":    score,
	})

	app := &models.Application{
		ID:          applicationID,
		CourseID:    courseID,
		CourseTitle: input.CourseTitle,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       input.Email,
		MeritScore:  score,
		Status:      models.StatusPending,
		SubmittedAt: submittedAt,
	}
	if err := h.notifier.Notify(ctx, notify.KindConfirmation, app, nil); err != nil {
		metrics.NotificationFailures.WithLabelValues(string(notify.KindConfirmation)).Inc()
		h.logger.Warn("confirmation notification failed", map[string]interface{}{
			"error":         err,
			"applicationId": applicationID,
		})
	}

	return &Output{
		ApplicationID: applicationID,
		CourseID:      courseID,
		MeritScore:    score,
		Status:        string(models.StatusPending),
		SubmittedAt:   submittedAt.UTC().Format(time.RFC3339),
	}, nil
}

// validateInput round-trips the typed input through JSON so the schema sees
// exactly what an API client would have sent.
func (h *Handler) validateInput(input *Input) error {
	raw, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("marshal input: %w", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("unmarshal input: %w", err)
	}

	result, err := validation.ValidateSubmission(doc, h.config.MinSubjects)
	if err != nil {
		return fmt.Errorf("validate submission: %w", err)
	}
	if !result.Valid {
		return errors.NewInvalidMarksError(result.ErrorDetails())
	}
	return nil
}
