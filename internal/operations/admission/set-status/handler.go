// internal/operations/admission/set-status/handler.go
package setstatus

import (
	"context"
	"database/sql"
	"time"

	"admission-engine/internal/common/errors"
	"admission-engine/internal/common/locking"
	"admission-engine/internal/common/logger"
	"admission-engine/internal/common/metrics"
	"admission-engine/internal/models"
	"admission-engine/internal/notify"
	rankcourse "admission-engine/internal/operations/admission/rank-course"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const OperationName = "set-status"

// Provisioner is the account lifecycle surface this operation drives on
// acceptance and rejection.
type Provisioner interface {
	Provision(ctx context.Context, app *models.Application) (string, error)
	Deprovision(ctx context.Context, email string) error
}

type Handler struct {
	config      *Config
	db          *sql.DB
	redis       *redis.Client
	locks       *locking.CourseLocks
	provisioner Provisioner
	notifier    notify.Notifier
	logger      logger.Logger
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, locks *locking.CourseLocks,
	provisioner Provisioner, notifier notify.Notifier, log logger.Logger) *Handler {
	return &Handler{
		config:      config,
		db:          db,
		redis:       redisClient,
		locks:       locks,
		provisioner: provisioner,
		notifier:    notifier,
		logger:      log.WithFields(map[string]interface{}{"operation": OperationName}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	timer := prometheus.NewTimer(metrics.OperationDuration.WithLabelValues(OperationName))
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	return h.execute(ctx, input)
}

// execute writes the new status first and runs side effects after. A
// crash between the two leaves the status changed with side effects
// undone; rerunning the operation repairs it because provisioning is
// idempotent and notifications are best-effort.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	newStatus, ok := models.ParseStatus(input.Status)
	if !ok {
		return nil, errors.NewInvalidStatusError(input.Status)
	}

	var courseID string
	err := h.db.QueryRowContext(ctx,
		`SELECT course_id FROM applications WHERE id = $1`,
		input.ApplicationID).Scan(&courseID)
	switch {
	case err == sql.ErrNoRows:
		return nil, errors.NewApplicationNotFoundError(input.ApplicationID)
	case err != nil:
		return nil, errors.NewDatabaseQueryFailedError("lookup application course", err)
	}

	h.locks.Lock(courseID)
	defer h.locks.Unlock(courseID)

	app, err := h.loadApplication(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}
	previous := app.Status

	if h.config.EnforceTransitions && !models.CanTransition(previous, newStatus) {
		return nil, errors.NewInvalidTransitionError(string(previous), string(newStatus))
	}

	if _, err := h.db.ExecContext(ctx,
		`UPDATE applications SET status = $1, admin_remarks = $2, updated_at = NOW() WHERE id = $3`,
		string(newStatus), input.Remarks, input.ApplicationID); err != nil {
		return nil, errors.NewDatabaseQueryFailedError("update status", err)
	}
	app.Status = newStatus
	app.AdminRemarks = input.Remarks

	metrics.StatusTransitions.WithLabelValues(string(newStatus)).Inc()
	h.logger.Info("status updated", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"from":          string(previous),
		"to":            string(newStatus),
	})

	output := &Output{
		ApplicationID:  input.ApplicationID,
		CourseID:       courseID,
		PreviousStatus: string(previous),
		Status:         string(newStatus),
		UpdatedAt:      time.Now().UTC().Format(time.RFC3339),
	}

	switch newStatus {
	case models.StatusAccepted:
		username, err := h.provisioner.Provision(ctx, app)
		if err != nil {
			// The status write is already committed. Surface the error so
			// the caller can retry provisioning.
			return nil, err
		}
		output.GeneratedUsername = username
		h.notify(ctx, notify.KindAcceptance, app, nil)

	case models.StatusRejected:
		if err := h.provisioner.Deprovision(ctx, app.Email); err != nil {
			h.logger.Warn("deprovision failed", map[string]interface{}{
				"error":         err,
				"applicationId": app.ID,
			})
		}
		h.notify(ctx, notify.KindRejection, app, nil)

		promotedID, err := h.promoteBestWaitlisted(ctx, courseID)
		if err != nil {
			return nil, err
		}
		output.PromotedApplicationID = promotedID
	}

	h.invalidateRankingCache(ctx, courseID)
	return output, nil
}

func (h *Handler) loadApplication(ctx context.Context, applicationID string) (*models.Application, error) {
	var (
		app    models.Application
		status string
	)
	err := h.db.QueryRowContext(ctx,
		`SELECT id, course_id, course_title, first_name, last_name, email, status,
		        merit_score, merit_rank, waitlist_position,
		        generated_username, admin_remarks, submitted_at
		 FROM applications WHERE id = $1`, applicationID).
		Scan(&app.ID, &app.CourseID, &app.CourseTitle, &app.FirstName, &app.LastName,
			&app.Email, &status, &app.MeritScore, &app.MeritRank, &app.WaitlistPosition,
			&app.GeneratedUsername, &app.AdminRemarks, &app.SubmittedAt)
	switch {
	case err == sql.ErrNoRows:
		return nil, errors.NewApplicationNotFoundError(applicationID)
	case err != nil:
		return nil, errors.NewDatabaseQueryFailedError("load application", err)
	}

	parsed, ok := models.ParseStatus(status)
	if !ok {
		return nil, errors.NewInvalidStatusError(status)
	}
	app.Status = parsed
	return &app, nil
}

// promoteBestWaitlisted moves the highest-scoring waitlisted application
// of the course to shortlisted. Promotion is not an acceptance: it touches
// no account state and sends no notification. Waitlist positions keep
// their old values unless renumbering is enabled, so gaps can appear over
// repeated rejections.
func (h *Handler) promoteBestWaitlisted(ctx context.Context, courseID string) (string, error) {
	candidate, err := h.loadApplicationByQuery(ctx,
		`SELECT id FROM applications
		 WHERE course_id = $1 AND status = 'waitlisted'
		 ORDER BY merit_score DESC, submitted_at ASC, id ASC
		 LIMIT 1`, courseID)
	if err != nil {
		return "", err
	}
	if candidate == "" {
		return "", nil
	}

	if _, err := h.db.ExecContext(ctx,
		`UPDATE applications SET status = 'shortlisted', updated_at = NOW() WHERE id = $1`,
		candidate); err != nil {
		return "", errors.NewDatabaseQueryFailedError("promote waitlisted application", err)
	}

	if h.config.RenumberWaitlist {
		if err := h.renumberWaitlist(ctx, courseID); err != nil {
			return "", err
		}
	}

	metrics.WaitlistPromotions.Inc()
	h.logger.Info("waitlisted application promoted", map[string]interface{}{
		"applicationId": candidate,
		"courseId":      courseID,
	})
	return candidate, nil
}

func (h *Handler) renumberWaitlist(ctx context.Context, courseID string) error {
	_, err := h.db.ExecContext(ctx,
		`UPDATE applications a
		 SET waitlist_position = r.pos, updated_at = NOW()
		 FROM (SELECT id, ROW_NUMBER() OVER (ORDER BY merit_score DESC, submitted_at ASC, id ASC) AS pos
		       FROM applications WHERE course_id = $1 AND status = 'waitlisted') r
		 WHERE a.id = r.id`, courseID)
	if err != nil {
		return errors.NewDatabaseQueryFailedError("renumber waitlist", err)
	}
	return nil
}

func (h *Handler) loadApplicationByQuery(ctx context.Context, query, arg string) (string, error) {
	var id string
	err := h.db.QueryRowContext(ctx, query, arg).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		return "", nil
	case err != nil:
		return "", errors.NewDatabaseQueryFailedError("find waitlisted candidate", err)
	}
	return id, nil
}

func (h *Handler) notify(ctx context.Context, kind notify.Kind, app *models.Application, extra map[string]interface{}) {
	if err := h.notifier.Notify(ctx, kind, app, extra); err != nil {
		metrics.NotificationFailures.WithLabelValues(string(kind)).Inc()
		h.logger.Warn("notification failed", map[string]interface{}{
			"error":         err,
			"kind":          string(kind),
			"applicationId": app.ID,
		})
	}
}

func (h *Handler) invalidateRankingCache(ctx context.Context, courseID string) {
	if h.redis == nil {
		return
	}
	if err := h.redis.Del(ctx, rankcourse.CacheKey(courseID)).Err(); err != nil {
		h.logger.Warn("ranking cache invalidation failed", map[string]interface{}{
			"error":    err,
			"courseId": courseID,
		})
	}
}
