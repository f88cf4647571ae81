// internal/operations/admission/allocate-seats/handler.go
package allocateseats

import (
	"context"
	"database/sql"
	"time"

	"admission-engine/internal/common/errors"
	"admission-engine/internal/common/locking"
	"admission-engine/internal/common/logger"
	"admission-engine/internal/common/metrics"
	"admission-engine/internal/merit"
	rankcourse "admission-engine/internal/operations/admission/rank-course"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const OperationName = "allocate-seats"

type Handler struct {
	config *Config
	db     *sql.DB
	redis  *redis.Client
	locks  *locking.CourseLocks
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, locks *locking.CourseLocks, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		redis:  redisClient,
		locks:  locks,
		logger: log.WithFields(map[string]interface{}{"operation": OperationName}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	timer := prometheus.NewTimer(metrics.OperationDuration.WithLabelValues(OperationName))
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	return h.execute(ctx, input)
}

// execute moves the course's pending batch into shortlisted and
// waitlisted in one transaction. Applications already past pending are
// untouched. An unknown course mutates nothing.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	h.locks.Lock(input.CourseID)
	defer h.locks.Unlock(input.CourseID)

	var seatCapacity int
	err := h.db.QueryRowContext(ctx,
		`SELECT seat_capacity FROM courses WHERE id = $1`,
		input.CourseID).Scan(&seatCapacity)
	switch {
	case err == sql.ErrNoRows:
		return nil, errors.NewCourseNotFoundError(input.CourseID)
	case err != nil:
		return nil, errors.NewDatabaseQueryFailedError("lookup course", err)
	}

	entries, err := h.loadPending(ctx, input.CourseID)
	if err != nil {
		return nil, err
	}
	ranked := merit.AssignRanks(entries)

	// Ties at the capacity boundary resolve by the deterministic sort
	// order: earlier submission wins the last seat.
	cut := seatCapacity
	if cut > len(ranked) {
		cut = len(ranked)
	}
	shortlisted := ranked[:cut]
	waitlisted := ranked[cut:]

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewDatabaseQueryFailedError("begin allocation", err)
	}
	defer tx.Rollback()

	output := &Output{
		CourseID:       input.CourseID,
		SeatCapacity:   seatCapacity,
		ShortlistedIDs: make([]string, 0, len(shortlisted)),
		WaitlistedIDs:  make([]string, 0, len(waitlisted)),
	}

	for _, r := range shortlisted {
		if _, err := tx.ExecContext(ctx,
			`UPDATE applications
			 SET status = 'shortlisted', merit_rank = $1, waitlist_position = 0, updated_at = NOW()
			 WHERE id = $2`,
			r.Rank, r.ID); err != nil {
			return nil, errors.NewDatabaseQueryFailedError("shortlist application", err)
		}
		output.ShortlistedIDs = append(output.ShortlistedIDs, r.ID)
	}

	for i, r := range waitlisted {
		if _, err := tx.ExecContext(ctx,
			`UPDATE applications
			 SET status = 'waitlisted', merit_rank = $1, waitlist_position = $2, updated_at = NOW()
			 WHERE id = $3`,
			r.Rank, i+1, r.ID); err != nil {
			return nil, errors.NewDatabaseQueryFailedError("waitlist application", err)
		}
		output.WaitlistedIDs = append(output.WaitlistedIDs, r.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewDatabaseQueryFailedError("commit allocation", err)
	}

	metrics.SeatsAllocated.WithLabelValues("shortlisted").Add(float64(len(shortlisted)))
	metrics.SeatsAllocated.WithLabelValues("waitlisted").Add(float64(len(waitlisted)))

	if len(shortlisted) > 0 {
		cutoff := shortlisted[len(shortlisted)-1].Score
		output.CutoffScore = &cutoff
	}
	output.AllocatedAt = time.Now().UTC().Format(time.RFC3339)

	h.invalidateRankingCache(ctx, input.CourseID)

	h.logger.Info("seats allocated", map[string]interface{}{
		"courseId":    input.CourseID,
		"shortlisted": len(shortlisted),
		"waitlisted":  len(waitlisted),
	})
	return output, nil
}

func (h *Handler) loadPending(ctx context.Context, courseID string) ([]merit.Entry, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, merit_score, submitted_at FROM applications
		 WHERE course_id = $1 AND status = 'pending'`, courseID)
	if err != nil {
		return nil, errors.NewDatabaseQueryFailedError("load pending applications", err)
	}
	defer rows.Close()

	var entries []merit.Entry
	for rows.Next() {
		var e merit.Entry
		if err := rows.Scan(&e.ID, &e.Score, &e.SubmittedAt); err != nil {
			return nil, errors.NewDatabaseQueryFailedError("scan pending application", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseQueryFailedError("iterate pending applications", err)
	}
	return entries, nil
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
