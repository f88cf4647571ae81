// internal/operations/admission/rank-course/handler.go
package rankcourse

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"admission-engine/internal/common/errors"
	"admission-engine/internal/common/locking"
	"admission-engine/internal/common/logger"
	"admission-engine/internal/common/metrics"
	"admission-engine/internal/merit"
	"admission-engine/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const OperationName = "rank-course"

// CacheKey is shared with the operations that invalidate the ranking
// cache on mutation.
func CacheKey(courseID string) string {
	return "ranking:" + courseID
}

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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	var statusFilter models.Status
	if input.StatusFilter != "" {
		parsed, ok := models.ParseStatus(input.StatusFilter)
		if !ok {
			return nil, errors.NewInvalidStatusError(input.StatusFilter)
		}
		statusFilter = parsed
	}

	h.locks.Lock(input.CourseID)
	defer h.locks.Unlock(input.CourseID)

	// Only the unfiltered ranking is cached; filtered views are cheap
	// subsets and are always computed fresh.
	if statusFilter == "" {
		if cached := h.readCache(ctx, input.CourseID); cached != nil {
			return cached, nil
		}
	}

	var (
		courseTitle  string
		seatCapacity int
	)
	err := h.db.QueryRowContext(ctx,
		`SELECT title, seat_capacity FROM courses WHERE id = $1`,
		input.CourseID).Scan(&courseTitle, &seatCapacity)
	switch {
	case err == sql.ErrNoRows:
		return nil, errors.NewCourseNotFoundError(input.CourseID)
	case err != nil:
		return nil, errors.NewDatabaseQueryFailedError("lookup course", err)
	}

	apps, err := h.loadApplications(ctx, input.CourseID, statusFilter)
	if err != nil {
		return nil, err
	}

	entries := make([]merit.Entry, 0, len(apps))
	for _, a := range apps {
		entries = append(entries, merit.Entry{ID: a.ApplicationID, Score: a.MeritScore, SubmittedAt: a.submittedAt})
	}
	ranked := merit.AssignRanks(entries)

	byID := make(map[string]*rankedRow, len(apps))
	for i := range apps {
		byID[apps[i].ApplicationID] = &apps[i]
	}

	ordered := make([]RankedApplication, 0, len(ranked))
	for _, r := range ranked {
		app := byID[r.ID]
		app.MeritRank = r.Rank
		ordered = append(ordered, app.RankedApplication)
	}

	// Ranks are durable state only for the full batch; a filtered subset
	// would overwrite them with ranks relative to the wrong population.
	if statusFilter == "" {
		if err := h.persistRanks(ctx, ranked); err != nil {
			return nil, err
		}
	}

	output := &Output{
		CourseID:     input.CourseID,
		CourseTitle:  courseTitle,
		SeatCapacity: seatCapacity,
		Applications: ordered,
		RankedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if seatCapacity > 0 && len(ordered) >= seatCapacity {
		cutoff := ordered[seatCapacity-1].MeritScore
		output.CutoffScore = &cutoff
	}

	if statusFilter == "" {
		h.writeCache(ctx, input.CourseID, output)
	}

	h.logger.Info("course ranked", map[string]interface{}{
		"courseId":     input.CourseID,
		"applications": len(ordered),
		"statusFilter": input.StatusFilter,
	})
	return output, nil
}

// rankedRow carries the submission timestamp alongside the response
// shape; the timestamp participates in tiebreaking but is not exposed.
type rankedRow struct {
	RankedApplication
	submittedAt time.Time
}

func (h *Handler) loadApplications(ctx context.Context, courseID string, statusFilter models.Status) ([]rankedRow, error) {
	query := `SELECT id, first_name, last_name, status, merit_score, submitted_at
	          FROM applications WHERE course_id = $1`
	args := []interface{}{courseID}
	if statusFilter != "" {
		query += ` AND status = $2`
		args = append(args, string(statusFilter))
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewDatabaseQueryFailedError("load applications", err)
	}
	defer rows.Close()

	var apps []rankedRow
	for rows.Next() {
		var a rankedRow
		if err := rows.Scan(&a.ApplicationID, &a.FirstName, &a.LastName, &a.Status, &a.MeritScore, &a.submittedAt); err != nil {
			return nil, errors.NewDatabaseQueryFailedError("scan application", err)
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseQueryFailedError("iterate applications", err)
	}
	return apps, nil
}

func (h *Handler) persistRanks(ctx context.Context, ranked []merit.Ranked) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewDatabaseQueryFailedError("begin rank update", err)
	}
	defer tx.Rollback()

	for _, r := range ranked {
		if _, err := tx.ExecContext(ctx,
			`UPDATE applications SET merit_rank = $1, updated_at = NOW() WHERE id = $2`,
			r.Rank, r.ID); err != nil {
			return errors.NewDatabaseQueryFailedError("update merit rank", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewDatabaseQueryFailedError("commit rank update", err)
	}
	return nil
}

func (h *Handler) readCache(ctx context.Context, courseID string) *Output {
	if h.redis == nil {
		return nil
	}

	raw, err := h.redis.Get(ctx, CacheKey(courseID)).Result()
	if err != nil {
		if err != redis.Nil {
			h.logger.Warn("ranking cache read failed", map[string]interface{}{"error": err})
		}
		return nil
	}

	var output Output
	if err := json.Unmarshal([]byte(raw), &output); err != nil {
		h.logger.Warn("ranking cache corrupt", map[string]interface{}{"error": err})
		return nil
	}
	output.FromCache = true
	return &output
}

func (h *Handler) writeCache(ctx context.Context, courseID string, output *Output) {
	if h.redis == nil {
		return
	}

	raw, err := json.Marshal(output)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, CacheKey(courseID), raw, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("ranking cache write failed", map[string]interface{}{"error": err})
	}
}
