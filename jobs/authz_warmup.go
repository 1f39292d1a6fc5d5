package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/academia-erp/academia-erp/internal/authz"
	jobmetrics "github.com/academia-erp/academia-erp/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// AuthzWarmupJob pre-populates the permission-set cache for principals with
// recent session activity, so their first request after the job runs hits
// the cache instead of the store.
type AuthzWarmupJob struct {
	Engine  *authz.Engine
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAuthzWarmupJob wires dependencies for the warmup handler.
func NewAuthzWarmupJob(engine *authz.Engine, pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuthzWarmupJob {
	return &AuthzWarmupJob{Engine: engine, Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle processes authz warmup tasks.
func (j *AuthzWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Engine == nil || j.Pool == nil {
		return errors.New("authz warmup: handler not configured")
	}
	var payload AuthzWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	window := 24 * time.Hour
	if payload.ActiveWithin != "" {
		parsed, err := time.ParseDuration(payload.ActiveWithin)
		if err != nil {
			return asynq.SkipRetry
		}
		window = parsed
	}
	limit := payload.Limit
	if limit <= 0 {
		limit = 500
	}

	tracker := j.metrics().Track(TaskAuthzWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Duration("active_within", window))
	logger.Info("starting authz warmup")

	principals, err := j.fetchActivePrincipals(ctx, window, limit)
	if err != nil {
		resultErr = err
		logger.Error("load active principals", slog.Any("error", err))
		return resultErr
	}
	if len(principals) == 0 {
		logger.Info("no active principals to warm")
		return resultErr
	}

	warmed := 0
	for _, id := range principals {
		warmCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := j.Engine.Resolve(warmCtx, id)
		cancel()
		if err != nil {
			if errors.Is(err, authz.ErrNotFound) {
				continue
			}
			resultErr = err
			logger.Error("warm principal", slog.Int64("principal_id", id), slog.Any("error", err))
			return resultErr
		}
		warmed++
	}

	logger.Info("completed authz warmup", slog.Int("warmed", warmed))
	return resultErr
}

func (j *AuthzWarmupJob) fetchActivePrincipals(ctx context.Context, window time.Duration, limit int) ([]int64, error) {
	rows, err := j.Pool.Query(ctx, `
		SELECT DISTINCT user_id FROM sessions
		WHERE created_at >= NOW() - make_interval(secs => $1)
		ORDER BY user_id
		LIMIT $2`, window.Seconds(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (j *AuthzWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AuthzWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
