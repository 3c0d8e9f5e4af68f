package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/orcamento/internal/jobs"
)

// Warmer precomputes dashboard summaries.
type Warmer interface {
	Warm(ctx context.Context, companyID int64) error
	WarmAll(ctx context.Context) (int, error)
}

// DashboardWarmupJob pre-populates the dashboard cache.
type DashboardWarmupJob struct {
	Warmer  Warmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler. metrics may be nil.
func NewDashboardWarmupJob(warmer Warmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{Warmer: warmer, Logger: logger, Metrics: metrics, clock: time.Now}
}

// Handle processes TaskDashboardWarmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Warmer == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("dashboard warmup payload: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskDashboardWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int64("company_id", payload.CompanyID))
	start := j.clock()

	if payload.CompanyID > 0 {
		if err := j.Warmer.Warm(ctx, payload.CompanyID); err != nil {
			logger.Error("warm company", slog.Any("error", err))
			return err
		}
		j.Metrics.AddWarmed(1)
		logger.Debug("warmed dashboard")
		return nil
	}

	warmed, err := j.Warmer.WarmAll(ctx)
	j.Metrics.AddWarmed(warmed)
	if err != nil {
		logger.Error("warm all companies", slog.Int("warmed", warmed), slog.Any("error", err))
		return err
	}
	logger.Info("completed dashboard warmup", slog.Int("companies", warmed), slog.Duration("duration", j.clock().Sub(start)))
	return nil
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}
