package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/engffsantos/easyStock360/internal/jobs"
)

// Sweeper flags payments and entries whose due date has passed, atomically.
type Sweeper interface {
	SweepOverdue(ctx context.Context) (payments, entries int64, err error)
}

// OverdueSweepJob marks PENDENTE sale payments and financial entries due before today as VENCIDO.
type OverdueSweepJob struct {
	Sweeper Sweeper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewOverdueSweepJob wires dependencies for the sweep handler.
func NewOverdueSweepJob(sweeper Sweeper, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverdueSweepJob {
	return &OverdueSweepJob{Sweeper: sweeper, Logger: logger, Metrics: metrics}
}

// Handle processes TaskOverdueSweep tasks.
func (j *OverdueSweepJob) Handle(ctx context.Context, _ *asynq.Task) (resultErr error) {
	if j == nil || j.Sweeper == nil {
		return errors.New("overdue sweep: handler not configured")
	}
	tracker := j.Metrics.Track(TaskOverdueSweep)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := time.Now()
	payments, entries, err := j.Sweeper.SweepOverdue(ctx)
	if err != nil {
		j.logger().Error("sweep overdue", slog.Any("error", err))
		return err
	}
	j.Metrics.AddAffected(TaskOverdueSweep, "sale_payments", payments)
	j.Metrics.AddAffected(TaskOverdueSweep, "financial_entries", entries)
	j.logger().Info("overdue sweep completed",
		slog.Int64("payments", payments),
		slog.Int64("entries", entries),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *OverdueSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
