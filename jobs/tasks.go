package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOverdueSweep flags pending payments and entries past their due date.
	TaskOverdueSweep = "finance:overdue_sweep"
	// TaskIdempotencyCleanup drops old Idempotency-Key records.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// OverdueSweepPayload is empty; the sweep always runs against today.
type OverdueSweepPayload struct{}

// IdempotencyCleanupPayload overrides the retention in hours when positive.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours,omitempty"`
}

// NewOverdueSweepTask constructs the sweep task.
func NewOverdueSweepTask() (*asynq.Task, error) {
	data, err := json.Marshal(OverdueSweepPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverdueSweep, data), nil
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
