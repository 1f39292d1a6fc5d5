package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuthzWarmup pre-populates permission-set caches for active principals.
	TaskAuthzWarmup = "authz:warmup"
	// TaskSessionSweep prunes expired session records from the database.
	TaskSessionSweep = "sessions:sweep"
)

// AuthzWarmupPayload configures a warmup run.
type AuthzWarmupPayload struct {
	// ActiveWithin bounds the lookback window, as a Go duration string.
	// Principals with a session seen inside the window get warmed.
	ActiveWithin string `json:"active_within,omitempty"`
	// Limit caps the number of principals warmed in a single run.
	Limit int `json:"limit,omitempty"`
}

// NewAuthzWarmupTask constructs an Asynq task for cache warmup.
func NewAuthzWarmupTask(payload AuthzWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuthzWarmup, data), nil
}

// NewSessionSweepTask constructs an Asynq task for session cleanup.
func NewSessionSweepTask() *asynq.Task {
	return asynq.NewTask(TaskSessionSweep, nil)
}
