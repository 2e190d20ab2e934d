package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPermissionCacheWarmup rebuilds the per-role permission cache.
	TaskPermissionCacheWarmup = "rbac:cache_warmup"
)

// CacheWarmupPayload narrows a warmup run to specific roles. An empty list
// means every role.
type CacheWarmupPayload struct {
	Roles []string `json:"roles,omitempty"`
}

// NewCacheWarmupTask constructs an Asynq task.
func NewCacheWarmupTask(payload CacheWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPermissionCacheWarmup, data), nil
}
