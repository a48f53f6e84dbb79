package ipc

// StartRequest triggers daemon workflow startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops daemon workflow.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/workflow status information.
type StatusResponse struct {
	Running     bool           `json:"running"`
	PID         int            `json:"pid"`
	InFlight    int            `json:"in_flight"`
	QueueStats  map[string]int `json:"queue_stats"`
	Stages      []StageHealth  `json:"stages"`
	QueueDBPath string         `json:"queue_db_path"`
	LockPath    string         `json:"lock_path"`
}

// StageHealth reports one stage executor's readiness.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// Task mirrors the queue task for IPC callers.
type Task struct {
	ID           string `json:"id"`
	ServiceID    string `json:"service_id"`
	LocationKey  string `json:"location_key"`
	Status       string `json:"status"`
	Stage        string `json:"stage,omitempty"`
	AttemptCount int    `json:"attempt_count"`
	ErrorMessage string `json:"error_message,omitempty"`
	PublishedURL string `json:"published_url,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// TaskEvent is one audit trail entry for a task.
type TaskEvent struct {
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	Detail     string `json:"detail,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Tasks []Task `json:"tasks"`
}

// QueueDescribeRequest fetches a single task with its audit trail.
type QueueDescribeRequest struct {
	ID string `json:"id"`
}

// QueueDescribeResponse contains a single task and its events.
type QueueDescribeResponse struct {
	Task   Task        `json:"task"`
	Events []TaskEvent `json:"events"`
}

// QueueRetryRequest retries failed tasks. Empty list means all failed tasks.
type QueueRetryRequest struct {
	IDs []string `json:"ids"`
}

// QueueRetryResponse reports number of retried tasks.
type QueueRetryResponse struct {
	Updated int64 `json:"updated"`
}

// QueueResetRequest resets errored tasks. Empty list means all errored tasks.
type QueueResetRequest struct {
	IDs []string `json:"ids"`
}

// QueueResetResponse reports number of reset tasks.
type QueueResetResponse struct {
	Updated int64 `json:"updated"`
}

// SeedRequest expands the configured catalogs into pending tasks.
type SeedRequest struct{}

// SeedResponse reports the size of the catalog expansion.
type SeedResponse struct {
	Pairs int `json:"pairs"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
