package cron

// Schedule defines when a job runs. Kind is one of "cron", "every" or "at".
type Schedule struct {
	Kind string `json:"kind"`
	// Expr is a five-field cron expression (or descriptor like @daily).
	Expr string `json:"expr,omitempty"`
	TZ   string `json:"tz,omitempty"`
	// Every is a duration such as "6h" or "90m"; it fills EveryMs on load.
	Every    string `json:"every,omitempty"`
	EveryMs  int64  `json:"everyMs,omitempty"`
	AnchorMs *int64 `json:"anchorMs,omitempty"`
	AtMs     int64  `json:"atMs,omitempty"`
}

// JobState tracks runtime state.
type JobState struct {
	NextRunAtMs    *int64 `json:"nextRunAtMs,omitempty"`
	RunningAtMs    *int64 `json:"runningAtMs,omitempty"`
	LastRunAtMs    *int64 `json:"lastRunAtMs,omitempty"`
	LastStatus     string `json:"lastStatus,omitempty"`
	LastError      string `json:"lastError,omitempty"`
	LastRunID      string `json:"lastRunId,omitempty"`
	LastDurationMs *int64 `json:"lastDurationMs,omitempty"`
}

// Job is a scheduled research topic.
type Job struct {
	ID             string   `json:"id"`
	Name           string   `json:"name,omitempty"`
	Topic          string   `json:"topic"`
	Enabled        bool     `json:"enabled"`
	DeleteAfterRun bool     `json:"deleteAfterRun,omitempty"`
	CreatedAtMs    int64    `json:"createdAtMs"`
	UpdatedAtMs    int64    `json:"updatedAtMs"`
	Schedule       Schedule `json:"schedule"`
	State          JobState `json:"state"`
}

// StoreFile is the on-disk schedule format.
type StoreFile struct {
	Version int   `json:"version"`
	Jobs    []Job `json:"jobs"`
}

// RunResult is what running a job produced.
type RunResult struct {
	Status     string
	RunID      string
	OutputFile string
	Error      string
}

func ptrInt64(v int64) *int64 {
	return &v
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
