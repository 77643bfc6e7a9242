package model

import "time"

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusTimeout    JobStatus = "timeout"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusTimeout:
		return true
	default:
		return false
	}
}

// ResultMessage is the agent reply that completed a job, copied out of the
// bus event that carried it.
type ResultMessage struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	AuthorID  string         `json:"author_id"`
	CreatedAt time.Time      `json:"created_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type JobResult struct {
	Message          ResultMessage `json:"message"`
	ProcessingTimeMs int64         `json:"processing_time_ms"`
}

// Job is one caller request / agent response exchange, tracked independently
// of any long-lived conversation history. Identity fields and timestamps are
// fixed at creation; only Status and the terminal-outcome fields mutate.
type Job struct {
	ID        string
	AgentID   string
	CallerID  string
	ChannelID string
	Prompt    string
	Status    JobStatus
	CreatedAt time.Time
	ExpiresAt time.Time

	// CallerMessageID is the message the bridge itself posted into the
	// channel. The correlator uses it to ignore the echo of the prompt.
	CallerMessageID   string
	ResponseMessageID string

	Result   *JobResult
	Error    string
	Metadata map[string]any
}

// Expired reports whether the job's deadline has passed. ExpiresAt is fixed
// at creation and never extended.
func (j *Job) Expired(now time.Time) bool {
	return now.After(j.ExpiresAt)
}

// Clone returns a snapshot copy safe to hand across goroutine boundaries.
// Result is immutable once set, so the pointer is shared.
func (j *Job) Clone() *Job {
	cp := *j
	return &cp
}
