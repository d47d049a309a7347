package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobState represents the lifecycle state of a sitemap analysis job.
type JobState string

const (
	StatePending JobState = "pending"
	StateRunning JobState = "running"
	StateDone    JobState = "done"
	StateError   JobState = "error"
)

// IsTerminal returns true if the state represents a final state.
func (s JobState) IsTerminal() bool {
	return s == StateDone || s == StateError
}

// Job represents one asynchronous sitemap analysis request throughout its
// lifecycle. A job is mutated only by the single background task assigned to
// it; readers observe snapshots.
type Job struct {
	ID         uuid.UUID       `json:"job_id"`
	SitemapURL string          `json:"sitemap_url"`
	State      JobState        `json:"state"`
	Result     *AnalysisResult `json:"result,omitempty"`
	Error      *ErrorDetail    `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ErrorDetail describes a terminal job failure in a user-diagnosable way.
// Sample carries a bounded excerpt of the raw content that caused the
// failure (e.g. the XML that would not parse).
type ErrorDetail struct {
	Message  string `json:"message"`
	Category string `json:"category,omitempty"`
	Sample   string `json:"sample,omitempty"`
}

// AnalysisResult is the combined output of a successful pipeline run.
// Owned by the job once stored; read-only afterward.
type AnalysisResult struct {
	Stats    SitemapStats `json:"stats"`
	Clusters []Cluster    `json:"clusters"`
}

// SubmitRequest is an incoming analysis submission from the API.
type SubmitRequest struct {
	SitemapURL string `json:"sitemap_url" binding:"required"`
}

// SubmitResponse is returned after a successful submission.
type SubmitResponse struct {
	JobID uuid.UUID `json:"job_id"`
	State JobState  `json:"state"`
}

// StatusResponse is the polling payload for a job. Result and Error are only
// populated in the corresponding terminal state.
type StatusResponse struct {
	JobID     uuid.UUID       `json:"job_id"`
	State     JobState        `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
	Result    *AnalysisResult `json:"result,omitempty"`
	Error     *ErrorDetail    `json:"error,omitempty"`
}

// StatusFromJob builds the polling payload from a job snapshot.
func StatusFromJob(job *Job) *StatusResponse {
	return &StatusResponse{
		JobID:     job.ID,
		State:     job.State,
		CreatedAt: job.CreatedAt,
		Result:    job.Result,
		Error:     job.Error,
	}
}
