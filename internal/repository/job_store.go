package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/alainprocs/SitemapSageAI/internal/domain"
)

// JobStore defines the interface for job state storage. Implementations must
// be safe for concurrent use: many readers (pollers) against a single writer
// per job (the job's own background task). Writes to a job in a terminal
// state must fail with domain.ErrJobFinalized, and readers must observe
// either a fully-pre-transition or fully-post-transition snapshot.
type JobStore interface {
	// Create inserts a new pending job.
	Create(ctx context.Context, job *domain.Job) error

	// Get retrieves a snapshot of a job by its ID.
	Get(ctx context.Context, id uuid.UUID) (*domain.Job, error)

	// MarkRunning transitions a pending job to running.
	MarkRunning(ctx context.Context, id uuid.UUID) error

	// SetResult stores the analysis result and transitions the job to done.
	SetResult(ctx context.Context, id uuid.UUID, result *domain.AnalysisResult) error

	// SetError records the failure detail and transitions the job to error.
	SetError(ctx context.Context, id uuid.UUID, detail *domain.ErrorDetail) error
}
