package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alainprocs/SitemapSageAI/internal/domain"
	"github.com/alainprocs/SitemapSageAI/internal/repository"
)

const maxSitemapURLLen = 2048

// JobQueue hands a created job to the background workers without blocking
// the request path.
type JobQueue interface {
	Enqueue(job *domain.Job) error
}

// SubmitJobUsecase handles the business logic for submitting analysis jobs.
type SubmitJobUsecase struct {
	store  repository.JobStore
	queue  JobQueue
	logger *zap.Logger
}

// NewSubmitJobUsecase creates a new SubmitJobUsecase.
func NewSubmitJobUsecase(store repository.JobStore, queue JobQueue, logger *zap.Logger) *SubmitJobUsecase {
	return &SubmitJobUsecase{
		store:  store,
		queue:  queue,
		logger: logger,
	}
}

// Execute validates the submission, creates a pending job, and schedules the
// background analysis. It never waits for the analysis itself; re-submission
// of the same sitemap URL always creates a new, independent job.
func (uc *SubmitJobUsecase) Execute(ctx context.Context, req *domain.SubmitRequest) (*domain.SubmitResponse, error) {
	sitemapURL, err := normalizeSubmittedURL(req.SitemapURL)
	if err != nil {
		return nil, err
	}

	// Generate UUIDv7 (time-ordered)
	jobID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate UUIDv7: %w", err)
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:         jobID,
		SitemapURL: sitemapURL,
		State:      domain.StatePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := uc.store.Create(ctx, job); err != nil {
		uc.logger.Error("Failed to create job in store", zap.Error(err), zap.String("job_id", jobID.String()))
		return nil, fmt.Errorf("create job: %w", err)
	}

	if err := uc.queue.Enqueue(job); err != nil {
		uc.logger.Error("Failed to enqueue job", zap.Error(err), zap.String("job_id", jobID.String()))
		// The job will never be processed; record that visibly.
		_ = uc.store.SetError(ctx, jobID, &domain.ErrorDetail{
			Message:  "analysis could not be scheduled: " + err.Error(),
			Category: "internal",
		})
		return nil, domain.ErrQueueFull
	}

	uc.logger.Info("Analysis job submitted",
		zap.String("job_id", jobID.String()),
		zap.String("sitemap_url", sitemapURL),
	)

	return &domain.SubmitResponse{
		JobID: jobID,
		State: domain.StatePending,
	}, nil
}

// normalizeSubmittedURL validates the submitted sitemap URL, prepending
// https:// when the scheme is missing.
func normalizeSubmittedURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", domain.ErrEmptySitemapURL
	}
	if len(raw) > maxSitemapURLLen {
		return "", domain.ErrURLTooLong
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "", domain.ErrInvalidSitemapURL
	}
	return raw, nil
}
