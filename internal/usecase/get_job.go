package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alainprocs/SitemapSageAI/internal/domain"
	"github.com/alainprocs/SitemapSageAI/internal/repository"
)

// GetJobUsecase handles status and result queries. Reads never block on the
// background work: they return whatever snapshot the store currently holds.
type GetJobUsecase struct {
	store  repository.JobStore
	logger *zap.Logger
}

// NewGetJobUsecase creates a new GetJobUsecase.
func NewGetJobUsecase(store repository.JobStore, logger *zap.Logger) *GetJobUsecase {
	return &GetJobUsecase{
		store:  store,
		logger: logger,
	}
}

// Execute retrieves a job snapshot by its ID.
func (uc *GetJobUsecase) Execute(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	job, err := uc.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrJobNotFound) {
			uc.logger.Error("Store read failed", zap.String("job_id", id.String()), zap.Error(err))
		}
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}
