package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/alainprocs/SitemapSageAI/internal/domain"
	"github.com/alainprocs/SitemapSageAI/internal/repository"
)

// Ensure Store implements repository.JobStore.
var _ repository.JobStore = (*Store)(nil)

const keyPrefix = "sitemapsage:job:"

// Store is a Redis-backed job store. Jobs are JSON records whose TTL is the
// retention window, so eviction is handled by Redis itself. Each job still
// has a single writer, so plain read-modify-write is safe without WATCH.
type Store struct {
	client    *goredis.Client
	retention time.Duration
}

// New creates a Redis-backed job store.
func New(client *goredis.Client, retention time.Duration) *Store {
	return &Store{client: client, retention: retention}
}

func (s *Store) Create(ctx context.Context, job *domain.Job) error {
	return s.save(ctx, job)
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	data, err := s.client.Get(ctx, keyPrefix+id.String()).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get job: %w", err)
	}

	job := &domain.Job{}
	if err := json.Unmarshal(data, job); err != nil {
		return nil, fmt.Errorf("redis: decode job: %w", err)
	}
	return job, nil
}

func (s *Store) MarkRunning(ctx context.Context, id uuid.UUID) error {
	return s.mutate(ctx, id, func(job *domain.Job) {
		job.State = domain.StateRunning
	})
}

func (s *Store) SetResult(ctx context.Context, id uuid.UUID, result *domain.AnalysisResult) error {
	return s.mutate(ctx, id, func(job *domain.Job) {
		job.Result = result
		job.State = domain.StateDone
	})
}

func (s *Store) SetError(ctx context.Context, id uuid.UUID, detail *domain.ErrorDetail) error {
	return s.mutate(ctx, id, func(job *domain.Job) {
		job.Error = detail
		job.State = domain.StateError
	})
}

func (s *Store) mutate(ctx context.Context, id uuid.UUID, apply func(*domain.Job)) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.State.IsTerminal() {
		return domain.ErrJobFinalized
	}
	apply(job)
	job.UpdatedAt = time.Now().UTC()
	return s.save(ctx, job)
}

func (s *Store) save(ctx context.Context, job *domain.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("redis: encode job: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+job.ID.String(), data, s.retention).Err(); err != nil {
		return fmt.Errorf("redis: save job: %w", err)
	}
	return nil
}
