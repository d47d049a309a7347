package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alainprocs/SitemapSageAI/internal/domain"
	"github.com/alainprocs/SitemapSageAI/internal/repository"
)

// Ensure JobStore implements repository.JobStore.
var _ repository.JobStore = (*JobStore)(nil)

// JobStore is an in-memory mock of the job store for testing.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*domain.Job

	// Hook functions for injecting errors
	CreateFunc      func(ctx context.Context, job *domain.Job) error
	GetFunc         func(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	MarkRunningFunc func(ctx context.Context, id uuid.UUID) error
	SetResultFunc   func(ctx context.Context, id uuid.UUID, result *domain.AnalysisResult) error
	SetErrorFunc    func(ctx context.Context, id uuid.UUID, detail *domain.ErrorDetail) error
}

// NewJobStore creates a new mock store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[uuid.UUID]*domain.Job)}
}

func (m *JobStore) Create(ctx context.Context, job *domain.Job) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, job)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *job
	m.jobs[job.ID] = &stored
	return nil
}

func (m *JobStore) Get(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	snapshot := *job
	return &snapshot, nil
}

func (m *JobStore) MarkRunning(ctx context.Context, id uuid.UUID) error {
	if m.MarkRunningFunc != nil {
		return m.MarkRunningFunc(ctx, id)
	}
	return m.mutate(id, func(job *domain.Job) {
		job.State = domain.StateRunning
	})
}

func (m *JobStore) SetResult(ctx context.Context, id uuid.UUID, result *domain.AnalysisResult) error {
	if m.SetResultFunc != nil {
		return m.SetResultFunc(ctx, id, result)
	}
	return m.mutate(id, func(job *domain.Job) {
		job.Result = result
		job.State = domain.StateDone
	})
}

func (m *JobStore) SetError(ctx context.Context, id uuid.UUID, detail *domain.ErrorDetail) error {
	if m.SetErrorFunc != nil {
		return m.SetErrorFunc(ctx, id, detail)
	}
	return m.mutate(id, func(job *domain.Job) {
		job.Error = detail
		job.State = domain.StateError
	})
}

func (m *JobStore) mutate(id uuid.UUID, apply func(*domain.Job)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	if job.State.IsTerminal() {
		return domain.ErrJobFinalized
	}
	apply(job)
	job.UpdatedAt = time.Now().UTC()
	return nil
}

// GetAll returns all stored jobs (for test assertions).
func (m *JobStore) GetAll() []*domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		snapshot := *j
		result = append(result, &snapshot)
	}
	return result
}
