package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alainprocs/SitemapSageAI/internal/domain"
	"github.com/alainprocs/SitemapSageAI/internal/repository"
)

// Ensure Store implements repository.JobStore.
var _ repository.JobStore = (*Store)(nil)

// Store is an in-memory job store: a bounded map guarded by a RWMutex. Each
// job has a single writer (its background task) for its entire lifetime, so
// per-entry write conflicts cannot occur; the mutex protects the map itself
// and gives pollers tear-free snapshots. Terminal jobs are evicted after the
// retention window by a janitor goroutine.
type Store struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*domain.Job

	retention time.Duration
	maxJobs   int
	logger    *zap.Logger
	stop      chan struct{}
	stopOnce  sync.Once
}

// New creates a memory store and starts its retention janitor. Call Close to
// stop the janitor.
func New(retention time.Duration, maxJobs int, logger *zap.Logger) *Store {
	s := &Store{
		jobs:      make(map[uuid.UUID]*domain.Job),
		retention: retention,
		maxJobs:   maxJobs,
		logger:    logger,
		stop:      make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Close stops the retention janitor.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Store) Create(ctx context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxJobs > 0 && len(s.jobs) >= s.maxJobs {
		if !s.evictOldestTerminalLocked() {
			return domain.ErrStoreFull
		}
	}

	stored := *job
	s.jobs[job.ID] = &stored
	return nil
}

// Get returns a snapshot copy of the job. The Result and Error pointers are
// shared but immutable once set, so the copy never tears.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	snapshot := *job
	return &snapshot, nil
}

func (s *Store) MarkRunning(ctx context.Context, id uuid.UUID) error {
	return s.mutate(id, func(job *domain.Job) {
		job.State = domain.StateRunning
	})
}

func (s *Store) SetResult(ctx context.Context, id uuid.UUID, result *domain.AnalysisResult) error {
	return s.mutate(id, func(job *domain.Job) {
		job.Result = result
		job.State = domain.StateDone
	})
}

func (s *Store) SetError(ctx context.Context, id uuid.UUID, detail *domain.ErrorDetail) error {
	return s.mutate(id, func(job *domain.Job) {
		job.Error = detail
		job.State = domain.StateError
	})
}

// mutate applies a forward transition under the write lock. Terminal jobs
// are immutable.
func (s *Store) mutate(id uuid.UUID, apply func(*domain.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
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

// evictOldestTerminalLocked removes the oldest terminal job to make room for
// a new one. Returns false when no job is evictable (all still in flight).
func (s *Store) evictOldestTerminalLocked() bool {
	var oldestID uuid.UUID
	var oldestAt time.Time
	found := false
	for id, job := range s.jobs {
		if !job.State.IsTerminal() {
			continue
		}
		if !found || job.UpdatedAt.Before(oldestAt) {
			oldestID, oldestAt, found = id, job.UpdatedAt, true
		}
	}
	if found {
		delete(s.jobs, oldestID)
	}
	return found
}

func (s *Store) janitor() {
	interval := s.retention / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			evicted := s.evictExpired(time.Now())
			if evicted > 0 {
				s.logger.Debug("Evicted expired jobs", zap.Int("count", evicted))
			}
		}
	}
}

// evictExpired removes terminal jobs whose last update is past the retention
// window. Returns the number evicted.
func (s *Store) evictExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []uuid.UUID
	for id, job := range s.jobs {
		if job.State.IsTerminal() && now.Sub(job.UpdatedAt) > s.retention {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(s.jobs, id)
	}
	return len(expired)
}

// Jobs returns all stored jobs sorted by creation time (for test assertions).
func (s *Store) Jobs() []*domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		snapshot := *j
		result = append(result, &snapshot)
	}
	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.Before(result[k].CreatedAt)
	})
	return result
}
