package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alainprocs/SitemapSageAI/internal/domain"
)

func newTestStore(t *testing.T, maxJobs int) *Store {
	t.Helper()
	s := New(time.Hour, maxJobs, zap.NewNop())
	t.Cleanup(s.Close)
	return s
}

func newPendingJob() *domain.Job {
	now := time.Now().UTC()
	return &domain.Job{
		ID:         uuid.Must(uuid.NewV7()),
		SitemapURL: "https://example.com/sitemap.xml",
		State:      domain.StatePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	s := newTestStore(t, 10)
	ctx := context.Background()
	job := newPendingJob()

	if err := s.Create(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != domain.StatePending {
		t.Errorf("expected pending, got %s", got.State)
	}
	if got.SitemapURL != job.SitemapURL {
		t.Errorf("unexpected sitemap URL %q", got.SitemapURL)
	}
}

func TestStore_GetUnknownID(t *testing.T) {
	s := newTestStore(t, 10)

	_, err := s.Get(context.Background(), uuid.Must(uuid.NewV7()))
	if !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestStore_LifecycleTransitions(t *testing.T) {
	s := newTestStore(t, 10)
	ctx := context.Background()
	job := newPendingJob()
	if err := s.Create(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.MarkRunning(ctx, job.ID); err != nil {
		t.Fatalf("mark running: %v", err)
	}
	got, _ := s.Get(ctx, job.ID)
	if got.State != domain.StateRunning {
		t.Fatalf("expected running, got %s", got.State)
	}

	result := &domain.AnalysisResult{Stats: domain.SitemapStats{TotalURLs: 3}}
	if err := s.SetResult(ctx, job.ID, result); err != nil {
		t.Fatalf("set result: %v", err)
	}
	got, _ = s.Get(ctx, job.ID)
	if got.State != domain.StateDone {
		t.Errorf("expected done, got %s", got.State)
	}
	if got.Result == nil || got.Result.Stats.TotalURLs != 3 {
		t.Errorf("result not stored: %+v", got.Result)
	}
	if !got.UpdatedAt.After(job.UpdatedAt) {
		t.Error("expected UpdatedAt to advance")
	}
}

func TestStore_TerminalJobsAreImmutable(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name     string
		finalize func(s *Store, id uuid.UUID) error
	}{
		{"done", func(s *Store, id uuid.UUID) error {
			return s.SetResult(ctx, id, &domain.AnalysisResult{})
		}},
		{"error", func(s *Store, id uuid.UUID) error {
			return s.SetError(ctx, id, &domain.ErrorDetail{Message: "boom", Category: "internal"})
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestStore(t, 10)
			job := newPendingJob()
			if err := s.Create(ctx, job); err != nil {
				t.Fatalf("create: %v", err)
			}
			if err := tc.finalize(s, job.ID); err != nil {
				t.Fatalf("finalize: %v", err)
			}

			if err := s.MarkRunning(ctx, job.ID); !errors.Is(err, domain.ErrJobFinalized) {
				t.Errorf("MarkRunning after terminal: expected ErrJobFinalized, got %v", err)
			}
			if err := s.SetResult(ctx, job.ID, &domain.AnalysisResult{}); !errors.Is(err, domain.ErrJobFinalized) {
				t.Errorf("SetResult after terminal: expected ErrJobFinalized, got %v", err)
			}
			if err := s.SetError(ctx, job.ID, &domain.ErrorDetail{}); !errors.Is(err, domain.ErrJobFinalized) {
				t.Errorf("SetError after terminal: expected ErrJobFinalized, got %v", err)
			}
		})
	}
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s := newTestStore(t, 10)
	ctx := context.Background()
	job := newPendingJob()
	if err := s.Create(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}

	snapshot, _ := s.Get(ctx, job.ID)
	if err := s.MarkRunning(ctx, job.ID); err != nil {
		t.Fatalf("mark running: %v", err)
	}

	if snapshot.State != domain.StatePending {
		t.Error("snapshot mutated by a later write")
	}

	// Mutating the caller's copy must not leak into the store either.
	snapshot.State = domain.StateError
	got, _ := s.Get(ctx, job.ID)
	if got.State != domain.StateRunning {
		t.Errorf("store mutated through a snapshot, state %s", got.State)
	}
}

func TestStore_CapacityEvictsOldestTerminal(t *testing.T) {
	s := newTestStore(t, 2)
	ctx := context.Background()

	oldest := newPendingJob()
	if err := s.Create(ctx, oldest); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.SetError(ctx, oldest.ID, &domain.ErrorDetail{Message: "x"}); err != nil {
		t.Fatalf("set error: %v", err)
	}

	second := newPendingJob()
	if err := s.Create(ctx, second); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.SetResult(ctx, second.ID, &domain.AnalysisResult{}); err != nil {
		t.Fatalf("set result: %v", err)
	}

	third := newPendingJob()
	if err := s.Create(ctx, third); err != nil {
		t.Fatalf("create at capacity: %v", err)
	}

	if _, err := s.Get(ctx, oldest.ID); !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("expected oldest terminal job evicted, got %v", err)
	}
	if _, err := s.Get(ctx, second.ID); err != nil {
		t.Errorf("newer terminal job should survive: %v", err)
	}
}

func TestStore_CapacityFullOfActiveJobs(t *testing.T) {
	s := newTestStore(t, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := s.Create(ctx, newPendingJob()); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	err := s.Create(ctx, newPendingJob())
	if !errors.Is(err, domain.ErrStoreFull) {
		t.Errorf("expected ErrStoreFull, got %v", err)
	}
}

func TestStore_EvictExpired(t *testing.T) {
	s := newTestStore(t, 10)
	ctx := context.Background()

	expired := newPendingJob()
	if err := s.Create(ctx, expired); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.SetResult(ctx, expired.ID, &domain.AnalysisResult{}); err != nil {
		t.Fatalf("set result: %v", err)
	}

	active := newPendingJob()
	if err := s.Create(ctx, active); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Terminal jobs age out past the retention window; in-flight jobs never do.
	evicted := s.evictExpired(time.Now().Add(2 * time.Hour))
	if evicted != 1 {
		t.Fatalf("expected 1 eviction, got %d", evicted)
	}
	if _, err := s.Get(ctx, expired.ID); !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("expected expired job gone, got %v", err)
	}
	if _, err := s.Get(ctx, active.ID); err != nil {
		t.Errorf("pending job must survive retention: %v", err)
	}
}

func TestStore_ConcurrentReadersAndWriter(t *testing.T) {
	s := newTestStore(t, 100)
	ctx := context.Background()
	job := newPendingJob()
	if err := s.Create(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 200; k++ {
				got, err := s.Get(ctx, job.ID)
				if err != nil {
					t.Errorf("get: %v", err)
					return
				}
				// A done snapshot must always carry its result.
				if got.State == domain.StateDone && got.Result == nil {
					t.Error("torn snapshot: done without result")
					return
				}
			}
		}()
	}

	if err := s.MarkRunning(ctx, job.ID); err != nil {
		t.Fatalf("mark running: %v", err)
	}
	if err := s.SetResult(ctx, job.ID, &domain.AnalysisResult{Stats: domain.SitemapStats{TotalURLs: 1}}); err != nil {
		t.Fatalf("set result: %v", err)
	}
	wg.Wait()
}
