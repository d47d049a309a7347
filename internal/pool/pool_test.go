package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alainprocs/SitemapSageAI/internal/domain"
	"github.com/alainprocs/SitemapSageAI/internal/repository/mock"
	"github.com/alainprocs/SitemapSageAI/internal/sitemap"
	"github.com/alainprocs/SitemapSageAI/internal/usecase"
)

type stubFetcher struct {
	entries []domain.URLEntry
	err     error
	panics  bool
}

func (f *stubFetcher) Fetch(ctx context.Context, sitemapURL string) ([]domain.URLEntry, *sitemap.Report, error) {
	if f.panics {
		panic("fetcher exploded")
	}
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.entries, &sitemap.Report{}, nil
}

type stubRequester struct {
	clusters []domain.Cluster
}

func (r *stubRequester) Identify(ctx context.Context, entries []domain.URLEntry, stats domain.SitemapStats) ([]domain.Cluster, error) {
	return r.clusters, nil
}

func newTestPool(t *testing.T, store *mock.JobStore, fetcher usecase.SitemapFetcher, size, queueCap int) *WorkerPool {
	t.Helper()
	runUC := usecase.NewRunAnalysisUsecase(store, fetcher, &stubRequester{
		clusters: []domain.Cluster{{Title: "Pages", Count: 1}},
	}, zap.NewNop())
	return New(size, queueCap, runUC, zap.NewNop())
}

func enqueueJob(t *testing.T, store *mock.JobStore, p *WorkerPool) *domain.Job {
	t.Helper()
	job := &domain.Job{
		ID:         uuid.Must(uuid.NewV7()),
		SitemapURL: "https://example.com/sitemap.xml",
		State:      domain.StatePending,
	}
	if err := store.Create(context.Background(), job); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := p.Enqueue(job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return job
}

func waitTerminal(t *testing.T, store *mock.JobStore, id uuid.UUID) *domain.Job {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("job never reached a terminal state")
		case <-time.After(10 * time.Millisecond):
		}
		job, err := store.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if job.State.IsTerminal() {
			return job
		}
	}
}

func TestWorkerPool_ProcessesJobs(t *testing.T) {
	store := mock.NewJobStore()
	fetcher := &stubFetcher{entries: []domain.URLEntry{{Loc: "https://example.com/a", Depth: 1}}}
	p := newTestPool(t, store, fetcher, 2, 4)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	job := enqueueJob(t, store, p)
	got := waitTerminal(t, store, job.ID)
	if got.State != domain.StateDone {
		t.Errorf("expected done, got %s", got.State)
	}

	cancel()
	p.Stop()
}

func TestWorkerPool_EnqueueFull(t *testing.T) {
	store := mock.NewJobStore()
	// No workers started: the queue fills and stays full.
	p := newTestPool(t, store, &stubFetcher{}, 1, 1)

	if err := p.Enqueue(&domain.Job{ID: uuid.Must(uuid.NewV7())}); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	err := p.Enqueue(&domain.Job{ID: uuid.Must(uuid.NewV7())})
	if !errors.Is(err, domain.ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestWorkerPool_RecoversFromPanic(t *testing.T) {
	store := mock.NewJobStore()
	p := newTestPool(t, store, &stubFetcher{panics: true}, 1, 4)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	job := enqueueJob(t, store, p)
	got := waitTerminal(t, store, job.ID)
	if got.State != domain.StateError {
		t.Fatalf("expected error state after panic, got %s", got.State)
	}
	if got.Error == nil || got.Error.Category != "internal" {
		t.Errorf("unexpected error detail %+v", got.Error)
	}

	// The worker survives the panic and keeps processing.
	next := enqueueJob(t, store, p)
	waitTerminal(t, store, next.ID)

	cancel()
	p.Stop()
}

func TestWorkerPool_GracefulStop(t *testing.T) {
	store := mock.NewJobStore()
	fetcher := &stubFetcher{entries: []domain.URLEntry{{Loc: "https://example.com/a", Depth: 1}}}
	p := newTestPool(t, store, fetcher, 2, 4)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not stop after context cancellation")
	}
}
