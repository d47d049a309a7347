package pool

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/alainprocs/SitemapSageAI/internal/domain"
	"github.com/alainprocs/SitemapSageAI/internal/metrics"
	"github.com/alainprocs/SitemapSageAI/internal/usecase"
)

// WorkerPool manages a fixed-size pool of goroutines that run analysis jobs.
// The job id is the only coupling between the request path and a worker: the
// submit handler enqueues, a worker picks up, and all observable state lives
// in the job store.
type WorkerPool struct {
	size   int
	jobs   chan *domain.Job
	runUC  *usecase.RunAnalysisUsecase
	logger *zap.Logger
	wg     sync.WaitGroup
}

// New creates a worker pool with an internal queue of queueCap jobs.
func New(size, queueCap int, runUC *usecase.RunAnalysisUsecase, logger *zap.Logger) *WorkerPool {
	return &WorkerPool{
		size:   size,
		jobs:   make(chan *domain.Job, queueCap),
		runUC:  runUC,
		logger: logger,
	}
}

// Enqueue hands a job to the pool without blocking. A full queue is an
// immediate error so the submit path never stalls behind slow analyses.
func (p *WorkerPool) Enqueue(job *domain.Job) error {
	select {
	case p.jobs <- job:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Start launches all worker goroutines. Call Stop to wait for them to finish.
func (p *WorkerPool) Start(ctx context.Context) {
	p.logger.Info("Starting worker pool", zap.Int("pool_size", p.size))

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop waits for all workers to finish their current jobs and exit.
func (p *WorkerPool) Stop() {
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.Debug("Worker started", zap.Int("worker_id", id))

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("Worker shutting down", zap.Int("worker_id", id))
			return
		case job, ok := <-p.jobs:
			if !ok {
				p.logger.Debug("Job channel closed", zap.Int("worker_id", id))
				return
			}
			p.process(ctx, id, job)
		}
	}
}

// process runs one job, recovering panics so a single bad job never kills
// the worker or the other jobs in flight.
func (p *WorkerPool) process(ctx context.Context, workerID int, job *domain.Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Worker panic recovered",
				zap.Int("worker_id", workerID),
				zap.String("job_id", job.ID.String()),
				zap.Any("panic", r),
			)
			p.runUC.Fail(ctx, job.ID, fmt.Errorf("analysis aborted: %v", r))
		}
	}()

	p.logger.Info("Worker processing job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("sitemap_url", job.SitemapURL),
	)

	metrics.WorkersActive.Inc()
	defer metrics.WorkersActive.Dec()

	p.runUC.Execute(ctx, job)
}
