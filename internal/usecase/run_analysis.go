package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alainprocs/SitemapSageAI/internal/domain"
	"github.com/alainprocs/SitemapSageAI/internal/metrics"
	"github.com/alainprocs/SitemapSageAI/internal/repository"
	"github.com/alainprocs/SitemapSageAI/internal/sitemap"
)

// SitemapFetcher retrieves and extracts a sitemap's URL set.
type SitemapFetcher interface {
	Fetch(ctx context.Context, sitemapURL string) ([]domain.URLEntry, *sitemap.Report, error)
}

// ClusterRequester identifies topical clusters for a URL set.
type ClusterRequester interface {
	Identify(ctx context.Context, entries []domain.URLEntry, stats domain.SitemapStats) ([]domain.Cluster, error)
}

// RunAnalysisUsecase orchestrates the full analysis pipeline for one job:
// fetch → stats → cluster. Stage failures are recorded as the job's terminal
// error state and never propagate to the caller; a failed job must not take
// down the worker processing it.
type RunAnalysisUsecase struct {
	store     repository.JobStore
	fetcher   SitemapFetcher
	requester ClusterRequester
	logger    *zap.Logger
}

// NewRunAnalysisUsecase creates a new RunAnalysisUsecase.
func NewRunAnalysisUsecase(
	store repository.JobStore,
	fetcher SitemapFetcher,
	requester ClusterRequester,
	logger *zap.Logger,
) *RunAnalysisUsecase {
	return &RunAnalysisUsecase{
		store:     store,
		fetcher:   fetcher,
		requester: requester,
		logger:    logger,
	}
}

// Execute runs the pipeline for one job to its terminal state.
func (uc *RunAnalysisUsecase) Execute(ctx context.Context, job *domain.Job) {
	logger := uc.logger.With(zap.String("job_id", job.ID.String()), zap.String("sitemap_url", job.SitemapURL))

	if err := uc.store.MarkRunning(ctx, job.ID); err != nil {
		logger.Error("Failed to mark job running", zap.Error(err))
		return
	}

	fetchStart := time.Now()
	entries, report, err := uc.fetcher.Fetch(ctx, job.SitemapURL)
	metrics.StageDuration.WithLabelValues("fetch").Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		logger.Warn("Sitemap fetch failed", zap.Error(err))
		uc.fail(ctx, job.ID, err)
		return
	}
	metrics.URLsExtracted.Observe(float64(len(entries)))

	// Stats feed the clustering prompt, so they are computed first. The
	// builder is pure and effectively instant next to the network stages.
	statsStart := time.Now()
	stats := sitemap.BuildStats(entries, job.SitemapURL, report)
	metrics.StageDuration.WithLabelValues("stats").Observe(time.Since(statsStart).Seconds())

	clusterStart := time.Now()
	clusters, err := uc.requester.Identify(ctx, entries, stats)
	metrics.StageDuration.WithLabelValues("cluster").Observe(time.Since(clusterStart).Seconds())
	if err != nil {
		metrics.ClusterRequests.WithLabelValues("error").Inc()
		logger.Warn("Clustering failed", zap.Error(err))
		uc.fail(ctx, job.ID, err)
		return
	}
	metrics.ClusterRequests.WithLabelValues("ok").Inc()

	result := &domain.AnalysisResult{
		Stats:    stats,
		Clusters: clusters,
	}
	if err := uc.store.SetResult(ctx, job.ID, result); err != nil {
		logger.Error("Failed to store result", zap.Error(err))
		return
	}
	metrics.AnalysesTotal.WithLabelValues(string(domain.StateDone)).Inc()

	logger.Info("Analysis complete",
		zap.Int("urls", stats.TotalURLs),
		zap.Int("clusters", len(clusters)),
		zap.Bool("partial", stats.Partial),
	)
}

// Fail records a terminal error on a job from outside the normal pipeline
// path (e.g. a recovered worker panic).
func (uc *RunAnalysisUsecase) Fail(ctx context.Context, jobID uuid.UUID, err error) {
	uc.fail(ctx, jobID, err)
}

func (uc *RunAnalysisUsecase) fail(ctx context.Context, jobID uuid.UUID, cause error) {
	detail := domain.DetailFromError(cause)
	if err := uc.store.SetError(ctx, jobID, detail); err != nil {
		uc.logger.Error("Failed to record job error",
			zap.String("job_id", jobID.String()),
			zap.NamedError("cause", cause),
			zap.Error(err))
		return
	}
	metrics.AnalysesTotal.WithLabelValues(string(domain.StateError)).Inc()
}
