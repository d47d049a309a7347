package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alainprocs/SitemapSageAI/internal/cluster"
	"github.com/alainprocs/SitemapSageAI/internal/config"
	handler "github.com/alainprocs/SitemapSageAI/internal/delivery/http"
	"github.com/alainprocs/SitemapSageAI/internal/pool"
	"github.com/alainprocs/SitemapSageAI/internal/repository"
	memorystore "github.com/alainprocs/SitemapSageAI/internal/repository/memory"
	redisstore "github.com/alainprocs/SitemapSageAI/internal/repository/redis"
	"github.com/alainprocs/SitemapSageAI/internal/sitemap"
	"github.com/alainprocs/SitemapSageAI/internal/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("Starting SitemapSage analysis server")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if warning := cfg.Cluster.APIKeyWarning(); warning != "" {
		logger.Warn(warning)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize job store
	var store repository.JobStore
	switch cfg.Store.Backend {
	case "redis":
		redisOpts, err := goredis.ParseURL(cfg.Store.RedisURL)
		if err != nil {
			logger.Fatal("Invalid Redis URL", zap.Error(err))
		}
		redisClient := goredis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("Connected to Redis")
		store = redisstore.New(redisClient, cfg.Store.Retention)
	case "memory":
		memStore := memorystore.New(cfg.Store.Retention, cfg.Store.MaxJobs, logger)
		defer memStore.Close()
		store = memStore
	default:
		logger.Fatal("Unknown store backend", zap.String("backend", cfg.Store.Backend))
	}

	// Initialize pipeline components
	fetcher := sitemap.NewFetcher(cfg.Fetch, logger)
	requester := cluster.NewRequester(cfg.Cluster, logger)

	// Initialize use cases
	runUC := usecase.NewRunAnalysisUsecase(store, fetcher, requester, logger)
	getJobUC := usecase.NewGetJobUsecase(store, logger)

	// Start worker pool
	workerPool := pool.New(cfg.Worker.PoolSize, cfg.Worker.PoolSize*4, runUC, logger)
	workerPool.Start(ctx)

	submitUC := usecase.NewSubmitJobUsecase(store, workerPool, logger)

	// Initialize router
	router := handler.NewRouter(&handler.RouterDeps{
		SubmitUC:        submitUC,
		GetJobUC:        getJobUC,
		Logger:          logger,
		RateLimitPerMin: cfg.Server.RateLimit,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("API server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	// Let in-flight analyses finish before exiting.
	cancel()
	workerPool.Stop()

	logger.Info("Server stopped")
}
