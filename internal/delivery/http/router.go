package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alainprocs/SitemapSageAI/internal/delivery/http/middleware"
	"github.com/alainprocs/SitemapSageAI/internal/usecase"
)

const maxSubmitBodyBytes = 4 << 10 // submissions carry one URL, nothing more

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	SubmitUC        *usecase.SubmitJobUsecase
	GetJobUC        *usecase.GetJobUsecase
	Logger          *zap.Logger
	RateLimitPerMin int
}

// NewRouter creates and configures the Gin router with all routes and middleware.
func NewRouter(deps *RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(deps.Logger))

	// Metrics endpoint (no rate limiting)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Health check (no rate limiting)
		healthHandler := NewHealthHandler(deps.Logger)
		v1.GET("/health", healthHandler.Health)

		analysisHandler := NewAnalysisHandler(deps.SubmitUC, deps.GetJobUC, deps.Logger)

		// Submissions are rate limited and body limited; polling is not,
		// since the poller hits the status endpoint on a timer.
		v1.POST("/analyses",
			middleware.RateLimiter(deps.RateLimitPerMin),
			middleware.BodySizeLimit(maxSubmitBodyBytes),
			analysisHandler.Submit,
		)
		v1.GET("/analyses/:id", analysisHandler.GetByID)
		v1.GET("/analyses/:id/result", analysisHandler.GetResult)

		// WebSocket for real-time status updates
		wsHandler := NewWebSocketHandler(deps.GetJobUC, deps.Logger)
		v1.GET("/analyses/:id/stream", wsHandler.Stream)
	}

	return router
}
