package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alainprocs/SitemapSageAI/internal/domain"
	"github.com/alainprocs/SitemapSageAI/internal/usecase"
)

// AnalysisHandler handles HTTP requests for sitemap analyses.
type AnalysisHandler struct {
	submitUC *usecase.SubmitJobUsecase
	getJobUC *usecase.GetJobUsecase
	logger   *zap.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(submitUC *usecase.SubmitJobUsecase, getJobUC *usecase.GetJobUsecase, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		submitUC: submitUC,
		getJobUC: getJobUC,
		logger:   logger,
	}
}

// Submit handles POST /api/v1/analyses
func (h *AnalysisHandler) Submit(c *gin.Context) {
	var req domain.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}

	resp, err := h.submitUC.Execute(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptySitemapURL),
			errors.Is(err, domain.ErrInvalidSitemapURL),
			errors.Is(err, domain.ErrURLTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrQueueFull), errors.Is(err, domain.ErrStoreFull):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily overloaded, try again later"})
		default:
			h.logger.Error("Submit analysis failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

// GetByID handles GET /api/v1/analyses/:id — the polling endpoint. It never
// blocks on the background work; intermediate states carry no payload.
func (h *AnalysisHandler) GetByID(c *gin.Context) {
	job, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, domain.StatusFromJob(job))
}

// GetResult handles GET /api/v1/analyses/:id/result — available only once
// the job is done. Polling a job that is still in flight is a conflict, not
// a missing resource.
func (h *AnalysisHandler) GetResult(c *gin.Context) {
	job, ok := h.lookup(c)
	if !ok {
		return
	}

	if job.State != domain.StateDone {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Analysis result not available",
			"state": job.State,
		})
		return
	}

	c.JSON(http.StatusOK, job.Result)
}

func (h *AnalysisHandler) lookup(c *gin.Context) (*domain.Job, bool) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID format"})
		return nil, false
	}

	job, err := h.getJobUC.Execute(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return nil, false
		}
		h.logger.Error("Get job failed", zap.Error(err), zap.String("job_id", idStr))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return job, true
}
