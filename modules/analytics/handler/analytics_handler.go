package handler

import (
	"net/http"
	"strconv"
	"time"

	httpPlatform "github.com/andreypavlenko/jobscout/internal/platform/http"
	"github.com/andreypavlenko/jobscout/modules/analytics/service"
	"github.com/gin-gonic/gin"
)

const defaultOverviewWindow = 24 * time.Hour

// AnalyticsHandler exposes the pipeline event-log aggregates: tier
// completion rates, budget pressure, and dedupe/security intervention
// counts.
type AnalyticsHandler struct {
	service *service.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(service *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// GetPipelineOverview godoc
// @Summary Get pipeline analytics overview
// @Description Aggregates the pipeline event log (tier completion rates, budget/security events) over a trailing window
// @Tags analytics
// @Security BearerAuth
// @Produce json
// @Param hours query int false "trailing window in hours (default 24)"
// @Success 200 {object} model.PipelineOverview
// @Failure 401 {object} httpPlatform.ErrorResponse
// @Failure 500 {object} httpPlatform.ErrorResponse
// @Router /analytics/pipeline [get]
func (h *AnalyticsHandler) GetPipelineOverview(c *gin.Context) {
	window := defaultOverviewWindow
	if raw := c.Query("hours"); raw != "" {
		if hours, err := strconv.Atoi(raw); err == nil && hours > 0 {
			window = time.Duration(hours) * time.Hour
		}
	}

	overview, err := h.service.GetPipelineOverview(c.Request.Context(), time.Now().UTC().Add(-window))
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "ANALYTICS_ERROR", "Failed to get pipeline overview")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, overview)
}

// RegisterRoutes registers analytics routes.
func (h *AnalyticsHandler) RegisterRoutes(router *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	analytics := router.Group("/analytics")
	analytics.Use(authMiddleware)
	{
		analytics.GET("/pipeline", h.GetPipelineOverview)
	}
}
