package handler

import (
	"net/http"

	"github.com/andreypavlenko/jobscout/internal/platform/auth"
	httpPlatform "github.com/andreypavlenko/jobscout/internal/platform/http"
	"github.com/andreypavlenko/jobscout/modules/scoring/model"
	"github.com/andreypavlenko/jobscout/modules/scoring/ports"
	"github.com/andreypavlenko/jobscout/modules/scoring/service"
	"github.com/gin-gonic/gin"
)

// ScoringHandler exposes the evaluate_job operation to
// job-evaluation callers.
type ScoringHandler struct {
	service *service.ScorerService
}

// NewScoringHandler creates a new scoring handler.
func NewScoringHandler(service *service.ScorerService) *ScoringHandler {
	return &ScoringHandler{service: service}
}

// RegisterRoutes wires the evaluation endpoint behind auth.
func (h *ScoringHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	rg.GET("/jobs/:id/evaluation", authMiddleware, h.Evaluate)
}

// Evaluate godoc
// @Summary Evaluate a job against the authenticated user's preferences
// @Description Scores a job using the user's trained preference regression
// @Tags scoring
// @Security BearerAuth
// @Produce json
// @Param id path string true "Job ID"
// @Param home_city query string false "User home city, for commute estimation"
// @Param home_province query string false "User home province/state"
// @Param home_country query string false "User home country"
// @Success 200 {object} model.ScoreDTO
// @Failure 500 {object} httpPlatform.ErrorResponse
// @Router /jobs/{id}/evaluation [get]
func (h *ScoringHandler) Evaluate(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		httpPlatform.RespondWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	jobID := c.Param("id")
	home := ports.UserHome{
		City:     c.Query("home_city"),
		Province: c.Query("home_province"),
		Country:  c.Query("home_country"),
	}

	result, err := h.service.Evaluate(c.Request.Context(), userID, jobID, home)
	if err != nil {
		// Not-yet-analyzed is a structured {score: null, reason} body, not
		// an error; every other failure is a real error.
		code := model.GetErrorCode(err)
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, string(code), model.GetErrorMessage(err))
		return
	}

	httpPlatform.RespondWithData(c, http.StatusOK, result)
}
