package handler

import (
	"net/http"

	"github.com/andreypavlenko/jobscout/internal/platform/auth"
	httpPlatform "github.com/andreypavlenko/jobscout/internal/platform/http"
	"github.com/andreypavlenko/jobscout/modules/preferences/model"
	"github.com/andreypavlenko/jobscout/modules/preferences/service"
	"github.com/gin-gonic/gin"
)

// PreferenceHandler exposes the inbound preference UI operations: save_scenarios and train.
type PreferenceHandler struct {
	service *service.RegressionService
}

// NewPreferenceHandler creates a new preference handler.
func NewPreferenceHandler(service *service.RegressionService) *PreferenceHandler {
	return &PreferenceHandler{service: service}
}

// RegisterRoutes wires the preference endpoints behind auth.
func (h *PreferenceHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	preferences := rg.Group("/preferences", authMiddleware)
	{
		preferences.PUT("/scenarios", h.SaveScenarios)
		preferences.POST("/train", h.Train)
	}
}

// SaveScenarios godoc
// @Summary Save preference scenarios
// @Description Replaces the authenticated user's preference scenario set (1-5 entries)
// @Tags preferences
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body model.SaveScenariosRequest true "Scenario set"
// @Success 204
// @Failure 400 {object} httpPlatform.ErrorResponse
// @Router /preferences/scenarios [put]
func (h *PreferenceHandler) SaveScenarios(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		httpPlatform.RespondWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	var req model.SaveScenariosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request payload")
		return
	}

	scenarios := make([]model.Scenario, 0, len(req.Scenarios))
	for _, sr := range req.Scenarios {
		scenarios = append(scenarios, model.Scenario{
			UserID:          userID,
			Values:          sr.Values,
			AcceptanceScore: sr.AcceptanceScore,
		})
	}

	if err := h.service.SaveScenarios(c.Request.Context(), userID, scenarios); err != nil {
		code := model.GetErrorCode(err)
		status := http.StatusInternalServerError
		if code == model.CodeNoScenarios || code == model.CodeTooManyScenarios || code == model.CodeInvalidAcceptanceScore {
			status = http.StatusBadRequest
		}
		httpPlatform.RespondWithError(c, status, string(code), model.GetErrorMessage(err))
		return
	}

	c.Status(http.StatusNoContent)
}

// Train godoc
// @Summary Train the preference model
// @Description Fits a regression model from the authenticated user's saved scenarios
// @Tags preferences
// @Security BearerAuth
// @Produce json
// @Success 200 {object} model.ModelDTO
// @Failure 400 {object} httpPlatform.ErrorResponse
// @Router /preferences/train [post]
func (h *PreferenceHandler) Train(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		httpPlatform.RespondWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	trained, err := h.service.Train(c.Request.Context(), userID)
	if err != nil {
		code := model.GetErrorCode(err)
		status := http.StatusInternalServerError
		if code == model.CodeNoScenarios || code == model.CodeTooManyScenarios || code == model.CodeDegenerateScenarios {
			status = http.StatusBadRequest
		}
		httpPlatform.RespondWithError(c, status, string(code), model.GetErrorMessage(err))
		return
	}

	httpPlatform.RespondWithData(c, http.StatusOK, trained.ToDTO())
}
