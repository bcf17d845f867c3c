package handler

import (
	"io"
	"net/http"

	httpPlatform "github.com/andreypavlenko/jobscout/internal/platform/http"
	"github.com/andreypavlenko/jobscout/modules/scrapes/model"
	"github.com/andreypavlenko/jobscout/modules/scrapes/service"
	"github.com/gin-gonic/gin"
)

// ScrapeHandler exposes one inbound endpoint per provider adapter.
// Authentication and transport belong to the HTTP layer; this handler only
// ever forwards the opaque payload plus provenance to the ingestor.
type ScrapeHandler struct {
	ingestor *service.IngestorService
}

// NewScrapeHandler creates a new scrape handler.
func NewScrapeHandler(ingestor *service.IngestorService) *ScrapeHandler {
	return &ScrapeHandler{ingestor: ingestor}
}

// RegisterRoutes wires the provider-agnostic ingestion endpoint.
func (h *ScrapeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/scrapes/:provider", h.Ingest)
}

// Ingest godoc
// @Summary Ingest a raw scrape record
// @Description Accepts a raw, provider-specific scrape payload verbatim
// @Tags scrapes
// @Accept json
// @Produce json
// @Param provider path string true "Scraping provider id"
// @Param run_id query string false "Scraper run id"
// @Success 201 {object} model.IngestResult
// @Failure 503 {object} httpPlatform.ErrorResponse
// @Router /scrapes/{provider} [post]
func (h *ScrapeHandler) Ingest(c *gin.Context) {
	provider := c.Param("provider")
	runID := c.DefaultQuery("run_id", "")

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "Unable to read scrape payload")
		return
	}

	prov := model.Provenance{
		Source:       provider,
		SourceURL:    c.Query("source_url"),
		ScraperRunID: runID,
	}

	raw, err := h.ingestor.Ingest(c.Request.Context(), prov, payload, true, nil)
	if err != nil {
		errorCode := model.GetErrorCode(err)
		status := http.StatusInternalServerError
		if errorCode == model.CodeStorageUnavailable {
			status = http.StatusServiceUnavailable
		} else if errorCode == model.CodeEmptyPayload {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": string(errorCode), "detail": err.Error()})
		return
	}

	httpPlatform.RespondWithData(c, http.StatusCreated, model.IngestResult{ScrapeID: raw.ID, Accepted: true})
}
