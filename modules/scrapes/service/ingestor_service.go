package service

import (
	"context"
	"time"

	"github.com/andreypavlenko/jobscout/internal/platform/logger"
	"github.com/andreypavlenko/jobscout/modules/scrapes/model"
	"github.com/andreypavlenko/jobscout/modules/scrapes/ports"
	"go.uber.org/zap"
)

// IngestorService stores provider records verbatim and
// assigns them a scrape id. It performs no transformation and no filtering;
// an unreachable store is reported to the caller, whose retry is its own
// responsibility.
type IngestorService struct {
	repo ports.RawScrapeRepository
	log  *logger.Logger
}

// NewIngestorService creates a new ingestor service.
func NewIngestorService(repo ports.RawScrapeRepository, log *logger.Logger) *IngestorService {
	return &IngestorService{repo: repo, log: log}
}

// Ingest stores a raw provider record and returns its scrape id synchronously.
func (s *IngestorService) Ingest(ctx context.Context, prov model.Provenance, payload []byte, success bool, errDetail *string) (*model.RawScrape, error) {
	if len(payload) == 0 && success {
		return nil, model.ErrEmptyPayload
	}

	raw := &model.RawScrape{
		Source:       prov.Source,
		SourceURL:    prov.SourceURL,
		Payload:      payload,
		ScraperRunID: prov.ScraperRunID,
		Success:      success,
		ErrorDetail:  errDetail,
		ScrapedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, raw); err != nil {
		s.log.Error("failed to store raw scrape",
			zap.String("source", prov.Source),
			zap.Error(err),
		)
		return nil, model.ErrStorageUnavailable
	}

	return raw, nil
}
