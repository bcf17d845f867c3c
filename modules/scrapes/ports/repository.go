package ports

import (
	"context"

	"github.com/andreypavlenko/jobscout/modules/scrapes/model"
)

// RawScrapeRepository persists raw scrapes verbatim.
type RawScrapeRepository interface {
	Create(ctx context.Context, raw *model.RawScrape) error
	GetByID(ctx context.Context, scrapeID string) (*model.RawScrape, error)

	// ListUnprocessed returns successful scrapes the cleaning pipeline
	// has not yet consumed, oldest first, up to limit.
	ListUnprocessed(ctx context.Context, limit int) ([]*model.RawScrape, error)

	// MarkProcessed flags a raw scrape as consumed by the cleaning pipeline
	// so the scheduler's poll loop does not hand it out again.
	MarkProcessed(ctx context.Context, scrapeID string) error
}
