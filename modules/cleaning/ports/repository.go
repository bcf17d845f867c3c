package ports

import (
	"context"

	"github.com/andreypavlenko/jobscout/modules/cleaning/model"
)

// CleanedScrapeStore is the cleaner's persistence boundary. Dedupe first
// tries an exact external_job_id match within the same source, then falls
// back to a fuzzy scan over recent same-source records; FindCandidates
// narrows that scan to the recency window so the fuzzy matcher never has
// to walk the whole table.
type CleanedScrapeStore interface {
	Create(ctx context.Context, c *model.CleanedScrape) error
	Update(ctx context.Context, c *model.CleanedScrape) error
	GetByID(ctx context.Context, id string) (*model.CleanedScrape, error)
	FindByExternalID(ctx context.Context, source, externalJobID string) (*model.CleanedScrape, error)
	FindCandidates(ctx context.Context, source string, sinceRecencyDays int) ([]*model.CleanedScrape, error)
}
