package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andreypavlenko/jobscout/modules/scrapes/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RawScrapeRepository implements ports.RawScrapeRepository
type RawScrapeRepository struct {
	pool *pgxpool.Pool
}

// NewRawScrapeRepository creates a new raw scrape repository
func NewRawScrapeRepository(pool *pgxpool.Pool) *RawScrapeRepository {
	return &RawScrapeRepository{pool: pool}
}

// Create inserts a raw scrape, assigning its id and timestamps.
func (r *RawScrapeRepository) Create(ctx context.Context, raw *model.RawScrape) error {
	query := `
		INSERT INTO raw_scrapes (id, source, source_url, payload, scraper_run_id, success, error_detail, processed, scraped_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8, $9)
	`

	raw.ID = uuid.New().String()
	raw.CreatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx, query,
		raw.ID,
		raw.Source,
		raw.SourceURL,
		raw.Payload,
		raw.ScraperRunID,
		raw.Success,
		raw.ErrorDetail,
		raw.ScrapedAt,
		raw.CreatedAt,
	)
	if err != nil {
		return model.ErrStorageUnavailable
	}
	return nil
}

// GetByID retrieves a raw scrape by id.
func (r *RawScrapeRepository) GetByID(ctx context.Context, scrapeID string) (*model.RawScrape, error) {
	query := `
		SELECT id, source, source_url, payload, scraper_run_id, success, error_detail, scraped_at, created_at
		FROM raw_scrapes WHERE id = $1
	`

	raw := &model.RawScrape{}
	err := r.pool.QueryRow(ctx, query, scrapeID).Scan(
		&raw.ID, &raw.Source, &raw.SourceURL, &raw.Payload, &raw.ScraperRunID,
		&raw.Success, &raw.ErrorDetail, &raw.ScrapedAt, &raw.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return raw, nil
}

// ListUnprocessed returns successful, unconsumed scrapes oldest first.
func (r *RawScrapeRepository) ListUnprocessed(ctx context.Context, limit int) ([]*model.RawScrape, error) {
	query := `
		SELECT id, source, source_url, payload, scraper_run_id, success, error_detail, scraped_at, created_at
		FROM raw_scrapes WHERE success = true AND processed = false
		ORDER BY scraped_at ASC LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*model.RawScrape
	for rows.Next() {
		raw := &model.RawScrape{}
		if err := rows.Scan(
			&raw.ID, &raw.Source, &raw.SourceURL, &raw.Payload, &raw.ScraperRunID,
			&raw.Success, &raw.ErrorDetail, &raw.ScrapedAt, &raw.CreatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, raw)
	}
	return results, rows.Err()
}

// MarkProcessed flags a raw scrape as consumed by the cleaning pipeline.
func (r *RawScrapeRepository) MarkProcessed(ctx context.Context, scrapeID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE raw_scrapes SET processed = true WHERE id = $1`, scrapeID)
	return err
}
