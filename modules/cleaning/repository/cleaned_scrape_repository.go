package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andreypavlenko/jobscout/modules/cleaning/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CleanedScrapeRepository implements ports.CleanedScrapeStore.
type CleanedScrapeRepository struct {
	pool *pgxpool.Pool
}

// NewCleanedScrapeRepository creates a new cleaned-scrape repository.
func NewCleanedScrapeRepository(pool *pgxpool.Pool) *CleanedScrapeRepository {
	return &CleanedScrapeRepository{pool: pool}
}

func (r *CleanedScrapeRepository) Create(ctx context.Context, c *model.CleanedScrape) error {
	query := `
		INSERT INTO cleaned_scrapes (
			id, source_raw_ids, job_title, company_name, location_city, location_province,
			location_country, location_street, work_arrangement, salary_low, salary_high,
			salary_currency, salary_period, description, requirements, benefits, industry,
			job_type, experience_level, posting_date, application_deadline, external_job_id,
			source, application_url, application_email, is_expired, duplicates_count,
			confidence_score, cleaned_at, last_seen_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30)
	`

	c.ID = uuid.New().String()
	now := time.Now().UTC()
	c.CleanedAt = now
	c.LastSeenAt = now

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.SourceRawIDs, c.JobTitle, c.CompanyName, c.Location.City, c.Location.Province,
		c.Location.Country, c.Location.StreetAddress, string(c.WorkArrangement), c.Salary.Low, c.Salary.High,
		c.Salary.Currency, c.Salary.Period, c.Description, c.Requirements, c.Benefits, c.Industry,
		c.JobType, c.ExperienceLevel, c.PostingDate, c.ApplicationDeadline, c.ExternalJobID,
		c.Source, c.ApplicationURL, c.ApplicationEmail, c.IsExpired, c.DuplicatesCount,
		c.ConfidenceScore, c.CleanedAt, c.LastSeenAt,
	)
	return err
}

func (r *CleanedScrapeRepository) Update(ctx context.Context, c *model.CleanedScrape) error {
	query := `
		UPDATE cleaned_scrapes SET
			source_raw_ids = $2, job_title = $3, company_name = $4, location_city = $5,
			location_province = $6, location_country = $7, location_street = $8,
			work_arrangement = $9, salary_low = $10, salary_high = $11, salary_currency = $12,
			salary_period = $13, description = $14, requirements = $15, benefits = $16,
			industry = $17, job_type = $18, experience_level = $19, posting_date = $20,
			application_deadline = $21, external_job_id = $22, application_url = $23,
			application_email = $24, is_expired = $25, duplicates_count = $26,
			confidence_score = $27, last_seen_at = $28
		WHERE id = $1
	`

	c.LastSeenAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.SourceRawIDs, c.JobTitle, c.CompanyName, c.Location.City,
		c.Location.Province, c.Location.Country, c.Location.StreetAddress,
		string(c.WorkArrangement), c.Salary.Low, c.Salary.High, c.Salary.Currency,
		c.Salary.Period, c.Description, c.Requirements, c.Benefits,
		c.Industry, c.JobType, c.ExperienceLevel, c.PostingDate,
		c.ApplicationDeadline, c.ExternalJobID, c.ApplicationURL,
		c.ApplicationEmail, c.IsExpired, c.DuplicatesCount,
		c.ConfidenceScore, c.LastSeenAt,
	)
	return err
}

func (r *CleanedScrapeRepository) GetByID(ctx context.Context, id string) (*model.CleanedScrape, error) {
	query := `
		SELECT id, source_raw_ids, job_title, company_name, location_city, location_province,
			location_country, location_street, work_arrangement, salary_low, salary_high,
			salary_currency, salary_period, description, requirements, benefits, industry,
			job_type, experience_level, posting_date, application_deadline, external_job_id,
			source, application_url, application_email, is_expired, duplicates_count,
			confidence_score, cleaned_at, last_seen_at
		FROM cleaned_scrapes WHERE id = $1
	`

	c := &model.CleanedScrape{}
	var arrangement string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.SourceRawIDs, &c.JobTitle, &c.CompanyName, &c.Location.City, &c.Location.Province,
		&c.Location.Country, &c.Location.StreetAddress, &arrangement, &c.Salary.Low, &c.Salary.High,
		&c.Salary.Currency, &c.Salary.Period, &c.Description, &c.Requirements, &c.Benefits, &c.Industry,
		&c.JobType, &c.ExperienceLevel, &c.PostingDate, &c.ApplicationDeadline, &c.ExternalJobID,
		&c.Source, &c.ApplicationURL, &c.ApplicationEmail, &c.IsExpired, &c.DuplicatesCount,
		&c.ConfidenceScore, &c.CleanedAt, &c.LastSeenAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.WorkArrangement = model.WorkArrangement(arrangement)
	return c, nil
}

// FindByExternalID looks up the cleaned record for a source's own job id,
// the first-choice match tried before any fuzzy comparison.
func (r *CleanedScrapeRepository) FindByExternalID(ctx context.Context, source, externalJobID string) (*model.CleanedScrape, error) {
	query := `
		SELECT id, source_raw_ids, job_title, company_name, location_city, location_province,
			location_country, location_street, work_arrangement, salary_low, salary_high,
			salary_currency, salary_period, description, requirements, benefits, industry,
			job_type, experience_level, posting_date, application_deadline, external_job_id,
			source, application_url, application_email, is_expired, duplicates_count,
			confidence_score, cleaned_at, last_seen_at
		FROM cleaned_scrapes
		WHERE source = $1 AND external_job_id = $2
		LIMIT 1
	`

	c := &model.CleanedScrape{}
	var arrangement string
	err := r.pool.QueryRow(ctx, query, source, externalJobID).Scan(
		&c.ID, &c.SourceRawIDs, &c.JobTitle, &c.CompanyName, &c.Location.City, &c.Location.Province,
		&c.Location.Country, &c.Location.StreetAddress, &arrangement, &c.Salary.Low, &c.Salary.High,
		&c.Salary.Currency, &c.Salary.Period, &c.Description, &c.Requirements, &c.Benefits, &c.Industry,
		&c.JobType, &c.ExperienceLevel, &c.PostingDate, &c.ApplicationDeadline, &c.ExternalJobID,
		&c.Source, &c.ApplicationURL, &c.ApplicationEmail, &c.IsExpired, &c.DuplicatesCount,
		&c.ConfidenceScore, &c.CleanedAt, &c.LastSeenAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.WorkArrangement = model.WorkArrangement(arrangement)
	return c, nil
}

// FindCandidates narrows a dedupe scan to records from the same source
// within the recency window, most-recent first; the dedupe caller applies
// fuzzy title/company similarity over the results.
func (r *CleanedScrapeRepository) FindCandidates(ctx context.Context, source string, sinceRecencyDays int) ([]*model.CleanedScrape, error) {
	query := `
		SELECT id, source_raw_ids, job_title, company_name, location_city, location_province,
			location_country, location_street, work_arrangement, salary_low, salary_high,
			salary_currency, salary_period, description, requirements, benefits, industry,
			job_type, experience_level, posting_date, application_deadline, external_job_id,
			source, application_url, application_email, is_expired, duplicates_count,
			confidence_score, cleaned_at, last_seen_at
		FROM cleaned_scrapes
		WHERE source = $1 AND last_seen_at >= $2
		ORDER BY last_seen_at DESC
	`

	since := time.Now().UTC().AddDate(0, 0, -sinceRecencyDays)
	rows, err := r.pool.Query(ctx, query, source, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.CleanedScrape
	for rows.Next() {
		c := &model.CleanedScrape{}
		var arrangement string
		if err := rows.Scan(
			&c.ID, &c.SourceRawIDs, &c.JobTitle, &c.CompanyName, &c.Location.City, &c.Location.Province,
			&c.Location.Country, &c.Location.StreetAddress, &arrangement, &c.Salary.Low, &c.Salary.High,
			&c.Salary.Currency, &c.Salary.Period, &c.Description, &c.Requirements, &c.Benefits, &c.Industry,
			&c.JobType, &c.ExperienceLevel, &c.PostingDate, &c.ApplicationDeadline, &c.ExternalJobID,
			&c.Source, &c.ApplicationURL, &c.ApplicationEmail, &c.IsExpired, &c.DuplicatesCount,
			&c.ConfidenceScore, &c.CleanedAt, &c.LastSeenAt,
		); err != nil {
			return nil, err
		}
		c.WorkArrangement = model.WorkArrangement(arrangement)
		out = append(out, c)
	}
	return out, rows.Err()
}
