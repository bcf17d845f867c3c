package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andreypavlenko/jobscout/modules/companies/model"
	"github.com/andreypavlenko/jobscout/modules/companies/ports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CompanyRepository implements ports.CompanyRepository
type CompanyRepository struct {
	pool *pgxpool.Pool
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(pool *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{pool: pool}
}

// Create creates a new company
func (r *CompanyRepository) Create(ctx context.Context, company *model.Company) error {
	query := `
		INSERT INTO companies (id, user_id, name, location, notes, website, strategic_mission, values, recent_news, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	company.ID = uuid.New().String()
	now := time.Now().UTC()
	company.CreatedAt = now
	company.UpdatedAt = now

	_, err := r.pool.Exec(ctx, query,
		company.ID,
		company.UserID,
		company.Name,
		company.Location,
		company.Notes,
		company.Website,
		company.StrategicMission,
		company.Values,
		company.RecentNews,
		company.CreatedAt,
		company.UpdatedAt,
	)

	return err
}

// ListAll returns every company for a user, used by the transfer module
// to fuzzy-resolve a scraped company name against known companies.
func (r *CompanyRepository) ListAll(ctx context.Context, userID string) ([]*model.Company, error) {
	query := `SELECT id, user_id, name, location, notes, website, strategic_mission, values, recent_news, created_at, updated_at FROM companies WHERE user_id = $1`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Company
	for rows.Next() {
		c := &model.Company{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Location, &c.Notes, &c.Website, &c.StrategicMission, &c.Values, &c.RecentNews, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID retrieves a company by ID
func (r *CompanyRepository) GetByID(ctx context.Context, userID, companyID string) (*model.Company, error) {
	query := `
		SELECT id, user_id, name, location, notes, website, strategic_mission, values, recent_news, created_at, updated_at
		FROM companies
		WHERE id = $1 AND user_id = $2
	`

	company := &model.Company{}
	err := r.pool.QueryRow(ctx, query, companyID, userID).Scan(
		&company.ID,
		&company.UserID,
		&company.Name,
		&company.Location,
		&company.Notes,
		&company.Website,
		&company.StrategicMission,
		&company.Values,
		&company.RecentNews,
		&company.CreatedAt,
		&company.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrCompanyNotFound
		}
		return nil, err
	}

	return company, nil
}

// GetByIDEnriched retrieves a company by ID with enriched fields
func (r *CompanyRepository) GetByIDEnriched(ctx context.Context, userID, companyID string) (*model.CompanyDTO, error) {
	query := `
		SELECT
			c.id,
			c.name,
			c.location,
			c.notes,
			c.created_at,
			c.updated_at,
			COALESCE(COUNT(j.id), 0) as jobs_count,
			COALESCE(COUNT(j.id) FILTER (WHERE j.analysis_completed), 0) as analyzed_jobs_count,
			MAX(j.updated_at) as last_activity_at
		FROM companies c
		LEFT JOIN jobs j ON j.company_id = c.id AND j.user_id = c.user_id
		WHERE c.id = $1 AND c.user_id = $2
		GROUP BY c.id, c.name, c.location, c.notes, c.created_at, c.updated_at
	`

	var dto model.CompanyDTO
	err := r.pool.QueryRow(ctx, query, companyID, userID).Scan(
		&dto.ID,
		&dto.Name,
		&dto.Location,
		&dto.Notes,
		&dto.CreatedAt,
		&dto.UpdatedAt,
		&dto.JobsCount,
		&dto.AnalyzedJobsCount,
		&dto.LastActivityAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrCompanyNotFound
		}
		return nil, err
	}

	dto.DerivedStatus = r.deriveStatus(dto.JobsCount, dto.AnalyzedJobsCount)

	return &dto, nil
}

// List retrieves companies for a user with pagination and enriched fields
func (r *CompanyRepository) List(ctx context.Context, userID string, opts *ports.ListOptions) ([]*model.CompanyDTO, int, error) {
	// Get total count
	countQuery := `SELECT COUNT(*) FROM companies WHERE user_id = $1`
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	// Build ORDER BY clause
	orderBy := "c.name ASC" // default
	if opts.SortBy != "" {
		sortCol := ""
		switch opts.SortBy {
		case "name":
			sortCol = "c.name"
		case "last_activity":
			sortCol = "last_activity_at"
		case "jobs_count":
			sortCol = "jobs_count"
		default:
			sortCol = "c.name"
		}

		sortDir := "ASC"
		if strings.ToUpper(opts.SortDir) == "DESC" {
			sortDir = "DESC"
		}

		orderBy = fmt.Sprintf("%s %s", sortCol, sortDir)
	}

	// Get paginated results with enriched fields
	query := fmt.Sprintf(`
		SELECT
			c.id,
			c.name,
			c.location,
			c.notes,
			c.created_at,
			c.updated_at,
			COALESCE(COUNT(j.id), 0) as jobs_count,
			COALESCE(COUNT(j.id) FILTER (WHERE j.analysis_completed), 0) as analyzed_jobs_count,
			MAX(j.updated_at) as last_activity_at
		FROM companies c
		LEFT JOIN jobs j ON j.company_id = c.id AND j.user_id = c.user_id
		WHERE c.user_id = $1
		GROUP BY c.id, c.name, c.location, c.notes, c.created_at, c.updated_at
		ORDER BY %s
		LIMIT $2 OFFSET $3
	`, orderBy)

	rows, err := r.pool.Query(ctx, query, userID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var companies []*model.CompanyDTO
	for rows.Next() {
		dto := &model.CompanyDTO{}
		if err := rows.Scan(
			&dto.ID,
			&dto.Name,
			&dto.Location,
			&dto.Notes,
			&dto.CreatedAt,
			&dto.UpdatedAt,
			&dto.JobsCount,
			&dto.AnalyzedJobsCount,
			&dto.LastActivityAt,
		); err != nil {
			return nil, 0, err
		}

		dto.DerivedStatus = r.deriveStatus(dto.JobsCount, dto.AnalyzedJobsCount)

		companies = append(companies, dto)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return companies, total, nil
}

// GetRelatedJobCounts gets counts of jobs tracked against a company, and how
// many of them have completed analysis, for the delete warning.
func (r *CompanyRepository) GetRelatedJobCounts(ctx context.Context, userID, companyID string) (jobsCount, analyzedCount int, err error) {
	query := `
		SELECT
			COALESCE(COUNT(j.id), 0) as jobs_count,
			COALESCE(COUNT(j.id) FILTER (WHERE j.analysis_completed), 0) as analyzed_jobs_count
		FROM companies c
		LEFT JOIN jobs j ON j.company_id = c.id AND j.user_id = c.user_id
		WHERE c.id = $1 AND c.user_id = $2
	`

	err = r.pool.QueryRow(ctx, query, companyID, userID).Scan(&jobsCount, &analyzedCount)
	return
}

// deriveStatus derives company status from its tracked jobs' analysis state.
func (r *CompanyRepository) deriveStatus(jobsCount, analyzedCount int) string {
	if jobsCount == 0 {
		return string(model.CompanyStatusIdle)
	}
	if analyzedCount > 0 {
		return string(model.CompanyStatusAnalyzed)
	}
	return string(model.CompanyStatusTracked)
}

// Update updates a company
func (r *CompanyRepository) Update(ctx context.Context, company *model.Company) error {
	query := `
		UPDATE companies
		SET name = $3, location = $4, notes = $5, website = $6, strategic_mission = $7, values = $8, recent_news = $9, updated_at = $10
		WHERE id = $1 AND user_id = $2
	`

	company.UpdatedAt = time.Now().UTC()

	result, err := r.pool.Exec(ctx, query,
		company.ID,
		company.UserID,
		company.Name,
		company.Location,
		company.Notes,
		company.Website,
		company.StrategicMission,
		company.Values,
		company.RecentNews,
		company.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return model.ErrCompanyNotFound
	}

	return nil
}

// Delete deletes a company
func (r *CompanyRepository) Delete(ctx context.Context, userID, companyID string) error {
	query := `DELETE FROM companies WHERE id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, companyID, userID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return model.ErrCompanyNotFound
	}

	return nil
}
