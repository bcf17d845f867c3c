package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/andreypavlenko/jobscout/modules/jobs/model"
	"github.com/andreypavlenko/jobscout/modules/jobs/ports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// JobRepository implements ports.JobRepository
type JobRepository struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository
func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

// Create creates a new job
func (r *JobRepository) Create(ctx context.Context, job *model.Job) error {
	query := `
		INSERT INTO jobs (
			id, user_id, company_id, title, source, url, notes, status,
			cleaned_scrape_id, description, location_city, location_province, location_country,
			work_arrangement, salary_low, salary_high, salary_currency, analysis_completed, analysis_tier,
			is_expired, last_seen_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`

	job.ID = uuid.New().String()
	if job.Status == "" {
		job.Status = "active"
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	job.LastSeenAt = &now

	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.UserID,
		job.CompanyID,
		job.Title,
		job.Source,
		job.URL,
		job.Notes,
		job.Status,
		job.CleanedScrapeID,
		job.Description,
		job.LocationCity,
		job.LocationProvince,
		job.LocationCountry,
		job.WorkArrangement,
		job.SalaryLow,
		job.SalaryHigh,
		job.SalaryCurrency,
		job.AnalysisCompleted,
		job.AnalysisTier,
		job.IsExpired,
		job.LastSeenAt,
		job.CreatedAt,
		job.UpdatedAt,
	)

	return err
}

// FindByCleanedScrapeID looks up a job previously created from a given
// cleaned scrape, used by the transfer module to decide create-vs-update.
func (r *JobRepository) FindByCleanedScrapeID(ctx context.Context, userID, cleanedScrapeID string) (*model.Job, error) {
	query := `
		SELECT id, user_id, company_id, title, source, url, notes, status,
			cleaned_scrape_id, description, location_city, location_province, location_country,
			work_arrangement, salary_low, salary_high, salary_currency, analysis_completed, analysis_tier,
			is_expired, last_seen_at, created_at, updated_at
		FROM jobs WHERE user_id = $1 AND cleaned_scrape_id = $2
	`
	job := &model.Job{}
	err := r.pool.QueryRow(ctx, query, userID, cleanedScrapeID).Scan(
		&job.ID, &job.UserID, &job.CompanyID, &job.Title, &job.Source, &job.URL, &job.Notes, &job.Status,
		&job.CleanedScrapeID, &job.Description, &job.LocationCity, &job.LocationProvince, &job.LocationCountry,
		&job.WorkArrangement, &job.SalaryLow, &job.SalaryHigh, &job.SalaryCurrency, &job.AnalysisCompleted, &job.AnalysisTier,
		&job.IsExpired, &job.LastSeenAt, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

// UpdateFromTransfer applies canonical fields from a re-cleaned scrape.
// It refuses to touch identity/description fields once the job has
// completed analysis, per the protection invariant: an LLM tier's output is
// never silently clobbered by a later, possibly lower-quality, re-scrape.
func (r *JobRepository) UpdateFromTransfer(ctx context.Context, job *model.Job) error {
	if job.AnalysisCompleted {
		query := `UPDATE jobs SET is_expired = $3, last_seen_at = $4, updated_at = $4 WHERE id = $1 AND user_id = $2`
		now := time.Now().UTC()
		job.UpdatedAt = now
		job.LastSeenAt = &now
		_, err := r.pool.Exec(ctx, query, job.ID, job.UserID, job.IsExpired, now)
		return err
	}

	query := `
		UPDATE jobs SET
			company_id = $3, title = $4, source = $5, url = $6,
			description = $7, location_city = $8, location_province = $9, location_country = $10,
			work_arrangement = $11, salary_low = $12, salary_high = $13, salary_currency = $14,
			is_expired = $15, last_seen_at = $16, updated_at = $16
		WHERE id = $1 AND user_id = $2
	`
	now := time.Now().UTC()
	job.UpdatedAt = now
	job.LastSeenAt = &now
	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, job.CompanyID, job.Title, job.Source, job.URL,
		job.Description, job.LocationCity, job.LocationProvince, job.LocationCountry,
		job.WorkArrangement, job.SalaryLow, job.SalaryHigh, job.SalaryCurrency,
		job.IsExpired, now,
	)
	return err
}

// GetByID retrieves a job by ID
func (r *JobRepository) GetByID(ctx context.Context, userID, jobID string) (*model.Job, error) {
	query := `
		SELECT id, user_id, company_id, title, source, url, notes, status,
			cleaned_scrape_id, description, location_city, location_province, location_country,
			work_arrangement, salary_low, salary_high, salary_currency, analysis_completed, analysis_tier,
			is_expired, last_seen_at, created_at, updated_at
		FROM jobs
		WHERE id = $1 AND user_id = $2
	`

	job := &model.Job{}
	err := r.pool.QueryRow(ctx, query, jobID, userID).Scan(
		&job.ID,
		&job.UserID,
		&job.CompanyID,
		&job.Title,
		&job.Source,
		&job.URL,
		&job.Notes,
		&job.Status,
		&job.CleanedScrapeID,
		&job.Description,
		&job.LocationCity,
		&job.LocationProvince,
		&job.LocationCountry,
		&job.WorkArrangement,
		&job.SalaryLow,
		&job.SalaryHigh,
		&job.SalaryCurrency,
		&job.AnalysisCompleted,
		&job.AnalysisTier,
		&job.IsExpired,
		&job.LastSeenAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrJobNotFound
		}
		return nil, err
	}

	return job, nil
}

// List retrieves jobs for a user with pagination, filtering, and sorting
func (r *JobRepository) List(ctx context.Context, userID string, limit, offset int, status, sortBy, sortOrder string) ([]*model.JobDTO, int, error) {
	// Default to active status if not specified
	if status == "" {
		status = "active"
	}

	// Build WHERE clause; status is caller-supplied and must stay a bind
	// parameter, never spliced into the SQL text.
	whereClause := "j.user_id = $1"
	whereArgs := []any{userID}
	if status != "all" {
		whereClause += " AND j.status = $2"
		whereArgs = append(whereArgs, status)
	}

	// Get total count
	countQuery := `SELECT COUNT(*) FROM jobs j WHERE ` + whereClause
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, whereArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	// Determine ORDER BY clause
	orderBy := "j.created_at DESC" // default
	if sortBy != "" {
		switch sortBy {
		case "created_at":
			if sortOrder == "asc" {
				orderBy = "j.created_at ASC"
			} else {
				orderBy = "j.created_at DESC"
			}
		case "title":
			// Case-insensitive sorting
			if sortOrder == "asc" {
				orderBy = "LOWER(j.title) ASC"
			} else {
				orderBy = "LOWER(j.title) DESC"
			}
		case "company_name":
			// Handle NULL company names - put them last regardless of sort order
			// Case-insensitive sorting using LOWER()
			// c.name IS NULL check ensures NULLs are always last
			if sortOrder == "asc" {
				orderBy = "(CASE WHEN c.name IS NULL THEN 1 ELSE 0 END), LOWER(c.name) ASC"
			} else {
				orderBy = "(CASE WHEN c.name IS NULL THEN 1 ELSE 0 END), LOWER(c.name) DESC"
			}
		default:
			orderBy = "j.created_at DESC"
		}
	}

	// Get paginated results with enriched data
	query := `
		SELECT 
			j.id, 
			j.user_id, 
			j.company_id, 
			j.title, 
			j.source, 
			j.url, 
			j.notes, 
			j.status,
			j.analysis_completed,
			j.analysis_tier,
			j.created_at,
			j.updated_at,
			c.name as company_name,
			COALESCE(COUNT(s.id), 0) as skills_count
		FROM jobs j
		LEFT JOIN companies c ON j.company_id = c.id
		LEFT JOIN job_required_skills s ON j.id = s.job_id
		WHERE ` + whereClause + `
		GROUP BY j.id, j.user_id, j.company_id, j.title, j.source, j.url, j.notes, j.status, j.analysis_completed, j.analysis_tier, j.created_at, j.updated_at, c.name
		ORDER BY ` + orderBy + `
		LIMIT $` + strconv.Itoa(len(whereArgs)+1) + ` OFFSET $` + strconv.Itoa(len(whereArgs)+2) + `
	`

	rows, err := r.pool.Query(ctx, query, append(whereArgs, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var jobs []*model.JobDTO
	for rows.Next() {
		var companyName *string
		var skillsCount int
		job := &model.Job{}
		
		if err := rows.Scan(
			&job.ID,
			&job.UserID,
			&job.CompanyID,
			&job.Title,
			&job.Source,
			&job.URL,
			&job.Notes,
			&job.Status,
			&job.AnalysisCompleted,
			&job.AnalysisTier,
			&job.CreatedAt,
			&job.UpdatedAt,
			&companyName,
			&skillsCount,
		); err != nil {
			return nil, 0, err
		}
		
		dto := job.ToDTO()
		dto.CompanyName = companyName
		dto.SkillsCount = skillsCount
		jobs = append(jobs, dto)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}

// Update updates a job
func (r *JobRepository) Update(ctx context.Context, job *model.Job) error {
	query := `
		UPDATE jobs
		SET company_id = $3, title = $4, source = $5, url = $6, notes = $7, status = $8, updated_at = $9
		WHERE id = $1 AND user_id = $2
	`

	job.UpdatedAt = time.Now().UTC()

	result, err := r.pool.Exec(ctx, query,
		job.ID,
		job.UserID,
		job.CompanyID,
		job.Title,
		job.Source,
		job.URL,
		job.Notes,
		job.Status,
		job.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return model.ErrJobNotFound
	}

	return nil
}

// Delete deletes a job
func (r *JobRepository) Delete(ctx context.Context, userID, jobID string) error {
	query := `DELETE FROM jobs WHERE id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, jobID, userID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return model.ErrJobNotFound
	}

	return nil
}

// ListAnalyzed returns the (title, company name) of every job whose
// analysis has completed, the candidate set for transfer-time protection
// matching.
func (r *JobRepository) ListAnalyzed(ctx context.Context, userID string) ([]*model.AnalyzedJobRef, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT j.id, j.title, c.name
		FROM jobs j
		LEFT JOIN companies c ON j.company_id = c.id
		WHERE j.user_id = $1 AND j.analysis_completed = true
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.AnalyzedJobRef
	for rows.Next() {
		ref := &model.AnalyzedJobRef{}
		if err := rows.Scan(&ref.ID, &ref.Title, &ref.CompanyName); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// GetByIDAny fetches a job without a user scope, for background workers.
func (r *JobRepository) GetByIDAny(ctx context.Context, jobID string) (*model.Job, error) {
	query := `
		SELECT id, user_id, company_id, title, source, url, notes, status,
			cleaned_scrape_id, description, location_city, location_province, location_country,
			work_arrangement, salary_low, salary_high, salary_currency, analysis_completed, analysis_tier,
			is_expired, last_seen_at, created_at, updated_at
		FROM jobs WHERE id = $1
	`
	job := &model.Job{}
	err := r.pool.QueryRow(ctx, query, jobID).Scan(
		&job.ID, &job.UserID, &job.CompanyID, &job.Title, &job.Source, &job.URL, &job.Notes, &job.Status,
		&job.CleanedScrapeID, &job.Description, &job.LocationCity, &job.LocationProvince, &job.LocationCountry,
		&job.WorkArrangement, &job.SalaryLow, &job.SalaryHigh, &job.SalaryCurrency, &job.AnalysisCompleted, &job.AnalysisTier,
		&job.IsExpired, &job.LastSeenAt, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrJobNotFound
		}
		return nil, err
	}
	if job.AnalysisCompleted {
		if err := r.loadAnalysisChildren(ctx, job); err != nil {
			return nil, err
		}
	}
	return job, nil
}

// loadAnalysisChildren populates a job's analysis child slices, needed by
// the scorer's feature extractors and by deeper-tier prompts that carry the
// prior tier's findings as context.
func (r *JobRepository) loadAnalysisChildren(ctx context.Context, job *model.Job) error {
	rows, err := r.pool.Query(ctx, `SELECT id, job_id, skill, required, importance FROM job_required_skills WHERE job_id = $1`, job.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var s model.RequiredSkill
		if err := rows.Scan(&s.ID, &s.JobID, &s.Skill, &s.Required, &s.Importance); err != nil {
			rows.Close()
			return err
		}
		job.RequiredSkills = append(job.RequiredSkills, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.pool.Query(ctx, `SELECT id, job_id, benefit FROM job_benefits WHERE job_id = $1`, job.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var b model.Benefit
		if err := rows.Scan(&b.ID, &b.JobID, &b.Benefit); err != nil {
			rows.Close()
			return err
		}
		job.Benefits = append(job.Benefits, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.pool.Query(ctx, `SELECT id, job_id, keyword, weight FROM job_ats_keywords WHERE job_id = $1`, job.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var k model.ATSKeyword
		if err := rows.Scan(&k.ID, &k.JobID, &k.Keyword, &k.Weight); err != nil {
			rows.Close()
			return err
		}
		job.ATSKeywords = append(job.ATSKeywords, k)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.pool.Query(ctx, `SELECT id, job_id, industry FROM job_secondary_industries WHERE job_id = $1`, job.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var si model.SecondaryIndustry
		if err := rows.Scan(&si.ID, &si.JobID, &si.Industry); err != nil {
			rows.Close()
			return err
		}
		job.SecondaryIndustries = append(job.SecondaryIndustries, si)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.pool.Query(ctx, `SELECT id, job_id, flag, severity, explanation FROM job_red_flags WHERE job_id = $1`, job.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var f model.RedFlag
		if err := rows.Scan(&f.ID, &f.JobID, &f.Flag, &f.Severity, &f.Explanation); err != nil {
			rows.Close()
			return err
		}
		job.RedFlags = append(job.RedFlags, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.pool.Query(ctx, `SELECT id, job_id, requirement FROM job_implicit_requirements WHERE job_id = $1`, job.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var ir model.ImplicitRequirement
		if err := rows.Scan(&ir.ID, &ir.JobID, &ir.Requirement); err != nil {
			rows.Close()
			return err
		}
		job.ImplicitRequirements = append(job.ImplicitRequirements, ir)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.pool.Query(ctx, `SELECT id, job_id, insight FROM job_cover_letter_insights WHERE job_id = $1`, job.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var ci model.CoverLetterInsight
		if err := rows.Scan(&ci.ID, &ci.JobID, &ci.Insight); err != nil {
			rows.Close()
			return err
		}
		job.CoverLetterInsights = append(job.CoverLetterInsights, ci)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.pool.Query(ctx, `SELECT id, job_id, flag, suspicious, explanation FROM job_authenticity_flags WHERE job_id = $1`, job.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var af model.AuthenticityFlag
		if err := rows.Scan(&af.ID, &af.JobID, &af.Flag, &af.Suspicious, &af.Explanation); err != nil {
			rows.Close()
			return err
		}
		job.AuthenticityFlags = append(job.AuthenticityFlags, af)
	}
	rows.Close()
	return rows.Err()
}

// CompleteAnalysis marks a job's analysis complete for the given tier and
// replaces its child-table findings inside a single transaction.
func (r *JobRepository) CompleteAnalysis(ctx context.Context, jobID string, tier int, analysis ports.AnalysisWrite) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Tiers complete in strict order: a tier N record requires tier N-1's
	// completed record to already exist.
	if tier > 1 {
		var priorCount int
		err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM job_analysis_tier_records WHERE job_id = $1 AND tier = $2 AND completed = true
		`, jobID, tier-1).Scan(&priorCount)
		if err != nil {
			return err
		}
		if priorCount == 0 {
			return model.ErrTierOutOfOrder
		}
	}

	result, err := tx.Exec(ctx, `
		UPDATE jobs SET analysis_completed = true, analysis_tier = $2, updated_at = $3 WHERE id = $1
	`, jobID, tier, time.Now().UTC())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return model.ErrJobNotFound
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO job_analysis_tier_records (id, job_id, tier, completed, completed_at, tokens_used, model_used, response_time_ms)
		VALUES ($1, $2, $3, true, $4, $5, $6, $7)
	`, uuid.New().String(), jobID, tier, time.Now().UTC(), analysis.TokensUsed, analysis.ModelUsed, analysis.ResponseTimeMs); err != nil {
		return err
	}

	// Replace only the child tables this tier's write repopulates: a tier-2
	// result must not wipe tier 1's skills, but a retried tier does replace
	// its own earlier rows.
	replaced := map[string]bool{
		"job_required_skills":       len(analysis.RequiredSkills) > 0,
		"job_benefits":              len(analysis.Benefits) > 0,
		"job_ats_keywords":          len(analysis.ATSKeywords) > 0,
		"job_secondary_industries":  len(analysis.SecondaryIndustries) > 0,
		"job_red_flags":             len(analysis.RedFlags) > 0,
		"job_implicit_requirements": len(analysis.ImplicitRequirements) > 0,
		"job_cover_letter_insights": len(analysis.CoverLetterInsights) > 0,
		"job_authenticity_flags":    len(analysis.AuthenticityFlags) > 0,
	}
	for table, writes := range replaced {
		if !writes {
			continue
		}
		if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE job_id = $1", jobID); err != nil {
			return err
		}
	}

	for _, s := range analysis.RequiredSkills {
		if _, err := tx.Exec(ctx, `INSERT INTO job_required_skills (id, job_id, skill, required, importance) VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), jobID, s.Skill, s.Required, s.Importance); err != nil {
			return err
		}
	}
	for _, b := range analysis.Benefits {
		if _, err := tx.Exec(ctx, `INSERT INTO job_benefits (id, job_id, benefit) VALUES ($1, $2, $3)`,
			uuid.New().String(), jobID, b.Benefit); err != nil {
			return err
		}
	}
	for _, k := range analysis.ATSKeywords {
		if _, err := tx.Exec(ctx, `INSERT INTO job_ats_keywords (id, job_id, keyword, weight) VALUES ($1, $2, $3, $4)`,
			uuid.New().String(), jobID, k.Keyword, k.Weight); err != nil {
			return err
		}
	}
	for _, i := range analysis.SecondaryIndustries {
		if _, err := tx.Exec(ctx, `INSERT INTO job_secondary_industries (id, job_id, industry) VALUES ($1, $2, $3)`,
			uuid.New().String(), jobID, i.Industry); err != nil {
			return err
		}
	}
	for _, f := range analysis.RedFlags {
		if _, err := tx.Exec(ctx, `INSERT INTO job_red_flags (id, job_id, flag, severity, explanation) VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), jobID, f.Flag, f.Severity, f.Explanation); err != nil {
			return err
		}
	}
	for _, ir := range analysis.ImplicitRequirements {
		if _, err := tx.Exec(ctx, `INSERT INTO job_implicit_requirements (id, job_id, requirement) VALUES ($1, $2, $3)`,
			uuid.New().String(), jobID, ir.Requirement); err != nil {
			return err
		}
	}
	for _, ci := range analysis.CoverLetterInsights {
		if _, err := tx.Exec(ctx, `INSERT INTO job_cover_letter_insights (id, job_id, insight) VALUES ($1, $2, $3)`,
			uuid.New().String(), jobID, ci.Insight); err != nil {
			return err
		}
	}
	for _, af := range analysis.AuthenticityFlags {
		if _, err := tx.Exec(ctx, `INSERT INTO job_authenticity_flags (id, job_id, flag, suspicious, explanation) VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), jobID, af.Flag, af.Suspicious, af.Explanation); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
