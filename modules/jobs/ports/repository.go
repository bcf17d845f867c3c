package ports

import (
	"context"

	"github.com/andreypavlenko/jobscout/modules/jobs/model"
)

// JobRepository defines the interface for job data access
type JobRepository interface {
	Create(ctx context.Context, job *model.Job) error
	GetByID(ctx context.Context, userID, jobID string) (*model.Job, error)
	List(ctx context.Context, userID string, limit, offset int, status, sortBy, sortOrder string) ([]*model.JobDTO, int, error)
	Update(ctx context.Context, job *model.Job) error
	Delete(ctx context.Context, userID, jobID string) error
	FindByCleanedScrapeID(ctx context.Context, userID, cleanedScrapeID string) (*model.Job, error)
	UpdateFromTransfer(ctx context.Context, job *model.Job) error

	// ListAnalyzed returns (title, company) refs for every job whose
	// analysis has completed, so the transfer module can detect that an
	// incoming scrape re-describes a protected job.
	ListAnalyzed(ctx context.Context, userID string) ([]*model.AnalyzedJobRef, error)

	// GetByIDAny fetches a job by id without scoping to a user, for use by
	// background pipeline workers that operate outside an HTTP request.
	GetByIDAny(ctx context.Context, jobID string) (*model.Job, error)

	// CompleteAnalysis marks a job's analysis tier complete and persists
	// the structured findings a tier produced, replacing any rows left by
	// a prior attempt at the same tier.
	CompleteAnalysis(ctx context.Context, jobID string, tier int, analysis AnalysisWrite) error
}

// AnalysisWrite bundles everything an LLM tier can attach to a job,
// including the accounting facts recorded in the tier's
// AnalysisTierRecord.
type AnalysisWrite struct {
	RequiredSkills       []model.RequiredSkill
	Benefits             []model.Benefit
	ATSKeywords          []model.ATSKeyword
	SecondaryIndustries  []model.SecondaryIndustry
	RedFlags             []model.RedFlag
	ImplicitRequirements []model.ImplicitRequirement
	CoverLetterInsights  []model.CoverLetterInsight
	AuthenticityFlags    []model.AuthenticityFlag

	TokensUsed     int
	ModelUsed      string
	ResponseTimeMs int
}
