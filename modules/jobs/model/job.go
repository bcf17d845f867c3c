package model

import "time"

// Job represents a job posting. Canonical fields (Title, Description,
// Location, WorkArrangement, Salary) are populated from a cleaned scrape by
// modules/transfer and, once AnalysisCompleted is true, are protected: no
// later transfer run may overwrite them.
type Job struct {
	ID        string
	UserID    string
	CompanyID *string
	Title     string
	Source    *string
	URL       *string
	Notes     *string
	Status    string

	CleanedScrapeID    *string
	Description        *string
	LocationCity       *string
	LocationProvince   *string
	LocationCountry    *string
	WorkArrangement    *string
	SalaryLow          *float64
	SalaryHigh         *float64
	SalaryCurrency     *string
	AnalysisCompleted  bool
	AnalysisTier       int
	IsExpired          bool
	LastSeenAt         *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Analysis children, populated by GetByIDAny once analysis has
	// completed; empty on jobs that have not been analyzed.
	RequiredSkills       []RequiredSkill
	Benefits             []Benefit
	ATSKeywords          []ATSKeyword
	SecondaryIndustries  []SecondaryIndustry
	RedFlags             []RedFlag
	ImplicitRequirements []ImplicitRequirement
	CoverLetterInsights  []CoverLetterInsight
	AuthenticityFlags    []AuthenticityFlag
}

// AnalysisTierRecord is the append-only per-tier completion record: which
// model ran, what it cost in tokens, and how long the call took. A record
// at tier N+1 is only ever written after tier N's record exists.
type AnalysisTierRecord struct {
	ID             string
	JobID          string
	Tier           int
	Completed      bool
	CompletedAt    time.Time
	TokensUsed     int
	ModelUsed      string
	ResponseTimeMs int
}

// AnalyzedJobRef is the minimal projection the transfer module needs to
// fuzzy-match an incoming scrape against already-analyzed jobs before it
// will consider creating a new one.
type AnalyzedJobRef struct {
	ID          string
	Title       string
	CompanyName *string
}

// IsProtected reports whether identity/description fields on this job must
// not be overwritten by a later transfer run.
func (j *Job) IsProtected() bool {
	return j.AnalysisCompleted
}

// RequiredSkill is a single skill the analysis tier extracted from a job
// description, with its importance on a 1-10 scale.
type RequiredSkill struct {
	ID         string
	JobID      string
	Skill      string
	Required   bool // false => "nice to have"
	Importance int  // 1-10
}

// Benefit is a single benefit line item extracted from a job description.
type Benefit struct {
	ID      string
	JobID   string
	Benefit string
}

// PlatformFound records an ATS or job board the posting was also seen on.
type PlatformFound struct {
	ID       string
	JobID    string
	Platform string
	URL      *string
}

// ATSKeyword is a resume keyword the analysis tier flagged as likely
// screened for by an applicant tracking system.
type ATSKeyword struct {
	ID      string
	JobID   string
	Keyword string
	Weight  float64
}

// SecondaryIndustry records an additional industry classification beyond
// the company's primary one.
type SecondaryIndustry struct {
	ID       string
	JobID    string
	Industry string
}

// RedFlag is a posting characteristic the analysis tier flagged as a
// concern (e.g. vague compensation, excessive requirements list).
type RedFlag struct {
	ID          string
	JobID       string
	Flag        string
	Severity    string // low, medium, high
	Explanation string
}

// ImplicitRequirement is a requirement the posting implies without stating
// outright (e.g. "fast-paced environment" implying unpaid overtime).
type ImplicitRequirement struct {
	ID          string
	JobID       string
	Requirement string
}

// CoverLetterInsight is a talking point the analysis tier suggests using in
// a cover letter for this posting.
type CoverLetterInsight struct {
	ID      string
	JobID   string
	Insight string
}

// AuthenticityFlag records a signal the analysis tier used to judge whether
// a posting is likely genuine versus a scam or ghost listing.
type AuthenticityFlag struct {
	ID          string
	JobID       string
	Flag        string
	Suspicious  bool
	Explanation string
}

// JobDTO represents job data transfer object
type JobDTO struct {
	ID                string     `json:"id"`
	CompanyID         *string    `json:"company_id,omitempty"`
	CompanyName       *string    `json:"company_name,omitempty"`
	Title             string     `json:"title"`
	Source            *string    `json:"source,omitempty"`
	URL               *string    `json:"url,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	Status            string     `json:"status"`
	Description       *string    `json:"description,omitempty"`
	WorkArrangement   *string    `json:"work_arrangement,omitempty"`
	AnalysisCompleted bool       `json:"analysis_completed"`
	AnalysisTier      int        `json:"analysis_tier"`
	SkillsCount int        `json:"skills_count"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ToDTO converts Job to JobDTO
// Note: CompanyName and SkillsCount must be set separately by the repository
func (j *Job) ToDTO() *JobDTO {
	return &JobDTO{
		ID:                j.ID,
		CompanyID:         j.CompanyID,
		CompanyName:       nil, // Set by repository
		Title:             j.Title,
		Source:            j.Source,
		URL:               j.URL,
		Notes:             j.Notes,
		Status:            j.Status,
		Description:       j.Description,
		WorkArrangement:   j.WorkArrangement,
		AnalysisCompleted: j.AnalysisCompleted,
		AnalysisTier:      j.AnalysisTier,
		SkillsCount: 0, // Set by repository
		CreatedAt:         j.CreatedAt,
		UpdatedAt:         j.UpdatedAt,
	}
}
