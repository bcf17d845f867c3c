package model

import "time"

// Company represents a company entity, fuzzy-resolved from scraped postings
// (modules/transfer) and enriched with strategic profile fields an LLM tier
// fills in during analysis.
type Company struct {
	ID        string
	UserID    string
	Name      string
	Location  *string
	Notes     *string
	Website   *string

	// Strategic fields populated by analysis; never required at creation.
	StrategicMission *string
	Values           []string
	RecentNews       *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CompanyDTO represents company data transfer object with enriched fields
type CompanyDTO struct {
	ID                      string     `json:"id"`
	Name                    string     `json:"name"`
	Location                *string    `json:"location,omitempty"`
	Notes                   *string    `json:"notes,omitempty"`
	Website                 *string    `json:"website,omitempty"`
	StrategicMission        *string    `json:"strategic_mission,omitempty"`
	Values                  []string   `json:"values,omitempty"`
	RecentNews              *string    `json:"recent_news,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
	JobsCount       int        `json:"jobs_count"`
	AnalyzedJobsCount int        `json:"analyzed_jobs_count"`
	DerivedStatus           string     `json:"derived_status"`
	LastActivityAt          *time.Time `json:"last_activity_at,omitempty"`
}

// CompanyStatus represents the derived status of a company
type CompanyStatus string

const (
	CompanyStatusIdle     CompanyStatus = "idle"     // No jobs tracked yet
	CompanyStatusTracked  CompanyStatus = "tracked"  // Has jobs, none analyzed yet
	CompanyStatusAnalyzed CompanyStatus = "analyzed" // Has at least one fully analyzed job
)

// ToDTO converts Company to CompanyDTO
func (c *Company) ToDTO() *CompanyDTO {
	return &CompanyDTO{
		ID:               c.ID,
		Name:             c.Name,
		Location:         c.Location,
		Notes:            c.Notes,
		Website:          c.Website,
		StrategicMission: c.StrategicMission,
		Values:           c.Values,
		RecentNews:       c.RecentNews,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}
