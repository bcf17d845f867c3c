package providers

import (
	"encoding/json"
	"fmt"

	"github.com/andreypavlenko/jobscout/modules/cleaning/model"
)

// linkedInPayload mirrors the nested shape LinkedIn's job search API returns.
type linkedInPayload struct {
	JobTitle    string `json:"job_title"`
	CompanyName string `json:"company_name"`
	WorkplaceType string `json:"workplace_type"` // "On-site", "Remote", "Hybrid"
	FormattedLocation string `json:"formatted_location"`
	SalaryInsights struct {
		CompensationRange string `json:"compensation_range"`
	} `json:"salary_insights"`
	DescriptionText string `json:"description_text"`
	EmploymentType  string `json:"employment_type"`
	SeniorityLevel  string `json:"seniority_level"`
	ListedAt        string `json:"listed_at"`
	JobID           string `json:"job_id"`
	ApplyURL        string `json:"apply_url"`
	Closed          bool   `json:"closed"`
}

// LinkedInAdapter parses LinkedIn's nested job-posting JSON shape.
type LinkedInAdapter struct{}

// NewLinkedInAdapter creates a new LinkedIn adapter.
func NewLinkedInAdapter() *LinkedInAdapter {
	return &LinkedInAdapter{}
}

func (a *LinkedInAdapter) Parse(payload []byte) (*ParsedFields, error) {
	var p linkedInPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("linkedin adapter: %w", err)
	}

	fields := &ParsedFields{WorkArrangement: workArrangementFromLinkedIn(p.WorkplaceType), IsExpired: p.Closed}
	setIfNonEmpty(&fields.JobTitle, p.JobTitle)
	setIfNonEmpty(&fields.CompanyName, p.CompanyName)
	setIfNonEmpty(&fields.LocationRaw, p.FormattedLocation)
	setIfNonEmpty(&fields.SalaryRaw, p.SalaryInsights.CompensationRange)
	setIfNonEmpty(&fields.Description, p.DescriptionText)
	setIfNonEmpty(&fields.JobType, p.EmploymentType)
	setIfNonEmpty(&fields.ExperienceLevel, p.SeniorityLevel)
	setIfNonEmpty(&fields.PostingDateRaw, p.ListedAt)
	setIfNonEmpty(&fields.ExternalJobID, p.JobID)
	setIfNonEmpty(&fields.ApplicationURL, p.ApplyURL)

	return fields, nil
}

func workArrangementFromLinkedIn(v string) model.WorkArrangement {
	switch v {
	case "Remote":
		return model.ArrangementRemote
	case "Hybrid":
		return model.ArrangementHybrid
	case "On-site":
		return model.ArrangementOnsite
	default:
		return model.ArrangementUnknown
	}
}
