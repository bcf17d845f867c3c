package providers

import (
	"encoding/json"
	"fmt"

	"github.com/andreypavlenko/jobscout/modules/cleaning/model"
)

// genericPayload is the shape shared by most scraper adapters retrieved for
// this system: a flat JSON object with provider-specific key names mapped
// onto it via struct tags per adapter.
type genericPayload struct {
	Title            string `json:"title"`
	Company          string `json:"company"`
	Location         string `json:"location"`
	Remote           bool   `json:"remote"`
	Salary           string `json:"salary"`
	Description      string `json:"description"`
	Requirements     string `json:"requirements"`
	Benefits         string `json:"benefits"`
	Industry         string `json:"industry"`
	JobType          string `json:"job_type"`
	ExperienceLevel  string `json:"experience_level"`
	PostedAt         string `json:"posted_at"`
	Deadline         string `json:"deadline"`
	ExternalID       string `json:"external_id"`
	ApplyURL         string `json:"apply_url"`
	ApplyEmail       string `json:"apply_email"`
	Expired          bool   `json:"expired"`
	CompanyWebsite   string `json:"company_website"`
}

// GenericJSONAdapter parses the common flat-JSON scrape shape used by most
// providers that don't need bespoke handling (e.g. Indeed, generic job
// boards). Bespoke providers (LinkedIn) register their own adapter instead.
type GenericJSONAdapter struct{}

// NewGenericJSONAdapter creates a new generic JSON adapter.
func NewGenericJSONAdapter() *GenericJSONAdapter {
	return &GenericJSONAdapter{}
}

func (a *GenericJSONAdapter) Parse(payload []byte) (*ParsedFields, error) {
	var p genericPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("generic adapter: %w", err)
	}

	fields := &ParsedFields{
		WorkArrangement: model.ArrangementUnknown,
		IsExpired:       p.Expired,
	}

	setIfNonEmpty(&fields.JobTitle, p.Title)
	setIfNonEmpty(&fields.CompanyName, p.Company)
	setIfNonEmpty(&fields.LocationRaw, p.Location)
	setIfNonEmpty(&fields.SalaryRaw, p.Salary)
	setIfNonEmpty(&fields.Description, p.Description)
	setIfNonEmpty(&fields.Requirements, p.Requirements)
	setIfNonEmpty(&fields.Benefits, p.Benefits)
	setIfNonEmpty(&fields.Industry, p.Industry)
	setIfNonEmpty(&fields.JobType, p.JobType)
	setIfNonEmpty(&fields.ExperienceLevel, p.ExperienceLevel)
	setIfNonEmpty(&fields.PostingDateRaw, p.PostedAt)
	setIfNonEmpty(&fields.ApplicationDeadline, p.Deadline)
	setIfNonEmpty(&fields.ExternalJobID, p.ExternalID)
	setIfNonEmpty(&fields.ApplicationURL, p.ApplyURL)
	setIfNonEmpty(&fields.ApplicationEmail, p.ApplyEmail)
	setIfNonEmpty(&fields.CompanyWebsite, p.CompanyWebsite)

	if p.Remote {
		fields.WorkArrangement = model.ArrangementRemote
	}

	return fields, nil
}

func setIfNonEmpty(dst **string, v string) {
	if v != "" {
		*dst = &v
	}
}
