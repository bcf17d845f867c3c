package model

import "time"

// WorkArrangement enumerates the recognized work-location arrangements.
type WorkArrangement string

const (
	ArrangementRemote  WorkArrangement = "remote"
	ArrangementHybrid  WorkArrangement = "hybrid"
	ArrangementOnsite  WorkArrangement = "onsite"
	ArrangementUnknown WorkArrangement = "unknown"
)

// Location holds the parsed components of a job location string.
type Location struct {
	City          *string
	Province      *string
	Country       *string
	StreetAddress *string
}

// Salary holds the parsed components of a job salary string.
type Salary struct {
	Low      *float64
	High     *float64
	Currency *string
	Period   *string // hourly, annual
}

// CleanedScrape is the canonical-shaped record derived from one or more raw
// scrapes. Fields left unset by the cleaner are never guessed.
type CleanedScrape struct {
	ID                string
	SourceRawIDs      []string
	JobTitle          *string
	CompanyName       *string
	Location          Location
	WorkArrangement    WorkArrangement
	Salary            Salary
	Description       *string
	Requirements      *string
	Benefits          *string
	Industry          *string
	JobType           *string
	ExperienceLevel   *string
	PostingDate       *time.Time
	ApplicationDeadline *time.Time
	ExternalJobID     *string
	Source            string
	ApplicationURL    *string
	ApplicationEmail  *string
	IsExpired         bool
	DuplicatesCount   int
	ConfidenceScore   float64
	CleanedAt         time.Time
	LastSeenAt        time.Time
}

// FieldCompleteness counts how many canonical fields are populated, used as
// a tiebreaker during dedupe when confidence scores are equal.
func (c *CleanedScrape) FieldCompleteness() int {
	n := 0
	if c.JobTitle != nil {
		n++
	}
	if c.CompanyName != nil {
		n++
	}
	if c.Location.City != nil || c.Location.Province != nil || c.Location.Country != nil {
		n++
	}
	if c.WorkArrangement != "" && c.WorkArrangement != ArrangementUnknown {
		n++
	}
	if c.Salary.Low != nil || c.Salary.High != nil {
		n++
	}
	if c.Description != nil {
		n++
	}
	if c.Requirements != nil {
		n++
	}
	if c.Benefits != nil {
		n++
	}
	if c.Industry != nil {
		n++
	}
	if c.JobType != nil {
		n++
	}
	if c.ExperienceLevel != nil {
		n++
	}
	if c.PostingDate != nil {
		n++
	}
	if c.ExternalJobID != nil {
		n++
	}
	return n
}
