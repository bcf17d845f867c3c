package model

import "errors"

// TransferReport summarizes one TransferToJobs run.
type TransferReport struct {
	Created           int
	Updated           int
	Protected         int // identity fields left untouched because analysis was already complete
	Failed            int
	FailureDetails    []FailureDetail
	CompaniesCreated  int
	CompaniesResolved int
}

// FailureDetail records why a single cleaned scrape could not be
// transferred, keyed by the cleaned scrape's id.
type FailureDetail struct {
	CleanedScrapeID string
	Reason          string
}

// ErrCompanyResolutionAmbiguous is returned when a scraped company name
// matches more than one existing company above the resolve threshold, and
// the transfer cannot safely pick one without risking a bad merge.
var ErrCompanyResolutionAmbiguous = errors.New("company resolution ambiguous: multiple candidates above threshold")
