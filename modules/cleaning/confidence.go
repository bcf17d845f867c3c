package cleaning

import (
	"strings"

	"github.com/andreypavlenko/jobscout/modules/cleaning/model"
)

// placeholderTokens are values a scraper sometimes leaves in for an
// unresolved field; they must not count as a present value.
var placeholderTokens = map[string]bool{
	"n/a": true, "na": true, "none": true, "unknown": true, "-": true, "tbd": true,
}

// Score is a pure weighted-quality metric over a cleaned record.
// Critical fields (title, company) carry 0.60 of the weight, important
// fields (description, location, work arrangement) 0.30, and bonus fields
// (job type, posting date, company site, external id) 0.10. The result is
// clamped to [0,1] and rounded to two decimals.
func Score(c *model.CleanedScrape, companyHasWebsite bool) float64 {
	critical := 0.5*fieldQuality(c.JobTitle) + 0.5*fieldQuality(c.CompanyName)

	important := (descriptionQuality(c.Description) + locationQuality(c.Location) + arrangementQuality(c.WorkArrangement)) / 3.0

	bonusCount := 0.0
	bonusTotal := 4.0
	if c.JobType != nil && fieldQuality(c.JobType) > 0 {
		bonusCount++
	}
	if c.PostingDate != nil {
		bonusCount++
	}
	if companyHasWebsite {
		bonusCount++
	}
	if c.ExternalJobID != nil && fieldQuality(c.ExternalJobID) > 0 {
		bonusCount++
	}
	bonus := bonusCount / bonusTotal

	score := 0.60*critical + 0.30*important + 0.10*bonus
	return roundTo2(clamp01(score))
}

func fieldQuality(v *string) float64 {
	if v == nil {
		return 0
	}
	trimmed := strings.TrimSpace(*v)
	if len(trimmed) < 3 {
		return 0
	}
	if placeholderTokens[strings.ToLower(trimmed)] {
		return 0
	}
	return 1
}

func descriptionQuality(v *string) float64 {
	if v == nil {
		return 0
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return 0
	}
	paragraphs := strings.Count(trimmed, "\n\n") + 1
	switch {
	case len(trimmed) >= 400 && paragraphs >= 2:
		return 1
	case len(trimmed) >= 150:
		return 0.7
	case len(trimmed) >= 40:
		return 0.4
	default:
		return 0.2
	}
}

func locationQuality(l model.Location) float64 {
	resolved := 0
	total := 3
	if l.City != nil {
		resolved++
	}
	if l.Province != nil {
		resolved++
	}
	if l.Country != nil {
		resolved++
	}
	if resolved == 0 {
		return 0
	}
	return float64(resolved) / float64(total)
}

func arrangementQuality(a model.WorkArrangement) float64 {
	if a == "" || a == model.ArrangementUnknown {
		return 0
	}
	return 1
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func roundTo2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
