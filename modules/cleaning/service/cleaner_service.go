package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/andreypavlenko/jobscout/internal/config"
	"github.com/andreypavlenko/jobscout/internal/platform/logger"
	"github.com/andreypavlenko/jobscout/modules/cleaning"
	"github.com/andreypavlenko/jobscout/modules/cleaning/model"
	"github.com/andreypavlenko/jobscout/modules/cleaning/ports"
	"github.com/andreypavlenko/jobscout/modules/cleaning/providers"
	"github.com/andreypavlenko/jobscout/modules/fuzzymatch"
	scrapeModel "github.com/andreypavlenko/jobscout/modules/scrapes/model"
	"go.uber.org/zap"
)

// CleanerService handles field extraction/normalization and dedupe
// against recent same-source records.
type CleanerService struct {
	store         ports.CleanedScrapeStore
	registry      *providers.Registry
	matcher       *fuzzymatch.Matcher
	cfg           config.CleaningConfig
	recency       int
	legalSuffixes []string
	log           *logger.Logger
}

// NewCleanerService wires a cleaner against its persistence store, provider
// adapter registry, and the fuzzy matcher used for dedupe. legalSuffixes
// drives company-name normalization ahead of fuzzy comparison.
func NewCleanerService(store ports.CleanedScrapeStore, registry *providers.Registry, matcher *fuzzymatch.Matcher, cfg config.CleaningConfig, recencyWindowDays int, legalSuffixes []string, log *logger.Logger) *CleanerService {
	return &CleanerService{store: store, registry: registry, matcher: matcher, cfg: cfg, recency: recencyWindowDays, legalSuffixes: legalSuffixes, log: log}
}

// Clean runs the full cleaning pass over a single raw scrape: parse via the provider
// adapter, normalize fields, score confidence, then either merge into an
// existing candidate (dedupe) or persist as a new cleaned record.
func (s *CleanerService) Clean(ctx context.Context, raw *scrapeModel.RawScrape) (*model.CleanedScrape, error) {
	adapter, ok := s.registry.Get(raw.Source)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownProvider, raw.Source)
	}

	parsed, err := adapter.Parse(raw.Payload)
	if err != nil {
		return nil, err
	}

	candidate := s.toCleanedScrape(raw, parsed)
	candidate.ConfidenceScore = cleaning.Score(candidate, parsed.CompanyWebsite != nil)

	if candidate.Salary.Low != nil && candidate.Salary.High != nil && *candidate.Salary.Low > *candidate.Salary.High {
		return nil, model.ErrSalaryRangeInvalid
	}

	match, err := s.findDuplicate(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if match == nil {
		if err := s.store.Create(ctx, candidate); err != nil {
			return nil, err
		}
		return candidate, nil
	}

	merged := mergeOnHigherConfidence(match, candidate)
	if err := s.store.Update(ctx, merged); err != nil {
		return nil, err
	}
	s.log.Debug("merged duplicate scrape", zap.String("cleaned_id", merged.ID), zap.Int("duplicates_count", merged.DuplicatesCount))
	return merged, nil
}

// findDuplicate is the two-step duplicate match: an exact external_job_id
// lookup within the same source first, then a fuzzy scan over recent
// same-source records requiring BOTH title and company similarity to agree.
func (s *CleanerService) findDuplicate(ctx context.Context, candidate *model.CleanedScrape) (*model.CleanedScrape, error) {
	if candidate.ExternalJobID != nil && *candidate.ExternalJobID != "" {
		existing, err := s.store.FindByExternalID(ctx, candidate.Source, *candidate.ExternalJobID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	if candidate.JobTitle == nil || candidate.CompanyName == nil {
		return nil, nil
	}

	candidates, err := s.store.FindCandidates(ctx, candidate.Source, s.recency)
	if err != nil {
		return nil, err
	}

	for _, existing := range candidates {
		if existing.JobTitle == nil || existing.CompanyName == nil {
			continue
		}
		if _, ok := s.matcher.TitleSimilarity(*candidate.JobTitle, *existing.JobTitle); !ok {
			continue
		}
		if _, ok := s.matcher.CompanySimilarity(*candidate.CompanyName, *existing.CompanyName); !ok {
			continue
		}
		return existing, nil
	}
	return nil, nil
}

// mergeOnHigherConfidence keeps the fields of whichever record scores
// higher confidence (field completeness breaks ties), but accumulates
// provenance and duplicate count from both.
func mergeOnHigherConfidence(existing, incoming *model.CleanedScrape) *model.CleanedScrape {
	winner := existing
	if incoming.ConfidenceScore > existing.ConfidenceScore ||
		(incoming.ConfidenceScore == existing.ConfidenceScore && incoming.FieldCompleteness() > existing.FieldCompleteness()) {
		winner = incoming
	}

	merged := *winner
	merged.ID = existing.ID
	merged.SourceRawIDs = append(append([]string{}, existing.SourceRawIDs...), incoming.SourceRawIDs...)
	merged.DuplicatesCount = existing.DuplicatesCount + 1
	return &merged
}

func (s *CleanerService) toCleanedScrape(raw *scrapeModel.RawScrape, p *providers.ParsedFields) *model.CleanedScrape {
	var companyName *string
	if p.CompanyName != nil {
		normalized := cleaning.NormalizeCompanyName(*p.CompanyName, s.legalSuffixes)
		companyName = &normalized
	}

	c := &model.CleanedScrape{
		SourceRawIDs:        []string{raw.ID},
		JobTitle:            p.JobTitle,
		CompanyName:         companyName,
		WorkArrangement:     p.WorkArrangement,
		Description:         p.Description,
		Requirements:        p.Requirements,
		Benefits:            p.Benefits,
		Industry:            p.Industry,
		JobType:             p.JobType,
		ExperienceLevel:     p.ExperienceLevel,
		ExternalJobID:       p.ExternalJobID,
		Source:              raw.Source,
		ApplicationURL:      p.ApplicationURL,
		ApplicationEmail:    p.ApplicationEmail,
		IsExpired:           p.IsExpired,
		DuplicatesCount:     1,
	}

	if p.LocationRaw != nil {
		c.Location = cleaning.ParseLocation(*p.LocationRaw, s.cfg.ProvinceAbbreviations)
	}
	if p.SalaryRaw != nil {
		c.Salary = cleaning.ParseSalary(*p.SalaryRaw, s.cfg.DefaultCurrencyByTLD, tldFromURL(raw.SourceURL))
	}
	if p.PostingDateRaw != nil {
		c.PostingDate = cleaning.ParseDate(*p.PostingDateRaw)
	}
	if p.ApplicationDeadline != nil {
		c.ApplicationDeadline = cleaning.ParseDate(*p.ApplicationDeadline)
	}

	return c
}

// tldFromURL extracts the last dotted segment of the host, including the
// leading dot, to match internal/config's DefaultCurrencyByTLD keys (".ca").
func tldFromURL(raw string) string {
	host := raw
	if i := strings.Index(host, "://"); i != -1 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/?#:"); i != -1 {
		host = host[:i]
	}
	idx := strings.LastIndex(host, ".")
	if idx == -1 || idx == len(host)-1 {
		return ""
	}
	end := idx + 1
	for end < len(host) && isAlpha(host[end]) {
		end++
	}
	return strings.ToLower(host[idx:end])
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
