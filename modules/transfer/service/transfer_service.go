package service

import (
	"context"

	"github.com/andreypavlenko/jobscout/internal/platform/logger"
	cleaningmodel "github.com/andreypavlenko/jobscout/modules/cleaning/model"
	companymodel "github.com/andreypavlenko/jobscout/modules/companies/model"
	companyports "github.com/andreypavlenko/jobscout/modules/companies/ports"
	eventsmodel "github.com/andreypavlenko/jobscout/modules/events/model"
	"github.com/andreypavlenko/jobscout/modules/events/repository"
	"github.com/andreypavlenko/jobscout/modules/fuzzymatch"
	jobmodel "github.com/andreypavlenko/jobscout/modules/jobs/model"
	jobports "github.com/andreypavlenko/jobscout/modules/jobs/ports"
	queuemodel "github.com/andreypavlenko/jobscout/modules/queue/model"
	queueports "github.com/andreypavlenko/jobscout/modules/queue/ports"
	transfermodel "github.com/andreypavlenko/jobscout/modules/transfer/model"
	"go.uber.org/zap"
)

// TransferService moves cleaned scrapes into the durable
// Job/Company stores, resolving companies by fuzzy match and respecting the
// analysis-completed protection invariant on jobs.
type TransferService struct {
	companies companyports.CompanyRepository
	jobs      jobports.JobRepository
	queue     queueports.QueueRepository
	matcher   *fuzzymatch.Matcher
	events    *repository.EventRepository
	log       *logger.Logger
}

// NewTransferService wires a transfer service against the company and job
// stores, the analysis queue a newly created job's tier-1 entry is
// enqueued onto, and the fuzzy matcher used for company resolution.
func NewTransferService(companies companyports.CompanyRepository, jobs jobports.JobRepository, queue queueports.QueueRepository, matcher *fuzzymatch.Matcher, events *repository.EventRepository, log *logger.Logger) *TransferService {
	return &TransferService{companies: companies, jobs: jobs, queue: queue, matcher: matcher, events: events, log: log}
}

// TransferToJobs transfers a batch of cleaned scrapes into the job store for
// a given user, returning a report of what happened to each.
func (s *TransferService) TransferToJobs(ctx context.Context, userID string, batch []*cleaningmodel.CleanedScrape) (*transfermodel.TransferReport, error) {
	report := &transfermodel.TransferReport{}

	for _, c := range batch {
		if err := s.transferOne(ctx, userID, c, report); err != nil {
			report.Failed++
			report.FailureDetails = append(report.FailureDetails, transfermodel.FailureDetail{
				CleanedScrapeID: c.ID,
				Reason:          err.Error(),
			})
			s.log.Warn("transfer failed for cleaned scrape", zap.String("cleaned_scrape_id", c.ID), zap.Error(err))
		}
	}

	return report, nil
}

func (s *TransferService) transferOne(ctx context.Context, userID string, c *cleaningmodel.CleanedScrape, report *transfermodel.TransferReport) error {
	var companyID *string
	if c.CompanyName != nil {
		company, err := s.resolveCompany(ctx, userID, *c.CompanyName, report)
		if err != nil {
			return err
		}
		companyID = &company.ID
	}

	existing, err := s.jobs.FindByCleanedScrapeID(ctx, userID, c.ID)
	if err != nil {
		return err
	}

	if existing == nil {
		// The scrape may re-describe a job that was already analyzed under
		// a slightly different title or company spelling; the fuzzy check
		// catches those before a duplicate job is created and re-analyzed.
		protectedID, err := s.findProtectedMatch(ctx, userID, c)
		if err != nil {
			return err
		}
		if protectedID != "" {
			return s.refreshProtected(ctx, userID, protectedID, c, report)
		}

		job := buildJob(userID, companyID, c)
		if err := s.jobs.Create(ctx, job); err != nil {
			return err
		}
		report.Created++
		if _, err := s.queue.Enqueue(ctx, job.ID, 1, queuemodel.PriorityNormal); err != nil {
			s.log.Warn("failed to enqueue tier-1 analysis for new job", zap.String("job_id", job.ID), zap.Error(err))
		}
		return nil
	}

	if existing.AnalysisCompleted {
		report.Protected++
		if s.events != nil {
			jobID := existing.ID
			_ = s.events.Record(ctx, eventsmodel.KindJobProtected, &jobID, "re-transfer held identity/description fields; only last_seen/is_expired refreshed")
		}
		existing.IsExpired = c.IsExpired
		return s.jobs.UpdateFromTransfer(ctx, existing)
	}

	applyCleanedFields(existing, companyID, c)
	if err := s.jobs.UpdateFromTransfer(ctx, existing); err != nil {
		return err
	}
	report.Updated++
	return nil
}

// findProtectedMatch looks for an already-analyzed job whose (title,
// company) matches the cleaned scrape within the fuzzy thresholds. Returns the
// job's id, or "" when nothing matches.
func (s *TransferService) findProtectedMatch(ctx context.Context, userID string, c *cleaningmodel.CleanedScrape) (string, error) {
	if c.JobTitle == nil || c.CompanyName == nil {
		return "", nil
	}

	analyzed, err := s.jobs.ListAnalyzed(ctx, userID)
	if err != nil {
		return "", err
	}
	for _, ref := range analyzed {
		if ref.CompanyName == nil {
			continue
		}
		if _, ok := s.matcher.TitleSimilarity(*c.JobTitle, ref.Title); !ok {
			continue
		}
		if _, ok := s.matcher.CompanySimilarity(*c.CompanyName, *ref.CompanyName); !ok {
			continue
		}
		return ref.ID, nil
	}
	return "", nil
}

// refreshProtected links a re-appearing scrape to its protected job,
// refreshing only non-identity metadata.
func (s *TransferService) refreshProtected(ctx context.Context, userID, jobID string, c *cleaningmodel.CleanedScrape, report *transfermodel.TransferReport) error {
	job, err := s.jobs.GetByIDAny(ctx, jobID)
	if err != nil {
		return err
	}
	job.IsExpired = c.IsExpired
	if err := s.jobs.UpdateFromTransfer(ctx, job); err != nil {
		return err
	}
	report.Protected++
	if s.events != nil {
		_ = s.events.Record(ctx, eventsmodel.KindJobProtected, &jobID, "re-appearing scrape matched an analyzed job; only last_seen/is_expired refreshed")
	}
	return nil
}

// resolveCompany fuzzy-matches a scraped company name against a user's
// known companies, creating a new one when nothing resolves and failing
// when more than one candidate clears the resolve threshold.
func (s *TransferService) resolveCompany(ctx context.Context, userID, name string, report *transfermodel.TransferReport) (*companymodel.Company, error) {
	known, err := s.companies.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	var matches []*companymodel.Company
	for _, candidate := range known {
		if _, ok := s.matcher.CompanyResolves(name, candidate.Name); ok {
			matches = append(matches, candidate)
		}
	}

	switch len(matches) {
	case 0:
		company := &companymodel.Company{UserID: userID, Name: name}
		if err := s.companies.Create(ctx, company); err != nil {
			return nil, err
		}
		report.CompaniesCreated++
		return company, nil
	case 1:
		report.CompaniesResolved++
		return matches[0], nil
	default:
		return nil, transfermodel.ErrCompanyResolutionAmbiguous
	}
}

func buildJob(userID string, companyID *string, c *cleaningmodel.CleanedScrape) *jobmodel.Job {
	job := &jobmodel.Job{
		UserID:          userID,
		CompanyID:       companyID,
		Source:          &c.Source,
		CleanedScrapeID: &c.ID,
		Status:          "active",
	}
	applyCleanedFields(job, companyID, c)
	return job
}

// applyCleanedFields copies canonical fields from a cleaned scrape onto a
// job. Callers must check AnalysisCompleted before calling this on an
// existing job; it does not check the invariant itself.
func applyCleanedFields(job *jobmodel.Job, companyID *string, c *cleaningmodel.CleanedScrape) {
	if c.JobTitle != nil {
		job.Title = *c.JobTitle
	}
	job.CompanyID = companyID
	job.CleanedScrapeID = &c.ID
	job.Description = c.Description
	job.LocationCity = c.Location.City
	job.LocationProvince = c.Location.Province
	job.LocationCountry = c.Location.Country
	if c.WorkArrangement != "" {
		arrangement := string(c.WorkArrangement)
		job.WorkArrangement = &arrangement
	}
	job.SalaryLow = c.Salary.Low
	job.SalaryHigh = c.Salary.High
	job.SalaryCurrency = c.Salary.Currency
	if c.ApplicationURL != nil {
		job.URL = c.ApplicationURL
	}
}
