// Package scheduler is the cooperative loop that leases
// analysis queue entries, builds batched prompts, calls the LLM provider
// under bounded concurrency and spend/rate limits, validates the response,
// and persists results — sequencing tiers 1 through 3 and downgrading to
// cheaper batches when the optimizer's efficiency signal says to.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/andreypavlenko/jobscout/internal/config"
	"github.com/andreypavlenko/jobscout/internal/platform/logger"
	eventsmodel "github.com/andreypavlenko/jobscout/modules/events/model"
	"github.com/andreypavlenko/jobscout/modules/llm/optimizer"
	"github.com/andreypavlenko/jobscout/modules/llm/provider"
	"github.com/andreypavlenko/jobscout/modules/llm/security"
	"github.com/andreypavlenko/jobscout/modules/llm/validator"
	jobmodel "github.com/andreypavlenko/jobscout/modules/jobs/model"
	jobports "github.com/andreypavlenko/jobscout/modules/jobs/ports"
	queuemodel "github.com/andreypavlenko/jobscout/modules/queue/model"
	"github.com/andreypavlenko/jobscout/modules/queue/ports"
	securitymodel "github.com/andreypavlenko/jobscout/modules/security/model"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// tierSystemPrompts describes what each analysis tier asks the model to do.
// Tier 1 is the cheapest/highest-volume pass; tier 3 the deepest.
var tierSystemPrompts = map[int]string{
	1: "Extract required and nice-to-have skills (each with an importance rating from 1 to 10), benefits, and ATS keywords (each with a screening weight from 0 to 1) for each job. Respond as JSON: {\"analyses\":[{\"job_id\":...,\"verification_token\":...,\"required_skills\":[{\"skill\":...,\"importance\":1-10}],\"nice_to_have_skills\":[{\"skill\":...,\"importance\":1-10}],\"benefits\":[...],\"ats_keywords\":[{\"keyword\":...,\"weight\":0-1}]}]}.",
	2: "Identify secondary industries, red flags, and implicit requirements for each job. Respond as JSON: {\"analyses\":[{\"job_id\":...,\"verification_token\":...,\"secondary_industries\":[...],\"red_flags\":[...],\"implicit_requirements\":[...]}]}.",
	3: "Produce cover-letter talking points, authenticity concerns, and a brief company strategic profile for each job. Respond as JSON: {\"analyses\":[{\"job_id\":...,\"verification_token\":...,\"cover_letter_insights\":[...],\"authenticity_concerns\":[...],\"strategic_mission\":\"...\",\"recent_news\":\"...\"}]}.",
}

// DetectionSink receives security detections; satisfied by
// modules/security/repository.DetectionRepository.
type DetectionSink interface {
	Record(ctx context.Context, d *securitymodel.SecurityDetection) error
}

// EventSink receives pipeline events; satisfied by
// modules/events/repository.EventRepository.
type EventSink interface {
	Record(ctx context.Context, kind eventsmodel.Kind, jobID *string, detail string) error
}

// Scheduler wires the queue, optimizer, sanitizer, provider, and validator
// into the cooperative analysis loop.
type Scheduler struct {
	cfg        config.LLMConfig
	queue      ports.QueueRepository
	jobs       jobports.JobRepository
	opt        *optimizer.Optimizer
	sanitizer  *security.Sanitizer
	detections DetectionSink
	events     EventSink
	client     provider.Client
	log        *logger.Logger

	rpmLimiter *rate.Limiter
	rpdLimiter *rate.Limiter
	sem        *semaphore.Weighted
	spend      SpendTracker
}

// New wires a Scheduler from its dependencies. spend may be nil, in which
// case an in-memory (non-durable) tracker is used.
func New(
	cfg config.LLMConfig,
	queue ports.QueueRepository,
	jobs jobports.JobRepository,
	opt *optimizer.Optimizer,
	sanitizer *security.Sanitizer,
	detections DetectionSink,
	events EventSink,
	client provider.Client,
	log *logger.Logger,
	spend SpendTracker,
) *Scheduler {
	if spend == nil {
		spend = NewMemorySpendTracker()
	}
	return &Scheduler{
		cfg:        cfg,
		queue:      queue,
		jobs:       jobs,
		opt:        opt,
		sanitizer:  sanitizer,
		detections: detections,
		events:     events,
		client:     client,
		log:        log,
		rpmLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RPM)/60.0), max(1, cfg.RPM)),
		rpdLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RPD)/86400.0), max(1, cfg.RPD)),
		sem:        semaphore.NewWeighted(int64(max(1, cfg.Concurrency))),
		spend:      spend,
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// RunTierOnce leases up to one planned batch for a tier, processes it, and
// returns how many entries it handled. A worker calls this in a loop across
// tiers 1..3, sleeping between empty passes.
func (s *Scheduler) RunTierOnce(ctx context.Context, workerID string, tier int) (int, error) {
	exceeded, err := s.budgetExceeded(ctx)
	if err != nil {
		s.log.Warn("failed to read spend totals, proceeding without budget gate", zap.Error(err))
	} else if exceeded {
		_ = s.events.Record(ctx, eventsmodel.KindBudgetExceeded, nil, fmt.Sprintf("tier %d skipped: spend budget exceeded", tier))
		return 0, nil
	}

	plan := s.opt.PlanBatch(tier, s.tierBudgetMax(tier))
	entries, err := s.queue.Lease(ctx, workerID, plan.BatchSize, int(s.cfg.LeaseTimeout.Seconds()))
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	defer s.sem.Release(1)

	if s.rpmLimiter.Tokens() < 1 || s.rpdLimiter.Tokens() < 1 {
		_ = s.events.Record(ctx, eventsmodel.KindRateLimited, nil, fmt.Sprintf("tier %d waiting for a request slot", tier))
	}
	if err := s.rpmLimiter.Wait(ctx); err != nil {
		return 0, err
	}
	if err := s.rpdLimiter.Wait(ctx); err != nil {
		return 0, err
	}

	if err := s.processBatch(ctx, workerID, tier, plan, entries); err != nil {
		s.log.Error("tier batch processing failed", zap.Int("tier", tier), zap.Error(err))
		_ = s.events.Record(ctx, eventsmodel.KindTierFailed, nil, fmt.Sprintf("tier %d: %v", tier, err))
	}

	return len(entries), nil
}

func (s *Scheduler) tierBudgetMax(tier int) int {
	switch tier {
	case 1:
		return s.cfg.Tier1.MaxBatchSize
	case 2:
		return s.cfg.Tier2.MaxBatchSize
	default:
		return s.cfg.Tier3.MaxBatchSize
	}
}

func (s *Scheduler) processBatch(ctx context.Context, workerID string, tier int, plan optimizer.BatchPlan, entries []*queuemodel.AnalysisQueueEntry) error {
	token, err := security.GenerateToken()
	if err != nil {
		return err
	}

	type batchJob struct {
		entry *queuemodel.AnalysisQueueEntry
		job   *jobmodel.Job
	}
	batch := make([]batchJob, 0, len(entries))
	descLens := make([]int, 0, len(entries))
	for _, e := range entries {
		job, err := s.jobs.GetByIDAny(ctx, e.JobID)
		if err != nil {
			s.retryOrFail(ctx, workerID, e, err)
			continue
		}
		batch = append(batch, batchJob{entry: e, job: job})
		descLen := 0
		if job.Description != nil {
			descLen = len(*job.Description)
		}
		descLens = append(descLens, descLen)
	}
	if len(batch) == 0 {
		return nil
	}

	// Trim the batch until estimated input + output fits the context
	// window; trimmed entries go back to pending without an attempt.
	plan, fit := s.opt.FitBatch(plan, tier, descLens)
	for _, bj := range batch[fit:] {
		if err := s.queue.Release(ctx, bj.entry.ID, workerID); err != nil {
			s.log.Warn("failed to release trimmed queue entry", zap.String("entry_id", bj.entry.ID), zap.Error(err))
		}
	}
	batch = batch[:fit]

	jobIDs := make([]string, 0, len(batch))
	submitted := make([]*queuemodel.AnalysisQueueEntry, 0, len(batch))
	var prompt strings.Builder
	for _, bj := range batch {
		e, job := bj.entry, bj.job
		jobIDs = append(jobIDs, e.JobID)
		submitted = append(submitted, e)

		description := ""
		if job.Description != nil {
			description = *job.Description
		}
		clean, findings := s.sanitizer.Sanitize(description)
		for _, f := range findings {
			_ = s.detections.Record(ctx, &securitymodel.SecurityDetection{
				BatchID: token, JobID: &e.JobID, Pattern: f.Pattern, MatchedText: f.MatchedText, Action: "flagged",
			})
			_ = s.events.Record(ctx, eventsmodel.KindSecurityDetected, &e.JobID, f.Pattern)
		}

		fmt.Fprintf(&prompt, "job_id: %s\nsecurity_token: %s\ntitle: %s\ndescription: %s\n", e.JobID, token, job.Title, clean)
		if tier > 1 {
			if prior := priorTierContext(job); prior != "" {
				fmt.Fprintf(&prompt, "prior_analysis: %s\n", prior)
			}
		}
		fmt.Fprintf(&prompt, "security_token: %s\n\n", token)
	}
	fmt.Fprintf(&prompt, "checksum: %s\n", token)
	s.log.Debug("dispatching analysis batch",
		zap.Int("tier", tier),
		zap.Int("batch_size", plan.BatchSize),
		zap.String("model", plan.Model),
		zap.String("plan_reason", plan.Reason),
	)

	systemPrompt := security.EmbedToken(tierSystemPrompts[tier], token)

	// Hard call timeout scales with the output budget: a model drip-feeding
	// a large response should not hold the lease forever.
	timeout := time.Duration(float64(plan.MaxOutputTokens)*s.cfg.OutputMsPerTok*1.5) * time.Millisecond
	if timeout < 30*time.Second {
		timeout = 30 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	callStart := time.Now()
	var resp *provider.Response
	retryErr := s.withRetry(callCtx, func() error {
		r, err := s.client.Complete(callCtx, provider.Request{
			Model:        plan.Model,
			SystemPrompt: systemPrompt,
			UserPrompt:   prompt.String(),
			MaxTokens:    plan.MaxOutputTokens,
		})
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if retryErr != nil {
		for _, e := range submitted {
			s.retryOrFail(ctx, workerID, e, retryErr)
		}
		return retryErr
	}

	responseTimeMs := int(time.Since(callStart).Milliseconds())
	s.opt.RecordUsage(tier, resp.Usage, plan)
	s.recordSpend(ctx, tier, resp.Usage)

	if !s.sanitizer.VerifyBatchToken(resp.Text, token, len(jobIDs)) {
		_ = s.events.Record(ctx, eventsmodel.KindSecurityDetected, nil, "verification token missing from batch response")
		for _, e := range submitted {
			s.retryOrFail(ctx, workerID, e, fmt.Errorf("response failed token verification"))
		}
		return fmt.Errorf("batch response failed token verification")
	}

	analyses, err := validator.Validate(resp.Text, jobIDs, token)
	if err != nil {
		if errors.Is(err, validator.ErrTokenMismatch) {
			_ = s.detections.Record(ctx, &securitymodel.SecurityDetection{
				BatchID: token, Pattern: "verification_token_mismatch", MatchedText: err.Error(), Action: "rejected",
			})
			_ = s.events.Record(ctx, eventsmodel.KindSecurityDetected, nil, "echoed verification token did not match issued token; batch rejected")
		}
		for _, e := range submitted {
			s.retryOrFail(ctx, workerID, e, err)
		}
		return err
	}

	entryByJobID := make(map[string]*queuemodel.AnalysisQueueEntry, len(submitted))
	for _, e := range submitted {
		entryByJobID[e.JobID] = e
	}

	for _, a := range analyses {
		entry, ok := entryByJobID[a.JobID]
		if !ok {
			continue
		}
		write := toAnalysisWrite(a)
		write.TokensUsed = resp.Usage.OutputTokens / len(analyses)
		write.ModelUsed = plan.Model
		write.ResponseTimeMs = responseTimeMs
		if err := s.jobs.CompleteAnalysis(ctx, a.JobID, tier, write); err != nil {
			s.retryOrFail(ctx, workerID, entry, err)
			continue
		}
		if err := s.queue.Complete(ctx, entry.ID, workerID); err != nil {
			s.log.Warn("failed to mark queue entry complete", zap.String("entry_id", entry.ID), zap.Error(err))
			continue
		}
		jobID := a.JobID
		_ = s.events.Record(ctx, eventsmodel.KindTierCompleted, &jobID, fmt.Sprintf("tier %d", tier))

		if tier < 3 {
			if _, err := s.queue.Enqueue(ctx, jobID, tier+1, entry.Priority); err != nil {
				s.log.Warn("failed to enqueue next tier", zap.String("job_id", jobID), zap.Int("next_tier", tier+1), zap.Error(err))
			}
		}
	}

	return nil
}

// retryOrFail implements the retryable_failure outcome: attempts are
// backed off with jitter and the entry goes back to
// pending, unless the repository reports the attempt count has reached
// model.MaxAttempts, in which case the entry is now permanently failed and
// the job's analysis lifecycle ends at this tier.
func (s *Scheduler) retryOrFail(ctx context.Context, workerID string, e *queuemodel.AnalysisQueueEntry, cause error) {
	notBefore := time.Now().UTC().Add(s.backoffFor(e.Attempts + 1))
	permanent, err := s.queue.Retry(ctx, e.ID, workerID, cause.Error(), notBefore)
	if err != nil {
		s.log.Warn("failed to requeue queue entry", zap.String("entry_id", e.ID), zap.Error(err))
		return
	}
	if permanent {
		jobID := e.JobID
		_ = s.events.Record(ctx, eventsmodel.KindTierFailed, &jobID, fmt.Sprintf("tier %d permanently failed: %v", e.TierTarget, cause))
	}
}

// backoffFor computes exponential backoff with jitter: base 2s, cap 5
// minutes, jitter +/-20%.
func (s *Scheduler) backoffFor(attempt int) time.Duration {
	base := s.cfg.RetryBaseDelay
	if base <= 0 {
		base = 2 * time.Second
	}
	capDelay := s.cfg.RetryCapDelay
	if capDelay <= 0 {
		capDelay = 5 * time.Minute
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= capDelay {
			delay = capDelay
			break
		}
	}
	jitterFrac := s.cfg.RetryMaxJitter
	if jitterFrac <= 0 {
		jitterFrac = 0.2
	}
	jitter := time.Duration((rand.Float64()*2 - 1) * jitterFrac * float64(delay))
	delay += jitter
	if delay < 0 {
		delay = base
	}
	return delay
}

// withRetry wraps the LLM call with exponential backoff, bounded by the
// scheduler's configured base/cap delay and jitter.
func (s *Scheduler) withRetry(ctx context.Context, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.RetryBaseDelay
	b.MaxInterval = s.cfg.RetryCapDelay
	b.RandomizationFactor = s.cfg.RetryMaxJitter
	b.MaxElapsedTime = s.cfg.RetryCapDelay * 5

	return backoff.Retry(fn, backoff.WithContext(b, ctx))
}

// budgetExceeded reports whether today's or this month's spend has crossed
// the configured cap. A zero cap disables the check for that window. Spend
// totals come from s.spend, which is durable across restarts only when it is
// Redis-backed.
func (s *Scheduler) budgetExceeded(ctx context.Context) (bool, error) {
	daily, monthly, err := s.spend.Totals(ctx)
	if err != nil {
		return false, err
	}
	if s.cfg.DailyMaxUSD > 0 && daily >= s.cfg.DailyMaxUSD {
		return true, nil
	}
	if s.cfg.MonthlyMaxUSD > 0 && monthly >= s.cfg.MonthlyMaxUSD {
		return true, nil
	}
	return false, nil
}

// costPerThousandOutputTokens is a rough USD-per-1K-output-tokens estimate; real per-model
// pricing would be looked up from the provider, but a constant keeps the
// budget check self-contained until that lookup exists.
const costPerThousandOutputTokens = 0.015

func (s *Scheduler) recordSpend(ctx context.Context, tier int, usage provider.Usage) {
	_ = tier
	cost := float64(usage.OutputTokens) / 1000.0 * costPerThousandOutputTokens
	if err := s.spend.Record(ctx, cost); err != nil {
		s.log.Warn("failed to persist spend", zap.Error(err))
	}
}

// priorTierContext summarizes the findings earlier tiers persisted for a
// job, passed as context so a deeper tier builds on them instead of
// re-deriving the basics.
func priorTierContext(job *jobmodel.Job) string {
	var parts []string
	if len(job.RequiredSkills) > 0 {
		skills := make([]string, 0, len(job.RequiredSkills))
		for _, s := range job.RequiredSkills {
			skills = append(skills, s.Skill)
		}
		parts = append(parts, "skills: "+strings.Join(skills, ", "))
	}
	if len(job.RedFlags) > 0 {
		flags := make([]string, 0, len(job.RedFlags))
		for _, f := range job.RedFlags {
			flags = append(flags, f.Flag)
		}
		parts = append(parts, "red flags: "+strings.Join(flags, ", "))
	}
	if len(job.SecondaryIndustries) > 0 {
		industries := make([]string, 0, len(job.SecondaryIndustries))
		for _, i := range job.SecondaryIndustries {
			industries = append(industries, i.Industry)
		}
		parts = append(parts, "industries: "+strings.Join(industries, ", "))
	}
	if len(job.ImplicitRequirements) > 0 {
		reqs := make([]string, 0, len(job.ImplicitRequirements))
		for _, ir := range job.ImplicitRequirements {
			reqs = append(reqs, ir.Requirement)
		}
		parts = append(parts, "implicit requirements: "+strings.Join(reqs, ", "))
	}
	return strings.Join(parts, "; ")
}

// toAnalysisWrite maps a validated per-job analysis onto the job store's
// child entities. Row ids are assigned by the repository at insert time.
func toAnalysisWrite(a validator.JobAnalysis) jobports.AnalysisWrite {
	write := jobports.AnalysisWrite{}
	for _, sk := range a.RequiredSkills {
		write.RequiredSkills = append(write.RequiredSkills, jobmodel.RequiredSkill{Skill: sk.Skill, Required: true, Importance: sk.Importance})
	}
	for _, sk := range a.NiceToHaveSkills {
		write.RequiredSkills = append(write.RequiredSkills, jobmodel.RequiredSkill{Skill: sk.Skill, Required: false, Importance: sk.Importance})
	}
	for _, b := range a.Benefits {
		write.Benefits = append(write.Benefits, jobmodel.Benefit{Benefit: b})
	}
	for _, k := range a.ATSKeywords {
		write.ATSKeywords = append(write.ATSKeywords, jobmodel.ATSKeyword{Keyword: k.Keyword, Weight: k.Weight})
	}
	for _, i := range a.SecondaryIndustries {
		write.SecondaryIndustries = append(write.SecondaryIndustries, jobmodel.SecondaryIndustry{Industry: i})
	}
	for _, f := range a.RedFlags {
		write.RedFlags = append(write.RedFlags, jobmodel.RedFlag{Flag: f, Severity: "medium"})
	}
	for _, ir := range a.ImplicitRequirements {
		write.ImplicitRequirements = append(write.ImplicitRequirements, jobmodel.ImplicitRequirement{Requirement: ir})
	}
	for _, ci := range a.CoverLetterInsights {
		write.CoverLetterInsights = append(write.CoverLetterInsights, jobmodel.CoverLetterInsight{Insight: ci})
	}
	for _, ac := range a.AuthenticityConcerns {
		write.AuthenticityFlags = append(write.AuthenticityFlags, jobmodel.AuthenticityFlag{Flag: ac, Suspicious: true})
	}
	return write
}
