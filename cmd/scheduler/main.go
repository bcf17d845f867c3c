package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andreypavlenko/jobscout/internal/config"
	"github.com/andreypavlenko/jobscout/internal/platform/logger"
	"github.com/andreypavlenko/jobscout/internal/platform/postgres"
	"github.com/andreypavlenko/jobscout/internal/platform/redis"

	cleaningmodel "github.com/andreypavlenko/jobscout/modules/cleaning/model"
	"github.com/andreypavlenko/jobscout/modules/cleaning/providers"
	cleaningRepo "github.com/andreypavlenko/jobscout/modules/cleaning/repository"
	cleaningService "github.com/andreypavlenko/jobscout/modules/cleaning/service"
	companyRepo "github.com/andreypavlenko/jobscout/modules/companies/repository"
	eventsRepo "github.com/andreypavlenko/jobscout/modules/events/repository"
	"github.com/andreypavlenko/jobscout/modules/fuzzymatch"
	jobRepo "github.com/andreypavlenko/jobscout/modules/jobs/repository"
	"github.com/andreypavlenko/jobscout/modules/llm/optimizer"
	"github.com/andreypavlenko/jobscout/modules/llm/provider"
	"github.com/andreypavlenko/jobscout/modules/llm/scheduler"
	"github.com/andreypavlenko/jobscout/modules/llm/security"
	queueRepo "github.com/andreypavlenko/jobscout/modules/queue/repository"
	scrapesmodel "github.com/andreypavlenko/jobscout/modules/scrapes/model"
	scrapeRepo "github.com/andreypavlenko/jobscout/modules/scrapes/repository"
	securityRepo "github.com/andreypavlenko/jobscout/modules/security/repository"
	transferService "github.com/andreypavlenko/jobscout/modules/transfer/service"
	userRepo "github.com/andreypavlenko/jobscout/modules/users/repository"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// pipelinePollInterval governs how often raw scrapes are drained into the
// cleaning/transfer stage; it is deliberately independent of the tiered LLM
// poll cadence (config.LLMConfig.LeasePollMin/Max), since the ingest side
// has no spend budget to respect.
const pipelinePollInterval = 15 * time.Second

// pipelineBatchSize caps how many raw scrapes one pipeline tick consumes, so
// a backlog cannot monopolize the worker indefinitely.
const pipelineBatchSize = 50

// leaseReaperInterval governs how often expired analysis-queue leases are
// reclaimed back to pending.
const leaseReaperInterval = 1 * time.Minute

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zapLog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLog.Sync()

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn, Environment: cfg.Server.Env}); err != nil {
			zapLog.Warn("failed to initialize sentry", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgClient, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		zapLog.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pgClient.Close()
	zapLog.Info("scheduler connected to postgres")

	var spendTracker scheduler.SpendTracker
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		zapLog.Warn("redis unavailable, spend budget will not survive a restart", zap.Error(err))
		spendTracker = scheduler.NewMemorySpendTracker()
	} else {
		defer redisClient.Close()
		zapLog.Info("scheduler connected to redis")
		spendTracker = scheduler.NewRedisSpendTracker(redisClient.Client, "jobscout:llm:spend")
	}

	// Repositories
	rawScrapes := scrapeRepo.NewRawScrapeRepository(pgClient.Pool)
	cleanedScrapes := cleaningRepo.NewCleanedScrapeRepository(pgClient.Pool)
	companies := companyRepo.NewCompanyRepository(pgClient.Pool)
	jobs := jobRepo.NewJobRepository(pgClient.Pool)
	users := userRepo.NewUserRepository(pgClient.Pool)
	queue := queueRepo.NewQueueRepository(pgClient.Pool)
	events := eventsRepo.NewEventRepository(pgClient.Pool)
	detections := securityRepo.NewDetectionRepository(pgClient.Pool)

	// Cleaning pipeline: provider adapters, dedupe, confidence scoring
	registry := providers.NewRegistry()
	registry.Register("generic", providers.NewGenericJSONAdapter())
	registry.Register("linkedin", providers.NewLinkedInAdapter())
	matcher := fuzzymatch.NewMatcher(fuzzymatch.Config{
		TitleThreshold:       cfg.Fuzzy.TitleThreshold,
		CompanyThreshold:     cfg.Fuzzy.CompanyThreshold,
		CompanyResolveThresh: cfg.Fuzzy.CompanyResolveThresh,
		LegalSuffixes:        cfg.Fuzzy.LegalSuffixes,
		TitleStopwords:       cfg.Fuzzy.TitleStopwords,
		AbbreviationAliases:  cfg.Fuzzy.AbbreviationAliases,
	})
	recencyDays := int(cfg.Fuzzy.DedupeRecencyWindow.Hours() / 24)
	cleaner := cleaningService.NewCleanerService(cleanedScrapes, registry, matcher, cfg.Cleaning, recencyDays, cfg.Fuzzy.LegalSuffixes, zapLog)

	// Transfer into the canonical job/company store
	transfer := transferService.NewTransferService(companies, jobs, queue, matcher, events, zapLog)

	// LLM analysis scheduling: optimizer, prompt security, tiered worker
	var client provider.Client
	if cfg.LLM.APIKey != "" {
		client = provider.NewAnthropicClient(cfg.LLM.APIKey)
	} else {
		zapLog.Warn("ANTHROPIC_API_KEY not set, using noop LLM client")
		client = provider.NewNoopClient(`{"analyses":[]}`)
	}
	opt := optimizer.New(cfg.LLM)
	sanitizer := security.New(cfg.Security)
	sched := scheduler.New(cfg.LLM, queue, jobs, opt, sanitizer, detections, events, client, zapLog, spendTracker)

	workerID := fmt.Sprintf("scheduler-%d", os.Getpid())

	runProtected(ctx, zapLog, "pipeline", func(ctx context.Context) {
		runPipelineLoop(ctx, zapLog, rawScrapes, cleaner, transfer, users)
	})
	runProtected(ctx, zapLog, "lease-reaper", func(ctx context.Context) {
		runLeaseReaperLoop(ctx, zapLog, queue)
	})
	for _, tier := range []int{1, 2, 3} {
		tier := tier
		runProtected(ctx, zapLog, fmt.Sprintf("tier-%d", tier), func(ctx context.Context) {
			runTierLoop(ctx, zapLog, sched, cfg, workerID, tier)
		})
	}

	zapLog.Info("scheduler running", zap.String("worker_id", workerID))
	<-ctx.Done()
	zapLog.Info("scheduler shutting down")
}

// runProtected launches fn in its own goroutine, recovering any panic at the
// worker boundary: it is logged with a stack trace, reported to Sentry when
// configured, and the goroutine restarts after a short delay rather than
// silently disappearing.
func runProtected(ctx context.Context, zapLog *logger.Logger, name string, fn func(ctx context.Context)) {
	go func() {
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						zapLog.Error("worker panicked, restarting",
							zap.String("worker", name),
							zap.Any("panic", r),
							zap.Stack("stack"),
						)
						sentry.CurrentHub().Recover(r)
					}
				}()
				fn(ctx)
			}()

			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
		}
	}()
}

func runPipelineLoop(
	ctx context.Context,
	zapLog *logger.Logger,
	rawScrapes *scrapeRepo.RawScrapeRepository,
	cleaner *cleaningService.CleanerService,
	transfer *transferService.TransferService,
	users *userRepo.UserRepository,
) {
	ticker := time.NewTicker(pipelinePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pending, err := rawScrapes.ListUnprocessed(ctx, pipelineBatchSize)
			if err != nil {
				zapLog.Error("failed to list unprocessed raw scrapes", zap.Error(err))
				continue
			}
			if len(pending) == 0 {
				continue
			}

			cleanedBatch := cleanPendingScrapes(ctx, zapLog, rawScrapes, cleaner, pending)
			if len(cleanedBatch) == 0 {
				continue
			}

			allUsers, err := users.ListAll(ctx)
			if err != nil {
				zapLog.Error("failed to list users for transfer", zap.Error(err))
				continue
			}
			for _, u := range allUsers {
				report, err := transfer.TransferToJobs(ctx, u.ID, cleanedBatch)
				if err != nil {
					zapLog.Error("transfer failed", zap.String("user_id", u.ID), zap.Error(err))
					continue
				}
				zapLog.Info("transferred cleaned scrapes",
					zap.String("user_id", u.ID),
					zap.Int("created", report.Created),
					zap.Int("updated", report.Updated),
					zap.Int("protected", report.Protected),
					zap.Int("failed", report.Failed),
				)
			}
		}
	}
}

// cleanPendingScrapes runs each raw scrape through the cleaning and
// dedupe stages, marking it
// processed regardless of outcome so a malformed payload cannot wedge the
// pipeline forever. Scrapes with no recognized provider adapter, or that fail
// parsing, are logged and skipped; everything that cleans successfully is
// returned for a single transfer pass.
func cleanPendingScrapes(
	ctx context.Context,
	zapLog *logger.Logger,
	rawScrapes *scrapeRepo.RawScrapeRepository,
	cleaner *cleaningService.CleanerService,
	pending []*scrapesmodel.RawScrape,
) []*cleaningmodel.CleanedScrape {
	batch := make([]*cleaningmodel.CleanedScrape, 0, len(pending))
	for _, raw := range pending {
		cleaned, err := cleaner.Clean(ctx, raw)
		if err != nil {
			zapLog.Warn("failed to clean raw scrape", zap.String("raw_scrape_id", raw.ID), zap.Error(err))
		} else {
			batch = append(batch, cleaned)
		}
		if err := rawScrapes.MarkProcessed(ctx, raw.ID); err != nil {
			zapLog.Warn("failed to mark raw scrape processed", zap.String("raw_scrape_id", raw.ID), zap.Error(err))
		}
	}
	return batch
}

// runLeaseReaperLoop periodically reclaims analysis-queue leases whose
// worker died or stalled mid-batch, so tier progress is not lost to a crash.
func runLeaseReaperLoop(ctx context.Context, zapLog *logger.Logger, queue *queueRepo.QueueRepository) {
	ticker := time.NewTicker(leaseReaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := queue.ExpireLeases(ctx)
			if err != nil {
				zapLog.Error("failed to expire stale leases", zap.Error(err))
				continue
			}
			if n > 0 {
				zapLog.Info("reclaimed expired analysis-queue leases", zap.Int("count", n))
			}
		}
	}
}

// runTierLoop drives one tier's RunTierOnce in a cooperative poll: an empty
// pass backs off from LeasePollMin towards LeasePollMax (resetting on the
// next non-empty pass), so an idle tier does not hammer the database.
func runTierLoop(ctx context.Context, zapLog *logger.Logger, sched *scheduler.Scheduler, cfg *config.Config, workerID string, tier int) {
	interval := cfg.LLM.LeasePollMin

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		n, err := sched.RunTierOnce(ctx, workerID, tier)
		if err != nil {
			zapLog.Error("tier pass failed", zap.Int("tier", tier), zap.Error(err))
		}

		if n == 0 {
			interval = nextBackoff(interval, cfg.LLM.LeasePollMax)
		} else {
			interval = cfg.LLM.LeasePollMin
		}
	}
}

// nextBackoff doubles the current interval up to max, with jitter so
// multiple tier loops don't synchronize their polls.
func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		next = max
	}
	jitter := time.Duration(rand.Int63n(int64(next)/10 + 1))
	return next + jitter
}
