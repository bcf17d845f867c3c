package ports

import (
	"context"
	"time"

	"github.com/andreypavlenko/jobscout/modules/queue/model"
)

// QueueRepository is the persistence boundary for the analysis queue.
type QueueRepository interface {
	// Enqueue inserts a new pending entry. It returns
	// model.ErrDuplicateActiveEntry if a non-terminal entry already exists
	// for the same (job_id, tier_target) pair.
	Enqueue(ctx context.Context, jobID string, tierTarget int, priority model.Priority) (*model.AnalysisQueueEntry, error)

	// Lease atomically claims up to n pending entries with not_before <=
	// now for a worker, ordered (priority desc, not_before asc, created_at
	// asc), setting their state to leased and stamping a lease expiry.
	Lease(ctx context.Context, workerID string, n int, leaseTimeoutSeconds int) ([]*model.AnalysisQueueEntry, error)

	// Complete marks a leased entry completed (outcome = done). Fails with
	// model.ErrLeaseNotHeld if workerID does not hold the current lease.
	Complete(ctx context.Context, entryID, workerID string) error

	// Retry returns a leased entry to pending with not_before = now +
	// backoff and increments its attempt counter (outcome =
	// retryable_failure). If the incremented attempt count reaches
	// model.MaxAttempts, the entry is marked permanently failed instead and
	// permanent is reported true.
	Retry(ctx context.Context, entryID, workerID, reason string, notBefore time.Time) (permanent bool, err error)

	// Fail marks a leased entry permanently failed and records the error
	// (outcome = permanent_failure).
	Fail(ctx context.Context, entryID, workerID, reason string) error

	// Release returns a leased entry to pending without incrementing its
	// attempt counter, for entries trimmed from a batch before dispatch.
	Release(ctx context.Context, entryID, workerID string) error

	// ExpireLeases returns leased entries whose lease has expired back to
	// pending, incrementing their attempt counter, and returns how many
	// were reclaimed.
	ExpireLeases(ctx context.Context) (int, error)

	GetByID(ctx context.Context, entryID string) (*model.AnalysisQueueEntry, error)
}
