package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andreypavlenko/jobscout/modules/queue/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QueueRepository implements ports.QueueRepository against Postgres. Lease
// uses SELECT ... FOR UPDATE SKIP LOCKED so multiple scheduler workers can
// pull from the same queue without contending on the same rows.
type QueueRepository struct {
	pool *pgxpool.Pool
}

// NewQueueRepository creates a new queue repository.
func NewQueueRepository(pool *pgxpool.Pool) *QueueRepository {
	return &QueueRepository{pool: pool}
}

func (r *QueueRepository) Enqueue(ctx context.Context, jobID string, tierTarget int, priority model.Priority) (*model.AnalysisQueueEntry, error) {
	var existingCount int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM analysis_queue_entries
		WHERE job_id = $1 AND tier_target = $2 AND state IN ('pending', 'leased')
	`, jobID, tierTarget).Scan(&existingCount)
	if err != nil {
		return nil, err
	}
	if existingCount > 0 {
		return nil, model.ErrDuplicateActiveEntry
	}

	if priority == "" {
		priority = model.PriorityNormal
	}
	now := time.Now().UTC()
	entry := &model.AnalysisQueueEntry{
		ID:         uuid.New().String(),
		JobID:      jobID,
		TierTarget: tierTarget,
		Priority:   priority,
		State:      model.StatePending,
		NotBefore:  now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO analysis_queue_entries (id, job_id, tier_target, priority, state, not_before, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $7)
	`, entry.ID, entry.JobID, entry.TierTarget, entry.Priority, entry.State, entry.NotBefore, entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *QueueRepository) Lease(ctx context.Context, workerID string, n int, leaseTimeoutSeconds int) ([]*model.AnalysisQueueEntry, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	rows, err := tx.Query(ctx, `
		SELECT id, job_id, tier_target, priority, attempts
		FROM analysis_queue_entries
		WHERE state = 'pending' AND not_before <= $2
		ORDER BY
			CASE priority WHEN 'high' THEN 2 WHEN 'low' THEN 0 ELSE 1 END DESC,
			not_before ASC,
			created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, n, now)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		id, jobID, priority string
		tier                int
		attempts            int
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.jobID, &c.tier, &c.priority, &c.attempts); err != nil {
			rows.Close()
			return nil, err
		}
		candidates = append(candidates, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	expiry := now.Add(time.Duration(leaseTimeoutSeconds) * time.Second)
	var leased []*model.AnalysisQueueEntry
	for _, c := range candidates {
		_, err := tx.Exec(ctx, `
			UPDATE analysis_queue_entries
			SET state = 'leased', leased_by = $2, leased_at = $3, lease_expiry = $4, updated_at = $3
			WHERE id = $1
		`, c.id, workerID, now, expiry)
		if err != nil {
			return nil, err
		}
		leased = append(leased, &model.AnalysisQueueEntry{
			ID: c.id, JobID: c.jobID, TierTarget: c.tier, Priority: model.Priority(c.priority), State: model.StateLeased,
			LeasedBy: &workerID, LeasedAt: &now, LeaseExpiry: &expiry, Attempts: c.attempts,
			UpdatedAt: now,
		})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return leased, nil
}

func (r *QueueRepository) Complete(ctx context.Context, entryID, workerID string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE analysis_queue_entries
		SET state = 'completed', updated_at = $3
		WHERE id = $1 AND leased_by = $2 AND state = 'leased'
	`, entryID, workerID, time.Now().UTC())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return model.ErrLeaseNotHeld
	}
	return nil
}

// Retry implements the retryable_failure outcome: the entry
// goes back to pending with not_before stamped to the caller's computed
// backoff deadline and attempts incremented. Once attempts reaches
// model.MaxAttempts the entry is instead marked permanently failed.
func (r *QueueRepository) Retry(ctx context.Context, entryID, workerID, reason string, notBefore time.Time) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var attempts int
	err = tx.QueryRow(ctx, `
		SELECT attempts FROM analysis_queue_entries
		WHERE id = $1 AND leased_by = $2 AND state = 'leased'
		FOR UPDATE
	`, entryID, workerID).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, model.ErrLeaseNotHeld
		}
		return false, err
	}
	attempts++
	now := time.Now().UTC()

	if attempts >= model.MaxAttempts {
		_, err = tx.Exec(ctx, `
			UPDATE analysis_queue_entries
			SET state = 'failed', attempts = $3, last_error = $4, updated_at = $5
			WHERE id = $1 AND leased_by = $2
		`, entryID, workerID, attempts, reason, now)
		if err != nil {
			return false, err
		}
		return true, tx.Commit(ctx)
	}

	_, err = tx.Exec(ctx, `
		UPDATE analysis_queue_entries
		SET state = 'pending', leased_by = NULL, leased_at = NULL, lease_expiry = NULL,
			attempts = $3, last_error = $4, not_before = $5, updated_at = $6
		WHERE id = $1 AND leased_by = $2
	`, entryID, workerID, attempts, reason, notBefore, now)
	if err != nil {
		return false, err
	}
	return false, tx.Commit(ctx)
}

func (r *QueueRepository) Fail(ctx context.Context, entryID, workerID, reason string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE analysis_queue_entries
		SET state = 'failed', last_error = $3, updated_at = $4
		WHERE id = $1 AND leased_by = $2 AND state = 'leased'
	`, entryID, workerID, reason, time.Now().UTC())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return model.ErrLeaseNotHeld
	}
	return nil
}

// Release returns a leased entry to pending without counting an attempt,
// used when a planned batch is trimmed to fit the model's context window or
// a worker is cancelled before dispatch.
func (r *QueueRepository) Release(ctx context.Context, entryID, workerID string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE analysis_queue_entries
		SET state = 'pending', leased_by = NULL, leased_at = NULL, lease_expiry = NULL, updated_at = $3
		WHERE id = $1 AND leased_by = $2 AND state = 'leased'
	`, entryID, workerID, time.Now().UTC())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return model.ErrLeaseNotHeld
	}
	return nil
}

func (r *QueueRepository) ExpireLeases(ctx context.Context) (int, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE analysis_queue_entries
		SET state = 'pending', leased_by = NULL, leased_at = NULL, lease_expiry = NULL,
			attempts = attempts + 1, updated_at = $1
		WHERE state = 'leased' AND lease_expiry < $1
	`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}

func (r *QueueRepository) GetByID(ctx context.Context, entryID string) (*model.AnalysisQueueEntry, error) {
	e := &model.AnalysisQueueEntry{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, job_id, tier_target, priority, state, not_before, leased_by, leased_at, lease_expiry, attempts, last_error, created_at, updated_at
		FROM analysis_queue_entries WHERE id = $1
	`, entryID).Scan(
		&e.ID, &e.JobID, &e.TierTarget, &e.Priority, &e.State, &e.NotBefore, &e.LeasedBy, &e.LeasedAt, &e.LeaseExpiry,
		&e.Attempts, &e.LastError, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrEntryNotFound
		}
		return nil, err
	}
	return e, nil
}
