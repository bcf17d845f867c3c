package repository

import (
	"context"
	"testing"
	"time"

	"github.com/andreypavlenko/jobscout/modules/queue/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const queueSchema = `
CREATE TABLE analysis_queue_entries (
	id UUID PRIMARY KEY,
	job_id UUID NOT NULL,
	tier_target INT NOT NULL,
	priority TEXT NOT NULL DEFAULT 'normal',
	state TEXT NOT NULL DEFAULT 'pending',
	not_before TIMESTAMPTZ NOT NULL,
	leased_by TEXT,
	leased_at TIMESTAMPTZ,
	lease_expiry TIMESTAMPTZ,
	attempts INT NOT NULL DEFAULT 0,
	last_error TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// startQueueDB spins up a throwaway Postgres and returns a pool with the
// queue table created.
func startQueueDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("jobscout_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, queueSchema)
	require.NoError(t, err)

	return pool
}

func TestQueueRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool := startQueueDB(t)
	repo := NewQueueRepository(pool)
	ctx := context.Background()

	jobA := "6c1a52a6-54f0-4f4d-9ea9-2dbb734b0001"
	jobB := "6c1a52a6-54f0-4f4d-9ea9-2dbb734b0002"
	jobC := "6c1a52a6-54f0-4f4d-9ea9-2dbb734b0003"

	t.Run("enqueue is idempotent per job and tier", func(t *testing.T) {
		_, err := repo.Enqueue(ctx, jobA, 1, model.PriorityNormal)
		require.NoError(t, err)

		_, err = repo.Enqueue(ctx, jobA, 1, model.PriorityNormal)
		assert.ErrorIs(t, err, model.ErrDuplicateActiveEntry)

		// A different tier for the same job is a distinct unit of work.
		_, err = repo.Enqueue(ctx, jobA, 2, model.PriorityNormal)
		require.NoError(t, err)
	})

	t.Run("lease honors priority ordering and marks entries leased", func(t *testing.T) {
		_, err := repo.Enqueue(ctx, jobB, 1, model.PriorityLow)
		require.NoError(t, err)
		_, err = repo.Enqueue(ctx, jobC, 1, model.PriorityHigh)
		require.NoError(t, err)

		leased, err := repo.Lease(ctx, "worker-1", 1, 60)
		require.NoError(t, err)
		require.Len(t, leased, 1)
		assert.Equal(t, jobC, leased[0].JobID, "high priority leases first")
		assert.Equal(t, model.StateLeased, leased[0].State)

		// A second worker cannot lease the same entry.
		leased2, err := repo.Lease(ctx, "worker-2", 10, 60)
		require.NoError(t, err)
		for _, e := range leased2 {
			assert.NotEqual(t, leased[0].ID, e.ID)
		}
	})

	t.Run("complete requires the lease holder", func(t *testing.T) {
		leased, err := repo.Lease(ctx, "worker-1", 1, 60)
		require.NoError(t, err)
		require.NotEmpty(t, leased)

		err = repo.Complete(ctx, leased[0].ID, "worker-2")
		assert.ErrorIs(t, err, model.ErrLeaseNotHeld)

		err = repo.Complete(ctx, leased[0].ID, "worker-1")
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, leased[0].ID)
		require.NoError(t, err)
		assert.Equal(t, model.StateCompleted, got.State)
	})

	t.Run("retry returns entry to pending with backoff, escalating at max attempts", func(t *testing.T) {
		jobID := "6c1a52a6-54f0-4f4d-9ea9-2dbb734b0004"
		entry, err := repo.Enqueue(ctx, jobID, 1, model.PriorityNormal)
		require.NoError(t, err)

		var permanent bool
		for i := 0; i < model.MaxAttempts; i++ {
			leased, err := repo.Lease(ctx, "worker-1", 10, 60)
			require.NoError(t, err)
			var mine *model.AnalysisQueueEntry
			for _, e := range leased {
				if e.ID == entry.ID {
					mine = e
				}
			}
			require.NotNil(t, mine, "entry should be leasable on attempt %d", i+1)

			permanent, err = repo.Retry(ctx, entry.ID, "worker-1", "llm timeout", time.Now().UTC())
			require.NoError(t, err)
		}
		assert.True(t, permanent, "attempt %d should be permanent", model.MaxAttempts)

		got, err := repo.GetByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StateFailed, got.State)
		assert.Equal(t, model.MaxAttempts, got.Attempts)
		require.NotNil(t, got.LastError)
		assert.Equal(t, "llm timeout", *got.LastError)
	})

	t.Run("not_before in the future is not leasable", func(t *testing.T) {
		jobID := "6c1a52a6-54f0-4f4d-9ea9-2dbb734b0005"
		entry, err := repo.Enqueue(ctx, jobID, 1, model.PriorityHigh)
		require.NoError(t, err)

		_, err = pool.Exec(ctx,
			`UPDATE analysis_queue_entries SET not_before = $2 WHERE id = $1`,
			entry.ID, time.Now().UTC().Add(time.Hour))
		require.NoError(t, err)

		leased, err := repo.Lease(ctx, "worker-1", 50, 60)
		require.NoError(t, err)
		for _, e := range leased {
			assert.NotEqual(t, entry.ID, e.ID)
		}
	})

	t.Run("release returns a leased entry to pending without an attempt", func(t *testing.T) {
		jobID := "6c1a52a6-54f0-4f4d-9ea9-2dbb734b0007"
		entry, err := repo.Enqueue(ctx, jobID, 2, model.PriorityHigh)
		require.NoError(t, err)

		leased, err := repo.Lease(ctx, "worker-1", 50, 60)
		require.NoError(t, err)
		var mine *model.AnalysisQueueEntry
		for _, e := range leased {
			if e.ID == entry.ID {
				mine = e
			}
		}
		require.NotNil(t, mine)

		require.NoError(t, repo.Release(ctx, entry.ID, "worker-1"))

		got, err := repo.GetByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatePending, got.State)
		assert.Equal(t, 0, got.Attempts)
	})

	t.Run("expired leases return to pending", func(t *testing.T) {
		jobID := "6c1a52a6-54f0-4f4d-9ea9-2dbb734b0006"
		entry, err := repo.Enqueue(ctx, jobID, 1, model.PriorityHigh)
		require.NoError(t, err)

		leased, err := repo.Lease(ctx, "worker-crashed", 1, 0)
		require.NoError(t, err)
		require.NotEmpty(t, leased)

		time.Sleep(10 * time.Millisecond)
		n, err := repo.ExpireLeases(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1)

		got, err := repo.GetByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatePending, got.State)
		assert.Nil(t, got.LeasedBy)
	})
}
