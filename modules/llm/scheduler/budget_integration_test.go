package scheduler

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// startRedis spins up a throwaway Redis and returns a connected client.
func startRedis(t *testing.T) *goredis.Client {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := goredis.ParseURL(uri)
	require.NoError(t, err)

	rdb := goredis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisSpendTracker_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	rdb := startRedis(t)
	ctx := context.Background()

	t.Run("accumulates daily and monthly spend", func(t *testing.T) {
		tracker := NewRedisSpendTracker(rdb, "test:spend:a")

		require.NoError(t, tracker.Record(ctx, 0.25))
		require.NoError(t, tracker.Record(ctx, 0.50))

		daily, monthly, err := tracker.Totals(ctx)
		require.NoError(t, err)
		assert.InDelta(t, 0.75, daily, 1e-9)
		assert.InDelta(t, 0.75, monthly, 1e-9)
	})

	t.Run("spend survives a tracker restart", func(t *testing.T) {
		first := NewRedisSpendTracker(rdb, "test:spend:b")
		require.NoError(t, first.Record(ctx, 1.20))

		// A fresh tracker instance simulates a scheduler restart; the
		// counters must still be there.
		second := NewRedisSpendTracker(rdb, "test:spend:b")
		daily, monthly, err := second.Totals(ctx)
		require.NoError(t, err)
		assert.InDelta(t, 1.20, daily, 1e-9)
		assert.InDelta(t, 1.20, monthly, 1e-9)
	})

	t.Run("empty counters read as zero", func(t *testing.T) {
		tracker := NewRedisSpendTracker(rdb, "test:spend:untouched")
		daily, monthly, err := tracker.Totals(ctx)
		require.NoError(t, err)
		assert.Zero(t, daily)
		assert.Zero(t, monthly)
	})
}
