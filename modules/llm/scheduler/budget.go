package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// SpendTracker owns the daily/monthly spend counters. They must be
// persisted so restarts don't exceed budgets: a scheduler restart must not
// forget what it already spent today or this month.
type SpendTracker interface {
	// Record adds cost (USD) to today's and this month's running totals.
	Record(ctx context.Context, cost float64) error
	// Totals returns the current daily and monthly spend.
	Totals(ctx context.Context) (daily, monthly float64, err error)
}

// memorySpendTracker is an in-process fallback used when Redis is
// unreachable at scheduler startup, and in tests. It resets on restart —
// see DESIGN.md.
type memorySpendTracker struct {
	mu           sync.Mutex
	dailySpent   float64
	monthlySpent float64
	spendDay     time.Time
	spendMonth   time.Time
}

// NewMemorySpendTracker returns a SpendTracker with no durable backing.
func NewMemorySpendTracker() SpendTracker {
	return &memorySpendTracker{}
}

func (t *memorySpendTracker) Record(_ context.Context, cost float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollLocked()
	t.dailySpent += cost
	t.monthlySpent += cost
	return nil
}

func (t *memorySpendTracker) Totals(_ context.Context) (float64, float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollLocked()
	return t.dailySpent, t.monthlySpent, nil
}

func (t *memorySpendTracker) rollLocked() {
	now := time.Now().UTC()
	if now.YearDay() != t.spendDay.YearDay() || now.Year() != t.spendDay.Year() {
		t.dailySpent = 0
		t.spendDay = now
	}
	if now.Month() != t.spendMonth.Month() || now.Year() != t.spendMonth.Year() {
		t.monthlySpent = 0
		t.spendMonth = now
	}
}

// redisClient is the subset of *redis.Client the tracker needs, so tests can
// supply a double without a live server.
type redisClient interface {
	IncrByFloat(ctx context.Context, key string, value float64) *goredis.FloatCmd
	ExpireAt(ctx context.Context, key string, tm time.Time) *goredis.BoolCmd
	Get(ctx context.Context, key string) *goredis.StringCmd
}

// redisSpendTracker persists daily/monthly spend as Redis counters keyed by
// UTC calendar period, so a scheduler restart picks up where it left off
// instead of resetting the budget.
type redisSpendTracker struct {
	rdb    redisClient
	prefix string
}

// NewRedisSpendTracker returns a SpendTracker backed by rdb.
func NewRedisSpendTracker(rdb redisClient, keyPrefix string) SpendTracker {
	if keyPrefix == "" {
		keyPrefix = "jobscout:llm:spend"
	}
	return &redisSpendTracker{rdb: rdb, prefix: keyPrefix}
}

func (t *redisSpendTracker) dailyKey(now time.Time) string {
	return fmt.Sprintf("%s:day:%s", t.prefix, now.Format("2006-01-02"))
}

func (t *redisSpendTracker) monthlyKey(now time.Time) string {
	return fmt.Sprintf("%s:month:%s", t.prefix, now.Format("2006-01"))
}

func (t *redisSpendTracker) Record(ctx context.Context, cost float64) error {
	now := time.Now().UTC()
	dayKey := t.dailyKey(now)
	monthKey := t.monthlyKey(now)

	if _, err := t.rdb.IncrByFloat(ctx, dayKey, cost).Result(); err != nil {
		return fmt.Errorf("record daily spend: %w", err)
	}
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	_ = t.rdb.ExpireAt(ctx, dayKey, nextMidnight)

	if _, err := t.rdb.IncrByFloat(ctx, monthKey, cost).Result(); err != nil {
		return fmt.Errorf("record monthly spend: %w", err)
	}
	nextMonth := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	_ = t.rdb.ExpireAt(ctx, monthKey, nextMonth)

	return nil
}

func (t *redisSpendTracker) Totals(ctx context.Context) (float64, float64, error) {
	now := time.Now().UTC()
	daily, err := t.readFloat(ctx, t.dailyKey(now))
	if err != nil {
		return 0, 0, err
	}
	monthly, err := t.readFloat(ctx, t.monthlyKey(now))
	if err != nil {
		return 0, 0, err
	}
	return daily, monthly, nil
}

func (t *redisSpendTracker) readFloat(ctx context.Context, key string) (float64, error) {
	s, err := t.rdb.Get(ctx, key).Result()
	if err != nil {
		if err == goredis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("read spend counter %s: %w", key, err)
	}
	var v float64
	if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
		return 0, fmt.Errorf("parse spend counter %s: %w", key, err)
	}
	return v, nil
}
