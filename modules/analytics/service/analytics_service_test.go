package service

import (
	"context"
	"testing"
	"time"

	eventsModel "github.com/andreypavlenko/jobscout/modules/events/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEventLog struct {
	listSinceFn func(ctx context.Context, since time.Time) ([]*eventsModel.Event, error)
}

func (m *mockEventLog) ListSince(ctx context.Context, since time.Time) ([]*eventsModel.Event, error) {
	return m.listSinceFn(ctx, since)
}

func TestAnalyticsService_GetPipelineOverview(t *testing.T) {
	now := time.Now().UTC()
	events := []*eventsModel.Event{
		{Kind: eventsModel.KindTierCompleted, Detail: "tier 1", CreatedAt: now},
		{Kind: eventsModel.KindTierCompleted, Detail: "tier 1", CreatedAt: now},
		{Kind: eventsModel.KindTierFailed, Detail: "tier 1: boom", CreatedAt: now},
		{Kind: eventsModel.KindTierCompleted, Detail: "tier 2", CreatedAt: now},
		{Kind: eventsModel.KindBudgetExceeded, Detail: "tier 3 skipped: spend budget exceeded", CreatedAt: now},
		{Kind: eventsModel.KindJobProtected, Detail: "re-transfer held identity fields", CreatedAt: now},
		{Kind: eventsModel.KindSecurityDetected, Detail: "verification token missing", CreatedAt: now},
		{Kind: eventsModel.KindSecurityDetected, Detail: "echoed token mismatch", CreatedAt: now},
	}

	svc := NewAnalyticsService(&mockEventLog{
		listSinceFn: func(ctx context.Context, since time.Time) ([]*eventsModel.Event, error) {
			return events, nil
		},
	})

	overview, err := svc.GetPipelineOverview(context.Background(), now.Add(-time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, overview.JobsProtected)
	assert.Equal(t, 1, overview.BudgetExceededHits)
	assert.Equal(t, 2, overview.SecurityDetections)
	assert.Equal(t, 0, overview.RateLimitHits)
	assert.Equal(t, 0, overview.ModelTrainings)

	byTier := map[int]float64{}
	for _, ts := range overview.Tiers {
		byTier[ts.Tier] = ts.CompletionRate
	}
	assert.InDelta(t, 2.0/3.0, byTier[1], 0.0001, "tier 1: 2 completed, 1 failed")
	assert.InDelta(t, 1.0, byTier[2], 0.0001, "tier 2: only completions observed")
}

func TestAnalyticsService_GetPipelineOverview_PropagatesError(t *testing.T) {
	svc := NewAnalyticsService(&mockEventLog{
		listSinceFn: func(ctx context.Context, since time.Time) ([]*eventsModel.Event, error) {
			return nil, assert.AnError
		},
	})

	_, err := svc.GetPipelineOverview(context.Background(), time.Now().UTC())
	require.Error(t, err)
}
