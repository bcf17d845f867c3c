package service

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/andreypavlenko/jobscout/modules/analytics/model"
	"github.com/andreypavlenko/jobscout/modules/analytics/ports"
	eventsModel "github.com/andreypavlenko/jobscout/modules/events/model"
)

var tierNumberRe = regexp.MustCompile(`tier (\d+)`)

// AnalyticsService turns the raw pipeline event log into the operational
// aggregates an operator dashboard wants: per-tier completion rates, budget
// pressure, and how often dedupe/security had to intervene.
type AnalyticsService struct {
	events ports.EventLog
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(events ports.EventLog) *AnalyticsService {
	return &AnalyticsService{events: events}
}

// GetPipelineOverview aggregates every event recorded since the given time.
func (s *AnalyticsService) GetPipelineOverview(ctx context.Context, since time.Time) (*model.PipelineOverview, error) {
	events, err := s.events.ListSince(ctx, since)
	if err != nil {
		return nil, err
	}

	completed := map[int]int{}
	failed := map[int]int{}
	overview := &model.PipelineOverview{Since: since, GeneratedAt: time.Now().UTC()}

	for _, e := range events {
		switch e.Kind {
		case eventsModel.KindTierCompleted:
			completed[tierFromDetail(e.Detail)]++
		case eventsModel.KindTierFailed:
			failed[tierFromDetail(e.Detail)]++
		case eventsModel.KindJobProtected:
			overview.JobsProtected++
		case eventsModel.KindRateLimited:
			overview.RateLimitHits++
		case eventsModel.KindBudgetExceeded:
			overview.BudgetExceededHits++
		case eventsModel.KindSecurityDetected:
			overview.SecurityDetections++
		case eventsModel.KindModelTrained:
			overview.ModelTrainings++
		}
	}

	tierSet := map[int]struct{}{}
	for t := range completed {
		tierSet[t] = struct{}{}
	}
	for t := range failed {
		tierSet[t] = struct{}{}
	}
	tiers := make([]int, 0, len(tierSet))
	for t := range tierSet {
		tiers = append(tiers, t)
	}
	sort.Ints(tiers)
	for _, tier := range tiers {
		c, f := completed[tier], failed[tier]
		total := c + f
		rate := 0.0
		if total > 0 {
			rate = float64(c) / float64(total)
		}
		overview.Tiers = append(overview.Tiers, model.TierStats{
			Tier: tier, Completed: c, Failed: f, CompletionRate: rate,
		})
	}

	return overview, nil
}

// tierFromDetail best-effort parses the tier number out of an event detail
// string like "tier 2" or "tier 2 permanently failed: ...". Returns 0 (an
// unused tier number) when no tier is found, grouping those events together
// rather than dropping them.
func tierFromDetail(detail string) int {
	m := tierNumberRe.FindStringSubmatch(detail)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
