package model

import "time"

// TierStats summarizes one LLM analysis tier's outcomes over a window.
type TierStats struct {
	Tier          int     `json:"tier"`
	Completed     int     `json:"completed"`
	Failed        int     `json:"failed"`
	CompletionRate float64 `json:"completion_rate"`
}

// PipelineOverview aggregates the append-only event log (modules/events)
// into the operational picture a dashboard or CLI would want: how the
// tiered LLM scheduler is performing, how much budget it has burned, and
// how often the security/dedupe layers have had to step in.
type PipelineOverview struct {
	Since              time.Time   `json:"since"`
	GeneratedAt        time.Time   `json:"generated_at"`
	Tiers              []TierStats `json:"tiers"`
	JobsProtected      int         `json:"jobs_protected"`
	RateLimitHits      int         `json:"rate_limit_hits"`
	BudgetExceededHits int         `json:"budget_exceeded_hits"`
	SecurityDetections int         `json:"security_detections"`
	ModelTrainings     int         `json:"model_trainings"`
}
