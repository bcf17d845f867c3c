package model

import "time"

// Kind enumerates the append-only pipeline events the scheduler and
// transfer module emit for observability and later audit.
type Kind string

const (
	KindTierCompleted   Kind = "tier_completed"
	KindTierFailed      Kind = "tier_failed"
	KindJobProtected    Kind = "job_protected"
	KindRateLimited     Kind = "rate_limited"
	KindBudgetExceeded  Kind = "budget_exceeded"
	KindSecurityDetected Kind = "security_detected"
	KindModelTrained    Kind = "model_trained"
)

// Event is a single append-only pipeline event.
type Event struct {
	ID        string
	Kind      Kind
	JobID     *string
	Detail    string
	CreatedAt time.Time
}
