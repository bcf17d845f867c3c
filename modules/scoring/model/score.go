package model

import (
	"errors"
	"time"
)

// Decision is the scorer's recommendation for a job.
type Decision string

const (
	DecisionApply   Decision = "apply"
	DecisionDecline Decision = "decline"
)

// Contribution is one feature's signed contribution to a Score's
// explanation, ordered largest-magnitude first.
type Contribution struct {
	Variable    string  `json:"variable"`
	Contribution float64 `json:"contribution"`
}

// Score is the persisted result of evaluating one job against one user's
// trained PreferenceModel.
type Score struct {
	ID              string
	UserID          string
	JobID           string
	ModelTrainedAt  time.Time // cache-invalidation key: re-score if the model retrains
	JobUpdatedAt    time.Time // cache-invalidation key: re-score if the job's analysis changes
	Score           float64
	Decision        Decision
	Confidence      float64
	Explanation     []Contribution
	CreatedAt       time.Time
}

var (
	// ErrNotYetAnalyzed names the state of a job whose tier 1 analysis has
	// not completed. ScorerService.Evaluate does not return it; it reports
	// that case as a ScoreDTO with Reason "not_yet_analyzed" and a nil error.
	ErrNotYetAnalyzed = errors.New("job has not completed tier 1 analysis yet")

	// ErrScoreNotFound is returned when no cached score exists and none
	// could be computed.
	ErrScoreNotFound = errors.New("no score exists for this job")
)

// ErrorCode represents error codes.
type ErrorCode string

const (
	CodeNotYetAnalyzed ErrorCode = "NOT_YET_ANALYZED"
	CodeScoreNotFound  ErrorCode = "SCORE_NOT_FOUND"
	CodeInternalError  ErrorCode = "INTERNAL_ERROR"
)

// GetErrorCode maps errors to error codes.
func GetErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrNotYetAnalyzed):
		return CodeNotYetAnalyzed
	case errors.Is(err, ErrScoreNotFound):
		return CodeScoreNotFound
	default:
		return CodeInternalError
	}
}

// GetErrorMessage returns a user-friendly error message.
func GetErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotYetAnalyzed):
		return "not_yet_analyzed"
	case errors.Is(err, ErrScoreNotFound):
		return "No score exists for this job"
	default:
		return "Internal server error"
	}
}

// ScoreDTO is the wire shape returned by evaluate_job.
type ScoreDTO struct {
	Score        *float64       `json:"score"`
	Decision     *Decision      `json:"decision,omitempty"`
	Confidence   *float64       `json:"confidence,omitempty"`
	Explanation  []Contribution `json:"explanation,omitempty"`
	ModelVersion string         `json:"model_version,omitempty"`
	Reason       string         `json:"reason,omitempty"`
}
