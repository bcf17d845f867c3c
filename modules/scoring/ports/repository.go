package ports

import (
	"context"

	"github.com/andreypavlenko/jobscout/modules/scoring/model"
)

// ScoreRepository is the persistence boundary for cached job scores: one
// result per (user_id, job_id), reused as long as neither the
// PreferenceModel nor the Job analysis has changed.
type ScoreRepository interface {
	Get(ctx context.Context, userID, jobID string) (*model.Score, error)
	Upsert(ctx context.Context, score *model.Score) error
}

// UserHome is the lightweight home-location profile evaluate_job's caller
// supplies for the commute_time_minutes extractor. Full user-profile
// management is outside the core — the core only needs these
// three fields to estimate commute distance.
type UserHome struct {
	City     string
	Province string
	Country  string
}
