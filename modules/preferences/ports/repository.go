package ports

import (
	"context"

	"github.com/andreypavlenko/jobscout/modules/preferences/model"
)

// PreferenceRepository is the persistence boundary for the user's
// scenario set (replaced wholesale on each save) and the trained model
// (replaced wholesale on each retrain).
type PreferenceRepository interface {
	// ReplaceScenarios atomically swaps a user's scenario set for a new
	// one. save_scenarios is always a full replace, never a
	// partial append.
	ReplaceScenarios(ctx context.Context, userID string, scenarios []model.Scenario) error

	// ListScenarios returns the user's current scenario set, oldest first.
	ListScenarios(ctx context.Context, userID string) ([]model.Scenario, error)

	// SaveModel persists a newly trained model, replacing any prior model
	// for this user.
	SaveModel(ctx context.Context, m *model.Model) error

	// GetModel returns the user's current trained model, or
	// model.ErrModelNotFound if none has been trained yet.
	GetModel(ctx context.Context, userID string) (*model.Model, error)
}
