// Package service trains a per-user preference
// regression from a handful of scenarios and predicting acceptance scores
// from a standardized feature vector.
package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/andreypavlenko/jobscout/internal/config"
	eventsmodel "github.com/andreypavlenko/jobscout/modules/events/model"
	eventsrepo "github.com/andreypavlenko/jobscout/modules/events/repository"
	"github.com/andreypavlenko/jobscout/modules/preferences/model"
	"github.com/andreypavlenko/jobscout/modules/preferences/ports"
	"github.com/google/uuid"
)

// RegressionService trains and persists PreferenceModels and saves the
// scenario sets they are trained from.
type RegressionService struct {
	repo   ports.PreferenceRepository
	events *eventsrepo.EventRepository
	cfg    config.PreferenceConfig
}

// NewRegressionService creates a new RegressionService. events may be nil
// when no event log is wired (tests).
func NewRegressionService(repo ports.PreferenceRepository, events *eventsrepo.EventRepository, cfg config.PreferenceConfig) *RegressionService {
	return &RegressionService{repo: repo, events: events, cfg: cfg}
}

// SaveScenarios validates and replaces a user's scenario set. Does not
// train; Train must be called separately.
func (s *RegressionService) SaveScenarios(ctx context.Context, userID string, scenarios []model.Scenario) error {
	if len(scenarios) == 0 {
		return model.ErrNoScenarios
	}
	if len(scenarios) > s.cfg.MaxScenarios {
		return model.ErrTooManyScenarios
	}
	for i := range scenarios {
		if scenarios[i].AcceptanceScore < 0 || scenarios[i].AcceptanceScore > 100 {
			return model.ErrInvalidAcceptanceScore
		}
		scenarios[i].UserID = userID
		if scenarios[i].ID == "" {
			scenarios[i].ID = uuid.New().String()
		}
	}
	return s.repo.ReplaceScenarios(ctx, userID, scenarios)
}

// Train fits a PreferenceModel from the user's currently saved scenarios
// and persists it, replacing any prior model.
func (s *RegressionService) Train(ctx context.Context, userID string) (*model.Model, error) {
	scenarios, err := s.repo.ListScenarios(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(scenarios) == 0 {
		return nil, model.ErrNoScenarios
	}
	if len(scenarios) > s.cfg.MaxScenarios {
		return nil, model.ErrTooManyScenarios
	}

	stats := computeStats(scenarios)
	X, y := buildDesignMatrix(scenarios, stats)
	if !hasVariance(y) {
		return nil, model.ErrDegenerateScenarios
	}

	m := &model.Model{
		ID:            uuid.New().String(),
		UserID:        userID,
		Stats:         stats,
		ScenarioCount: len(scenarios),
		TrainedAt:     time.Now().UTC(),
	}

	if len(scenarios) <= 2 {
		coef, intercept := fitRidge(X, y)
		m.Algorithm = model.AlgorithmRidge
		m.Intercept = intercept
		m.Coefficients = make(map[model.Variable]float64, len(coef))
		for i, v := range model.Variables {
			m.Coefficients[v] = coef[i]
		}
		m.Importances = ridgeImportances(m.Coefficients)
	} else {
		trees := fitForest(X, y, s.cfg.RandomSeed)
		m.Algorithm = model.AlgorithmForest
		m.Trees = trees
		// Forest predictions already incorporate the target's mean through
		// leaf values; intercept stays 0 and Predict calls predictForest
		// directly for this algorithm.
		m.Importances = permutationImportances(trees, X, y)
	}

	m.FormulaText = formatFormula(m.Importances)

	if err := s.repo.SaveModel(ctx, m); err != nil {
		return nil, err
	}
	if s.events != nil {
		_ = s.events.Record(ctx, eventsmodel.KindModelTrained, nil, fmt.Sprintf("user %s: %s over %d scenarios", userID, m.Algorithm, m.ScenarioCount))
	}
	return m, nil
}

// Predict maps a standardized feature vector (already imputed/sign-flipped
// via featureVector) to a raw acceptance-score prediction, per the model's
// fitted algorithm.
func Predict(m *model.Model, vec []float64) float64 {
	switch m.Algorithm {
	case model.AlgorithmForest:
		return predictForest(m.Trees, vec)
	default:
		var sum float64
		for i, v := range model.Variables {
			sum += m.Coefficients[v] * vec[i]
		}
		return sum + m.Intercept
	}
}

// StandardizeJobFeatures exposes featureVector for the job scorer, which
// standardizes a
// job against a trained model's stats.
func StandardizeJobFeatures(values map[model.Variable]float64, stats model.FeatureStats) []float64 {
	vec, _ := featureVector(values, stats)
	return vec
}

// ridgeImportances normalizes absolute standardized coefficients to sum to
// 1.0.
func ridgeImportances(coef map[model.Variable]float64) map[model.Variable]float64 {
	var total float64
	abs := make(map[model.Variable]float64, len(coef))
	for v, c := range coef {
		a := math.Abs(c)
		abs[v] = a
		total += a
	}
	out := make(map[model.Variable]float64, len(coef))
	if total == 0 {
		// No signal at all; spread importance evenly rather than divide by zero.
		even := 1.0 / float64(len(model.Variables))
		for _, v := range model.Variables {
			out[v] = even
		}
		return out
	}
	for v, a := range abs {
		out[v] = a / total
	}
	return out
}

// permutationImportances measures, for each feature, the increase in mean
// squared error when that feature's values are shuffled across scenarios.
// Shuffling is a fixed deterministic rotation rather than a random
// shuffle, so the same scenario set always yields the same importances.
func permutationImportances(trees []model.Tree, X [][]float64, y []float64) map[model.Variable]float64 {
	n := len(X)
	baseline := meanSquaredError(trees, X, y)

	raw := make(map[model.Variable]float64, len(model.Variables))
	var total float64
	for fi, v := range model.Variables {
		if n < 2 {
			raw[v] = 0
			continue
		}
		permuted := make([][]float64, n)
		for i := range X {
			permuted[i] = append([]float64(nil), X[i]...)
		}
		for i := 0; i < n; i++ {
			src := (i + 1) % n
			permuted[i][fi] = X[src][fi]
		}
		permutedMSE := meanSquaredError(trees, permuted, y)
		increase := permutedMSE - baseline
		if increase < 0 {
			increase = 0
		}
		raw[v] = increase
		total += increase
	}

	out := make(map[model.Variable]float64, len(model.Variables))
	if total == 0 {
		even := 1.0 / float64(len(model.Variables))
		for _, v := range model.Variables {
			out[v] = even
		}
		return out
	}
	for v, val := range raw {
		out[v] = val / total
	}
	return out
}

func meanSquaredError(trees []model.Tree, X [][]float64, y []float64) float64 {
	if len(X) == 0 {
		return 0
	}
	var sum float64
	for i, vec := range X {
		pred := predictForest(trees, vec)
		d := pred - y[i]
		sum += d * d
	}
	return sum / float64(len(X))
}

// formatFormula renders the top features by importance into a
// human-readable string, e.g.
// "acceptance = 42% x Salary + 31% x Career Growth + 12% x Commute + ...".
func formatFormula(importances map[model.Variable]float64) string {
	type entry struct {
		v model.Variable
		w float64
	}

	entries := make([]entry, 0, len(importances))
	for v, w := range importances {
		entries = append(entries, entry{v, w})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].w > entries[j].w })

	top := entries
	if len(top) > 5 {
		top = top[:5]
	}

	parts := make([]string, 0, len(top))
	for _, e := range top {
		parts = append(parts, fmt.Sprintf("%.0f%% x %s", e.w*100, displayName(e.v)))
	}
	return "acceptance = " + strings.Join(parts, " + ")
}
