package service

import (
	"context"
	"testing"

	"github.com/andreypavlenko/jobscout/internal/config"
	"github.com/andreypavlenko/jobscout/modules/preferences/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockPreferenceRepository implements ports.PreferenceRepository
type MockPreferenceRepository struct {
	ReplaceScenariosFunc func(ctx context.Context, userID string, scenarios []model.Scenario) error
	ListScenariosFunc    func(ctx context.Context, userID string) ([]model.Scenario, error)
	SaveModelFunc        func(ctx context.Context, m *model.Model) error
	GetModelFunc         func(ctx context.Context, userID string) (*model.Model, error)

	saved []model.Scenario
	model *model.Model
}

func (m *MockPreferenceRepository) ReplaceScenarios(ctx context.Context, userID string, scenarios []model.Scenario) error {
	if m.ReplaceScenariosFunc != nil {
		return m.ReplaceScenariosFunc(ctx, userID, scenarios)
	}
	m.saved = scenarios
	return nil
}

func (m *MockPreferenceRepository) ListScenarios(ctx context.Context, userID string) ([]model.Scenario, error) {
	if m.ListScenariosFunc != nil {
		return m.ListScenariosFunc(ctx, userID)
	}
	return m.saved, nil
}

func (m *MockPreferenceRepository) SaveModel(ctx context.Context, pm *model.Model) error {
	if m.SaveModelFunc != nil {
		return m.SaveModelFunc(ctx, pm)
	}
	m.model = pm
	return nil
}

func (m *MockPreferenceRepository) GetModel(ctx context.Context, userID string) (*model.Model, error) {
	if m.GetModelFunc != nil {
		return m.GetModelFunc(ctx, userID)
	}
	if m.model == nil {
		return nil, model.ErrModelNotFound
	}
	return m.model, nil
}

func cfg() config.PreferenceConfig {
	return config.PreferenceConfig{DefaultDecisionThreshold: 70, MaxScenarios: 5, RandomSeed: 42}
}

func TestRegressionService_SaveScenarios_Empty(t *testing.T) {
	repo := &MockPreferenceRepository{}
	svc := NewRegressionService(repo, nil, cfg())

	err := svc.SaveScenarios(context.Background(), "user-1", nil)
	assert.ErrorIs(t, err, model.ErrNoScenarios)
}

func TestRegressionService_SaveScenarios_TooMany(t *testing.T) {
	repo := &MockPreferenceRepository{}
	svc := NewRegressionService(repo, nil, cfg())

	scenarios := make([]model.Scenario, 6)
	for i := range scenarios {
		scenarios[i] = model.Scenario{AcceptanceScore: 50}
	}
	err := svc.SaveScenarios(context.Background(), "user-1", scenarios)
	assert.ErrorIs(t, err, model.ErrTooManyScenarios)
}

func TestRegressionService_Train_DegenerateScores(t *testing.T) {
	repo := &MockPreferenceRepository{
		saved: []model.Scenario{
			{ID: "s1", Values: map[model.Variable]float64{model.VarSalary: 100000}, AcceptanceScore: 80},
			{ID: "s2", Values: map[model.Variable]float64{model.VarSalary: 60000}, AcceptanceScore: 80},
		},
	}
	svc := NewRegressionService(repo, nil, cfg())

	_, err := svc.Train(context.Background(), "user-1")
	assert.ErrorIs(t, err, model.ErrDegenerateScenarios)
}

// TestRegressionService_Train_RidgeForTwoScenarios exercises the ridge path
// used when only one or two scenarios exist.
func TestRegressionService_Train_RidgeForTwoScenarios(t *testing.T) {
	repo := &MockPreferenceRepository{
		saved: []model.Scenario{
			{ID: "s1", Values: map[model.Variable]float64{model.VarSalary: 150000, model.VarCommuteMinutes: 10}, AcceptanceScore: 90},
			{ID: "s2", Values: map[model.Variable]float64{model.VarSalary: 60000, model.VarCommuteMinutes: 60}, AcceptanceScore: 20},
		},
	}
	svc := NewRegressionService(repo, nil, cfg())

	trained, err := svc.Train(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.AlgorithmRidge, trained.Algorithm)
	assert.InDelta(t, 1.0, sumValues(trained.Importances), 1e-6)
	assert.Contains(t, trained.FormulaText, "acceptance =")
}

// TestRegressionService_Train_ForestForThreeScenarios: a 3-scenario set
// varying along salary and commute trains the forest, and its importances
// sum to 1.
func TestRegressionService_Train_ForestForThreeScenarios(t *testing.T) {
	repo := &MockPreferenceRepository{
		saved: []model.Scenario{
			{ID: "s1", Values: map[model.Variable]float64{model.VarSalary: 150000, model.VarCommuteMinutes: 5}, AcceptanceScore: 90},
			{ID: "s2", Values: map[model.Variable]float64{model.VarSalary: 90000, model.VarCommuteMinutes: 30}, AcceptanceScore: 50},
			{ID: "s3", Values: map[model.Variable]float64{model.VarSalary: 50000, model.VarCommuteMinutes: 75}, AcceptanceScore: 20},
		},
	}
	svc := NewRegressionService(repo, nil, cfg())

	trained, err := svc.Train(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.AlgorithmForest, trained.Algorithm)
	assert.InDelta(t, 1.0, sumValues(trained.Importances), 1e-6)
}

// TestRegressionService_Train_Deterministic: training twice on the same
// scenarios yields identical
// importances given the fixed seed.
func TestRegressionService_Train_Deterministic(t *testing.T) {
	scenarios := []model.Scenario{
		{ID: "s1", Values: map[model.Variable]float64{model.VarSalary: 150000, model.VarCommuteMinutes: 5}, AcceptanceScore: 90},
		{ID: "s2", Values: map[model.Variable]float64{model.VarSalary: 90000, model.VarCommuteMinutes: 30}, AcceptanceScore: 50},
		{ID: "s3", Values: map[model.Variable]float64{model.VarSalary: 50000, model.VarCommuteMinutes: 75}, AcceptanceScore: 20},
	}

	repo1 := &MockPreferenceRepository{saved: append([]model.Scenario(nil), scenarios...)}
	repo2 := &MockPreferenceRepository{saved: append([]model.Scenario(nil), scenarios...)}
	svc1 := NewRegressionService(repo1, nil, cfg())
	svc2 := NewRegressionService(repo2, nil, cfg())

	m1, err := svc1.Train(context.Background(), "user-1")
	require.NoError(t, err)
	m2, err := svc2.Train(context.Background(), "user-1")
	require.NoError(t, err)

	for _, v := range model.Variables {
		assert.InDelta(t, m1.Importances[v], m2.Importances[v], 1e-9)
	}
}

func TestPredict_Ridge(t *testing.T) {
	m := &model.Model{
		Algorithm:    model.AlgorithmRidge,
		Coefficients: map[model.Variable]float64{model.VarSalary: 2.0},
		Intercept:    10,
	}
	vec := make([]float64, len(model.Variables))
	vec[variableIndex(model.VarSalary)] = 3
	got := Predict(m, vec)
	assert.InDelta(t, 16.0, got, 1e-9)
}

func sumValues(m map[model.Variable]float64) float64 {
	var total float64
	for _, v := range m {
		total += v
	}
	return total
}

func TestComputeStats_MissingVariableImputesToZeroMeanUnitVariance(t *testing.T) {
	scenarios := []model.Scenario{
		{Values: map[model.Variable]float64{model.VarSalary: 100}, AcceptanceScore: 50},
	}
	stats := computeStats(scenarios)
	assert.Equal(t, 0.0, stats.Mean[model.VarCareerGrowth])
	assert.Equal(t, 1.0, stats.StdDev[model.VarCareerGrowth])
}

func TestFeatureVector_InverseVariableSignFlipped(t *testing.T) {
	stats := model.FeatureStats{
		Mean:   map[model.Variable]float64{model.VarCommuteMinutes: 30},
		StdDev: map[model.Variable]float64{model.VarCommuteMinutes: 10},
	}
	vec, missing := featureVector(map[model.Variable]float64{model.VarCommuteMinutes: 40}, stats)
	idx := variableIndex(model.VarCommuteMinutes)
	// raw standardized value is +1; commute is inverse so it flips to -1
	assert.InDelta(t, -1.0, vec[idx], 1e-9)
	assert.False(t, missing[idx])
}
