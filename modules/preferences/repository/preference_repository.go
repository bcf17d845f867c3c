package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/andreypavlenko/jobscout/modules/preferences/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PreferenceRepository implements ports.PreferenceRepository. Scenario
// values and model parameters are stored as portable JSONB rather than a
// pickled object graph, so any reader can reconstruct them.
type PreferenceRepository struct {
	pool *pgxpool.Pool
}

// NewPreferenceRepository creates a new preference repository.
func NewPreferenceRepository(pool *pgxpool.Pool) *PreferenceRepository {
	return &PreferenceRepository{pool: pool}
}

// ReplaceScenarios atomically swaps a user's scenario set.
func (r *PreferenceRepository) ReplaceScenarios(ctx context.Context, userID string, scenarios []model.Scenario) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM preference_scenarios WHERE user_id = $1`, userID); err != nil {
		return err
	}

	now := time.Now().UTC()
	for i := range scenarios {
		if scenarios[i].ID == "" {
			scenarios[i].ID = uuid.New().String()
		}
		scenarios[i].CreatedAt = now

		valuesJSON, err := json.Marshal(scenarios[i].Values)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO preference_scenarios (id, user_id, values, acceptance_score, position, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, scenarios[i].ID, userID, valuesJSON, scenarios[i].AcceptanceScore, i, now); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ListScenarios returns the user's current scenario set, oldest first.
func (r *PreferenceRepository) ListScenarios(ctx context.Context, userID string) ([]model.Scenario, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, values, acceptance_score, created_at
		FROM preference_scenarios
		WHERE user_id = $1
		ORDER BY position ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Scenario
	for rows.Next() {
		var s model.Scenario
		var valuesJSON []byte
		if err := rows.Scan(&s.ID, &s.UserID, &valuesJSON, &s.AcceptanceScore, &s.CreatedAt); err != nil {
			return nil, err
		}
		rawValues := make(map[string]float64)
		if err := json.Unmarshal(valuesJSON, &rawValues); err != nil {
			return nil, err
		}
		s.Values = make(map[model.Variable]float64, len(rawValues))
		for k, v := range rawValues {
			s.Values[model.Variable(k)] = v
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// persistedModel is the JSONB-serializable shape of model.Model's
// parameters, kept separate from the domain type so JSON field names stay
// stable independent of Go identifier naming.
type persistedModel struct {
	Coefficients map[string]float64 `json:"coefficients,omitempty"`
	Trees        []model.Tree       `json:"trees,omitempty"`
	Intercept    float64            `json:"intercept"`
	Importances  map[string]float64 `json:"importances"`
	StatsMean    map[string]float64 `json:"stats_mean"`
	StatsStdDev  map[string]float64 `json:"stats_stddev"`
}

// SaveModel persists a newly trained model, replacing any prior one.
func (r *PreferenceRepository) SaveModel(ctx context.Context, m *model.Model) error {
	pm := persistedModel{
		Coefficients: toStringMap(m.Coefficients),
		Trees:        m.Trees,
		Intercept:    m.Intercept,
		Importances:  toStringMap(m.Importances),
		StatsMean:    toStringMap(m.Stats.Mean),
		StatsStdDev:  toStringMap(m.Stats.StdDev),
	}
	paramsJSON, err := json.Marshal(pm)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO preference_models (id, user_id, algorithm, parameters, formula_text, scenario_count, trained_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			id = EXCLUDED.id,
			algorithm = EXCLUDED.algorithm,
			parameters = EXCLUDED.parameters,
			formula_text = EXCLUDED.formula_text,
			scenario_count = EXCLUDED.scenario_count,
			trained_at = EXCLUDED.trained_at
	`, m.ID, m.UserID, m.Algorithm, paramsJSON, m.FormulaText, m.ScenarioCount, m.TrainedAt)
	return err
}

// GetModel returns the user's current trained model.
func (r *PreferenceRepository) GetModel(ctx context.Context, userID string) (*model.Model, error) {
	var m model.Model
	var paramsJSON []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, algorithm, parameters, formula_text, scenario_count, trained_at
		FROM preference_models WHERE user_id = $1
	`, userID).Scan(&m.ID, &m.UserID, &m.Algorithm, &paramsJSON, &m.FormulaText, &m.ScenarioCount, &m.TrainedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, model.ErrModelNotFound
		}
		return nil, err
	}

	var pm persistedModel
	if err := json.Unmarshal(paramsJSON, &pm); err != nil {
		return nil, err
	}
	m.Coefficients = fromStringMap(pm.Coefficients)
	m.Trees = pm.Trees
	m.Intercept = pm.Intercept
	m.Importances = fromStringMap(pm.Importances)
	m.Stats = model.FeatureStats{
		Mean:   fromStringMap(pm.StatsMean),
		StdDev: fromStringMap(pm.StatsStdDev),
	}
	return &m, nil
}

func toStringMap(in map[model.Variable]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[string(k)] = v
	}
	return out
}

func fromStringMap(in map[string]float64) map[model.Variable]float64 {
	out := make(map[model.Variable]float64, len(in))
	for k, v := range in {
		out[model.Variable(k)] = v
	}
	return out
}
