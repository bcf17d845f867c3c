package model

// ScenarioRequest is the wire shape for one scenario in a save_scenarios
// call: a partial mapping over the 11 recognized variables plus an
// acceptance score.
type ScenarioRequest struct {
	Values          map[Variable]float64 `json:"values" binding:"required"`
	AcceptanceScore float64              `json:"acceptance_score"`
}

// SaveScenariosRequest is the body of PUT /preferences/scenarios.
type SaveScenariosRequest struct {
	Scenarios []ScenarioRequest `json:"scenarios" binding:"required,min=1"`
}

// ModelDTO is the wire shape returned by POST /preferences/train.
type ModelDTO struct {
	Algorithm     Algorithm          `json:"algorithm"`
	Importances   map[Variable]float64 `json:"importances"`
	FormulaText   string             `json:"formula"`
	ScenarioCount int                `json:"scenario_count"`
	TrainedAt     string             `json:"trained_at"`
}

// ToDTO converts a trained Model to its wire representation.
func (m *Model) ToDTO() *ModelDTO {
	return &ModelDTO{
		Algorithm:     m.Algorithm,
		Importances:   m.Importances,
		FormulaText:   m.FormulaText,
		ScenarioCount: m.ScenarioCount,
		TrainedAt:     m.TrainedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
