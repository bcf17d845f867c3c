package model

import (
	"errors"
	"time"
)

// Variable is one of the 11 recognized preference variables. A scenario is
// a partial mapping from these variables to numeric values; missing
// variables are imputed during feature engineering.
type Variable string

const (
	VarSalary                Variable = "salary"
	VarCommuteMinutes        Variable = "commute_time_minutes"
	VarWorkHoursPerWeek      Variable = "work_hours_per_week"
	VarAcceptableStress      Variable = "acceptable_stress"
	VarCareerGrowth          Variable = "career_growth"
	VarWorkLifeBalance       Variable = "work_life_balance"
	VarCompensationBenefits  Variable = "compensation_benefits"
	VarLocationFlexibility   Variable = "location_flexibility"
	VarIndustryFit           Variable = "industry_fit"
	VarCompanySizePreference Variable = "company_size_preference"
	VarJobSecurity           Variable = "job_security"
)

// Variables lists all 11 recognized variables in a fixed, stable order.
// Every feature vector in this package is indexed according to this order,
// so retraining or scoring never silently reorders coefficients.
var Variables = []Variable{
	VarSalary,
	VarCommuteMinutes,
	VarWorkHoursPerWeek,
	VarAcceptableStress,
	VarCareerGrowth,
	VarWorkLifeBalance,
	VarCompensationBenefits,
	VarLocationFlexibility,
	VarIndustryFit,
	VarCompanySizePreference,
	VarJobSecurity,
}

// InverseVariables are the variables where a smaller raw value is better
// ("higher is better" does not hold natively); feature engineering
// sign-flips these after
// standardization so every standardized feature shares the same direction.
var InverseVariables = map[Variable]bool{
	VarCommuteMinutes:   true,
	VarAcceptableStress: true,
}

// Scenario is one user-supplied example mapping a partial set of preference
// variables to a numeric acceptance_score in [0,100].
type Scenario struct {
	ID              string
	UserID          string
	Values          map[Variable]float64
	AcceptanceScore float64
	CreatedAt       time.Time
}

// Algorithm tags the fitting strategy used to train a PreferenceModel.
type Algorithm string

const (
	AlgorithmRidge  Algorithm = "ridge_regression"
	AlgorithmForest Algorithm = "random_forest"
)

// FeatureStats carries the per-feature standardization statistics computed
// over a user's scenario set, needed again at scoring time so job features
// are standardized against the same distribution the model was trained on.
type FeatureStats struct {
	Mean   map[Variable]float64
	StdDev map[Variable]float64
}

// Model is the persisted, trained PreferenceModel.
type Model struct {
	ID            string
	UserID        string
	Algorithm     Algorithm
	Coefficients  map[Variable]float64 // ridge weights on standardized features; empty for the ensemble
	Trees         []Tree               // ensemble trees; empty for ridge
	Intercept     float64
	Importances   map[Variable]float64 // normalized, sums to 1.0
	Stats         FeatureStats
	FormulaText   string
	ScenarioCount int
	TrainedAt     time.Time
}

// Tree is one decision tree in the random-forest-style ensemble. Splits
// operate on the standardized feature vector indexed by Variables' fixed
// order.
type Tree struct {
	Feature   Variable
	Threshold float64
	Left      *Tree
	Right     *Tree
	Leaf      bool
	Value     float64
}

var (
	// ErrNoScenarios is returned when training is attempted with zero
	// scenarios supplied.
	ErrNoScenarios = errors.New("at least one scenario is required to train a preference model")

	// ErrTooManyScenarios is returned when more than MaxScenarios are
	// supplied.
	ErrTooManyScenarios = errors.New("too many scenarios supplied")

	// ErrDegenerateScenarios is returned when every scenario shares the
	// same acceptance_score, so there is no signal to regress on.
	ErrDegenerateScenarios = errors.New("scenarios have zero variance in acceptance_score")

	// ErrModelNotFound is returned when no trained model exists for a user.
	ErrModelNotFound = errors.New("no trained preference model exists for this user")

	// ErrInvalidAcceptanceScore is returned when a scenario's
	// acceptance_score falls outside [0,100].
	ErrInvalidAcceptanceScore = errors.New("acceptance_score must be within [0,100]")
)

// ErrorCode represents error codes.
type ErrorCode string

const (
	CodeNoScenarios            ErrorCode = "NO_SCENARIOS"
	CodeTooManyScenarios       ErrorCode = "TOO_MANY_SCENARIOS"
	CodeDegenerateScenarios    ErrorCode = "DEGENERATE_SCENARIOS"
	CodeModelNotFound          ErrorCode = "MODEL_NOT_FOUND"
	CodeInvalidAcceptanceScore ErrorCode = "INVALID_ACCEPTANCE_SCORE"
	CodeInternalError          ErrorCode = "INTERNAL_ERROR"
)

// GetErrorCode maps errors to error codes.
func GetErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrNoScenarios):
		return CodeNoScenarios
	case errors.Is(err, ErrTooManyScenarios):
		return CodeTooManyScenarios
	case errors.Is(err, ErrDegenerateScenarios):
		return CodeDegenerateScenarios
	case errors.Is(err, ErrModelNotFound):
		return CodeModelNotFound
	case errors.Is(err, ErrInvalidAcceptanceScore):
		return CodeInvalidAcceptanceScore
	default:
		return CodeInternalError
	}
}

// GetErrorMessage returns a user-friendly error message.
func GetErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoScenarios):
		return "At least one scenario is required to train a preference model"
	case errors.Is(err, ErrTooManyScenarios):
		return "Too many scenarios supplied"
	case errors.Is(err, ErrDegenerateScenarios):
		return "Scenarios have zero variance in acceptance score; training needs a spread of examples"
	case errors.Is(err, ErrModelNotFound):
		return "No trained preference model exists for this user"
	case errors.Is(err, ErrInvalidAcceptanceScore):
		return "acceptance_score must be within [0,100]"
	default:
		return "Internal server error"
	}
}
