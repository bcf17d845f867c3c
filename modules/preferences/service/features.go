package service

import (
	"math"

	"github.com/andreypavlenko/jobscout/modules/preferences/model"
)

// computeStats computes per-feature mean/stddev across scenarios for each
// recognized variable, over only the scenarios that actually supplied a
// value.
// A variable nobody supplied gets mean 0, stddev 1 so it imputes to 0 and
// never divides by zero.
func computeStats(scenarios []model.Scenario) model.FeatureStats {
	stats := model.FeatureStats{
		Mean:   make(map[model.Variable]float64, len(model.Variables)),
		StdDev: make(map[model.Variable]float64, len(model.Variables)),
	}

	for _, v := range model.Variables {
		var sum float64
		var n int
		for _, s := range scenarios {
			if raw, ok := s.Values[v]; ok {
				sum += raw
				n++
			}
		}
		if n == 0 {
			stats.Mean[v] = 0
			stats.StdDev[v] = 1
			continue
		}
		mean := sum / float64(n)

		var variance float64
		for _, s := range scenarios {
			if raw, ok := s.Values[v]; ok {
				d := raw - mean
				variance += d * d
			}
		}
		variance /= float64(n)
		std := math.Sqrt(variance)
		if std < 1e-9 {
			std = 1
		}
		stats.Mean[v] = mean
		stats.StdDev[v] = std
	}
	return stats
}

// featureVector standardizes one scenario's (partial) values against the
// given stats, imputing missing variables to the standardized mean (0) and
// sign-flipping inverse variables so "higher standardized value is always
// better" holds uniformly. The returned "missing" mask is the same length
// as model.Variables and is used only during training/scoring internals —
// never exposed in user-facing explanations.
func featureVector(values map[model.Variable]float64, stats model.FeatureStats) (vec []float64, missing []bool) {
	vec = make([]float64, len(model.Variables))
	missing = make([]bool, len(model.Variables))

	for i, v := range model.Variables {
		raw, ok := values[v]
		if !ok {
			vec[i] = 0
			missing[i] = true
			continue
		}
		std := (raw - stats.Mean[v]) / stats.StdDev[v]
		if model.InverseVariables[v] {
			std = -std
		}
		vec[i] = std
	}
	return vec, missing
}

// buildDesignMatrix standardizes every scenario into a feature matrix X and
// target vector y, in model.Variables' fixed order.
func buildDesignMatrix(scenarios []model.Scenario, stats model.FeatureStats) (X [][]float64, y []float64) {
	X = make([][]float64, len(scenarios))
	y = make([]float64, len(scenarios))
	for i, s := range scenarios {
		vec, _ := featureVector(s.Values, stats)
		X[i] = vec
		y[i] = s.AcceptanceScore
	}
	return X, y
}

func hasVariance(y []float64) bool {
	if len(y) == 0 {
		return false
	}
	first := y[0]
	for _, v := range y[1:] {
		if v != first {
			return true
		}
	}
	return false
}
