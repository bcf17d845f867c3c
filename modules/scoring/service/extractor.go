// Package service maps an analyzed Job into the
// 11-variable preference feature space and applying a trained
// PreferenceModel to produce a score, decision, and explanation.
package service

import (
	"strings"

	jobmodel "github.com/andreypavlenko/jobscout/modules/jobs/model"
	prefmodel "github.com/andreypavlenko/jobscout/modules/preferences/model"
	"github.com/andreypavlenko/jobscout/modules/scoring/ports"
)

// ExtractFeatures maps a post-analysis Job (plus the caller-supplied home
// location) into the partial preference feature space.
// Variables with no usable signal on this job are simply omitted; feature
// engineering imputes them to the standardized mean.
func ExtractFeatures(job *jobmodel.Job, home ports.UserHome) map[prefmodel.Variable]float64 {
	values := make(map[prefmodel.Variable]float64)

	if job.SalaryLow != nil && job.SalaryHigh != nil {
		values[prefmodel.VarSalary] = (*job.SalaryLow + *job.SalaryHigh) / 2
	} else if job.SalaryLow != nil {
		values[prefmodel.VarSalary] = *job.SalaryLow
	} else if job.SalaryHigh != nil {
		values[prefmodel.VarSalary] = *job.SalaryHigh
	}

	if commute, ok := estimateCommuteMinutes(job, home); ok {
		values[prefmodel.VarCommuteMinutes] = commute
	}

	if hours, ok := estimateWorkHours(job); ok {
		values[prefmodel.VarWorkHoursPerWeek] = hours
	}

	if stress, ok := estimateStress(job); ok {
		values[prefmodel.VarAcceptableStress] = stress
	}

	if growth, ok := estimateCareerGrowth(job); ok {
		values[prefmodel.VarCareerGrowth] = growth
	}

	if wlb, ok := estimateWorkLifeBalance(job); ok {
		values[prefmodel.VarWorkLifeBalance] = wlb
	}

	if len(job.Benefits) > 0 {
		values[prefmodel.VarCompensationBenefits] = clamp100(float64(len(job.Benefits)) * 15)
	}

	if flex, ok := estimateLocationFlexibility(job); ok {
		values[prefmodel.VarLocationFlexibility] = flex
	}

	if security, ok := estimateJobSecurity(job); ok {
		values[prefmodel.VarJobSecurity] = security
	}

	// industry_fit and company_size_preference have no extractable signal
	// from the Job entity alone; they are left unset and imputed at
	// standardization time.

	return values
}

func estimateCommuteMinutes(job *jobmodel.Job, home ports.UserHome) (float64, bool) {
	if job.WorkArrangement != nil && *job.WorkArrangement == "remote" {
		return 0, true
	}
	if job.LocationCity == nil || home.City == "" {
		return 0, false
	}
	switch {
	case strings.EqualFold(*job.LocationCity, home.City):
		return 15, true
	case job.LocationProvince != nil && home.Province != "" && strings.EqualFold(*job.LocationProvince, home.Province):
		return 60, true
	case job.LocationCountry != nil && home.Country != "" && strings.EqualFold(*job.LocationCountry, home.Country):
		return 180, true
	default:
		return 300, true
	}
}

func estimateWorkHours(job *jobmodel.Job) (float64, bool) {
	for _, ir := range job.ImplicitRequirements {
		lower := strings.ToLower(ir.Requirement)
		if strings.Contains(lower, "overtime") || strings.Contains(lower, "fast-paced") || strings.Contains(lower, "on-call") {
			return 50, true
		}
	}
	if len(job.ImplicitRequirements) > 0 {
		return 40, true
	}
	return 0, false
}

func estimateStress(job *jobmodel.Job) (float64, bool) {
	if len(job.RedFlags) == 0 {
		return 0, false
	}
	var total float64
	for _, f := range job.RedFlags {
		switch f.Severity {
		case "high":
			total += 3
		case "medium":
			total += 2
		default:
			total += 1
		}
	}
	avg := total / float64(len(job.RedFlags))
	// Scale average severity (1-3) onto a 0-100 "how stressful" axis; the
	// model sign-flips this variable so lower stress scores higher.
	return clamp100((avg - 1) / 2 * 100), true
}

func estimateCareerGrowth(job *jobmodel.Job) (float64, bool) {
	if len(job.CoverLetterInsights) == 0 {
		return 0, false
	}
	return clamp100(float64(len(job.CoverLetterInsights)) * 20), true
}

func estimateWorkLifeBalance(job *jobmodel.Job) (float64, bool) {
	found := false
	penalty := 0.0
	for _, f := range job.RedFlags {
		lower := strings.ToLower(f.Flag)
		if strings.Contains(lower, "overtime") || strings.Contains(lower, "burnout") || strings.Contains(lower, "work-life") {
			found = true
			penalty += 30
		}
	}
	if !found {
		return 0, false
	}
	return clamp100(100 - penalty), true
}

func estimateLocationFlexibility(job *jobmodel.Job) (float64, bool) {
	if job.WorkArrangement == nil {
		return 0, false
	}
	switch *job.WorkArrangement {
	case "remote":
		return 100, true
	case "hybrid":
		return 60, true
	case "onsite":
		return 20, true
	default:
		return 0, false
	}
}

func estimateJobSecurity(job *jobmodel.Job) (float64, bool) {
	if len(job.AuthenticityFlags) == 0 {
		return 0, false
	}
	suspicious := 0
	for _, f := range job.AuthenticityFlags {
		if f.Suspicious {
			suspicious++
		}
	}
	ratio := float64(suspicious) / float64(len(job.AuthenticityFlags))
	return clamp100((1 - ratio) * 100), true
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
