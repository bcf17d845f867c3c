package service

import "github.com/andreypavlenko/jobscout/modules/preferences/model"

// displayNames renders each recognized variable the way the formula string
// and explanation output want it shown to a user.
var displayNames = map[model.Variable]string{
	model.VarSalary:               "Salary",
	model.VarCommuteMinutes:       "Commute",
	model.VarWorkHoursPerWeek:     "Work Hours",
	model.VarAcceptableStress:     "Stress Tolerance",
	model.VarCareerGrowth:         "Career Growth",
	model.VarWorkLifeBalance:      "Work-Life Balance",
	model.VarCompensationBenefits: "Compensation & Benefits",
	model.VarLocationFlexibility:  "Location Flexibility",
	model.VarIndustryFit:          "Industry Fit",
	model.VarCompanySizePreference: "Company Size Fit",
	model.VarJobSecurity:          "Job Security",
}

func displayName(v model.Variable) string {
	if n, ok := displayNames[v]; ok {
		return n
	}
	return string(v)
}
