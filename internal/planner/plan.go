package planner

import (
	"math"
	"time"
)

const (
	// KcalPerKg is the energy equivalent of body mass used throughout the
	// energy-balance model: ~7700 kcal correspond to 1 kg of adipose tissue.
	KcalPerKg = 7700.0

	// restDayActivityFactor approximates non-gym daily expenditure on top
	// of BMR. A single fixed multiplier, applied to every rest day.
	restDayActivityFactor = 1.3

	// gymSessionMET is the metabolic equivalent assumed for a gym session.
	gymSessionMET = 6.0

	// safetyFloorFactor caps how low a prescribed intake can go: targets
	// never drop below BMR * 1.1.
	safetyFloorFactor = 1.1
)

// Advisory warnings returned by ComputePlan. Thresholds are the contract,
// the wording is presentation.
const (
	WarnRapidWeightLoss = "planned weight loss is over 1 kg per week - consider moving the target date further out"
	WarnFastWeightLoss  = "planned weight loss is over 0.8 kg per week - that pace is hard to hold"
	WarnRapidWeightGain = "planned weight gain is over 0.5 kg per week - expect a good part of it to be fat"
	WarnFastWeightGain  = "planned weight gain is over 0.3 kg per week"
	WarnLargeDeficit    = "daily deficit is over 1000 kcal - this plan will be very hard to sustain"
	WarnModerateDeficit = "daily deficit is over 800 kcal"
	WarnLargeSurplus    = "daily surplus is over 600 kcal"
	WarnModerateSurplus = "daily surplus is over 400 kcal"
)

type PlanInput struct {
	CurrentWeight      float64
	GoalWeight         float64
	TargetDate         time.Time
	Gender             Gender
	Age                int
	HeightCM           float64
	GymSessionHours    float64
	GymSessionsPerWeek int

	// Today anchors the horizon; callers pass time.Now().UTC(),
	// tests inject a fixed date.
	Today time.Time
}

type PlanOutput struct {
	MaintenanceKcal   int      `json:"maintenanceKcal"`
	GymDayTargetKcal  int      `json:"gymDayTargetKcal"`
	RestDayTargetKcal int      `json:"restDayTargetKcal"`
	BMR               int      `json:"bmr"`
	Warnings          []string `json:"warnings"`
}

// ComputePlan derives the daily calorie targets for the given goal using a
// simple energy-balance model: the weight delta demanded by the target date
// is converted to a daily energy delta and applied on top of the estimated
// maintenance for each day type. Inputs are assumed pre-validated by the
// caller; the function is total over its documented domain.
func ComputePlan(in PlanInput) PlanOutput {
	horizonDays := DaysBetween(in.Today, in.TargetDate)
	if horizonDays < 1 {
		// target date in the past (or today): everything has to
		// happen in a single day
		horizonDays = 1
	}

	weightDeltaPerDay := (in.GoalWeight - in.CurrentWeight) / float64(horizonDays)
	energyDeltaPerDay := weightDeltaPerDay * KcalPerKg

	bmr := BasalMetabolicRate(in.Gender, in.CurrentWeight, in.HeightCM, in.Age)
	restMaintenance := bmr * restDayActivityFactor
	gymExpenditure := gymSessionMET * in.CurrentWeight * in.GymSessionHours
	gymMaintenance := restMaintenance + gymExpenditure

	floor := bmr * safetyFloorFactor
	restTarget := math.Max(restMaintenance+energyDeltaPerDay, floor)
	gymTarget := math.Max(gymMaintenance+energyDeltaPerDay, floor)

	return PlanOutput{
		MaintenanceKcal:   int(math.Round(restMaintenance)),
		GymDayTargetKcal:  int(math.Round(gymTarget)),
		RestDayTargetKcal: int(math.Round(restTarget)),
		BMR:               int(math.Round(bmr)),
		Warnings:          planWarnings(weightDeltaPerDay, energyDeltaPerDay),
	}
}

// BasalMetabolicRate estimates resting energy expenditure via the
// Mifflin-St Jeor formula.
func BasalMetabolicRate(gender Gender, weightKg, heightCm float64, ageYears int) float64 {
	bmr := 10*weightKg + 6.25*heightCm - 5*float64(ageYears)
	if gender == GenderMale {
		bmr += 5
	} else {
		bmr -= 161
	}
	return bmr
}

// planWarnings checks the weekly weight-change rate and the daily energy
// delta against the caution thresholds. At most one warning per axis, the
// strong variant checked first, all comparisons strict.
func planWarnings(weightDeltaPerDay, energyDeltaPerDay float64) []string {
	var warnings []string

	weeklyDelta := 7 * weightDeltaPerDay
	switch {
	case weeklyDelta < -1.0:
		warnings = append(warnings, WarnRapidWeightLoss)
	case weeklyDelta < -0.8:
		warnings = append(warnings, WarnFastWeightLoss)
	case weeklyDelta > 0.5:
		warnings = append(warnings, WarnRapidWeightGain)
	case weeklyDelta > 0.3:
		warnings = append(warnings, WarnFastWeightGain)
	}

	switch {
	case energyDeltaPerDay < -1000:
		warnings = append(warnings, WarnLargeDeficit)
	case energyDeltaPerDay < -800:
		warnings = append(warnings, WarnModerateDeficit)
	case energyDeltaPerDay > 600:
		warnings = append(warnings, WarnLargeSurplus)
	case energyDeltaPerDay > 400:
		warnings = append(warnings, WarnModerateSurplus)
	}

	return warnings
}
