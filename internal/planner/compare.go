package planner

import (
	"math"
	"time"
)

// onScheduleTolerance is how many score points the actual progress may
// trail the planned progress before the user counts as behind schedule.
const onScheduleTolerance = 2.5

type PlanComparison struct {
	ActualProgress  float64 `json:"actualProgress"`
	PlannedProgress float64 `json:"plannedProgress"`
	IsOnSchedule    bool    `json:"isOnSchedule"`
	DaysBehind      int     `json:"daysBehind,omitempty"`
}

// CompareWithPlan puts the latest measured state against where the plan
// says the user should be by now. Planned progress is purely
// time-elapsed-based: 50 at goal creation, 100 at the target date. The
// score gap is converted to a day count via the goal's full horizon.
func CompareWithPlan(s Settings, entries []DailyEntry, today time.Time) PlanComparison {
	today = Day(today)
	goalStart := Day(s.UpdatedAt)

	totalDays := DaysBetween(goalStart, s.TargetDate)
	if totalDays < 1 {
		totalDays = 1
	}
	elapsed := DaysBetween(goalStart, today)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > totalDays {
		elapsed = totalDays
	}
	planned := 50 + 50*float64(elapsed)/float64(totalDays)

	actual := latestMeasuredScore(s, entries)

	comparison := PlanComparison{
		ActualProgress:  actual,
		PlannedProgress: planned,
		IsOnSchedule:    actual >= planned-onScheduleTolerance,
	}

	// a gap inside the tolerance still counts as on schedule, so only
	// report days behind once the tolerance is actually blown
	if !comparison.IsOnSchedule {
		gap := planned - actual
		comparison.DaysBehind = int(math.Ceil(gap / 50 * float64(totalDays)))
	}

	return comparison
}

// latestMeasuredScore scores the most recent entry carrying a weight
// measurement. A missing body-fat measurement falls back to the most
// recent one logged before it, then to the baseline. With no measured
// entries at all the user sits at the baseline: score 50.
func latestMeasuredScore(s Settings, entries []DailyEntry) float64 {
	var latest *DailyEntry
	for i := range entries {
		e := &entries[i]
		if e.Weight == nil {
			continue
		}
		if latest == nil || Day(e.Date).After(Day(latest.Date)) {
			latest = e
		}
	}
	if latest == nil {
		return 50
	}

	bodyFat := s.CurrentBodyFat
	if latest.BodyFat != nil {
		bodyFat = *latest.BodyFat
	} else {
		var bodyFatDay time.Time
		for i := range entries {
			e := &entries[i]
			if e.BodyFat == nil || Day(e.Date).After(Day(latest.Date)) {
				continue
			}
			if Day(e.Date).After(bodyFatDay) || bodyFatDay.IsZero() {
				bodyFat = *e.BodyFat
				bodyFatDay = Day(e.Date)
			}
		}
	}

	return CalculateScore(
		*latest.Weight, bodyFat,
		s.GoalWeight, s.GoalBodyFat,
		s.CurrentWeight, s.CurrentBodyFat,
	)
}
