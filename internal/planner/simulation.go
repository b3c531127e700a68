package planner

import (
	"math"
	"time"
)

const (
	// DefaultHorizonDays is used when the caller does not ask for a
	// specific simulation length.
	DefaultHorizonDays = 90

	// fatLossFraction of lost body mass is attributed to fat mass when
	// the simulated weight goes down. On weight gain the body-fat
	// percentage is intentionally left untouched - the model only tracks
	// fat-loss composition.
	fatLossFraction = 0.8

	// predictionWindowDays of consecutive logged entries are needed
	// before the simulator extrapolates intake from recent history.
	predictionWindowDays = 7
)

// BuildSimulationData runs the day-by-day forward simulation and returns
// exactly horizonDays chart points, the first dated today (UTC midnight),
// consecutive calendar days after that. Three tracks are computed per day:
//
//   - planned: time-linear interpolation baseline -> goal over the goal's
//     own horizon, ignoring all logged data
//   - actual: raw logged measurements, sparse
//   - simulated: a running body state seeded from the baseline, advanced by
//     the day's calorie balance and reset by any real measurement (ground
//     truth wins)
//
// The whole function is a pure fold over settings and entries; identical
// inputs (including today) produce identical output.
func BuildSimulationData(s Settings, entries []DailyEntry, horizonDays int, today time.Time) []ChartPoint {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	today = Day(today)

	entryByDay := make(map[time.Time]DailyEntry, len(entries))
	for _, e := range entries {
		entryByDay[Day(e.Date)] = e
	}

	totalDays := DaysBetween(today, s.TargetDate)
	trendDelta, hasTrend := recentCalorieTrend(s, entryByDay)

	simWeight := s.CurrentWeight
	simBodyFat := s.CurrentBodyFat

	// most recent day of the horizon that carried a weight measurement
	lastMeasuredIdx := -1
	var scoreAtLastMeasured, plannedAtLastMeasured float64

	points := make([]ChartPoint, 0, horizonDays)
	for i := 0; i < horizonDays; i++ {
		day := today.AddDate(0, 0, i)
		p := ChartPoint{Date: day}

		// planned track
		if totalDays <= 0 {
			p.PlannedWeight = s.CurrentWeight
			p.PlannedBodyFat = s.CurrentBodyFat
			p.PlannedScore = 50
		} else {
			frac := math.Min(1, float64(i)/float64(totalDays))
			p.PlannedWeight = s.CurrentWeight + (s.GoalWeight-s.CurrentWeight)*frac
			p.PlannedBodyFat = s.CurrentBodyFat + (s.GoalBodyFat-s.CurrentBodyFat)*frac
			p.PlannedScore = 50 + math.Min(50, 50*float64(i)/float64(totalDays))
		}

		entry, hasEntry := entryByDay[day]

		// actual track + ground-truth reset of the running state
		measured := false
		if hasEntry {
			if entry.Weight != nil {
				simWeight = *entry.Weight
				w := *entry.Weight
				p.ActualWeight = &w
				measured = true
			}
			if entry.BodyFat != nil {
				simBodyFat = *entry.BodyFat
				bf := *entry.BodyFat
				p.ActualBodyFat = &bf
			}
			if measured {
				// body fat falls back to the running value when
				// the entry carries only a scale weight
				actualScore := CalculateScore(
					simWeight, simBodyFat,
					s.GoalWeight, s.GoalBodyFat,
					s.CurrentWeight, s.CurrentBodyFat,
				)
				p.ActualScore = &actualScore
			}
		}

		// the calorie figure driving today's projection step, by priority:
		// logged value, recent-history trend (future days only), plan target
		var usedCalories float64
		switch {
		case hasEntry:
			usedCalories = float64(entry.Calories)
		case i > 0 && hasTrend:
			usedCalories = float64(s.MaintenanceKcal) + trendDelta
			p.HasPrediction = true
		case isGymDay(i, s.GymSessionsPerWeek):
			usedCalories = float64(s.GymDayTargetKcal)
		default:
			usedCalories = float64(s.RestDayTargetKcal)
		}

		if measured {
			lastMeasuredIdx = i
		}

		p.SimulatedWeight = simWeight
		p.SimulatedBodyFat = simBodyFat

		rawScore := CalculateScore(
			simWeight, simBodyFat,
			s.GoalWeight, s.GoalBodyFat,
			s.CurrentWeight, s.CurrentBodyFat,
		)
		switch {
		case measured:
			p.SimulatedScore = rawScore
			scoreAtLastMeasured = rawScore
			plannedAtLastMeasured = p.PlannedScore
		case lastMeasuredIdx >= 0 && i > lastMeasuredIdx:
			// carry the measured deviation forward, but bleed it off
			// linearly over the remaining days so the projection
			// converges back toward the plan by the goal date
			remaining := totalDays - lastMeasuredIdx
			if remaining < 1 {
				remaining = 1
			}
			daysSince := i - lastMeasuredIdx
			adjustment := (scoreAtLastMeasured - plannedAtLastMeasured) /
				float64(remaining) * float64(daysSince)
			p.SimulatedScore = clampScore(rawScore - adjustment)
		default:
			// no measurement yet (or an unmeasured day before the last
			// measured one): the projection must not diverge from the plan
			p.SimulatedScore = p.PlannedScore
		}

		// advance the running state into the next day
		if s.MaintenanceKcal > 0 {
			deltaKg := (usedCalories - float64(s.MaintenanceKcal)) / KcalPerKg
			newWeight := simWeight + deltaKg
			if deltaKg < 0 && newWeight > 0 {
				fatMass := simWeight * simBodyFat / 100
				newFatMass := fatMass + fatLossFraction*deltaKg
				if newFatMass < 0 {
					newFatMass = 0
				}
				simBodyFat = newFatMass / newWeight * 100
			}
			simWeight = newWeight
		}

		points = append(points, p)
	}

	return points
}

// recentCalorieTrend averages the daily calorie delta vs maintenance over
// the trailing window of consecutive logged days ending at the latest
// logged date. Returns ok=false when the maintenance baseline is missing,
// or the trailing window is shorter than predictionWindowDays or has gaps.
func recentCalorieTrend(s Settings, entryByDay map[time.Time]DailyEntry) (avgDelta float64, ok bool) {
	if s.MaintenanceKcal <= 0 || len(entryByDay) == 0 {
		return 0, false
	}

	var latest time.Time
	for day := range entryByDay {
		if day.After(latest) {
			latest = day
		}
	}

	var deltaSum float64
	for d := 0; d < predictionWindowDays; d++ {
		entry, exists := entryByDay[latest.AddDate(0, 0, -d)]
		if !exists {
			return 0, false
		}
		deltaSum += float64(entry.Calories - s.MaintenanceKcal)
	}

	return deltaSum / predictionWindowDays, true
}

// isGymDay spreads the weekly sessions over the calendar by flagging every
// round(7/sessionsPerWeek)-th day, starting with day 0. The spacing is
// uneven for session counts that do not divide 7 - a coarse approximation,
// kept as-is so simulated trajectories stay stable.
func isGymDay(dayIndex, sessionsPerWeek int) bool {
	if sessionsPerWeek <= 0 {
		return false
	}
	interval := int(math.Round(7 / float64(sessionsPerWeek)))
	if interval < 1 {
		interval = 1
	}
	return dayIndex%interval == 0
}
