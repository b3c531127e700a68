package planner

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

// Settings is the singleton goal entity. The baseline snapshot
// (CurrentWeight / CurrentBodyFat) is taken when the goal is saved and
// anchors the progress score at 50; redefining the goal resets it.
// The kcal fields are derived by ComputePlan and overwritten on every save.
type Settings struct {
	CurrentWeight      float64   `json:"currentWeight"`
	CurrentBodyFat     float64   `json:"currentBodyFat"`
	GoalWeight         float64   `json:"goalWeight"`
	GoalBodyFat        float64   `json:"goalBodyFat"`
	TargetDate         time.Time `json:"targetDate"`
	Gender             Gender    `json:"gender"`
	Age                int       `json:"age"`
	HeightCM           float64   `json:"heightCm"`
	GymSessionHours    float64   `json:"gymSessionHours"`
	GymSessionsPerWeek int       `json:"gymSessionsPerWeek"`

	// derived plan outputs, cached here
	MaintenanceKcal   int `json:"maintenanceKcal"`
	GymDayTargetKcal  int `json:"gymDayTargetKcal"`
	RestDayTargetKcal int `json:"restDayTargetKcal"`
	BMR               int `json:"bmr"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// DailyEntry is one logged day. Weight and BodyFat are measurements and
// stay nil on days without one - they are never defaulted to 0.
type DailyEntry struct {
	ID        int       `json:"id"`
	Date      time.Time `json:"date"`
	Calories  int       `json:"calories"`
	GymHours  float64   `json:"gymHours"`
	Weight    *float64  `json:"weight,omitempty"`
	BodyFat   *float64  `json:"bodyFat,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChartPoint is one simulated calendar day. Never persisted, fully derived.
// HasPrediction marks days whose calorie figure came from the trailing
// logged-history trend instead of the static plan.
type ChartPoint struct {
	Date             time.Time `json:"date"`
	PlannedWeight    float64   `json:"plannedWeight"`
	PlannedBodyFat   float64   `json:"plannedBodyFat"`
	PlannedScore     float64   `json:"plannedScore"`
	SimulatedWeight  float64   `json:"simulatedWeight"`
	SimulatedBodyFat float64   `json:"simulatedBodyFat"`
	SimulatedScore   float64   `json:"simulatedScore"`
	ActualWeight     *float64  `json:"actualWeight,omitempty"`
	ActualBodyFat    *float64  `json:"actualBodyFat,omitempty"`
	ActualScore      *float64  `json:"actualScore,omitempty"`
	HasPrediction    bool      `json:"hasPrediction"`
}

// Day truncates t to UTC midnight. All calendar arithmetic in this package
// happens on UTC midnights to avoid time zone ambiguity.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from one UTC
// midnight to another. Negative when to is before from.
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}
