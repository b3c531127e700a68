package planner_test

import (
	"testing"

	"github.com/taigahorikawa-droid/body-track/internal/planner"

	"github.com/stretchr/testify/assert"
)

func TestCalculateScore(t *testing.T) {
	type args struct {
		weight, bodyFat               float64
		goalWeight, goalBodyFat       float64
		initialWeight, initialBodyFat float64
	}
	testCases := []struct {
		name     string
		args     args
		expected float64
	}{
		{
			name:     "at baseline",
			args:     args{80, 25, 70, 18, 80, 25},
			expected: 50,
		},
		{
			name:     "at goal",
			args:     args{70, 18, 70, 18, 80, 25},
			expected: 100,
		},
		{
			name:     "halfway on both axes",
			args:     args{75, 21.5, 70, 18, 80, 25},
			expected: 75,
		},
		{
			name:     "regressed past baseline clamps to zero",
			args:     args{95, 35, 70, 18, 80, 25},
			expected: 0,
		},
		{
			name:     "overshot goal clamps to hundred",
			args:     args{60, 10, 70, 18, 80, 25},
			expected: 100,
		},
		{
			name:     "weight goal equals baseline pins weight component",
			args:     args{85, 25, 80, 18, 80, 25},
			expected: 50,
		},
		{
			name:     "both goals equal baseline",
			args:     args{80, 25, 80, 25, 80, 25},
			expected: 50,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := planner.CalculateScore(
				tc.args.weight, tc.args.bodyFat,
				tc.args.goalWeight, tc.args.goalBodyFat,
				tc.args.initialWeight, tc.args.initialBodyFat,
			)
			assert.InDelta(t, tc.expected, got, 0.0001)
		})
	}
}

func TestCalculateScore_BodyFatWeighting(t *testing.T) {
	// body fat progress counts 1.5x against weight progress:
	// full weight progress alone yields (100 + 1.5*50) / 2.5 = 70,
	// full body fat progress alone yields (50 + 1.5*100) / 2.5 = 80
	weightOnly := planner.CalculateScore(70, 25, 70, 18, 80, 25)
	fatOnly := planner.CalculateScore(80, 18, 70, 18, 80, 25)
	assert.InDelta(t, 70, weightOnly, 0.0001)
	assert.InDelta(t, 80, fatOnly, 0.0001)
	assert.Greater(t, fatOnly, weightOnly)
}

func TestCalculateProgressRate(t *testing.T) {
	score := planner.CalculateScore(74, 20, 70, 18, 80, 25)
	rate := planner.CalculateProgressRate(74, 20, 70, 18, 80, 25)
	assert.Equal(t, score, rate)
}
