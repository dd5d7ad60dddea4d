package prediction_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunarlog/cycle-engine/cycle"
	"github.com/lunarlog/cycle-engine/prediction"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func date(m time.Month, d int) cycle.Day { return cycle.NewDay(2024, m, d) }

// history builds closed 5-day cycles starting at first, spaced by lengths.
func history(first cycle.Day, lengths ...int) []cycle.Cycle {
	cycles := []cycle.Cycle{{ID: 1, StartDate: first, EndDate: first.AddDays(4).Ptr()}}
	start := first
	for i, l := range lengths {
		start = start.AddDays(l)
		cycles = append(cycles, cycle.Cycle{ID: int64(i + 2), StartDate: start, EndDate: start.AddDays(4).Ptr()})
	}
	return cycles
}

// =============================================================================
// FORECAST
// =============================================================================

func TestNextPeriod(t *testing.T) {
	last := cycle.Cycle{StartDate: date(time.January, 1)}
	assert.Equal(t, date(time.January, 31), prediction.NextPeriod(last, 30))
}

func TestOvulationAndFertileWindow(t *testing.T) {
	next := date(time.January, 29)

	ov := prediction.Ovulation(next)
	assert.Equal(t, date(time.January, 15), ov)

	w := prediction.FertileWindow(next)
	assert.Equal(t, date(time.January, 10), w.Start)
	assert.Equal(t, date(time.January, 16), w.End)
	assert.True(t, w.Contains(date(time.January, 10)))
	assert.True(t, w.Contains(date(time.January, 16)))
	assert.False(t, w.Contains(date(time.January, 17)))
}

func TestPredict_NoData(t *testing.T) {
	_, ok := prediction.Predict(nil)
	assert.False(t, ok)
}

func TestPredict_SingleCycleUsesDefaults(t *testing.T) {
	f, ok := prediction.Predict([]cycle.Cycle{{ID: 1, StartDate: date(time.January, 1)}})
	require.True(t, ok)

	assert.Equal(t, prediction.DefaultCycleLength, f.AverageCycleLength)
	assert.Equal(t, prediction.DefaultPeriodLength, f.AveragePeriodLength)
	assert.Equal(t, date(time.January, 29), f.NextPeriod)
}

func TestPredict_AveragesTruncate(t *testing.T) {
	// GIVEN: Cycles on Jan 1, Feb 1 (31 days) and Feb 29 (28 days)
	// WHEN: Predicting
	// THEN: Average is int(29.5) = 29 and the next period is Feb 29 + 29

	f, ok := prediction.Predict(history(date(time.January, 1), 31, 28))
	require.True(t, ok)

	assert.Equal(t, 29, f.AverageCycleLength)
	assert.Equal(t, 5, f.AveragePeriodLength)
	assert.Equal(t, date(time.March, 29), f.NextPeriod)
	assert.Equal(t, date(time.March, 15), f.Ovulation)
	assert.Equal(t, prediction.Window{Start: date(time.March, 10), End: date(time.March, 16)}, f.Fertile)
}

func TestPredict_InputOrderDoesNotMatter(t *testing.T) {
	cycles := history(date(time.January, 1), 31, 28)
	reversed := []cycle.Cycle{cycles[2], cycles[0], cycles[1]}

	a, _ := prediction.Predict(cycles)
	b, _ := prediction.Predict(reversed)
	assert.Equal(t, a, b)
}

// =============================================================================
// LENGTHS
// =============================================================================

func TestValidCycleLengths_FiltersOutliers(t *testing.T) {
	// 10 and 60 day gaps are outside [15, 50]
	cycles := history(date(time.January, 1), 30, 10, 60, 28)

	lengths := prediction.ValidCycleLengths(cycles)
	assert.ElementsMatch(t, []int{30, 28}, lengths)
	assert.Equal(t, 29, prediction.AverageCycleLength(cycles))
}

func TestPeriodLengths(t *testing.T) {
	cycles := []cycle.Cycle{
		{StartDate: date(time.January, 1), EndDate: date(time.January, 5).Ptr()},  // 5
		{StartDate: date(time.February, 1), EndDate: date(time.February, 3).Ptr()}, // 3
		{StartDate: date(time.March, 1), EndDate: date(time.March, 1).Ptr()},       // 1, too short
		{StartDate: date(time.April, 1), EndDate: date(time.April, 20).Ptr()},      // 20, too long
		{StartDate: date(time.May, 1)},                                             // ongoing
	}

	assert.Equal(t, []int{5, 3}, prediction.PeriodLengths(cycles))
	assert.Equal(t, 4, prediction.AveragePeriodLength(cycles))
}

// =============================================================================
// STATS
// =============================================================================

func TestComputeStats(t *testing.T) {
	cycles := history(date(time.January, 1), 31, 28)
	cycles = append(cycles, cycle.Cycle{ID: 9, StartDate: date(time.March, 28)})

	s := prediction.ComputeStats(cycles)

	assert.Equal(t, 4, s.CycleCount)
	assert.Equal(t, 3, s.CompletedCycles)
	assert.ElementsMatch(t, []int{31, 28, 28}, s.CycleLengths)
	assert.Equal(t, "29.0", s.AverageCycleLength.StringFixed(1))
	assert.Equal(t, "5.0", s.AveragePeriodLength.StringFixed(1))
	assert.Equal(t, 28, s.ShortestCycle)
	assert.Equal(t, 31, s.LongestCycle)
	assert.InDelta(t, 1.732, s.StandardDeviation, 0.001)
	assert.False(t, s.Irregular)
}

func TestComputeStats_Empty(t *testing.T) {
	s := prediction.ComputeStats(nil)

	assert.Zero(t, s.CycleCount)
	assert.True(t, s.AverageCycleLength.IsZero())
	assert.Zero(t, s.StandardDeviation)
}

func TestIsIrregular(t *testing.T) {
	assert.False(t, prediction.IsIrregular(history(date(time.January, 1), 28, 29, 28)))
	assert.True(t, prediction.IsIrregular(history(date(time.January, 1), 20, 40, 20, 40)))
}
