/*
Package prediction derives cycle statistics and forecasts from stored cycles.

PURPOSE:
  Pure functions over []cycle.Cycle: no storage, no clock. Callers pass
  "today" explicitly so results are deterministic and testable.

DEFINITIONS:
  Cycle length:  days between two consecutive start dates. Only lengths in
                 [MinCycleLength, MaxCycleLength] count toward averages.
  Period length: end - start + 1 for closed cycles, valid in
                 [MinPeriodLength, MaxPeriodLength].
  Ovulation:     next period start - LutealPhaseLength.
  Fertile window: [ovulation - FertileWindowBefore, ovulation + FertileWindowAfter].

DEFAULTS (used when there is not enough history):
  DefaultCycleLength  = 28
  DefaultPeriodLength = 5

SEE ALSO:
  - stats.go: Averages, standard deviation, decimal reporting
  - anomaly.go: Irregularity and trend detection
  - summary.go: Home-screen summary
*/
package prediction

import (
	"github.com/lunarlog/cycle-engine/cycle"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	DefaultCycleLength  = 28
	DefaultPeriodLength = 5
	LutealPhaseLength   = 14

	// Fertile window relative to ovulation.
	FertileWindowBefore = 5
	FertileWindowAfter  = 1

	MinCycleLength  = 15
	MaxCycleLength  = 50
	MinPeriodLength = 2
	MaxPeriodLength = 10

	// Standard deviation (days) above which cycles count as irregular.
	IrregularThreshold = 5.0
)

// =============================================================================
// FORECASTS
// =============================================================================

// NextPeriod predicts the next period start from the latest cycle.
func NextPeriod(last cycle.Cycle, averageLength int) cycle.Day {
	return last.StartDate.AddDays(averageLength)
}

// Ovulation predicts the ovulation day preceding nextPeriod.
func Ovulation(nextPeriod cycle.Day) cycle.Day {
	return nextPeriod.AddDays(-LutealPhaseLength)
}

// Window is an inclusive day range.
type Window struct {
	Start cycle.Day
	End   cycle.Day
}

// Contains reports whether day falls inside the window.
func (w Window) Contains(day cycle.Day) bool {
	return day >= w.Start && day <= w.End
}

// FertileWindowAround returns the fertile window for a known ovulation day.
func FertileWindowAround(ovulation cycle.Day) Window {
	return Window{
		Start: ovulation.AddDays(-FertileWindowBefore),
		End:   ovulation.AddDays(FertileWindowAfter),
	}
}

// FertileWindow returns the fertile window preceding nextPeriod.
func FertileWindow(nextPeriod cycle.Day) Window {
	return FertileWindowAround(Ovulation(nextPeriod))
}

// Forecast bundles the predictions for the cycle after the latest one.
type Forecast struct {
	AverageCycleLength  int
	AveragePeriodLength int
	NextPeriod          cycle.Day
	Ovulation           cycle.Day
	Fertile             Window
}

// Predict computes a Forecast. ok is false when there are no cycles.
func Predict(cycles []cycle.Cycle) (f Forecast, ok bool) {
	last := cycle.Latest(cycles)
	if last == nil {
		return Forecast{}, false
	}

	f.AverageCycleLength = AverageCycleLength(cycles)
	f.AveragePeriodLength = AveragePeriodLength(cycles)
	f.NextPeriod = NextPeriod(*last, f.AverageCycleLength)
	f.Ovulation = Ovulation(f.NextPeriod)
	f.Fertile = FertileWindowAround(f.Ovulation)
	return f, true
}
