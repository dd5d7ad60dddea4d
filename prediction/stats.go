package prediction

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/lunarlog/cycle-engine/cycle"
)

// =============================================================================
// CYCLE LENGTHS
// =============================================================================

// ValidCycleLengths returns the gaps between consecutive start dates, newest
// gap first, keeping only plausible lengths.
func ValidCycleLengths(cycles []cycle.Cycle) []int {
	if len(cycles) < 2 {
		return nil
	}

	sorted := sortedDesc(cycles)
	var lengths []int
	for i := 0; i < len(sorted)-1; i++ {
		length := cycle.DaysBetween(sorted[i+1].StartDate, sorted[i].StartDate)
		if length >= MinCycleLength && length <= MaxCycleLength {
			lengths = append(lengths, length)
		}
	}
	return lengths
}

// PeriodLengths returns end - start + 1 for closed cycles with a plausible
// period length.
func PeriodLengths(cycles []cycle.Cycle) []int {
	var lengths []int
	for _, c := range cycles {
		if c.EndDate == nil {
			continue
		}
		length := cycle.DaysBetween(c.StartDate, *c.EndDate) + 1
		if length >= MinPeriodLength && length <= MaxPeriodLength {
			lengths = append(lengths, length)
		}
	}
	return lengths
}

// AverageCycleLength is the truncated mean of valid cycle lengths, or
// DefaultCycleLength without enough history.
func AverageCycleLength(cycles []cycle.Cycle) int {
	lengths := ValidCycleLengths(cycles)
	if len(lengths) == 0 {
		return DefaultCycleLength
	}
	return int(mean(lengths).IntPart())
}

// AveragePeriodLength is the truncated mean of valid period lengths, or
// DefaultPeriodLength.
func AveragePeriodLength(cycles []cycle.Cycle) int {
	lengths := PeriodLengths(cycles)
	if len(lengths) == 0 {
		return DefaultPeriodLength
	}
	return int(mean(lengths).IntPart())
}

// StandardDeviation is the sample standard deviation of valid cycle
// lengths; 0 with fewer than two lengths.
func StandardDeviation(cycles []cycle.Cycle) float64 {
	return sampleStdDev(ValidCycleLengths(cycles))
}

// IsIrregular reports whether cycle lengths vary more than IrregularThreshold.
func IsIrregular(cycles []cycle.Cycle) bool {
	return StandardDeviation(cycles) > IrregularThreshold
}

// =============================================================================
// STATS - Exact figures for reporting
// =============================================================================

// Stats summarises history with exact decimal averages.
type Stats struct {
	CycleCount          int
	CompletedCycles     int
	CycleLengths        []int
	PeriodLengths       []int
	AverageCycleLength  decimal.Decimal // zero when no valid lengths
	AveragePeriodLength decimal.Decimal
	ShortestCycle       int
	LongestCycle        int
	StandardDeviation   float64
	Irregular           bool
}

// ComputeStats gathers Stats for cycles. Averages are rounded to one
// decimal place.
func ComputeStats(cycles []cycle.Cycle) Stats {
	s := Stats{
		CycleCount:    len(cycles),
		CycleLengths:  ValidCycleLengths(cycles),
		PeriodLengths: PeriodLengths(cycles),
	}
	for _, c := range cycles {
		if !c.IsOpen() {
			s.CompletedCycles++
		}
	}

	if len(s.CycleLengths) > 0 {
		s.AverageCycleLength = mean(s.CycleLengths).Round(1)
		s.ShortestCycle, s.LongestCycle = minMax(s.CycleLengths)
	}
	if len(s.PeriodLengths) > 0 {
		s.AveragePeriodLength = mean(s.PeriodLengths).Round(1)
	}
	s.StandardDeviation = sampleStdDev(s.CycleLengths)
	s.Irregular = s.StandardDeviation > IrregularThreshold
	return s
}

// Helper functions

func mean(values []int) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromInt(int64(v)))
	}
	return sum.Div(decimal.NewFromInt(int64(len(values))))
}

func sampleStdDev(values []int) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sumSquares := decimal.Zero
	for _, v := range values {
		diff := decimal.NewFromInt(int64(v)).Sub(m)
		sumSquares = sumSquares.Add(diff.Mul(diff))
	}
	variance := sumSquares.Div(decimal.NewFromInt(int64(len(values) - 1)))
	return math.Sqrt(variance.InexactFloat64())
}

func minMax(values []int) (int, int) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

func sortedDesc(cycles []cycle.Cycle) []cycle.Cycle {
	sorted := make([]cycle.Cycle, len(cycles))
	copy(sorted, cycles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate > sorted[j].StartDate
	})
	return sorted
}

func sortedAsc(cycles []cycle.Cycle) []cycle.Cycle {
	sorted := make([]cycle.Cycle, len(cycles))
	copy(sorted, cycles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate < sorted[j].StartDate
	})
	return sorted
}
