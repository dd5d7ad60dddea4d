package prediction

import (
	"fmt"
	"strings"

	"github.com/lunarlog/cycle-engine/cycle"
)

// Summary is the at-a-glance state for a given day.
type Summary struct {
	HasData bool
	Today   cycle.Day

	CurrentCycleDay int
	DaysUntilPeriod int
	Forecast        Forecast
	IsFertile       bool

	// PeriodActive: today is (or is expected to be) a bleeding day.
	PeriodActive bool
	// PeriodOngoing: the latest cycle has no end date yet.
	PeriodOngoing bool
	// EndedToday: the latest cycle was closed today.
	EndedToday bool
	// DaysRemainingInPeriod is nil when the period is not active.
	DaysRemainingInPeriod *int

	Anomalies []Anomaly
}

// Summarize builds the Summary for today. An empty history yields a
// Summary with HasData=false.
func Summarize(cycles []cycle.Cycle, today cycle.Day) Summary {
	forecast, ok := Predict(cycles)
	if !ok {
		return Summary{Today: today}
	}
	last := cycle.Latest(cycles)

	s := Summary{
		HasData:         true,
		Today:           today,
		Forecast:        forecast,
		DaysUntilPeriod: cycle.DaysBetween(today, forecast.NextPeriod),
		CurrentCycleDay: cycle.DaysBetween(last.StartDate, today) + 1,
		IsFertile:       forecast.Fertile.Contains(today),
		PeriodOngoing:   last.IsOpen(),
		EndedToday:      last.EndedOn(today),
		Anomalies:       DetectAnomalies(cycles),
	}

	if last.EndDate != nil {
		s.PeriodActive = !today.After(*last.EndDate)
	} else {
		s.PeriodActive = s.CurrentCycleDay <= forecast.AveragePeriodLength
	}

	if s.PeriodActive {
		var remaining int
		if last.EndDate != nil {
			remaining = cycle.DaysBetween(today, *last.EndDate)
		} else {
			remaining = forecast.AveragePeriodLength - s.CurrentCycleDay
		}
		s.DaysRemainingInPeriod = &remaining
	}

	return s
}

// ShareableStatus renders a short plain-text status update.
func (s Summary) ShareableStatus() string {
	if !s.HasData {
		return "No cycles logged yet."
	}

	var b strings.Builder
	b.WriteString("LunarLog Status Update\n\n")
	fmt.Fprintf(&b, "Day %d of Cycle\n", s.CurrentCycleDay)
	fmt.Fprintf(&b, "Period due in %d days\n", s.DaysUntilPeriod)
	if s.IsFertile {
		b.WriteString("Likely Fertile Window\n")
	}
	return b.String()
}
