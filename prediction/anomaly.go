package prediction

import (
	"fmt"
	"math"

	"github.com/lunarlog/cycle-engine/cycle"
)

// AnomalyType classifies a detected pattern.
type AnomalyType string

const (
	AnomalyIrregular       AnomalyType = "irregular"
	AnomalySuddenShift     AnomalyType = "sudden_shift"
	AnomalyTrendingLonger  AnomalyType = "trending_longer"
	AnomalyTrendingShorter AnomalyType = "trending_shorter"
)

// Severity runs from 1 (info) to 3 (alert).
type Severity int

const (
	SeverityInfo Severity = iota + 1
	SeverityWarning
	SeverityAlert
)

// Anomaly is one finding about cycle history.
type Anomaly struct {
	Type        AnomalyType
	Description string
	Severity    Severity
}

const (
	minAnomalyCycles = 4
	shiftWindow      = 3
	shiftThreshold   = 4.0
)

// DetectAnomalies looks for irregularity, a sudden shift in the last three
// cycles, and monotonic trends. Trend and shift checks use raw gaps between
// consecutive starts, oldest first.
func DetectAnomalies(cycles []cycle.Cycle) []Anomaly {
	var anomalies []Anomaly
	if len(cycles) < minAnomalyCycles {
		return anomalies
	}

	sorted := sortedAsc(cycles)
	lengths := make([]int, 0, len(sorted)-1)
	for i := 0; i < len(sorted)-1; i++ {
		lengths = append(lengths, cycle.DaysBetween(sorted[i].StartDate, sorted[i+1].StartDate))
	}
	if len(lengths) < shiftWindow {
		return anomalies
	}

	if sd := StandardDeviation(cycles); sd > IrregularThreshold {
		anomalies = append(anomalies, Anomaly{
			Type: AnomalyIrregular,
			Description: fmt.Sprintf(
				"Your cycle length varies significantly (approx +/- %d days). Predictions may be less accurate.",
				int(sd)),
			Severity: SeverityWarning,
		})
	}

	if len(lengths) >= 2*shiftWindow {
		recent := lengths[len(lengths)-shiftWindow:]
		history := lengths[:len(lengths)-shiftWindow]
		recentMean := mean(recent).InexactFloat64()
		historyMean := mean(history).InexactFloat64()

		if math.Abs(recentMean-historyMean) >= shiftThreshold {
			direction := "shorter"
			if recentMean > historyMean {
				direction = "longer"
			}
			anomalies = append(anomalies, Anomaly{
				Type: AnomalySuddenShift,
				Description: fmt.Sprintf(
					"Your last 3 cycles have been consistently %s (%d days) than your usual average (%d days).",
					direction, int(recentMean), int(historyMean)),
				Severity: SeverityAlert,
			})
		}
	}

	last := lengths[len(lengths)-shiftWindow:]
	switch {
	case last[0] < last[1] && last[1] < last[2]:
		anomalies = append(anomalies, Anomaly{
			Type:        AnomalyTrendingLonger,
			Description: "Your cycle has been getting longer for the last 3 months.",
			Severity:    SeverityInfo,
		})
	case last[0] > last[1] && last[1] > last[2]:
		anomalies = append(anomalies, Anomaly{
			Type:        AnomalyTrendingShorter,
			Description: "Your cycle has been getting shorter for the last 3 months.",
			Severity:    SeverityInfo,
		})
	}

	return anomalies
}
