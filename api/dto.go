/*
dto.go - Data Transfer Objects for API requests and responses

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Wrappers for action results

DATES:
  Every date is an ISO day string (YYYY-MM-DD). An ongoing cycle has
  "end_date": null.

VALIDATION:
  Request types carry go-playground/validator tags; handlers call
  decodeAndValidate before touching the repository.
*/
package api

import (
	"github.com/lunarlog/cycle-engine/cycle"
	"github.com/lunarlog/cycle-engine/prediction"
)

// =============================================================================
// CYCLES
// =============================================================================

// CycleDTO represents a cycle in API responses.
type CycleDTO struct {
	ID        int64   `json:"id"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date"`
	Ongoing   bool    `json:"ongoing"`
}

// CycleRequest is the body for creating or updating a cycle.
type CycleRequest struct {
	ID        int64   `json:"id" validate:"gte=0"`
	StartDate string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// LogPeriodRequest records a finished period.
type LogPeriodRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// CreatedResponse is returned after an insert.
type CreatedResponse struct {
	ID    int64    `json:"id"`
	Cycle CycleDTO `json:"cycle"`
}

// ToggleResponse reports the outcome of a toggle.
type ToggleResponse struct {
	Result  string   `json:"result"`
	Message string   `json:"message"`
	Cycle   CycleDTO `json:"cycle"`
}

// RestoreResponse reports how many cycles were restored.
type RestoreResponse struct {
	Restored int `json:"restored"`
}

// =============================================================================
// SUMMARY / STATS
// =============================================================================

// AnomalyDTO is one detected pattern.
type AnomalyDTO struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Severity    int    `json:"severity"`
}

// ForecastDTO holds predicted dates.
type ForecastDTO struct {
	AverageCycleLength  int    `json:"average_cycle_length"`
	AveragePeriodLength int    `json:"average_period_length"`
	NextPeriod          string `json:"next_period"`
	Ovulation           string `json:"ovulation"`
	FertileStart        string `json:"fertile_start"`
	FertileEnd          string `json:"fertile_end"`
}

// SummaryDTO is the home summary.
type SummaryDTO struct {
	HasData               bool         `json:"has_data"`
	Today                 string       `json:"today"`
	CurrentCycleDay       int          `json:"current_cycle_day"`
	DaysUntilPeriod       int          `json:"days_until_period"`
	DaysRemainingInPeriod *int         `json:"days_remaining_in_period"`
	IsFertile             bool         `json:"is_fertile"`
	PeriodActive          bool         `json:"period_active"`
	PeriodOngoing         bool         `json:"period_ongoing"`
	EndedToday            bool         `json:"ended_today"`
	Forecast              *ForecastDTO `json:"forecast,omitempty"`
	Anomalies             []AnomalyDTO `json:"anomalies"`
	Status                string       `json:"status"`
}

// StatsDTO reports history statistics.
type StatsDTO struct {
	CycleCount          int          `json:"cycle_count"`
	CompletedCycles     int          `json:"completed_cycles"`
	CycleLengths        []int        `json:"cycle_lengths"`
	PeriodLengths       []int        `json:"period_lengths"`
	AverageCycleLength  string       `json:"average_cycle_length"`
	AveragePeriodLength string       `json:"average_period_length"`
	ShortestCycle       int          `json:"shortest_cycle"`
	LongestCycle        int          `json:"longest_cycle"`
	StandardDeviation   float64      `json:"standard_deviation"`
	Irregular           bool         `json:"irregular"`
	Anomalies           []AnomalyDTO `json:"anomalies"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toCycleDTO(c cycle.Cycle) CycleDTO {
	dto := CycleDTO{ID: c.ID, StartDate: c.StartDate.String(), Ongoing: c.IsOpen()}
	if c.EndDate != nil {
		end := c.EndDate.String()
		dto.EndDate = &end
	}
	return dto
}

func toCycleDTOs(cycles []cycle.Cycle) []CycleDTO {
	dtos := make([]CycleDTO, len(cycles))
	for i, c := range cycles {
		dtos[i] = toCycleDTO(c)
	}
	return dtos
}

// toCycle converts a validated request.
func (r CycleRequest) toCycle() (cycle.Cycle, error) {
	start, err := cycle.ParseDay(r.StartDate)
	if err != nil {
		return cycle.Cycle{}, err
	}
	c := cycle.Cycle{ID: r.ID, StartDate: start}
	if r.EndDate != nil {
		end, err := cycle.ParseDay(*r.EndDate)
		if err != nil {
			return cycle.Cycle{}, err
		}
		c.EndDate = &end
	}
	return c, nil
}

func toAnomalyDTOs(anomalies []prediction.Anomaly) []AnomalyDTO {
	dtos := make([]AnomalyDTO, len(anomalies))
	for i, a := range anomalies {
		dtos[i] = AnomalyDTO{Type: string(a.Type), Description: a.Description, Severity: int(a.Severity)}
	}
	return dtos
}

// NewSummaryDTO converts a summary for JSON output.
func NewSummaryDTO(s prediction.Summary) SummaryDTO {
	dto := SummaryDTO{
		HasData:               s.HasData,
		Today:                 s.Today.String(),
		CurrentCycleDay:       s.CurrentCycleDay,
		DaysUntilPeriod:       s.DaysUntilPeriod,
		DaysRemainingInPeriod: s.DaysRemainingInPeriod,
		IsFertile:             s.IsFertile,
		PeriodActive:          s.PeriodActive,
		PeriodOngoing:         s.PeriodOngoing,
		EndedToday:            s.EndedToday,
		Anomalies:             toAnomalyDTOs(s.Anomalies),
		Status:                s.ShareableStatus(),
	}
	if s.HasData {
		f := s.Forecast
		dto.Forecast = &ForecastDTO{
			AverageCycleLength:  f.AverageCycleLength,
			AveragePeriodLength: f.AveragePeriodLength,
			NextPeriod:          f.NextPeriod.String(),
			Ovulation:           f.Ovulation.String(),
			FertileStart:        f.Fertile.Start.String(),
			FertileEnd:          f.Fertile.End.String(),
		}
	}
	return dto
}

func toStatsDTO(s prediction.Stats, anomalies []prediction.Anomaly) StatsDTO {
	return StatsDTO{
		CycleCount:          s.CycleCount,
		CompletedCycles:     s.CompletedCycles,
		CycleLengths:        nonNil(s.CycleLengths),
		PeriodLengths:       nonNil(s.PeriodLengths),
		AverageCycleLength:  s.AverageCycleLength.StringFixed(1),
		AveragePeriodLength: s.AveragePeriodLength.StringFixed(1),
		ShortestCycle:       s.ShortestCycle,
		LongestCycle:        s.LongestCycle,
		StandardDeviation:   s.StandardDeviation,
		Irregular:           s.Irregular,
		Anomalies:           toAnomalyDTOs(anomalies),
	}
}

func nonNil(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}
