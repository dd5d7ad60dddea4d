package cycle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunarlog/cycle-engine/cycle"
)

func TestDay_ParseAndFormat(t *testing.T) {
	d, err := cycle.ParseDay("2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", d.String())
	assert.Equal(t, cycle.NewDay(2024, time.January, 31), d)

	assert.Equal(t, cycle.Day(0), cycle.NewDay(1970, time.January, 1))

	_, err = cycle.ParseDay("31/01/2024")
	assert.Error(t, err)
}

func TestDay_FromTimeUsesLocalCalendarDate(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC; the local date wins.
	loc := time.FixedZone("EST", -5*3600)
	late := time.Date(2024, time.March, 10, 23, 30, 0, 0, loc)

	assert.Equal(t, cycle.NewDay(2024, time.March, 10), cycle.DayFromTime(late))
}

func TestDay_Arithmetic(t *testing.T) {
	jan1 := cycle.NewDay(2024, time.January, 1)
	jan31 := jan1.AddDays(30)

	assert.Equal(t, "2024-01-31", jan31.String())
	assert.Equal(t, 30, cycle.DaysBetween(jan1, jan31))
	assert.Equal(t, -30, cycle.DaysBetween(jan31, jan1))
	assert.True(t, jan1.Before(jan31))
	assert.True(t, jan31.After(jan1))
}

func TestCycle_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       cycle.Cycle
		wantErr error
	}{
		{"open cycle", cycle.Cycle{StartDate: 100}, nil},
		{"same-day period", cycle.Cycle{StartDate: 100, EndDate: cycle.Day(100).Ptr()}, nil},
		{"end before start", cycle.Cycle{StartDate: 100, EndDate: cycle.Day(99).Ptr()}, cycle.ErrInvalidPeriod},
		{"negative id", cycle.Cycle{ID: -1, StartDate: 100}, cycle.ErrInvalidCycle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, cycle.IsClientError(err))
		})
	}
}

func TestCycle_InvalidPeriodErrorCarriesDates(t *testing.T) {
	err := cycle.Cycle{StartDate: 100, EndDate: cycle.Day(90).Ptr()}.Validate()

	var periodErr *cycle.InvalidPeriodError
	require.ErrorAs(t, err, &periodErr)
	assert.Equal(t, cycle.Day(100), periodErr.Start)
	assert.Equal(t, cycle.Day(90), periodErr.End)
}

func TestCycle_WithEndCopies(t *testing.T) {
	end := cycle.Day(105)
	c := cycle.Cycle{StartDate: 100}.WithEnd(&end)
	end = 200

	require.NotNil(t, c.EndDate)
	assert.Equal(t, cycle.Day(105), *c.EndDate)
	assert.True(t, c.EndedOn(105))
	assert.False(t, c.IsOpen())

	assert.True(t, c.WithEnd(nil).IsOpen())
}

func TestLatest(t *testing.T) {
	assert.Nil(t, cycle.Latest(nil))

	cycles := []cycle.Cycle{
		{ID: 1, StartDate: 100},
		{ID: 2, StartDate: 300},
		{ID: 3, StartDate: 200},
	}
	latest := cycle.Latest(cycles)
	require.NotNil(t, latest)
	assert.Equal(t, int64(2), latest.ID)
}

func TestWriteError_UnwrapsBoth(t *testing.T) {
	err := &cycle.WriteError{Op: "insert", ID: 3, Err: cycle.ErrStoreClosed}

	assert.ErrorIs(t, err, cycle.ErrWriteFailed)
	assert.ErrorIs(t, err, cycle.ErrStoreClosed)
	assert.False(t, cycle.IsClientError(err))
	assert.Equal(t, "insert cycle 3: store closed", err.Error())
}
