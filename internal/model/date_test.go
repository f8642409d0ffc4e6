package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		want    time.Time
		name    string
		input   string
		wantErr bool
	}{
		{name: "calendar date", input: "2024-03-01", want: day(2024, 3, 1)},
		{name: "surrounding whitespace", input: "  2024-03-01\n", want: day(2024, 3, 1)},
		{name: "leap day", input: "2024-02-29", want: day(2024, 2, 29)},
		{name: "utc timestamp", input: "2024-03-01T10:00:00Z", want: day(2024, 3, 1)},
		{name: "offset timestamp keeps its own date", input: "2024-03-01T23:30:00-05:00", want: day(2024, 3, 1)},
		{name: "fractional seconds", input: "2024-03-01T10:00:00.123Z", want: day(2024, 3, 1)},
		{name: "garbage after the date", input: "2024-03-01Tgarbage", wantErr: true},
		{name: "trailing text", input: "2024-03-01 lunch", wantErr: true},
		{name: "timestamp without zone", input: "2024-03-01T10:00:00", wantErr: true},
		{name: "us format", input: "03/01/2024", wantErr: true},
		{name: "not a leap year", input: "2023-02-29", wantErr: true},
		{name: "single digit month", input: "2024-3-01", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedDate)
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		in   time.Time
		want time.Time
		name string
	}{
		{name: "monday is its own week start", in: day(2024, 3, 4), want: day(2024, 3, 4)},
		{name: "midweek", in: day(2024, 3, 7), want: day(2024, 3, 4)},
		{name: "sunday belongs to the prior monday", in: day(2024, 3, 10), want: day(2024, 3, 4)},
		{name: "time of day is dropped", in: time.Date(2024, 3, 6, 22, 15, 0, 0, time.UTC), want: day(2024, 3, 4)},
		{name: "week spanning a year boundary", in: day(2025, 1, 1), want: day(2024, 12, 30)},
		{name: "week spanning a month boundary", in: day(2024, 3, 2), want: day(2024, 2, 26)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeekStart(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, time.Monday, got.Weekday())
		})
	}
}

func TestDateOf_KeepsWallClockDate(t *testing.T) {
	tz := time.FixedZone("UTC-8", -8*60*60)
	late := time.Date(2024, 3, 4, 23, 0, 0, 0, tz) // 2024-03-05 07:00 UTC

	assert.Equal(t, day(2024, 3, 4), DateOf(late))
}

func TestPeriodStarts(t *testing.T) {
	now := time.Date(2024, 8, 17, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, day(2024, 1, 1), YearStart(now))
	assert.Equal(t, day(2024, 8, 1), MonthStart(now))
	assert.Equal(t, day(2024, 8, 17), MaxDate(day(2024, 8, 17), day(2024, 1, 1)))
	assert.Equal(t, day(2024, 8, 17), MaxDate(day(2024, 1, 1), day(2024, 8, 17)))
}
