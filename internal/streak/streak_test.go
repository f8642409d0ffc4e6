package streak

import (
	"testing"
	"time"

	"github.com/Veraticus/noumi/internal/anomaly"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// 2024-03-04 is a Monday.
var monday = date(2024, 3, 4)

func days(ds ...time.Time) anomaly.DailyVerdicts {
	verdicts := make(anomaly.DailyVerdicts, len(ds))
	for _, d := range ds {
		verdicts[d] = true
	}
	return verdicts
}

func TestWeeklyVector(t *testing.T) {
	tests := []struct {
		verdicts Verdicts
		name     string
		opts     []WeekOption
		want     [DaysPerWeek]int
	}{
		{
			name:     "empty week is all clean",
			verdicts: days(),
			want:     [7]int{1, 1, 1, 1, 1, 1, 1},
		},
		{
			name:     "nil verdicts are all clean",
			verdicts: nil,
			want:     [7]int{1, 1, 1, 1, 1, 1, 1},
		},
		{
			name:     "anomalous tuesday and sunday",
			verdicts: days(monday.AddDate(0, 0, 1), monday.AddDate(0, 0, 6)),
			want:     [7]int{1, 0, 1, 1, 1, 1, 0},
		},
		{
			name:     "anomalies outside the week are ignored",
			verdicts: days(monday.AddDate(0, 0, -1), monday.AddDate(0, 0, 7)),
			want:     [7]int{1, 1, 1, 1, 1, 1, 1},
		},
		{
			name:     "future days excluded on request",
			verdicts: days(monday),
			opts:     []WeekOption{WithFutureDaysExcluded(monday.AddDate(0, 0, 2).Add(20 * time.Hour))},
			want:     [7]int{0, 1, 1, 0, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WeeklyVector(tt.verdicts, monday, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, 7)
		})
	}
}

func TestWeeklyVector_FutureDaysCleanByDefault(t *testing.T) {
	// Evaluated on Wednesday: Thursday through Sunday have no data yet.
	got, err := WeeklyVector(days(monday), monday)
	require.NoError(t, err)
	assert.Equal(t, [7]int{0, 1, 1, 1, 1, 1, 1}, got)
	assert.Equal(t, 6, CleanDays(got))
}

func TestWeeklyVector_NotMonday(t *testing.T) {
	_, err := WeeklyVector(days(), monday.AddDate(0, 0, 2))
	assert.ErrorIs(t, err, ErrNotMonday)

	_, err = WeeklyVector(days(), monday.Add(13*time.Hour))
	assert.NoError(t, err, "time of day on a Monday is accepted")
}

func TestLongest(t *testing.T) {
	start := date(2024, 1, 1)
	end := date(2024, 1, 10)

	tests := []struct {
		name     string
		verdicts Verdicts
		start    time.Time
		end      time.Time
		want     int
	}{
		{name: "no anomalies", verdicts: days(), start: start, end: end, want: 10},
		{name: "single day range", verdicts: days(), start: start, end: start, want: 1},
		{name: "single anomalous day", verdicts: days(start), start: start, end: start, want: 0},
		{name: "empty range", verdicts: days(), start: end, end: start, want: 0},
		{name: "anomaly in the middle", verdicts: days(date(2024, 1, 4)), start: start, end: end, want: 6},
		{name: "every day anomalous", verdicts: days(start, date(2024, 1, 2)), start: start, end: date(2024, 1, 2), want: 0},
		{
			name:     "longest run is earlier than the current one",
			verdicts: days(date(2024, 1, 7), date(2024, 1, 9)),
			start:    start,
			end:      end,
			want:     6,
		},
		{
			name:     "times of day are ignored",
			verdicts: days(date(2024, 1, 5)),
			start:    start.Add(22 * time.Hour),
			end:      end.Add(time.Hour),
			want:     5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Longest(tt.verdicts, tt.start, tt.end))
		})
	}
}

func TestRun_ResetLaw(t *testing.T) {
	start := date(2024, 5, 1)
	bad := date(2024, 5, 8)
	v := days(bad)

	assert.Equal(t, 7, Run(v, start, bad.AddDate(0, 0, -1)).Current)
	assert.Equal(t, 0, Run(v, start, bad).Current)
	assert.Equal(t, 1, Run(v, start, bad.AddDate(0, 0, 1)).Current)

	state := Run(v, start, bad.AddDate(0, 0, 3))
	assert.Equal(t, State{Current: 3, Longest: 7}, state)
}

func TestStep(t *testing.T) {
	var s State
	for _, bad := range []bool{false, false, true, false} {
		s = s.Step(bad)
	}
	assert.Equal(t, State{Current: 1, Longest: 2}, s)
}

func TestLongest_Monotonic(t *testing.T) {
	start := date(2024, 1, 1)
	v := days(date(2024, 1, 3), date(2024, 1, 4), date(2024, 1, 20), date(2024, 2, 2))

	prev := 0
	for end := start; end.Before(date(2024, 3, 1)); end = end.AddDate(0, 0, 1) {
		got := Longest(v, start, end)
		assert.GreaterOrEqual(t, got, prev, "range ending %s", end.Format("2006-01-02"))
		prev = got
	}
}

func TestClampedLongest_SignupClamp(t *testing.T) {
	yearStart := date(2024, 1, 1)
	signup := date(2024, 6, 10).Add(14 * time.Hour)
	today := date(2024, 6, 20)

	// The naive walk from Jan 1 would find 160 clean days before signup.
	assert.Equal(t, 160, Longest(days(date(2024, 6, 9)), yearStart, today))

	got := ClampedLongest(days(date(2024, 6, 9)), signup, yearStart, today)
	assert.Equal(t, 11, got)

	// Signed up today: a single clean day.
	assert.Equal(t, 1, ClampedLongest(days(), today, yearStart, today))

	// Signup earlier than the period start: the period wins.
	assert.Equal(t, 172, ClampedLongest(days(), date(2023, 7, 1), yearStart, today))
}

func TestStartDate(t *testing.T) {
	yearStart := date(2024, 1, 1)
	assert.Equal(t, date(2024, 3, 15), StartDate(date(2024, 3, 15).Add(9*time.Hour), yearStart))
	assert.Equal(t, yearStart, StartDate(date(2022, 3, 15), yearStart))
}
