// Package streak turns a day-by-day anomaly signal into weekly and
// longest-run statistics.
//
// A streak is a maximal run of consecutive calendar days with no anomalous
// transaction. Days without any transactions count as clean. All functions are
// pure and safe for concurrent use.
package streak

import (
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/noumi/internal/model"
)

// DaysPerWeek is the length of a weekly vector.
const DaysPerWeek = 7

// ErrNotMonday is returned when a weekly vector is requested for a week that
// does not start on Monday.
var ErrNotMonday = errors.New("week must start on a Monday")

// Verdicts reports whether a calendar day contains an anomaly.
// anomaly.DailyVerdicts satisfies it.
type Verdicts interface {
	HasAnomaly(day time.Time) bool
}

// State is the streak bookkeeping after walking a range of days.
type State struct {
	Current int // consecutive clean days ending at the last day walked
	Longest int // maximum Current ever reached
}

// Step advances the state by one day.
func (s State) Step(hasAnomaly bool) State {
	if hasAnomaly {
		s.Current = 0
		return s
	}
	s.Current++
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	return s
}

type weekOptions struct {
	today         time.Time
	excludeFuture bool
}

// WeekOption customizes WeeklyVector.
type WeekOption func(*weekOptions)

// WithFutureDaysExcluded marks days after today as 0 instead of 1.
func WithFutureDaysExcluded(today time.Time) WeekOption {
	return func(o *weekOptions) {
		o.today = model.DateOf(today)
		o.excludeFuture = true
	}
}

// WeeklyVector returns seven entries for weekStart (Monday) through Sunday:
// 1 for a clean day, 0 for an anomalous one. Days with no data are clean, and
// so are future days unless WithFutureDaysExcluded is given.
func WeeklyVector(verdicts Verdicts, weekStart time.Time, opts ...WeekOption) ([DaysPerWeek]int, error) {
	var vector [DaysPerWeek]int

	start := model.DateOf(weekStart)
	if start.Weekday() != time.Monday {
		return vector, fmt.Errorf("%w: %s is a %s", ErrNotMonday, start.Format(model.DateLayout), start.Weekday())
	}

	var o weekOptions
	for _, opt := range opts {
		opt(&o)
	}

	for i := range vector {
		day := start.AddDate(0, 0, i)
		switch {
		case o.excludeFuture && day.After(o.today):
			vector[i] = 0
		case hasAnomaly(verdicts, day):
			vector[i] = 0
		default:
			vector[i] = 1
		}
	}
	return vector, nil
}

// CleanDays counts the 1 entries of a weekly vector.
func CleanDays(vector [DaysPerWeek]int) int {
	n := 0
	for _, v := range vector {
		n += v
	}
	return n
}

// Run walks every calendar day from start to end inclusive and returns the
// resulting state. An empty range (start after end) yields the zero State.
func Run(verdicts Verdicts, start, end time.Time) State {
	var state State
	from, to := model.DateOf(start), model.DateOf(end)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		state = state.Step(hasAnomaly(verdicts, day))
	}
	return state
}

// Longest returns the longest streak between start and end inclusive.
func Longest(verdicts Verdicts, start, end time.Time) int {
	return Run(verdicts, start, end).Longest
}

// ClampedLongest applies the signup clamp before walking: days before signup
// are never counted, whatever periodStart says.
func ClampedLongest(verdicts Verdicts, signup, periodStart, end time.Time) int {
	return Longest(verdicts, StartDate(signup, periodStart), end)
}

// StartDate returns the later of the signup date and the period start.
func StartDate(signup, periodStart time.Time) time.Time {
	return model.MaxDate(model.DateOf(signup), model.DateOf(periodStart))
}

// YearStart returns January 1st of today's year.
func YearStart(today time.Time) time.Time {
	return model.YearStart(today)
}

func hasAnomaly(verdicts Verdicts, day time.Time) bool {
	if verdicts == nil {
		return false
	}
	return verdicts.HasAnomaly(day)
}
