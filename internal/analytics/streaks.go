package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/noumi/internal/anomaly"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/Veraticus/noumi/internal/streak"
)

// WeeklyStreakResult is the anomaly-free vector for the current week.
type WeeklyStreakResult struct {
	WeekStart     time.Time
	Outcome       Outcome
	AnomalousDays []string
	Days          [streak.DaysPerWeek]int
	CleanDays     int
}

// WeeklyStreak classifies the Monday-Sunday week containing now and returns
// one entry per day: 1 when the day had no anomalous transaction.
func (s *Service) WeeklyStreak(ctx context.Context, userID string, now time.Time) (*WeeklyStreakResult, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}

	today := model.DateOf(now)
	weekStart := model.WeekStart(today)
	weekEnd := weekStart.AddDate(0, 0, streak.DaysPerWeek-1)

	txns, err := s.transactions(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	days, err := s.weekVector(txns, weekStart, today)
	if err != nil {
		return nil, err
	}

	return &WeeklyStreakResult{
		WeekStart:     weekStart,
		Outcome:       outcomeFor(len(txns) > 0),
		Days:          days.vector,
		CleanDays:     streak.CleanDays(days.vector),
		AnomalousDays: formatDates(days.verdicts.AnomalousDays()),
	}, nil
}

type weekDays struct {
	verdicts anomaly.DailyVerdicts
	vector   [streak.DaysPerWeek]int
}

// weekVector classifies one week of transactions on their own.
func (s *Service) weekVector(txns []model.Transaction, weekStart, today time.Time) (weekDays, error) {
	result, err := s.classify(txns)
	if err != nil {
		return weekDays{}, err
	}
	verdicts := anomaly.Daily(txns, result)

	var opts []streak.WeekOption
	if s.excludeFuture {
		opts = append(opts, streak.WithFutureDaysExcluded(today))
	}
	vector, err := streak.WeeklyVector(verdicts, weekStart, opts...)
	if err != nil {
		return weekDays{}, fmt.Errorf("failed to build weekly vector: %w", err)
	}
	return weekDays{verdicts: verdicts, vector: vector}, nil
}

// LongestStreakResult is the longest and current anomaly-free run of the year.
type LongestStreakResult struct {
	Start   time.Time
	End     time.Time
	Outcome Outcome
	Longest int
	Current int
}

// LongestStreak walks every day from the later of signup and January 1st
// through today.
func (s *Service) LongestStreak(ctx context.Context, userID string, now time.Time) (*LongestStreakResult, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	start, end := yearWindow(user, model.DateOf(now))
	state, txns, err := s.yearState(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	return &LongestStreakResult{
		Start:   start,
		End:     end,
		Outcome: outcomeFor(len(txns) > 0),
		Longest: state.Longest,
		Current: state.Current,
	}, nil
}

func (s *Service) yearState(ctx context.Context, userID string, start, end time.Time) (streak.State, []model.Transaction, error) {
	txns, err := s.transactions(ctx, userID, start, end)
	if err != nil {
		return streak.State{}, nil, err
	}
	state, err := s.stateOf(txns, start, end)
	return state, txns, err
}

func (s *Service) stateOf(txns []model.Transaction, start, end time.Time) (streak.State, error) {
	result, err := s.classify(txns)
	if err != nil {
		return streak.State{}, err
	}
	return streak.Run(anomaly.Daily(txns, result), start, end), nil
}
