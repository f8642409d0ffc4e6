package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/noumi/internal/common"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/Veraticus/noumi/internal/narrative"
	"github.com/Veraticus/noumi/internal/streak"
	"github.com/shopspring/decimal"
)

const (
	planSpendingDays    = 30
	planHabitCategories = 2
)

// Habit focus areas.
const (
	FocusMonitoring        = "monitoring"
	FocusSaving            = "saving"
	FocusBudgeting         = "budgeting"
	FocusCategoryAwareness = "category_awareness"
)

// PlanHabit is one habit suggested by a weekly plan.
type PlanHabit struct {
	Description       string `json:"description"`
	Focus             string `json:"focus"`
	WeeklyOccurrences int    `json:"weekly_occurrences"`
}

// CategoryAverage is the average expense of one category.
type CategoryAverage struct {
	Category         string          `json:"category"`
	AverageAmount    decimal.Decimal `json:"average_amount"`
	TransactionCount int             `json:"transaction_count"`
}

// SpendingAnalysis summarizes the spending a plan was built from.
type SpendingAnalysis struct {
	TotalSpent       decimal.Decimal   `json:"total_spent"`
	DailyAverage     decimal.Decimal   `json:"daily_average"`
	TopCategories    []CategoryAverage `json:"top_categories"`
	TransactionCount int               `json:"transaction_count"`
}

// PlanData is the stored body of a weekly plan.
type PlanData struct {
	WeekStart           string           `json:"week_start"`
	WeekEnd             string           `json:"week_end"`
	GoalName            string           `json:"goal_name"`
	TargetDate          string           `json:"target_date"`
	Summary             string           `json:"summary"`
	GoalAmount          decimal.Decimal  `json:"goal_amount"`
	WeeklySavingsTarget decimal.Decimal  `json:"weekly_savings_target"`
	WeeksRemaining      decimal.Decimal  `json:"weeks_remaining"`
	SpendingAnalysis    SpendingAnalysis `json:"spending_analysis"`
	Habits              []PlanHabit      `json:"habits"`
	Recommendations     []string         `json:"recommendations"`
}

// PlanResult is the weekly plan for the current week.
type PlanResult struct {
	Plan    *PlanData
	Outcome Outcome
	Cached  bool
}

// WeeklyPlan returns this week's plan, generating and storing one from the
// goal and the last 30 days of spending when none exists yet.
func (s *Service) WeeklyPlan(ctx context.Context, userID string, now time.Time) (*PlanResult, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}

	today := model.DateOf(now)
	weekStart := model.WeekStart(today)
	weekEnd := weekStart.AddDate(0, 0, 6)

	stored, err := s.store.GetWeeklyPlan(ctx, userID, weekStart)
	switch {
	case err == nil:
		var data PlanData
		if err := json.Unmarshal(stored.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to decode weekly plan: %w", err)
		}
		return &PlanResult{Plan: &data, Outcome: OutcomeOK, Cached: true}, nil
	case !errors.Is(err, common.ErrNotFound):
		return nil, fmt.Errorf("failed to load weekly plan: %w", err)
	}

	goal, err := s.goal(ctx, userID)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return &PlanResult{Outcome: OutcomeNoData}, nil
	}

	txns, err := s.transactions(ctx, userID, today.AddDate(0, 0, -planSpendingDays), today)
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return &PlanResult{Outcome: OutcomeNoData}, nil
	}

	data := buildPlan(*goal, txns, now)
	data.WeekStart = weekStart.Format(model.DateLayout)
	data.WeekEnd = weekEnd.Format(model.DateLayout)
	data.Summary = s.narrate(ctx, narrative.Facts{
		Kind:         narrative.KindWeeklyPlan,
		WeekStart:    weekStart,
		WeeklyTarget: data.WeeklySavingsTarget,
		GoalName:     goal.Name,
		TopCategory:  firstCategory(data.SpendingAnalysis.TopCategories),
		TotalSpent:   data.SpendingAnalysis.TotalSpent,
	})

	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode weekly plan: %w", err)
	}
	if err := s.store.SaveWeeklyPlan(ctx, &model.WeeklyPlan{
		UserID:    userID,
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
		CreatedAt: now,
		Data:      body,
	}); err != nil {
		s.logger.Warn("Failed to store weekly plan", "user_id", userID, "error", err)
	}

	s.logger.Info("Generated weekly plan", "user_id", userID, "week_start", data.WeekStart)
	return &PlanResult{Plan: &data, Outcome: OutcomeOK}, nil
}

func buildPlan(goal model.Goal, txns []model.Transaction, now time.Time) PlanData {
	weeks := goal.WeeksUntilTarget(now)
	target := weeklyTarget(goal, now)

	_, spent := totals(txns)
	dailyAverage := spent.Div(decimal.NewFromInt(planSpendingDays)).Round(2)
	top := categoryAverages(txns)

	data := PlanData{
		GoalName:            goal.Name,
		GoalAmount:          goal.Amount.Round(2),
		TargetDate:          goal.TargetDate.Format(model.DateLayout),
		WeeklySavingsTarget: target,
		WeeksRemaining:      weeks.Round(1),
		SpendingAnalysis: SpendingAnalysis{
			TotalSpent:       spent.Round(2),
			DailyAverage:     dailyAverage,
			TopCategories:    top,
			TransactionCount: len(expenses(txns)),
		},
	}

	data.Habits = []PlanHabit{
		{Description: "Check account balance daily", WeeklyOccurrences: 7, Focus: FocusMonitoring},
		{Description: fmt.Sprintf("Save $%s this week for your goal", target.StringFixed(0)), WeeklyOccurrences: 1, Focus: FocusSaving},
	}
	if dailyAverage.IsPositive() {
		data.Habits = append(data.Habits, PlanHabit{
			Description:       fmt.Sprintf("Stay under $%s daily spending", dailyAverage.StringFixed(0)),
			WeeklyOccurrences: 7,
			Focus:             FocusBudgeting,
		})
	}
	for i, c := range top {
		if i == planHabitCategories {
			break
		}
		data.Habits = append(data.Habits, PlanHabit{
			Description:       fmt.Sprintf("Review %s spending before purchases", c.Category),
			WeeklyOccurrences: 3,
			Focus:             FocusCategoryAwareness,
		})
	}

	data.Recommendations = []string{
		fmt.Sprintf("Your daily average spending is $%s", dailyAverage.StringFixed(2)),
		fmt.Sprintf("Save $%s weekly to reach your goal in %s weeks", target.StringFixed(2), weeks.StringFixed(0)),
	}
	if len(top) > 0 {
		data.Recommendations = append(data.Recommendations, fmt.Sprintf("Focus on %s spending", top[0].Category))
	}
	return data
}

// categoryAverages ranks categories by average expense, highest first.
func categoryAverages(txns []model.Transaction) []CategoryAverage {
	sums := spendByCategory(txns)
	counts := make(map[string]int)
	for _, txn := range expenses(txns) {
		counts[txn.CategoryOrDefault()]++
	}

	out := make([]CategoryAverage, 0, len(sums))
	for category, sum := range sums {
		out = append(out, CategoryAverage{
			Category:         category,
			AverageAmount:    sum.Div(decimal.NewFromInt(int64(counts[category]))).Round(2),
			TransactionCount: counts[category],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AverageAmount.Equal(out[j].AverageAmount) {
			return out[i].AverageAmount.GreaterThan(out[j].AverageAmount)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func firstCategory(top []CategoryAverage) string {
	if len(top) == 0 {
		return ""
	}
	return top[0].Category
}

// UserHabit is a habit as presented to the user.
type UserHabit struct {
	Description       string
	ID                int
	WeeklyOccurrences int
	StreakCount       int
	IsCompleted       bool
}

// HabitsResult lists this week's habits.
type HabitsResult struct {
	Outcome Outcome
	Habits  []UserHabit
}

// Habits returns the habits of this week's plan, numbered from 1.
func (s *Service) Habits(ctx context.Context, userID string, now time.Time) (*HabitsResult, error) {
	plan, err := s.WeeklyPlan(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	res := &HabitsResult{Outcome: plan.Outcome, Habits: []UserHabit{}}
	if plan.Plan == nil {
		return res, nil
	}

	for i, h := range plan.Plan.Habits {
		if strings.TrimSpace(h.Description) == "" {
			continue
		}
		res.Habits = append(res.Habits, UserHabit{
			ID:                i + 1,
			Description:       h.Description,
			WeeklyOccurrences: h.WeeklyOccurrences,
		})
	}
	return res, nil
}

// Accomplishment thresholds.
var (
	weeklyReductionThreshold   = decimal.NewFromInt(10)
	categoryReductionThreshold = decimal.NewFromInt(15)
	monthlyReductionThreshold  = decimal.NewFromInt(10)
)

const (
	fewerPurchasesThreshold = 3
	maxAccomplishments      = 3
)

// Accomplishment is one thing the user did well.
type Accomplishment struct {
	Description string
	Value       string
}

var fallbackAccomplishments = []Accomplishment{
	{Description: "You're tracking your spending consistently", Value: "noumi"},
	{Description: "You're building awareness of your financial patterns", Value: "awareness"},
}

// AccomplishmentsResult lists this week's accomplishments.
type AccomplishmentsResult struct {
	Outcome         Outcome
	Summary         string
	Accomplishments []Accomplishment
}

// HabitAccomplishments compares this week to date with last week, and this
// month to date with the same stretch of last month. At most three
// accomplishments are returned; with nothing to celebrate, encouraging
// defaults are used.
func (s *Service) HabitAccomplishments(ctx context.Context, userID string, now time.Time) (*AccomplishmentsResult, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}

	today := model.DateOf(now)
	weekStart := model.WeekStart(today)
	prevWeekStart := weekStart.AddDate(0, 0, -7)
	monthStart := model.MonthStart(today)
	prevMonthStart := monthStart.AddDate(0, -1, 0)
	prevMonthEnd := prevMonthStart.AddDate(0, 0, today.Day()-1)
	if !prevMonthEnd.Before(monthStart) {
		prevMonthEnd = monthStart.AddDate(0, 0, -1)
	}

	from := prevMonthStart
	if prevWeekStart.Before(from) {
		from = prevWeekStart
	}
	txns, err := s.transactions(ctx, userID, from, today)
	if err != nil {
		return nil, err
	}

	thisWeek := between(txns, weekStart, today)
	lastWeek := between(txns, prevWeekStart, weekStart.AddDate(0, 0, -1))

	var found []Accomplishment
	_, spentNow := totals(thisWeek)
	_, spentBefore := totals(lastWeek)
	if reduction := spentBefore.Sub(spentNow); reduction.GreaterThan(weeklyReductionThreshold) {
		found = append(found, Accomplishment{
			Description: fmt.Sprintf("You reduced spending by $%s this week compared to last week", reduction.StringFixed(0)),
			Value:       reduction.StringFixed(0),
		})
	}

	found = append(found, categoryCuts(spendByCategory(thisWeek), spendByCategory(lastWeek))...)

	if fewer := len(expenses(lastWeek)) - len(expenses(thisWeek)); fewer >= fewerPurchasesThreshold {
		found = append(found, Accomplishment{
			Description: fmt.Sprintf("You made %d fewer impulse purchases this week", fewer),
			Value:       fmt.Sprintf("%d", fewer),
		})
	}

	days, err := s.weekVector(thisWeek, weekStart, today)
	if err != nil {
		return nil, err
	}
	if clean := elapsedCleanDays(days.vector, weekStart, today); clean > 0 && len(thisWeek) > 0 {
		found = append(found, Accomplishment{
			Description: fmt.Sprintf("You had %d anomaly-free days this week", clean),
			Value:       fmt.Sprintf("%d", clean),
		})
	}

	_, monthNow := totals(between(txns, monthStart, today))
	_, monthBefore := totals(between(txns, prevMonthStart, prevMonthEnd))
	if reduction := monthBefore.Sub(monthNow); reduction.GreaterThan(monthlyReductionThreshold) {
		found = append(found, Accomplishment{
			Description: fmt.Sprintf("You've spent $%s less this month than at this point last month", reduction.StringFixed(0)),
			Value:       reduction.StringFixed(0),
		})
	}

	res := &AccomplishmentsResult{Outcome: outcomeFor(len(thisWeek)+len(lastWeek) > 0)}
	if len(found) == 0 {
		res.Accomplishments = append([]Accomplishment(nil), fallbackAccomplishments...)
	} else {
		if len(found) > maxAccomplishments {
			found = found[:maxAccomplishments]
		}
		res.Accomplishments = found
	}

	highlights := make([]string, 0, len(found))
	for _, a := range found {
		highlights = append(highlights, a.Description)
	}
	res.Summary = s.narrate(ctx, narrative.Facts{
		Kind:       narrative.KindAccomplishments,
		WeekStart:  weekStart,
		TotalSpent: spentNow,
		Highlights: highlights,
	})
	return res, nil
}

// categoryCuts reports categories whose spend dropped by more than the
// threshold, largest drop first.
func categoryCuts(current, previous map[string]decimal.Decimal) []Accomplishment {
	type cut struct {
		category  string
		reduction decimal.Decimal
	}
	var cuts []cut
	for category, before := range previous {
		if reduction := before.Sub(current[category]); reduction.GreaterThan(categoryReductionThreshold) {
			cuts = append(cuts, cut{category: category, reduction: reduction})
		}
	}
	sort.Slice(cuts, func(i, j int) bool {
		if !cuts[i].reduction.Equal(cuts[j].reduction) {
			return cuts[i].reduction.GreaterThan(cuts[j].reduction)
		}
		return cuts[i].category < cuts[j].category
	})

	out := make([]Accomplishment, 0, len(cuts))
	for _, c := range cuts {
		out = append(out, Accomplishment{
			Description: fmt.Sprintf("You cut %s spending by $%s this week", strings.ToLower(c.category), c.reduction.StringFixed(0)),
			Value:       c.reduction.StringFixed(0),
		})
	}
	return out
}

// elapsedCleanDays counts clean days from weekStart through today.
func elapsedCleanDays(vector [7]int, weekStart, today time.Time) int {
	n := 0
	for i, v := range vector {
		if weekStart.AddDate(0, 0, i).After(today) {
			break
		}
		n += v
	}
	return n
}

// RecapData is the stored body of a weekly recap.
type RecapData struct {
	WeekStart         string          `json:"week_start"`
	WeekEnd           string          `json:"week_end"`
	TopCategory       string          `json:"top_category"`
	Narrative         string          `json:"narrative"`
	TotalSpent        decimal.Decimal `json:"total_spent"`
	PreviousWeekSpent decimal.Decimal `json:"previous_week_spent"`
	AnomalousDays     []string        `json:"anomalous_days"`
	AnomalyFreeDays   int             `json:"anomaly_free_days"`
	LongestStreak     int             `json:"longest_streak"`
	TransactionCount  int             `json:"transaction_count"`
}

// RecapResult is the recap of the previous week.
type RecapResult struct {
	Recap   *RecapData
	Outcome Outcome
	Cached  bool
}

// WeeklyRecap summarizes the Monday-Sunday week before the one containing
// now. Recaps are stored once generated.
func (s *Service) WeeklyRecap(ctx context.Context, userID string, now time.Time) (*RecapResult, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	weekStart := model.WeekStart(model.DateOf(now)).AddDate(0, 0, -7)
	weekEnd := weekStart.AddDate(0, 0, 6)

	stored, err := s.store.GetWeeklyRecap(ctx, userID, weekStart)
	switch {
	case err == nil:
		var data RecapData
		if err := json.Unmarshal(stored.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to decode weekly recap: %w", err)
		}
		return &RecapResult{Recap: &data, Outcome: OutcomeOK, Cached: true}, nil
	case !errors.Is(err, common.ErrNotFound):
		return nil, fmt.Errorf("failed to load weekly recap: %w", err)
	}

	yearStart, _ := yearWindow(user, weekEnd)
	if yearStart.After(weekEnd) {
		return &RecapResult{Outcome: OutcomeNoData}, nil
	}

	from := yearStart
	if prev := weekStart.AddDate(0, 0, -7); prev.Before(from) {
		from = prev
	}
	txns, err := s.transactions(ctx, userID, from, weekEnd)
	if err != nil {
		return nil, err
	}
	week := between(txns, weekStart, weekEnd)
	if len(week) == 0 {
		return &RecapResult{Outcome: OutcomeNoData}, nil
	}

	days, err := s.weekVector(week, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	yearTxns := between(txns, yearStart, weekEnd)
	state, err := s.stateOf(yearTxns, yearStart, weekEnd)
	if err != nil {
		return nil, err
	}

	_, spent := totals(week)
	_, previous := totals(between(txns, weekStart.AddDate(0, 0, -7), weekStart.AddDate(0, 0, -1)))
	data := RecapData{
		WeekStart:         weekStart.Format(model.DateLayout),
		WeekEnd:           weekEnd.Format(model.DateLayout),
		TotalSpent:        spent.Round(2),
		PreviousWeekSpent: previous.Round(2),
		TopCategory:       topByAmount(spendByCategory(week)),
		AnomalousDays:     formatDates(days.verdicts.AnomalousDays()),
		AnomalyFreeDays:   streak.CleanDays(days.vector),
		LongestStreak:     state.Longest,
		TransactionCount:  len(week),
	}
	data.Narrative = s.narrate(ctx, narrative.Facts{
		Kind:            narrative.KindWeeklyRecap,
		WeekStart:       weekStart,
		TotalSpent:      data.TotalSpent,
		PreviousSpent:   data.PreviousWeekSpent,
		TopCategory:     data.TopCategory,
		AnomalyFreeDays: data.AnomalyFreeDays,
		LongestStreak:   data.LongestStreak,
	})

	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode weekly recap: %w", err)
	}
	if err := s.store.SaveWeeklyRecap(ctx, &model.WeeklyRecap{
		UserID:    userID,
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
		CreatedAt: now,
		Data:      body,
	}); err != nil {
		s.logger.Warn("Failed to store weekly recap", "user_id", userID, "error", err)
	}

	return &RecapResult{Recap: &data, Outcome: OutcomeOK}, nil
}

// GoalSubmission is the onboarding quiz answer.
type GoalSubmission struct {
	TargetDate       time.Time
	Name             string
	Description      string
	Amount           decimal.Decimal
	NetMonthlyIncome decimal.Decimal
}

// SubmitGoal validates and stores a new goal for the user.
func (s *Service) SubmitGoal(ctx context.Context, userID string, sub GoalSubmission, now time.Time) (*model.Goal, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(sub.Name)
	switch {
	case name == "":
		return nil, common.NewUserError("Goal name is required", common.ErrInvalidInput)
	case !sub.Amount.IsPositive():
		return nil, common.NewUserError("Goal amount must be positive", common.ErrInvalidInput)
	case !sub.NetMonthlyIncome.IsPositive():
		return nil, common.NewUserError("Net monthly income must be positive", common.ErrInvalidInput)
	case sub.TargetDate.IsZero():
		return nil, common.NewUserError("Target date is required", common.ErrInvalidInput)
	case model.DateOf(sub.TargetDate).Before(model.DateOf(now)):
		return nil, common.NewUserError("Target date cannot be in the past", common.ErrInvalidInput)
	}

	goal := &model.Goal{
		UserID:           userID,
		Name:             name,
		Description:      strings.TrimSpace(sub.Description),
		Amount:           sub.Amount.Round(2),
		NetMonthlyIncome: sub.NetMonthlyIncome.Round(2),
		TargetDate:       model.DateOf(sub.TargetDate),
		CreatedAt:        now,
	}
	if err := s.store.SaveGoal(ctx, goal); err != nil {
		return nil, fmt.Errorf("failed to save goal: %w", err)
	}

	s.logger.Info("Saved goal", "user_id", userID, "goal", goal.Name)
	return goal, nil
}
