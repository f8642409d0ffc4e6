package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/Veraticus/noumi/internal/common"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/Veraticus/noumi/internal/narrative"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, common.ErrNotFound)
}

func planSpending() []model.Transaction {
	return []model.Transaction{
		txn("a", "2024-02-20", "-30", "Food"),
		txn("b", "2024-03-01", "-30", "Food"),
		txn("c", "2024-03-05", "-240", "Shopping"),
		txn("d", "2024-03-06", "2000", "Income"),
	}
}

func TestWeeklyPlanGenerates(t *testing.T) {
	ctx := context.Background()
	narrator := &narrative.MockNarrator{}
	svc, store := newTestService(t, Options{Narrator: narrator})
	today := day("2024-03-13")

	var saved *model.WeeklyPlan
	store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2023-01-01"), nil)
	store.EXPECT().GetWeeklyPlan(gomock.Any(), userID, day("2024-03-11")).Return(nil, notFound("weekly plan"))
	store.EXPECT().GetLatestGoal(gomock.Any(), userID).Return(goalFor("1000", "3000"), nil)
	store.EXPECT().GetTransactions(gomock.Any(), userID, today.AddDate(0, 0, -30), today).Return(planSpending(), nil)
	store.EXPECT().SaveWeeklyPlan(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p *model.WeeklyPlan) error {
		saved = p
		return nil
	})

	res, err := svc.WeeklyPlan(ctx, userID, now)
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.False(t, res.Cached)

	plan := res.Plan
	require.NotNil(t, plan)
	assert.Equal(t, "2024-03-11", plan.WeekStart)
	assert.Equal(t, "2024-03-17", plan.WeekEnd)
	assertDecimal(t, "100", plan.WeeklySavingsTarget)
	assertDecimal(t, "10", plan.WeeksRemaining)
	assertDecimal(t, "300", plan.SpendingAnalysis.TotalSpent)
	assertDecimal(t, "10", plan.SpendingAnalysis.DailyAverage)
	assert.Equal(t, 3, plan.SpendingAnalysis.TransactionCount)

	require.Len(t, plan.SpendingAnalysis.TopCategories, 2)
	assert.Equal(t, "Shopping", plan.SpendingAnalysis.TopCategories[0].Category)
	assertDecimal(t, "30", plan.SpendingAnalysis.TopCategories[1].AverageAmount)
	assert.Equal(t, 2, plan.SpendingAnalysis.TopCategories[1].TransactionCount)

	descriptions := make([]string, len(plan.Habits))
	for i, h := range plan.Habits {
		descriptions[i] = h.Description
	}
	assert.Equal(t, []string{
		"Check account balance daily",
		"Save $100 this week for your goal",
		"Stay under $10 daily spending",
		"Review Shopping spending before purchases",
		"Review Food spending before purchases",
	}, descriptions)
	assert.Equal(t, FocusCategoryAwareness, plan.Habits[3].Focus)

	assert.Equal(t, []string{
		"Your daily average spending is $10.00",
		"Save $100.00 weekly to reach your goal in 10 weeks",
		"Focus on Shopping spending",
	}, plan.Recommendations)

	assert.Equal(t, "narrated weekly_plan", plan.Summary)
	require.Len(t, narrator.Calls, 1)
	assert.Equal(t, "Shopping", narrator.Calls[0].TopCategory)

	require.NotNil(t, saved)
	assert.Equal(t, day("2024-03-11"), saved.WeekStart)
	var stored PlanData
	require.NoError(t, json.Unmarshal(saved.Data, &stored))
	assert.Equal(t, plan.Habits, stored.Habits)
}

func TestWeeklyPlanCached(t *testing.T) {
	body, err := json.Marshal(PlanData{
		WeekStart: "2024-03-11",
		Habits:    []PlanHabit{{Description: "Check account balance daily", WeeklyOccurrences: 7}},
	})
	require.NoError(t, err)

	svc, store := newTestService(t, Options{})
	store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2023-01-01"), nil)
	store.EXPECT().GetWeeklyPlan(gomock.Any(), userID, day("2024-03-11")).Return(&model.WeeklyPlan{
		UserID:    userID,
		WeekStart: day("2024-03-11"),
		Data:      body,
		IsActive:  true,
	}, nil)

	res, err := svc.WeeklyPlan(context.Background(), userID, now)
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, "2024-03-11", res.Plan.WeekStart)
	assert.Len(t, res.Plan.Habits, 1)
}

func TestWeeklyPlanNoData(t *testing.T) {
	ctx := context.Background()

	t.Run("no goal", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2023-01-01"), nil)
		store.EXPECT().GetWeeklyPlan(gomock.Any(), userID, gomock.Any()).Return(nil, notFound("weekly plan"))
		store.EXPECT().GetLatestGoal(gomock.Any(), userID).Return(nil, noGoal())

		res, err := svc.WeeklyPlan(ctx, userID, now)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoData, res.Outcome)
		assert.Nil(t, res.Plan)
	})

	t.Run("no transactions", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2023-01-01"), nil)
		store.EXPECT().GetWeeklyPlan(gomock.Any(), userID, gomock.Any()).Return(nil, notFound("weekly plan"))
		store.EXPECT().GetLatestGoal(gomock.Any(), userID).Return(goalFor("1000", "3000"), nil)
		store.EXPECT().GetTransactions(gomock.Any(), userID, gomock.Any(), gomock.Any()).Return(nil, nil)

		res, err := svc.WeeklyPlan(ctx, userID, now)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoData, res.Outcome)
	})

	t.Run("storage error", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2023-01-01"), nil)
		store.EXPECT().GetWeeklyPlan(gomock.Any(), userID, gomock.Any()).Return(nil, errors.New("database is locked"))

		_, err := svc.WeeklyPlan(ctx, userID, now)
		assert.ErrorContains(t, err, "database is locked")
	})
}

func TestHabits(t *testing.T) {
	body, err := json.Marshal(PlanData{Habits: []PlanHabit{
		{Description: "Check account balance daily", WeeklyOccurrences: 7},
		{Description: "", WeeklyOccurrences: 1},
		{Description: "Review Food spending before purchases", WeeklyOccurrences: 3},
	}})
	require.NoError(t, err)

	svc, store := newTestService(t, Options{})
	store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2023-01-01"), nil)
	store.EXPECT().GetWeeklyPlan(gomock.Any(), userID, gomock.Any()).Return(&model.WeeklyPlan{Data: body}, nil)

	res, err := svc.Habits(context.Background(), userID, now)
	require.NoError(t, err)
	require.Len(t, res.Habits, 2)
	assert.Equal(t, UserHabit{ID: 1, Description: "Check account balance daily", WeeklyOccurrences: 7}, res.Habits[0])
	assert.Equal(t, 3, res.Habits[1].ID)
	assert.False(t, res.Habits[1].IsCompleted)
	assert.Zero(t, res.Habits[1].StreakCount)
}

func TestHabitsWithoutPlan(t *testing.T) {
	svc, store := newTestService(t, Options{})
	store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2023-01-01"), nil)
	store.EXPECT().GetWeeklyPlan(gomock.Any(), userID, gomock.Any()).Return(nil, notFound("weekly plan"))
	store.EXPECT().GetLatestGoal(gomock.Any(), userID).Return(nil, noGoal())

	res, err := svc.Habits(context.Background(), userID, now)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoData, res.Outcome)
	assert.Empty(t, res.Habits)
}

func TestHabitAccomplishments(t *testing.T) {
	ctx := context.Background()

	t.Run("improvements are capped at three", func(t *testing.T) {
		narrator := &narrative.MockNarrator{}
		svc, store := newTestService(t, Options{Narrator: narrator})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2023-01-01"), nil)
		store.EXPECT().GetTransactions(gomock.Any(), userID, day("2024-02-01"), day("2024-03-13")).Return([]model.Transaction{
			txn("a", "2024-03-04", "-20", "Dining"),
			txn("b", "2024-03-05", "-20", "Dining"),
			txn("c", "2024-03-06", "-20", "Dining"),
			txn("d", "2024-03-07", "-40", "Shopping"),
			txn("e", "2024-03-11", "-10", "Dining"),
		}, nil)

		res, err := svc.HabitAccomplishments(ctx, userID, now)
		require.NoError(t, err)
		assert.Equal(t, OutcomeOK, res.Outcome)
		assert.Equal(t, []Accomplishment{
			{Description: "You reduced spending by $90 this week compared to last week", Value: "90"},
			{Description: "You cut dining spending by $50 this week", Value: "50"},
			{Description: "You cut shopping spending by $40 this week", Value: "40"},
		}, res.Accomplishments)

		assert.Equal(t, "narrated accomplishments", res.Summary)
		require.Len(t, narrator.Calls, 1)
		assert.Len(t, narrator.Calls[0].Highlights, 3)
	})

	t.Run("fewer purchases and clean days", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2023-01-01"), nil)
		store.EXPECT().GetTransactions(gomock.Any(), userID, gomock.Any(), gomock.Any()).Return([]model.Transaction{
			txn("a", "2024-03-04", "-3", "Coffee"),
			txn("b", "2024-03-05", "-3", "Coffee"),
			txn("c", "2024-03-06", "-3", "Coffee"),
			txn("d", "2024-03-07", "-3", "Coffee"),
			txn("e", "2024-03-12", "-4", "Coffee"),
		}, nil)

		res, err := svc.HabitAccomplishments(ctx, userID, now)
		require.NoError(t, err)
		assert.Equal(t, []Accomplishment{
			{Description: "You made 3 fewer impulse purchases this week", Value: "3"},
			{Description: "You had 3 anomaly-free days this week", Value: "3"},
		}, res.Accomplishments)
		assert.Contains(t, res.Summary, "fewer impulse purchases")
	})

	t.Run("month over month", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2023-01-01"), nil)
		store.EXPECT().GetTransactions(gomock.Any(), userID, gomock.Any(), gomock.Any()).Return([]model.Transaction{
			txn("a", "2024-02-05", "-300", "Rent"),
			txn("b", "2024-02-20", "-999", "Rent"),
			txn("c", "2024-03-02", "-100", "Rent"),
		}, nil)

		res, err := svc.HabitAccomplishments(ctx, userID, now)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoData, res.Outcome)
		assert.Equal(t, []Accomplishment{
			{Description: "You've spent $200 less this month than at this point last month", Value: "200"},
		}, res.Accomplishments)
	})

	t.Run("fallbacks", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2023-01-01"), nil)
		store.EXPECT().GetTransactions(gomock.Any(), userID, gomock.Any(), gomock.Any()).Return(nil, nil)

		res, err := svc.HabitAccomplishments(ctx, userID, now)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoData, res.Outcome)
		assert.Equal(t, fallbackAccomplishments, res.Accomplishments)
		assert.Equal(t, "You're tracking your spending consistently.", res.Summary)
	})
}

func TestWeeklyRecap(t *testing.T) {
	ctx := context.Background()

	t.Run("generates and stores", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		txns := append([]model.Transaction{txn("prev", "2024-02-26", "-50", "Dining")},
			foodWeek("2024-03-04", "2024-03-05", "2024-03-06", "2024-03-07", "2024-03-08")...)

		var saved *model.WeeklyRecap
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2023-01-01"), nil)
		store.EXPECT().GetWeeklyRecap(gomock.Any(), userID, day("2024-03-04")).Return(nil, notFound("weekly recap"))
		store.EXPECT().GetTransactions(gomock.Any(), userID, day("2024-01-01"), day("2024-03-10")).Return(txns, nil)
		store.EXPECT().SaveWeeklyRecap(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *model.WeeklyRecap) error {
			saved = r
			return nil
		})

		res, err := svc.WeeklyRecap(ctx, userID, now)
		require.NoError(t, err)
		assert.Equal(t, OutcomeOK, res.Outcome)

		recap := res.Recap
		require.NotNil(t, recap)
		assert.Equal(t, "2024-03-04", recap.WeekStart)
		assert.Equal(t, "2024-03-10", recap.WeekEnd)
		assertDecimal(t, "273", recap.TotalSpent)
		assertDecimal(t, "50", recap.PreviousWeekSpent)
		assert.Equal(t, "Food", recap.TopCategory)
		assert.Equal(t, []string{"2024-03-08"}, recap.AnomalousDays)
		assert.Equal(t, 6, recap.AnomalyFreeDays)
		assert.Equal(t, 67, recap.LongestStreak)
		assert.Equal(t, 5, recap.TransactionCount)
		assert.Equal(t,
			"Week of 2024-03-04: you spent $273.00, up $223.00 from the week before. Food was your top category. "+
				"You had 6 anomaly-free days and your longest streak this year is 67 days.",
			recap.Narrative)

		require.NotNil(t, saved)
		assert.Equal(t, day("2024-03-10"), saved.WeekEnd)
	})

	t.Run("narrator failure falls back to template", func(t *testing.T) {
		narrator := &narrative.MockNarrator{NarrateFn: func(context.Context, narrative.Facts) (string, error) {
			return "", errors.New("provider down")
		}}
		svc, store := newTestService(t, Options{Narrator: narrator})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2023-01-01"), nil)
		store.EXPECT().GetWeeklyRecap(gomock.Any(), userID, gomock.Any()).Return(nil, notFound("weekly recap"))
		store.EXPECT().GetTransactions(gomock.Any(), userID, gomock.Any(), gomock.Any()).Return([]model.Transaction{
			txn("a", "2024-03-05", "-20", "Food"),
		}, nil)
		store.EXPECT().SaveWeeklyRecap(gomock.Any(), gomock.Any()).Return(errors.New("read-only database"))

		res, err := svc.WeeklyRecap(ctx, userID, now)
		require.NoError(t, err)
		assert.Contains(t, res.Recap.Narrative, "Week of 2024-03-04: you spent $20.00.")
		assert.Len(t, narrator.Calls, 1)
	})

	t.Run("cached", func(t *testing.T) {
		body, err := json.Marshal(RecapData{WeekStart: "2024-03-04", TotalSpent: decimal.NewFromInt(12)})
		require.NoError(t, err)

		svc, store := newTestService(t, Options{})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2023-01-01"), nil)
		store.EXPECT().GetWeeklyRecap(gomock.Any(), userID, day("2024-03-04")).Return(&model.WeeklyRecap{Data: body}, nil)

		res, err := svc.WeeklyRecap(ctx, userID, now)
		require.NoError(t, err)
		assert.True(t, res.Cached)
		assertDecimal(t, "12", res.Recap.TotalSpent)
	})

	t.Run("empty week", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2023-01-01"), nil)
		store.EXPECT().GetWeeklyRecap(gomock.Any(), userID, gomock.Any()).Return(nil, notFound("weekly recap"))
		store.EXPECT().GetTransactions(gomock.Any(), userID, gomock.Any(), gomock.Any()).Return([]model.Transaction{
			txn("a", "2024-02-20", "-20", "Food"),
		}, nil)

		res, err := svc.WeeklyRecap(ctx, userID, now)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoData, res.Outcome)
		assert.Nil(t, res.Recap)
	})

	t.Run("signed up this week", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2024-03-12"), nil)
		store.EXPECT().GetWeeklyRecap(gomock.Any(), userID, gomock.Any()).Return(nil, notFound("weekly recap"))

		res, err := svc.WeeklyRecap(ctx, userID, now)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoData, res.Outcome)
	})
}

func TestSubmitGoal(t *testing.T) {
	ctx := context.Background()
	valid := GoalSubmission{
		Name:             "  Emergency fund ",
		Amount:           dec("1000"),
		NetMonthlyIncome: dec("3000"),
		TargetDate:       day("2024-12-31"),
	}

	tests := []struct {
		name    string
		mutate  func(*GoalSubmission)
		message string
	}{
		{name: "missing name", mutate: func(g *GoalSubmission) { g.Name = " " }, message: "Goal name is required"},
		{name: "zero amount", mutate: func(g *GoalSubmission) { g.Amount = decimal.Zero }, message: "Goal amount must be positive"},
		{name: "negative income", mutate: func(g *GoalSubmission) { g.NetMonthlyIncome = dec("-1") }, message: "Net monthly income must be positive"},
		{name: "past target", mutate: func(g *GoalSubmission) { g.TargetDate = day("2024-03-12") }, message: "Target date cannot be in the past"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t, Options{})
			store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2023-01-01"), nil)

			sub := valid
			tt.mutate(&sub)
			_, err := svc.SubmitGoal(ctx, userID, sub, now)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidInput)
			msg, ok := common.UserMessage(err)
			assert.True(t, ok)
			assert.Equal(t, tt.message, msg)
		})
	}

	t.Run("saves", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2023-01-01"), nil)
		store.EXPECT().SaveGoal(gomock.Any(), gomock.Any()).Return(nil)

		goal, err := svc.SubmitGoal(ctx, userID, valid, now)
		require.NoError(t, err)
		assert.Equal(t, "Emergency fund", goal.Name)
		assert.Equal(t, userID, goal.UserID)
		assert.Equal(t, now, goal.CreatedAt)
		assertDecimal(t, "1000", goal.Amount)
	})
}
