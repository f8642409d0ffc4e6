package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Veraticus/noumi/internal/model"
	"github.com/shopspring/decimal"
)

const (
	trendDays        = 365
	statusDays       = 30
	categoryMonths   = 3
	unknownMerchant  = "Unknown"
	monthLayout      = "2006-01"
	progressDecimals = 4
)

// Trend is one observation about a user's spending habits.
type Trend struct {
	Icon string
	Text string
	Kind string
}

// Trend kinds.
const (
	TrendWeekday  = "weekday"
	TrendMerchant = "merchant"
	TrendCategory = "category"
)

// TrendsResult lists spending trends over the last year.
type TrendsResult struct {
	Outcome Outcome
	Trends  []Trend
}

// SpendingTrends reports the weekday with the highest spend, the merchant with
// the highest spend, and the most frequent category over the last year.
func (s *Service) SpendingTrends(ctx context.Context, userID string, now time.Time) (*TrendsResult, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}

	today := model.DateOf(now)
	txns, err := s.transactions(ctx, userID, today.AddDate(0, 0, -trendDays), today)
	if err != nil {
		return nil, err
	}
	spent := expenses(txns)
	if len(spent) == 0 {
		return &TrendsResult{Outcome: OutcomeNoData, Trends: []Trend{}}, nil
	}

	var byWeekday [7]decimal.Decimal
	byMerchant := make(map[string]decimal.Decimal)
	byCategory := make(map[string]int)
	for _, txn := range spent {
		byWeekday[txn.Day().Weekday()] = byWeekday[txn.Day().Weekday()].Add(txn.AbsAmount())
		byMerchant[merchantName(txn)] = byMerchant[merchantName(txn)].Add(txn.AbsAmount())
		byCategory[txn.CategoryOrDefault()]++
	}

	// Monday first so that ties resolve to the earliest weekday.
	weekday := time.Monday
	for i := 1; i < 7; i++ {
		d := time.Weekday((int(time.Monday) + i) % 7)
		if byWeekday[d].GreaterThan(byWeekday[weekday]) {
			weekday = d
		}
	}

	return &TrendsResult{
		Outcome: OutcomeOK,
		Trends: []Trend{
			{Kind: TrendWeekday, Icon: "📅", Text: fmt.Sprintf("You tend to spend the most on %ss", weekday)},
			{Kind: TrendMerchant, Icon: "🏪", Text: fmt.Sprintf("%s is your favorite merchant", topByAmount(byMerchant))},
			{Kind: TrendCategory, Icon: "🛍️", Text: fmt.Sprintf("%s is your most frequent category", mostFrequent(byCategory))},
		},
	}, nil
}

func merchantName(txn model.Transaction) string {
	switch {
	case txn.MerchantName != "":
		return txn.MerchantName
	case txn.Name != "":
		return txn.Name
	}
	return unknownMerchant
}

func mostFrequent(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	top := ""
	for _, name := range names {
		if top == "" || counts[name] > counts[top] {
			top = name
		}
	}
	return top
}

// CategorySpend is the spend of one category in one month.
type CategorySpend struct {
	Category string
	Month    string // YYYY-MM
	Amount   decimal.Decimal
}

// CategoriesResult lists category spend, most recent month first.
type CategoriesResult struct {
	Outcome    Outcome
	Categories []CategorySpend
}

// SpendingCategories returns per-category spend for the current month to
// date and the two calendar months before it.
func (s *Service) SpendingCategories(ctx context.Context, userID string, now time.Time) (*CategoriesResult, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}

	today := model.DateOf(now)
	current := model.MonthStart(today)
	res := &CategoriesResult{Categories: []CategorySpend{}}

	for offset := 0; offset < categoryMonths; offset++ {
		start := current.AddDate(0, -offset, 0)
		end := start.AddDate(0, 1, -1)
		if offset == 0 {
			end = today
		}

		spend, err := s.store.GetSpendingByCategory(ctx, userID, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to load category spending: %w", err)
		}

		month := make([]CategorySpend, 0, len(spend))
		for category, amount := range spend {
			month = append(month, CategorySpend{Category: category, Month: start.Format(monthLayout), Amount: amount.Round(2)})
		}
		sort.Slice(month, func(i, j int) bool {
			if !month[i].Amount.Equal(month[j].Amount) {
				return month[i].Amount.GreaterThan(month[j].Amount)
			}
			return month[i].Category < month[j].Category
		})
		res.Categories = append(res.Categories, month...)
	}

	res.Outcome = outcomeFor(len(res.Categories) > 0)
	return res, nil
}

// StatusResult compares monthly income with recent spending.
type StatusResult struct {
	Outcome     Outcome
	Income      decimal.Decimal
	Expenses    decimal.Decimal
	SafeToSpend decimal.Decimal
}

// SpendingStatus compares the goal's net monthly income with the last 30 days
// of expenses. Safe-to-spend never goes below zero.
func (s *Service) SpendingStatus(ctx context.Context, userID string, now time.Time) (*StatusResult, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}
	goal, err := s.goal(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := model.DateOf(now)
	txns, err := s.transactions(ctx, userID, today.AddDate(0, 0, -statusDays), today)
	if err != nil {
		return nil, err
	}
	_, spent := totals(txns)

	res := &StatusResult{Outcome: OutcomeOK, Expenses: spent.Round(2)}
	if goal == nil {
		res.Outcome = OutcomeNoData
		return res, nil
	}
	res.Income = goal.NetMonthlyIncome.Round(2)
	res.SafeToSpend = decimal.Max(res.Income.Sub(res.Expenses), decimal.Zero)
	return res, nil
}

// SavingsResult is this week's savings against the goal's weekly target.
type SavingsResult struct {
	WeekStart        time.Time
	Outcome          Outcome
	Income           decimal.Decimal
	Expenses         decimal.Decimal
	ActualSavings    decimal.Decimal
	SuggestedSavings decimal.Decimal
}

// WeeklySavings returns this week's income minus expenses and the weekly
// amount needed to reach the goal on time.
func (s *Service) WeeklySavings(ctx context.Context, userID string, now time.Time) (*SavingsResult, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}
	goal, err := s.goal(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := model.DateOf(now)
	weekStart := model.WeekStart(today)
	txns, err := s.transactions(ctx, userID, weekStart, weekStart.AddDate(0, 0, 6))
	if err != nil {
		return nil, err
	}
	income, spent := totals(txns)

	res := &SavingsResult{
		WeekStart:     weekStart,
		Outcome:       outcomeFor(len(txns) > 0),
		Income:        income.Round(2),
		Expenses:      spent.Round(2),
		ActualSavings: income.Sub(spent).Round(2),
	}
	if goal != nil {
		res.SuggestedSavings = weeklyTarget(*goal, now)
	}
	return res, nil
}

func weeklyTarget(goal model.Goal, now time.Time) decimal.Decimal {
	return goal.Amount.Div(goal.WeeksUntilTarget(now)).Round(2)
}

// TotalSpentResult is the year-to-date expense total.
type TotalSpentResult struct {
	Start   time.Time
	Outcome Outcome
	Total   decimal.Decimal
}

// TotalSpentYTD sums expenses since the later of signup and January 1st.
func (s *Service) TotalSpentYTD(ctx context.Context, userID string, now time.Time) (*TotalSpentResult, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	start, end := yearWindow(user, model.DateOf(now))
	txns, err := s.transactions(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	_, spent := totals(txns)

	return &TotalSpentResult{
		Start:   start,
		Outcome: outcomeFor(len(expenses(txns)) > 0),
		Total:   spent.Round(2),
	}, nil
}

// ComputedGoalResult is the goal with progress measured from transactions.
type ComputedGoalResult struct {
	TargetDate  time.Time
	Outcome     Outcome
	GoalName    string
	GoalAmount  decimal.Decimal
	AmountSaved decimal.Decimal
	Progress    decimal.Decimal // AmountSaved / GoalAmount, clamped to [0, 1]
}

// ComputedGoal reports how much the user has saved toward their goal since
// the later of signup and January 1st.
func (s *Service) ComputedGoal(ctx context.Context, userID string, now time.Time) (*ComputedGoalResult, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	goal, err := s.goal(ctx, userID)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return &ComputedGoalResult{Outcome: OutcomeNoData}, nil
	}

	start, end := yearWindow(user, model.DateOf(now))
	txns, err := s.transactions(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	income, spent := totals(txns)
	saved := income.Sub(spent).Round(2)

	progress := decimal.Zero
	if goal.Amount.IsPositive() {
		progress = decimal.Min(decimal.Max(saved.Div(goal.Amount), decimal.Zero), decimal.NewFromInt(1)).Round(progressDecimals)
	}

	return &ComputedGoalResult{
		Outcome:     OutcomeOK,
		GoalName:    goal.Name,
		TargetDate:  goal.TargetDate,
		GoalAmount:  goal.Amount.Round(2),
		AmountSaved: saved,
		Progress:    progress,
	}, nil
}
