package api

import (
	"time"

	"github.com/Veraticus/noumi/internal/analytics"
	"github.com/Veraticus/noumi/internal/ingest"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/shopspring/decimal"
)

func dateString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateLayout)
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func newUserResponse(u *model.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: dateString(u.CreatedAt)}
}

type yearlyAnomaliesResponse struct {
	Status         string   `json:"status"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	TransactionIDs []string `json:"transaction_ids"`
	Classified     int      `json:"classified"`
}

func newYearlyAnomaliesResponse(r *analytics.YearlyAnomaliesResult) yearlyAnomaliesResponse {
	ids := r.TransactionIDs
	if ids == nil {
		ids = []string{}
	}
	return yearlyAnomaliesResponse{
		Status:         string(r.Outcome),
		Start:          dateString(r.Start),
		End:            dateString(r.End),
		TransactionIDs: ids,
		Classified:     r.Classified,
	}
}

type baselineResponse struct {
	Mean   decimal.Decimal `json:"mean"`
	StdDev float64         `json:"std_dev"`
	Count  int             `json:"count"`
}

type transactionAnomalyResponse struct {
	Score         *decimal.Decimal `json:"score"`
	Status        string           `json:"status"`
	TransactionID string           `json:"transaction_id"`
	Category      string           `json:"category"`
	Method        string           `json:"method,omitempty"`
	WindowStart   string           `json:"window_start"`
	WindowEnd     string           `json:"window_end"`
	Baseline      baselineResponse `json:"baseline"`
	IsAnomaly     bool             `json:"is_anomaly"`
}

func newTransactionAnomalyResponse(r *analytics.TransactionAnomalyResult) transactionAnomalyResponse {
	return transactionAnomalyResponse{
		Score:         r.Score,
		Status:        string(r.Outcome),
		TransactionID: r.TransactionID,
		Category:      r.Category,
		Method:        string(r.Method),
		WindowStart:   dateString(r.WindowStart),
		WindowEnd:     dateString(r.WindowEnd),
		Baseline: baselineResponse{
			Mean:   r.Baseline.Mean,
			StdDev: r.Baseline.StdDev,
			Count:  r.Baseline.Count,
		},
		IsAnomaly: r.IsAnomaly,
	}
}

type weeklyStreakResponse struct {
	Status        string   `json:"status"`
	WeekStart     string   `json:"week_start"`
	Days          []int    `json:"days"`
	AnomalousDays []string `json:"anomalous_days"`
	CleanDays     int      `json:"clean_days"`
}

func newWeeklyStreakResponse(r *analytics.WeeklyStreakResult) weeklyStreakResponse {
	days := r.AnomalousDays
	if days == nil {
		days = []string{}
	}
	return weeklyStreakResponse{
		Status:        string(r.Outcome),
		WeekStart:     dateString(r.WeekStart),
		Days:          r.Days[:],
		AnomalousDays: days,
		CleanDays:     r.CleanDays,
	}
}

type longestStreakResponse struct {
	Status        string `json:"status"`
	Start         string `json:"start"`
	End           string `json:"end"`
	LongestStreak int    `json:"longest_streak"`
	CurrentStreak int    `json:"current_streak"`
}

type trendResponse struct {
	Icon string `json:"icon"`
	Text string `json:"text"`
	Kind string `json:"kind"`
}

type trendsResponse struct {
	Status string          `json:"status"`
	Trends []trendResponse `json:"trends"`
}

func newTrendsResponse(r *analytics.TrendsResult) trendsResponse {
	out := trendsResponse{Status: string(r.Outcome), Trends: make([]trendResponse, 0, len(r.Trends))}
	for _, t := range r.Trends {
		out.Trends = append(out.Trends, trendResponse(t))
	}
	return out
}

type categorySpendResponse struct {
	Category string          `json:"category"`
	Month    string          `json:"month"`
	Amount   decimal.Decimal `json:"amount"`
}

type categoriesResponse struct {
	Status     string                  `json:"status"`
	Categories []categorySpendResponse `json:"categories"`
}

func newCategoriesResponse(r *analytics.CategoriesResult) categoriesResponse {
	out := categoriesResponse{Status: string(r.Outcome), Categories: make([]categorySpendResponse, 0, len(r.Categories))}
	for _, c := range r.Categories {
		out.Categories = append(out.Categories, categorySpendResponse(c))
	}
	return out
}

type statusResponse struct {
	Status      string          `json:"status"`
	Income      decimal.Decimal `json:"income"`
	Expenses    decimal.Decimal `json:"expenses"`
	SafeToSpend decimal.Decimal `json:"safe_to_spend"`
}

type savingsResponse struct {
	Status           string          `json:"status"`
	WeekStart        string          `json:"week_start"`
	Income           decimal.Decimal `json:"income"`
	Expenses         decimal.Decimal `json:"expenses"`
	ActualSavings    decimal.Decimal `json:"actual_savings"`
	SuggestedSavings decimal.Decimal `json:"suggested_savings"`
}

type totalSpentResponse struct {
	Status     string          `json:"status"`
	Start      string          `json:"start"`
	TotalSpent decimal.Decimal `json:"total_spent"`
}

type computedGoalResponse struct {
	Status      string          `json:"status"`
	GoalName    string          `json:"goal_name,omitempty"`
	TargetDate  string          `json:"target_date,omitempty"`
	GoalAmount  decimal.Decimal `json:"goal_amount"`
	AmountSaved decimal.Decimal `json:"amount_saved"`
	Progress    decimal.Decimal `json:"progress"`
}

type goalResponse struct {
	Name             string          `json:"goal_name"`
	Description      string          `json:"goal_description"`
	TargetDate       string          `json:"target_date"`
	CreatedAt        string          `json:"created_at"`
	Amount           decimal.Decimal `json:"goal_amount"`
	NetMonthlyIncome decimal.Decimal `json:"net_monthly_income"`
}

func newGoalResponse(g *model.Goal) goalResponse {
	return goalResponse{
		Name:             g.Name,
		Description:      g.Description,
		TargetDate:       dateString(g.TargetDate),
		CreatedAt:        dateString(g.CreatedAt),
		Amount:           g.Amount,
		NetMonthlyIncome: g.NetMonthlyIncome,
	}
}

type planResponse struct {
	Plan   *analytics.PlanData `json:"plan"`
	Status string              `json:"status"`
	Cached bool                `json:"cached"`
}

type habitResponse struct {
	Description       string `json:"description"`
	ID                int    `json:"id"`
	WeeklyOccurrences int    `json:"weekly_occurrences"`
	StreakCount       int    `json:"streak_count"`
	IsCompleted       bool   `json:"is_completed"`
}

type habitsResponse struct {
	Status string          `json:"status"`
	Habits []habitResponse `json:"habits"`
}

func newHabitsResponse(r *analytics.HabitsResult) habitsResponse {
	out := habitsResponse{Status: string(r.Outcome), Habits: make([]habitResponse, 0, len(r.Habits))}
	for _, h := range r.Habits {
		out.Habits = append(out.Habits, habitResponse(h))
	}
	return out
}

type accomplishmentResponse struct {
	Description string `json:"description"`
	Value       string `json:"value"`
}

type accomplishmentsResponse struct {
	Status          string                   `json:"status"`
	Summary         string                   `json:"summary"`
	Accomplishments []accomplishmentResponse `json:"accomplishments"`
}

func newAccomplishmentsResponse(r *analytics.AccomplishmentsResult) accomplishmentsResponse {
	out := accomplishmentsResponse{
		Status:          string(r.Outcome),
		Summary:         r.Summary,
		Accomplishments: make([]accomplishmentResponse, 0, len(r.Accomplishments)),
	}
	for _, a := range r.Accomplishments {
		out.Accomplishments = append(out.Accomplishments, accomplishmentResponse(a))
	}
	return out
}

type recapResponse struct {
	Recap  *analytics.RecapData `json:"recap"`
	Status string               `json:"status"`
	Cached bool                 `json:"cached"`
}

type linkTokenResponse struct {
	LinkToken string `json:"link_token"`
}

type connectResponse struct {
	ItemID      string   `json:"item_id"`
	ConnectedAt string   `json:"connected_at"`
	AccountIDs  []string `json:"account_ids"`
}

type syncResponse struct {
	Fetched    int `json:"fetched"`
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
}

func newSyncResponse(r *ingest.Result) syncResponse {
	return syncResponse{Fetched: r.Fetched, Inserted: r.Inserted, Duplicates: r.Duplicates()}
}
