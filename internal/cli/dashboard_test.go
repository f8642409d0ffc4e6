package cli

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/noumi/internal/analytics"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func plain(s string) string {
	return ansi.ReplaceAllString(s, "")
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		name     string
		fraction string
		filled   int
		percent  string
	}{
		{name: "half", fraction: "0.5", filled: 10, percent: "50%"},
		{name: "empty", fraction: "0", filled: 0, percent: "0%"},
		{name: "overflow is clamped", fraction: "1.7", filled: 20, percent: "100%"},
		{name: "negative is clamped", fraction: "-0.2", filled: 0, percent: "0%"},
		{name: "partial cell rounds down", fraction: "0.37", filled: 7, percent: "37%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := plain(ProgressBar(decimal.RequireFromString(tt.fraction), 20))
			assert.Equal(t, tt.filled, strings.Count(got, "█"))
			assert.Equal(t, 20-tt.filled, strings.Count(got, "░"))
			assert.True(t, strings.HasSuffix(got, " "+tt.percent), got)
		})
	}
}

func TestWeekLine(t *testing.T) {
	got := plain(WeekLine([7]int{1, 0, 1, 1, 1, 1, 1}))
	assert.Equal(t, "Mon ✓  Tue ✗  Wed ✓  Thu ✓  Fri ✓  Sat ✓  Sun ✓", got)
}

func TestTable(t *testing.T) {
	got := plain(Table([]string{"Category", "Spent"}, [][]string{
		{"Food", "$273.00"},
		{"Transport", "$20.00"},
	}))
	lines := strings.Split(got, "\n")
	assert.Contains(t, lines[0], "Category")
	assert.Contains(t, got, "Transport")
	assert.Contains(t, got, "$273.00")
}

func TestRenderDashboard(t *testing.T) {
	d := Dashboard{
		Name: "Saver",
		Week: &analytics.WeeklyStreakResult{Days: [7]int{1, 0, 1, 1, 1, 1, 1}},
		Longest: &analytics.LongestStreakResult{
			Longest: 67,
			Current: 1,
		},
		Anomalies: &analytics.YearlyAnomaliesResult{TransactionIDs: []string{"t5"}, Classified: 5},
		Total: &analytics.TotalSpentResult{
			Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Total: decimal.NewFromInt(273),
		},
		Goal: &analytics.ComputedGoalResult{
			Outcome:     analytics.OutcomeOK,
			GoalName:    "Emergency fund",
			TargetDate:  time.Date(2024, 5, 22, 0, 0, 0, 0, time.UTC),
			GoalAmount:  decimal.NewFromInt(1000),
			AmountSaved: decimal.NewFromInt(250),
			Progress:    decimal.RequireFromString("0.25"),
		},
		Trends: &analytics.TrendsResult{Trends: []analytics.Trend{{Icon: "📅", Text: "You tend to spend the most on Tuesdays"}}},
	}

	got := plain(RenderDashboard(d))
	assert.Contains(t, got, "Noumi report for Saver")
	assert.Contains(t, got, "Tue ✗")
	assert.Contains(t, got, "67 days")
	assert.Contains(t, got, "Spent since 2024-01-01: $273.00")
	assert.Contains(t, got, "Unusual purchases this year: 1 of 5")
	assert.Contains(t, got, "Emergency fund by May 22, 2024")
	assert.Contains(t, got, "25%")
	assert.Contains(t, got, "You tend to spend the most on Tuesdays")
	assert.NotContains(t, got, "Categories")
}
