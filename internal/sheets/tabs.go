package sheets

import (
	"fmt"

	"github.com/Veraticus/noumi/internal/model"
	"github.com/shopspring/decimal"
)

// Tab names, in the order they appear in the spreadsheet.
const (
	TabSummary      = "Summary"
	TabWeekly       = "Weekly"
	TabTransactions = "Transactions"
	TabCategories   = "Categories"
	TabMonthly      = "Monthly"
)

// tab is the rendered content of one sheet. The first row is the header.
type tab struct {
	name            string
	values          [][]any
	currencyColumns []int64
}

func (r Report) tabs() []tab {
	return []tab{r.summaryTab(), r.weeklyTab(), r.transactionsTab(), r.categoriesTab(), r.monthlyTab()}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func (r Report) summaryTab() tab {
	return tab{
		name: TabSummary,
		values: [][]any{
			{"Noumi Report", fmt.Sprintf("%s - %s", r.Start.Format("Jan 2, 2006"), r.End.Format("Jan 2, 2006"))},
			{"Name", r.UserName},
			{"Email", r.UserEmail},
			{"Total Income", money(r.Income)},
			{"Total Expenses", money(r.Expenses)},
			{"Net", money(r.Net())},
			{"Transactions", len(r.Transactions)},
			{"Anomalous Transactions", r.AnomalyCount},
			{"Longest Streak (days)", r.LongestStreak},
			{"Current Streak (days)", r.CurrentStreak},
		},
	}
}

func (r Report) weeklyTab() tab {
	values := make([][]any, 0, len(r.Weeks)+1)
	values = append(values, []any{"Week of", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun", "Clean Days"})
	for _, w := range r.Weeks {
		row := []any{w.Start.Format(model.DateLayout)}
		for _, d := range w.Days {
			if d < 0 {
				row = append(row, "")
			} else {
				row = append(row, d)
			}
		}
		values = append(values, append(row, w.Clean))
	}
	return tab{name: TabWeekly, values: values}
}

func (r Report) transactionsTab() tab {
	values := make([][]any, 0, len(r.Transactions)+1)
	values = append(values, []any{"Date", "Name", "Merchant", "Category", "Amount", "Anomaly", "Score"})
	for _, t := range r.Transactions {
		score := ""
		if t.Score != nil {
			score = t.Score.StringFixed(2)
		}
		anomalous := ""
		if t.Anomalous {
			anomalous = "yes"
		}
		values = append(values, []any{
			t.Date.Format(model.DateLayout),
			t.Name,
			t.Merchant,
			t.Category,
			money(t.Amount),
			anomalous,
			score,
		})
	}
	return tab{name: TabTransactions, values: values, currencyColumns: []int64{4}}
}

func (r Report) categoriesTab() tab {
	values := make([][]any, 0, len(r.Categories)+1)
	values = append(values, []any{"Category", "Total", "Transactions", "Anomalies"})
	for _, c := range r.Categories {
		values = append(values, []any{c.Category, money(c.Total), c.Count, c.Anomalies})
	}
	return tab{name: TabCategories, values: values, currencyColumns: []int64{1}}
}

func (r Report) monthlyTab() tab {
	values := make([][]any, 0, len(r.Months)+1)
	values = append(values, []any{"Month", "Income", "Expenses", "Net", "Anomalous Days"})
	for _, m := range r.Months {
		values = append(values, []any{m.Month.Format("January 2006"), money(m.Income), money(m.Expenses), money(m.Net), m.AnomalousDays})
	}
	return tab{name: TabMonthly, values: values, currencyColumns: []int64{1, 2, 3}}
}
