package sheets

import (
	"sort"
	"time"

	"github.com/Veraticus/noumi/internal/anomaly"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/Veraticus/noumi/internal/streak"
	"github.com/shopspring/decimal"
)

// TransactionRow is one row of the Transactions tab.
type TransactionRow struct {
	Date      time.Time
	Score     *decimal.Decimal
	Name      string
	Merchant  string
	Category  string
	Amount    decimal.Decimal
	Anomalous bool
}

// CategoryRow is one row of the Categories tab.
type CategoryRow struct {
	Category  string
	Total     decimal.Decimal
	Count     int
	Anomalies int
}

// WeekRow is one row of the Weekly tab. Days holds the weekly vector for
// Monday through Sunday, with -1 for days outside the report period.
type WeekRow struct {
	Start time.Time
	Days  [streak.DaysPerWeek]int
	Clean int
}

// MonthRow is one row of the Monthly tab.
type MonthRow struct {
	Month         time.Time
	Income        decimal.Decimal
	Expenses      decimal.Decimal
	Net           decimal.Decimal
	AnomalousDays int
}

// Report is everything exported for one user and period.
type Report struct {
	Start         time.Time
	End           time.Time
	UserName      string
	UserEmail     string
	Income        decimal.Decimal
	Expenses      decimal.Decimal
	Transactions  []TransactionRow
	Weeks         []WeekRow
	Categories    []CategoryRow
	Months        []MonthRow
	AnomalyCount  int
	LongestStreak int
	CurrentStreak int
}

// BuildReport assembles a report from the user's transactions in [start, end]
// and the verdicts computed over them.
func BuildReport(user model.User, txns []model.Transaction, verdicts anomaly.Result, start, end time.Time) Report {
	start, end = model.DateOf(start), model.DateOf(end)
	r := Report{
		Start:     start,
		End:       end,
		UserName:  user.Name,
		UserEmail: user.Email,
	}

	byCategory := make(map[string]*CategoryRow)
	byMonth := make(map[time.Time]*MonthRow)
	month := func(d time.Time) *MonthRow {
		key := model.MonthStart(d)
		if m, ok := byMonth[key]; ok {
			return m
		}
		m := &MonthRow{Month: key}
		byMonth[key] = m
		return m
	}

	var inRange []model.Transaction
	for _, txn := range txns {
		day := txn.Day()
		if day.Before(start) || day.After(end) {
			continue
		}
		inRange = append(inRange, txn)

		v := verdicts[txn.ID]
		r.Transactions = append(r.Transactions, TransactionRow{
			Date:      day,
			Score:     v.Score,
			Name:      txn.Name,
			Merchant:  txn.MerchantName,
			Category:  txn.CategoryOrDefault(),
			Amount:    txn.Amount,
			Anomalous: v.IsAnomaly,
		})

		m := month(day)
		switch {
		case txn.IsIncome():
			r.Income = r.Income.Add(txn.Amount)
			m.Income = m.Income.Add(txn.Amount)
		case txn.IsExpense():
			r.Expenses = r.Expenses.Add(txn.AbsAmount())
			m.Expenses = m.Expenses.Add(txn.AbsAmount())

			c, ok := byCategory[txn.CategoryOrDefault()]
			if !ok {
				c = &CategoryRow{Category: txn.CategoryOrDefault()}
				byCategory[c.Category] = c
			}
			c.Total = c.Total.Add(txn.AbsAmount())
			c.Count++
			if v.IsAnomaly {
				c.Anomalies++
				r.AnomalyCount++
			}
		}
	}

	daily := anomaly.Daily(inRange, verdicts)
	for _, day := range daily.AnomalousDays() {
		month(day).AnomalousDays++
	}
	state := streak.Run(daily, start, end)
	r.LongestStreak, r.CurrentStreak = state.Longest, state.Current
	r.Weeks = weeks(daily, start, end)

	sort.SliceStable(r.Transactions, func(i, j int) bool {
		return r.Transactions[i].Date.After(r.Transactions[j].Date)
	})

	for _, c := range byCategory {
		r.Categories = append(r.Categories, *c)
	}
	sort.Slice(r.Categories, func(i, j int) bool {
		if !r.Categories[i].Total.Equal(r.Categories[j].Total) {
			return r.Categories[i].Total.GreaterThan(r.Categories[j].Total)
		}
		return r.Categories[i].Category < r.Categories[j].Category
	})

	for _, m := range byMonth {
		m.Net = m.Income.Sub(m.Expenses)
		r.Months = append(r.Months, *m)
	}
	sort.Slice(r.Months, func(i, j int) bool { return r.Months[i].Month.Before(r.Months[j].Month) })

	return r
}

func weeks(daily anomaly.DailyVerdicts, start, end time.Time) []WeekRow {
	var rows []WeekRow
	for ws := model.WeekStart(start); !ws.After(end); ws = ws.AddDate(0, 0, streak.DaysPerWeek) {
		vector, err := streak.WeeklyVector(daily, ws)
		if err != nil {
			continue
		}
		row := WeekRow{Start: ws}
		for i := range vector {
			day := ws.AddDate(0, 0, i)
			if day.Before(start) || day.After(end) {
				row.Days[i] = -1
				continue
			}
			row.Days[i] = vector[i]
			row.Clean += vector[i]
		}
		rows = append(rows, row)
	}
	return rows
}

// Net is income minus expenses over the whole report.
func (r Report) Net() decimal.Decimal {
	return r.Income.Sub(r.Expenses)
}
