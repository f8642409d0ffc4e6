package anomaly

import (
	"math"

	"github.com/Veraticus/noumi/internal/model"
	"github.com/shopspring/decimal"
)

// userScopeKey groups every expense together for user-wide statistics.
const userScopeKey = "\x00user"

// CategoryStatistics summarizes the absolute expense amounts of one scope.
type CategoryStatistics struct {
	Sum       decimal.Decimal
	MeanFloat float64
	StdDev    float64 // population standard deviation
	Count     int
}

// Mean returns the exact mean as a decimal, or zero for an empty scope.
func (s CategoryStatistics) Mean() decimal.Decimal {
	if s.Count == 0 {
		return decimal.Zero
	}
	return s.Sum.Div(decimal.NewFromInt(int64(s.Count)))
}

// NewCategoryStatistics computes statistics over the given absolute amounts.
func NewCategoryStatistics(amounts []decimal.Decimal) CategoryStatistics {
	stats := CategoryStatistics{Sum: decimal.Zero, Count: len(amounts)}
	if len(amounts) == 0 {
		return stats
	}

	for _, a := range amounts {
		stats.Sum = stats.Sum.Add(a)
	}
	stats.MeanFloat = stats.Mean().InexactFloat64()

	var variance float64
	for _, a := range amounts {
		diff := a.InexactFloat64() - stats.MeanFloat
		variance += diff * diff
	}
	stats.StdDev = math.Sqrt(variance / float64(len(amounts)))

	return stats
}

// Statistics returns per-category statistics for the expenses in transactions.
// Income never contributes.
func Statistics(transactions []model.Transaction) map[string]CategoryStatistics {
	return groupExpenses(transactions, false)
}

func groupExpenses(transactions []model.Transaction, userScope bool) map[string]CategoryStatistics {
	amounts := make(map[string][]decimal.Decimal)
	for _, txn := range transactions {
		if !txn.IsExpense() {
			continue
		}
		key := txn.CategoryOrDefault()
		if userScope {
			key = userScopeKey
		}
		amounts[key] = append(amounts[key], txn.AbsAmount())
	}

	groups := make(map[string]CategoryStatistics, len(amounts))
	for key, values := range amounts {
		groups[key] = NewCategoryStatistics(values)
	}
	return groups
}
