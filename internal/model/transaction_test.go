package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func coffee() Transaction {
	return Transaction{
		ID:           "plaid-a",
		UserID:       "u1",
		AccountID:    "checking",
		Date:         day(2024, 3, 4),
		Name:         "BLUE BOTTLE 0042",
		MerchantName: "Blue Bottle",
		Amount:       decimal.RequireFromString("-4.50"),
		Category:     "Food",
	}
}

func TestGenerateHash(t *testing.T) {
	base := coffee()
	baseHash := base.GenerateHash()

	tests := []struct {
		mutate   func(*Transaction)
		name     string
		wantSame bool
	}{
		{name: "identical", mutate: func(*Transaction) {}, wantSame: true},
		{name: "category is not hashed", mutate: func(t *Transaction) { t.Category = "Coffee" }, wantSame: true},
		{name: "time of day is not hashed", mutate: func(t *Transaction) { t.Date = t.Date.Add(9 * time.Hour) }, wantSame: true},
		{name: "amount scale is not hashed", mutate: func(t *Transaction) { t.Amount = decimal.RequireFromString("-4.5") }, wantSame: true},
		{name: "second purchase with its own id", mutate: func(t *Transaction) { t.ID = "plaid-b" }},
		{name: "other user", mutate: func(t *Transaction) { t.UserID = "u2" }},
		{name: "other account", mutate: func(t *Transaction) { t.AccountID = "savings" }},
		{name: "other day", mutate: func(t *Transaction) { t.Date = day(2024, 3, 5) }},
		{name: "other amount", mutate: func(t *Transaction) { t.Amount = decimal.RequireFromString("-4.51") }},
		{name: "other name", mutate: func(t *Transaction) { t.Name = "BLUE BOTTLE 0043" }},
		{name: "other merchant", mutate: func(t *Transaction) { t.MerchantName = "Bluebottle" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := coffee()
			tt.mutate(&other)
			assert.Equal(t, tt.wantSame, other.GenerateHash() == baseHash)
		})
	}

	assert.Len(t, baseHash, 64)
}

func TestTransaction_Sign(t *testing.T) {
	expense := coffee()
	assert.True(t, expense.IsExpense())
	assert.False(t, expense.IsIncome())
	assert.Equal(t, "4.5", expense.AbsAmount().String())

	income := coffee()
	income.Amount = decimal.NewFromInt(2500)
	assert.True(t, income.IsIncome())
	assert.False(t, income.IsExpense())

	blank := coffee()
	blank.Category = "  "
	assert.Equal(t, DefaultCategory, blank.CategoryOrDefault())
}
