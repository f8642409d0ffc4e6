package testutil

import (
	"fmt"
	"testing"

	"github.com/Veraticus/noumi/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// TransactionBuilder accumulates transactions for one user.
//
//	txns := testutil.NewTransactions(t, user.ID).
//		Expense("2024-03-11", "Food", "10").
//		Income("2024-03-01", "3000").
//		Build()
type TransactionBuilder struct {
	t      *testing.T
	userID string
	txns   []model.Transaction
}

// NewTransactions starts a builder for userID.
func NewTransactions(t *testing.T, userID string) *TransactionBuilder {
	t.Helper()
	return &TransactionBuilder{t: t, userID: userID}
}

// Expense adds a debit of amount (given as a positive number) on date.
func (b *TransactionBuilder) Expense(date, category, amount string) *TransactionBuilder {
	b.t.Helper()
	return b.add(date, category, decimal.RequireFromString(amount).Abs().Neg())
}

// Income adds a credit of amount on date.
func (b *TransactionBuilder) Income(date, amount string) *TransactionBuilder {
	b.t.Helper()
	return b.add(date, "Income", decimal.RequireFromString(amount).Abs())
}

// Named renames the most recently added transaction.
func (b *TransactionBuilder) Named(name, merchant string) *TransactionBuilder {
	b.t.Helper()
	require.NotEmpty(b.t, b.txns, "Named needs a transaction to rename")
	last := &b.txns[len(b.txns)-1]
	last.Name = name
	last.MerchantName = merchant
	last.Hash = last.GenerateHash()
	return b
}

func (b *TransactionBuilder) add(date, category string, amount decimal.Decimal) *TransactionBuilder {
	b.t.Helper()
	day, err := model.ParseDate(date)
	require.NoError(b.t, err)

	n := len(b.txns) + 1
	txn := model.Transaction{
		ID:        fmt.Sprintf("t%d", n),
		UserID:    b.userID,
		AccountID: "checking",
		Date:      day,
		Name:      fmt.Sprintf("Purchase %d", n),
		Category:  category,
		Amount:    amount,
	}
	txn.Hash = txn.GenerateHash()
	b.txns = append(b.txns, txn)
	return b
}

// Build returns the accumulated transactions. IDs are t1, t2, ... in insertion order.
func (b *TransactionBuilder) Build() []model.Transaction {
	out := make([]model.Transaction, len(b.txns))
	copy(out, b.txns)
	return out
}
