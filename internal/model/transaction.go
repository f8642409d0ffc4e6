package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCategory is used for transactions that arrive without a category.
const DefaultCategory = "Other"

// Transaction represents a single financial transaction from any source.
//
// Amount is signed: negative values are expenses, positive values are income
// or deposits. Everything downstream relies on this convention.
type Transaction struct {
	Date         time.Time
	CreatedAt    time.Time
	ID           string
	UserID       string
	AccountID    string
	Name         string // Raw transaction description
	MerchantName string // Cleaned merchant name, optional
	Category     string
	Hash         string
	Amount       decimal.Decimal
}

// IsExpense reports whether the transaction is money out.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// IsIncome reports whether the transaction is money in.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// AbsAmount returns the unsigned amount.
func (t Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// CategoryOrDefault returns the category, or DefaultCategory when it is blank.
func (t Transaction) CategoryOrDefault() string {
	if c := strings.TrimSpace(t.Category); c != "" {
		return c
	}
	return DefaultCategory
}

// Day returns the calendar date of the transaction at midnight UTC.
func (t Transaction) Day() time.Time {
	return DateOf(t.Date)
}

// GenerateHash creates a unique hash for duplicate detection. The source id
// is part of the hash so two genuine purchases with identical details stay
// distinct while a re-import of the same id collapses.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s:%s:%s",
		t.UserID,
		t.ID,
		t.Date.Format(DateLayout),
		t.Amount.StringFixed(2),
		t.MerchantName,
		t.Name,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
