// Package model defines the core domain models used throughout the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is an account holder.
type User struct {
	CreatedAt time.Time
	ID        string
	Email     string
	Name      string
}

// SignupDate returns the calendar date the user created their account.
func (u User) SignupDate() time.Time {
	return DateOf(u.CreatedAt)
}

// Goal is a savings goal captured by the onboarding quiz.
type Goal struct {
	TargetDate       time.Time
	CreatedAt        time.Time
	UserID           string
	Name             string
	Description      string
	Amount           decimal.Decimal
	NetMonthlyIncome decimal.Decimal
}

// WeeksUntilTarget returns the fractional number of weeks between now and the
// goal's target date, never less than one.
func (g Goal) WeeksUntilTarget(now time.Time) decimal.Decimal {
	days := DateOf(g.TargetDate).Sub(DateOf(now)).Hours() / 24
	weeks := decimal.NewFromFloat(days).Div(decimal.NewFromInt(7))
	if weeks.LessThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return weeks
}

// PlaidConnection stores the Plaid item linked for a user.
type PlaidConnection struct {
	ConnectedAt time.Time
	UserID      string
	AccessToken string
	ItemID      string
	AccountIDs  []string
}
