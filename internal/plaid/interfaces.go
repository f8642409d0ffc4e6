package plaid

import (
	"context"
	"time"

	"github.com/Veraticus/noumi/internal/model"
)

// TransactionFetcher defines the contract for fetching transaction data for a linked item.
type TransactionFetcher interface {
	GetTransactions(ctx context.Context, accessToken, userID string, startDate, endDate time.Time) ([]model.Transaction, error)
	GetAccounts(ctx context.Context, accessToken string) ([]string, error)
}

// Linker covers the Plaid Link token flow.
type Linker interface {
	CreateLinkToken(ctx context.Context, userID string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (accessToken, itemID string, err error)
}

// Service is everything the application needs from Plaid.
type Service interface {
	TransactionFetcher
	Linker
}
