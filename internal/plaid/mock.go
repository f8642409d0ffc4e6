package plaid

import (
	"context"
	"sync"
	"time"

	"github.com/Veraticus/noumi/internal/model"
)

// MockClient is a mock implementation of Service for testing.
type MockClient struct {
	GetTransactionsFn     func(ctx context.Context, accessToken, userID string, startDate, endDate time.Time) ([]model.Transaction, error)
	GetAccountsFn         func(ctx context.Context, accessToken string) ([]string, error)
	CreateLinkTokenFn     func(ctx context.Context, userID string) (string, error)
	ExchangePublicTokenFn func(ctx context.Context, publicToken string) (string, string, error)

	GetTransactionsCalls     []GetTransactionsCall
	GetAccountsCalls         int
	CreateLinkTokenCalls     []string
	ExchangePublicTokenCalls []string

	mu sync.Mutex
}

// GetTransactionsCall records the parameters of a GetTransactions call.
type GetTransactionsCall struct {
	StartDate   time.Time
	EndDate     time.Time
	AccessToken string
	UserID      string
}

// NewMockClient creates a new mock Plaid client.
func NewMockClient() *MockClient {
	return &MockClient{
		GetTransactionsCalls: []GetTransactionsCall{},
	}
}

// GetTransactions implements TransactionFetcher.
func (m *MockClient) GetTransactions(ctx context.Context, accessToken, userID string, startDate, endDate time.Time) ([]model.Transaction, error) {
	m.mu.Lock()
	m.GetTransactionsCalls = append(m.GetTransactionsCalls, GetTransactionsCall{
		AccessToken: accessToken,
		UserID:      userID,
		StartDate:   startDate,
		EndDate:     endDate,
	})
	m.mu.Unlock()

	if m.GetTransactionsFn != nil {
		return m.GetTransactionsFn(ctx, accessToken, userID, startDate, endDate)
	}
	return []model.Transaction{}, nil
}

// GetAccounts implements TransactionFetcher.
func (m *MockClient) GetAccounts(ctx context.Context, accessToken string) ([]string, error) {
	m.mu.Lock()
	m.GetAccountsCalls++
	m.mu.Unlock()

	if m.GetAccountsFn != nil {
		return m.GetAccountsFn(ctx, accessToken)
	}
	return []string{}, nil
}

// CreateLinkToken implements Linker.
func (m *MockClient) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	m.mu.Lock()
	m.CreateLinkTokenCalls = append(m.CreateLinkTokenCalls, userID)
	m.mu.Unlock()

	if m.CreateLinkTokenFn != nil {
		return m.CreateLinkTokenFn(ctx, userID)
	}
	return "link-sandbox-" + userID, nil
}

// ExchangePublicToken implements Linker.
func (m *MockClient) ExchangePublicToken(ctx context.Context, publicToken string) (string, string, error) {
	m.mu.Lock()
	m.ExchangePublicTokenCalls = append(m.ExchangePublicTokenCalls, publicToken)
	m.mu.Unlock()

	if m.ExchangePublicTokenFn != nil {
		return m.ExchangePublicTokenFn(ctx, publicToken)
	}
	return "access-sandbox-" + publicToken, "item-" + publicToken, nil
}

// Reset clears all call tracking.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetTransactionsCalls = []GetTransactionsCall{}
	m.GetAccountsCalls = 0
	m.CreateLinkTokenCalls = nil
	m.ExchangePublicTokenCalls = nil
}

var _ Service = (*MockClient)(nil)
