// Package ingest brings bank transactions into storage from Plaid and OFX files.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Veraticus/noumi/internal/common"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/Veraticus/noumi/internal/ofx"
	"github.com/Veraticus/noumi/internal/plaid"
)

// DefaultSyncDays is how far back a Plaid sync reaches when no range is given.
const DefaultSyncDays = 90

// Store is the persistence ingest writes to. storage.SQLiteStorage satisfies it.
type Store interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetPlaidConnection(ctx context.Context, userID string) (*model.PlaidConnection, error)
	SavePlaidConnection(ctx context.Context, conn *model.PlaidConnection) error
	SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
}

// Result counts what an import did.
type Result struct {
	Fetched  int
	Inserted int
}

// Duplicates is the number of fetched transactions that were already stored.
func (r Result) Duplicates() int {
	return r.Fetched - r.Inserted
}

// Service imports transactions for users.
type Service struct {
	store  Store
	plaid  plaid.Service
	parser *ofx.Parser
	logger *slog.Logger
}

// NewService creates a Service. plaidClient may be nil when Plaid is not
// configured; Plaid operations then fail with common.ErrMissingConfig.
func NewService(store Store, plaidClient plaid.Service) *Service {
	return &Service{
		store:  store,
		plaid:  plaidClient,
		parser: ofx.NewParser(),
		logger: common.ComponentLogger("ingest"),
	}
}

func (s *Service) requirePlaid() error {
	if s.plaid == nil {
		return fmt.Errorf("%w: plaid credentials are not configured", common.ErrMissingConfig)
	}
	return nil
}

func (s *Service) requireUser(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", common.ErrInvalidInput)
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	return nil
}

// CreateLinkToken starts a Plaid Link session for the user.
func (s *Service) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	if err := s.requirePlaid(); err != nil {
		return "", err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return "", err
	}
	return s.plaid.CreateLinkToken(ctx, userID)
}

// Connect exchanges a Link public token and stores the resulting item.
func (s *Service) Connect(ctx context.Context, userID, publicToken string, now time.Time) (*model.PlaidConnection, error) {
	if err := s.requirePlaid(); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	accessToken, itemID, err := s.plaid.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, err
	}
	accounts, err := s.plaid.GetAccounts(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	conn := &model.PlaidConnection{
		UserID:      userID,
		AccessToken: accessToken,
		ItemID:      itemID,
		AccountIDs:  accounts,
		ConnectedAt: now,
	}
	if err := s.store.SavePlaidConnection(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to save plaid connection: %w", err)
	}

	s.logger.Info("Linked Plaid item", "user_id", userID, "item_id", itemID, "accounts", len(accounts))
	return conn, nil
}

// SyncPlaid fetches the user's transactions dated within [start, end] from
// their linked Plaid item and stores the new ones.
func (s *Service) SyncPlaid(ctx context.Context, userID string, start, end time.Time) (*Result, error) {
	if err := s.requirePlaid(); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	conn, err := s.store.GetPlaidConnection(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("user %s: %w", userID, common.ErrNotLinked)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plaid connection: %w", err)
	}

	txns, err := s.plaid.GetTransactions(ctx, conn.AccessToken, userID, start, end)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, userID, "plaid", txns)
}

// ImportOFX parses an OFX/QFX statement and stores its transactions for the user.
func (s *Service) ImportOFX(ctx context.Context, userID string, r io.Reader) (*Result, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	txns, err := s.parser.ParseFile(ctx, userID, r)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, userID, "ofx", txns)
}

func (s *Service) save(ctx context.Context, userID, source string, txns []model.Transaction) (*Result, error) {
	res := &Result{Fetched: len(txns)}
	if len(txns) == 0 {
		return res, nil
	}

	inserted, err := s.store.SaveTransactions(ctx, txns)
	if err != nil {
		return nil, fmt.Errorf("failed to save transactions: %w", err)
	}
	res.Inserted = inserted

	s.logger.Info("Imported transactions",
		"user_id", userID,
		"source", source,
		"fetched", res.Fetched,
		"inserted", res.Inserted)
	return res, nil
}
