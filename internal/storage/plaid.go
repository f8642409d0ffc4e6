package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/noumi/internal/common"
	"github.com/Veraticus/noumi/internal/model"
)

// SavePlaidConnection stores a user's Plaid item, replacing any previous link.
func (s *SQLiteStorage) SavePlaidConnection(ctx context.Context, conn *model.PlaidConnection) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if conn == nil {
		return fmt.Errorf("%w: connection", ErrNilParameter)
	}
	if err := validateString(conn.UserID, "userID"); err != nil {
		return err
	}
	if err := validateString(conn.AccessToken, "accessToken"); err != nil {
		return err
	}
	if conn.ConnectedAt.IsZero() {
		conn.ConnectedAt = s.now()
	}

	accounts := conn.AccountIDs
	if accounts == nil {
		accounts = []string{}
	}
	accountsJSON, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to encode account ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO plaid_connections (user_id, access_token, item_id, account_ids, connected_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			access_token = excluded.access_token,
			item_id = excluded.item_id,
			account_ids = excluded.account_ids,
			connected_at = excluded.connected_at
	`, conn.UserID, conn.AccessToken, conn.ItemID, string(accountsJSON), conn.ConnectedAt)
	if err != nil {
		return fmt.Errorf("failed to save plaid connection: %w", err)
	}
	return nil
}

// GetPlaidConnection returns the Plaid item linked for a user.
func (s *SQLiteStorage) GetPlaidConnection(ctx context.Context, userID string) (*model.PlaidConnection, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	var (
		conn         model.PlaidConnection
		accountsJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, access_token, item_id, account_ids, connected_at
		FROM plaid_connections
		WHERE user_id = ?
	`, userID).Scan(&conn.UserID, &conn.AccessToken, &conn.ItemID, &accountsJSON, &conn.ConnectedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("plaid connection for %s: %w", userID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plaid connection: %w", err)
	}

	if err := json.Unmarshal([]byte(accountsJSON), &conn.AccountIDs); err != nil {
		return nil, fmt.Errorf("failed to decode account ids: %w", err)
	}
	return &conn, nil
}
