package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/noumi/internal/common"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/shopspring/decimal"
)

const transactionColumns = `user_id, id, hash, date, name, merchant_name, amount, category, account_id, created_at`

// SaveTransactions stores transactions, skipping any whose hash already exists.
// It returns the number of rows actually inserted.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransactions(transactions); err != nil {
		return 0, err
	}

	inserted := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO transactions (`+transactionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, txn := range transactions {
			if txn.Hash == "" {
				txn.Hash = txn.GenerateHash()
			}
			createdAt := txn.CreatedAt
			if createdAt.IsZero() {
				createdAt = s.now()
			}

			res, execErr := stmt.ExecContext(ctx,
				txn.UserID,
				txn.ID,
				txn.Hash,
				txn.Day().Format(model.DateLayout),
				txn.Name,
				txn.MerchantName,
				txn.Amount.String(),
				txn.Category,
				txn.AccountID,
				createdAt,
			)
			if execErr != nil {
				return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, execErr)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				inserted += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// GetTransactions returns a user's transactions dated within [start, end], oldest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context, userID string, start, end time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateDateRange(model.DateOf(start), model.DateOf(end)); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, id ASC
	`, userID, model.DateOf(start).Format(model.DateLayout), model.DateOf(end).Format(model.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}

// GetTransactionByID returns one of a user's transactions.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, userID, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = ? AND id = ?
	`, userID, id)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// GetTransactionCount returns how many transactions a user has stored.
func (s *SQLiteStorage) GetTransactionCount(ctx context.Context, userID string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE user_id = ?`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// GetSpendingByCategory sums a user's expenses per category over [start, end].
// Amounts are positive; income is ignored.
func (s *SQLiteStorage) GetSpendingByCategory(ctx context.Context, userID string, start, end time.Time) (map[string]decimal.Decimal, error) {
	transactions, err := s.GetTransactions(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]decimal.Decimal)
	for _, txn := range transactions {
		if !txn.IsExpense() {
			continue
		}
		category := txn.CategoryOrDefault()
		totals[category] = totals[category].Add(txn.AbsAmount())
	}
	return totals, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*model.Transaction, error) {
	var (
		txn       model.Transaction
		date      string
		amount    string
		createdAt time.Time
	)
	err := row.Scan(
		&txn.UserID,
		&txn.ID,
		&txn.Hash,
		&date,
		&txn.Name,
		&txn.MerchantName,
		&amount,
		&txn.Category,
		&txn.AccountID,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	if txn.Date, err = model.ParseDate(date); err != nil {
		return nil, fmt.Errorf("transaction %s: %w", txn.ID, err)
	}
	if txn.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("transaction %s has invalid amount %q: %w", txn.ID, amount, err)
	}
	txn.CreatedAt = createdAt
	return &txn, nil
}
