package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Veraticus/noumi/internal/model"
	"github.com/shopspring/decimal"
)

// SaveAnomalies upserts anomaly verdicts. A verdict for the same transaction
// and detection method replaces the previous one.
func (s *SQLiteStorage) SaveAnomalies(ctx context.Context, records []model.AnomalyRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO anomalies (user_id, transaction_id, method, date, is_anomaly, score, detected_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id, transaction_id, method) DO UPDATE SET
				date = excluded.date,
				is_anomaly = excluded.is_anomaly,
				score = excluded.score,
				detected_at = excluded.detected_at
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, r := range records {
			if err := validateString(r.UserID, "userID"); err != nil {
				return err
			}
			if err := validateString(r.TransactionID, "transactionID"); err != nil {
				return err
			}

			var score sql.NullString
			if r.Score != nil {
				score = sql.NullString{String: r.Score.String(), Valid: true}
			}
			detectedAt := r.DetectedAt
			if detectedAt.IsZero() {
				detectedAt = s.now()
			}

			if _, err := stmt.ExecContext(ctx,
				r.UserID,
				r.TransactionID,
				string(r.Method),
				model.DateOf(r.Date).Format(model.DateLayout),
				r.IsAnomaly,
				score,
				detectedAt,
			); err != nil {
				return fmt.Errorf("failed to save anomaly for %s: %w", r.TransactionID, err)
			}
		}
		return nil
	})
}

// GetAnomalies returns stored verdicts for a user's transactions dated within [start, end].
func (s *SQLiteStorage) GetAnomalies(ctx context.Context, userID string, start, end time.Time) ([]model.AnomalyRecord, error) {
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
		SELECT user_id, transaction_id, method, date, is_anomaly, score, detected_at
		FROM anomalies
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, transaction_id ASC
	`, userID, model.DateOf(start).Format(model.DateLayout), model.DateOf(end).Format(model.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query anomalies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.AnomalyRecord
	for rows.Next() {
		var (
			r      model.AnomalyRecord
			method string
			date   string
			score  sql.NullString
		)
		if err := rows.Scan(&r.UserID, &r.TransactionID, &method, &date, &r.IsAnomaly, &score, &r.DetectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}
		r.Method = model.DetectionMethod(method)
		if r.Date, err = model.ParseDate(date); err != nil {
			return nil, err
		}
		if score.Valid {
			d, parseErr := decimal.NewFromString(score.String)
			if parseErr != nil {
				return nil, fmt.Errorf("anomaly %s has invalid score %q: %w", r.TransactionID, score.String, parseErr)
			}
			r.Score = &d
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
