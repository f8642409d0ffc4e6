package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/noumi/internal/common"
	"github.com/Veraticus/noumi/internal/model"
)

// SaveWeeklyPlan stores the active plan for a week, deactivating earlier plans
// for the same week.
func (s *SQLiteStorage) SaveWeeklyPlan(ctx context.Context, plan *model.WeeklyPlan) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if plan == nil {
		return fmt.Errorf("%w: plan", ErrNilParameter)
	}
	if err := validateString(plan.UserID, "userID"); err != nil {
		return err
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = s.now()
	}
	plan.IsActive = true
	weekStart := weekKey(plan.WeekStart)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE weekly_plans SET is_active = 0 WHERE user_id = ? AND week_start = ?
		`, plan.UserID, weekStart); err != nil {
			return fmt.Errorf("failed to deactivate previous plans: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO weekly_plans (user_id, week_start, week_end, data, is_active, created_at)
			VALUES (?, ?, ?, ?, 1, ?)
		`, plan.UserID, weekStart, weekKey(plan.WeekEnd), string(plan.Data), plan.CreatedAt); err != nil {
			return fmt.Errorf("failed to save weekly plan: %w", err)
		}
		return nil
	})
}

// GetWeeklyPlan returns the active plan for the week starting at weekStart.
func (s *SQLiteStorage) GetWeeklyPlan(ctx context.Context, userID string, weekStart time.Time) (*model.WeeklyPlan, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	var (
		plan  model.WeeklyPlan
		start string
		end   string
		data  string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, week_start, week_end, data, is_active, created_at
		FROM weekly_plans
		WHERE user_id = ? AND week_start = ? AND is_active = 1
		ORDER BY id DESC
		LIMIT 1
	`, userID, weekKey(weekStart)).Scan(&plan.UserID, &start, &end, &data, &plan.IsActive, &plan.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("weekly plan for %s: %w", weekKey(weekStart), common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly plan: %w", err)
	}

	if plan.WeekStart, plan.WeekEnd, err = parseWeek(start, end); err != nil {
		return nil, err
	}
	plan.Data = []byte(data)
	return &plan, nil
}

// SaveWeeklyRecap stores the recap for a week, replacing any earlier one.
func (s *SQLiteStorage) SaveWeeklyRecap(ctx context.Context, recap *model.WeeklyRecap) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if recap == nil {
		return fmt.Errorf("%w: recap", ErrNilParameter)
	}
	if err := validateString(recap.UserID, "userID"); err != nil {
		return err
	}
	if recap.CreatedAt.IsZero() {
		recap.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO weekly_recaps (user_id, week_start, week_end, data, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, week_start) DO UPDATE SET
			week_end = excluded.week_end,
			data = excluded.data,
			created_at = excluded.created_at
	`, recap.UserID, weekKey(recap.WeekStart), weekKey(recap.WeekEnd), string(recap.Data), recap.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save weekly recap: %w", err)
	}
	return nil
}

// GetWeeklyRecap returns the recap for the week starting at weekStart.
func (s *SQLiteStorage) GetWeeklyRecap(ctx context.Context, userID string, weekStart time.Time) (*model.WeeklyRecap, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	var (
		recap model.WeeklyRecap
		start string
		end   string
		data  string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, week_start, week_end, data, created_at
		FROM weekly_recaps
		WHERE user_id = ? AND week_start = ?
	`, userID, weekKey(weekStart)).Scan(&recap.UserID, &start, &end, &data, &recap.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("weekly recap for %s: %w", weekKey(weekStart), common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly recap: %w", err)
	}

	if recap.WeekStart, recap.WeekEnd, err = parseWeek(start, end); err != nil {
		return nil, err
	}
	recap.Data = []byte(data)
	return &recap, nil
}

func weekKey(t time.Time) string {
	return model.DateOf(t).Format(model.DateLayout)
}

func parseWeek(start, end string) (time.Time, time.Time, error) {
	s, err := model.ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := model.ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return s, e, nil
}
