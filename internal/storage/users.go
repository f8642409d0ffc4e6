package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/noumi/internal/common"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateUser inserts a user, assigning an id and signup time when missing.
func (s *SQLiteStorage) CreateUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUser(user); err != nil {
		return err
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, created_at) VALUES (?, ?, ?, ?)
	`, user.ID, user.Email, user.Name, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", user.Email, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser returns the user with the given id.
func (s *SQLiteStorage) GetUser(ctx context.Context, id string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getUser(ctx, `SELECT id, email, name, created_at FROM users WHERE id = ?`, id)
}

// GetUserByEmail returns the user registered with email.
func (s *SQLiteStorage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(email, "email"); err != nil {
		return nil, err
	}
	return s.getUser(ctx, `SELECT id, email, name, created_at FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)))
}

func (s *SQLiteStorage) getUser(ctx context.Context, query string, arg string) (*model.User, error) {
	var user model.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", arg, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// ListUsers returns every user ordered by signup time.
func (s *SQLiteStorage) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, email, name, created_at FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []model.User
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// SaveGoal records a new goal for a user. The latest goal wins.
func (s *SQLiteStorage) SaveGoal(ctx context.Context, goal *model.Goal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateGoal(goal); err != nil {
		return err
	}
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (user_id, name, description, amount, target_date, net_monthly_income, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		goal.UserID,
		goal.Name,
		goal.Description,
		goal.Amount.String(),
		model.DateOf(goal.TargetDate).Format(model.DateLayout),
		goal.NetMonthlyIncome.String(),
		goal.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save goal: %w", err)
	}
	return nil
}

// GetLatestGoal returns the most recently saved goal for a user.
func (s *SQLiteStorage) GetLatestGoal(ctx context.Context, userID string) (*model.Goal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	var (
		goal       model.Goal
		amount     string
		income     string
		targetDate string
		createdAt  time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, name, description, amount, target_date, net_monthly_income, created_at
		FROM goals
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, userID).Scan(&goal.UserID, &goal.Name, &goal.Description, &amount, &targetDate, &income, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("goal for user %s: %w", userID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}

	if goal.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("goal has invalid amount %q: %w", amount, err)
	}
	if goal.NetMonthlyIncome, err = decimal.NewFromString(income); err != nil {
		return nil, fmt.Errorf("goal has invalid income %q: %w", income, err)
	}
	if goal.TargetDate, err = model.ParseDate(targetDate); err != nil {
		return nil, err
	}
	goal.CreatedAt = createdAt
	return &goal, nil
}
