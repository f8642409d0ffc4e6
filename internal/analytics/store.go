package analytics

//go:generate mockgen -source=store.go -destination=store_mock.go -package=analytics

import (
	"context"
	"time"

	"github.com/Veraticus/noumi/internal/model"
	"github.com/shopspring/decimal"
)

// Store is the persistence the analytics service reads and writes.
// storage.SQLiteStorage satisfies it.
type Store interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetLatestGoal(ctx context.Context, userID string) (*model.Goal, error)
	SaveGoal(ctx context.Context, goal *model.Goal) error

	GetTransactions(ctx context.Context, userID string, start, end time.Time) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, userID, id string) (*model.Transaction, error)
	GetSpendingByCategory(ctx context.Context, userID string, start, end time.Time) (map[string]decimal.Decimal, error)

	SaveAnomalies(ctx context.Context, records []model.AnomalyRecord) error

	GetWeeklyPlan(ctx context.Context, userID string, weekStart time.Time) (*model.WeeklyPlan, error)
	SaveWeeklyPlan(ctx context.Context, plan *model.WeeklyPlan) error
	GetWeeklyRecap(ctx context.Context, userID string, weekStart time.Time) (*model.WeeklyRecap, error)
	SaveWeeklyRecap(ctx context.Context, recap *model.WeeklyRecap) error
}
