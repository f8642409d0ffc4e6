package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DetectionMethod names the statistic that produced an anomaly verdict.
type DetectionMethod string

// Detection methods.
const (
	MethodCategoryMean DetectionMethod = "category_mean"
	MethodZScore       DetectionMethod = "zscore"
)

// AnomalyRecord is a persisted anomaly verdict for one transaction.
type AnomalyRecord struct {
	Date          time.Time
	DetectedAt    time.Time
	Score         *decimal.Decimal
	TransactionID string
	UserID        string
	Method        DetectionMethod
	IsAnomaly     bool
}

// WeeklyPlan is a generated savings plan for one Monday-Sunday week.
type WeeklyPlan struct {
	WeekStart time.Time
	WeekEnd   time.Time
	CreatedAt time.Time
	UserID    string
	Data      []byte // JSON payload
	IsActive  bool
}

// WeeklyRecap is a generated summary of a completed week.
type WeeklyRecap struct {
	WeekStart time.Time
	WeekEnd   time.Time
	CreatedAt time.Time
	UserID    string
	Data      []byte // JSON payload
}
