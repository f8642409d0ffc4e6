// Package analytics answers the per-user questions behind the HTTP API:
// anomalies, streaks, spending summaries, plans and recaps.
//
// Every method takes the user id and the current time explicitly. Results
// carry an Outcome so that "nothing to report" is never confused with a
// failure.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/noumi/internal/anomaly"
	"github.com/Veraticus/noumi/internal/common"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/Veraticus/noumi/internal/narrative"
	"github.com/Veraticus/noumi/internal/streak"
	"github.com/shopspring/decimal"
)

// DefaultLookbackDays is the history used to score a single transaction.
const DefaultLookbackDays = 60

// Outcome reports whether a result was computed from data.
type Outcome string

// Outcomes.
const (
	OutcomeOK     Outcome = "ok"
	OutcomeNoData Outcome = "no_data"
)

func outcomeFor(hasData bool) Outcome {
	if hasData {
		return OutcomeOK
	}
	return OutcomeNoData
}

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	Logger            *slog.Logger
	Narrator          narrative.Narrator
	LookbackDays      int
	ExcludeFutureDays bool
	WriteThrough      bool // persist anomaly verdicts after classification
}

// Service computes analytics from stored transactions.
type Service struct {
	store         Store
	detector      anomaly.Detector
	narrator      narrative.Narrator
	fallback      narrative.Narrator
	logger        *slog.Logger
	lookbackDays  int
	excludeFuture bool
	writeThrough  bool
}

// NewService creates a Service backed by store and detector.
func NewService(store Store, detector anomaly.Detector, opts Options) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("analytics: store is required")
	}
	if detector == nil {
		return nil, fmt.Errorf("analytics: detector is required")
	}

	s := &Service{
		store:         store,
		detector:      detector,
		narrator:      opts.Narrator,
		fallback:      narrative.TemplateNarrator{},
		logger:        opts.Logger,
		lookbackDays:  opts.LookbackDays,
		excludeFuture: opts.ExcludeFutureDays,
		writeThrough:  opts.WriteThrough,
	}
	if s.narrator == nil {
		s.narrator = s.fallback
	}
	if s.logger == nil {
		s.logger = common.ComponentLogger("analytics")
	}
	if s.lookbackDays <= 0 {
		s.lookbackDays = DefaultLookbackDays
	}
	return s, nil
}

func (s *Service) user(ctx context.Context, userID string) (*model.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", common.ErrInvalidInput)
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// goal returns the latest goal, or nil when the user has not set one.
func (s *Service) goal(ctx context.Context, userID string) (*model.Goal, error) {
	goal, err := s.store.GetLatestGoal(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load goal: %w", err)
	}
	return goal, nil
}

func (s *Service) transactions(ctx context.Context, userID string, start, end time.Time) ([]model.Transaction, error) {
	if start.After(end) {
		return nil, nil
	}
	txns, err := s.store.GetTransactions(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return txns, nil
}

func (s *Service) classify(txns []model.Transaction) (anomaly.Result, error) {
	result, err := s.detector.Detect(txns)
	if err != nil {
		return nil, fmt.Errorf("failed to classify transactions: %w", err)
	}
	return result, nil
}

// persistVerdicts writes verdicts through to storage when enabled. Storage is
// a cache of classification, so failures are logged and swallowed.
func (s *Service) persistVerdicts(ctx context.Context, userID string, txns []model.Transaction, result anomaly.Result, now time.Time) {
	if !s.writeThrough || len(result) == 0 {
		return
	}

	records := make([]model.AnomalyRecord, 0, len(result))
	for _, txn := range txns {
		v, ok := result[txn.ID]
		if !ok {
			continue
		}
		records = append(records, model.AnomalyRecord{
			UserID:        userID,
			TransactionID: txn.ID,
			Date:          txn.Day(),
			Method:        v.Method,
			IsAnomaly:     v.IsAnomaly,
			Score:         v.Score,
			DetectedAt:    now,
		})
	}

	if err := s.store.SaveAnomalies(ctx, records); err != nil {
		s.logger.Warn("Failed to persist anomaly verdicts", "user_id", userID, "count", len(records), "error", err)
	}
}

// yearWindow is [StartDate(signup, Jan 1), today].
func yearWindow(user *model.User, today time.Time) (time.Time, time.Time) {
	return streak.StartDate(user.SignupDate(), streak.YearStart(today)), today
}

func (s *Service) narrate(ctx context.Context, facts narrative.Facts) string {
	text, err := s.narrator.Narrate(ctx, facts)
	if err == nil && text != "" {
		return text
	}
	if err != nil {
		s.logger.Warn("Narration failed, using template", "kind", facts.Kind, "error", err)
	}
	text, _ = s.fallback.Narrate(ctx, facts)
	return text
}

func between(txns []model.Transaction, start, end time.Time) []model.Transaction {
	var out []model.Transaction
	for _, txn := range txns {
		day := txn.Day()
		if !day.Before(start) && !day.After(end) {
			out = append(out, txn)
		}
	}
	return out
}

func expenses(txns []model.Transaction) []model.Transaction {
	var out []model.Transaction
	for _, txn := range txns {
		if txn.IsExpense() {
			out = append(out, txn)
		}
	}
	return out
}

// totals returns the summed income and the summed absolute expenses.
func totals(txns []model.Transaction) (income, spent decimal.Decimal) {
	for _, txn := range txns {
		switch {
		case txn.IsIncome():
			income = income.Add(txn.Amount)
		case txn.IsExpense():
			spent = spent.Add(txn.AbsAmount())
		}
	}
	return income, spent
}

// spendByCategory sums absolute expenses per category.
func spendByCategory(txns []model.Transaction) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, txn := range txns {
		if txn.IsExpense() {
			c := txn.CategoryOrDefault()
			out[c] = out[c].Add(txn.AbsAmount())
		}
	}
	return out
}

// topByAmount returns the key with the largest amount, ties broken by name.
func topByAmount(spend map[string]decimal.Decimal) string {
	names := make([]string, 0, len(spend))
	for name := range spend {
		names = append(names, name)
	}
	sort.Strings(names)

	top := ""
	for _, name := range names {
		if top == "" || spend[name].GreaterThan(spend[top]) {
			top = name
		}
	}
	return top
}

func formatDates(days []time.Time) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.Format(model.DateLayout)
	}
	return out
}
