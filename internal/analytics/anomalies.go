package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/noumi/internal/anomaly"
	"github.com/Veraticus/noumi/internal/common"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/shopspring/decimal"
)

// YearlyAnomaliesResult lists the anomalous transactions of the year so far.
type YearlyAnomaliesResult struct {
	Start          time.Time
	End            time.Time
	Outcome        Outcome
	TransactionIDs []string
	Classified     int // expenses that received a verdict
}

// YearlyAnomalies classifies every transaction from the later of signup and
// January 1st through today.
func (s *Service) YearlyAnomalies(ctx context.Context, userID string, now time.Time) (*YearlyAnomaliesResult, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	start, end := yearWindow(user, model.DateOf(now))
	res := &YearlyAnomaliesResult{Start: start, End: end, TransactionIDs: []string{}}

	txns, err := s.transactions(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	result, err := s.classify(txns)
	if err != nil {
		return nil, err
	}
	s.persistVerdicts(ctx, userID, txns, result, now)

	res.TransactionIDs = result.AnomalousIDs()
	res.Classified = len(result)
	res.Outcome = outcomeFor(len(result) > 0)

	s.logger.Debug("Classified yearly transactions",
		"user_id", userID,
		"transactions", len(txns),
		"anomalies", len(res.TransactionIDs))
	return res, nil
}

// TransactionAnomalyResult is the verdict for one transaction together with
// the baseline it was measured against.
type TransactionAnomalyResult struct {
	WindowStart   time.Time
	WindowEnd     time.Time
	Score         *decimal.Decimal
	TransactionID string
	Category      string
	Outcome       Outcome
	Method        model.DetectionMethod
	Baseline      Baseline
	IsAnomaly     bool
}

// Baseline summarizes the category history a transaction was scored against.
type Baseline struct {
	Mean   decimal.Decimal
	StdDev float64
	Count  int
}

// TransactionAnomaly scores a stored transaction against the lookback window
// that ends on its own date. Income and transactions without a baseline come
// back as not anomalous with OutcomeNoData.
func (s *Service) TransactionAnomaly(ctx context.Context, userID, transactionID string, now time.Time) (*TransactionAnomalyResult, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}
	if transactionID == "" {
		return nil, fmt.Errorf("%w: transaction id is required", common.ErrInvalidInput)
	}

	txn, err := s.store.GetTransactionByID(ctx, userID, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}

	end := txn.Day()
	start := end.AddDate(0, 0, -s.lookbackDays)
	window, err := s.transactions(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	if !containsID(window, txn.ID) {
		window = append(window, *txn)
	}

	result, err := s.classify(window)
	if err != nil {
		return nil, err
	}

	res := &TransactionAnomalyResult{
		TransactionID: txn.ID,
		WindowStart:   start,
		WindowEnd:     end,
		Category:      txn.CategoryOrDefault(),
		Method:        s.detector.Method(),
		Outcome:       OutcomeNoData,
	}

	verdict, ok := result[txn.ID]
	if !ok {
		return res, nil
	}
	res.Category = verdict.Category
	res.Method = verdict.Method
	res.IsAnomaly = verdict.IsAnomaly
	res.Score = verdict.Score
	res.Outcome = outcomeFor(verdict.HasBaseline())
	if stats, found := baselineStatistics(window, verdict.Category); found {
		res.Baseline = stats
	}

	s.persistVerdicts(ctx, userID, []model.Transaction{*txn}, result, now)
	return res, nil
}

func containsID(txns []model.Transaction, id string) bool {
	for _, txn := range txns {
		if txn.ID == id {
			return true
		}
	}
	return false
}

func baselineStatistics(window []model.Transaction, category string) (Baseline, bool) {
	stats, ok := anomaly.Statistics(window)[category]
	if !ok {
		return Baseline{}, false
	}
	return Baseline{Mean: stats.Mean().Round(2), StdDev: stats.StdDev, Count: stats.Count}, true
}
