// Package anomaly decides which expense transactions are statistical outliers
// relative to their category's typical spend.
//
// Everything in this package is pure: no I/O, no package-level mutable state,
// and inputs are never modified. Detectors are safe for concurrent use.
package anomaly

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Veraticus/noumi/internal/model"
	"github.com/shopspring/decimal"
)

// DefaultThresholdMultiplier flags expenses above three times the category mean.
const DefaultThresholdMultiplier = 3.0

// scorePrecision is the number of decimal places kept on reported scores.
const scorePrecision = 4

// Programmer-error class failures. Callers should treat these as fatal input
// validation errors and never retry.
var (
	ErrInvalidThreshold     = errors.New("threshold multiplier must be a finite, non-negative number")
	ErrMalformedTransaction = errors.New("malformed transaction")
	ErrDuplicateTransaction = errors.New("duplicate transaction id")
)

// Verdict is the classification of a single expense transaction.
type Verdict struct {
	// Score is the statistic that produced the verdict: the ratio to the
	// category mean, or the z-score. Nil when no baseline exists.
	Score     *decimal.Decimal
	Category  string
	Method    model.DetectionMethod
	IsAnomaly bool
}

// HasBaseline reports whether enough data existed to score the transaction.
func (v Verdict) HasBaseline() bool {
	return v.Score != nil
}

// Result maps transaction ids to verdicts. Only expenses appear as keys.
type Result map[string]Verdict

// AnomalousIDs returns the ids flagged as anomalous, sorted.
func (r Result) AnomalousIDs() []string {
	ids := make([]string, 0)
	for id, v := range r {
		if v.IsAnomaly {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of anomalous verdicts.
func (r Result) Count() int {
	n := 0
	for _, v := range r {
		if v.IsAnomaly {
			n++
		}
	}
	return n
}

// Detector classifies a window of transactions.
type Detector interface {
	Detect(transactions []model.Transaction) (Result, error)
	Method() model.DetectionMethod
}

// Classify flags each expense whose absolute amount is strictly greater than
// thresholdMultiplier times its category's mean absolute expense.
//
// The category mean includes the transaction being tested. Categories with a
// single expense are never flagged.
func Classify(transactions []model.Transaction, thresholdMultiplier float64) (Result, error) {
	return CategoryDetector{Multiplier: thresholdMultiplier}.Detect(transactions)
}

// CategoryDetector implements the category-relative mean threshold.
type CategoryDetector struct {
	Multiplier float64
}

// Method implements Detector.
func (d CategoryDetector) Method() model.DetectionMethod {
	return model.MethodCategoryMean
}

// Detect implements Detector.
func (d CategoryDetector) Detect(transactions []model.Transaction) (Result, error) {
	if err := validateMultiplier(d.Multiplier); err != nil {
		return nil, err
	}
	if err := validateTransactions(transactions); err != nil {
		return nil, err
	}

	groups := groupExpenses(transactions, false)
	multiplier := decimal.NewFromFloat(d.Multiplier)
	result := make(Result)

	for _, txn := range transactions {
		if !txn.IsExpense() {
			continue
		}
		category := txn.CategoryOrDefault()
		stats := groups[category]
		verdict := Verdict{Category: category, Method: d.Method()}

		if stats.Count > 1 && stats.Sum.IsPositive() {
			amount := txn.AbsAmount()
			count := decimal.NewFromInt(int64(stats.Count))
			// amount > (sum/count)*m, compared without dividing
			verdict.IsAnomaly = amount.Mul(count).GreaterThan(stats.Sum.Mul(multiplier))
			score := amount.Mul(count).DivRound(stats.Sum, scorePrecision)
			verdict.Score = &score
		}

		result[txn.ID] = verdict
	}

	return result, nil
}

// Scope selects the population a z-score is computed against.
type Scope string

// Z-score scopes.
const (
	ScopeCategory Scope = "category"
	ScopeUser     Scope = "user"
)

// Z-score defaults.
const (
	DefaultZScoreSigma      = 2.0
	DefaultZScoreMinSamples = 3
)

// ZScoreDetector flags expenses more than Sigma population standard deviations
// above the mean of their scope.
type ZScoreDetector struct {
	Scope      Scope
	Sigma      float64
	MinSamples int
}

// Method implements Detector.
func (d ZScoreDetector) Method() model.DetectionMethod {
	return model.MethodZScore
}

// Detect implements Detector.
func (d ZScoreDetector) Detect(transactions []model.Transaction) (Result, error) {
	if err := validateMultiplier(d.Sigma); err != nil {
		return nil, err
	}
	if err := validateTransactions(transactions); err != nil {
		return nil, err
	}

	minSamples := d.MinSamples
	if minSamples < 2 {
		minSamples = DefaultZScoreMinSamples
	}
	userScope := d.Scope == ScopeUser
	groups := groupExpenses(transactions, userScope)
	result := make(Result)

	for _, txn := range transactions {
		if !txn.IsExpense() {
			continue
		}
		category := txn.CategoryOrDefault()
		key := category
		if userScope {
			key = userScopeKey
		}
		stats := groups[key]
		verdict := Verdict{Category: category, Method: d.Method()}

		if stats.Count >= minSamples && stats.StdDev > 0 {
			z := (txn.AbsAmount().InexactFloat64() - stats.MeanFloat) / stats.StdDev
			score := decimal.NewFromFloat(z).Round(scorePrecision)
			verdict.Score = &score
			verdict.IsAnomaly = z > d.Sigma
		}

		result[txn.ID] = verdict
	}

	return result, nil
}

// Config selects and parameterizes a detector.
type Config struct {
	Method              model.DetectionMethod
	ZScoreScope         Scope
	ThresholdMultiplier float64
	ZScoreSigma         float64
	ZScoreMinSamples    int
}

// DefaultConfig returns the category-mean detector with a 3x threshold.
func DefaultConfig() Config {
	return Config{
		Method:              model.MethodCategoryMean,
		ThresholdMultiplier: DefaultThresholdMultiplier,
		ZScoreSigma:         DefaultZScoreSigma,
		ZScoreMinSamples:    DefaultZScoreMinSamples,
		ZScoreScope:         ScopeUser,
	}
}

// NewDetector builds the detector described by cfg.
func NewDetector(cfg Config) (Detector, error) {
	switch cfg.Method {
	case "", model.MethodCategoryMean:
		if err := validateMultiplier(cfg.ThresholdMultiplier); err != nil {
			return nil, err
		}
		return CategoryDetector{Multiplier: cfg.ThresholdMultiplier}, nil
	case model.MethodZScore:
		if err := validateMultiplier(cfg.ZScoreSigma); err != nil {
			return nil, err
		}
		scope := cfg.ZScoreScope
		if scope == "" {
			scope = ScopeUser
		}
		if scope != ScopeUser && scope != ScopeCategory {
			return nil, fmt.Errorf("unknown z-score scope: %s", scope)
		}
		return ZScoreDetector{Sigma: cfg.ZScoreSigma, MinSamples: cfg.ZScoreMinSamples, Scope: scope}, nil
	default:
		return nil, fmt.Errorf("unknown anomaly detection method: %s", cfg.Method)
	}
}

func validateMultiplier(m float64) error {
	if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, m)
	}
	return nil
}

func validateTransactions(transactions []model.Transaction) error {
	seen := make(map[string]struct{}, len(transactions))
	for i, txn := range transactions {
		if txn.ID == "" {
			return fmt.Errorf("%w: transaction at index %d has no id", ErrMalformedTransaction, i)
		}
		if txn.Date.IsZero() {
			return fmt.Errorf("%w: transaction %s has no date", ErrMalformedTransaction, txn.ID)
		}
		if _, dup := seen[txn.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateTransaction, txn.ID)
		}
		seen[txn.ID] = struct{}{}
	}
	return nil
}
