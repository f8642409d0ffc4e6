package analytics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Veraticus/noumi/internal/anomaly"
	"github.com/Veraticus/noumi/internal/common"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const userID = "user-1"

// 2024-03-13 is a Wednesday; its week runs 2024-03-11 to 2024-03-17.
var now = time.Date(2024, 3, 13, 15, 30, 0, 0, time.UTC)

func day(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func txn(id, date, amount, category string) model.Transaction {
	return model.Transaction{
		ID:       id,
		UserID:   userID,
		Date:     day(date),
		Name:     "Purchase " + id,
		Amount:   decimal.RequireFromString(amount),
		Category: category,
	}
}

func user(signup string) *model.User {
	return &model.User{ID: userID, Email: "user@example.com", CreatedAt: day(signup)}
}

func newTestService(t *testing.T, opts Options) (*Service, *MockStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	svc, err := NewService(store, anomaly.CategoryDetector{Multiplier: anomaly.DefaultThresholdMultiplier}, opts)
	require.NoError(t, err)
	return svc, store
}

// foodWeek is the worked example: only the 200 expense is anomalous.
func foodWeek(dates ...string) []model.Transaction {
	amounts := []string{"-10", "-12", "-11", "-40", "-200"}
	txns := make([]model.Transaction, len(amounts))
	for i, a := range amounts {
		txns[i] = txn(fmt.Sprintf("t%d", i+1), dates[i], a, "Food")
	}
	return txns
}

func TestNewService(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	detector := anomaly.CategoryDetector{Multiplier: 3}

	_, err := NewService(nil, detector, Options{})
	assert.Error(t, err)

	_, err = NewService(store, nil, Options{})
	assert.Error(t, err)

	svc, err := NewService(store, detector, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultLookbackDays, svc.lookbackDays)
	assert.NotNil(t, svc.narrator)
	assert.NotNil(t, svc.logger)
}

func TestYearlyAnomalies(t *testing.T) {
	ctx := context.Background()

	t.Run("classifies from signup and writes through", func(t *testing.T) {
		svc, store := newTestService(t, Options{WriteThrough: true})
		txns := foodWeek("2024-02-12", "2024-02-13", "2024-02-14", "2024-02-15", "2024-02-16")
		txns = append(txns, txn("pay", "2024-02-15", "2500", "Income"))

		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2024-02-10"), nil)
		store.EXPECT().GetTransactions(gomock.Any(), userID, day("2024-02-10"), day("2024-03-13")).Return(txns, nil)
		store.EXPECT().SaveAnomalies(gomock.Any(), gomock.Len(5)).Return(nil)

		res, err := svc.YearlyAnomalies(ctx, userID, now)
		require.NoError(t, err)
		assert.Equal(t, OutcomeOK, res.Outcome)
		assert.Equal(t, []string{"t5"}, res.TransactionIDs)
		assert.Equal(t, 5, res.Classified)
		assert.Equal(t, day("2024-02-10"), res.Start)
		assert.Equal(t, day("2024-03-13"), res.End)
	})

	t.Run("year start when signup is earlier", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2022-06-01"), nil)
		store.EXPECT().GetTransactions(gomock.Any(), userID, day("2024-01-01"), day("2024-03-13")).Return(nil, nil)

		res, err := svc.YearlyAnomalies(ctx, userID, now)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoData, res.Outcome)
		assert.Empty(t, res.TransactionIDs)
		assert.NotNil(t, res.TransactionIDs)
	})

	t.Run("write-through failure is not fatal", func(t *testing.T) {
		svc, store := newTestService(t, Options{WriteThrough: true})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2024-01-01"), nil)
		store.EXPECT().GetTransactions(gomock.Any(), userID, gomock.Any(), gomock.Any()).
			Return(foodWeek("2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04", "2024-03-05"), nil)
		store.EXPECT().SaveAnomalies(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

		res, err := svc.YearlyAnomalies(ctx, userID, now)
		require.NoError(t, err)
		assert.Equal(t, []string{"t5"}, res.TransactionIDs)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(nil, fmt.Errorf("user %s: %w", userID, common.ErrNotFound))

		_, err := svc.YearlyAnomalies(ctx, userID, now)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("missing user id", func(t *testing.T) {
		svc, _ := newTestService(t, Options{})
		_, err := svc.YearlyAnomalies(ctx, "  ", now)
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("duplicate ids surface as classification errors", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2024-01-01"), nil)
		store.EXPECT().GetTransactions(gomock.Any(), userID, gomock.Any(), gomock.Any()).Return([]model.Transaction{
			txn("dup", "2024-03-01", "-10", "Food"),
			txn("dup", "2024-03-02", "-20", "Food"),
		}, nil)

		_, err := svc.YearlyAnomalies(ctx, userID, now)
		assert.ErrorIs(t, err, anomaly.ErrDuplicateTransaction)
	})

	t.Run("signup in the future yields no data without a query", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2024-04-01"), nil)

		res, err := svc.YearlyAnomalies(ctx, userID, now)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoData, res.Outcome)
	})
}

func TestTransactionAnomaly(t *testing.T) {
	ctx := context.Background()
	window := foodWeek("2024-03-06", "2024-03-07", "2024-03-08", "2024-03-09", "2024-03-10")
	end := day("2024-03-10")
	start := end.AddDate(0, 0, -DefaultLookbackDays)

	t.Run("anomalous expense with baseline", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		target := window[4]

		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2024-01-01"), nil)
		store.EXPECT().GetTransactionByID(gomock.Any(), userID, "t5").Return(&target, nil)
		store.EXPECT().GetTransactions(gomock.Any(), userID, start, end).Return(window, nil)

		res, err := svc.TransactionAnomaly(ctx, userID, "t5", now)
		require.NoError(t, err)
		assert.Equal(t, OutcomeOK, res.Outcome)
		assert.True(t, res.IsAnomaly)
		require.NotNil(t, res.Score)
		assert.True(t, res.Score.GreaterThan(decimal.NewFromInt(3)))
		assert.Equal(t, "Food", res.Category)
		assert.Equal(t, model.MethodCategoryMean, res.Method)
		assert.Equal(t, 5, res.Baseline.Count)
		assert.True(t, decimal.RequireFromString("54.6").Equal(res.Baseline.Mean))
		assert.Equal(t, start, res.WindowStart)
	})

	t.Run("ordinary expense", func(t *testing.T) {
		svc, store := newTestService(t, Options{WriteThrough: true})
		target := window[0]

		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2024-01-01"), nil)
		store.EXPECT().GetTransactionByID(gomock.Any(), userID, "t1").Return(&target, nil)
		store.EXPECT().GetTransactions(gomock.Any(), userID, gomock.Any(), gomock.Any()).Return(window, nil)
		store.EXPECT().SaveAnomalies(gomock.Any(), gomock.Len(1)).Return(nil)

		res, err := svc.TransactionAnomaly(ctx, userID, "t1", now)
		require.NoError(t, err)
		assert.False(t, res.IsAnomaly)
		assert.Equal(t, OutcomeOK, res.Outcome)
	})

	t.Run("income is never classified", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		pay := txn("pay", "2024-03-10", "2500", "Income")

		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2024-01-01"), nil)
		store.EXPECT().GetTransactionByID(gomock.Any(), userID, "pay").Return(&pay, nil)
		store.EXPECT().GetTransactions(gomock.Any(), userID, gomock.Any(), gomock.Any()).Return(window, nil)

		res, err := svc.TransactionAnomaly(ctx, userID, "pay", now)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoData, res.Outcome)
		assert.False(t, res.IsAnomaly)
		assert.Nil(t, res.Score)
	})

	t.Run("transaction missing from window is added", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		lone := txn("lone", "2024-03-10", "-25", "Travel")

		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2024-01-01"), nil)
		store.EXPECT().GetTransactionByID(gomock.Any(), userID, "lone").Return(&lone, nil)
		store.EXPECT().GetTransactions(gomock.Any(), userID, gomock.Any(), gomock.Any()).Return(window, nil)

		res, err := svc.TransactionAnomaly(ctx, userID, "lone", now)
		require.NoError(t, err)
		assert.False(t, res.IsAnomaly)
		assert.Equal(t, 1, res.Baseline.Count)
	})

	t.Run("not found", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2024-01-01"), nil)
		store.EXPECT().GetTransactionByID(gomock.Any(), userID, "nope").Return(nil, fmt.Errorf("transaction nope: %w", common.ErrNotFound))

		_, err := svc.TransactionAnomaly(ctx, userID, "nope", now)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("missing transaction id", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2024-01-01"), nil)

		_, err := svc.TransactionAnomaly(ctx, userID, "", now)
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})
}

func TestWeeklyStreak(t *testing.T) {
	ctx := context.Background()
	week := foodWeek("2024-03-11", "2024-03-11", "2024-03-11", "2024-03-11", "2024-03-12")

	tests := []struct {
		name      string
		opts      Options
		txns      []model.Transaction
		outcome   Outcome
		days      [7]int
		clean     int
		anomalous []string
	}{
		{
			name:      "anomaly on tuesday",
			txns:      week,
			outcome:   OutcomeOK,
			days:      [7]int{1, 0, 1, 1, 1, 1, 1},
			clean:     6,
			anomalous: []string{"2024-03-12"},
		},
		{
			name:      "future days excluded",
			opts:      Options{ExcludeFutureDays: true},
			txns:      week,
			outcome:   OutcomeOK,
			days:      [7]int{1, 0, 1, 0, 0, 0, 0},
			clean:     2,
			anomalous: []string{"2024-03-12"},
		},
		{
			name:      "empty week is all clean",
			outcome:   OutcomeNoData,
			days:      [7]int{1, 1, 1, 1, 1, 1, 1},
			clean:     7,
			anomalous: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t, tt.opts)
			store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2024-01-01"), nil)
			store.EXPECT().GetTransactions(gomock.Any(), userID, day("2024-03-11"), day("2024-03-17")).Return(tt.txns, nil)

			res, err := svc.WeeklyStreak(ctx, userID, now)
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, tt.days, res.Days)
			assert.Equal(t, tt.clean, res.CleanDays)
			assert.Equal(t, tt.anomalous, res.AnomalousDays)
			assert.Equal(t, day("2024-03-11"), res.WeekStart)
		})
	}
}

func TestLongestStreak(t *testing.T) {
	ctx := context.Background()

	t.Run("reset by anomaly", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2024-03-01"), nil)
		store.EXPECT().GetTransactions(gomock.Any(), userID, day("2024-03-01"), day("2024-03-13")).
			Return(foodWeek("2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04", "2024-03-05"), nil)

		res, err := svc.LongestStreak(ctx, userID, now)
		require.NoError(t, err)
		assert.Equal(t, OutcomeOK, res.Outcome)
		assert.Equal(t, 8, res.Longest)
		assert.Equal(t, 8, res.Current)
	})

	t.Run("no data counts every day", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2024-03-10"), nil)
		store.EXPECT().GetTransactions(gomock.Any(), userID, day("2024-03-10"), day("2024-03-13")).Return(nil, nil)

		res, err := svc.LongestStreak(ctx, userID, now)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoData, res.Outcome)
		assert.Equal(t, 4, res.Longest)
		assert.Equal(t, 4, res.Current)
	})

	t.Run("storage failure", func(t *testing.T) {
		svc, store := newTestService(t, Options{})
		store.EXPECT().GetUser(gomock.Any(), userID).Return(user("2024-01-01"), nil)
		store.EXPECT().GetTransactions(gomock.Any(), userID, gomock.Any(), gomock.Any()).Return(nil, errors.New("database is locked"))

		_, err := svc.LongestStreak(ctx, userID, now)
		assert.ErrorContains(t, err, "database is locked")
	})
}
