// Package api exposes analytics and ingest over HTTP.
package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/noumi/internal/analytics"
	"github.com/Veraticus/noumi/internal/common"
	"github.com/Veraticus/noumi/internal/ingest"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

const shutdownTimeout = 10 * time.Second

// Analytics is the read side the API serves. *analytics.Service satisfies it.
type Analytics interface {
	YearlyAnomalies(ctx context.Context, userID string, now time.Time) (*analytics.YearlyAnomaliesResult, error)
	TransactionAnomaly(ctx context.Context, userID, transactionID string, now time.Time) (*analytics.TransactionAnomalyResult, error)
	WeeklyStreak(ctx context.Context, userID string, now time.Time) (*analytics.WeeklyStreakResult, error)
	LongestStreak(ctx context.Context, userID string, now time.Time) (*analytics.LongestStreakResult, error)
	SpendingTrends(ctx context.Context, userID string, now time.Time) (*analytics.TrendsResult, error)
	SpendingCategories(ctx context.Context, userID string, now time.Time) (*analytics.CategoriesResult, error)
	SpendingStatus(ctx context.Context, userID string, now time.Time) (*analytics.StatusResult, error)
	WeeklySavings(ctx context.Context, userID string, now time.Time) (*analytics.SavingsResult, error)
	TotalSpentYTD(ctx context.Context, userID string, now time.Time) (*analytics.TotalSpentResult, error)
	ComputedGoal(ctx context.Context, userID string, now time.Time) (*analytics.ComputedGoalResult, error)
	WeeklyPlan(ctx context.Context, userID string, now time.Time) (*analytics.PlanResult, error)
	Habits(ctx context.Context, userID string, now time.Time) (*analytics.HabitsResult, error)
	HabitAccomplishments(ctx context.Context, userID string, now time.Time) (*analytics.AccomplishmentsResult, error)
	WeeklyRecap(ctx context.Context, userID string, now time.Time) (*analytics.RecapResult, error)
	SubmitGoal(ctx context.Context, userID string, sub analytics.GoalSubmission, now time.Time) (*model.Goal, error)
}

// Ingestor links banks and pulls transactions. *ingest.Service satisfies it.
type Ingestor interface {
	CreateLinkToken(ctx context.Context, userID string) (string, error)
	Connect(ctx context.Context, userID, publicToken string, now time.Time) (*model.PlaidConnection, error)
	SyncPlaid(ctx context.Context, userID string, start, end time.Time) (*ingest.Result, error)
}

// UserStore creates accounts. storage.SQLiteStorage satisfies it.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
}

// Config configures the HTTP server.
type Config struct {
	Now          func() time.Time
	Logger       *slog.Logger
	TLSConfig    *tls.Config // serve HTTPS when set
	Addr         string
	Version      string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the Noumi HTTP API.
type Server struct {
	analytics Analytics
	ingest    Ingestor
	users     UserStore
	engine    *gin.Engine
	handler   http.Handler
	metrics   *metrics
	logger    *slog.Logger
	now       func() time.Time
	cfg       Config
}

// NewServer wires routes, middleware and metrics.
func NewServer(cfg Config, svc Analytics, ingestor Ingestor, users UserStore) *Server {
	gin.SetMode(gin.ReleaseMode)

	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Logger == nil {
		cfg.Logger = common.ComponentLogger("api")
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Server{
		analytics: svc,
		ingest:    ingestor,
		users:     users,
		engine:    gin.New(),
		metrics:   newMetrics(registry),
		logger:    cfg.Logger,
		now:       cfg.Now,
		cfg:       cfg,
	}

	s.engine.Use(gin.Recovery(), requestID(), s.metrics.middleware(), requestLogger(s.logger))
	s.routes(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	s.handler = cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	}).Handler(s.engine)

	return s
}

func (s *Server) routes(metricsHandler http.Handler) {
	s.engine.GET("/health", s.health)
	s.engine.GET("/metrics", gin.WrapH(metricsHandler))

	v1 := s.engine.Group("/api/v1")
	v1.POST("/users", s.createUser)

	u := v1.Group("/users/:userID")
	{
		u.GET("/anomalies/yearly", s.yearlyAnomalies)
		u.POST("/transactions/:transactionID/anomaly", s.transactionAnomaly)

		u.GET("/streak/weekly", s.weeklyStreak)
		u.GET("/streak/longest", s.longestStreak)

		u.GET("/trends", s.spendingTrends)
		u.GET("/spending/categories", s.spendingCategories)
		u.GET("/spending/status", s.spendingStatus)
		u.GET("/spending/total", s.totalSpent)
		u.GET("/savings/weekly", s.weeklySavings)

		u.GET("/goal/computed", s.computedGoal)
		u.POST("/quiz", s.submitQuiz)

		u.GET("/plans/weekly", s.weeklyPlan)
		u.GET("/habits", s.habits)
		u.GET("/accomplished_habits", s.accomplishments)
		u.GET("/recaps/weekly", s.weeklyRecap)

		u.POST("/plaid/link-token", s.linkToken)
		u.POST("/plaid/connect", s.connectPlaid)
		u.POST("/plaid/sync", s.syncPlaid)
	}
}

// Handler returns the root handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		TLSConfig:    s.cfg.TLSConfig,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", "addr", s.cfg.Addr, "tls", srv.TLSConfig != nil)
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
