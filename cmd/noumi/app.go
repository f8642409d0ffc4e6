package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/noumi/internal/analytics"
	"github.com/Veraticus/noumi/internal/anomaly"
	"github.com/Veraticus/noumi/internal/common"
	"github.com/Veraticus/noumi/internal/config"
	"github.com/Veraticus/noumi/internal/ingest"
	"github.com/Veraticus/noumi/internal/llm"
	"github.com/Veraticus/noumi/internal/narrative"
	"github.com/Veraticus/noumi/internal/plaid"
	"github.com/Veraticus/noumi/internal/storage"
)

// app is the set of services a command runs against.
type app struct {
	store     *storage.SQLiteStorage
	detector  anomaly.Detector
	analytics *analytics.Service
	ingest    *ingest.Service
	llm       *llm.Service
}

// openApp opens and migrates the database and wires every service from cfg.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	a := &app{store: store}
	if err := a.wire(cfg); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(cfg *config.Config) error {
	detector, err := anomaly.NewDetector(cfg.Anomaly.DetectorConfig())
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	a.detector = detector

	var narrator narrative.Narrator
	if cfg.LLM.Provider != "" {
		svc, err := llm.NewService(llm.Config{
			Provider:    cfg.LLM.Provider,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			CacheTTL:    cfg.LLM.CacheTTL,
			RateLimit:   cfg.LLM.RateLimit,
		}, common.ComponentLogger("llm"))
		if err != nil {
			return err
		}
		a.llm = svc
		narrator = narrative.NewLLMNarrator(svc, nil)
	}

	a.analytics, err = analytics.NewService(a.store, detector, analytics.Options{
		Logger:            common.ComponentLogger("analytics"),
		Narrator:          narrator,
		LookbackDays:      cfg.Anomaly.LookbackDays,
		ExcludeFutureDays: cfg.Streak.ExcludeFutureDays,
		WriteThrough:      true,
	})
	if err != nil {
		return err
	}

	var plaidClient plaid.Service
	if cfg.Plaid.ClientID != "" || cfg.Plaid.Secret != "" {
		client, err := plaid.NewClient(plaid.Config{
			ClientID:    cfg.Plaid.ClientID,
			Secret:      cfg.Plaid.Secret,
			Environment: cfg.Plaid.Environment,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
		}
		plaidClient = client
	} else {
		slog.Debug("Plaid credentials not configured; bank linking disabled")
	}
	a.ingest = ingest.NewService(a.store, plaidClient)
	return nil
}

// Close releases the app's resources.
func (a *app) Close() {
	if a.llm != nil {
		a.llm.Close()
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}
