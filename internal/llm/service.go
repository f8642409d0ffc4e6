package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/noumi/internal/common"
)

// Service wraps a provider client with rate limiting, retries and a response cache.
type Service struct {
	client      Client
	cache       *responseCache
	logger      *slog.Logger
	limiter     *limiter
	model       string
	retryOpts   common.RetryOptions
	temperature float64
	maxTokens   int
}

// NewService creates a Service for the configured provider.
func NewService(cfg Config, logger *slog.Logger) (*Service, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return newService(client, cfg, logger), nil
}

func newService(client Client, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = common.ComponentLogger("llm")
	}

	retryOpts := common.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Service{
		client:      client,
		cache:       newResponseCache(cfg.CacheTTL),
		logger:      logger,
		model:       cfg.Model,
		retryOpts:   retryOpts,
		limiter:     newLimiter(cfg.RateLimit),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Complete returns a cached completion when available, otherwise calls the
// provider under the rate limiter with retries.
func (s *Service) Complete(ctx context.Context, req Request) (Response, error) {
	key := cacheKey(s.model, s.temperature, s.maxTokens, req)
	if resp, found := s.cache.get(key); found {
		s.logger.Debug("cache hit for completion")
		return resp, nil
	}

	var resp Response
	err := common.WithRetry(ctx, func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return common.Permanent(err)
		}

		var callErr error
		resp, callErr = s.client.Complete(ctx, req)
		return callErr
	}, s.retryOpts)
	if err != nil {
		return Response{}, err
	}

	s.cache.set(key, resp)
	s.logger.Info("completion generated",
		"model", resp.Model,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens)

	return resp, nil
}

// Close stops the cache janitor and fails pending rate-limit waits.
func (s *Service) Close() {
	s.cache.Close()
	s.limiter.Close()
}

var _ Client = (*Service)(nil)
