package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryOptions {
	return RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func TestWithRetry(t *testing.T) {
	errTransient := errors.New("transient")

	tests := []struct {
		wantErr   error
		name      string
		failures  int
		permanent bool
		wantCalls int
	}{
		{name: "succeeds first time", failures: 0, wantCalls: 1},
		{name: "succeeds after retries", failures: 2, wantCalls: 3},
		{name: "exhausts attempts", failures: 5, wantCalls: 3, wantErr: ErrMaxRetries},
		{name: "permanent error stops immediately", failures: 5, permanent: true, wantCalls: 1, wantErr: errTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), func() error {
				calls++
				if calls <= tt.failures {
					if tt.permanent {
						return Permanent(errTransient)
					}
					return errTransient
				}
				return nil
			}, fastRetry())

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := fastRetry()
	opts.InitialDelay = time.Second
	err := WithRetry(ctx, func() error { return errors.New("boom") }, opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(Permanent(errors.New("x"))))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestUserError(t *testing.T) {
	err := NewUserError("Goal amount must be positive", ErrInvalidInput)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "Goal amount must be positive: invalid input", err.Error())

	msg, ok := UserMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Goal amount must be positive", msg)

	_, ok = UserMessage(errors.New("plain"))
	assert.False(t, ok)
}

func TestParseLevel(t *testing.T) {
	for in, ok := range map[string]bool{"debug": true, "INFO": true, "": true, "warning": true, "error": true, "loud": false} {
		_, err := ParseLevel(in)
		assert.Equal(t, ok, err == nil, in)
	}
}
