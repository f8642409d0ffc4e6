package llm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(perMinute int) (*limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}
	return newLimiterWithClock(perMinute, clock.Now), clock
}

func TestLimiter_Burst(t *testing.T) {
	l, _ := newTestLimiter(10)
	defer l.Close()

	for i := 0; i < 10; i++ {
		_, ok := l.reserve()
		require.True(t, ok, "token %d", i)
	}
	delay, ok := l.reserve()
	assert.False(t, ok)
	assert.Equal(t, 6*time.Second, delay)
}

func TestLimiter_Accrual(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{name: "nothing earned yet", elapsed: 0, want: 0},
		{name: "half a token", elapsed: 3 * time.Second, want: 0},
		{name: "one token", elapsed: 6 * time.Second, want: 1},
		{name: "several tokens", elapsed: 25 * time.Second, want: 4},
		{name: "capped at the burst", elapsed: time.Hour, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, clock := newTestLimiter(10)
			defer l.Close()
			for l.Available() > 0 {
				_, _ = l.reserve()
			}

			clock.Advance(tt.elapsed)
			assert.Equal(t, tt.want, l.Available())
		})
	}
}

func TestLimiter_PartialTokenShortensDelay(t *testing.T) {
	l, clock := newTestLimiter(1)
	defer l.Close()

	_, ok := l.reserve()
	require.True(t, ok)

	clock.Advance(45 * time.Second)
	delay, ok := l.reserve()
	assert.False(t, ok)
	assert.Equal(t, 15*time.Second, delay)
}

func TestLimiter_WaitCanceled(t *testing.T) {
	l, _ := newTestLimiter(1)
	defer l.Close()
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- l.Wait(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	err := <-done
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "waiting for rate limit")
}

func TestLimiter_CloseReleasesWaiters(t *testing.T) {
	l, _ := newTestLimiter(1)
	require.NoError(t, l.Wait(context.Background()))

	done := make(chan error)
	go func() { done <- l.Wait(context.Background()) }()

	time.Sleep(10 * time.Millisecond)
	l.Close()
	l.Close()

	assert.ErrorIs(t, <-done, errLimiterClosed)
	assert.ErrorIs(t, l.Wait(context.Background()), errLimiterClosed)
}

func TestLimiter_DefaultRate(t *testing.T) {
	l, _ := newTestLimiter(0)
	defer l.Close()
	assert.Equal(t, DefaultRequestsPerMinute, l.Available())
	assert.Equal(t, time.Second, l.interval)
}
