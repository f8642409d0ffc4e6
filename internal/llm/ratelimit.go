package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// DefaultRequestsPerMinute applies when the configured rate is not positive.
const DefaultRequestsPerMinute = 60

var errLimiterClosed = errors.New("llm: rate limiter closed")

// limiter paces provider calls to a per-minute budget. Tokens accrue
// continuously and are settled on each call; the bucket holds at most one
// minute's worth.
type limiter struct {
	now      func() time.Time
	last     time.Time
	closed   chan struct{}
	interval time.Duration // time to earn one token
	tokens   float64
	burst    float64
	mu       sync.Mutex
	once     sync.Once
}

func newLimiter(perMinute int) *limiter {
	return newLimiterWithClock(perMinute, time.Now)
}

func newLimiterWithClock(perMinute int, now func() time.Time) *limiter {
	if perMinute <= 0 {
		perMinute = DefaultRequestsPerMinute
	}
	return &limiter{
		now:      now,
		last:     now(),
		closed:   make(chan struct{}),
		interval: time.Minute / time.Duration(perMinute),
		tokens:   float64(perMinute),
		burst:    float64(perMinute),
	}
}

// settle credits the tokens earned since the last call. Caller holds mu.
func (l *limiter) settle(now time.Time) {
	if elapsed := now.Sub(l.last); elapsed > 0 {
		l.tokens = math.Min(l.burst, l.tokens+float64(elapsed)/float64(l.interval))
		l.last = now
	}
}

// reserve takes a token when one is available. Otherwise it reports how long
// until the next token accrues.
func (l *limiter) reserve() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.settle(l.now())
	if l.tokens >= 1 {
		l.tokens--
		return 0, true
	}
	return time.Duration((1 - l.tokens) * float64(l.interval)), false
}

// Wait blocks until a token is taken, ctx is done or the limiter is closed.
func (l *limiter) Wait(ctx context.Context) error {
	for {
		select {
		case <-l.closed:
			return errLimiterClosed
		default:
		}

		delay, ok := l.reserve()
		if ok {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("llm: waiting for rate limit: %w", ctx.Err())
		case <-l.closed:
			timer.Stop()
			return errLimiterClosed
		case <-timer.C:
		}
	}
}

// Available reports the whole tokens currently in the bucket.
func (l *limiter) Available() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settle(l.now())
	return int(l.tokens)
}

// Close fails pending and future waits. It is safe to call more than once.
func (l *limiter) Close() {
	l.once.Do(func() { close(l.closed) })
}
