package ratelimiter

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// RateLimiter combines a token bucket and a request bucket, both refilled per minute.
type RateLimiter struct {
	TokensBucket   *TokenBucket
	RequestsBucket *TokenBucket
}

var _ Limiter = (*RateLimiter)(nil)

// New creates a RateLimiter allowing tokensPerMinute tokens and requestsPerMinute
// requests. A non-positive value disables that dimension.
func New(tokensPerMinute, requestsPerMinute int) *RateLimiter {
	return NewWithInterval(tokensPerMinute, requestsPerMinute, time.Minute)
}

// NewWithInterval is New with a custom refill interval.
func NewWithInterval(tokens, requests int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		TokensBucket:   NewTokenBucket(tokens, tokens, interval),
		RequestsBucket: NewTokenBucket(requests, requests, interval),
	}
}

// TryConsume takes numTokens from the token bucket and one slot from the
// request bucket, or nothing at all.
func (rl *RateLimiter) TryConsume(numTokens int) bool {
	if !rl.TokensBucket.TryConsume(numTokens) {
		return false
	}
	if !rl.RequestsBucket.TryConsume(1) {
		rl.TokensBucket.refund(numTokens)
		return false
	}
	return true
}

// TimeUntilAvailable returns the longer of the two bucket waits.
func (rl *RateLimiter) TimeUntilAvailable(tokens int) time.Duration {
	return max(rl.TokensBucket.TimeUntilAvailable(tokens), rl.RequestsBucket.TimeUntilAvailable(1))
}

// LimitedBy reports the bucket with the longer wait for tokens. Tokens win a
// tie since TryConsume checks them first.
func (rl *RateLimiter) LimitedBy(tokens int) string {
	tokenWait := rl.TokensBucket.TimeUntilAvailable(tokens)
	requestWait := rl.RequestsBucket.TimeUntilAvailable(1)
	switch {
	case tokenWait == 0 && requestWait == 0:
		return ""
	case requestWait > tokenWait:
		return LimitTypeRequests
	default:
		return LimitTypeTokens
	}
}

// WaitAndConsume waits until tokens are available (up to maxWait), then consumes them.
func (rl *RateLimiter) WaitAndConsume(ctx context.Context, tokens int, maxWait time.Duration) error {
	var deadline time.Time
	if maxWait > 0 {
		deadline = time.Now().Add(maxWait)
	}

	for {
		if rl.TryConsume(tokens) {
			return nil
		}

		wait := rl.TimeUntilAvailable(tokens)
		if wait <= 0 {
			// Another caller took the capacity between the two checks.
			wait = time.Millisecond
		}
		if !deadline.IsZero() && time.Now().Add(wait).After(deadline) {
			return fmt.Errorf("%w: need %v, max %v", ErrWaitExceeded, wait, maxWait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TokenBucket is a continuously refilling token bucket.
type TokenBucket struct {
	mu             sync.Mutex
	capacity       int
	remaining      float64
	refillInterval time.Duration
	lastRefill     time.Time

	now func() time.Time
}

// NewTokenBucket creates a bucket holding up to capacity tokens, starting with
// initialTokens, refilled at capacity tokens per refillInterval.
// A bucket with non-positive capacity never limits.
func NewTokenBucket(capacity, initialTokens int, refillInterval time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:       capacity,
		remaining:      float64(min(initialTokens, capacity)),
		refillInterval: refillInterval,
		lastRefill:     time.Now(),
		now:            time.Now,
	}
}

func (tb *TokenBucket) unlimited() bool {
	return tb.capacity <= 0 || tb.refillInterval <= 0
}

// refill must be called with mu held.
func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill)
	if elapsed <= 0 {
		return
	}
	rate := float64(tb.capacity) / float64(tb.refillInterval)
	tb.remaining = math.Min(float64(tb.capacity), tb.remaining+rate*float64(elapsed))
	tb.lastRefill = now
}

// Remaining reports the whole tokens currently available.
func (tb *TokenBucket) Remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.unlimited() {
		return math.MaxInt
	}
	tb.refill()
	return int(tb.remaining)
}

// TryConsume takes tokens if available.
func (tb *TokenBucket) TryConsume(tokens int) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.unlimited() {
		return true
	}
	tb.refill()
	if float64(tokens) > tb.remaining {
		return false
	}
	tb.remaining -= float64(tokens)
	return true
}

func (tb *TokenBucket) refund(tokens int) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.unlimited() {
		return
	}
	tb.remaining = math.Min(float64(tb.capacity), tb.remaining+float64(tokens))
}

// TimeUntilAvailable returns how long until tokens could be consumed. Requests
// larger than the capacity can never be satisfied and report one full interval
// beyond the capacity.
func (tb *TokenBucket) TimeUntilAvailable(tokens int) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.unlimited() {
		return 0
	}
	tb.refill()
	if float64(tokens) <= tb.remaining {
		return 0
	}

	needed := float64(tokens) - tb.remaining
	rate := float64(tb.capacity) / float64(tb.refillInterval)
	return time.Duration(math.Ceil(needed / rate))
}
