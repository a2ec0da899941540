// Package ratelimiter admits requests against per-minute token and request quotas.
package ratelimiter

import (
	"context"
	"errors"
	"time"
)

// ErrWaitExceeded is returned by WaitAndConsume when capacity would not be
// available within the caller's maximum wait.
var ErrWaitExceeded = errors.New("rate limit wait exceeds maximum")

// Limit types reported by Limiter.LimitedBy.
const (
	LimitTypeTokens   = "tokens"
	LimitTypeRequests = "requests"
)

// Limiter admits requests that cost a number of tokens.
// Implementations can be local (in-memory) or shared between processes.
type Limiter interface {
	// TryConsume consumes tokens and one request slot if both are available.
	// Nothing is consumed when it returns false.
	TryConsume(tokens int) bool

	// TimeUntilAvailable reports how long until TryConsume(tokens) would succeed.
	TimeUntilAvailable(tokens int) time.Duration

	// WaitAndConsume blocks until capacity is available and consumes it.
	// A zero maxWait means no upper bound.
	WaitAndConsume(ctx context.Context, tokens int, maxWait time.Duration) error

	// LimitedBy names the quota that would refuse a request for tokens:
	// LimitTypeTokens, LimitTypeRequests, or "" when it would be admitted.
	LimitedBy(tokens int) string
}

// Registry holds one Limiter per model name.
type Registry interface {
	Get(model string) (Limiter, bool)
	Set(model string, limiter Limiter)
	Delete(model string)
}
