package pixelart

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoImage is returned when a model responds without any image data,
// typically because the request was filtered or the model answered in text.
var ErrNoImage = errors.New("model returned no image")

// RateLimitError is returned when a rate limit is hit.
type RateLimitError struct {
	RetryAfter time.Duration
	LimitType  string
	Model      string
	Err        error // Underlying error from the provider
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter <= 0 {
		return fmt.Sprintf("rate limit exceeded for %s: %s limit", e.Model, e.LimitType)
	}
	return fmt.Sprintf("rate limit exceeded for %s: %s limit, retry after %v",
		e.Model, e.LimitType, e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// IsRateLimitError checks if an error is a RateLimitError.
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}
