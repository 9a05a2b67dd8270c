// Package retry wraps calls to external collaborators with bounded
// exponential backoff, retrying only failures classified as transient.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// TransientError marks a failure worth retrying, typically rate limiting
// or a server-side error from an external service.
type TransientError struct {
	StatusCode int
	Message    string
}

func (e *TransientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transient error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("transient error: %s", e.Message)
}

// TransientStatus reports whether an HTTP status code indicates a failure
// that a later attempt may not hit.
func TransientStatus(code int) bool {
	return code == 429 || code >= 500
}

// IsTransient classifies an error as retry-eligible. Covers our own
// TransientError, OpenAI-protocol API errors with retryable status codes,
// request transport errors, and timeouts.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return TransientStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 0 || TransientStatus(reqErr.HTTPStatusCode)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

const maxBackoff = 30 * time.Second

// Caller runs operations with exponential backoff. The delay before
// attempt n is BaseDelay * 2^(n-1), capped at 30s.
type Caller struct {
	MaxRetries int
	BaseDelay  time.Duration
}

func NewCaller() *Caller {
	return &Caller{MaxRetries: 3, BaseDelay: time.Second}
}

// Do invokes fn until it succeeds, fails permanently, or the retry budget
// runs out. Context cancellation aborts between attempts.
func (c *Caller) Do(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if attempt >= c.MaxRetries {
			return fmt.Errorf("gave up after %d attempts: %w", attempt+1, err)
		}
		if sleepErr := sleep(ctx, c.backoff(attempt)); sleepErr != nil {
			return sleepErr
		}
	}
}

func (c *Caller) backoff(attempt int) time.Duration {
	d := c.BaseDelay << uint(attempt)
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
