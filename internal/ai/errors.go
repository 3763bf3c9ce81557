package ai

import (
	"errors"
	"fmt"
	"time"
)

// Backend failures are translated into this closed set so callers never inspect
// provider-specific error shapes.
var (
	ErrRateLimited     = errors.New("rate limited")
	ErrUnavailable     = errors.New("backend unavailable")
	ErrInvalidResponse = errors.New("invalid response")
	ErrUnauthorized    = errors.New("unauthorized")

	// ErrTokenBudgetExceeded is matched by *TokenBudgetExceededError.
	ErrTokenBudgetExceeded = errors.New("token budget exceeded")
)

// BackendError carries the taxonomy kind together with provider details.
type BackendError struct {
	Kind       error
	Code       int
	Message    string
	RetryAfter time.Duration
}

func (e *BackendError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%v (code %d): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Kind
}

// TokenBudgetExceededError is returned before any network call when a prompt cannot fit
// the backend context window.
type TokenBudgetExceededError struct {
	Estimated int
	Limit     int
}

func (e *TokenBudgetExceededError) Error() string {
	return fmt.Sprintf("prompt needs about %d tokens, limit is %d", e.Estimated, e.Limit)
}

func (e *TokenBudgetExceededError) Is(target error) bool {
	return target == ErrTokenBudgetExceeded
}

// IsTransient reports whether a retry may succeed.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable) || errors.Is(err, ErrInvalidResponse)
}

// RetryAfter returns the backend's retry hint, or zero.
func RetryAfter(err error) time.Duration {
	var be *BackendError
	if errors.As(err, &be) {
		return be.RetryAfter
	}
	return 0
}

// Kind returns a stable name for the error class, suitable for persisting.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrTokenBudgetExceeded):
		return "token_budget"
	default:
		return "error"
	}
}
