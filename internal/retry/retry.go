// Package retry provides retry logic with exponential backoff for event processing
package retry

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/Sheliakhin-Golang-portfolio/SNSStream/internal/config"
)

// Errors
var (
	// ErrMaxRetriesExceeded is returned when all retry attempts have been exhausted
	ErrMaxRetriesExceeded = errors.New("maximum retry attempts exceeded")
)

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so DoWithRetry returns it immediately.
// A nil err stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// DoWithRetry executes fn with retry logic according to the provided configuration.
// fn receives the zero-based attempt number. onRetry, if not nil, is called
// before every retry with the attempt about to run and the error that caused it.
// Errors marked with Permanent are returned unwrapped without retrying.
// It returns ErrMaxRetriesExceeded joined with the last error if all retries fail.
func DoWithRetry(ctx context.Context, cfg *config.RetryConfig, fn func(attempt int) error, onRetry func(attempt int, err error)) error {
	var err error

	for i := range cfg.MaxAttempts + 1 {
		// Check context before attempting
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Execute the function
		err = fn(i)
		if err == nil {
			return nil
		}

		// Permanent errors are never retried
		var pe *permanentError
		if errors.As(err, &pe) {
			return pe.err
		}

		// If this was the last attempt, break the loop
		if i == cfg.MaxAttempts {
			break
		}

		// Calculate backoff delay for next retry
		delay := calculateBackoff(cfg, i)

		// Wait with context cancellation support
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			// Continue to next retry
		}

		if onRetry != nil {
			onRetry(i+1, err)
		}
	}

	// Return the error if all retries failed
	return errors.Join(ErrMaxRetriesExceeded, err)
}

// calculateBackoff computes the backoff delay for a given attempt
func calculateBackoff(cfg *config.RetryConfig, attempt int) time.Duration {
	// Exponential backoff: baseDelayMs * (multiplier ^ attempt)
	delay := time.Duration(float64(cfg.BaseDelayMs) * math.Pow(cfg.Multiplier, float64(attempt)))

	// Cap at MaxDelay
	return min(delay, cfg.MaxDelayMs)
}
