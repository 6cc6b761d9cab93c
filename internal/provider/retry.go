package provider

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	// maxRetries is the maximum number of retries for transient API errors.
	maxRetries = 3
	// retryInitialInterval is the initial interval for exponential backoff.
	retryInitialInterval = time.Second
	// retryMaxInterval is the maximum interval for exponential backoff.
	retryMaxInterval = 30 * time.Second
	// retryMaxElapsedTime is the maximum total time for retries.
	retryMaxElapsedTime = 2 * time.Minute
)

// newRetryBackoff creates an exponential backoff with jitter for API
// retries. Jitter avoids thundering-herd retries; the wrapping makes it
// context-aware and bounded.
func newRetryBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = retryMaxElapsedTime
	b.RandomizationFactor = 0.5
	b.Multiplier = 2.0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx)
}

// retryable reports whether a provider call is worth repeating. Rate limits,
// server errors and transport failures are transient; other client errors
// and context cancellation fail fast.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var perr *Error
	if !errors.As(err, &perr) {
		return false
	}
	return perr.Status == 0 || perr.Status == 429 || perr.Status >= 500
}

// sendWithRetry runs call until it succeeds, fails permanently, or the
// backoff gives up. call must return errors already normalized to *Error.
func sendWithRetry[T any](ctx context.Context, log zerolog.Logger, call func() (T, error)) (T, error) {
	b := newRetryBackoff(ctx)
	for {
		res, err := call()
		if err == nil {
			return res, nil
		}
		if !retryable(err) {
			var zero T
			return zero, err
		}
		next := b.NextBackOff()
		if next == backoff.Stop {
			var zero T
			return zero, err
		}
		log.Warn().Err(err).Dur("backoff", next).Msg("provider call failed, retrying")
		select {
		case <-time.After(next):
		case <-ctx.Done():
			var zero T
			return zero, err
		}
	}
}
