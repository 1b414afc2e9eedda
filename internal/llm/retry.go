package llm

import (
	"context"
	"errors"
	"math"
	"time"
)

// RetryPolicy controls retries for retryable provider errors (429, 5xx).
// The zero MaxRetries disables retrying entirely, which is the default: the
// workflow layer surfaces collaborator failures to the user instead of
// retrying on its own.
type RetryPolicy struct {
	MaxRetries     int
	InitialDelayMS int
	BackoffFactor  float64
	MaxDelayMS     int
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     0,
		InitialDelayMS: 200,
		BackoffFactor:  2.0,
		MaxDelayMS:     60_000,
	}
}

// SleepFunc abstracts the inter-attempt delay so tests can run instantly.
type SleepFunc func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DelayForAttempt computes the deterministic backoff delay for a retry.
// attempt is 1-indexed: the first retry is attempt=1.
func DelayForAttempt(attempt int, policy RetryPolicy) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if policy.InitialDelayMS <= 0 {
		return 0
	}
	factor := policy.BackoffFactor
	if factor <= 0 {
		factor = 1.0
	}
	ms := float64(policy.InitialDelayMS) * math.Pow(factor, float64(attempt-1))
	if policy.MaxDelayMS > 0 {
		ms = math.Min(ms, float64(policy.MaxDelayMS))
	}
	return time.Duration(ms * float64(time.Millisecond))
}

// Retry invokes fn, retrying retryable unified errors up to
// policy.MaxRetries times. A provider-supplied Retry-After takes precedence
// over the computed backoff. Non-retryable errors and context cancellation
// return immediately.
func Retry(ctx context.Context, policy RetryPolicy, sleep SleepFunc, fn func() (Response, error)) (Response, error) {
	if sleep == nil {
		sleep = defaultSleep
	}
	var lastErr error
	for attempt := 0; ; attempt++ {
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var le Error
		if !errors.As(err, &le) || !le.Retryable() || attempt >= policy.MaxRetries {
			return Response{}, err
		}

		delay := DelayForAttempt(attempt+1, policy)
		if ra := le.RetryAfter(); ra != nil && *ra > 0 {
			delay = *ra
		}
		if err := sleep(ctx, delay); err != nil {
			return Response{}, lastErr
		}
	}
}
