package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestDelayForAttempt(t *testing.T) {
	policy := RetryPolicy{InitialDelayMS: 200, BackoffFactor: 2.0, MaxDelayMS: 60_000}
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, 1600 * time.Millisecond},
		{0, 200 * time.Millisecond}, // clamped to first retry
	}
	for _, tc := range cases {
		if got := DelayForAttempt(tc.attempt, policy); got != tc.want {
			t.Fatalf("attempt %d: got %v want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestDelayForAttempt_Cap(t *testing.T) {
	policy := RetryPolicy{InitialDelayMS: 200, BackoffFactor: 2.0, MaxDelayMS: 1000}
	if got := DelayForAttempt(10, policy); got != time.Second {
		t.Fatalf("capped delay: got %v want 1s", got)
	}
}

func TestRetry_RetryableUntilSuccess(t *testing.T) {
	attempts := 0
	fn := func() (Response, error) {
		attempts++
		if attempts < 3 {
			return Response{}, ErrorFromHTTPStatus("google", 503, "overloaded", nil)
		}
		return Response{Text: "ok"}, nil
	}
	policy := RetryPolicy{MaxRetries: 3, InitialDelayMS: 1, BackoffFactor: 2.0}
	resp, err := Retry(context.Background(), policy, noSleep, fn)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if resp.Text != "ok" || attempts != 3 {
		t.Fatalf("resp=%q attempts=%d", resp.Text, attempts)
	}
}

func TestRetry_NonRetryableStopsImmediately(t *testing.T) {
	attempts := 0
	fn := func() (Response, error) {
		attempts++
		return Response{}, ErrorFromHTTPStatus("google", 401, "bad key", nil)
	}
	policy := RetryPolicy{MaxRetries: 5, InitialDelayMS: 1}
	_, err := Retry(context.Background(), policy, noSleep, fn)
	var auth *AuthenticationError
	if !errors.As(err, &auth) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("non-retryable error retried: %d attempts", attempts)
	}
}

func TestRetry_ExhaustsBudget(t *testing.T) {
	attempts := 0
	fn := func() (Response, error) {
		attempts++
		return Response{}, ErrorFromHTTPStatus("google", 429, "rate limited", nil)
	}
	policy := RetryPolicy{MaxRetries: 2, InitialDelayMS: 1, BackoffFactor: 2.0}
	_, err := Retry(context.Background(), policy, noSleep, fn)
	var rate *RateLimitError
	if !errors.As(err, &rate) {
		t.Fatalf("expected RateLimitError after exhaustion, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts: got %d want 3 (initial + 2 retries)", attempts)
	}
}

func TestRetry_ZeroRetriesByDefault(t *testing.T) {
	attempts := 0
	fn := func() (Response, error) {
		attempts++
		return Response{}, ErrorFromHTTPStatus("google", 503, "overloaded", nil)
	}
	_, err := Retry(context.Background(), DefaultRetryPolicy(), noSleep, fn)
	if err == nil || attempts != 1 {
		t.Fatalf("default policy must not retry: err=%v attempts=%d", err, attempts)
	}
}

func TestRetry_RetryAfterPrecedence(t *testing.T) {
	ra := 5 * time.Second
	attempts := 0
	fn := func() (Response, error) {
		attempts++
		if attempts == 1 {
			return Response{}, ErrorFromHTTPStatus("openai", 429, "rate limited", &ra)
		}
		return Response{Text: "ok"}, nil
	}
	var slept []time.Duration
	sleep := func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	policy := RetryPolicy{MaxRetries: 1, InitialDelayMS: 200, BackoffFactor: 2.0}
	if _, err := Retry(context.Background(), policy, sleep, fn); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if len(slept) != 1 || slept[0] != ra {
		t.Fatalf("retry-after ignored: slept %v", slept)
	}
}

func TestRetry_CanceledSleepReturnsLastError(t *testing.T) {
	fn := func() (Response, error) {
		return Response{}, ErrorFromHTTPStatus("google", 503, "overloaded", nil)
	}
	sleep := func(ctx context.Context, d time.Duration) error { return context.Canceled }
	policy := RetryPolicy{MaxRetries: 3, InitialDelayMS: 1}
	_, err := Retry(context.Background(), policy, sleep, fn)
	var srv *ServerError
	if !errors.As(err, &srv) {
		t.Fatalf("expected last provider error, got %v", err)
	}
}
