package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 2 * time.Millisecond
	return cfg
}

func TestWithRetry_RetriesThrottling(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(), func(int) error {
		calls++
		if calls < 3 {
			return NewHTTPError(http.StatusTooManyRequests, "429 Too Many Requests", "http://x", "")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetry_DoesNotRetryNotFound(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(), func(int) error {
		calls++
		return NewHTTPError(http.StatusNotFound, "404 Not Found", "http://x", "")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	var httpErr HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected HTTPError 404, got %v", err)
	}
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(), func(int) error {
		calls++
		return NewHTTPError(http.StatusForbidden, "403 Forbidden", "http://x", "")
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	var sc StatusCoder
	if !errors.As(err, &sc) || sc.GetStatusCode() != http.StatusForbidden {
		t.Errorf("expected wrapped 403, got %v", err)
	}
}

func TestWithRetry_CustomPredicate(t *testing.T) {
	decodeErr := errors.New("decode")
	calls := 0
	cfg := fastConfig()
	cfg.RetryIf = func(err error) bool { return errors.Is(err, decodeErr) }

	_ = WithRetry(context.Background(), cfg, func(int) error {
		calls++
		if calls == 1 {
			return decodeErr
		}
		return errors.New("fatal")
	})
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := Config{InitialBackoff: time.Second, MaxBackoff: 5 * time.Second, Multiplier: 2}
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 5 * time.Second},
	}
	for _, tc := range cases {
		if got := calculateBackoff(tc.attempt, cfg); got != tc.want {
			t.Errorf("attempt %d: got %v, want %v", tc.attempt, got, tc.want)
		}
	}
}
