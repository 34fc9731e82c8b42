package api

import (
	"context"
	"testing"
	"time"
)

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()

	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.BaseDelay != 250*time.Millisecond {
		t.Errorf("BaseDelay = %v, want 250ms", cfg.BaseDelay)
	}
	if cfg.MaxDelay != 4*time.Second {
		t.Errorf("MaxDelay = %v, want 4s", cfg.MaxDelay)
	}
	if cfg.Multiplier != 2.0 {
		t.Errorf("Multiplier = %v, want 2.0", cfg.Multiplier)
	}
	if cfg.Jitter != 0.2 {
		t.Errorf("Jitter = %v, want 0.2", cfg.Jitter)
	}
	if cfg.RetryableOn == nil {
		t.Error("RetryableOn is nil")
	}
}

func TestRetryConfig_ShouldRetry(t *testing.T) {
	cfg := DefaultRetryConfig()

	tests := []struct {
		name       string
		attempt    int
		statusCode int
		expected   bool
	}{
		{"first attempt, retryable", 0, 503, true},
		{"second attempt, retryable", 1, 503, true},
		{"third attempt, retryable", 2, 503, true},
		{"max attempts reached", 3, 503, false},
		{"over max attempts", 4, 503, false},
		{"non-retryable 400", 0, 400, false},
		{"non-retryable 401", 0, 401, false},
		{"non-retryable 403", 0, 403, false},
		{"non-retryable 404", 0, 404, false},
		{"non-retryable 422", 0, 422, false},
		{"retryable 408", 0, 408, true},
		{"retryable 429", 0, 429, true},
		{"retryable 500", 0, 500, true},
		{"retryable 502", 0, 502, true},
		{"retryable 503", 0, 503, true},
		{"retryable 504", 0, 504, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := cfg.ShouldRetry(tt.attempt, tt.statusCode)
			if result != tt.expected {
				t.Errorf("ShouldRetry(%d, %d) = %v, want %v",
					tt.attempt, tt.statusCode, result, tt.expected)
			}
		})
	}
}

func TestRetryConfig_Delay(t *testing.T) {
	cfg := &RetryConfig{
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     0, // No jitter for predictable tests
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
	}

	for _, tt := range tests {
		got := cfg.Delay(tt.attempt)
		if got != tt.expected {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.expected)
		}
	}
}

func TestRetryConfig_Delay_CapsAtMaxDelay(t *testing.T) {
	cfg := &RetryConfig{
		BaseDelay:  time.Second,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
		Jitter:     0,
	}

	if got := cfg.Delay(10); got != 5*time.Second {
		t.Errorf("Delay(10) = %v, want capped 5s", got)
	}
}

func TestRetryConfig_Delay_MonotonicWithoutJitter(t *testing.T) {
	cfg := &RetryConfig{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
		Jitter:     0,
	}

	prev := time.Duration(0)
	for attempt := 0; attempt < 8; attempt++ {
		d := cfg.Delay(attempt)
		if d < prev {
			t.Errorf("Delay(%d) = %v, decreased from %v", attempt, d, prev)
		}
		prev = d
	}
}

func TestRetryConfig_Delay_JitterStaysInBounds(t *testing.T) {
	cfg := &RetryConfig{
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.2,
	}

	for i := 0; i < 100; i++ {
		d := cfg.Delay(1) // nominal 2s, jittered ±20%
		if d < 1600*time.Millisecond || d > 2400*time.Millisecond {
			t.Fatalf("Delay(1) = %v, want within [1.6s, 2.4s]", d)
		}
	}
}

func TestRetryConfig_Wait_RespectsContext(t *testing.T) {
	cfg := &RetryConfig{
		BaseDelay:  10 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := cfg.Wait(ctx, 0); err != context.Canceled {
		t.Errorf("Wait() = %v, want context.Canceled", err)
	}
}

func TestRetryConfig_Wait_Completes(t *testing.T) {
	cfg := &RetryConfig{
		BaseDelay:  time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	if err := cfg.Wait(context.Background(), 0); err != nil {
		t.Errorf("Wait() = %v, want nil", err)
	}
}
