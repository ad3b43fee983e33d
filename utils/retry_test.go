package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry_Success(t *testing.T) {
	config := DefaultRetryConfig()
	ctx := context.Background()
	attempts := 0

	err := Retry(ctx, config, func() error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("Retry() error = %v, want nil", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_EventualSuccess(t *testing.T) {
	config := DefaultRetryConfig()
	config.BaseDelay = time.Millisecond
	ctx := context.Background()
	attempts := 0

	err := Retry(ctx, config, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	})

	if err != nil {
		t.Errorf("Retry() error = %v, want nil", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_MaxAttempts(t *testing.T) {
	config := DefaultRetryConfig()
	config.MaxAttempts = 3
	config.BaseDelay = time.Millisecond
	ctx := context.Background()
	attempts := 0

	err := Retry(ctx, config, func() error {
		attempts++
		return errors.New("persistent error")
	})

	if err == nil {
		t.Error("Retry() expected error")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_NonRetryableError(t *testing.T) {
	retryable := errors.New("retryable")
	terminal := errors.New("terminal")

	config := DefaultRetryConfig()
	config.MaxAttempts = 5
	config.BaseDelay = time.Millisecond
	config.RetryableErrors = []error{retryable}

	attempts := 0
	err := Retry(context.Background(), config, func() error {
		attempts++
		if attempts == 2 {
			return terminal
		}
		return retryable
	})

	if !errors.Is(err, terminal) {
		t.Errorf("Retry() error = %v, want %v", err, terminal)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	config := DefaultRetryConfig()
	config.MaxAttempts = 10
	config.BaseDelay = 100 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	attempts := 0
	start := time.Now()

	err := Retry(ctx, config, func() error {
		attempts++
		return errors.New("error")
	})

	duration := time.Since(start)
	if err == nil {
		t.Error("Retry() expected error")
	}
	if duration >= 500*time.Millisecond {
		t.Errorf("duration = %v, want < 500ms", duration)
	}
}
