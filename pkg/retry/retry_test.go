package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	errUtils "github.com/cloudposse/flopen/errors"
)

func TestExecutor_Execute_Success(t *testing.T) {
	config := Config{
		MaxAttempts:     3,
		BackoffStrategy: BackoffConstant,
		InitialDelay:    10 * time.Millisecond,
		MaxDelay:        100 * time.Millisecond,
		Multiplier:      2.0,
		MaxElapsedTime:  1 * time.Second,
	}

	executor := New(config)
	attempts := 0

	fn := func() error {
		attempts++
		if attempts < 2 {
			return errors.New("temporary error")
		}
		return nil
	}

	err := executor.Execute(context.Background(), fn)
	if err != nil {
		t.Errorf("Expected success, got error: %v", err)
	}

	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestExecutor_Execute_MaxAttemptsExceeded(t *testing.T) {
	config := Config{
		MaxAttempts:     3,
		BackoffStrategy: BackoffConstant,
		InitialDelay:    1 * time.Millisecond,
		MaxDelay:        100 * time.Millisecond,
		Multiplier:      2.0,
		MaxElapsedTime:  1 * time.Second,
	}

	executor := New(config)
	attempts := 0
	expectedError := errors.New("persistent error")

	fn := func() error {
		attempts++
		return expectedError
	}

	err := executor.Execute(context.Background(), fn)

	if err == nil {
		t.Error("Expected error, got nil")
	}

	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}

	if !strings.Contains(err.Error(), "max attempts (3) exceeded") {
		t.Errorf("Expected max attempts error, got: %v", err)
	}

	if !errors.Is(err, expectedError) {
		t.Errorf("Expected wrapped last error, got: %v", err)
	}
}

func TestExecutor_Execute_ContextCancelled(t *testing.T) {
	config := Config{
		MaxAttempts:     5,
		BackoffStrategy: BackoffConstant,
		InitialDelay:    50 * time.Millisecond,
		MaxDelay:        100 * time.Millisecond,
		Multiplier:      2.0,
		MaxElapsedTime:  1 * time.Second,
	}

	executor := New(config)
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	fn := func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	}

	err := executor.Execute(ctx, fn)

	if err == nil {
		t.Error("Expected error, got nil")
	}

	if !strings.Contains(err.Error(), "context cancelled") {
		t.Errorf("Expected context cancelled error, got: %v", err)
	}
}

func TestExecutor_Execute_MaxElapsedTimeExceeded(t *testing.T) {
	config := Config{
		MaxAttempts:     10,
		BackoffStrategy: BackoffConstant,
		InitialDelay:    1 * time.Millisecond,
		MaxDelay:        100 * time.Millisecond,
		Multiplier:      2.0,
		MaxElapsedTime:  20 * time.Millisecond,
	}

	executor := New(config)
	attempts := 0

	fn := func() error {
		attempts++
		time.Sleep(15 * time.Millisecond)
		return errors.New("error")
	}

	err := executor.Execute(context.Background(), fn)

	if err == nil {
		t.Error("Expected error, got nil")
	}

	var elapsed MaxElapsedTimeError
	if !errors.As(err, &elapsed) {
		t.Errorf("Expected MaxElapsedTimeError, got: %v", err)
	}
}

func TestExecutor_ExecuteWithPredicate_StopsOnNonRetryable(t *testing.T) {
	config := Config{
		MaxAttempts:     5,
		BackoffStrategy: BackoffConstant,
		InitialDelay:    1 * time.Millisecond,
		MaxDelay:        100 * time.Millisecond,
		Multiplier:      2.0,
		MaxElapsedTime:  1 * time.Second,
	}

	executor := New(config)
	attempts := 0
	fatal := errors.New("fatal error")

	fn := func() error {
		attempts++
		return fatal
	}

	err := executor.ExecuteWithPredicate(context.Background(), fn, func(err error) bool {
		return false
	})

	if !errors.Is(err, fatal) {
		t.Errorf("Expected the original error, got: %v", err)
	}

	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestExecutor_CalculateDelay_Constant(t *testing.T) {
	config := Config{
		BackoffStrategy: BackoffConstant,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        1 * time.Second,
		Multiplier:      2.0,
	}

	executor := New(config)

	for attempt := 1; attempt <= 5; attempt++ {
		delay := executor.calculateDelay(attempt)
		expected := 100 * time.Millisecond

		if delay != expected {
			t.Errorf("Attempt %d: expected %v, got %v", attempt, expected, delay)
		}
	}
}

func TestExecutor_CalculateDelay_Linear(t *testing.T) {
	config := Config{
		BackoffStrategy: BackoffLinear,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        1 * time.Second,
		Multiplier:      2.0,
	}

	executor := New(config)

	expectedDelays := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
		400 * time.Millisecond,
	}

	for i, expected := range expectedDelays {
		attempt := i + 1
		delay := executor.calculateDelay(attempt)

		if delay != expected {
			t.Errorf("Attempt %d: expected %v, got %v", attempt, expected, delay)
		}
	}
}

func TestExecutor_CalculateDelay_Exponential(t *testing.T) {
	config := Config{
		BackoffStrategy: BackoffExponential,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        1 * time.Second,
		Multiplier:      2.0,
	}

	executor := New(config)

	expectedDelays := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
	}

	for i, expected := range expectedDelays {
		attempt := i + 1
		delay := executor.calculateDelay(attempt)

		if delay != expected {
			t.Errorf("Attempt %d: expected %v, got %v", attempt, expected, delay)
		}
	}
}

func TestExecutor_CalculateDelay_MaxDelayCap(t *testing.T) {
	config := Config{
		BackoffStrategy: BackoffExponential,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        300 * time.Millisecond,
		Multiplier:      2.0,
	}

	executor := New(config)

	delay := executor.calculateDelay(5)
	if delay != 300*time.Millisecond {
		t.Errorf("Expected delay capped at 300ms, got %v", delay)
	}
}

func TestExecutor_CalculateDelay_JitterBounds(t *testing.T) {
	config := Config{
		BackoffStrategy: BackoffConstant,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        1 * time.Second,
		RandomJitter:    true,
		Multiplier:      2.0,
	}

	executor := New(config)

	// Jitter is at most 10% in either direction.
	for i := 0; i < 100; i++ {
		delay := executor.calculateDelay(1)
		if delay < 90*time.Millisecond || delay > 110*time.Millisecond {
			t.Errorf("Jittered delay %v outside [90ms, 110ms]", delay)
		}
	}
}

func TestDo_NilConfigUsesDefaults(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), nil, func() error {
		attempts++
		return nil
	})
	if err != nil {
		t.Errorf("Expected success, got error: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestWithPredicate_RetryOnWouldBlock(t *testing.T) {
	config := Config{
		MaxAttempts:     5,
		BackoffStrategy: BackoffConstant,
		InitialDelay:    1 * time.Millisecond,
		MaxDelay:        10 * time.Millisecond,
		Multiplier:      2.0,
		MaxElapsedTime:  1 * time.Second,
	}

	attempts := 0
	err := WithPredicate(context.Background(), &config, func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("%w: /tmp/test.lock", errUtils.ErrWouldBlock)
		}
		return nil
	}, RetryOnWouldBlock)

	if err != nil {
		t.Errorf("Expected success after lock released, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestWithPredicate_FatalErrorNotRetried(t *testing.T) {
	config := Config{
		MaxAttempts:     5,
		BackoffStrategy: BackoffConstant,
		InitialDelay:    1 * time.Millisecond,
		MaxDelay:        10 * time.Millisecond,
		Multiplier:      2.0,
		MaxElapsedTime:  1 * time.Second,
	}

	attempts := 0
	fatal := errors.New("permission denied")
	err := WithPredicate(context.Background(), &config, func() error {
		attempts++
		return fatal
	}, RetryOnWouldBlock)

	if !errors.Is(err, fatal) {
		t.Errorf("Expected the original error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestWithPredicate_SustainedContention(t *testing.T) {
	config := Config{
		MaxAttempts:     3,
		BackoffStrategy: BackoffConstant,
		InitialDelay:    1 * time.Millisecond,
		MaxDelay:        10 * time.Millisecond,
		Multiplier:      2.0,
		MaxElapsedTime:  1 * time.Second,
	}

	// The lock never frees up: the final error still reports the
	// contention, not just the exhaustion.
	attempts := 0
	err := WithPredicate(context.Background(), &config, func() error {
		attempts++
		return fmt.Errorf("%w: /tmp/held.lock", errUtils.ErrWouldBlock)
	}, RetryOnWouldBlock)

	if !errors.Is(err, errUtils.ErrWouldBlock) {
		t.Errorf("Expected wrapped ErrWouldBlock, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestPollingConfig(t *testing.T) {
	config := PollingConfig(2 * time.Second)

	if config.MaxElapsedTime != 2*time.Second {
		t.Errorf("Expected deadline 2s, got %v", config.MaxElapsedTime)
	}
	if config.BackoffStrategy != BackoffConstant {
		t.Errorf("Expected constant backoff, got %v", config.BackoffStrategy)
	}
	if config.MaxAttempts < 1000 {
		t.Errorf("Expected effectively unbounded attempts, got %d", config.MaxAttempts)
	}
}
