// Package retry runs a function repeatedly until it succeeds, a bounded
// number of attempts is exhausted, or a deadline passes. It exists for
// callers of flopen.TryOpenAndLock that want to poll a busy lock instead of
// parking in the kernel, where no deadline can be applied.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	errUtils "github.com/cloudposse/flopen/errors"
)

// BackoffStrategy selects how the delay between attempts grows.
type BackoffStrategy string

const (
	BackoffConstant    BackoffStrategy = "constant"
	BackoffLinear      BackoffStrategy = "linear"
	BackoffExponential BackoffStrategy = "exponential"
)

// Config controls how often and for how long a function is retried.
type Config struct {
	MaxAttempts     int
	BackoffStrategy BackoffStrategy
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	RandomJitter    bool
	Multiplier      float64
	MaxElapsedTime  time.Duration
}

// Func represents a function that can be retried.
type Func func() error

// Executor handles the retry logic.
type Executor struct {
	config Config
	rand   *rand.Rand
}

// New creates a new retry executor with the given config.
func New(config Config) *Executor {
	return &Executor{
		config: config,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Execute runs the function with retry logic.
func (e *Executor) Execute(ctx context.Context, fn Func) error {
	return e.ExecuteWithPredicate(ctx, fn, RetryOnAnyError)
}

type MaxElapsedTimeError struct {
	MaxElapsedTime time.Duration
}

func (e MaxElapsedTimeError) Error() string {
	return fmt.Sprintf("retry timeout exceeded after %v", e.MaxElapsedTime)
}

var UnexpectedError = errors.New("unexpected end of retry loop")

func (e *Executor) ExecuteWithPredicate(ctx context.Context, fn Func, shouldRetry func(error) bool) error {
	startTime := time.Now()

	for attempt := 1; attempt <= e.config.MaxAttempts; attempt++ {
		// Check if we've exceeded max elapsed time
		if time.Since(startTime) > e.config.MaxElapsedTime {
			return MaxElapsedTimeError{MaxElapsedTime: e.config.MaxElapsedTime}
		}

		// Execute the function
		err := fn()
		if err == nil {
			return nil // Success!
		}

		if !shouldRetry(err) {
			return err
		}

		// If this was the last attempt, return the error
		if attempt == e.config.MaxAttempts {
			return fmt.Errorf("max attempts (%d) exceeded, last error: %w", e.config.MaxAttempts, err)
		}

		// Calculate delay for next attempt
		delay := e.calculateDelay(attempt)

		// Wait for the calculated delay or until context is cancelled
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-time.After(delay):
			// Continue to next attempt
		}
	}
	return UnexpectedError
}

const jitterFlipChance = 0.5

// calculateDelay calculates the delay for the next retry attempt.
func (e *Executor) calculateDelay(attempt int) time.Duration {
	var delay time.Duration

	switch e.config.BackoffStrategy {
	case BackoffConstant:
		delay = e.config.InitialDelay
	case BackoffLinear:
		delay = time.Duration(float64(e.config.InitialDelay) * float64(attempt))
	case BackoffExponential:
		delay = time.Duration(float64(e.config.InitialDelay) * math.Pow(e.config.Multiplier, float64(attempt-1)))
	default:
		delay = e.config.InitialDelay
	}

	// Apply max delay limit
	if delay > e.config.MaxDelay {
		delay = e.config.MaxDelay
	}

	// Apply random jitter if enabled
	if e.config.RandomJitter {
		jitter := time.Duration(e.rand.Float64() * float64(delay) * 0.1) // 10% jitter
		if e.rand.Float64() < jitterFlipChance {
			delay += jitter
		} else {
			delay -= jitter
		}

		// Ensure delay is not negative
		if delay < 0 {
			delay = time.Duration(0)
		}
	}

	return delay
}

// Do is a convenience function that creates an executor and runs the function.
func Do(ctx context.Context, config *Config, fn Func) error {
	if config == nil {
		temp := DefaultConfig()
		config = &temp
	}
	executor := New(*config)
	return executor.Execute(ctx, fn)
}

// WithPredicate allows you to specify which errors should trigger a retry.
func WithPredicate(ctx context.Context, config *Config, fn Func, shouldRetry func(error) bool) error {
	if config == nil {
		temp := DefaultConfig()
		config = &temp
	}
	executor := New(*config)
	return executor.ExecuteWithPredicate(ctx, fn, shouldRetry)
}

const (
	defaultMaxAttempts    = 10
	defaultInitialDelay   = 100 * time.Millisecond
	defaultMaxDelay       = 5 * time.Second
	defaultMaxElapsedTime = 30 * time.Second
)

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     defaultMaxAttempts,
		BackoffStrategy: BackoffExponential,
		InitialDelay:    defaultInitialDelay,
		MaxDelay:        defaultMaxDelay,
		RandomJitter:    true,
		Multiplier:      2.0,
		MaxElapsedTime:  defaultMaxElapsedTime,
	}
}

// PollingConfig returns a configuration for polling a contended lock until
// the deadline passes: constant short delays, as many attempts as fit.
func PollingConfig(deadline time.Duration) Config {
	return Config{
		MaxAttempts:     math.MaxInt32,
		BackoffStrategy: BackoffConstant,
		InitialDelay:    defaultInitialDelay,
		MaxDelay:        defaultMaxDelay,
		RandomJitter:    true,
		Multiplier:      1.0,
		MaxElapsedTime:  deadline,
	}
}

// Predefined common retry predicates.
var (
	// RetryOnAnyError retries on any error.
	RetryOnAnyError = func(err error) bool { return true }

	// RetryOnWouldBlock retries only while the lock is held by someone
	// else. Fatal errors from the lock attempt are returned immediately.
	RetryOnWouldBlock = func(err error) bool {
		return errors.Is(err, errUtils.ErrWouldBlock)
	}
)
