package llm

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"strings"
	"time"
)

// RetryConfig defines backoff behaviour for model calls
type RetryConfig struct {
	MaxAttempts        int           `json:"max_attempts" yaml:"max_attempts"`
	InitialDelay       time.Duration `json:"initial_delay" yaml:"initial_delay"`
	MaxDelay           time.Duration `json:"max_delay" yaml:"max_delay"`
	BackoffMultiplier  float64       `json:"backoff_multiplier" yaml:"backoff_multiplier"`
	Jitter             bool          `json:"jitter" yaml:"jitter"`
	RetryableErrors    []string      `json:"retryable_errors" yaml:"retryable_errors"`
	NonRetryableErrors []string      `json:"non_retryable_errors" yaml:"non_retryable_errors"`
}

// DefaultRetryConfig mirrors the ingestion profile: network-ish failures retry,
// credential and request errors do not.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:        3,
	InitialDelay:       1 * time.Second,
	MaxDelay:           30 * time.Second,
	BackoffMultiplier:  2.0,
	Jitter:             true,
	RetryableErrors:    []string{"timeout", "rate limit", "429", "500", "502", "503", "504", "overloaded", "connection reset", "eof"},
	NonRetryableErrors: []string{"400", "401", "403", "404", "invalid api key", "permission denied"},
}

type retrying struct {
	next   LanguageModel
	config RetryConfig
	log    *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps m so that retryable failures are attempted again with
// exponential backoff. MaxAttempts <= 1 returns m unchanged.
func WithRetry(m LanguageModel, config RetryConfig, logger *slog.Logger) LanguageModel {
	if config.MaxAttempts <= 1 {
		return m
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &retrying{next: m, config: config, log: logger, sleep: sleepCtx}
}

func (r *retrying) Invoke(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		out, err := r.next.Invoke(ctx, prompt)
		if err == nil {
			if attempt > 1 {
				r.log.Info("✅ Retry successful", "attempts", attempt)
			}
			return out, nil
		}
		lastErr = err

		if attempt == r.config.MaxAttempts || !IsRetryable(err, r.config) {
			break
		}
		delay := r.delay(attempt)
		r.log.Warn("🔄 Model call failed, retrying",
			"attempt", attempt, "max_attempts", r.config.MaxAttempts, "delay", delay, "error", err)
		if err := r.sleep(ctx, delay); err != nil {
			return "", errors.Join(lastErr, err)
		}
	}
	return "", lastErr
}

// delay calculates the wait before the next attempt
func (r *retrying) delay(attempt int) time.Duration {
	c := r.config
	d := time.Duration(float64(c.InitialDelay) * math.Pow(c.BackoffMultiplier, float64(attempt-1)))
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	if c.Jitter && d > 0 {
		d += time.Duration(float64(d) * 0.1 * (rand.Float64() - 0.5))
	}
	return d
}

// IsRetryable classifies err against the configured substrings. Context
// cancellation is never retried; network timeouts always are.
func IsRetryable(err error, config RetryConfig) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrMissingAPIKey) || errors.Is(err, ErrUnknownProvider) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range config.NonRetryableErrors {
		if strings.Contains(msg, strings.ToLower(s)) {
			return false
		}
	}
	for _, s := range config.RetryableErrors {
		if strings.Contains(msg, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
