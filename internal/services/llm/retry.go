package llm

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/ternarybob/arbor"
)

// RetryConfig defines retry behavior for transient and rate-limit provider errors.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts after the first call
	MaxRetries int

	// InitialBackoff is the wait before the first rate-limit retry
	InitialBackoff time.Duration

	// MaxBackoff caps any single wait
	MaxBackoff time.Duration

	// BackoffMultiplier is applied to backoff on each retry
	BackoffMultiplier float64

	// TransientBackoff is the per-attempt step for non rate-limit failures
	TransientBackoff time.Duration
}

// Default retry constants. Lookups are interactive so waits stay short.
const (
	DefaultMaxRetries        = 3
	DefaultInitialBackoff    = 5 * time.Second
	DefaultMaxBackoff        = 60 * time.Second
	DefaultBackoffMultiplier = 1.5
	DefaultTransientBackoff  = 2 * time.Second
)

// NewDefaultRetryConfig returns a RetryConfig with default values.
func NewDefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        DefaultMaxRetries,
		InitialBackoff:    DefaultInitialBackoff,
		MaxBackoff:        DefaultMaxBackoff,
		BackoffMultiplier: DefaultBackoffMultiplier,
		TransientBackoff:  DefaultTransientBackoff,
	}
}

// IsRateLimitError checks for 429 / RESOURCE_EXHAUSTED / quota errors.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(strings.ToLower(errStr), "rate limit") ||
		strings.Contains(errStr, "quota")
}

// IsPermanentError reports failures that retrying cannot fix, such as bad credentials.
func IsPermanentError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == "insufficient_quota" {
			return true
		}
		switch apiErr.HTTPStatusCode {
		case 400, 401, 403, 404:
			return true
		}
	}
	errStr := err.Error()
	for _, marker := range []string{"401", "403", "insufficient_quota", "invalid_api_key", "authentication_error", "PERMISSION_DENIED", "UNAUTHENTICATED", "API_KEY_INVALID"} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}

// retryDelayRegex matches "Please retry in Xs", "retryDelay:Xs" or "try again in Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+|try again in )(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the provider-suggested retry delay from an error message.
// Returns 0 if no delay is found.
//
// Example error message:
// "Error 429, Message: ... Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED"
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// CalculateBackoff computes the rate-limit backoff for an attempt.
// A provider-suggested delay replaces InitialBackoff as the base. The result is capped at MaxBackoff.
func (c *RetryConfig) CalculateBackoff(attempt int, apiDelay time.Duration) time.Duration {
	base := c.InitialBackoff
	if apiDelay > 0 {
		base = apiDelay + time.Second
	}

	multiplier := 1.0
	for i := 0; i < attempt; i++ {
		multiplier *= c.BackoffMultiplier
	}

	backoff := time.Duration(float64(base) * multiplier)
	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}
	return backoff
}

// backoffFor returns the wait before retrying after err on the given attempt.
func (c *RetryConfig) backoffFor(attempt int, err error) time.Duration {
	if IsRateLimitError(err) {
		return c.CalculateBackoff(attempt, ExtractRetryDelay(err))
	}
	backoff := time.Duration(attempt+1) * c.TransientBackoff
	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}
	return backoff
}

// withRetry runs call until it succeeds, fails permanently, runs out of retries or ctx ends.
func withRetry[T any](ctx context.Context, cfg *RetryConfig, logger arbor.ILogger, provider ProviderType, call func() (T, error)) (T, error) {
	var result T
	var err error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err = call()
		if err == nil {
			return result, nil
		}

		if attempt == cfg.MaxRetries || IsPermanentError(err) {
			break
		}

		backoff := cfg.backoffFor(attempt, err)
		logger.Warn().
			Str("provider", string(provider)).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(err).
			Msg("Retrying provider API call")

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return result, err
}
