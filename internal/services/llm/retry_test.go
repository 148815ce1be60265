package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

func TestExtractRetryDelay(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want time.Duration
	}{
		{"gemini", errors.New("Error 429, Message: quota. Please retry in 45.5s., Status: RESOURCE_EXHAUSTED"), 45500 * time.Millisecond},
		{"retryDelay", errors.New("retryDelay: 12s"), 12 * time.Second},
		{"openai", errors.New("Rate limit reached. Please try again in 3s."), 3 * time.Second},
		{"none", errors.New("boom"), 0},
		{"nil", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractRetryDelay(tt.err))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := &RetryConfig{
		InitialBackoff:    10 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2,
	}

	assert.Equal(t, 10*time.Second, cfg.CalculateBackoff(0, 0))
	assert.Equal(t, 20*time.Second, cfg.CalculateBackoff(1, 0))
	assert.Equal(t, 30*time.Second, cfg.CalculateBackoff(2, 0), "capped at MaxBackoff")
	assert.Equal(t, 5*time.Second, cfg.CalculateBackoff(0, 4*time.Second), "api delay plus one second")
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsRateLimitError(errors.New("status 429 Too Many Requests")))
	assert.True(t, IsRateLimitError(errors.New("RESOURCE_EXHAUSTED")))
	assert.False(t, IsRateLimitError(errors.New("connection reset")))
	assert.False(t, IsRateLimitError(nil))

	assert.True(t, IsPermanentError(errors.New("401 Unauthorized")))
	assert.True(t, IsPermanentError(context.Canceled))
	assert.False(t, IsPermanentError(errors.New("503 Service Unavailable")))

	quota := &openai.APIError{HTTPStatusCode: 429, Code: "insufficient_quota", Message: "You exceeded your current quota"}
	assert.True(t, IsPermanentError(fmt.Errorf("openai: %w", quota)))
	assert.False(t, IsPermanentError(&openai.APIError{HTTPStatusCode: 429, Code: "rate_limit_exceeded", Message: "slow down"}))
}

func TestWithRetry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		got, err := withRetry(context.Background(), fastRetryConfig(3), createTestLogger(), ProviderOpenAI, func() (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("503 Service Unavailable")
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops when context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cfg := fastRetryConfig(5)
		cfg.TransientBackoff = time.Hour
		cfg.MaxBackoff = time.Hour

		calls := 0
		_, err := withRetry(ctx, cfg, createTestLogger(), ProviderOpenAI, func() (string, error) {
			calls++
			cancel()
			return "", errors.New("503 Service Unavailable")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
