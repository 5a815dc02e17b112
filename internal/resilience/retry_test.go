package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastRetry keeps the backoff negligible so tests run quickly.
func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		Multiplier:     1.0,
	}
}

func TestDoVal_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	val, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(eris.New("overloaded"), 529)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 3, calls)
}

func TestDoVal_PermanentErrorNotRetried(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		calls++
		return "", eris.New("invalid request body")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		calls++
		return "", NewTransientError(eris.New("status 503"), 503)
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoVal_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := DoVal(ctx, fastRetry(5), func(context.Context) (string, error) {
		calls++
		cancel()
		return "", NewTransientError(eris.New("timeout"), 0)
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_OnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := fastRetry(3)
	cfg.OnRetry = func(attempt int, err error) { attempts = append(attempts, attempt) }

	err := Do(context.Background(), cfg, func(context.Context) error {
		return NewTransientError(eris.New("too many requests"), 429)
	})

	assert.Error(t, err)
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDo_CustomShouldRetry(t *testing.T) {
	calls := 0
	cfg := fastRetry(3)
	cfg.ShouldRetry = func(error) bool { return true }

	err := Do(context.Background(), cfg, func(context.Context) error {
		calls++
		return eris.New("not normally transient")
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(eris.New("bad request")))

	assert.True(t, IsTransient(NewTransientError(eris.New("x"), 500)))
	assert.True(t, IsTransient(eris.Wrap(NewTransientError(eris.New("x"), 429), "outer")))
	assert.True(t, IsTransient(eris.New("connection reset by peer")))
	assert.True(t, IsTransient(eris.New("request failed with status 503")))
	assert.True(t, IsTransient(eris.New("api overloaded, retry later")))
}

func TestBackoff_CapsAtMax(t *testing.T) {
	cfg := applyDefaults(RetryConfig{
		InitialBackoff: time.Second,
		MaxBackoff:     2 * time.Second,
		Multiplier:     10,
		JitterFraction: 0,
	})
	assert.Equal(t, time.Second, backoff(0, cfg))
	assert.Equal(t, 2*time.Second, backoff(1, cfg))
	assert.Equal(t, 2*time.Second, backoff(5, cfg))
}
