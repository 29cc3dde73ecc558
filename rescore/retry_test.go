package rescore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseDelay: 5 * time.Millisecond}
}

func TestRetry_Success(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastPolicy(3), nil, func() error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "should succeed on first try")
}

func TestRetry_EventualSuccess(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastPolicy(5), nil, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_AllAttemptsFail(t *testing.T) {
	attempts := 0
	expectedErr := errors.New("persistent error")
	err := Retry(context.Background(), fastPolicy(3), nil, func() error {
		attempts++
		return expectedErr
	})
	assert.Equal(t, expectedErr, err, "should return the last error")
	assert.Equal(t, 3, attempts)
}

func TestRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := Retry(ctx, fastPolicy(10), nil, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts, "should stop when context is canceled")
}

func TestRetry_InvalidAttempts(t *testing.T) {
	for _, n := range []int{0, -1} {
		attempts := 0
		err := Retry(context.Background(), fastPolicy(n), nil, func() error {
			attempts++
			return nil
		})
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
		assert.Zero(t, attempts)
	}
}

func TestRetryPolicy_Delay(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: 10 * time.Millisecond}
	assert.Equal(t, 10*time.Millisecond, policy.delay(2))
	assert.Equal(t, 20*time.Millisecond, policy.delay(3))
	assert.Equal(t, 40*time.Millisecond, policy.delay(4))

	policy.MaxDelay = 25 * time.Millisecond
	assert.Equal(t, 20*time.Millisecond, policy.delay(3))
	assert.Equal(t, 25*time.Millisecond, policy.delay(4))
	assert.Equal(t, 25*time.Millisecond, policy.delay(5))
}
