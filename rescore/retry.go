// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package rescore

import (
	"context"
	"log/slog"
	"time"
)

// RetryPolicy bounds the attempts made for one operation.
type RetryPolicy struct {
	MaxAttempts int           // Attempts including the first; must be > 0
	BaseDelay   time.Duration // Delay before the second attempt; doubles afterwards
	MaxDelay    time.Duration // Upper bound on a single delay; 0 means none
}

// delay returns the wait before the given attempt (2 or later).
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 2; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Retry runs operation until it succeeds, the policy is exhausted or ctx ends.
// Returns the error from the last attempt if all attempts fail.
func Retry(ctx context.Context, policy RetryPolicy, logger *slog.Logger, operation func() error) error {
	if policy.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(policy.delay(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		// Check context before attempting
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				logger.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		logger.Debug("operation failed", "attempt", attempt, "max_attempts", policy.MaxAttempts, "err", lastErr)
	}

	return lastErr
}
