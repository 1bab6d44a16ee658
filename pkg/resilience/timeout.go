package resilience

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-dictionary/pkg/errors"
)

// WithTimeout runs fn with a derived context cancelled after timeout. When the
// limit is hit the returned error wraps both ErrTimeout and
// context.DeadlineExceeded. A non-positive timeout disables the limit.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- fn(timeoutCtx)
	}()
	var err error
	select {
	case err = <-done:
		if err == nil || timeoutCtx.Err() == nil {
			return err
		}
	case <-timeoutCtx.Done():
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s: parent context cancelled: %w", name, ctx.Err())
	}
	return fmt.Errorf("%s: %w: %w (limit: %v)", name, apperrors.ErrTimeout, context.DeadlineExceeded, timeout)
}

// Call runs fn under Retry with every attempt bounded by timeout.
func Call(ctx context.Context, name string, timeout time.Duration, cfg RetryConfig, fn func(ctx context.Context) error) error {
	return Retry(ctx, name, cfg, func() error {
		return WithTimeout(ctx, timeout, name, fn)
	})
}
