// Package retry runs outbound calls with a bounded number of attempts.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/simplesurance/steve/internal/logfields"
	"github.com/simplesurance/steve/internal/steveerr"
)

const loggerName = "retryer"

// Retryer executes a function repeatedly until it was successful, the
// maximum number of attempts was reached or a non-retryable error happened.
// Attempts are retried immediately, without a delay.
type Retryer struct {
	logger         *zap.Logger
	maxAttempts    int
	attemptTimeout time.Duration
}

// WithAttemptTimeout sets the timeout for a single execution of the function.
func WithAttemptTimeout(timeout time.Duration) func(*Retryer) {
	return func(r *Retryer) {
		r.attemptTimeout = timeout
	}
}

// NewRetryer returns a Retryer that runs functions at most maxAttempts times.
// If maxAttempts is smaller than 1, functions are run once.
func NewRetryer(maxAttempts int, opts ...func(*Retryer)) *Retryer {
	r := Retryer{
		logger:      zap.L().Named(loggerName),
		maxAttempts: maxAttempts,
	}

	for _, opt := range opts {
		opt(&r)
	}

	return &r
}

// Run executes fn until it succeeded, it returned an error that wraps a
// steveerr.PermanentError, ctx was cancelled or the maximum number of
// attempts was reached.
// When all attempts failed, a *steveerr.GatewayError wrapping the error of
// the last attempt is returned. Non-retryable errors are returned unchanged.
func (r *Retryer) Run(ctx context.Context, fn func(context.Context) error, logF []zap.Field) error {
	var attempts int
	var lastErr error
	var permanent bool

	logger := r.logger.With(logF...)

	op := func() error {
		attempts++

		lastErr = r.runAttempt(ctx, fn)
		if lastErr == nil {
			return nil
		}

		var permErr *steveerr.PermanentError
		if errors.As(lastErr, &permErr) || ctx.Err() != nil {
			permanent = true
			return backoff.Permanent(lastErr)
		}

		return lastErr
	}

	notify := func(err error, _ time.Duration) {
		logger.Info(
			"attempt failed, retrying",
			logfields.Event("call_retry_scheduled"),
			zap.Int("try_count", attempts),
			zap.Int("max_attempts", r.maxAttempts),
			zap.Error(err),
		)
		metrics.RetryInc()
	}

	if r.maxAttempts <= 1 {
		_ = op()
	} else {
		// WithMaxRetries never stops when 0 is passed, maxAttempts-1 is
		// therefore always >=1 here
		bo := backoff.WithContext(
			backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(r.maxAttempts-1)),
			ctx,
		)
		_ = backoff.RetryNotify(op, bo, notify)
	}

	logger = logger.With(zap.Int("try_count", attempts))

	if lastErr == nil {
		logger.Debug("call executed successfully", logfields.Event("call_succeeded"))
		metrics.ResultInc(resultLabelSuccessVal)
		return nil
	}

	if permanent {
		logger.Debug(
			"call failed, not retryable",
			logfields.Event("call_failed"),
			zap.Error(lastErr),
		)
		metrics.ResultInc(resultLabelNotRetryableVal)
		return lastErr
	}

	logger.Warn(
		"call failed, giving up",
		logfields.Event("call_retries_exhausted"),
		zap.Error(lastErr),
	)
	metrics.ResultInc(resultLabelExhaustedVal)

	return steveerr.NewGatewayError(attempts, lastErr)
}

func (r *Retryer) runAttempt(ctx context.Context, fn func(context.Context) error) error {
	if r.attemptTimeout <= 0 {
		return fn(ctx)
	}

	ctx, cancelFn := context.WithTimeout(ctx, r.attemptTimeout)
	defer cancelFn()

	return fn(ctx)
}
