package llm

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// RetryPolicy bounds the attempts made for one logical completion call.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration // first backoff; doubles per attempt
	MaxDelay    time.Duration // backoff cap
	CallTimeout time.Duration // hard wall-clock bound per attempt
}

// DefaultRetryPolicy matches the pipeline defaults: three attempts, one
// second base delay capped at thirty seconds, ninety seconds per call.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		CallTimeout: 90 * time.Second,
	}
}

// backoff computes the sleep before the given 1-based attempt: exponential
// doubling with a bounded random jitter so concurrent room calls do not
// retry in lockstep.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	d += time.Duration(rand.Int63n(int64(p.BaseDelay) + 1))
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// retryingClient applies a RetryPolicy uniformly around an inner Client.
type retryingClient struct {
	inner  Client
	policy RetryPolicy
}

// Retrying wraps a backend with the shared retry, backoff and per-call
// timeout policy.
func Retrying(inner Client, policy RetryPolicy) Client {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &retryingClient{inner: inner, policy: policy}
}

func (c *retryingClient) Complete(ctx context.Context, p Prompt) (*Result, error) {
	var lastErr error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		callCtx := ctx
		cancel := func() {}
		if c.policy.CallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.policy.CallTimeout)
		}
		res, err := c.inner.Complete(callCtx, p)
		cancel()

		if err == nil {
			return res, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			log.Debug().Err(err).Int("attempt", attempt).Msg("model call failed, not retryable")
			return nil, err
		}
		if attempt == c.policy.MaxAttempts {
			break
		}
		// Give up early when the parent context is already gone.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		delay := c.policy.backoff(attempt)
		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("model call failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}
