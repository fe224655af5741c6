package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedClient struct {
	calls   int
	results []error
	text    string
}

func (s *scriptedClient) Complete(ctx context.Context, p Prompt) (*Result, error) {
	err := s.results[min(s.calls, len(s.results)-1)]
	s.calls++
	if err != nil {
		return nil, err
	}
	return &Result{Text: s.text}, nil
}

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		CallTimeout: time.Second,
	}
}

func TestRetryingSucceedsAfterRetryableFailures(t *testing.T) {
	inner := &scriptedClient{
		results: []error{
			&APIError{Kind: KindRetryable, Status: 500, Msg: "boom"},
			&APIError{Kind: KindRetryable, Status: 429, Msg: "slow down"},
			nil,
		},
		text: "ok",
	}

	res, err := Retrying(inner, fastPolicy(3)).Complete(context.Background(), Prompt{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryingStopsOnTerminalError(t *testing.T) {
	terminal := &APIError{Kind: KindTerminal, Status: 400, Msg: "bad request"}
	inner := &scriptedClient{results: []error{terminal, nil}, text: "never"}

	_, err := Retrying(inner, fastPolicy(3)).Complete(context.Background(), Prompt{Text: "hi"})
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls, "terminal errors are not retried")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindTerminal, apiErr.Kind)
}

func TestRetryingExhaustsAttempts(t *testing.T) {
	inner := &scriptedClient{
		results: []error{&APIError{Kind: KindRetryable, Status: 503, Msg: "unavailable"}},
	}

	_, err := Retrying(inner, fastPolicy(3)).Complete(context.Background(), Prompt{Text: "hi"})
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryingRespectsContextCancellation(t *testing.T) {
	inner := &scriptedClient{
		results: []error{&APIError{Kind: KindRetryable, Status: 500, Msg: "boom"}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Retrying(inner, fastPolicy(5)).Complete(ctx, Prompt{Text: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, inner.calls, 1)
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	p := RetryPolicy{BaseDelay: time.Second, MaxDelay: 30 * time.Second}

	for attempt := 1; attempt <= 8; attempt++ {
		d := p.backoff(attempt)
		minWant := p.BaseDelay << (attempt - 1)
		if minWant > p.MaxDelay {
			minWant = p.MaxDelay
		}
		assert.GreaterOrEqual(t, d, minWant, "attempt %d", attempt)
		assert.LessOrEqual(t, d, p.MaxDelay, "attempt %d", attempt)
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&APIError{Kind: KindRetryable}))
	assert.False(t, IsRetryable(&APIError{Kind: KindTerminal}))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(errors.New("connection reset")))
	assert.False(t, IsRetryable(nil))
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, KindRetryable, classifyStatus(429))
	assert.Equal(t, KindRetryable, classifyStatus(500))
	assert.Equal(t, KindRetryable, classifyStatus(503))
	assert.Equal(t, KindTerminal, classifyStatus(400))
	assert.Equal(t, KindTerminal, classifyStatus(404))
}
