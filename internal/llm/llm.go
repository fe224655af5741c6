// Package llm wraps calls to an external multimodal completion API with
// timeout, retry and backoff. It knows nothing about rooms or furniture;
// callers supply a prompt and parse the returned text themselves.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ImageDetail selects the per-image resolution hint sent to the model.
// Coarse grouping passes (room classification) use low detail, per-item
// counting uses high.
type ImageDetail string

const (
	DetailLow  ImageDetail = "low"
	DetailHigh ImageDetail = "high"
)

// ImageRef is one image in a prompt, either by URL or inline bytes.
type ImageRef struct {
	URL  string
	Data []byte
	MIME string
}

// Prompt is a single completion request: instruction text plus zero or
// more images.
type Prompt struct {
	Text   string
	Images []ImageRef
	Detail ImageDetail
}

// Usage contains token usage and cost information for one call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// Result is the raw model reply.
type Result struct {
	Text  string
	Usage Usage
}

// Client performs one multimodal completion. Implementations handle their
// own transport but not retries; wrap with Retrying for the shared policy.
type Client interface {
	Complete(ctx context.Context, p Prompt) (*Result, error)
}

// ErrorKind classifies a failed call for the retry policy.
type ErrorKind int

const (
	// KindRetryable covers 429, 5xx and transport-level failures.
	KindRetryable ErrorKind = iota
	// KindTerminal covers other 4xx responses and usable-content-free
	// replies; retrying cannot help.
	KindTerminal
)

// APIError is a classified failure from a completion backend.
type APIError struct {
	Kind   ErrorKind
	Status int
	Msg    string
	Err    error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("model api error (status %d): %s", e.Status, e.Msg)
	}
	return fmt.Sprintf("model api error: %s", e.Msg)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsRetryable reports whether err warrants another attempt. Timeouts and
// other transport errors that never produced a classified APIError count
// as retryable.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindRetryable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// Unclassified failures are assumed to be transport-level.
	return err != nil
}

// classifyStatus maps an HTTP status to an error kind per the retry
// policy: 429 and 5xx retry, any other 4xx is terminal.
func classifyStatus(status int) ErrorKind {
	if status == 429 || status >= 500 {
		return KindRetryable
	}
	return KindTerminal
}
