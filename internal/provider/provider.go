// File: internal/provider/provider.go

// Package provider adapts vendor model APIs to the shared contract types.
// Each adapter translates the provider-neutral conversation into its wire
// format and back; no vendor type leaks past this package.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"github.com/webpilot-ai/webpilot/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ModelProvider is the capability the agent loop depends on: given the full
// conversation and the tool catalog, produce one reply. One logical call per
// loop iteration; transient-failure retry is the provider's own business.
type ModelProvider interface {
	Name() string
	Complete(ctx context.Context, history []schemas.Message, tools []schemas.ToolSchema) (*schemas.ModelReply, error)
}

// Error wraps a failed reasoning call. It is fatal to the run: the loop
// never retries past what the adapter itself already did.
type Error struct {
	Provider string
	Status   int
	Err      error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s provider error (status %d): %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

const (
	retryMaxElapsed  = 2 * time.Minute
	retryMaxInterval = 30 * time.Second
)

// newLimiter builds the optional outgoing-call rate limiter.
func newLimiter(requestsPerSecond float64) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
}

// withRetry runs op under the shared exponential backoff policy, waiting on
// the limiter before each attempt. Ops flag non-retryable failures with
// backoff.Permanent.
func withRetry(ctx context.Context, limiter *rate.Limiter, op backoff.Operation) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = retryMaxElapsed
	b.MaxInterval = retryMaxInterval

	wrapped := func() error {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		return op()
	}
	return backoff.Retry(wrapped, backoff.WithContext(b, ctx))
}

// classifyHTTPStatus converts an upstream error status into a retryable or
// permanent error. Rate limits and upstream 5xx are transient; everything
// else (bad request, auth) will not improve by retrying.
func classifyHTTPStatus(name string, status int, body []byte) error {
	err := &Error{
		Provider: name,
		Status:   status,
		Err:      fmt.Errorf("%s", body),
	}
	switch status {
	case 429, 500, 503:
		return err
	default:
		return backoff.Permanent(err)
	}
}

// synthesizeID fills in a correlation id when the vendor omits one; ids only
// need to be unique within a single reply.
func synthesizeID(index int) string {
	return fmt.Sprintf("call_%d", index)
}
