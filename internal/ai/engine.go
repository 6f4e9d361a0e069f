package ai

import (
	"context"
	"errors"
)

// Request carries everything a reasoning engine needs for one generation:
// a system instruction describing the role, the user-visible prompt, and
// the sampling parameters of the role issuing the call.
type Request struct {
	System   string
	User     string
	Sampling SamplingConfig
}

// SamplingConfig holds the per-role generation parameters.
type SamplingConfig struct {
	Temperature float32
	MaxTokens   int32
}

// Generator is the capability interface to the reasoning engine. It is the
// sole external dependency of the interview core and must stay trivially
// stubbable in tests.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Model() string
}

// Engine failure classes. Providers translate their SDK errors into these
// sentinels so the core can decide between retrying and giving up without
// knowing which provider is behind the interface.
var (
	// ErrAuth marks invalid or missing credentials. Never retried.
	ErrAuth = errors.New("engine: authentication failed")
	// ErrRateLimit marks quota or rate-limit rejections.
	ErrRateLimit = errors.New("engine: rate limited")
	// ErrTimeout marks an attempt that exceeded its deadline.
	ErrTimeout = errors.New("engine: timed out")
	// ErrUnavailable marks transient provider-side failures (5xx and the like).
	ErrUnavailable = errors.New("engine: temporarily unavailable")
)

// Retryable reports whether the error is a transient engine failure worth
// another attempt.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrUnavailable)
}
