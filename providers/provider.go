// Package providers wraps the external LLM providers (Gemini, OpenAI,
// Anthropic) behind one generate() contract, and orchestrates primary/
// fallback selection across them (spec §4.2). Grounded on
// original_source's ai_client.py for the fallback and error-translation
// semantics; rewritten in the teacher's client/config/circuit idiom.
package providers

import (
	"context"
	"strings"
	"time"

	"github.com/driftlog/aiops/types"
)

// GenerationOutcome is the unified shape every provider returns,
// regardless of whether the model answered in JSON or prose.
type GenerationOutcome struct {
	Provider     types.Provider
	Model        string
	RawText      string
	ParsedJSON   map[string]any // nil if RawText did not parse as JSON
	InputTokens  int
	OutputTokens int
	LatencyMS    int64
}

// Client is the contract every provider wrapper implements.
type Client interface {
	Provider() types.Provider
	Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (*GenerationOutcome, error)
	Available() bool
}

// classifyFailure inspects a raw provider error message and returns the
// typed *types.Error spec §4.2's failure taxonomy expects. Grounded on
// ai_client.py's substring-based RateLimitError detection ("quota",
// "rate", "429").
func classifyFailure(provider types.Provider, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "quota") || strings.Contains(msg, "rate") || strings.Contains(msg, "429"):
		return types.NewError(types.ErrRateLimited, "provider rate limit exceeded").
			WithCause(err).WithProvider(string(provider)).WithRetryable(true)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return types.NewError(types.ErrTimeout, "provider request timed out").
			WithCause(err).WithProvider(string(provider)).WithRetryable(true)
	case strings.Contains(msg, "unavailable") || strings.Contains(msg, "connection") || strings.Contains(msg, "50") /* 5xx */ :
		return types.NewError(types.ErrProviderUnavailable, "provider unavailable").
			WithCause(err).WithProvider(string(provider)).WithRetryable(true)
	default:
		return types.NewError(types.ErrInvalidResponse, "provider request failed").
			WithCause(err).WithProvider(string(provider)).WithRetryable(false)
	}
}

func elapsedMS(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
