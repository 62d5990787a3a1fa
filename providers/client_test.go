package providers

import (
	"context"
	"testing"

	"github.com/driftlog/aiops/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubClient struct {
	provider types.Provider
	outcome  *GenerationOutcome
	err      error
	calls    int
}

func (s *stubClient) Provider() types.Provider { return s.provider }
func (s *stubClient) Available() bool          { return true }
func (s *stubClient) Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (*GenerationOutcome, error) {
	s.calls++
	return s.outcome, s.err
}

func TestAIClient_PrimarySucceeds(t *testing.T) {
	primary := &stubClient{provider: types.ProviderGemini, outcome: &GenerationOutcome{RawText: "ok"}}
	fallback := &stubClient{provider: types.ProviderOpenAI}

	c := NewAIClient(primary, fallback, 600, 0.7, 1000, zap.NewNop())
	out, err := c.Generate(context.Background(), "sys", "user", 0, 0, "", types.FeatureSuggestions)
	require.NoError(t, err)
	require.Equal(t, "ok", out.RawText)
	require.Equal(t, 1, primary.calls)
	require.Equal(t, 0, fallback.calls)
}

func TestAIClient_FallsBackOnRateLimit(t *testing.T) {
	primary := &stubClient{
		provider: types.ProviderGemini,
		err:      types.NewError(types.ErrRateLimited, "rate limited").WithProvider("gemini"),
	}
	fallback := &stubClient{provider: types.ProviderOpenAI, outcome: &GenerationOutcome{RawText: "fallback ok"}}

	c := NewAIClient(primary, fallback, 600, 0.7, 1000, zap.NewNop())
	out, err := c.Generate(context.Background(), "sys", "user", 0, 0, "", types.FeatureSuggestions)
	require.NoError(t, err)
	require.Equal(t, "fallback ok", out.RawText)
	require.Equal(t, 1, primary.calls)
	require.Equal(t, 1, fallback.calls)
}

func TestAIClient_AllProvidersFailed(t *testing.T) {
	primary := &stubClient{provider: types.ProviderGemini, err: types.NewError(types.ErrProviderUnavailable, "down")}
	fallback := &stubClient{provider: types.ProviderOpenAI, err: types.NewError(types.ErrProviderUnavailable, "down too")}

	c := NewAIClient(primary, fallback, 600, 0.7, 1000, zap.NewNop())
	_, err := c.Generate(context.Background(), "sys", "user", 0, 0, "", types.FeatureSuggestions)
	require.Error(t, err)
	require.Equal(t, types.ErrAllProvidersFailed, types.GetErrorCode(err))
}

func TestAIClient_PreferInvertsOrder(t *testing.T) {
	primary := &stubClient{provider: types.ProviderGemini, outcome: &GenerationOutcome{RawText: "gemini"}}
	fallback := &stubClient{provider: types.ProviderOpenAI, outcome: &GenerationOutcome{RawText: "openai"}}

	c := NewAIClient(primary, fallback, 600, 0.7, 1000, zap.NewNop())
	out, err := c.Generate(context.Background(), "sys", "user", 0, 0, types.ProviderOpenAI, types.FeatureSuggestions)
	require.NoError(t, err)
	require.Equal(t, "openai", out.RawText)
	require.Equal(t, 0, primary.calls)
	require.Equal(t, 1, fallback.calls)
}

func TestAIClient_NoProvidersConfigured(t *testing.T) {
	c := NewAIClient(nil, nil, 600, 0.7, 1000, zap.NewNop())
	_, err := c.Generate(context.Background(), "sys", "user", 0, 0, "", types.FeatureSuggestions)
	require.Error(t, err)
	require.Equal(t, types.ErrProviderUnavailable, types.GetErrorCode(err))
}
