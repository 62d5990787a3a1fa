package providers

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/driftlog/aiops/types"
)

// AnthropicClient wraps Claude's messages API. Supplemented per
// SPEC_FULL.md §2 — not exercised by original_source, which only ever
// called Gemini and OpenAI — but wired in because the teacher's go.mod
// already depends on this SDK for a different subsystem.
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

// NewAnthropicClient constructs an AnthropicClient for a decrypted API key.
func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *AnthropicClient) Provider() types.Provider { return types.ProviderAnthropic }

func (c *AnthropicClient) Available() bool { return c.model != "" }

func (c *AnthropicClient) Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (*GenerationOutcome, error) {
	start := time.Now()

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
		Temperature: anthropic.Float(float64(temperature)),
	})
	if err != nil {
		return nil, classifyFailure(types.ProviderAnthropic, err)
	}
	if len(resp.Content) == 0 {
		return nil, types.NewError(types.ErrInvalidResponse, "empty response from anthropic").
			WithProvider(string(types.ProviderAnthropic))
	}

	text := resp.Content[0].Text
	if text == "" {
		return nil, types.NewError(types.ErrInvalidResponse, "empty text block from anthropic").
			WithProvider(string(types.ProviderAnthropic))
	}

	outcome := &GenerationOutcome{
		Provider:     types.ProviderAnthropic,
		Model:        c.model,
		RawText:      text,
		LatencyMS:    elapsedMS(start),
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}
	if parsed, ok := tryParseJSON(text); ok {
		outcome.ParsedJSON = parsed
	}
	return outcome, nil
}
