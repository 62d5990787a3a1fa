package providers

import (
	"context"
	"time"

	"github.com/driftlog/aiops/types"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIClient wraps OpenAI's chat-completions API, grounded on the
// teacher's structured-output client idiom (system+user message pair,
// explicit per-call timeout), simplified to spec's single generate()
// contract instead of the teacher's JSON-schema response format.
type OpenAIClient struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIClient constructs an OpenAIClient for a decrypted API key.
func NewOpenAIClient(apiKey, model string, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: timeout,
	}
}

func (c *OpenAIClient) Provider() types.Provider { return types.ProviderOpenAI }

func (c *OpenAIClient) Available() bool { return c.model != "" }

func (c *OpenAIClient) Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (*GenerationOutcome, error) {
	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(float64(temperature)),
		MaxTokens:   openai.Int(int64(maxTokens)),
	})
	if err != nil {
		if reqCtx.Err() != nil {
			return nil, types.NewError(types.ErrTimeout, "openai request timed out").
				WithProvider(string(types.ProviderOpenAI)).WithCause(err).WithRetryable(true)
		}
		return nil, classifyFailure(types.ProviderOpenAI, err)
	}
	if len(resp.Choices) == 0 {
		return nil, types.NewError(types.ErrInvalidResponse, "no choices returned by openai").
			WithProvider(string(types.ProviderOpenAI))
	}

	text := resp.Choices[0].Message.Content
	if text == "" {
		return nil, types.NewError(types.ErrInvalidResponse, "empty response from openai").
			WithProvider(string(types.ProviderOpenAI))
	}

	outcome := &GenerationOutcome{
		Provider:     types.ProviderOpenAI,
		Model:        c.model,
		RawText:      text,
		LatencyMS:    elapsedMS(start),
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}
	if parsed, ok := tryParseJSON(text); ok {
		outcome.ParsedJSON = parsed
	}
	return outcome, nil
}
