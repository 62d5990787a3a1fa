package providers

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/driftlog/aiops/types"
	"google.golang.org/genai"
)

// GeminiClient wraps Google's Gemini text-generation API. Gemini takes
// one combined prompt rather than separate system/user messages, so
// system and user prompts are concatenated, matching ai_client.py's
// GeminiProvider.generate.
type GeminiClient struct {
	apiKey string
	model  string
}

// NewGeminiClient constructs a GeminiClient for a decrypted API key.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{apiKey: apiKey, model: model}
}

func (c *GeminiClient) Provider() types.Provider { return types.ProviderGemini }

func (c *GeminiClient) Available() bool { return c.apiKey != "" }

func (c *GeminiClient) Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int) (*GenerationOutcome, error) {
	if c.apiKey == "" {
		return nil, types.NewError(types.ErrProviderUnavailable, "gemini credential not configured").
			WithProvider(string(types.ProviderGemini))
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, classifyFailure(types.ProviderGemini, err)
	}

	fullPrompt := systemPrompt + "\n\n" + userPrompt
	start := time.Now()

	resp, err := client.Models.GenerateContent(ctx, c.model, genai.Text(fullPrompt), &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(maxTokens),
	})
	if err != nil {
		return nil, classifyFailure(types.ProviderGemini, err)
	}

	text := resp.Text()
	if text == "" {
		return nil, types.NewError(types.ErrInvalidResponse, "empty response from gemini").
			WithProvider(string(types.ProviderGemini))
	}

	outcome := &GenerationOutcome{
		Provider:  types.ProviderGemini,
		Model:     c.model,
		RawText:   text,
		LatencyMS: elapsedMS(start),
		// Gemini's REST usage metadata is not always populated for every
		// model; fall back to a word-count estimate, matching
		// ai_client.py's `len(prompt.split()) * 1.3` heuristic.
		InputTokens:  estimateTokens(fullPrompt),
		OutputTokens: estimateTokens(text),
	}
	if um := resp.UsageMetadata; um != nil {
		if um.PromptTokenCount > 0 {
			outcome.InputTokens = int(um.PromptTokenCount)
		}
		if um.CandidatesTokenCount > 0 {
			outcome.OutputTokens = int(um.CandidatesTokenCount)
		}
	}

	if parsed, ok := tryParseJSON(text); ok {
		outcome.ParsedJSON = parsed
	}

	return outcome, nil
}

// estimateTokens approximates token count from whitespace-delimited word
// count, grounded on ai_client.py's `len(text.split()) * 1.3` fallback
// used when a provider's usage metadata is absent.
func estimateTokens(text string) int {
	words := len(strings.Fields(text))
	return int(float64(words) * 1.3)
}

func tryParseJSON(text string) (map[string]any, bool) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}
