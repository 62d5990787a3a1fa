package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/driftlog/aiops/types"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// AIClient is the unified entry point callers use instead of talking to
// a specific provider: it orders primary/fallback, paces outbound calls,
// and classifies failures, grounded on ai_client.py's AIClient.generate.
type AIClient struct {
	primary  Client
	fallback Client
	limiter  *rate.Limiter
	logger   *zap.Logger

	defaultTemperature float32
	defaultMaxTokens   int
}

// NewAIClient constructs an AIClient. primary/fallback may individually
// be nil when no credential is configured for that provider; AIClient
// treats a nil slot as "skip". requestsPerMinute paces outbound calls
// across both providers combined, grounded on spec §6's provider rate
// limit configuration row.
func NewAIClient(primary, fallback Client, requestsPerMinute int, defaultTemperature float32, defaultMaxTokens int, logger *zap.Logger) *AIClient {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &AIClient{
		primary:            primary,
		fallback:           fallback,
		limiter:            rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), requestsPerMinute),
		logger:             logger,
		defaultTemperature: defaultTemperature,
		defaultMaxTokens:   defaultMaxTokens,
	}
}

// Generate runs the fallback chain: primary first, then fallback, unless
// prefer names the fallback's provider in which case the order inverts.
// Any provider failure is logged and recorded and the chain advances to
// the next provider, matching ai_client.py's broad except-and-continue
// behavior.
func (c *AIClient) Generate(ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int, prefer types.Provider, feature types.FeatureID) (*GenerationOutcome, error) {
	if c.primary == nil && c.fallback == nil {
		return nil, types.NewError(types.ErrProviderUnavailable, "no AI providers configured")
	}

	if temperature == 0 {
		temperature = c.defaultTemperature
	}
	if maxTokens == 0 {
		maxTokens = c.defaultMaxTokens
	}

	chain := c.order(prefer)

	var causes []string
	for _, client := range chain {
		if client == nil {
			continue
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, types.NewError(types.ErrTimeout, "rate limiter wait cancelled").WithCause(err)
		}

		c.logger.Info("attempting ai generation",
			zap.String("provider", string(client.Provider())),
			zap.String("feature", string(feature)))

		outcome, err := client.Generate(ctx, systemPrompt, userPrompt, temperature, maxTokens)
		if err == nil {
			return outcome, nil
		}

		c.logger.Warn("provider failed",
			zap.String("provider", string(client.Provider())),
			zap.Error(err))
		causes = append(causes, err.Error())
	}

	return nil, types.NewError(types.ErrAllProvidersFailed, fmt.Sprintf("all AI providers failed: %s", strings.Join(causes, "; ")))
}

func (c *AIClient) order(prefer types.Provider) []Client {
	if c.fallback != nil && prefer == c.fallback.Provider() {
		return []Client{c.fallback, c.primary}
	}
	return []Client{c.primary, c.fallback}
}

// Availability reports which configured providers currently respond.
func (c *AIClient) Availability() map[types.Provider]bool {
	result := map[types.Provider]bool{}
	if c.primary != nil {
		result[c.primary.Provider()] = c.primary.Available()
	}
	if c.fallback != nil {
		result[c.fallback.Provider()] = c.fallback.Available()
	}
	return result
}
