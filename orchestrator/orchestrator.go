// Package orchestrator is the single composition root: it constructs
// every package above it once at startup and exposes the named inbound
// operations a handler layer calls, per spec §9's "construct the
// orchestrator once at startup and pass it explicitly into each handler
// scope" guidance. Grounded on the teacher's top-level wiring style
// (one constructor building every collaborator from config, no
// package-level globals).
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/driftlog/aiops/anomaly"
	"github.com/driftlog/aiops/cache"
	"github.com/driftlog/aiops/config"
	"github.com/driftlog/aiops/featuregate"
	"github.com/driftlog/aiops/forecast"
	"github.com/driftlog/aiops/nlparser"
	"github.com/driftlog/aiops/providers"
	"github.com/driftlog/aiops/report"
	"github.com/driftlog/aiops/storage"
	"github.com/driftlog/aiops/suggestion"
	"github.com/driftlog/aiops/types"
	"github.com/driftlog/aiops/usage"
	"github.com/driftlog/aiops/vault"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Orchestrator holds every constructed collaborator and routes the
// inbound operations spec §6 names to the package that serves them.
type Orchestrator struct {
	cfg    *config.Config
	logger *zap.Logger

	rdb redis.Cmdable

	registry     *providers.Registry
	ai           *providers.AIClient
	gate         *featuregate.Gate
	featureStore storage.FeatureStore
	usage        *usage.Ledger
	limiter      *cache.RateLimiter

	suggestions *suggestion.Engine
	anomalies   *anomaly.Detector
	forecaster  *forecast.Forecaster
	parser      *nlparser.Parser
	reports     *report.Summarizer
}

// storageHandles bundles the reader/writer ports built over one gorm
// connection, so New only opens one connection for both this
// subsystem's own tables and the collaborator tables it reads.
type storageHandles struct {
	entries     storage.TimeEntryReader
	projects    storage.ProjectReader
	users       storage.UserReader
	payroll     storage.PayrollReader
	credentials storage.CredentialStore
	features    storage.FeatureStore
	usageStore  storage.UsageStore
}

// New wires every package into one Orchestrator: opens storage, connects
// redis, builds the vault and provider registry, constructs an AIClient
// from whatever credentials are currently active, and constructs each
// domain engine over the shared collaborators.
func New(cfg *config.Config, logger *zap.Logger) (*Orchestrator, error) {
	gormDB, err := storage.Open(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: open storage: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})

	h := storageHandles{
		entries:     storage.NewTimeEntryReader(gormDB),
		projects:    storage.NewProjectReader(gormDB),
		users:       storage.NewUserReader(gormDB),
		payroll:     storage.NewPayrollReader(gormDB),
		credentials: storage.NewCredentialStore(gormDB),
		features:    storage.NewFeatureStore(gormDB),
		usageStore:  storage.NewUsageStore(gormDB),
	}

	kv := vault.New(cfg.Vault.MasterEncryptionKey)
	registry := providers.NewRegistry(h.credentials, kv, logger)

	ai, err := buildAIClient(context.Background(), registry, cfg, logger)
	if err != nil {
		logger.Warn("no AI provider available at startup, continuing degraded", zap.Error(err))
	}

	cacheStore := cache.New(rdb, logger)
	limiter := cache.NewRateLimiter(rdb, logger)
	gate := featuregate.New(h.features, h.usageStore, h.credentials, logger)
	ledger := usage.New(h.usageStore)

	o := &Orchestrator{
		cfg:          cfg,
		logger:       logger,
		rdb:          rdb,
		registry:     registry,
		ai:           ai,
		gate:         gate,
		featureStore: h.features,
		usage:        ledger,
		limiter:      limiter,

		suggestions: suggestion.New(h.entries, h.projects, ai, cacheStore, limiter, logger, suggestion.Config{
			ConfidenceThreshold: cfg.Features.SuggestionConfidenceThreshold,
			LookbackDays:        cfg.Features.SuggestionLookbackDays,
			CacheTTL:            cfg.Features.CacheTTLSuggestions,
			RateLimitPerMinute:  cfg.Providers.RequestsPerMinute,
		}),
		anomalies:  anomaly.New(h.entries, h.users, cacheStore, logger, cfg.Features),
		forecaster: forecast.New(h.entries, h.projects, h.users, h.payroll, cacheStore, cfg.Features.CacheTTLForecasts, logger),
		parser:     nlparser.New(h.entries, h.projects, ai, logger, cfg.Features),
		reports:    report.New(h.entries, h.projects, h.users, ai, logger),
	}

	return o, nil
}

// buildAIClient decrypts whichever gemini/openai credentials are active
// and wraps them in an AIClient, gemini-primary/openai-fallback per
// spec's default provider order.
func buildAIClient(ctx context.Context, registry *providers.Registry, cfg *config.Config, logger *zap.Logger) (*providers.AIClient, error) {
	var primary, fallback providers.Client

	if key, err := registry.ActivePlaintext(ctx, types.ProviderGemini); err == nil && key != "" {
		primary = providers.NewGeminiClient(key, cfg.Providers.GeminiModel)
	}
	if key, err := registry.ActivePlaintext(ctx, types.ProviderOpenAI); err == nil && key != "" {
		fallback = providers.NewOpenAIClient(key, cfg.Providers.OpenAIModel, cfg.Providers.OpenAITimeout)
	}

	if primary == nil && fallback == nil {
		return providers.NewAIClient(nil, nil, cfg.Providers.RequestsPerMinute, cfg.Providers.GeminiTemperature, cfg.Providers.GeminiMaxTokens, logger),
			fmt.Errorf("no active gemini or openai credential configured")
	}

	return providers.NewAIClient(primary, fallback, cfg.Providers.RequestsPerMinute, cfg.Providers.GeminiTemperature, cfg.Providers.GeminiMaxTokens, logger), nil
}

// RefreshProviders rebuilds the AIClient from whichever credentials are
// currently active, called after an admin mutates credentials so the
// next request doesn't keep using a stale or revoked key (spec §9's
// "re-fetched when admin mutations invalidate it").
func (o *Orchestrator) RefreshProviders(ctx context.Context) error {
	ai, err := buildAIClient(ctx, o.registry, o.cfg, o.logger)
	o.ai = ai
	return err
}

func (o *Orchestrator) recordUsage(ctx context.Context, userID string, featureID types.FeatureID, provider types.Provider, cacheHit, succeeded bool, latency time.Duration, errCode types.ErrorCode) {
	if err := o.usage.Record(ctx, usage.Invocation{
		UserID:    userID,
		FeatureID: featureID,
		Provider:  provider,
		CacheHit:  cacheHit,
		Succeeded: succeeded,
		Latency:   latency,
		ErrorCode: errCode,
	}); err != nil {
		o.logger.Warn("failed to record usage", zap.Error(err))
	}
}
