package orchestrator

import (
	"context"

	"github.com/driftlog/aiops/storage"
	"github.com/driftlog/aiops/types"
)

// ListFeatures implements the admin listFeatures() operation.
func (o *Orchestrator) ListFeatures(ctx context.Context) ([]*storage.FeatureSettingModel, error) {
	return o.featureStore.ListGlobalSettings(ctx)
}

// UpdateFeature implements updateFeature(featureId, enabled, by).
func (o *Orchestrator) UpdateFeature(ctx context.Context, featureID types.FeatureID, enabled bool, by string) error {
	return o.gate.SetGlobal(ctx, featureID, enabled, by)
}

// ListPreferences implements listPreferences(userId).
func (o *Orchestrator) ListPreferences(ctx context.Context, userID string) ([]*storage.UserFeaturePreferenceModel, error) {
	return o.featureStore.ListUserPreferences(ctx, userID)
}

// SetPreference implements setPreference(userId, featureId, enabled).
func (o *Orchestrator) SetPreference(ctx context.Context, userID string, featureID types.FeatureID, enabled bool) error {
	return o.gate.SetUserPreference(ctx, userID, featureID, enabled)
}

// SetOverride implements setOverride(userId, featureId, enabled, by).
func (o *Orchestrator) SetOverride(ctx context.Context, userID string, featureID types.FeatureID, enabled bool, by string) error {
	return o.gate.SetAdminOverride(ctx, userID, featureID, enabled, by)
}

// RemoveOverride implements removeOverride(userId, featureId).
func (o *Orchestrator) RemoveOverride(ctx context.Context, userID string, featureID types.FeatureID) error {
	return o.gate.RemoveAdminOverride(ctx, userID, featureID)
}

// ListCredentials implements the admin credential list(provider?)
// operation.
func (o *Orchestrator) ListCredentials(ctx context.Context, provider types.Provider) ([]*storage.ProviderCredentialModel, error) {
	return o.registry.ListCredentials(ctx, provider)
}

// CreateCredential implements the admin credential create(...) operation,
// and refreshes the live AIClient afterward so the new key takes effect
// on the next request.
func (o *Orchestrator) CreateCredential(ctx context.Context, provider types.Provider, label, plaintext, createdBy string) (*storage.ProviderCredentialModel, error) {
	m, err := o.registry.AddCredential(ctx, provider, label, plaintext, createdBy)
	if err != nil {
		return nil, err
	}
	_ = o.RefreshProviders(ctx)
	return m, nil
}

// DeleteCredential implements the admin credential delete(id) operation.
// Losing the last active credential for a provider is not itself an
// error here; it just leaves AIClient degraded until another is added.
func (o *Orchestrator) DeleteCredential(ctx context.Context, id string) error {
	if err := o.registry.RemoveCredential(ctx, id); err != nil {
		return err
	}
	_ = o.RefreshProviders(ctx)
	return nil
}

// TestCredential implements the admin credential test(provider) liveness
// check, per spec §6's `{success, provider, message, latencyMs,
// modelAvailable?}` response shape.
func (o *Orchestrator) TestCredential(ctx context.Context, provider types.Provider) TestCredentialResult {
	var model string
	switch provider {
	case types.ProviderGemini:
		model = o.cfg.Providers.GeminiModel
	case types.ProviderOpenAI:
		model = o.cfg.Providers.OpenAIModel
	case types.ProviderAnthropic:
		model = o.cfg.Providers.AnthropicModel
	}

	result := o.registry.TestCredential(ctx, provider, model, o.cfg.Providers.OpenAITimeout)
	return TestCredentialResult{
		Success:   result.Reached,
		Provider:  provider,
		Message:   result.Error,
		LatencyMS: result.LatencyMS,
	}
}

// TestCredentialResult is the admin-facing shape of a credential
// liveness check, per spec §6's credential test response.
type TestCredentialResult struct {
	Success   bool
	Provider  types.Provider
	Message   string
	LatencyMS int64
}

