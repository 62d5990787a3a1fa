package providers

import (
	"context"
	"time"

	"github.com/driftlog/aiops/storage"
	"github.com/driftlog/aiops/types"
	"github.com/driftlog/aiops/vault"
	"go.uber.org/zap"
)

// Registry manages the lifecycle of stored provider credentials:
// validating format before persisting, encrypting at rest, and
// selecting which credential AIClient should build a provider client
// from (spec §4.1/§4.2).
type Registry struct {
	store  storage.CredentialStore
	vault  *vault.KeyVault
	logger *zap.Logger
}

// NewRegistry constructs a Registry.
func NewRegistry(store storage.CredentialStore, kv *vault.KeyVault, logger *zap.Logger) *Registry {
	return &Registry{store: store, vault: kv, logger: logger}
}

// AddCredential validates the plaintext key's format, encrypts it, and
// persists it. The plaintext never leaves this call.
func (r *Registry) AddCredential(ctx context.Context, provider types.Provider, label, plaintext, createdBy string) (*storage.ProviderCredentialModel, error) {
	if ok, reason := vault.ValidateFormat(provider, plaintext); !ok {
		return nil, types.NewError(types.ErrBadInput, "credential failed format validation: "+reason)
	}

	encrypted, err := r.vault.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}

	m := &storage.ProviderCredentialModel{
		Provider:       string(provider),
		Label:          label,
		EncryptedValue: encrypted,
		Preview:        vault.Preview(plaintext),
		IsActive:       true,
		CreatedBy:      createdBy,
	}
	if err := r.store.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// RemoveCredential deletes a stored credential permanently.
func (r *Registry) RemoveCredential(ctx context.Context, id string) error {
	return r.store.Delete(ctx, id)
}

// ListCredentials returns stored credentials for a provider (or all
// providers when provider is empty), never decrypting the blob.
func (r *Registry) ListCredentials(ctx context.Context, provider types.Provider) ([]*storage.ProviderCredentialModel, error) {
	return r.store.List(ctx, provider)
}

// ActivePlaintext decrypts and returns the active credential's
// plaintext for a provider, or "" if none is active.
func (r *Registry) ActivePlaintext(ctx context.Context, provider types.Provider) (string, error) {
	m, err := r.store.ActiveFor(ctx, provider)
	if err != nil {
		return "", err
	}
	if m == nil {
		return "", nil
	}
	return r.vault.Decrypt(m.EncryptedValue)
}

// LivenessResult is the outcome of TestCredential: whether the provider
// answered, and how long it took.
type LivenessResult struct {
	Provider types.Provider
	Reached  bool
	LatencyMS int64
	Error    string
}

// TestCredential performs a minimal live round-trip against a provider
// using its currently active credential, grounded on
// ai_client.py's AIClient.check_availability but extended with a
// latency measurement per SPEC_FULL.md §4's supplemented liveness check.
func (r *Registry) TestCredential(ctx context.Context, provider types.Provider, model string, openAITimeout time.Duration) LivenessResult {
	plaintext, err := r.ActivePlaintext(ctx, provider)
	if err != nil {
		return LivenessResult{Provider: provider, Reached: false, Error: err.Error()}
	}
	if plaintext == "" {
		return LivenessResult{Provider: provider, Reached: false, Error: "no active credential configured"}
	}

	var client Client
	switch provider {
	case types.ProviderGemini:
		client = NewGeminiClient(plaintext, model)
	case types.ProviderOpenAI:
		client = NewOpenAIClient(plaintext, model, openAITimeout)
	case types.ProviderAnthropic:
		client = NewAnthropicClient(plaintext, model)
	default:
		return LivenessResult{Provider: provider, Reached: false, Error: "unsupported provider"}
	}

	start := time.Now()
	_, err = client.Generate(ctx, "Reply with the single word: ok.", "ping", 0, 8)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return LivenessResult{Provider: provider, Reached: false, LatencyMS: latency, Error: err.Error()}
	}
	return LivenessResult{Provider: provider, Reached: true, LatencyMS: latency}
}
