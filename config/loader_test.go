package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoader_DefaultsOnly(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.Equal(t, 60, cfg.Providers.RequestsPerMinute)
	require.Equal(t, "gemini-2.5-flash", cfg.Providers.GeminiModel)
}

func TestLoader_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
providers:
  requests_per_minute: 10
features:
  nlp_confidence_threshold: 0.9
`), 0o600))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)
	require.Equal(t, 10, cfg.Providers.RequestsPerMinute)
	require.Equal(t, 0.9, cfg.Features.NLPConfidenceThreshold)
	// Untouched fields keep their defaults.
	require.Equal(t, 1000, cfg.Providers.RequestsPerHour)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	t.Setenv("AIOPS_PROVIDERS_REQUESTS_PER_MINUTE", "5")
	t.Setenv("AIOPS_VAULT_MASTER_ENCRYPTION_KEY", "01234567890123456789012345678901")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Providers.RequestsPerMinute)
	require.Equal(t, "01234567890123456789012345678901", cfg.Vault.MasterEncryptionKey)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Vault.MasterEncryptionKey = "tooshort"
	require.Error(t, cfg.Validate())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	require.Contains(t, d.DSN(), "host=db")

	d2 := DatabaseConfig{Driver: "sqlite", Name: "file.db"}
	require.Equal(t, "file.db", d2.DSN())
}
