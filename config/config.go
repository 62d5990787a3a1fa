// =============================================================================
// AI orchestration configuration
// =============================================================================
// Every row of the configuration table carries an env tag so Loader can
// override it without a file on disk, matching the teacher's config
// package convention: defaults -> YAML file -> environment.
// =============================================================================
package config

import (
	"fmt"
	"time"
)

// Config is the complete configuration for the AI orchestration subsystem.
type Config struct {
	Redis     RedisConfig     `yaml:"redis" env:"REDIS"`
	Database  DatabaseConfig  `yaml:"database" env:"DATABASE"`
	Log       LogConfig       `yaml:"log" env:"LOG"`
	Vault     VaultConfig     `yaml:"vault" env:"VAULT"`
	Providers ProvidersConfig `yaml:"providers" env:"PROVIDERS"`
	Features  FeaturesConfig  `yaml:"features" env:"FEATURES"`
}

// RedisConfig configures the shared key-value store backing Cache and the
// rate limiter.
type RedisConfig struct {
	Addr         string `yaml:"addr" env:"ADDR"`
	Password     string `yaml:"password" env:"PASSWORD"`
	DB           int    `yaml:"db" env:"DB"`
	PoolSize     int    `yaml:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int    `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// DatabaseConfig configures the gorm connection used by storage for
// credentials, feature settings, preferences, and the usage ledger.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver" env:"DRIVER"` // postgres | sqlite
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	User            string        `yaml:"user" env:"USER"`
	Password        string        `yaml:"password" env:"PASSWORD"`
	Name            string        `yaml:"name" env:"NAME"`
	SSLMode         string        `yaml:"ssl_mode" env:"SSL_MODE"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// DSN returns the gorm driver-appropriate connection string.
func (d DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
		)
	case "sqlite":
		return d.Name
	default:
		return ""
	}
}

// LogConfig configures the zap logger shared across every package.
type LogConfig struct {
	Level        string `yaml:"level" env:"LEVEL"`
	Format       string `yaml:"format" env:"FORMAT"` // json | console
	EnableCaller bool   `yaml:"enable_caller" env:"ENABLE_CALLER"`
}

// VaultConfig configures KeyVault.
type VaultConfig struct {
	// MasterEncryptionKey is the PBKDF2 input; must be >= 32 bytes or the
	// vault refuses to operate.
	MasterEncryptionKey string `yaml:"master_encryption_key" env:"MASTER_ENCRYPTION_KEY"`
}

// ProvidersConfig configures per-provider defaults and the request budget
// primitives (rate limiting, ML gating) shared across components.
type ProvidersConfig struct {
	GeminiModel       string        `yaml:"gemini_model" env:"GEMINI_MODEL"`
	GeminiTemperature float32       `yaml:"gemini_temperature" env:"GEMINI_TEMPERATURE"`
	GeminiMaxTokens   int           `yaml:"gemini_max_tokens" env:"GEMINI_MAX_TOKENS"`
	OpenAIModel       string        `yaml:"openai_model" env:"OPENAI_MODEL"`
	OpenAITimeout     time.Duration `yaml:"openai_timeout" env:"OPENAI_TIMEOUT"`
	AnthropicModel    string        `yaml:"anthropic_model" env:"ANTHROPIC_MODEL"`
	DefaultTimeout    time.Duration `yaml:"default_timeout" env:"DEFAULT_TIMEOUT"`

	RequestsPerMinute int `yaml:"requests_per_minute" env:"REQUESTS_PER_MINUTE"`
	RequestsPerHour   int `yaml:"requests_per_hour" env:"REQUESTS_PER_HOUR"`
}

// FeaturesConfig holds thresholds and cache TTLs for the individual AI
// features. Each field maps directly to a row of spec §6's configuration
// table.
type FeaturesConfig struct {
	SuggestionConfidenceThreshold float64       `yaml:"suggestion_confidence_threshold" env:"SUGGESTION_CONFIDENCE_THRESHOLD"`
	SuggestionLookbackDays        int           `yaml:"suggestion_lookback_days" env:"SUGGESTION_LOOKBACK_DAYS"`

	NLPConfidenceThreshold float64 `yaml:"nlp_confidence_threshold" env:"NLP_CONFIDENCE_THRESHOLD"`

	AnomalyExtendedDayHours      float64 `yaml:"anomaly_extended_day_hours" env:"ANOMALY_EXTENDED_DAY_HOURS"`
	AnomalyConsecutiveLongDays   int     `yaml:"anomaly_consecutive_long_days" env:"ANOMALY_CONSECUTIVE_LONG_DAYS"`
	AnomalyWeekendHours          float64 `yaml:"anomaly_weekend_hours" env:"ANOMALY_WEEKEND_HOURS"`
	AnomalyLongDayHours          float64 `yaml:"anomaly_long_day_hours" env:"ANOMALY_LONG_DAY_HOURS"`
	MinSamplesForMLAnomaly       int     `yaml:"min_samples_for_ml_anomaly" env:"MIN_SAMPLES_FOR_ML_ANOMALY"`
	BaselineDays                 int     `yaml:"baseline_days" env:"BASELINE_DAYS"`

	CacheTTLSuggestions time.Duration `yaml:"cache_ttl_suggestions" env:"CACHE_TTL_SUGGESTIONS"`
	CacheTTLAnomalies   time.Duration `yaml:"cache_ttl_anomalies" env:"CACHE_TTL_ANOMALIES"`
	CacheTTLUserContext time.Duration `yaml:"cache_ttl_user_context" env:"CACHE_TTL_USER_CONTEXT"`
	CacheTTLForecasts   time.Duration `yaml:"cache_ttl_forecasts" env:"CACHE_TTL_FORECASTS"`
}
