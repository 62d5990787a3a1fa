package config

import "time"

// DefaultConfig returns a Config with the reasonable defaults spec §6 and
// §4 describe (e.g. requestsPerMinute=60, cache TTLs per namespace).
func DefaultConfig() *Config {
	return &Config{
		Redis:     DefaultRedisConfig(),
		Database:  DefaultDatabaseConfig(),
		Log:       DefaultLogConfig(),
		Vault:     VaultConfig{},
		Providers: DefaultProvidersConfig(),
		Features:  DefaultFeaturesConfig(),
	}
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "postgres",
		Host:            "localhost",
		Port:            5432,
		User:            "aiops",
		Name:            "aiops",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:        "info",
		Format:       "json",
		EnableCaller: true,
	}
}

func DefaultProvidersConfig() ProvidersConfig {
	return ProvidersConfig{
		GeminiModel:       "gemini-2.5-flash",
		GeminiTemperature: 0.7,
		GeminiMaxTokens:   1000,
		OpenAIModel:       "gpt-4o-mini",
		OpenAITimeout:     30 * time.Second,
		AnthropicModel:    "claude-3-5-haiku",
		DefaultTimeout:    30 * time.Second,
		RequestsPerMinute: 60,
		RequestsPerHour:   1000,
	}
}

func DefaultFeaturesConfig() FeaturesConfig {
	return FeaturesConfig{
		SuggestionConfidenceThreshold: 0.3,
		SuggestionLookbackDays:        30,

		NLPConfidenceThreshold: 0.7,

		AnomalyExtendedDayHours:    12,
		AnomalyConsecutiveLongDays: 5,
		AnomalyWeekendHours:        4,
		AnomalyLongDayHours:        10,
		MinSamplesForMLAnomaly:     30,
		BaselineDays:               30,

		CacheTTLSuggestions: 5 * time.Minute,
		CacheTTLAnomalies:   time.Hour,
		CacheTTLUserContext: 15 * time.Minute,
		CacheTTLForecasts:   time.Hour,
	}
}
