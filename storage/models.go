package storage

import "time"

// ProviderCredentialModel is the gorm row for an encrypted provider API
// key, grounded on the teacher's field+tag conventions for persisted
// credentials.
type ProviderCredentialModel struct {
	ID             string    `gorm:"primaryKey;size:36"`
	Provider       string    `gorm:"size:32;index:idx_provider_active"`
	Label          string    `gorm:"size:128"`
	EncryptedValue string    `gorm:"type:text"`
	Preview        string    `gorm:"size:16"`
	IsActive       bool      `gorm:"index:idx_provider_active"`
	CreatedBy      string    `gorm:"size:36"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName pins the table name so renaming the Go type never migrates
// the schema.
func (ProviderCredentialModel) TableName() string { return "ai_provider_credentials" }

// FeatureSettingModel is the gorm row for a global feature toggle.
type FeatureSettingModel struct {
	FeatureID          string `gorm:"primaryKey;size:64"`
	GloballyEnabled    bool
	DefaultProvider    string `gorm:"size:32"`
	FallbackProvider   string `gorm:"size:32"`
	UpdatedBy          string `gorm:"size:36"`
	UpdatedAt          time.Time
}

func (FeatureSettingModel) TableName() string { return "ai_feature_settings" }

// UserFeaturePreferenceModel is the gorm row for a user's opt-in/out and
// admin-override state for a single feature.
type UserFeaturePreferenceModel struct {
	UserID            string `gorm:"primaryKey;size:36"`
	FeatureID         string `gorm:"primaryKey;size:64"`
	Enabled           bool
	AdminOverride     *bool
	AdminOverrideBy   string `gorm:"size:36"`
	AdminOverrideAt   *time.Time
	UpdatedAt         time.Time
}

func (UserFeaturePreferenceModel) TableName() string { return "ai_user_feature_preferences" }

// UsageRecordModel is the append-only gorm row for a single feature
// invocation, feeding billing and admin analytics.
type UsageRecordModel struct {
	ID              string `gorm:"primaryKey;size:36"`
	UserID          string `gorm:"size:36;index"`
	FeatureID       string `gorm:"size:64;index"`
	Provider        string `gorm:"size:32"`
	CacheHit        bool
	InputTokens     int
	OutputTokens    int
	EstimatedCostUSD float64
	LatencyMS       int
	Succeeded       bool
	ErrorCode       string `gorm:"size:64"`
	CreatedAt       time.Time `gorm:"index"`
}

func (UsageRecordModel) TableName() string { return "ai_usage_records" }
