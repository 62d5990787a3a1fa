package storage

import (
	"context"
	"time"

	"github.com/driftlog/aiops/types"
	"gorm.io/gorm"
)

// FeatureStore persists global feature toggles and per-user preferences
// and overrides that FeatureGate resolves at decision time.
type FeatureStore interface {
	GlobalSetting(ctx context.Context, featureID types.FeatureID) (*FeatureSettingModel, error)
	SetGlobalSetting(ctx context.Context, s *FeatureSettingModel) error
	ListGlobalSettings(ctx context.Context) ([]*FeatureSettingModel, error)

	UserPreference(ctx context.Context, userID string, featureID types.FeatureID) (*UserFeaturePreferenceModel, error)
	SetUserPreference(ctx context.Context, p *UserFeaturePreferenceModel) error
	ListUserPreferences(ctx context.Context, userID string) ([]*UserFeaturePreferenceModel, error)
	SetAdminOverride(ctx context.Context, userID string, featureID types.FeatureID, enabled bool, adminID string) error
	RemoveAdminOverride(ctx context.Context, userID string, featureID types.FeatureID) error
}

type gormFeatureStore struct {
	db *gorm.DB
}

// NewFeatureStore constructs a gorm-backed FeatureStore.
func NewFeatureStore(db *gorm.DB) FeatureStore {
	return &gormFeatureStore{db: db}
}

func (s *gormFeatureStore) GlobalSetting(ctx context.Context, featureID types.FeatureID) (*FeatureSettingModel, error) {
	var m FeatureSettingModel
	err := s.db.WithContext(ctx).First(&m, "feature_id = ?", string(featureID)).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "failed to load feature setting").WithCause(err)
	}
	return &m, nil
}

func (s *gormFeatureStore) SetGlobalSetting(ctx context.Context, m *FeatureSettingModel) error {
	m.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Save(m).Error; err != nil {
		return types.NewError(types.ErrInternal, "failed to save feature setting").WithCause(err)
	}
	return nil
}

func (s *gormFeatureStore) ListGlobalSettings(ctx context.Context) ([]*FeatureSettingModel, error) {
	var rows []*FeatureSettingModel
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, types.NewError(types.ErrInternal, "failed to list feature settings").WithCause(err)
	}
	return rows, nil
}

func (s *gormFeatureStore) ListUserPreferences(ctx context.Context, userID string) ([]*UserFeaturePreferenceModel, error) {
	var rows []*UserFeaturePreferenceModel
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, types.NewError(types.ErrInternal, "failed to list user feature preferences").WithCause(err)
	}
	return rows, nil
}

func (s *gormFeatureStore) UserPreference(ctx context.Context, userID string, featureID types.FeatureID) (*UserFeaturePreferenceModel, error) {
	var m UserFeaturePreferenceModel
	err := s.db.WithContext(ctx).First(&m, "user_id = ? AND feature_id = ?", userID, string(featureID)).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "failed to load user feature preference").WithCause(err)
	}
	return &m, nil
}

func (s *gormFeatureStore) SetUserPreference(ctx context.Context, p *UserFeaturePreferenceModel) error {
	p.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return types.NewError(types.ErrInternal, "failed to save user feature preference").WithCause(err)
	}
	return nil
}

func (s *gormFeatureStore) SetAdminOverride(ctx context.Context, userID string, featureID types.FeatureID, enabled bool, adminID string) error {
	now := time.Now()
	m := &UserFeaturePreferenceModel{
		UserID:          userID,
		FeatureID:       string(featureID),
		AdminOverride:   &enabled,
		AdminOverrideBy: adminID,
		AdminOverrideAt: &now,
		UpdatedAt:       now,
	}

	existing, err := s.UserPreference(ctx, userID, featureID)
	if err != nil {
		return err
	}
	if existing != nil {
		m.Enabled = existing.Enabled
	}

	if err := s.db.WithContext(ctx).Save(m).Error; err != nil {
		return types.NewError(types.ErrInternal, "failed to set admin override").WithCause(err)
	}
	return nil
}

func (s *gormFeatureStore) RemoveAdminOverride(ctx context.Context, userID string, featureID types.FeatureID) error {
	err := s.db.WithContext(ctx).
		Model(&UserFeaturePreferenceModel{}).
		Where("user_id = ? AND feature_id = ?", userID, string(featureID)).
		Updates(map[string]any{"admin_override": nil, "admin_override_by": "", "admin_override_at": nil, "updated_at": time.Now()}).Error
	if err != nil {
		return types.NewError(types.ErrInternal, "failed to remove admin override").WithCause(err)
	}
	return nil
}
