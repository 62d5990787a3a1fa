package storage

import (
	"context"
	"time"

	"github.com/driftlog/aiops/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CredentialStore persists encrypted provider credentials. It never sees
// plaintext — callers encrypt/decrypt through vault.KeyVault before and
// after crossing this boundary.
type CredentialStore interface {
	Create(ctx context.Context, c *ProviderCredentialModel) error
	Update(ctx context.Context, c *ProviderCredentialModel) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*ProviderCredentialModel, error)
	List(ctx context.Context, provider types.Provider) ([]*ProviderCredentialModel, error)
	// ActiveFor returns the credential ProviderRegistry should use for a
	// provider: the most recently created row with IsActive set, grounded
	// on the teacher's API-key-pool selection strategy.
	ActiveFor(ctx context.Context, provider types.Provider) (*ProviderCredentialModel, error)
}

type gormCredentialStore struct {
	db *gorm.DB
}

// NewCredentialStore constructs a gorm-backed CredentialStore.
func NewCredentialStore(db *gorm.DB) CredentialStore {
	return &gormCredentialStore{db: db}
}

func (s *gormCredentialStore) Create(ctx context.Context, c *ProviderCredentialModel) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return types.NewError(types.ErrInternal, "failed to persist provider credential").WithCause(err)
	}
	return nil
}

func (s *gormCredentialStore) Update(ctx context.Context, c *ProviderCredentialModel) error {
	c.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Save(c).Error; err != nil {
		return types.NewError(types.ErrInternal, "failed to update provider credential").WithCause(err)
	}
	return nil
}

func (s *gormCredentialStore) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&ProviderCredentialModel{}, "id = ?", id).Error; err != nil {
		return types.NewError(types.ErrInternal, "failed to delete provider credential").WithCause(err)
	}
	return nil
}

func (s *gormCredentialStore) Get(ctx context.Context, id string) (*ProviderCredentialModel, error) {
	var m ProviderCredentialModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, types.NewError(types.ErrNotFound, "provider credential not found")
		}
		return nil, types.NewError(types.ErrInternal, "failed to load provider credential").WithCause(err)
	}
	return &m, nil
}

func (s *gormCredentialStore) List(ctx context.Context, provider types.Provider) ([]*ProviderCredentialModel, error) {
	var rows []*ProviderCredentialModel
	q := s.db.WithContext(ctx).Order("created_at desc")
	if provider != "" {
		q = q.Where("provider = ?", string(provider))
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, types.NewError(types.ErrInternal, "failed to list provider credentials").WithCause(err)
	}
	return rows, nil
}

func (s *gormCredentialStore) ActiveFor(ctx context.Context, provider types.Provider) (*ProviderCredentialModel, error) {
	var m ProviderCredentialModel
	err := s.db.WithContext(ctx).
		Where("provider = ? AND is_active = ?", string(provider), true).
		Order("created_at desc").
		First(&m).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, types.NewError(types.ErrInternal, "failed to select active credential").WithCause(err)
	}
	return &m, nil
}
