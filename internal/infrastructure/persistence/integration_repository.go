package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/erp/ordersource/internal/domain/shared"
	"github.com/erp/ordersource/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ---------------------------------------------------------------------------
// Credential store
// ---------------------------------------------------------------------------

// GormCredentialStore implements integration.CredentialStore using GORM
type GormCredentialStore struct {
	db *gorm.DB
}

// NewGormCredentialStore creates a new GormCredentialStore
func NewGormCredentialStore(db *gorm.DB) *GormCredentialStore {
	return &GormCredentialStore{db: db}
}

// Scopes lists the ids of all active scopes
func (r *GormCredentialStore) Scopes(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.ScopeModel{}).
		Where("active = ?", true).
		Order("scope_id ASC").
		Pluck("scope_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list scopes: %w", err)
	}
	return ids, nil
}

// Read returns the credential of a scope
func (r *GormCredentialStore) Read(ctx context.Context, scopeID string) (*integration.AccessCredential, error) {
	var model models.CredentialModel
	if err := r.db.WithContext(ctx).First(&model, "scope_id = ?", scopeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("credential for scope %q: %w", scopeID, shared.ErrNotFound)
		}
		return nil, fmt.Errorf("read credential: %w", err)
	}
	return model.ToDomain(), nil
}

// RegisterScope creates or reactivates a scope
func (r *GormCredentialStore) RegisterScope(ctx context.Context, scopeID, name string) error {
	model := models.ScopeModel{
		ScopeID:   scopeID,
		Name:      name,
		Active:    true,
		CreatedAt: time.Now(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "active"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("register scope: %w", err)
	}
	return nil
}

// Write stores the credential of a scope, replacing any previous token
func (r *GormCredentialStore) Write(ctx context.Context, cred *integration.AccessCredential) error {
	var model models.CredentialModel
	model.FromDomain(cred)
	if model.UpdatedAt.IsZero() {
		model.UpdatedAt = time.Now()
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Legacy users
// ---------------------------------------------------------------------------

// GormLegacyUserStore implements integration.LegacyUserStore using GORM
type GormLegacyUserStore struct {
	db *gorm.DB
}

// NewGormLegacyUserStore creates a new GormLegacyUserStore
func NewGormLegacyUserStore(db *gorm.DB) *GormLegacyUserStore {
	return &GormLegacyUserStore{db: db}
}

// FindByUsername looks up a legacy account
func (r *GormLegacyUserStore) FindByUsername(ctx context.Context, username string) (*integration.LegacyUser, error) {
	var model models.LegacyUserModel
	if err := r.db.WithContext(ctx).First(&model, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("legacy user %q: %w", username, shared.ErrNotFound)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create stores a new legacy account
func (r *GormLegacyUserStore) Create(ctx context.Context, user *integration.LegacyUser) error {
	model := models.LegacyUserModel{
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Active:       user.Active,
	}
	// Select all columns so an inactive account is not replaced by the column default
	return r.db.WithContext(ctx).Select("*").Create(&model).Error
}

// ---------------------------------------------------------------------------
// Delivery options
// ---------------------------------------------------------------------------

// GormDeliveryOptionRepository implements integration.DeliveryOptionRepository using GORM
type GormDeliveryOptionRepository struct {
	db *gorm.DB
}

// NewGormDeliveryOptionRepository creates a new GormDeliveryOptionRepository
func NewGormDeliveryOptionRepository(db *gorm.DB) *GormDeliveryOptionRepository {
	return &GormDeliveryOptionRepository{db: db}
}

// Save upserts a delivery option by (scope, id)
func (r *GormDeliveryOptionRepository) Save(ctx context.Context, option *integration.DeliveryOptionRecord) error {
	var model models.DeliveryOptionModel
	model.FromDomain(option)
	if model.UpdatedAt.IsZero() {
		model.UpdatedAt = time.Now()
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scope_id"}, {Name: "option_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "description", "carrier_code", "service_code",
			"price", "currency", "estimated_delivery_days", "updated_at",
		}),
	}).Create(&model).Error
}

// Delete removes a delivery option
func (r *GormDeliveryOptionRepository) Delete(ctx context.Context, scopeID, id string) error {
	result := r.db.WithContext(ctx).
		Where("scope_id = ? AND option_id = ?", scopeID, id).
		Delete(&models.DeliveryOptionModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrDeliveryOptionNotFound
	}
	return nil
}

// Exists reports whether the scope has a delivery option with the id
func (r *GormDeliveryOptionRepository) Exists(ctx context.Context, scopeID, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.DeliveryOptionModel{}).
		Where("scope_id = ? AND option_id = ?", scopeID, id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
