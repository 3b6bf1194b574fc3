package models

import (
	"time"

	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/shopspring/decimal"
)

// ScopeModel is a store scope that may hold an access credential
type ScopeModel struct {
	ScopeID   string    `gorm:"type:varchar(64);primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ScopeModel) TableName() string {
	return "integration_scopes"
}

// CredentialModel is the persistence model for AccessCredential
type CredentialModel struct {
	ScopeID   string    `gorm:"type:varchar(64);primaryKey"`
	Token     string    `gorm:"type:varchar(128);not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CredentialModel) TableName() string {
	return "integration_credentials"
}

// ToDomain converts the persistence model to a domain AccessCredential
func (m *CredentialModel) ToDomain() *integration.AccessCredential {
	return &integration.AccessCredential{
		ScopeID:   m.ScopeID,
		Token:     m.Token,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain AccessCredential
func (m *CredentialModel) FromDomain(c *integration.AccessCredential) {
	m.ScopeID = c.ScopeID
	m.Token = c.Token
	m.UpdatedAt = c.UpdatedAt
}

// LegacyUserModel is an account of the legacy XML endpoint
type LegacyUserModel struct {
	Username     string    `gorm:"type:varchar(100);primaryKey"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Active       bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LegacyUserModel) TableName() string {
	return "legacy_users"
}

// ToDomain converts the persistence model to a domain LegacyUser
func (m *LegacyUserModel) ToDomain() *integration.LegacyUser {
	return &integration.LegacyUser{
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Active:       m.Active,
	}
}

// DeliveryOptionModel is the persistence model for DeliveryOptionRecord
type DeliveryOptionModel struct {
	ScopeID               string           `gorm:"type:varchar(64);primaryKey"`
	OptionID              string           `gorm:"column:option_id;type:varchar(64);primaryKey"`
	Name                  string           `gorm:"type:varchar(255);not null"`
	Description           string           `gorm:"type:text"`
	CarrierCode           string           `gorm:"type:varchar(64);not null"`
	ServiceCode           string           `gorm:"type:varchar(64);not null"`
	Price                 *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Currency              string           `gorm:"type:varchar(3)"`
	EstimatedDeliveryDays *int             `gorm:"column:estimated_delivery_days"`
	CreatedAt             time.Time        `gorm:"not null"`
	UpdatedAt             time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DeliveryOptionModel) TableName() string {
	return "delivery_options"
}

// ToDomain converts the persistence model to a domain DeliveryOptionRecord
func (m *DeliveryOptionModel) ToDomain() *integration.DeliveryOptionRecord {
	return &integration.DeliveryOptionRecord{
		ScopeID:               m.ScopeID,
		ID:                    m.OptionID,
		Name:                  m.Name,
		Description:           m.Description,
		CarrierCode:           m.CarrierCode,
		ServiceCode:           m.ServiceCode,
		Price:                 m.Price,
		Currency:              m.Currency,
		EstimatedDeliveryDays: m.EstimatedDeliveryDays,
		UpdatedAt:             m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain DeliveryOptionRecord
func (m *DeliveryOptionModel) FromDomain(r *integration.DeliveryOptionRecord) {
	m.ScopeID = r.ScopeID
	m.OptionID = r.ID
	m.Name = r.Name
	m.Description = r.Description
	m.CarrierCode = r.CarrierCode
	m.ServiceCode = r.ServiceCode
	m.Price = r.Price
	m.Currency = r.Currency
	m.EstimatedDeliveryDays = r.EstimatedDeliveryDays
	m.UpdatedAt = r.UpdatedAt
}
