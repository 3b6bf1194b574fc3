package models

import (
	"time"

	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Catalog & inventory
// ---------------------------------------------------------------------------

// ProductModel is a catalog product
type ProductModel struct {
	ID        string    `gorm:"type:varchar(64);primaryKey"`
	SKU       string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name      string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "catalog_products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() integration.Product {
	return integration.Product{
		ID:        m.ID,
		SKU:       m.SKU,
		Name:      m.Name,
		UpdatedAt: m.UpdatedAt,
	}
}

// SourceItemModel is the stock of one sku at one source
type SourceItemModel struct {
	SKU        string          `gorm:"type:varchar(100);primaryKey"`
	SourceCode string          `gorm:"type:varchar(64);primaryKey"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	InStock    bool            `gorm:"not null;default:false"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SourceItemModel) TableName() string {
	return "inventory_source_items"
}

// ToDomain converts the persistence model to a domain SourceItem
func (m *SourceItemModel) ToDomain() integration.SourceItem {
	return integration.SourceItem{
		SKU:        m.SKU,
		SourceCode: m.SourceCode,
		Quantity:   m.Quantity,
		InStock:    m.InStock,
		UpdatedAt:  m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain SourceItem
func (m *SourceItemModel) FromDomain(s integration.SourceItem) {
	m.SKU = s.SKU
	m.SourceCode = s.SourceCode
	m.Quantity = s.Quantity
	m.InStock = s.InStock
	m.UpdatedAt = s.UpdatedAt
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// SalesOrderModel is a commerce sales order
type SalesOrderModel struct {
	ID             string                   `gorm:"type:varchar(64);primaryKey"`
	Number         string                   `gorm:"type:varchar(64);not null;uniqueIndex"`
	ScopeID        string                   `gorm:"type:varchar(64);index"`
	Status         integration.OrderStatus  `gorm:"type:varchar(32);not null"`
	Currency       string                   `gorm:"type:varchar(3);not null"`
	CustomerID     string                   `gorm:"type:varchar(64)"`
	CustomerName   string                   `gorm:"type:varchar(255)"`
	CustomerEmail  string                   `gorm:"type:varchar(255)"`
	CustomerPhone  string                   `gorm:"type:varchar(64)"`
	ShippingMethod string                   `gorm:"type:varchar(128)"`
	PaidAmount     decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	ShippingAmount decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount      decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	GrandTotal     decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	CustomerNote   string                   `gorm:"type:text"`
	PaidAt         *time.Time               `gorm:"column:paid_at"`
	ShippedAt      *time.Time               `gorm:"column:shipped_at"`
	CreatedAt      time.Time                `gorm:"not null"`
	UpdatedAt      time.Time                `gorm:"not null;index"`
	Items          []SalesOrderItemModel    `gorm:"foreignKey:OrderID"`
	Addresses      []OrderAddressModel      `gorm:"foreignKey:OrderID"`
	Attributes     []OrderAttributeModel    `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// SalesOrderItemModel is one order line
type SalesOrderItemModel struct {
	ID         string          `gorm:"type:varchar(64);primaryKey"`
	OrderID    string          `gorm:"type:varchar(64);not null;index"`
	Position   int             `gorm:"not null;default:0"`
	ProductID  string          `gorm:"type:varchar(64)"`
	SKU        string          `gorm:"type:varchar(100);not null"`
	Name       string          `gorm:"type:varchar(255)"`
	QtyOrdered decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	QtyShipped decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Price      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (SalesOrderItemModel) TableName() string {
	return "sales_order_items"
}

// Address kinds
const (
	AddressKindBilling  = "billing"
	AddressKindShipping = "shipping"
)

// OrderAddressModel is a billing or shipping address of an order
type OrderAddressModel struct {
	OrderID     string `gorm:"type:varchar(64);primaryKey"`
	Kind        string `gorm:"type:varchar(16);primaryKey"`
	Name        string `gorm:"type:varchar(255)"`
	Company     string `gorm:"type:varchar(255)"`
	Phone       string `gorm:"type:varchar(64)"`
	Email       string `gorm:"type:varchar(255)"`
	Street1     string `gorm:"type:varchar(255)"`
	Street2     string `gorm:"type:varchar(255)"`
	Street3     string `gorm:"type:varchar(255)"`
	City        string `gorm:"type:varchar(128)"`
	Region      string `gorm:"type:varchar(128)"`
	PostalCode  string `gorm:"type:varchar(32)"`
	CountryCode string `gorm:"type:varchar(2)"`
}

// TableName returns the table name for GORM
func (OrderAddressModel) TableName() string {
	return "sales_order_addresses"
}

// OrderAttributeModel is a named custom attribute of an order
type OrderAttributeModel struct {
	OrderID string `gorm:"type:varchar(64);primaryKey"`
	Code    string `gorm:"type:varchar(128);primaryKey"`
	Value   string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (OrderAttributeModel) TableName() string {
	return "sales_order_attributes"
}

// ToDomain converts the persistence model to a domain Order
func (m *SalesOrderModel) ToDomain() *integration.Order {
	order := &integration.Order{
		ID:             m.ID,
		Number:         m.Number,
		ScopeID:        m.ScopeID,
		Status:         m.Status,
		Currency:       m.Currency,
		CustomerID:     m.CustomerID,
		CustomerName:   m.CustomerName,
		CustomerEmail:  m.CustomerEmail,
		CustomerPhone:  m.CustomerPhone,
		ShippingMethod: m.ShippingMethod,
		PaidAmount:     m.PaidAmount,
		ShippingAmount: m.ShippingAmount,
		TaxAmount:      m.TaxAmount,
		GrandTotal:     m.GrandTotal,
		CustomerNote:   m.CustomerNote,
		PaidAt:         m.PaidAt,
		ShippedAt:      m.ShippedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		Items:          make([]integration.OrderItem, len(m.Items)),
	}

	for i, item := range m.Items {
		order.Items[i] = integration.OrderItem{
			ID:         item.ID,
			ProductID:  item.ProductID,
			SKU:        item.SKU,
			Name:       item.Name,
			QtyOrdered: item.QtyOrdered,
			QtyShipped: item.QtyShipped,
			Price:      item.Price,
		}
	}

	for _, addr := range m.Addresses {
		a := addr.toDomain()
		switch addr.Kind {
		case AddressKindBilling:
			order.BillingAddress = a
		case AddressKindShipping:
			order.ShippingAddress = a
		}
	}

	if len(m.Attributes) > 0 {
		order.Attributes = make(map[string]string, len(m.Attributes))
		for _, attr := range m.Attributes {
			order.Attributes[attr.Code] = attr.Value
		}
	}

	return order
}

// FromDomain populates the persistence model, including lines, addresses and
// attributes, from a domain Order
func (m *SalesOrderModel) FromDomain(o *integration.Order) {
	m.ID = o.ID
	m.Number = o.Number
	m.ScopeID = o.ScopeID
	m.Status = o.Status
	m.Currency = o.Currency
	m.CustomerID = o.CustomerID
	m.CustomerName = o.CustomerName
	m.CustomerEmail = o.CustomerEmail
	m.CustomerPhone = o.CustomerPhone
	m.ShippingMethod = o.ShippingMethod
	m.PaidAmount = o.PaidAmount
	m.ShippingAmount = o.ShippingAmount
	m.TaxAmount = o.TaxAmount
	m.GrandTotal = o.GrandTotal
	m.CustomerNote = o.CustomerNote
	m.PaidAt = o.PaidAt
	m.ShippedAt = o.ShippedAt
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt

	m.Items = make([]SalesOrderItemModel, len(o.Items))
	for i, item := range o.Items {
		m.Items[i] = SalesOrderItemModel{
			ID:         item.ID,
			OrderID:    o.ID,
			Position:   i,
			ProductID:  item.ProductID,
			SKU:        item.SKU,
			Name:       item.Name,
			QtyOrdered: item.QtyOrdered,
			QtyShipped: item.QtyShipped,
			Price:      item.Price,
		}
	}

	m.Addresses = nil
	if o.BillingAddress != nil {
		m.Addresses = append(m.Addresses, newOrderAddressModel(o.ID, AddressKindBilling, o.BillingAddress))
	}
	if o.ShippingAddress != nil {
		m.Addresses = append(m.Addresses, newOrderAddressModel(o.ID, AddressKindShipping, o.ShippingAddress))
	}

	m.Attributes = make([]OrderAttributeModel, 0, len(o.Attributes))
	for code, value := range o.Attributes {
		m.Attributes = append(m.Attributes, OrderAttributeModel{OrderID: o.ID, Code: code, Value: value})
	}
}

func newOrderAddressModel(orderID, kind string, a *integration.OrderAddress) OrderAddressModel {
	return OrderAddressModel{
		OrderID:     orderID,
		Kind:        kind,
		Name:        a.Name,
		Company:     a.Company,
		Phone:       a.Phone,
		Email:       a.Email,
		Street1:     a.Street1,
		Street2:     a.Street2,
		Street3:     a.Street3,
		City:        a.City,
		Region:      a.Region,
		PostalCode:  a.PostalCode,
		CountryCode: a.CountryCode,
	}
}

func (m OrderAddressModel) toDomain() *integration.OrderAddress {
	return &integration.OrderAddress{
		Name:        m.Name,
		Company:     m.Company,
		Phone:       m.Phone,
		Email:       m.Email,
		Street1:     m.Street1,
		Street2:     m.Street2,
		Street3:     m.Street3,
		City:        m.City,
		Region:      m.Region,
		PostalCode:  m.PostalCode,
		CountryCode: m.CountryCode,
	}
}

// ---------------------------------------------------------------------------
// Shipments
// ---------------------------------------------------------------------------

// ShipmentModel is a recorded shipment
type ShipmentModel struct {
	ID             string              `gorm:"type:varchar(64);primaryKey"`
	OrderID        string              `gorm:"type:varchar(64);not null;index"`
	NotificationID string              `gorm:"type:varchar(128);not null;uniqueIndex"`
	TrackingNumber string              `gorm:"type:varchar(128)"`
	TrackingURL    string              `gorm:"type:varchar(512)"`
	CarrierCode    string              `gorm:"type:varchar(64)"`
	ServiceCode    string              `gorm:"type:varchar(64)"`
	ShipDate       time.Time           `gorm:"not null"`
	Notes          string              `gorm:"type:text"`
	CreatedAt      time.Time           `gorm:"not null"`
	Items          []ShipmentItemModel `gorm:"foreignKey:ShipmentID"`
}

// TableName returns the table name for GORM
func (ShipmentModel) TableName() string {
	return "shipments"
}

// ShipmentItemModel is the quantity shipped for one order line
type ShipmentItemModel struct {
	ShipmentID  string          `gorm:"type:varchar(64);primaryKey"`
	OrderItemID string          `gorm:"type:varchar(64);primaryKey"`
	SKU         string          `gorm:"type:varchar(100)"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (ShipmentItemModel) TableName() string {
	return "shipment_items"
}

// ToDomain converts the persistence model to a domain Shipment
func (m *ShipmentModel) ToDomain() *integration.Shipment {
	shipment := &integration.Shipment{
		ID:             m.ID,
		OrderID:        m.OrderID,
		NotificationID: m.NotificationID,
		TrackingNumber: m.TrackingNumber,
		TrackingURL:    m.TrackingURL,
		CarrierCode:    m.CarrierCode,
		ServiceCode:    m.ServiceCode,
		ShipDate:       m.ShipDate,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
		Items:          make([]integration.ShipmentItem, len(m.Items)),
	}
	for i, item := range m.Items {
		shipment.Items[i] = integration.ShipmentItem{
			OrderItemID: item.OrderItemID,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
		}
	}
	return shipment
}

// FromDomain populates the persistence model from a domain Shipment
func (m *ShipmentModel) FromDomain(s *integration.Shipment) {
	m.ID = s.ID
	m.OrderID = s.OrderID
	m.NotificationID = s.NotificationID
	m.TrackingNumber = s.TrackingNumber
	m.TrackingURL = s.TrackingURL
	m.CarrierCode = s.CarrierCode
	m.ServiceCode = s.ServiceCode
	m.ShipDate = s.ShipDate
	m.Notes = s.Notes
	m.CreatedAt = s.CreatedAt
	m.Items = make([]ShipmentItemModel, len(s.Items))
	for i, item := range s.Items {
		m.Items[i] = ShipmentItemModel{
			ShipmentID:  s.ID,
			OrderItemID: item.OrderItemID,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
		}
	}
}

// AllModels lists every persistence model, in dependency order, for AutoMigrate in tests
func AllModels() []any {
	return []any{
		&ScopeModel{},
		&CredentialModel{},
		&LegacyUserModel{},
		&DeliveryOptionModel{},
		&ProductModel{},
		&SourceItemModel{},
		&SalesOrderModel{},
		&SalesOrderItemModel{},
		&OrderAddressModel{},
		&OrderAttributeModel{},
		&ShipmentModel{},
		&ShipmentItemModel{},
	}
}
