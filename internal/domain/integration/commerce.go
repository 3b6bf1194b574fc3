package integration

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Catalog & inventory
// ---------------------------------------------------------------------------

// Product is a catalog entry
type Product struct {
	ID        string
	SKU       string
	Name      string
	UpdatedAt time.Time
}

// ProductFilter narrows a catalog query. Zero values match everything.
type ProductFilter struct {
	SKUs         []string
	UpdatedSince *time.Time
}

// CommerceCatalog pages over catalog products.
// Query returns one page of products ordered by id, plus the total match count.
type CommerceCatalog interface {
	Query(ctx context.Context, filter ProductFilter, page, pageSize int) ([]Product, int64, error)
}

// SourceItem is the stock of one sku at one source location
type SourceItem struct {
	SKU        string
	SourceCode string
	Quantity   decimal.Decimal
	InStock    bool
	UpdatedAt  time.Time
}

// SetQuantity updates the quantity and derives the stock flag from it
func (s *SourceItem) SetQuantity(qty decimal.Decimal) {
	s.Quantity = qty
	s.InStock = qty.IsPositive()
}

// ItemID returns the composite inventory id of the record
func (s SourceItem) ItemID() InventoryItemID {
	return InventoryItemID{SKU: s.SKU, Source: s.SourceCode}
}

// InventorySource reads and writes per-source stock records
type InventorySource interface {
	GetBySKU(ctx context.Context, sku string) ([]SourceItem, error)
	Save(ctx context.Context, items []SourceItem) error
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// OrderStatus is the commerce-side order state
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusHolded         OrderStatus = "holded"
	OrderStatusComplete       OrderStatus = "complete"
	OrderStatusClosed         OrderStatus = "closed"
	OrderStatusCanceled       OrderStatus = "canceled"
)

// IsValid returns true if the status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPendingPayment, OrderStatusProcessing,
		OrderStatusHolded, OrderStatusComplete, OrderStatusClosed, OrderStatusCanceled:
		return true
	default:
		return false
	}
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// SalesOrderStatus maps the commerce state to the contract vocabulary
func (s OrderStatus) SalesOrderStatus() SalesOrderStatus {
	switch s {
	case OrderStatusPending, OrderStatusPendingPayment:
		return SalesOrderStatusAwaitingPayment
	case OrderStatusProcessing:
		return SalesOrderStatusAwaitingShipment
	case OrderStatusHolded:
		return SalesOrderStatusOnHold
	case OrderStatusComplete, OrderStatusClosed:
		return SalesOrderStatusCompleted
	case OrderStatusCanceled:
		return SalesOrderStatusCancelled
	default:
		return SalesOrderStatusPendingFulfillment
	}
}

// Shippable reports whether shipments may still be recorded against the order
func (s OrderStatus) Shippable() bool {
	switch s {
	case OrderStatusCanceled, OrderStatusClosed, OrderStatusHolded:
		return false
	default:
		return true
	}
}

// OrderAddress is a billing or shipping address
type OrderAddress struct {
	Name        string
	Company     string
	Phone       string
	Email       string
	Street1     string
	Street2     string
	Street3     string
	City        string
	Region      string
	PostalCode  string
	CountryCode string
}

// Order is a commerce sales order
type Order struct {
	ID              string
	Number          string
	ScopeID         string
	Status          OrderStatus
	Currency        string
	CustomerID      string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	BillingAddress  *OrderAddress
	ShippingAddress *OrderAddress
	ShippingMethod  string
	PaidAmount      decimal.Decimal
	ShippingAmount  decimal.Decimal
	TaxAmount       decimal.Decimal
	GrandTotal      decimal.Decimal
	CustomerNote    string
	Attributes      map[string]string
	Items           []OrderItem
	PaidAt          *time.Time
	ShippedAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem is one order line
type OrderItem struct {
	ID         string
	ProductID  string
	SKU        string
	Name       string
	QtyOrdered decimal.Decimal
	QtyShipped decimal.Decimal
	Price      decimal.Decimal
}

// QtyRemaining returns how much of the line is still unshipped
func (i OrderItem) QtyRemaining() decimal.Decimal {
	remaining := i.QtyOrdered.Sub(i.QtyShipped)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// FullyShipped returns true if every line has shipped
func (o *Order) FullyShipped() bool {
	for _, item := range o.Items {
		if item.QtyRemaining().IsPositive() {
			return false
		}
	}
	return true
}

// FindItem returns the line matching the line id when one is given.
// The sku is consulted only when the line id is empty, so an unmatched
// line id yields nil even if the sku names an existing line.
func (o *Order) FindItem(lineItemID, sku string) *OrderItem {
	if lineItemID != "" {
		for i := range o.Items {
			if o.Items[i].ID == lineItemID {
				return &o.Items[i]
			}
		}
		return nil
	}
	if sku != "" {
		for i := range o.Items {
			if o.Items[i].SKU == sku {
				return &o.Items[i]
			}
		}
	}
	return nil
}

// ApplyShipment adds the shipped quantities to the order lines and advances
// the status: complete once every line has shipped, processing otherwise.
func (o *Order) ApplyShipment(shipment *Shipment) {
	for _, shipped := range shipment.Items {
		for i := range o.Items {
			if o.Items[i].ID == shipped.OrderItemID {
				o.Items[i].QtyShipped = o.Items[i].QtyShipped.Add(shipped.Quantity)
			}
		}
	}
	shipDate := shipment.ShipDate
	o.ShippedAt = &shipDate
	if o.FullyShipped() {
		o.Status = OrderStatusComplete
	} else {
		o.Status = OrderStatusProcessing
	}
}

// OrderFilter narrows an order query. Zero values match everything.
type OrderFilter struct {
	ModifiedFrom *time.Time
	ModifiedTo   *time.Time
	IDs          []string
}

// OrderRepository reads sales orders.
// Get and GetByNumber return shared.ErrNotFound (wrapped) for unknown orders.
// Query returns one page ordered by modification time, plus the total match count.
type OrderRepository interface {
	Get(ctx context.Context, id string) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	Query(ctx context.Context, filter OrderFilter, page, pageSize int) ([]Order, int64, error)
}

// ---------------------------------------------------------------------------
// Shipments
// ---------------------------------------------------------------------------

// Shipment records a shipped (part of an) order
type Shipment struct {
	ID             string
	OrderID        string
	NotificationID string
	TrackingNumber string
	TrackingURL    string
	CarrierCode    string
	ServiceCode    string
	ShipDate       time.Time
	Notes          string
	Items          []ShipmentItem
	CreatedAt      time.Time
}

// ShipmentItem is the quantity shipped for one order line
type ShipmentItem struct {
	OrderItemID string
	SKU         string
	Quantity    decimal.Decimal
}

// ShipmentRepository persists shipments.
// Create stores the shipment together with the order's shipped quantities,
// status and shipped date in one transaction.
// FindByNotificationID returns shared.ErrNotFound (wrapped) when absent.
type ShipmentRepository interface {
	Create(ctx context.Context, shipment *Shipment, order *Order) error
	FindByNotificationID(ctx context.Context, notificationID string) (*Shipment, error)
}

// ---------------------------------------------------------------------------
// Delivery options
// ---------------------------------------------------------------------------

// DeliveryOptionRecord is a stored delivery option of one scope
type DeliveryOptionRecord struct {
	ScopeID               string
	ID                    string
	Name                  string
	Description           string
	CarrierCode           string
	ServiceCode           string
	Price                 *decimal.Decimal
	Currency              string
	EstimatedDeliveryDays *int
	UpdatedAt             time.Time
}

// DeliveryOptionRepository persists delivery options per scope.
// Save upserts by (scope, id). Delete returns ErrDeliveryOptionNotFound for unknown ids.
type DeliveryOptionRepository interface {
	Save(ctx context.Context, option *DeliveryOptionRecord) error
	Delete(ctx context.Context, scopeID, id string) error
	Exists(ctx context.Context, scopeID, id string) (bool, error)
}
