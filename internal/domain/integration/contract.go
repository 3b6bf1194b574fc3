package integration

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/erp/ordersource/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Envelope
// ---------------------------------------------------------------------------

// Auth is the credential reference embedded in every request.
// The gateway authenticates with the Authorization header; these fields are
// decoded for correlation only.
type Auth struct {
	OrderSourceAPICode *string `json:"order_source_api_code,omitempty"`
	APIKey             *string `json:"api_key,omitempty"`
	AccessToken        *string `json:"access_token,omitempty"`
	URL                *string `json:"url,omitempty"`
}

// RequestBase holds the fields shared by every request envelope
type RequestBase struct {
	TransactionID *string `json:"transaction_id,omitempty"`
	Auth          *Auth   `json:"auth,omitempty"`
}

func (b *RequestBase) envelope() *RequestBase { return b }

// Envelope is implemented by every request type through RequestBase
type Envelope interface {
	envelope() *RequestBase
}

// DecodeRequest decodes a JSON body into a request envelope.
//   - an empty or null body is treated as {}
//   - unknown keys are ignored, missing keys stay nil
//   - nested objects are only allocated when present, except auth which is
//     always non-nil after decoding
//   - a body that is not a JSON object is a BAD_REQUEST
func DecodeRequest[T any, PT interface {
	*T
	Envelope
}](body []byte) (PT, error) {
	req := PT(new(T))

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}
	if trimmed[0] != '{' {
		return nil, ErrMalformedPayload
	}
	if err := json.Unmarshal(trimmed, req); err != nil {
		return nil, shared.NewBadRequestError("Malformed request body: " + err.Error())
	}

	base := req.envelope()
	if base.Auth == nil {
		base.Auth = &Auth{}
	}
	return req, nil
}

// ---------------------------------------------------------------------------
// Shared shapes
// ---------------------------------------------------------------------------

// Address is a postal address in the contract
type Address struct {
	Name          string  `json:"name,omitempty"`
	Company       *string `json:"company,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Email         *string `json:"email,omitempty"`
	AddressLine1  string  `json:"address_line_1,omitempty"`
	AddressLine2  *string `json:"address_line_2,omitempty"`
	AddressLine3  *string `json:"address_line_3,omitempty"`
	CityLocality  string  `json:"city_locality,omitempty"`
	StateProvince string  `json:"state_province,omitempty"`
	PostalCode    string  `json:"postal_code,omitempty"`
	CountryCode   string  `json:"country_code,omitempty"`
}

// ---------------------------------------------------------------------------
// Sales order export
// ---------------------------------------------------------------------------

// SalesOrderStatus is the order status vocabulary of the contract
type SalesOrderStatus string

const (
	SalesOrderStatusAwaitingPayment    SalesOrderStatus = "AwaitingPayment"
	SalesOrderStatusAwaitingShipment   SalesOrderStatus = "AwaitingShipment"
	SalesOrderStatusCancelled          SalesOrderStatus = "Cancelled"
	SalesOrderStatusCompleted          SalesOrderStatus = "Completed"
	SalesOrderStatusOnHold             SalesOrderStatus = "OnHold"
	SalesOrderStatusPendingFulfillment SalesOrderStatus = "PendingFulfillment"
)

// SalesOrdersExportRequest is the body of POST /orders/export
type SalesOrdersExportRequest struct {
	RequestBase
	Criteria                *SalesOrderCriteria      `json:"criteria,omitempty"`
	Cursor                  *string                  `json:"cursor,omitempty"`
	SalesOrderFieldMappings *SalesOrderFieldMappings `json:"sales_order_field_mappings,omitempty"`
}

// SalesOrderCriteria narrows the exported orders
type SalesOrderCriteria struct {
	FromDateTime  *time.Time `json:"from_date_time,omitempty"`
	ToDateTime    *time.Time `json:"to_date_time,omitempty"`
	SalesOrderIDs []string   `json:"sales_order_ids,omitempty"`
}

// SalesOrderFieldMappings names order attributes copied into custom fields
type SalesOrderFieldMappings struct {
	CustomField1 *string `json:"custom_field_1,omitempty"`
	CustomField2 *string `json:"custom_field_2,omitempty"`
	CustomField3 *string `json:"custom_field_3,omitempty"`
}

// SalesOrdersExportResponse is returned by POST /orders/export
type SalesOrdersExportResponse struct {
	SalesOrders []SalesOrder `json:"sales_orders"`
	Cursor      *string      `json:"cursor,omitempty"`
}

// SalesOrder is an exported order
type SalesOrder struct {
	OrderID               string                 `json:"order_id"`
	OrderNumber           string                 `json:"order_number,omitempty"`
	Status                SalesOrderStatus       `json:"status"`
	PaidDate              *time.Time             `json:"paid_date,omitempty"`
	FulfilledDate         *time.Time             `json:"fulfilled_date,omitempty"`
	Buyer                 *Buyer                 `json:"buyer,omitempty"`
	BillTo                *Address               `json:"bill_to,omitempty"`
	Currency              string                 `json:"currency,omitempty"`
	Payment               *Payment               `json:"payment,omitempty"`
	RequestedFulfillments []RequestedFulfillment `json:"requested_fulfillments"`
	Notes                 []Note                 `json:"notes,omitempty"`
	CreatedDateTime       time.Time              `json:"created_date_time"`
	ModifiedDateTime      time.Time              `json:"modified_date_time"`
}

// Buyer identifies the customer who placed the order
type Buyer struct {
	BuyerID *string `json:"buyer_id,omitempty"`
	Name    string  `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
}

// Payment summarizes what was charged
type Payment struct {
	PaymentStatus  string  `json:"payment_status"`
	AmountPaid     float64 `json:"amount_paid"`
	ShippingCharge float64 `json:"shipping_charge"`
	TaxAmount      float64 `json:"tax_amount"`
}

// Note is a free-text order note
type Note struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// RequestedFulfillment groups items shipped to one destination
type RequestedFulfillment struct {
	ShipTo              *Address               `json:"ship_to,omitempty"`
	Items               []SalesOrderItem       `json:"items"`
	ShippingPreferences *ShippingPreferences   `json:"shipping_preferences,omitempty"`
	Extensions          *FulfillmentExtensions `json:"extensions,omitempty"`
}

// ShippingPreferences carries the buyer-selected service
type ShippingPreferences struct {
	ShippingService string `json:"shipping_service,omitempty"`
}

// FulfillmentExtensions carries mapped custom fields
type FulfillmentExtensions struct {
	CustomField1 *string `json:"custom_field_1,omitempty"`
	CustomField2 *string `json:"custom_field_2,omitempty"`
	CustomField3 *string `json:"custom_field_3,omitempty"`
}

// SalesOrderItem is an exported order line
type SalesOrderItem struct {
	LineItemID  string             `json:"line_item_id"`
	Description string             `json:"description,omitempty"`
	Product     *SalesOrderProduct `json:"product,omitempty"`
	Quantity    int                `json:"quantity"`
	UnitPrice   float64            `json:"unit_price"`
}

// SalesOrderProduct identifies the product of an order line
type SalesOrderProduct struct {
	ProductID   string              `json:"product_id"`
	Name        string              `json:"name,omitempty"`
	Identifiers *ProductIdentifiers `json:"identifiers,omitempty"`
}

// ProductIdentifiers holds alternate product identifiers
type ProductIdentifiers struct {
	SKU string `json:"sku,omitempty"`
}

// ---------------------------------------------------------------------------
// Inventory fetch / push
// ---------------------------------------------------------------------------

// InventoryFetchRequest is the body of POST /inventory/fetch
type InventoryFetchRequest struct {
	RequestBase
	Cursor    *string                 `json:"cursor,omitempty"`
	Criteria  *InventoryFetchCriteria `json:"criteria,omitempty"`
	SinceDate *time.Time              `json:"since_date,omitempty"`
}

// InventoryFetchCriteria narrows the fetched products
type InventoryFetchCriteria struct {
	SKUs []string `json:"skus,omitempty"`
}

// InventoryFetchItem is one inventory row: a product at one source location
type InventoryFetchItem struct {
	SKU                        string    `json:"sku"`
	Name                       string    `json:"name,omitempty"`
	IntegrationInventoryItemID string    `json:"integration_inventory_item_id"`
	AvailableQuantity          int       `json:"available_quantity"`
	FetchedAt                  time.Time `json:"fetched_at"`
}

// InventoryFetchResponse is returned by POST /inventory/fetch
type InventoryFetchResponse struct {
	Items  []InventoryFetchItem `json:"items"`
	Cursor *string              `json:"cursor,omitempty"`
}

// InventoryPushRequest is the body of POST /inventory/push
type InventoryPushRequest struct {
	RequestBase
	Items  []InventoryPushItem `json:"items,omitempty"`
	Cursor *string             `json:"cursor,omitempty"`
}

// InventoryPushItem is one quantity update
type InventoryPushItem struct {
	SKU                        string `json:"sku" validate:"required"`
	IntegrationInventoryItemID string `json:"integration_inventory_item_id" validate:"required"`
	AvailableQuantity          int    `json:"available_quantity" validate:"gte=0"`
}

// InventoryItemError reports one failed push item
type InventoryItemError struct {
	SKU                        string        `json:"sku"`
	IntegrationInventoryItemID string        `json:"integration_inventory_item_id"`
	Message                    string        `json:"message"`
	Category                   ErrorCategory `json:"category,omitempty"`
}

// InventoryPushResponse is returned by POST /inventory/push
type InventoryPushResponse struct {
	Errors  []InventoryItemError `json:"errors"`
	Message *string              `json:"message,omitempty"`
	Cursor  *string              `json:"cursor,omitempty"`
}

// ---------------------------------------------------------------------------
// Shipment notification
// ---------------------------------------------------------------------------

// NotificationStatus is the outcome of one shipment notification
type NotificationStatus string

const (
	NotificationStatusSuccess NotificationStatus = "success"
	NotificationStatusFailure NotificationStatus = "failure"
)

// ShipmentNotificationRequest is the body of POST /shipments/notify
type ShipmentNotificationRequest struct {
	RequestBase
	Notifications []ShipmentNotification `json:"notifications,omitempty"`
}

// ShipmentNotification tells the merchant that an order (or part of it) shipped
type ShipmentNotification struct {
	NotificationID     string                     `json:"notification_id" validate:"required"`
	OrderID            string                     `json:"order_id" validate:"required"`
	OrderNumber        *string                    `json:"order_number,omitempty"`
	TrackingNumber     string                     `json:"tracking_number,omitempty"`
	TrackingURL        *string                    `json:"tracking_url,omitempty"`
	CarrierCode        string                     `json:"carrier_code,omitempty"`
	CarrierServiceCode *string                    `json:"carrier_service_code,omitempty"`
	ExtLocationID      *string                    `json:"ext_location_id,omitempty"`
	Items              []ShipmentNotificationItem `json:"items,omitempty" validate:"dive"`
	NotifyBuyer        *bool                      `json:"notify_buyer,omitempty"`
	ShipDate           *time.Time                 `json:"ship_date,omitempty"`
	Notes              *string                    `json:"notes,omitempty"`
}

// ShipmentNotificationItem is one shipped line
type ShipmentNotificationItem struct {
	LineItemID  *string `json:"line_item_id,omitempty"`
	SKU         *string `json:"sku,omitempty"`
	ProductID   *string `json:"product_id,omitempty"`
	Description *string `json:"description,omitempty"`
	Quantity    int     `json:"quantity" validate:"gt=0"`
}

// ShipmentNotificationResult is the per-notification outcome
type ShipmentNotificationResult struct {
	NotificationID string             `json:"notification_id"`
	Status         NotificationStatus `json:"status"`
	Succeeded      bool               `json:"succeeded"`
	ConfirmationID *string            `json:"confirmation_id,omitempty"`
	FailureReason  *string            `json:"failure_reason,omitempty"`
}

// ShipmentNotificationResponse is returned by POST /shipments/notify
type ShipmentNotificationResponse struct {
	NotificationResults []ShipmentNotificationResult `json:"notification_results"`
}

// ---------------------------------------------------------------------------
// Delivery options
// ---------------------------------------------------------------------------

// DeliveryOption is a shipping choice offered to buyers at checkout
type DeliveryOption struct {
	DeliveryOptionID      string   `json:"delivery_option_id" validate:"required,max=64"`
	Name                  string   `json:"name" validate:"required,max=255"`
	Description           *string  `json:"description,omitempty"`
	CarrierCode           string   `json:"carrier_code" validate:"required"`
	ServiceCode           string   `json:"service_code" validate:"required"`
	Price                 *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Currency              *string  `json:"currency,omitempty" validate:"omitempty,len=3"`
	EstimatedDeliveryDays *int     `json:"estimated_delivery_days,omitempty" validate:"omitempty,gte=0"`
}

// DeliveryOptionError reports one failed delivery option
type DeliveryOptionError struct {
	DeliveryOptionID string        `json:"delivery_option_id"`
	Message          string        `json:"message"`
	Category         ErrorCategory `json:"category,omitempty"`
}

// RegisterDeliveryOptionsRequest is the body of POST /delivery-options/register
type RegisterDeliveryOptionsRequest struct {
	RequestBase
	DeliveryOptions []DeliveryOption `json:"delivery_options,omitempty"`
}

// RegisterDeliveryOptionsResponse is returned by POST /delivery-options/register
type RegisterDeliveryOptionsResponse struct {
	DeliveryOptions []DeliveryOption      `json:"delivery_options"`
	Errors          []DeliveryOptionError `json:"errors"`
}

// RemoveDeliveryOptionsRequest is the body of POST /delivery-options/remove
type RemoveDeliveryOptionsRequest struct {
	RequestBase
	DeliveryOptionIDs []string `json:"delivery_option_ids,omitempty"`
}

// RemoveDeliveryOptionsResponse is returned by POST /delivery-options/remove
type RemoveDeliveryOptionsResponse struct {
	Removed []string              `json:"removed"`
	Errors  []DeliveryOptionError `json:"errors"`
}
