package integration

import (
	"errors"

	"github.com/erp/ordersource/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Request-level errors (abort the whole request)
// ---------------------------------------------------------------------------

var (
	// ErrMalformedPayload is returned when a request body is not a JSON object
	ErrMalformedPayload = shared.NewBadRequestError("Request body must be a JSON object")
	// ErrUnauthorized is returned when no scope credential matches the presented token
	ErrUnauthorized = shared.NewDomainError(shared.CodeUnauthorized, "Unauthorized")
	// ErrCursorInvalid is wrapped by DecodeCursor for a cursor with a negative page or page size
	ErrCursorInvalid = shared.NewBadRequestError("Invalid cursor")
	// ErrPageOutOfRange is wrapped by Cursor.ValidateWindow when a cursor points past the last page
	ErrPageOutOfRange = shared.NewBadRequestError("Requested page is out of range")
	// ErrScopeRequired is returned when a credential operation has no scope
	ErrScopeRequired = shared.NewBadRequestError("scope_id is required")
	// ErrScopeNotFound is returned when a credential operation names an unknown scope
	ErrScopeNotFound = shared.NewNotFoundError("Scope not found")
)

// ---------------------------------------------------------------------------
// Item-level errors (recorded per item, never escalate)
// ---------------------------------------------------------------------------

var (
	// ErrSourceItemNotFound is returned when no inventory record exists for a sku/source pair
	ErrSourceItemNotFound = shared.NewNotFoundError("Inventory source item not found")
	// ErrInventoryItemIDInvalid is returned when an integration_inventory_item_id cannot be decoded
	ErrInventoryItemIDInvalid = errors.New("integration: invalid integration_inventory_item_id")
	// ErrInventoryItemSKUMismatch is returned when the composite id and the item sku disagree
	ErrInventoryItemSKUMismatch = errors.New("integration: sku does not match integration_inventory_item_id")
	// ErrOrderNotFound is returned when a referenced sales order does not exist
	ErrOrderNotFound = shared.NewNotFoundError("Sales order not found")
	// ErrOrderNotShippable is returned when a shipment targets a cancelled or closed order
	ErrOrderNotShippable = errors.New("integration: order cannot be shipped in its current state")
	// ErrShipmentItemUnknown is returned when a notified item matches no order line
	ErrShipmentItemUnknown = errors.New("integration: shipment item does not match any order line")
	// ErrShipmentQuantityExceeded is returned when a notified quantity exceeds what is left to ship
	ErrShipmentQuantityExceeded = errors.New("integration: shipment quantity exceeds ordered quantity")
	// ErrDeliveryOptionNotFound is returned when removing an unknown delivery option
	ErrDeliveryOptionNotFound = shared.NewNotFoundError("Delivery option not found")
)
