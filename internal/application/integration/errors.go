package integration

import (
	"errors"

	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/erp/ordersource/internal/domain/shared"
)

// callerVisibleErrors are item errors whose text is safe to return as-is
var callerVisibleErrors = []error{
	ErrItemValidation,
	integration.ErrInventoryItemIDInvalid,
	integration.ErrInventoryItemSKUMismatch,
	integration.ErrOrderNotShippable,
	integration.ErrShipmentItemUnknown,
	integration.ErrShipmentQuantityExceeded,
}

// itemErrorMessage returns the message reported for a failed batch item.
// Domain errors keep their message; anything unclassified becomes fallback.
func itemErrorMessage(err error, fallback string) string {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	for _, known := range callerVisibleErrors {
		if errors.Is(err, known) {
			return err.Error()
		}
	}
	return fallback
}
