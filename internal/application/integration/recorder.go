package integration

import (
	"github.com/erp/ordersource/internal/domain/integration"
)

// Operation names used when recording batch item outcomes
const (
	OperationInventoryPush          = "inventory_push"
	OperationShipmentNotify         = "shipment_notify"
	OperationDeliveryOptionRegister = "delivery_option_register"
	OperationDeliveryOptionRemove   = "delivery_option_remove"
)

// ItemRecorder observes per-item batch outcomes
type ItemRecorder interface {
	RecordItem(operation string, failed bool, category integration.ErrorCategory)
}

type nopRecorder struct{}

func (nopRecorder) RecordItem(string, bool, integration.ErrorCategory) {}

// NopItemRecorder returns an ItemRecorder that discards everything
func NopItemRecorder() ItemRecorder {
	return nopRecorder{}
}

func recordOutcomes[T, R any](rec ItemRecorder, operation string, outcomes []integration.Outcome[T, R]) {
	for _, o := range outcomes {
		if o.Failed() {
			rec.RecordItem(operation, true, integration.CategorizeError(o.Err))
			continue
		}
		rec.RecordItem(operation, false, "")
	}
}
