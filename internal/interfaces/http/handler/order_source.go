package handler

import (
	"context"

	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Operation names used for spans
const (
	opOrdersExport           = "orders_export"
	opInventoryFetch         = "inventory_fetch"
	opInventoryPush          = "inventory_push"
	opShipmentsNotify        = "shipments_notify"
	opDeliveryOptionRegister = "delivery_options_register"
	opDeliveryOptionRemove   = "delivery_options_remove"
)

// OrderExporter exports sales orders page by page
type OrderExporter interface {
	Export(ctx context.Context, req *integration.SalesOrdersExportRequest) (*integration.SalesOrdersExportResponse, error)
}

// InventoryReconciler reads and writes per-source stock
type InventoryReconciler interface {
	Fetch(ctx context.Context, req *integration.InventoryFetchRequest) (*integration.InventoryFetchResponse, error)
	Push(ctx context.Context, req *integration.InventoryPushRequest) (*integration.InventoryPushResponse, error)
}

// ShipmentNotifier records shipments reported by the order source
type ShipmentNotifier interface {
	Notify(ctx context.Context, req *integration.ShipmentNotificationRequest) (*integration.ShipmentNotificationResponse, error)
}

// DeliveryOptionManager maintains the checkout delivery options of a scope
type DeliveryOptionManager interface {
	Register(ctx context.Context, req *integration.RegisterDeliveryOptionsRequest) (*integration.RegisterDeliveryOptionsResponse, error)
	Remove(ctx context.Context, req *integration.RemoveDeliveryOptionsRequest) (*integration.RemoveDeliveryOptionsResponse, error)
}

// OrderSourceServices bundles the services behind the order source endpoints
type OrderSourceServices struct {
	Orders          OrderExporter
	Inventory       InventoryReconciler
	Shipments       ShipmentNotifier
	DeliveryOptions DeliveryOptionManager
}

// OrderSourceHandler serves the authenticated order source operations.
// Every endpoint takes a JSON envelope and answers with the success or
// failure envelope; per-item failures are part of a 200 response.
type OrderSourceHandler struct {
	BaseHandler
	services OrderSourceServices
}

// NewOrderSourceHandler creates a new OrderSourceHandler
func NewOrderSourceHandler(services OrderSourceServices, logger *zap.Logger) *OrderSourceHandler {
	return &OrderSourceHandler{
		BaseHandler: newBaseHandler(logger),
		services:    services,
	}
}

// ExportSalesOrders handles POST /orders/export
func (h *OrderSourceHandler) ExportSalesOrders(c *gin.Context) {
	dispatch(&h.BaseHandler, c, opOrdersExport, h.services.Orders.Export)
}

// FetchInventory handles POST /inventory/fetch
func (h *OrderSourceHandler) FetchInventory(c *gin.Context) {
	dispatch(&h.BaseHandler, c, opInventoryFetch, h.services.Inventory.Fetch)
}

// PushInventory handles POST /inventory/push
func (h *OrderSourceHandler) PushInventory(c *gin.Context) {
	dispatch(&h.BaseHandler, c, opInventoryPush, h.services.Inventory.Push)
}

// NotifyShipments handles POST /shipments/notify
func (h *OrderSourceHandler) NotifyShipments(c *gin.Context) {
	dispatch(&h.BaseHandler, c, opShipmentsNotify, h.services.Shipments.Notify)
}

// RegisterDeliveryOptions handles POST /delivery-options/register
func (h *OrderSourceHandler) RegisterDeliveryOptions(c *gin.Context) {
	dispatch(&h.BaseHandler, c, opDeliveryOptionRegister, h.services.DeliveryOptions.Register)
}

// RemoveDeliveryOptions handles POST /delivery-options/remove
func (h *OrderSourceHandler) RemoveDeliveryOptions(c *gin.Context) {
	dispatch(&h.BaseHandler, c, opDeliveryOptionRemove, h.services.DeliveryOptions.Remove)
}
