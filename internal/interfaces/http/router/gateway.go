package router

import (
	"github.com/erp/ordersource/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// OrderSourcePrefix is the path of the order source API below /api/v1
const OrderSourcePrefix = "/order-source"

// GatewayHandlers bundles the handlers mounted under the order source prefix.
// Legacy may be nil when the XML endpoint is disabled.
type GatewayHandlers struct {
	OrderSource *handler.OrderSourceHandler
	Diagnostics *handler.DiagnosticsHandler
	Admin       *handler.AdminHandler
	Legacy      *handler.LegacyHandler
}

// GatewayAuth holds the authentication middleware of each route family
type GatewayAuth struct {
	APIKey   gin.HandlerFunc
	AdminJWT gin.HandlerFunc
	Legacy   gin.HandlerFunc
}

// NewOrderSourceRoutes builds the /order-source route table.
//
//	POST /orders/export, /inventory/fetch, /inventory/push, /shipments/notify,
//	     /delivery-options/register, /delivery-options/remove   (bearer token)
//	GET  /diagnostics/live, /diagnostics/version                (public)
//	POST /admin/apikey/generate                                 (admin JWT)
//	GET/POST /legacy/orders                                     (legacy credentials)
func NewOrderSourceRoutes(h GatewayHandlers, auth GatewayAuth) *DomainGroup {
	root := NewDomainGroup("order-source", OrderSourcePrefix)

	if h.OrderSource != nil {
		root.Group("orders", "/orders").Use(auth.APIKey).
			POST("/export", h.OrderSource.ExportSalesOrders)

		root.Group("inventory", "/inventory").Use(auth.APIKey).
			POST("/fetch", h.OrderSource.FetchInventory).
			POST("/push", h.OrderSource.PushInventory)

		root.Group("shipments", "/shipments").Use(auth.APIKey).
			POST("/notify", h.OrderSource.NotifyShipments)

		root.Group("delivery-options", "/delivery-options").Use(auth.APIKey).
			POST("/register", h.OrderSource.RegisterDeliveryOptions).
			POST("/remove", h.OrderSource.RemoveDeliveryOptions)
	}

	if h.Diagnostics != nil {
		root.Group("diagnostics", "/diagnostics").
			GET("/live", h.Diagnostics.Live).
			GET("/version", h.Diagnostics.Version)
	}

	if h.Admin != nil {
		root.Group("admin", "/admin").Use(auth.AdminJWT).
			POST("/apikey/generate", h.Admin.GenerateAPIKey)
	}

	if h.Legacy != nil {
		root.Group("legacy", "/legacy").Use(auth.Legacy).
			GET("/orders", h.Legacy.Handle).
			POST("/orders", h.Legacy.Handle)
	}

	return root
}
