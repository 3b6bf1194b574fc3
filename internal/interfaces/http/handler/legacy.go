package handler

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	appintegration "github.com/erp/ordersource/internal/application/integration"
	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/erp/ordersource/internal/domain/shared"
	"github.com/erp/ordersource/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Legacy actions
const (
	LegacyActionExport     = "export"
	LegacyActionShipNotify = "shipnotify"
)

// legacyDateLayouts are the accepted start_date/end_date formats, tried in order
var legacyDateLayouts = []string{
	"01/02/2006 15:04",
	"01/02/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// LegacyOrderPager returns one page of orders for the XML export
type LegacyOrderPager interface {
	ExportPage(ctx context.Context, filter integration.OrderFilter, cursor integration.Cursor, mappings *integration.SalesOrderFieldMappings) (*appintegration.ExportPage, error)
}

// LegacyShipmentNotifier records a shipment for an order number
type LegacyShipmentNotifier interface {
	NotifyByOrderNumber(ctx context.Context, orderNumber string, n integration.ShipmentNotification) (integration.ShipmentNotificationResult, error)
}

// LegacyHandler serves the XML endpoint used by older shipping integrations
type LegacyHandler struct {
	BaseHandler
	orders    LegacyOrderPager
	shipments LegacyShipmentNotifier
	pageSize  int
}

// NewLegacyHandler creates a new LegacyHandler
func NewLegacyHandler(orders LegacyOrderPager, shipments LegacyShipmentNotifier, logger *zap.Logger) *LegacyHandler {
	return &LegacyHandler{
		BaseHandler: newBaseHandler(logger),
		orders:      orders,
		shipments:   shipments,
		pageSize:    integration.DefaultPageSize,
	}
}

// xmlOrders is the export document
type xmlOrders struct {
	XMLName xml.Name   `xml:"Orders"`
	Pages   int        `xml:"pages,attr"`
	Orders  []xmlOrder `xml:"Order"`
}

type xmlOrder struct {
	OrderID        string      `xml:"OrderID"`
	OrderNumber    string      `xml:"OrderNumber"`
	OrderDate      string      `xml:"OrderDate"`
	OrderStatus    string      `xml:"OrderStatus"`
	LastModified   string      `xml:"LastModified"`
	PaymentDate    string      `xml:"PaymentDate,omitempty"`
	ShippingMethod string      `xml:"ShippingMethod,omitempty"`
	CurrencyCode   string      `xml:"CurrencyCode,omitempty"`
	OrderTotal     string      `xml:"OrderTotal"`
	TaxAmount      string      `xml:"TaxAmount"`
	ShippingAmount string      `xml:"ShippingAmount"`
	CustomField1   string      `xml:"CustomField1,omitempty"`
	CustomField2   string      `xml:"CustomField2,omitempty"`
	CustomField3   string      `xml:"CustomField3,omitempty"`
	Customer       xmlCustomer `xml:"Customer"`
	Items          []xmlItem   `xml:"Items>Item"`
}

type xmlCustomer struct {
	CustomerCode string      `xml:"CustomerCode"`
	BillTo       *xmlAddress `xml:"BillTo,omitempty"`
	ShipTo       *xmlAddress `xml:"ShipTo,omitempty"`
}

type xmlAddress struct {
	Name       string `xml:"Name"`
	Company    string `xml:"Company,omitempty"`
	Phone      string `xml:"Phone,omitempty"`
	Email      string `xml:"Email,omitempty"`
	Address1   string `xml:"Address1,omitempty"`
	Address2   string `xml:"Address2,omitempty"`
	City       string `xml:"City,omitempty"`
	State      string `xml:"State,omitempty"`
	PostalCode string `xml:"PostalCode,omitempty"`
	Country    string `xml:"Country,omitempty"`
}

type xmlItem struct {
	LineItemID string `xml:"LineItemID"`
	SKU        string `xml:"SKU"`
	Name       string `xml:"Name"`
	Quantity   int    `xml:"Quantity"`
	UnitPrice  string `xml:"UnitPrice"`
}

type xmlShipNotifyResult struct {
	XMLName        xml.Name `xml:"response"`
	Status         string   `xml:"status"`
	NotificationID string   `xml:"notification_id"`
	ConfirmationID string   `xml:"confirmation_id,omitempty"`
}

type xmlFault struct {
	XMLName     xml.Name `xml:"fault"`
	FaultCode   int      `xml:"faultcode"`
	FaultString string   `xml:"faultstring"`
}

// Handle serves GET/POST /legacy/orders?action=export|shipnotify
func (h *LegacyHandler) Handle(c *gin.Context) {
	switch strings.ToLower(c.Query("action")) {
	case LegacyActionExport:
		h.export(c)
	case LegacyActionShipNotify:
		h.shipNotify(c)
	default:
		WriteFault(c, http.StatusBadRequest, "Unknown action")
	}
}

func (h *LegacyHandler) export(c *gin.Context) {
	filter := integration.OrderFilter{}
	for _, p := range []struct {
		param  string
		target **time.Time
	}{
		{param: "start_date", target: &filter.ModifiedFrom},
		{param: "end_date", target: &filter.ModifiedTo},
	} {
		raw := c.Query(p.param)
		if raw == "" {
			continue
		}
		t, err := parseLegacyDate(raw)
		if err != nil {
			WriteFault(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s: %s", p.param, raw))
			return
		}
		*p.target = &t
	}

	cursor := integration.Cursor{Page: integration.DefaultPage, PageSize: h.pageSize}
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			WriteFault(c, http.StatusBadRequest, "Invalid page: "+raw)
			return
		}
		cursor.Page = page
	}

	page, err := h.orders.ExportPage(c.Request.Context(), filter, cursor, nil)
	if err != nil {
		h.legacyError(c, err)
		return
	}

	doc := xmlOrders{Pages: page.Cursor.TotalPages, Orders: make([]xmlOrder, 0, len(page.SalesOrders))}
	for i := range page.SalesOrders {
		doc.Orders = append(doc.Orders, toXMLOrder(&page.SalesOrders[i]))
	}
	writeXML(c, http.StatusOK, doc)
}

func (h *LegacyHandler) shipNotify(c *gin.Context) {
	orderNumber := c.Query("order_number")
	if orderNumber == "" {
		WriteFault(c, http.StatusBadRequest, "order_number is required")
		return
	}

	n := integration.ShipmentNotification{
		TrackingNumber: c.Query("tracking_number"),
		CarrierCode:    c.Query("carrier"),
	}
	if service := c.Query("service"); service != "" {
		n.CarrierServiceCode = &service
	}

	result, err := h.shipments.NotifyByOrderNumber(c.Request.Context(), orderNumber, n)
	if err != nil {
		h.legacyError(c, err)
		return
	}
	if !result.Succeeded {
		reason := "Shipment notification failed"
		if result.FailureReason != nil {
			reason = *result.FailureReason
		}
		status := http.StatusBadRequest
		if reason == integration.ErrOrderNotFound.Message {
			status = http.StatusNotFound
		}
		WriteFault(c, status, reason)
		return
	}

	resp := xmlShipNotifyResult{Status: string(result.Status), NotificationID: result.NotificationID}
	if result.ConfirmationID != nil {
		resp.ConfirmationID = *result.ConfirmationID
	}
	writeXML(c, http.StatusOK, resp)
}

func (h *LegacyHandler) legacyError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		WriteFault(c, dto.GetHTTPStatus(domainErr.Code), domainErr.Message)
		return
	}
	h.requestLogger(c).Error("Legacy request failed", zap.Error(err))
	WriteFault(c, http.StatusInternalServerError, genericFailureMessage)
}

// WriteFault renders an XML fault. It matches the OnFailure signature of
// middleware.LegacyAuth so authentication failures look the same.
func WriteFault(c *gin.Context, status int, message string) {
	writeXML(c, status, xmlFault{FaultCode: status, FaultString: message})
	c.Abort()
}

func writeXML(c *gin.Context, status int, v any) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		c.Data(http.StatusInternalServerError, "application/xml; charset=utf-8",
			[]byte(xml.Header+"<fault><faultcode>500</faultcode><faultstring>Internal server error</faultstring></fault>"))
		return
	}
	c.Data(status, "application/xml; charset=utf-8", append([]byte(xml.Header), body...))
}

func parseLegacyDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range legacyDateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func toXMLOrder(o *integration.SalesOrder) xmlOrder {
	out := xmlOrder{
		OrderID:        o.OrderID,
		OrderNumber:    o.OrderNumber,
		OrderDate:      legacyTime(o.CreatedDateTime),
		OrderStatus:    string(o.Status),
		LastModified:   legacyTime(o.ModifiedDateTime),
		CurrencyCode:   o.Currency,
		OrderTotal:     "0.00",
		TaxAmount:      "0.00",
		ShippingAmount: "0.00",
	}
	if o.PaidDate != nil {
		out.PaymentDate = legacyTime(*o.PaidDate)
	}
	if o.Payment != nil {
		out.OrderTotal = money(o.Payment.AmountPaid)
		out.TaxAmount = money(o.Payment.TaxAmount)
		out.ShippingAmount = money(o.Payment.ShippingCharge)
	}
	if o.Buyer != nil {
		out.Customer.CustomerCode = o.Buyer.Name
		if o.Buyer.Email != nil {
			out.Customer.CustomerCode = *o.Buyer.Email
		}
	}
	out.Customer.BillTo = toXMLAddress(o.BillTo)

	for _, f := range o.RequestedFulfillments {
		if out.Customer.ShipTo == nil {
			out.Customer.ShipTo = toXMLAddress(f.ShipTo)
		}
		if f.ShippingPreferences != nil && out.ShippingMethod == "" {
			out.ShippingMethod = f.ShippingPreferences.ShippingService
		}
		if f.Extensions != nil {
			out.CustomField1 = deref(f.Extensions.CustomField1)
			out.CustomField2 = deref(f.Extensions.CustomField2)
			out.CustomField3 = deref(f.Extensions.CustomField3)
		}
		for _, item := range f.Items {
			x := xmlItem{
				LineItemID: item.LineItemID,
				Name:       item.Description,
				Quantity:   item.Quantity,
				UnitPrice:  money(item.UnitPrice),
			}
			if item.Product != nil {
				if x.Name == "" {
					x.Name = item.Product.Name
				}
				if item.Product.Identifiers != nil {
					x.SKU = item.Product.Identifiers.SKU
				}
			}
			out.Items = append(out.Items, x)
		}
	}
	return out
}

func toXMLAddress(a *integration.Address) *xmlAddress {
	if a == nil {
		return nil
	}
	return &xmlAddress{
		Name:       a.Name,
		Company:    deref(a.Company),
		Phone:      deref(a.Phone),
		Email:      deref(a.Email),
		Address1:   a.AddressLine1,
		Address2:   deref(a.AddressLine2),
		City:       a.CityLocality,
		State:      a.StateProvince,
		PostalCode: a.PostalCode,
		Country:    a.CountryCode,
	}
}

func legacyTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("01/02/2006 15:04")
}

// money renders an amount with two decimals, rounding half away from zero
// on the shortest decimal form of v.
func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
