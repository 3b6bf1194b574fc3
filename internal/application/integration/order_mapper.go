package integration

import (
	"github.com/erp/ordersource/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Conversion functions
// ---------------------------------------------------------------------------

// ToSalesOrder converts a commerce order into its exported form
func ToSalesOrder(o *integration.Order, mappings *integration.SalesOrderFieldMappings) integration.SalesOrder {
	items := make([]integration.SalesOrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, integration.SalesOrderItem{
			LineItemID:  item.ID,
			Description: item.Name,
			Product: &integration.SalesOrderProduct{
				ProductID:   item.ProductID,
				Name:        item.Name,
				Identifiers: &integration.ProductIdentifiers{SKU: item.SKU},
			},
			Quantity:  int(item.QtyOrdered.IntPart()),
			UnitPrice: item.Price.InexactFloat64(),
		})
	}

	fulfillment := integration.RequestedFulfillment{
		ShipTo:     toAddress(o.ShippingAddress),
		Items:      items,
		Extensions: toExtensions(o.Attributes, mappings),
	}
	if o.ShippingMethod != "" {
		fulfillment.ShippingPreferences = &integration.ShippingPreferences{ShippingService: o.ShippingMethod}
	}

	so := integration.SalesOrder{
		OrderID:     o.ID,
		OrderNumber: o.Number,
		Status:      o.Status.SalesOrderStatus(),
		PaidDate:    o.PaidAt,
		Buyer: &integration.Buyer{
			BuyerID: optional(o.CustomerID),
			Name:    o.CustomerName,
			Email:   optional(o.CustomerEmail),
			Phone:   optional(o.CustomerPhone),
		},
		BillTo:   toAddress(o.BillingAddress),
		Currency: o.Currency,
		Payment: &integration.Payment{
			PaymentStatus:  paymentStatus(o),
			AmountPaid:     o.PaidAmount.InexactFloat64(),
			ShippingCharge: o.ShippingAmount.InexactFloat64(),
			TaxAmount:      o.TaxAmount.InexactFloat64(),
		},
		RequestedFulfillments: []integration.RequestedFulfillment{fulfillment},
		CreatedDateTime:       o.CreatedAt.UTC(),
		ModifiedDateTime:      o.UpdatedAt.UTC(),
	}
	if so.Status == integration.SalesOrderStatusCompleted {
		so.FulfilledDate = o.ShippedAt
	}
	if o.CustomerNote != "" {
		so.Notes = []integration.Note{{Type: "NotesFromBuyer", Text: o.CustomerNote}}
	}
	return so
}

func paymentStatus(o *integration.Order) string {
	switch {
	case o.PaidAt != nil || (o.PaidAmount.IsPositive() && o.PaidAmount.GreaterThanOrEqual(o.GrandTotal)):
		return "Paid"
	case o.Status == integration.OrderStatusCanceled:
		return "Cancelled"
	default:
		return "AwaitingPayment"
	}
}

func toAddress(a *integration.OrderAddress) *integration.Address {
	if a == nil {
		return nil
	}
	return &integration.Address{
		Name:          a.Name,
		Company:       optional(a.Company),
		Phone:         optional(a.Phone),
		Email:         optional(a.Email),
		AddressLine1:  a.Street1,
		AddressLine2:  optional(a.Street2),
		AddressLine3:  optional(a.Street3),
		CityLocality:  a.City,
		StateProvince: a.Region,
		PostalCode:    a.PostalCode,
		CountryCode:   a.CountryCode,
	}
}

// toExtensions copies the order attributes named by the mappings into the
// custom fields. Unmapped or missing attributes stay nil.
func toExtensions(attrs map[string]string, mappings *integration.SalesOrderFieldMappings) *integration.FulfillmentExtensions {
	if mappings == nil {
		return nil
	}
	lookup := func(name *string) *string {
		if name == nil || *name == "" {
			return nil
		}
		v, ok := attrs[*name]
		if !ok {
			return nil
		}
		return &v
	}
	ext := &integration.FulfillmentExtensions{
		CustomField1: lookup(mappings.CustomField1),
		CustomField2: lookup(mappings.CustomField2),
		CustomField3: lookup(mappings.CustomField3),
	}
	if ext.CustomField1 == nil && ext.CustomField2 == nil && ext.CustomField3 == nil {
		return nil
	}
	return ext
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
