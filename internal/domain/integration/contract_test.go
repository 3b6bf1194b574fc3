package integration

import (
	"testing"

	"github.com/erp/ordersource/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequest(t *testing.T) {
	t.Run("Empty body yields nil fields and non-nil auth", func(t *testing.T) {
		for _, body := range []string{"", "  ", "null", "{}"} {
			req, err := DecodeRequest[SalesOrdersExportRequest]([]byte(body))
			require.NoError(t, err, body)
			assert.Nil(t, req.TransactionID)
			assert.Nil(t, req.Criteria)
			assert.Nil(t, req.Cursor)
			assert.Nil(t, req.SalesOrderFieldMappings)
			require.NotNil(t, req.Auth)
			assert.Nil(t, req.Auth.AccessToken)
		}
	})

	t.Run("Unknown keys are ignored", func(t *testing.T) {
		req, err := DecodeRequest[InventoryFetchRequest]([]byte(`{"foo":1,"cursor":"abc","bar":{"x":2}}`))
		require.NoError(t, err)
		require.NotNil(t, req.Cursor)
		assert.Equal(t, "abc", *req.Cursor)
		assert.Nil(t, req.Criteria)
	})

	t.Run("Nested objects decode when present", func(t *testing.T) {
		body := `{
			"transaction_id": "tx-1",
			"auth": {"order_source_api_code": "store", "access_token": "tok"},
			"criteria": {"from_date_time": "2024-01-01T00:00:00Z", "sales_order_ids": ["1", "2"]},
			"sales_order_field_mappings": {"custom_field_1": "gift_message"}
		}`
		req, err := DecodeRequest[SalesOrdersExportRequest]([]byte(body))
		require.NoError(t, err)
		assert.Equal(t, "tx-1", *req.TransactionID)
		assert.Equal(t, "tok", *req.Auth.AccessToken)
		require.NotNil(t, req.Criteria)
		require.NotNil(t, req.Criteria.FromDateTime)
		assert.Nil(t, req.Criteria.ToDateTime)
		assert.Equal(t, []string{"1", "2"}, req.Criteria.SalesOrderIDs)
		assert.Equal(t, "gift_message", *req.SalesOrderFieldMappings.CustomField1)
		assert.Nil(t, req.SalesOrderFieldMappings.CustomField2)
	})

	t.Run("Item lists decode", func(t *testing.T) {
		body := `{"items":[{"sku":"A","integration_inventory_item_id":"{}","available_quantity":3}]}`
		req, err := DecodeRequest[InventoryPushRequest]([]byte(body))
		require.NoError(t, err)
		require.Len(t, req.Items, 1)
		assert.Equal(t, 3, req.Items[0].AvailableQuantity)
	})

	t.Run("Missing item list stays nil", func(t *testing.T) {
		req, err := DecodeRequest[ShipmentNotificationRequest]([]byte(`{}`))
		require.NoError(t, err)
		assert.Nil(t, req.Notifications)
	})

	t.Run("Non-object bodies are bad requests", func(t *testing.T) {
		for _, body := range []string{`[1,2]`, `"text"`, `42`, `not json`} {
			_, err := DecodeRequest[InventoryPushRequest]([]byte(body))
			assert.ErrorIs(t, err, shared.ErrBadRequest, body)
		}
	})

	t.Run("Truncated object is a bad request", func(t *testing.T) {
		_, err := DecodeRequest[RegisterDeliveryOptionsRequest]([]byte(`{"delivery_options":[`))
		assert.ErrorIs(t, err, shared.ErrBadRequest)
	})
}

func TestOrderStatusMapping(t *testing.T) {
	tests := map[OrderStatus]SalesOrderStatus{
		OrderStatusPending:        SalesOrderStatusAwaitingPayment,
		OrderStatusPendingPayment: SalesOrderStatusAwaitingPayment,
		OrderStatusProcessing:     SalesOrderStatusAwaitingShipment,
		OrderStatusHolded:         SalesOrderStatusOnHold,
		OrderStatusComplete:       SalesOrderStatusCompleted,
		OrderStatusClosed:         SalesOrderStatusCompleted,
		OrderStatusCanceled:       SalesOrderStatusCancelled,
		OrderStatus("fraud"):      SalesOrderStatusPendingFulfillment,
	}
	for in, want := range tests {
		assert.Equal(t, want, in.SalesOrderStatus(), in)
	}
	assert.False(t, OrderStatusCanceled.Shippable())
	assert.True(t, OrderStatusProcessing.Shippable())
}
