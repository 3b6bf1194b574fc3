package integration

import (
	"context"
	"testing"
	"time"

	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/erp/ordersource/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func itemID(sku, source string) string {
	return integration.InventoryItemID{SKU: sku, Source: source}.Encode()
}

func TestInventoryService_Fetch(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Expands products into one row per source", func(t *testing.T) {
		catalog := new(MockCommerceCatalog)
		catalog.On("Query", mock.Anything, integration.ProductFilter{}, 1, 2).
			Return([]integration.Product{{ID: "1", SKU: "A", Name: "Alpha"}, {ID: "2", SKU: "B", Name: "Beta"}}, int64(3), nil)
		sources := newMemInventorySource(
			integration.SourceItem{SKU: "A", SourceCode: "eu", Quantity: decimal.NewFromInt(4), InStock: true},
			integration.SourceItem{SKU: "A", SourceCode: "us", Quantity: decimal.NewFromInt(0)},
			integration.SourceItem{SKU: "B", SourceCode: "eu", Quantity: decimal.NewFromInt(7), InStock: true},
		)

		svc := NewInventoryService(catalog, sources, integration.BatchOptions{}, nil, testLogger)
		svc.now = func() time.Time { return fixed }

		cursor := integration.EncodeCursor(integration.Cursor{Page: 1, PageSize: 2})
		resp, err := svc.Fetch(ctx, &integration.InventoryFetchRequest{Cursor: &cursor})
		require.NoError(t, err)

		require.Len(t, resp.Items, 3)
		assert.Equal(t, itemID("A", "eu"), resp.Items[0].IntegrationInventoryItemID)
		assert.Equal(t, 4, resp.Items[0].AvailableQuantity)
		assert.Equal(t, "Alpha", resp.Items[0].Name)
		assert.Equal(t, itemID("A", "us"), resp.Items[1].IntegrationInventoryItemID)
		assert.Equal(t, itemID("B", "eu"), resp.Items[2].IntegrationInventoryItemID)
		assert.Equal(t, fixed, resp.Items[0].FetchedAt)

		require.NotNil(t, resp.Cursor)
		next, err := integration.DecodeCursor(resp.Cursor)
		require.NoError(t, err)
		assert.Equal(t, 2, next.Page)
		assert.Equal(t, 2, next.PageSize)
		assert.Equal(t, 2, next.TotalPages)
		assert.Equal(t, 3, next.TotalProducts)
	})

	t.Run("Page past the end is a bad request", func(t *testing.T) {
		catalog := new(MockCommerceCatalog)
		catalog.On("Query", mock.Anything, mock.Anything, 5, 10).Return([]integration.Product{}, int64(15), nil)

		svc := NewInventoryService(catalog, newMemInventorySource(), integration.BatchOptions{}, nil, testLogger)
		cursor := integration.EncodeCursor(integration.Cursor{Page: 5, PageSize: 10})

		_, err := svc.Fetch(ctx, &integration.InventoryFetchRequest{Cursor: &cursor})
		assert.ErrorIs(t, err, shared.ErrBadRequest)
	})

	t.Run("Empty catalog yields no items and no cursor", func(t *testing.T) {
		catalog := new(MockCommerceCatalog)
		catalog.On("Query", mock.Anything, mock.Anything, 1, 100).Return([]integration.Product{}, int64(0), nil)

		svc := NewInventoryService(catalog, newMemInventorySource(), integration.BatchOptions{}, nil, testLogger)
		resp, err := svc.Fetch(ctx, &integration.InventoryFetchRequest{})
		require.NoError(t, err)
		assert.NotNil(t, resp.Items)
		assert.Empty(t, resp.Items)
		assert.Nil(t, resp.Cursor)
	})

	t.Run("Criteria and since date become the filter", func(t *testing.T) {
		since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		want := integration.ProductFilter{SKUs: []string{"A"}, UpdatedSince: &since}

		catalog := new(MockCommerceCatalog)
		catalog.On("Query", mock.Anything, want, 1, 100).Return([]integration.Product{}, int64(0), nil)

		svc := NewInventoryService(catalog, newMemInventorySource(), integration.BatchOptions{}, nil, testLogger)
		_, err := svc.Fetch(ctx, &integration.InventoryFetchRequest{
			Criteria:  &integration.InventoryFetchCriteria{SKUs: []string{"A"}},
			SinceDate: &since,
		})
		require.NoError(t, err)
		catalog.AssertExpectations(t)
	})

	t.Run("Negative cursor is a bad request", func(t *testing.T) {
		svc := NewInventoryService(new(MockCommerceCatalog), newMemInventorySource(), integration.BatchOptions{}, nil, testLogger)
		cursor := `{"page":-2,"page_size":10}`

		_, err := svc.Fetch(ctx, &integration.InventoryFetchRequest{Cursor: &cursor})
		assert.ErrorIs(t, err, shared.ErrBadRequest)
	})
}

func TestInventoryService_Push(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing record fails only that item", func(t *testing.T) {
		sources := newMemInventorySource(
			integration.SourceItem{SKU: "A", SourceCode: "eu"},
			integration.SourceItem{SKU: "C", SourceCode: "eu"},
		)
		recorder := new(MockItemRecorder)
		recorder.On("RecordItem", OperationInventoryPush, false, integration.ErrorCategory("")).Twice()
		recorder.On("RecordItem", OperationInventoryPush, true, integration.ErrorCategoryNotFound).Once()

		svc := NewInventoryService(new(MockCommerceCatalog), sources, integration.BatchOptions{}, recorder, testLogger)
		resp, err := svc.Push(ctx, &integration.InventoryPushRequest{Items: []integration.InventoryPushItem{
			{SKU: "A", IntegrationInventoryItemID: itemID("A", "eu"), AvailableQuantity: 1},
			{SKU: "B", IntegrationInventoryItemID: itemID("B", "eu"), AvailableQuantity: 2},
			{SKU: "C", IntegrationInventoryItemID: itemID("C", "eu"), AvailableQuantity: 3},
		}})
		require.NoError(t, err)

		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "B", resp.Errors[0].SKU)
		assert.Equal(t, integration.ErrorCategoryNotFound, resp.Errors[0].Category)
		require.NotNil(t, resp.Message)
		recorder.AssertExpectations(t)

		stored, _ := sources.GetBySKU(ctx, "C")
		assert.True(t, stored[0].Quantity.Equal(decimal.NewFromInt(3)))
	})

	t.Run("Wrong source is not found and never created", func(t *testing.T) {
		sources := newMemInventorySource(integration.SourceItem{SKU: "A", SourceCode: "eu"})
		svc := NewInventoryService(new(MockCommerceCatalog), sources, integration.BatchOptions{}, nil, testLogger)

		resp, err := svc.Push(ctx, &integration.InventoryPushRequest{Items: []integration.InventoryPushItem{
			{SKU: "A", IntegrationInventoryItemID: itemID("A", "us"), AvailableQuantity: 9},
		}})
		require.NoError(t, err)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, integration.ErrorCategoryNotFound, resp.Errors[0].Category)

		stored, _ := sources.GetBySKU(ctx, "A")
		assert.Len(t, stored, 1)
	})

	t.Run("Invalid items are Other errors", func(t *testing.T) {
		sources := newMemInventorySource(integration.SourceItem{SKU: "A", SourceCode: "eu"})
		svc := NewInventoryService(new(MockCommerceCatalog), sources, integration.BatchOptions{}, nil, testLogger)

		resp, err := svc.Push(ctx, &integration.InventoryPushRequest{Items: []integration.InventoryPushItem{
			{SKU: "", IntegrationInventoryItemID: itemID("A", "eu"), AvailableQuantity: 1},
			{SKU: "A", IntegrationInventoryItemID: itemID("A", "eu"), AvailableQuantity: -1},
			{SKU: "A", IntegrationInventoryItemID: "garbage", AvailableQuantity: 1},
			{SKU: "A", IntegrationInventoryItemID: itemID("Z", "eu"), AvailableQuantity: 1},
		}})
		require.NoError(t, err)
		require.Len(t, resp.Errors, 4)
		for _, e := range resp.Errors {
			assert.Equal(t, integration.ErrorCategoryOther, e.Category)
			assert.NotEmpty(t, e.Message)
		}
		assert.Contains(t, resp.Errors[0].Message, "sku")
		assert.Contains(t, resp.Errors[1].Message, "available_quantity")
	})

	t.Run("Empty push succeeds with no errors", func(t *testing.T) {
		svc := NewInventoryService(new(MockCommerceCatalog), newMemInventorySource(), integration.BatchOptions{}, nil, testLogger)
		resp, err := svc.Push(ctx, &integration.InventoryPushRequest{})
		require.NoError(t, err)
		assert.NotNil(t, resp.Errors)
		assert.Empty(t, resp.Errors)
		assert.Nil(t, resp.Message)
	})

	t.Run("Store failure hides the cause", func(t *testing.T) {
		sources := new(MockInventorySource)
		sources.On("GetBySKU", mock.Anything, "A").Return(nil, assert.AnError)

		svc := NewInventoryService(new(MockCommerceCatalog), sources, integration.BatchOptions{}, nil, testLogger)
		resp, err := svc.Push(ctx, &integration.InventoryPushRequest{Items: []integration.InventoryPushItem{
			{SKU: "A", IntegrationInventoryItemID: itemID("A", "eu"), AvailableQuantity: 1},
		}})
		require.NoError(t, err)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "Inventory item could not be updated", resp.Errors[0].Message)
		assert.Equal(t, integration.ErrorCategoryOther, resp.Errors[0].Category)
	})

	t.Run("Cancelled context fails the request", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		svc := NewInventoryService(new(MockCommerceCatalog), newMemInventorySource(), integration.BatchOptions{}, nil, testLogger)

		_, err := svc.Push(cctx, &integration.InventoryPushRequest{Items: []integration.InventoryPushItem{{SKU: "A"}}})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestInventoryService_PushThenFetch(t *testing.T) {
	ctx := context.Background()
	sources := newMemInventorySource(integration.SourceItem{SKU: "A", SourceCode: "eu"})
	catalog := new(MockCommerceCatalog)
	catalog.On("Query", mock.Anything, mock.Anything, 1, 100).
		Return([]integration.Product{{ID: "1", SKU: "A"}}, int64(1), nil)

	svc := NewInventoryService(catalog, sources, integration.BatchOptions{Concurrency: 2}, nil, testLogger)

	for _, qty := range []int{5, 0} {
		resp, err := svc.Push(ctx, &integration.InventoryPushRequest{Items: []integration.InventoryPushItem{
			{SKU: "A", IntegrationInventoryItemID: itemID("A", "eu"), AvailableQuantity: qty},
		}})
		require.NoError(t, err)
		require.Empty(t, resp.Errors)

		fetched, err := svc.Fetch(ctx, &integration.InventoryFetchRequest{})
		require.NoError(t, err)
		require.Len(t, fetched.Items, 1)
		assert.Equal(t, qty, fetched.Items[0].AvailableQuantity)

		stored, _ := sources.GetBySKU(ctx, "A")
		assert.Equal(t, qty > 0, stored[0].InStock)
	}
}
