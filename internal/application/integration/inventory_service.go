package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InventoryService exposes per-source stock to the fulfillment platform and
// applies the quantities it pushes back.
type InventoryService struct {
	catalog  integration.CommerceCatalog
	sources  integration.InventorySource
	batch    integration.BatchOptions
	recorder ItemRecorder
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	catalog integration.CommerceCatalog,
	sources integration.InventorySource,
	batch integration.BatchOptions,
	recorder ItemRecorder,
	logger *zap.Logger,
) *InventoryService {
	if recorder == nil {
		recorder = NopItemRecorder()
	}
	return &InventoryService{
		catalog:  catalog,
		sources:  sources,
		batch:    batch,
		recorder: recorder,
		validate: newValidator(),
		logger:   logger,
		now:      time.Now,
	}
}

// ---------------------------------------------------------------------------
// Fetch
// ---------------------------------------------------------------------------

// Fetch returns one page of inventory rows. Pages are counted in products;
// each product expands into one row per source record.
func (s *InventoryService) Fetch(ctx context.Context, req *integration.InventoryFetchRequest) (*integration.InventoryFetchResponse, error) {
	cursor, err := integration.DecodeCursor(req.Cursor)
	if err != nil {
		return nil, err
	}

	filter := integration.ProductFilter{UpdatedSince: req.SinceDate}
	if req.Criteria != nil {
		filter.SKUs = req.Criteria.SKUs
	}

	products, total, err := s.catalog.Query(ctx, filter, cursor.Page, cursor.PageSize)
	if err != nil {
		return nil, fmt.Errorf("integration: query catalog: %w", err)
	}

	cursor.TotalPages = integration.TotalPages(total, cursor.PageSize)
	cursor.TotalProducts = int(total)
	if err := cursor.ValidateWindow(total); err != nil {
		return nil, err
	}

	fetchedAt := s.now().UTC()
	items := make([]integration.InventoryFetchItem, 0, len(products))
	for _, product := range products {
		records, err := s.sources.GetBySKU(ctx, product.SKU)
		if err != nil {
			return nil, fmt.Errorf("integration: load source items for %q: %w", product.SKU, err)
		}
		for _, record := range records {
			items = append(items, integration.InventoryFetchItem{
				SKU:                        product.SKU,
				Name:                       product.Name,
				IntegrationInventoryItemID: record.ItemID().Encode(),
				AvailableQuantity:          int(record.Quantity.IntPart()),
				FetchedAt:                  fetchedAt,
			})
		}
	}

	return &integration.InventoryFetchResponse{
		Items:  items,
		Cursor: cursor.Next(),
	}, nil
}

// ---------------------------------------------------------------------------
// Push
// ---------------------------------------------------------------------------

// Push applies pushed quantities item by item. A failed item never stops the
// batch; failures are reported in the response errors.
func (s *InventoryService) Push(ctx context.Context, req *integration.InventoryPushRequest) (*integration.InventoryPushResponse, error) {
	outcomes := integration.ProcessBatch(ctx, req.Items, s.pushItem, s.batch)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recordOutcomes(s.recorder, OperationInventoryPush, outcomes)

	failures := integration.Failures(outcomes)
	errs := make([]integration.InventoryItemError, 0, len(failures))
	for _, f := range failures {
		s.logger.Warn("Inventory push item failed",
			zap.Int("index", f.Index),
			zap.String("sku", f.Item.SKU),
			zap.Error(f.Err),
		)
		errs = append(errs, integration.InventoryItemError{
			SKU:                        f.Item.SKU,
			IntegrationInventoryItemID: f.Item.IntegrationInventoryItemID,
			Message:                    itemErrorMessage(f.Err, "Inventory item could not be updated"),
			Category:                   integration.CategorizeError(f.Err),
		})
	}

	resp := &integration.InventoryPushResponse{Errors: errs}
	if len(errs) > 0 {
		msg := fmt.Sprintf("%d of %d inventory items could not be updated", len(errs), len(req.Items))
		resp.Message = &msg
		s.logger.Info("Inventory push completed with errors",
			zap.Int("items", len(req.Items)),
			zap.Int("failed", len(errs)),
		)
	}
	return resp, nil
}

func (s *InventoryService) pushItem(ctx context.Context, item integration.InventoryPushItem) (struct{}, error) {
	if err := s.validate.Struct(item); err != nil {
		return struct{}{}, validationError(err)
	}

	id, err := integration.ParseInventoryItemID(item.IntegrationInventoryItemID)
	if err != nil {
		return struct{}{}, err
	}
	if id.SKU != item.SKU {
		return struct{}{}, fmt.Errorf("%w: item sku %q, id sku %q", integration.ErrInventoryItemSKUMismatch, item.SKU, id.SKU)
	}

	records, err := s.sources.GetBySKU(ctx, id.SKU)
	if err != nil {
		return struct{}{}, fmt.Errorf("integration: load source items: %w", err)
	}

	for _, record := range records {
		if record.SourceCode != id.Source {
			continue
		}
		record.SetQuantity(decimal.NewFromInt(int64(item.AvailableQuantity)))
		record.UpdatedAt = s.now().UTC()
		if err := s.sources.Save(ctx, []integration.SourceItem{record}); err != nil {
			return struct{}{}, fmt.Errorf("integration: save source item: %w", err)
		}
		return struct{}{}, nil
	}

	return struct{}{}, integration.ErrSourceItemNotFound
}
