package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/erp/ordersource/internal/domain/shared"
	"github.com/erp/ordersource/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

func pageOffset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// GormCatalog implements integration.CommerceCatalog using GORM
type GormCatalog struct {
	db *gorm.DB
}

// NewGormCatalog creates a new GormCatalog
func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

// Query returns one page of products ordered by id, plus the total match count
func (r *GormCatalog) Query(ctx context.Context, filter integration.ProductFilter, page, pageSize int) ([]integration.Product, int64, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.ProductModel{})
		if len(filter.SKUs) > 0 {
			query = query.Where("sku IN ?", filter.SKUs)
		}
		if filter.UpdatedSince != nil {
			query = query.Where("updated_at >= ?", *filter.UpdatedSince)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	if total == 0 {
		return []integration.Product{}, 0, nil
	}

	var productModels []models.ProductModel
	if err := scoped().
		Order("id ASC").
		Offset(pageOffset(page, pageSize)).
		Limit(pageSize).
		Find(&productModels).Error; err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}

	products := make([]integration.Product, len(productModels))
	for i := range productModels {
		products[i] = productModels[i].ToDomain()
	}
	return products, total, nil
}

// ---------------------------------------------------------------------------
// Inventory sources
// ---------------------------------------------------------------------------

// GormInventorySource implements integration.InventorySource using GORM
type GormInventorySource struct {
	db *gorm.DB
}

// NewGormInventorySource creates a new GormInventorySource
func NewGormInventorySource(db *gorm.DB) *GormInventorySource {
	return &GormInventorySource{db: db}
}

// GetBySKU returns every source record of a sku, ordered by source code
func (r *GormInventorySource) GetBySKU(ctx context.Context, sku string) ([]integration.SourceItem, error) {
	var itemModels []models.SourceItemModel
	if err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		Order("source_code ASC").
		Find(&itemModels).Error; err != nil {
		return nil, fmt.Errorf("query source items: %w", err)
	}

	items := make([]integration.SourceItem, len(itemModels))
	for i := range itemModels {
		items[i] = itemModels[i].ToDomain()
	}
	return items, nil
}

// Save updates the quantity and stock flag of existing source records.
// Records are never created; a missing record fails with ErrSourceItemNotFound.
func (r *GormInventorySource) Save(ctx context.Context, items []integration.SourceItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			updatedAt := item.UpdatedAt
			if updatedAt.IsZero() {
				updatedAt = time.Now()
			}
			result := tx.Model(&models.SourceItemModel{}).
				Where("sku = ? AND source_code = ?", item.SKU, item.SourceCode).
				Updates(map[string]any{
					"quantity":   item.Quantity,
					"in_stock":   item.InStock,
					"updated_at": updatedAt,
				})
			if result.Error != nil {
				return fmt.Errorf("update source item: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return integration.ErrSourceItemNotFound
			}
		}
		return nil
	})
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// GormOrderRepository implements integration.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Addresses").
		Preload("Attributes")
}

// Get finds an order by id
func (r *GormOrderRepository) Get(ctx context.Context, id string) (*integration.Order, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByNumber finds an order by its merchant-facing number
func (r *GormOrderRepository) GetByNumber(ctx context.Context, number string) (*integration.Order, error) {
	return r.first(ctx, "number = ?", number)
}

func (r *GormOrderRepository) first(ctx context.Context, cond string, arg string) (*integration.Order, error) {
	var model models.SalesOrderModel
	if err := r.withDetails(ctx).First(&model, cond, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("sales order %q: %w", arg, shared.ErrNotFound)
		}
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	return model.ToDomain(), nil
}

// Query returns one page of orders ordered by modification time, plus the total match count
func (r *GormOrderRepository) Query(ctx context.Context, filter integration.OrderFilter, page, pageSize int) ([]integration.Order, int64, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.SalesOrderModel{})
		if filter.ModifiedFrom != nil {
			query = query.Where("updated_at >= ?", *filter.ModifiedFrom)
		}
		if filter.ModifiedTo != nil {
			query = query.Where("updated_at <= ?", *filter.ModifiedTo)
		}
		if len(filter.IDs) > 0 {
			query = query.Where("id IN ?", filter.IDs)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count sales orders: %w", err)
	}
	if total == 0 {
		return []integration.Order{}, 0, nil
	}

	var ids []string
	if err := scoped().
		Order("updated_at ASC, id ASC").
		Offset(pageOffset(page, pageSize)).
		Limit(pageSize).
		Pluck("id", &ids).Error; err != nil {
		return nil, 0, fmt.Errorf("query sales orders: %w", err)
	}
	if len(ids) == 0 {
		return []integration.Order{}, total, nil
	}

	var orderModels []models.SalesOrderModel
	if err := r.withDetails(ctx).
		Where("id IN ?", ids).
		Order("updated_at ASC, id ASC").
		Find(&orderModels).Error; err != nil {
		return nil, 0, fmt.Errorf("load sales orders: %w", err)
	}

	orders := make([]integration.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, total, nil
}

// Create stores a new order with its lines, addresses and attributes.
// Non-zero timestamps are kept as given.
func (r *GormOrderRepository) Create(ctx context.Context, order *integration.Order) error {
	var model models.SalesOrderModel
	model.FromDomain(order)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("create sales order: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Shipments
// ---------------------------------------------------------------------------

// GormShipmentRepository implements integration.ShipmentRepository using GORM
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// Create stores the shipment and applies it to the order in one transaction.
// The order row is touched first so concurrent shipments for the same order
// run one after another. Shipped quantities are added in SQL so a line can
// never exceed its ordered quantity, and the order status is recomputed from
// the committed lines rather than taken from the caller's copy. order is
// updated with the stored status and ship date.
func (r *GormShipmentRepository) Create(ctx context.Context, shipment *integration.Shipment, order *integration.Order) error {
	var model models.ShipmentModel
	model.FromDomain(shipment)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Row lock on the order
		result := tx.Model(&models.SalesOrderModel{}).
			Where("id = ?", order.ID).
			Update("updated_at", time.Now())
		if result.Error != nil {
			return fmt.Errorf("lock sales order: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return integration.ErrOrderNotFound
		}

		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("create shipment: %w", err)
		}

		for _, item := range shipment.Items {
			result := tx.Model(&models.SalesOrderItemModel{}).
				Where("id = ? AND order_id = ? AND qty_shipped + ? <= qty_ordered", item.OrderItemID, shipment.OrderID, item.Quantity).
				Update("qty_shipped", gorm.Expr("qty_shipped + ?", item.Quantity))
			if result.Error != nil {
				return fmt.Errorf("update order item: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return integration.ErrShipmentQuantityExceeded
			}
		}

		var unshipped int64
		if err := tx.Model(&models.SalesOrderItemModel{}).
			Where("order_id = ? AND qty_shipped < qty_ordered", order.ID).
			Count(&unshipped).Error; err != nil {
			return fmt.Errorf("count unshipped items: %w", err)
		}
		status := integration.OrderStatusComplete
		if unshipped > 0 {
			status = integration.OrderStatusProcessing
		}
		shippedAt := shipment.ShipDate

		if err := tx.Model(&models.SalesOrderModel{}).
			Where("id = ?", order.ID).
			Updates(map[string]any{
				"status":     status,
				"shipped_at": shippedAt,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return fmt.Errorf("update sales order: %w", err)
		}

		order.Status = status
		order.ShippedAt = &shippedAt
		return nil
	})
}

// FindByNotificationID finds the shipment recorded for a notification
func (r *GormShipmentRepository) FindByNotificationID(ctx context.Context, notificationID string) (*integration.Shipment, error) {
	var model models.ShipmentModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&model, "notification_id = ?", notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("shipment for notification %q: %w", notificationID, shared.ErrNotFound)
		}
		return nil, fmt.Errorf("find shipment: %w", err)
	}
	return model.ToDomain(), nil
}
