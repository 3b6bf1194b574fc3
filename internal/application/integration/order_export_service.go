package integration

import (
	"context"
	"fmt"

	"github.com/erp/ordersource/internal/domain/integration"
	"go.uber.org/zap"
)

// OrderExportService pages sales orders out to the fulfillment platform
type OrderExportService struct {
	orders integration.OrderRepository
	logger *zap.Logger
}

// NewOrderExportService creates a new OrderExportService
func NewOrderExportService(orders integration.OrderRepository, logger *zap.Logger) *OrderExportService {
	return &OrderExportService{
		orders: orders,
		logger: logger,
	}
}

// ExportPage is one page of exported orders with its resolved cursor
type ExportPage struct {
	SalesOrders []integration.SalesOrder
	Cursor      integration.Cursor
}

// Export handles POST /orders/export
func (s *OrderExportService) Export(ctx context.Context, req *integration.SalesOrdersExportRequest) (*integration.SalesOrdersExportResponse, error) {
	cursor, err := integration.DecodeCursor(req.Cursor)
	if err != nil {
		return nil, err
	}

	page, err := s.ExportPage(ctx, OrderFilterFromCriteria(req.Criteria), cursor, req.SalesOrderFieldMappings)
	if err != nil {
		return nil, err
	}

	return &integration.SalesOrdersExportResponse{
		SalesOrders: page.SalesOrders,
		Cursor:      page.Cursor.Next(),
	}, nil
}

// ExportPage queries the page named by cursor and maps every order.
// The returned cursor carries the total page and order counts.
func (s *OrderExportService) ExportPage(
	ctx context.Context,
	filter integration.OrderFilter,
	cursor integration.Cursor,
	mappings *integration.SalesOrderFieldMappings,
) (*ExportPage, error) {
	orders, total, err := s.orders.Query(ctx, filter, cursor.Page, cursor.PageSize)
	if err != nil {
		return nil, fmt.Errorf("integration: query orders: %w", err)
	}

	cursor.TotalPages = integration.TotalPages(total, cursor.PageSize)
	cursor.TotalOrders = int(total)
	if err := cursor.ValidateWindow(total); err != nil {
		return nil, err
	}

	salesOrders := make([]integration.SalesOrder, 0, len(orders))
	for i := range orders {
		salesOrders = append(salesOrders, ToSalesOrder(&orders[i], mappings))
	}

	s.logger.Debug("Exported sales orders",
		zap.Int("page", cursor.Page),
		zap.Int("count", len(salesOrders)),
		zap.Int64("total", total),
	)

	return &ExportPage{SalesOrders: salesOrders, Cursor: cursor}, nil
}

// OrderFilterFromCriteria converts request criteria into a repository filter
func OrderFilterFromCriteria(criteria *integration.SalesOrderCriteria) integration.OrderFilter {
	if criteria == nil {
		return integration.OrderFilter{}
	}
	return integration.OrderFilter{
		ModifiedFrom: criteria.FromDateTime,
		ModifiedTo:   criteria.ToDateTime,
		IDs:          criteria.SalesOrderIDs,
	}
}
