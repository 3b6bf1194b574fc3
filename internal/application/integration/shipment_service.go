package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/erp/ordersource/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ShipmentNotificationService records shipments reported by the fulfillment platform
type ShipmentNotificationService struct {
	orders    integration.OrderRepository
	shipments integration.ShipmentRepository
	batch     integration.BatchOptions
	recorder  ItemRecorder
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewShipmentNotificationService creates a new ShipmentNotificationService
func NewShipmentNotificationService(
	orders integration.OrderRepository,
	shipments integration.ShipmentRepository,
	batch integration.BatchOptions,
	recorder ItemRecorder,
	logger *zap.Logger,
) *ShipmentNotificationService {
	if recorder == nil {
		recorder = NopItemRecorder()
	}
	return &ShipmentNotificationService{
		orders:    orders,
		shipments: shipments,
		batch:     batch,
		recorder:  recorder,
		validate:  newValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

// Notify handles POST /shipments/notify. Every notification gets a result in
// request order; a failed notification never affects the others.
func (s *ShipmentNotificationService) Notify(ctx context.Context, req *integration.ShipmentNotificationRequest) (*integration.ShipmentNotificationResponse, error) {
	outcomes := integration.ProcessBatch(ctx, req.Notifications, s.notifyOne, s.batch)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recordOutcomes(s.recorder, OperationShipmentNotify, outcomes)

	results := make([]integration.ShipmentNotificationResult, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Failed() {
			s.logger.Warn("Shipment notification failed",
				zap.String("notification_id", o.Item.NotificationID),
				zap.String("order_id", o.Item.OrderID),
				zap.Error(o.Err),
			)
		}
		results = append(results, toNotificationResult(o.Item.NotificationID, o.Result, o.Err))
	}
	return &integration.ShipmentNotificationResponse{NotificationResults: results}, nil
}

// NotifyByOrderNumber records a shipment for the order with the given number
func (s *ShipmentNotificationService) NotifyByOrderNumber(
	ctx context.Context,
	orderNumber string,
	n integration.ShipmentNotification,
) (integration.ShipmentNotificationResult, error) {
	order, err := s.orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		if shared.IsNotFound(err) {
			return toNotificationResult(n.NotificationID, "", integration.ErrOrderNotFound), nil
		}
		return integration.ShipmentNotificationResult{}, fmt.Errorf("integration: find order %q: %w", orderNumber, err)
	}
	n.OrderID = order.ID
	if n.NotificationID == "" {
		n.NotificationID = uuid.NewString()
	}

	confirmationID, err := s.notifyOne(ctx, n)
	s.recorder.RecordItem(OperationShipmentNotify, err != nil, categoryOf(err))
	return toNotificationResult(n.NotificationID, confirmationID, err), nil
}

func (s *ShipmentNotificationService) notifyOne(ctx context.Context, n integration.ShipmentNotification) (string, error) {
	if err := s.validate.Struct(n); err != nil {
		return "", validationError(err)
	}

	existing, err := s.shipments.FindByNotificationID(ctx, n.NotificationID)
	if err == nil {
		return existing.ID, nil
	}
	if !shared.IsNotFound(err) {
		return "", fmt.Errorf("integration: find shipment: %w", err)
	}

	order, err := s.orders.Get(ctx, n.OrderID)
	if err != nil {
		if shared.IsNotFound(err) {
			return "", integration.ErrOrderNotFound
		}
		return "", fmt.Errorf("integration: load order: %w", err)
	}
	if !order.Status.Shippable() {
		return "", fmt.Errorf("%w: status %s", integration.ErrOrderNotShippable, order.Status)
	}

	items, err := shipmentItems(order, n.Items)
	if err != nil {
		return "", err
	}

	shipDate := s.now().UTC()
	if n.ShipDate != nil {
		shipDate = n.ShipDate.UTC()
	}
	shipment := &integration.Shipment{
		ID:             uuid.NewString(),
		OrderID:        order.ID,
		NotificationID: n.NotificationID,
		TrackingNumber: n.TrackingNumber,
		TrackingURL:    deref(n.TrackingURL),
		CarrierCode:    n.CarrierCode,
		ServiceCode:    deref(n.CarrierServiceCode),
		ShipDate:       shipDate,
		Notes:          deref(n.Notes),
		Items:          items,
		CreatedAt:      s.now().UTC(),
	}
	order.ApplyShipment(shipment)

	if err := s.shipments.Create(ctx, shipment, order); err != nil {
		return "", fmt.Errorf("integration: create shipment: %w", err)
	}

	s.logger.Info("Shipment recorded",
		zap.String("order_id", order.ID),
		zap.String("shipment_id", shipment.ID),
		zap.String("notification_id", n.NotificationID),
		zap.String("order_status", order.Status.String()),
	)
	return shipment.ID, nil
}

// shipmentItems resolves notified items against the order lines.
// No items means every line ships its remaining quantity.
func shipmentItems(order *integration.Order, notified []integration.ShipmentNotificationItem) ([]integration.ShipmentItem, error) {
	if len(notified) == 0 {
		items := make([]integration.ShipmentItem, 0, len(order.Items))
		for _, line := range order.Items {
			if remaining := line.QtyRemaining(); remaining.IsPositive() {
				items = append(items, integration.ShipmentItem{OrderItemID: line.ID, SKU: line.SKU, Quantity: remaining})
			}
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("%w: nothing left to ship", integration.ErrShipmentQuantityExceeded)
		}
		return items, nil
	}

	shipped := make(map[string]decimal.Decimal, len(notified))
	items := make([]integration.ShipmentItem, 0, len(notified))
	for _, n := range notified {
		line := order.FindItem(deref(n.LineItemID), deref(n.SKU))
		if line == nil {
			return nil, fmt.Errorf("%w: line_item_id=%q sku=%q", integration.ErrShipmentItemUnknown, deref(n.LineItemID), deref(n.SKU))
		}
		qty := decimal.NewFromInt(int64(n.Quantity))
		total := shipped[line.ID].Add(qty)
		if total.GreaterThan(line.QtyRemaining()) {
			return nil, fmt.Errorf("%w: line %s has %s left, notified %s",
				integration.ErrShipmentQuantityExceeded, line.ID, line.QtyRemaining(), total)
		}
		shipped[line.ID] = total
		items = append(items, integration.ShipmentItem{OrderItemID: line.ID, SKU: line.SKU, Quantity: qty})
	}
	return items, nil
}

func toNotificationResult(notificationID, confirmationID string, err error) integration.ShipmentNotificationResult {
	if err != nil {
		reason := itemErrorMessage(err, "Shipment could not be recorded")
		return integration.ShipmentNotificationResult{
			NotificationID: notificationID,
			Status:         integration.NotificationStatusFailure,
			Succeeded:      false,
			FailureReason:  &reason,
		}
	}
	return integration.ShipmentNotificationResult{
		NotificationID: notificationID,
		Status:         integration.NotificationStatusSuccess,
		Succeeded:      true,
		ConfirmationID: &confirmationID,
	}
}

func categoryOf(err error) integration.ErrorCategory {
	if err == nil {
		return ""
	}
	return integration.CategorizeError(err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
