package integration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DeliveryOptionService maintains the delivery options of the authorized scope
type DeliveryOptionService struct {
	options  integration.DeliveryOptionRepository
	batch    integration.BatchOptions
	recorder ItemRecorder
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewDeliveryOptionService creates a new DeliveryOptionService
func NewDeliveryOptionService(
	options integration.DeliveryOptionRepository,
	batch integration.BatchOptions,
	recorder ItemRecorder,
	logger *zap.Logger,
) *DeliveryOptionService {
	if recorder == nil {
		recorder = NopItemRecorder()
	}
	return &DeliveryOptionService{
		options:  options,
		batch:    batch,
		recorder: recorder,
		validate: newValidator(),
		logger:   logger,
		now:      time.Now,
	}
}

// Register upserts every option; invalid options are reported per item
func (s *DeliveryOptionService) Register(ctx context.Context, req *integration.RegisterDeliveryOptionsRequest) (*integration.RegisterDeliveryOptionsResponse, error) {
	scopeID := ScopeFromContext(ctx)

	register := func(ctx context.Context, opt integration.DeliveryOption) (integration.DeliveryOption, error) {
		if err := s.validate.Struct(opt); err != nil {
			return opt, validationError(err)
		}

		existed, err := s.options.Exists(ctx, scopeID, opt.DeliveryOptionID)
		if err != nil {
			return opt, fmt.Errorf("integration: check delivery option: %w", err)
		}
		if err := s.options.Save(ctx, toDeliveryOptionRecord(scopeID, opt, s.now().UTC())); err != nil {
			return opt, fmt.Errorf("integration: save delivery option: %w", err)
		}

		s.logger.Debug("Delivery option registered",
			zap.String("scope_id", scopeID),
			zap.String("delivery_option_id", opt.DeliveryOptionID),
			zap.Bool("updated", existed),
		)
		return opt, nil
	}

	outcomes := integration.ProcessBatch(ctx, req.DeliveryOptions, register, s.batch)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recordOutcomes(s.recorder, OperationDeliveryOptionRegister, outcomes)

	resp := &integration.RegisterDeliveryOptionsResponse{
		DeliveryOptions: make([]integration.DeliveryOption, 0, len(outcomes)),
		Errors:          make([]integration.DeliveryOptionError, 0),
	}
	for _, o := range outcomes {
		if o.Failed() {
			resp.Errors = append(resp.Errors, s.deliveryOptionError(o.Item.DeliveryOptionID, o.Err))
			continue
		}
		resp.DeliveryOptions = append(resp.DeliveryOptions, o.Result)
	}
	return resp, nil
}

// Remove deletes options by id; unknown ids are reported as NotFound
func (s *DeliveryOptionService) Remove(ctx context.Context, req *integration.RemoveDeliveryOptionsRequest) (*integration.RemoveDeliveryOptionsResponse, error) {
	scopeID := ScopeFromContext(ctx)

	remove := func(ctx context.Context, id string) (string, error) {
		if strings.TrimSpace(id) == "" {
			return id, fmt.Errorf("%w: delivery_option_id: This field is required", ErrItemValidation)
		}
		if err := s.options.Delete(ctx, scopeID, id); err != nil {
			return id, err
		}
		return id, nil
	}

	outcomes := integration.ProcessBatch(ctx, req.DeliveryOptionIDs, remove, s.batch)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recordOutcomes(s.recorder, OperationDeliveryOptionRemove, outcomes)

	resp := &integration.RemoveDeliveryOptionsResponse{
		Removed: make([]string, 0, len(outcomes)),
		Errors:  make([]integration.DeliveryOptionError, 0),
	}
	for _, o := range outcomes {
		if o.Failed() {
			resp.Errors = append(resp.Errors, s.deliveryOptionError(o.Item, o.Err))
			continue
		}
		resp.Removed = append(resp.Removed, o.Result)
	}
	return resp, nil
}

func (s *DeliveryOptionService) deliveryOptionError(id string, err error) integration.DeliveryOptionError {
	s.logger.Warn("Delivery option item failed",
		zap.String("delivery_option_id", id),
		zap.Error(err),
	)
	return integration.DeliveryOptionError{
		DeliveryOptionID: id,
		Message:          itemErrorMessage(err, "Delivery option could not be saved"),
		Category:         integration.CategorizeError(err),
	}
}

func toDeliveryOptionRecord(scopeID string, opt integration.DeliveryOption, now time.Time) *integration.DeliveryOptionRecord {
	rec := &integration.DeliveryOptionRecord{
		ScopeID:               scopeID,
		ID:                    opt.DeliveryOptionID,
		Name:                  opt.Name,
		Description:           deref(opt.Description),
		CarrierCode:           opt.CarrierCode,
		ServiceCode:           opt.ServiceCode,
		Currency:              strings.ToUpper(deref(opt.Currency)),
		EstimatedDeliveryDays: opt.EstimatedDeliveryDays,
		UpdatedAt:             now,
	}
	if opt.Price != nil {
		price := decimal.NewFromFloat(*opt.Price)
		rec.Price = &price
	}
	return rec
}
