package integration

import (
	"context"
	"sync"

	"github.com/erp/ordersource/internal/domain/integration"
	"github.com/erp/ordersource/internal/domain/shared"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

var testLogger = zap.NewNop()

// MockCredentialStore is a mock implementation of CredentialStore
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) Scopes(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCredentialStore) Read(ctx context.Context, scopeID string) (*integration.AccessCredential, error) {
	args := m.Called(ctx, scopeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.AccessCredential), args.Error(1)
}

func (m *MockCredentialStore) Write(ctx context.Context, cred *integration.AccessCredential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

// MockCachingCredentialStore is a MockCredentialStore that also refreshes a cached scope list
type MockCachingCredentialStore struct {
	MockCredentialStore
}

func (m *MockCachingCredentialStore) RefreshScopes(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockLegacyUserStore is a mock implementation of LegacyUserStore
type MockLegacyUserStore struct {
	mock.Mock
}

func (m *MockLegacyUserStore) FindByUsername(ctx context.Context, username string) (*integration.LegacyUser, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.LegacyUser), args.Error(1)
}

// MockCommerceCatalog is a mock implementation of CommerceCatalog
type MockCommerceCatalog struct {
	mock.Mock
}

func (m *MockCommerceCatalog) Query(ctx context.Context, filter integration.ProductFilter, page, pageSize int) ([]integration.Product, int64, error) {
	args := m.Called(ctx, filter, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]integration.Product), args.Get(1).(int64), args.Error(2)
}

// MockInventorySource is a mock implementation of InventorySource
type MockInventorySource struct {
	mock.Mock
}

func (m *MockInventorySource) GetBySKU(ctx context.Context, sku string) ([]integration.SourceItem, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.SourceItem), args.Error(1)
}

func (m *MockInventorySource) Save(ctx context.Context, items []integration.SourceItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Get(ctx context.Context, id string) (*integration.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByNumber(ctx context.Context, number string) (*integration.Order, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Order), args.Error(1)
}

func (m *MockOrderRepository) Query(ctx context.Context, filter integration.OrderFilter, page, pageSize int) ([]integration.Order, int64, error) {
	args := m.Called(ctx, filter, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]integration.Order), args.Get(1).(int64), args.Error(2)
}

// MockShipmentRepository is a mock implementation of ShipmentRepository
type MockShipmentRepository struct {
	mock.Mock
}

func (m *MockShipmentRepository) Create(ctx context.Context, shipment *integration.Shipment, order *integration.Order) error {
	args := m.Called(ctx, shipment, order)
	return args.Error(0)
}

func (m *MockShipmentRepository) FindByNotificationID(ctx context.Context, notificationID string) (*integration.Shipment, error) {
	args := m.Called(ctx, notificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Shipment), args.Error(1)
}

// MockDeliveryOptionRepository is a mock implementation of DeliveryOptionRepository
type MockDeliveryOptionRepository struct {
	mock.Mock
}

func (m *MockDeliveryOptionRepository) Save(ctx context.Context, option *integration.DeliveryOptionRecord) error {
	args := m.Called(ctx, option)
	return args.Error(0)
}

func (m *MockDeliveryOptionRepository) Delete(ctx context.Context, scopeID, id string) error {
	args := m.Called(ctx, scopeID, id)
	return args.Error(0)
}

func (m *MockDeliveryOptionRepository) Exists(ctx context.Context, scopeID, id string) (bool, error) {
	args := m.Called(ctx, scopeID, id)
	return args.Bool(0), args.Error(1)
}

// MockItemRecorder is a mock implementation of ItemRecorder
type MockItemRecorder struct {
	mock.Mock
}

func (m *MockItemRecorder) RecordItem(operation string, failed bool, category integration.ErrorCategory) {
	m.Called(operation, failed, category)
}

// memInventorySource is an in-memory InventorySource keyed by sku
type memInventorySource struct {
	mu    sync.Mutex
	items map[string][]integration.SourceItem
}

func newMemInventorySource(items ...integration.SourceItem) *memInventorySource {
	s := &memInventorySource{items: make(map[string][]integration.SourceItem)}
	for _, item := range items {
		s.items[item.SKU] = append(s.items[item.SKU], item)
	}
	return s
}

func (s *memInventorySource) GetBySKU(_ context.Context, sku string) ([]integration.SourceItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]integration.SourceItem, len(s.items[sku]))
	copy(out, s.items[sku])
	return out, nil
}

func (s *memInventorySource) Save(_ context.Context, items []integration.SourceItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		records := s.items[item.SKU]
		found := false
		for i := range records {
			if records[i].SourceCode == item.SourceCode {
				records[i] = item
				found = true
			}
		}
		if !found {
			return shared.ErrNotFound
		}
	}
	return nil
}
