package http

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fjod/fyz_store/internal/catalog"
	"github.com/fjod/fyz_store/internal/domain"
	"github.com/fjod/fyz_store/internal/orders"
	"github.com/fjod/fyz_store/internal/payment"
	"github.com/fjod/fyz_store/internal/slots"
	"github.com/shopspring/decimal"
)

type CatalogMock struct {
	products map[string]*domain.Product
}

func newCatalogMock(products ...*domain.Product) *CatalogMock {
	m := &CatalogMock{products: make(map[string]*domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *CatalogMock) Product(_ context.Context, id string) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

func (m *CatalogMock) Products(_ context.Context) ([]*domain.Product, error) {
	list := make([]*domain.Product, 0, len(m.products))
	for _, p := range m.products {
		list = append(list, p)
	}
	return list, nil
}

type OrdersMock struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newOrdersMock(list ...*domain.Order) *OrdersMock {
	m := &OrdersMock{orders: make(map[string]*domain.Order)}
	for _, o := range list {
		m.orders[o.OrderID] = o
	}
	return m
}

func (m *OrdersMock) Get(_ context.Context, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, orders.ErrOrderNotFound
	}
	return o, nil
}

func (m *OrdersMock) ListByUser(_ context.Context, userID string, _ int64) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			list = append(list, o)
		}
	}
	return list, nil
}

type ButtonsMock struct{}

func (ButtonsMock) Render(_ context.Context, _ string) (*payment.ButtonsView, error) {
	return &payment.ButtonsView{
		ContainerID:   "paypal-button-container",
		ScriptURL:     "https://www.paypal.com/sdk/js?client-id=test&currency=USD",
		AmountLocal:   decimal.NewFromInt(26000),
		AmountPayment: decimal.NewFromInt(50),
		Currency:      "USD",
	}, nil
}

func (ButtonsMock) Supports(domain.PaymentMethod) bool { return true }

type PaymentsMock struct {
	mu        sync.Mutex
	order     *payment.ProviderOrder
	createErr error
	result    payment.CaptureResult
	approved  []string
	failures  []string
}

func (m *PaymentsMock) CreateOrder(_ context.Context, _ string, _ domain.PaymentMethod) (*payment.ProviderOrder, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.order, nil
}

func (m *PaymentsMock) Approve(_ context.Context, _ string, _ domain.Identity, _ domain.PaymentMethod, providerOrderID string) payment.CaptureResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.approved = append(m.approved, providerOrderID)
	return m.result
}

func (m *PaymentsMock) Cancel(_ string) payment.CaptureResult {
	return payment.Cancelled()
}

func (m *PaymentsMock) Fail(_ string, reason string) payment.CaptureResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, reason)
	return payment.Failed(reason)
}

func (m *PaymentsMock) RedirectDelay() time.Duration {
	return 1500 * time.Millisecond
}

// UnreadableStore fails every read while down is set.
type UnreadableStore struct {
	*slots.MemoryStore
	down atomic.Bool
}

func (s *UnreadableStore) Get(ctx context.Context, session, slot string) ([]byte, error) {
	if s.down.Load() {
		return nil, errors.New("connection refused")
	}
	return s.MemoryStore.Get(ctx, session, slot)
}
