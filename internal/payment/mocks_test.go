package payment

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/fyz_store/internal/domain"
)

type MockProvider struct {
	mu         sync.Mutex
	method     domain.PaymentMethod
	orderID    string
	created    []OrderRequest
	captures   int
	captureErr error
	captureID  string
}

func (m *MockProvider) Method() domain.PaymentMethod { return m.method }

func (m *MockProvider) Warmup(context.Context) error { return nil }

func (m *MockProvider) CreateOrder(_ context.Context, req OrderRequest) (*ProviderOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, req)
	id := m.orderID
	if id == "" {
		id = "PP-ORDER-1"
	}
	return &ProviderOrder{ID: id}, nil
}

func (m *MockProvider) CaptureOrder(_ context.Context, orderID string) (*Capture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captures++
	if m.captureErr != nil {
		return nil, m.captureErr
	}
	id := m.captureID
	if id == "" {
		id = orderID
	}
	return &Capture{OrderID: id, Status: "COMPLETED"}, nil
}

func (m *MockProvider) Captures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captures
}

// MockOrderWriter records saved orders. When block is set, Save waits for the context.
type MockOrderWriter struct {
	mu    sync.Mutex
	saved []*domain.Order
	block bool
	err   error
}

func (m *MockOrderWriter) Save(ctx context.Context, order *domain.Order) error {
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, order)
	return nil
}

func (m *MockOrderWriter) Saved() []*domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Order(nil), m.saved...)
}

type MockPublisher struct {
	mu     sync.Mutex
	events []domain.OrderSource
}

func (m *MockPublisher) OrderCaptured(_ context.Context, _ *domain.Order, source domain.OrderSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, source)
	return nil
}

func (m *MockPublisher) Events() []domain.OrderSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OrderSource(nil), m.events...)
}

var errStoreDown = errors.New("store unavailable")
