package http

import (
	"context"
	"sync"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/service"
)

type mockCartEngine struct {
	m        sync.Mutex
	cart     *domain.Cart
	line     *domain.CartLine
	sizes    []domain.ProductSize
	err      error
	sessions []string
	added    []service.AddItemInput
	updated  []int
}

func (m *mockCartEngine) record(session string) {
	m.sessions = append(m.sessions, session)
}

func (m *mockCartEngine) GetOrCreateCart(_ context.Context, session string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.record(session)
	if m.err != nil {
		return nil, m.err
	}
	return m.cart, nil
}

func (m *mockCartEngine) AddItem(_ context.Context, session string, in service.AddItemInput) (*domain.CartLine, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.record(session)
	m.added = append(m.added, in)
	if m.err != nil {
		return nil, m.err
	}
	return m.line, nil
}

func (m *mockCartEngine) UpdateItemQuantity(_ context.Context, session string, _ int64, quantity int) (*domain.CartLine, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.record(session)
	m.updated = append(m.updated, quantity)
	if m.err != nil {
		return nil, m.err
	}
	return m.line, nil
}

func (m *mockCartEngine) RemoveItem(_ context.Context, session string, _ int64) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.record(session)
	if m.err != nil {
		return nil, m.err
	}
	return m.cart, nil
}

func (m *mockCartEngine) ProductSizes(context.Context, int64) ([]domain.ProductSize, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.sizes, nil
}

type mockOrderEngine struct {
	m        sync.Mutex
	order    *domain.Order
	err      error
	customer domain.CustomerInfo
	status   string
}

func (m *mockOrderEngine) CreateOrder(_ context.Context, _ string, c domain.CustomerInfo) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.customer = c
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockOrderEngine) GetOrder(context.Context, string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockOrderEngine) UpdateOrderStatus(_ context.Context, _ string, status string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.status = status
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}
