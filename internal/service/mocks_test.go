package service

import (
	"context"
	"sync"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type mockCatalog struct {
	m        sync.RWMutex
	products map[int64]*domain.Product
	err      error
}

func (m *mockCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok || !p.IsActive {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

// SizePrice ignores IsActive, like the real providers.
func (m *mockCatalog) SizePrice(_ context.Context, productID int64, size string) (decimal.Decimal, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return decimal.Zero, m.err
	}
	p, ok := m.products[productID]
	if !ok {
		return decimal.Zero, catalog.ErrSizeNotFound
	}
	price, ok := p.SizePrice(size)
	if !ok {
		return decimal.Zero, catalog.ErrSizeNotFound
	}
	return price, nil
}

func (m *mockCatalog) put(p *domain.Product) {
	m.m.Lock()
	defer m.m.Unlock()
	m.products[p.ID] = p
}

func (m *mockCatalog) remove(id int64) {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.products, id)
}

// failingRepo returns err from every call.
type failingRepo struct {
	err error
}

func (f *failingRepo) EnsureCart(context.Context, string) (*domain.Cart, error) { return nil, f.err }
func (f *failingRepo) GetCart(context.Context, string) (*domain.Cart, error)    { return nil, f.err }
func (f *failingRepo) GetLine(context.Context, string, int64) (*domain.CartLine, error) {
	return nil, f.err
}
func (f *failingRepo) AddLine(context.Context, string, domain.CartLine) (*domain.CartLine, error) {
	return nil, f.err
}
func (f *failingRepo) UpdateLine(context.Context, string, int64, int, *decimal.Decimal) (*domain.CartLine, error) {
	return nil, f.err
}
func (f *failingRepo) RemoveLine(context.Context, string, int64) (*domain.Cart, error) {
	return nil, f.err
}
func (f *failingRepo) PlaceOrder(context.Context, string, repository.BuildOrderFunc) (*domain.Order, error) {
	return nil, f.err
}
func (f *failingRepo) GetOrder(context.Context, uuid.UUID) (*domain.Order, error) {
	return nil, f.err
}
func (f *failingRepo) UpdateOrderStatus(context.Context, uuid.UUID, domain.OrderStatus) (*domain.Order, error) {
	return nil, f.err
}
