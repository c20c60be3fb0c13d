package catalog

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type mockProvider struct {
	m       sync.RWMutex
	product *domain.Product
	price   decimal.Decimal
	err     error
	calls   atomic.Int32
	// gate, when set, blocks GetProduct until closed or ctx is done
	gate chan struct{}
}

func (m *mockProvider) GetProduct(ctx context.Context, _ int64) (*domain.Product, error) {
	m.calls.Add(1)
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

func (m *mockProvider) SizePrice(context.Context, int64, string) (decimal.Decimal, error) {
	m.calls.Add(1)
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return decimal.Zero, m.err
	}
	return m.price, nil
}

func (m *mockProvider) setErr(err error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.err = err
}

type mockCache struct {
	m       sync.RWMutex
	product *domain.Product
	err     error
	sets    int
}

func (m *mockCache) Get(context.Context, int64) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.product == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.product, nil
}

func (m *mockCache) Set(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.product = p
	m.sets++
	return nil
}

func (m *mockCache) stored() *domain.Product {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.product
}
