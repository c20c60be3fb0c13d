package catalog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/pkg/circuitbreaker"
	"github.com/shopspring/decimal"
)

// Guarded stops calling an unhealthy backend. A missing product or size is an
// answer, not a failure, so it never trips the breaker.
type Guarded struct {
	next     Provider
	products *circuitbreaker.Breaker[*domain.Product]
	prices   *circuitbreaker.Breaker[decimal.Decimal]
}

func NewGuarded(next Provider, cfg circuitbreaker.Config, log *slog.Logger) *Guarded {
	cfg.IsSuccessful = func(err error) bool {
		return err == nil ||
			errors.Is(err, ErrProductNotFound) ||
			errors.Is(err, ErrSizeNotFound) ||
			errors.Is(err, context.Canceled)
	}
	cfg.Logger = log

	priceCfg := cfg
	priceCfg.Name = cfg.Name + "-prices"
	return &Guarded{
		next:     next,
		products: circuitbreaker.New[*domain.Product](cfg),
		prices:   circuitbreaker.New[decimal.Decimal](priceCfg),
	}
}

func (g *Guarded) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return g.products.Execute(func() (*domain.Product, error) {
		return g.next.GetProduct(ctx, id)
	})
}

func (g *Guarded) SizePrice(ctx context.Context, productID int64, size string) (decimal.Decimal, error) {
	return g.prices.Execute(func() (decimal.Decimal, error) {
		return g.next.SizePrice(ctx, productID, size)
	})
}
