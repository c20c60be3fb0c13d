package catalog

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const defaultLoadTimeout = 5 * time.Second

// Cached is a cache-aside Provider. Concurrent misses for one product share a
// single backend read, which is detached from any one caller's cancellation.
type Cached struct {
	next        Provider
	cache       cache.ProductCache
	sfg         singleflight.Group
	loadTimeout time.Duration
}

func NewCached(next Provider, c cache.ProductCache) *Cached {
	return &Cached{next: next, cache: c, loadTimeout: defaultLoadTimeout}
}

func (c *Cached) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	shared := context.WithoutCancel(ctx)
	ch := c.sfg.DoChan(strconv.FormatInt(id, 10), func() (interface{}, error) {
		return c.load(shared, id)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Product), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SizePrice always asks the backend; re-pricing must not see a stale price.
func (c *Cached) SizePrice(ctx context.Context, productID int64, size string) (decimal.Decimal, error) {
	return c.next.SizePrice(ctx, productID, size)
}

func (c *Cached) load(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, c.loadTimeout)
	defer cancel()

	product, err := c.cache.Get(ctx, id)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.FromContext(ctx).WarnContext(ctx, "catalog cache get failed", "product_id", id, "error", err)
	}

	product, err = c.next.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	go func() {
		if errSet := c.cache.Set(context.Background(), product); errSet != nil {
			logger.FromContext(ctx).Warn("catalog cache set failed", "product_id", id, "error", errSet)
		}
	}()

	return product, nil
}
