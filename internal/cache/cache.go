package cache

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/domain"
)

// ProductCache holds catalog products for a bounded TTL. Entries are never
// invalidated; they expire.
type ProductCache interface {
	Get(ctx context.Context, productID int64) (*domain.Product, error)
	Set(ctx context.Context, product *domain.Product) error
}

var ErrCacheMiss = errors.New("cache miss")
