// Package catalog reads products, their size variants and colors from the
// catalog backend. The catalog is read-only from this service's side.
package catalog

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrSizeNotFound    = errors.New("product size not found")
)

type Provider interface {
	// GetProduct returns an active product with sizes ordered by size.
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	// SizePrice returns the current price of one size variant. Deactivated
	// products still resolve, so lines already in a cart can be re-priced.
	SizePrice(ctx context.Context, productID int64, size string) (decimal.Decimal, error)
}
