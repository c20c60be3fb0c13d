package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// SQLProvider reads the catalog tables living next to the cart tables.
type SQLProvider struct {
	db *sql.DB
}

func NewSQLProvider(db *sql.DB) *SQLProvider {
	return &SQLProvider{db: db}
}

func (p *SQLProvider) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product := &domain.Product{ID: id}
	err := p.db.QueryRowContext(ctx,
		`SELECT name, is_active FROM products WHERE id = $1 AND is_active`, id,
	).Scan(&product.Name, &product.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	if product.Sizes, err = p.sizes(ctx, id); err != nil {
		return nil, err
	}
	if product.Colors, err = p.colors(ctx, id); err != nil {
		return nil, err
	}
	return product, nil
}

func (p *SQLProvider) SizePrice(ctx context.Context, productID int64, size string) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := p.db.QueryRowContext(ctx,
		`SELECT price FROM product_sizes WHERE product_id = $1 AND size = $2`, productID, size,
	).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrSizeNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query size price: %w", err)
	}
	return price, nil
}

func (p *SQLProvider) sizes(ctx context.Context, productID int64) ([]domain.ProductSize, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT size, price, stock_quantity, is_available
		 FROM product_sizes WHERE product_id = $1 ORDER BY size`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query product sizes: %w", err)
	}
	defer rows.Close()

	var sizes []domain.ProductSize
	for rows.Next() {
		var s domain.ProductSize
		if err := rows.Scan(&s.Size, &s.Price, &s.StockQuantity, &s.IsAvailable); err != nil {
			return nil, fmt.Errorf("failed to scan product size: %w", err)
		}
		sizes = append(sizes, s)
	}
	return sizes, rows.Err()
}

func (p *SQLProvider) colors(ctx context.Context, productID int64) ([]domain.Color, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, name, hex_code FROM colors WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query colors: %w", err)
	}
	defer rows.Close()

	var colors []domain.Color
	for rows.Next() {
		var c domain.Color
		if err := rows.Scan(&c.ID, &c.Name, &c.HexCode); err != nil {
			return nil, fmt.Errorf("failed to scan color: %w", err)
		}
		colors = append(colors, c)
	}
	return colors, rows.Err()
}
