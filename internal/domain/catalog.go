package domain

import (
	"github.com/fjod/storefront/internal/pricing"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name"`
	IsActive bool          `json:"is_active"`
	Sizes    []ProductSize `json:"sizes"`
	Colors   []Color       `json:"colors"`
}

type ProductSize struct {
	Size          string          `json:"size"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	IsAvailable   bool            `json:"is_available"`
}

type Color struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	HexCode string `json:"hex_code"`
}

// BasePrice is the lowest size price, or zero for a product without sizes.
func (p *Product) BasePrice() decimal.Decimal {
	prices := make([]decimal.Decimal, 0, len(p.Sizes))
	for _, s := range p.Sizes {
		prices = append(prices, s.Price)
	}
	return pricing.BasePrice(prices)
}

// SizePrice returns the price of the exact size variant.
func (p *Product) SizePrice(size string) (decimal.Decimal, bool) {
	for _, s := range p.Sizes {
		if s.Size == size {
			return s.Price, true
		}
	}
	return decimal.Zero, false
}

func (p *Product) HasColor(id int64) bool {
	for _, c := range p.Colors {
		if c.ID == id {
			return true
		}
	}
	return false
}
