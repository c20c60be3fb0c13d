package domain

import (
	"time"

	"github.com/fjod/storefront/internal/pricing"
	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps a single cart line, merges included.
const MaxLineQuantity = 10000

// Cart is keyed by the opaque session token. Count and total are derived
// from Lines on every call.
type Cart struct {
	ID           int64
	SessionToken string
	Lines        []CartLine
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CartLine struct {
	ID           int64
	CartID       int64
	ProductID    int64
	Size         string
	ColorID      *int64
	Quantity     int
	PricePerUnit decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (l CartLine) LineQuantity() int              { return l.Quantity }
func (l CartLine) LineUnitPrice() decimal.Decimal { return l.PricePerUnit }

// Total is quantity × price_per_unit.
func (l CartLine) Total() decimal.Decimal {
	return pricing.LineTotal(l.Quantity, l.PricePerUnit)
}

func (c *Cart) Summary() pricing.Summary {
	return pricing.Summarize(c.Lines)
}

func (c *Cart) ItemCount() int {
	return c.Summary().Count
}

func (c *Cart) Total() decimal.Decimal {
	return c.Summary().Total
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
