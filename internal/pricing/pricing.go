// Package pricing holds the monetary arithmetic shared by carts and orders.
package pricing

import "github.com/shopspring/decimal"

// Line is anything with a quantity and a captured unit price.
type Line interface {
	LineQuantity() int
	LineUnitPrice() decimal.Decimal
}

// Summary is the derived count/amount of a set of lines.
type Summary struct {
	Count int
	Total decimal.Decimal
}

// LineTotal returns quantity × unit price.
func LineTotal(quantity int, unit decimal.Decimal) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}

// Summarize recomputes count and total from the given lines. Nothing is cached.
func Summarize[L Line](lines []L) Summary {
	s := Summary{Total: decimal.Zero}
	for _, l := range lines {
		s.Count += l.LineQuantity()
		s.Total = s.Total.Add(LineTotal(l.LineQuantity(), l.LineUnitPrice()))
	}
	return s
}

// BasePrice is the lowest of the given prices, or zero when there are none.
func BasePrice(prices []decimal.Decimal) decimal.Decimal {
	if len(prices) == 0 {
		return decimal.Zero
	}
	return decimal.Min(prices[0], prices[1:]...)
}

// Format renders an amount the way it goes over the wire: a decimal string
// with two fractional digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
