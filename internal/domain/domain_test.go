package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCart_Totals(t *testing.T) {
	cart := &Cart{Lines: []CartLine{
		{Quantity: 2, PricePerUnit: dec("15.00")},
		{Quantity: 3, PricePerUnit: dec("1.25")},
	}}

	assert.Equal(t, 5, cart.ItemCount())
	assert.True(t, dec("33.75").Equal(cart.Total()))
	assert.True(t, dec("30").Equal(cart.Lines[0].Total()))
	assert.False(t, cart.IsEmpty())
}

func TestCart_EmptyTotals(t *testing.T) {
	cart := &Cart{}
	assert.Equal(t, 0, cart.ItemCount())
	assert.True(t, cart.Total().IsZero())
	assert.True(t, cart.IsEmpty())
}

func TestProduct_BasePrice(t *testing.T) {
	p := &Product{Sizes: []ProductSize{
		{Size: "M", Price: dec("120")},
		{Size: "S", Price: dec("100")},
		{Size: "L", Price: dec("140")},
	}}
	assert.True(t, dec("100").Equal(p.BasePrice()))

	price, ok := p.SizePrice("L")
	assert.True(t, ok)
	assert.True(t, dec("140").Equal(price))

	_, ok = p.SizePrice("XXL")
	assert.False(t, ok)

	empty := &Product{}
	assert.True(t, empty.BasePrice().IsZero())
}

func TestProduct_HasColor(t *testing.T) {
	p := &Product{Colors: []Color{{ID: 3, Name: "Red"}}}
	assert.True(t, p.HasColor(3))
	assert.False(t, p.HasColor(4))
}

func TestParseOrderStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    OrderStatus
		wantErr bool
	}{
		{in: "pending", want: OrderStatusPending},
		{in: "SHIPPED", want: OrderStatusShipped},
		{in: " cancelled ", want: OrderStatusCancelled},
		{in: "refunded", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOrderStatus(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCustomerInfo_Validate(t *testing.T) {
	c := CustomerInfo{Name: " Ann ", Phone: "123", City: "Riga", Address: "Main st 1"}
	require.NoError(t, c.Validate())
	assert.Equal(t, "Ann", c.Name)

	missing := CustomerInfo{Name: "Ann", Phone: "   ", City: "Riga", Address: "Main st 1"}
	err := missing.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "All customer details are required", err.Error())
}

func TestErrorKinds(t *testing.T) {
	nf := fmt.Errorf("lookup: %w", &NotFoundError{Resource: "product", ID: 7})
	assert.ErrorIs(t, nf, ErrNotFound)
	assert.NotErrorIs(t, nf, ErrValidation)

	var target *NotFoundError
	require.True(t, errors.As(nf, &target))
	assert.Equal(t, "product 7 not found", target.Error())
}

func TestNewOrderCreatedEvent(t *testing.T) {
	color := int64(2)
	o := &Order{
		OrderID:     uuid.New(),
		Customer:    CustomerInfo{Name: "Ann", City: "Riga"},
		TotalAmount: dec("25"),
		Status:      OrderStatusPending,
		Lines: []OrderLine{
			{ProductID: 1, Size: "M", ColorID: &color, Quantity: 2, PricePerUnit: dec("10"), TotalPrice: dec("20")},
			{ProductID: 2, Size: "S", Quantity: 1, PricePerUnit: dec("5"), TotalPrice: dec("5")},
		},
	}

	ev := NewOrderCreatedEvent(o)
	assert.Equal(t, o.OrderID.String(), ev.OrderID)
	assert.Equal(t, "25.00", ev.TotalAmount)
	assert.Equal(t, 3, ev.ItemCount)
	require.Len(t, ev.Items, 2)
	assert.Equal(t, "20.00", ev.Items[0].TotalPrice)
	assert.Nil(t, ev.Items[1].ColorID)
}
