package domain

import (
	"time"

	"github.com/fjod/storefront/internal/pricing"
)

const EventTypeOrderCreated = "order.created"

type OrderCreatedEvent struct {
	OrderID     string               `json:"order_id"`
	Status      string               `json:"status"`
	TotalAmount string               `json:"total_amount"`
	ItemCount   int                  `json:"item_count"`
	Items       []OrderCreatedItem   `json:"items"`
	Customer    OrderCreatedCustomer `json:"customer"`
	CreatedAt   time.Time            `json:"created_at"`
}

type OrderCreatedItem struct {
	ProductID    int64  `json:"product_id"`
	Size         string `json:"size"`
	ColorID      *int64 `json:"color_id,omitempty"`
	Quantity     int    `json:"quantity"`
	PricePerUnit string `json:"price_per_unit"`
	TotalPrice   string `json:"total_price"`
}

type OrderCreatedCustomer struct {
	Name string `json:"name"`
	City string `json:"city"`
}

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	ev := OrderCreatedEvent{
		OrderID:     o.OrderID.String(),
		Status:      string(o.Status),
		TotalAmount: pricing.Format(o.TotalAmount),
		Items:       make([]OrderCreatedItem, 0, len(o.Lines)),
		Customer:    OrderCreatedCustomer{Name: o.Customer.Name, City: o.Customer.City},
		CreatedAt:   o.CreatedAt,
	}
	for _, l := range o.Lines {
		ev.ItemCount += l.Quantity
		ev.Items = append(ev.Items, OrderCreatedItem{
			ProductID:    l.ProductID,
			Size:         l.Size,
			ColorID:      l.ColorID,
			Quantity:     l.Quantity,
			PricePerUnit: pricing.Format(l.PricePerUnit),
			TotalPrice:   pricing.Format(l.TotalPrice),
		})
	}
	return ev
}
