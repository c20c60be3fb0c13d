package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// ParseOrderStatus accepts the status names case-insensitively.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", &ValidationError{Field: "status", Message: fmt.Sprintf("invalid order status %q", s)}
	}
	return status, nil
}

type CustomerInfo struct {
	Name    string
	Phone   string
	City    string
	Address string
}

// Validate trims every field and requires all four to be present.
func (c *CustomerInfo) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.City = strings.TrimSpace(c.City)
	c.Address = strings.TrimSpace(c.Address)

	if c.Name == "" || c.Phone == "" || c.City == "" || c.Address == "" {
		return &ValidationError{Field: "customer", Message: "All customer details are required"}
	}
	return nil
}

// Order is immutable after creation except for Status.
type Order struct {
	ID          int64
	OrderID     uuid.UUID
	Customer    CustomerInfo
	TotalAmount decimal.Decimal
	Status      OrderStatus
	Lines       []OrderLine
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderLine is a frozen copy of a cart line. TotalPrice is stored, not derived.
type OrderLine struct {
	ID           int64
	OrderID      int64
	ProductID    int64
	Size         string
	ColorID      *int64
	Quantity     int
	PricePerUnit decimal.Decimal
	TotalPrice   decimal.Decimal
}
