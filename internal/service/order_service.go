package service

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/pricing"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/google/uuid"
)

type OrderService struct {
	repo repository.OrderRepository
}

func NewOrderService(repo repository.OrderRepository) *OrderService {
	return &OrderService{repo: repo}
}

// CreateOrder checks the session's cart out into a pending order. The order
// keeps a frozen copy of every line and the cart is left empty.
func (s *OrderService) CreateOrder(ctx context.Context, sessionToken string, customer domain.CustomerInfo) (*domain.Order, error) {
	if err := requireSession(sessionToken); err != nil {
		return nil, err
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}

	order, err := s.repo.PlaceOrder(ctx, sessionToken, func(cart *domain.Cart) (*domain.Order, error) {
		return snapshot(cart, customer)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrEmptyCart) {
			logger.FromContext(ctx).ErrorContext(ctx, "place order failed", "error", err)
		}
		return nil, err
	}

	logger.FromContext(ctx).InfoContext(ctx, "order created",
		"order_id", order.OrderID.String(),
		"total_amount", pricing.Format(order.TotalAmount),
		"lines", len(order.Lines))
	return order, nil
}

func snapshot(cart *domain.Cart, customer domain.CustomerInfo) (*domain.Order, error) {
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	order := &domain.Order{
		OrderID:     uuid.New(),
		Customer:    customer,
		TotalAmount: cart.Total(),
		Status:      domain.OrderStatusPending,
		Lines:       make([]domain.OrderLine, 0, len(cart.Lines)),
	}
	for _, l := range cart.Lines {
		order.Lines = append(order.Lines, domain.OrderLine{
			ProductID:    l.ProductID,
			Size:         l.Size,
			ColorID:      l.ColorID,
			Quantity:     l.Quantity,
			PricePerUnit: l.PricePerUnit,
			TotalPrice:   l.Total(),
		})
	}
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, &domain.NotFoundError{Resource: "order", ID: orderID}
	}

	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, orderError(orderID, err)
	}
	return order, nil
}

// UpdateOrderStatus sets any of the known statuses. Transitions are not checked.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, status string) (*domain.Order, error) {
	st, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, &domain.NotFoundError{Resource: "order", ID: orderID}
	}

	order, err := s.repo.UpdateOrderStatus(ctx, id, st)
	if err != nil {
		return nil, orderError(orderID, err)
	}

	logger.FromContext(ctx).InfoContext(ctx, "order status updated", "order_id", orderID, "status", string(st))
	return order, nil
}

func orderError(orderID string, err error) error {
	if errors.Is(err, repository.ErrOrderNotFound) {
		return &domain.NotFoundError{Resource: "order", ID: orderID}
	}
	return err
}
