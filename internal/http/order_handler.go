package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/pricing"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const orderPlacedMessage = "Order placed successfully!"

// OrderEngine is what the order endpoints need from the order service.
type OrderEngine interface {
	CreateOrder(ctx context.Context, sessionToken string, customer domain.CustomerInfo) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status string) (*domain.Order, error)
}

type OrderHandler struct {
	orders   OrderEngine
	validate *validator.Validate
	timeout  time.Duration
	// onCreated runs after every successful checkout.
	onCreated func(*domain.Order)
}

func NewOrderHandler(orders OrderEngine, timeout time.Duration, onCreated func(*domain.Order)) *OrderHandler {
	if onCreated == nil {
		onCreated = func(*domain.Order) {}
	}
	return &OrderHandler{
		orders:    orders,
		validate:  newValidator(),
		timeout:   timeout,
		onCreated: onCreated,
	}
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateOrderRequestDTO
	if err := decodeRequest(w, r, h.validate, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	order, err := h.orders.CreateOrder(ctx, SessionFromContext(r.Context()), domain.CustomerInfo{
		Name:    req.CustomerName,
		Phone:   req.CustomerPhone,
		City:    req.CustomerCity,
		Address: req.CustomerAddress,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.onCreated(order)

	respondJSON(w, http.StatusOK, CreateOrderResponse{
		Success: true,
		OrderID: order.OrderID.String(),
		Message: orderPlacedMessage,
	})
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.GetOrder(ctx, chi.URLParam(r, "order_id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, OrderResponse{Success: true, Order: toOrderDTO(order)})
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateStatusRequestDTO
	if err := decodeRequest(w, r, h.validate, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	order, err := h.orders.UpdateOrderStatus(ctx, chi.URLParam(r, "order_id"), req.Status)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, OrderResponse{Success: true, Order: toOrderDTO(order)})
}

func toOrderDTO(o *domain.Order) OrderDTO {
	dto := OrderDTO{
		OrderID:         o.OrderID.String(),
		Status:          string(o.Status),
		CustomerName:    o.Customer.Name,
		CustomerPhone:   o.Customer.Phone,
		CustomerCity:    o.Customer.City,
		CustomerAddress: o.Customer.Address,
		TotalAmount:     pricing.Format(o.TotalAmount),
		Items:           make([]OrderLineDTO, 0, len(o.Lines)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, l := range o.Lines {
		dto.Items = append(dto.Items, OrderLineDTO{
			ProductID:    l.ProductID,
			Size:         l.Size,
			ColorID:      l.ColorID,
			Quantity:     l.Quantity,
			PricePerUnit: pricing.Format(l.PricePerUnit),
			TotalPrice:   pricing.Format(l.TotalPrice),
		})
	}
	return dto
}
