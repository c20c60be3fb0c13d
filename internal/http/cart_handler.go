package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/pricing"
	"github.com/fjod/storefront/internal/service"
	"github.com/go-playground/validator/v10"
)

// CartEngine is what the cart endpoints need from the cart service.
type CartEngine interface {
	GetOrCreateCart(ctx context.Context, sessionToken string) (*domain.Cart, error)
	AddItem(ctx context.Context, sessionToken string, in service.AddItemInput) (*domain.CartLine, error)
	UpdateItemQuantity(ctx context.Context, sessionToken string, lineID int64, quantity int) (*domain.CartLine, error)
	RemoveItem(ctx context.Context, sessionToken string, lineID int64) (*domain.Cart, error)
	ProductSizes(ctx context.Context, productID int64) ([]domain.ProductSize, error)
}

type CartHandler struct {
	carts    CartEngine
	validate *validator.Validate
	timeout  time.Duration
}

func NewCartHandler(carts CartEngine, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:    carts,
		validate: newValidator(),
		timeout:  timeout,
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.GetOrCreateCart(ctx, SessionFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := CartResponse{
		Success:   true,
		CartCount: cart.ItemCount(),
		CartTotal: pricing.Format(cart.Total()),
		Items:     make([]CartItemDTO, 0, len(cart.Lines)),
	}
	for _, l := range cart.Lines {
		resp.Items = append(resp.Items, CartItemDTO{
			ItemID:       l.ID,
			ProductID:    l.ProductID,
			Size:         l.Size,
			ColorID:      l.ColorID,
			Quantity:     l.Quantity,
			PricePerUnit: pricing.Format(l.PricePerUnit),
			Total:        pricing.Format(l.Total()),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := decodeRequest(w, r, h.validate, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	session := SessionFromContext(r.Context())
	_, err := h.carts.AddItem(ctx, session, service.AddItemInput{
		ProductID: req.ProductID,
		Size:      req.Size,
		ColorID:   req.ColorID,
		Quantity:  quantity,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	cart, err := h.carts.GetOrCreateCart(ctx, session)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, AddItemResponse{
		Success:   true,
		CartCount: cart.ItemCount(),
		CartTotal: pricing.Format(cart.Total()),
	})
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateItemRequestDTO
	if err := decodeRequest(w, r, h.validate, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	session := SessionFromContext(r.Context())
	line, err := h.carts.UpdateItemQuantity(ctx, session, req.ItemID, quantity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	cart, err := h.carts.GetOrCreateCart(ctx, session)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, UpdateItemResponse{
		Success:   true,
		ItemTotal: pricing.Format(line.Total()),
		CartTotal: pricing.Format(cart.Total()),
		CartCount: cart.ItemCount(),
	})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RemoveItemRequestDTO
	if err := decodeRequest(w, r, h.validate, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	cart, err := h.carts.RemoveItem(ctx, SessionFromContext(r.Context()), req.ItemID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, RemoveItemResponse{
		Success:   true,
		CartTotal: pricing.Format(cart.Total()),
		CartCount: cart.ItemCount(),
	})
}

func (h *CartHandler) ProductSizes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	raw := r.URL.Query().Get("product_id")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "Product ID is required")
		return
	}
	productID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "product_id must be a positive integer")
		return
	}

	sizes, err := h.carts.ProductSizes(ctx, productID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := ProductSizesResponse{Success: true, Sizes: make([]SizeDTO, 0, len(sizes))}
	for _, s := range sizes {
		resp.Sizes = append(resp.Sizes, SizeDTO{Size: s.Size, Price: pricing.Format(s.Price)})
	}
	respondJSON(w, http.StatusOK, resp)
}
