package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

type AddItemInput struct {
	ProductID int64
	Size      string
	ColorID   *int64
	Quantity  int
}

type CartService struct {
	repo    repository.CartRepository
	catalog catalog.Provider
}

func NewCartService(repo repository.CartRepository, catalog catalog.Provider) *CartService {
	return &CartService{
		repo:    repo,
		catalog: catalog,
	}
}

// GetOrCreateCart returns the session's cart, creating an empty one on first use.
func (s *CartService) GetOrCreateCart(ctx context.Context, sessionToken string) (*domain.Cart, error) {
	if err := requireSession(sessionToken); err != nil {
		return nil, err
	}
	cart, err := s.repo.EnsureCart(ctx, sessionToken)
	if err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "ensure cart failed", "error", err)
		return nil, err
	}
	return cart, nil
}

// AddItem puts a product variant into the cart. A new line is priced at the
// product's base price; adding an existing product/size/color combination
// increases that line's quantity instead.
func (s *CartService) AddItem(ctx context.Context, sessionToken string, in AddItemInput) (*domain.CartLine, error) {
	if err := requireSession(sessionToken); err != nil {
		return nil, err
	}
	in.Size = strings.TrimSpace(in.Size)
	if in.ProductID == 0 || in.Size == "" {
		return nil, &domain.ValidationError{Field: "size", Message: "Product ID and size are required"}
	}
	if err := checkQuantity(in.Quantity); err != nil {
		return nil, err
	}

	product, err := s.product(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if in.ColorID != nil && !product.HasColor(*in.ColorID) {
		return nil, &domain.NotFoundError{Resource: "color", ID: *in.ColorID}
	}

	line, err := s.repo.AddLine(ctx, sessionToken, domain.CartLine{
		ProductID:    product.ID,
		Size:         in.Size,
		ColorID:      in.ColorID,
		Quantity:     in.Quantity,
		PricePerUnit: product.BasePrice(),
	})
	if errors.Is(err, repository.ErrQuantityLimit) {
		return nil, quantityLimitError()
	}
	if err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "repo add line failed", "product_id", in.ProductID, "error", err)
		return nil, err
	}
	return line, nil
}

// UpdateItemQuantity sets a line's quantity and re-prices it from its exact
// size variant, even for a product no longer listed. When that variant is
// gone the captured price stays.
func (s *CartService) UpdateItemQuantity(ctx context.Context, sessionToken string, lineID int64, quantity int) (*domain.CartLine, error) {
	if err := requireSession(sessionToken); err != nil {
		return nil, err
	}
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}

	line, err := s.repo.GetLine(ctx, sessionToken, lineID)
	if err != nil {
		return nil, lineError(lineID, err)
	}

	var price *decimal.Decimal
	current, err := s.catalog.SizePrice(ctx, line.ProductID, line.Size)
	switch {
	case err == nil:
		price = &current
	case errors.Is(err, catalog.ErrSizeNotFound):
	default:
		logger.FromContext(ctx).ErrorContext(ctx, "size price lookup failed", "product_id", line.ProductID, "error", err)
		return nil, fmt.Errorf("catalog lookup: %w", err)
	}

	updated, err := s.repo.UpdateLine(ctx, sessionToken, lineID, quantity, price)
	if err != nil {
		return nil, lineError(lineID, err)
	}
	return updated, nil
}

// RemoveItem deletes a line and returns the cart as it is afterwards.
func (s *CartService) RemoveItem(ctx context.Context, sessionToken string, lineID int64) (*domain.Cart, error) {
	if err := requireSession(sessionToken); err != nil {
		return nil, err
	}
	cart, err := s.repo.RemoveLine(ctx, sessionToken, lineID)
	if err != nil {
		return nil, lineError(lineID, err)
	}
	return cart, nil
}

// ProductSizes lists a product's size variants ordered by size.
func (s *CartService) ProductSizes(ctx context.Context, productID int64) ([]domain.ProductSize, error) {
	product, err := s.product(ctx, productID)
	if err != nil {
		return nil, err
	}
	return product.Sizes, nil
}

func (s *CartService) product(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.catalog.GetProduct(ctx, id)
	if errors.Is(err, catalog.ErrProductNotFound) {
		return nil, &domain.NotFoundError{Resource: "product", ID: id}
	}
	if err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "catalog lookup failed", "product_id", id, "error", err)
		return nil, fmt.Errorf("catalog lookup: %w", err)
	}
	return product, nil
}

func lineError(lineID int64, err error) error {
	if errors.Is(err, repository.ErrLineNotFound) {
		return &domain.NotFoundError{Resource: "cart item", ID: lineID}
	}
	return err
}

func checkQuantity(q int) error {
	if q < 1 {
		return &domain.ValidationError{Field: "quantity", Message: "Quantity must be at least 1"}
	}
	if q > domain.MaxLineQuantity {
		return quantityLimitError()
	}
	return nil
}

func quantityLimitError() error {
	return &domain.ValidationError{
		Field:   "quantity",
		Message: fmt.Sprintf("Quantity must be at most %d", domain.MaxLineQuantity),
	}
}

func requireSession(token string) error {
	if token == "" {
		return &domain.ValidationError{Field: "session", Message: "session token is required"}
	}
	return nil
}
