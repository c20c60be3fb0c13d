package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type AddItemRequestDTO struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Size      string `json:"size" validate:"required,max=10"`
	ColorID   *int64 `json:"color_id" validate:"omitempty,gt=0"`
	Quantity  *int   `json:"quantity" validate:"omitempty,min=1,max=10000"`
}

type UpdateItemRequestDTO struct {
	ItemID   int64 `json:"item_id" validate:"required,gt=0"`
	Quantity *int  `json:"quantity" validate:"omitempty,max=10000"`
}

type RemoveItemRequestDTO struct {
	ItemID int64 `json:"item_id" validate:"required,gt=0"`
}

// Blank customer fields are reported by the order engine.
type CreateOrderRequestDTO struct {
	CustomerName    string `json:"customer_name" validate:"max=200"`
	CustomerPhone   string `json:"customer_phone" validate:"max=20"`
	CustomerCity    string `json:"customer_city" validate:"max=100"`
	CustomerAddress string `json:"customer_address"`
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status" validate:"required"`
}

type AddItemResponse struct {
	Success   bool   `json:"success"`
	CartCount int    `json:"cart_count"`
	CartTotal string `json:"cart_total"`
}

type UpdateItemResponse struct {
	Success   bool   `json:"success"`
	ItemTotal string `json:"item_total"`
	CartTotal string `json:"cart_total"`
	CartCount int    `json:"cart_count"`
}

type RemoveItemResponse struct {
	Success   bool   `json:"success"`
	CartTotal string `json:"cart_total"`
	CartCount int    `json:"cart_count"`
}

type CartItemDTO struct {
	ItemID       int64  `json:"item_id"`
	ProductID    int64  `json:"product_id"`
	Size         string `json:"size"`
	ColorID      *int64 `json:"color_id"`
	Quantity     int    `json:"quantity"`
	PricePerUnit string `json:"price_per_unit"`
	Total        string `json:"total"`
}

type CartResponse struct {
	Success   bool          `json:"success"`
	CartCount int           `json:"cart_count"`
	CartTotal string        `json:"cart_total"`
	Items     []CartItemDTO `json:"items"`
}

type CreateOrderResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id"`
	Message string `json:"message"`
}

type SizeDTO struct {
	Size  string `json:"size"`
	Price string `json:"price"`
}

type ProductSizesResponse struct {
	Success bool      `json:"success"`
	Sizes   []SizeDTO `json:"sizes"`
}

type OrderLineDTO struct {
	ProductID    int64  `json:"product_id"`
	Size         string `json:"size"`
	ColorID      *int64 `json:"color_id"`
	Quantity     int    `json:"quantity"`
	PricePerUnit string `json:"price_per_unit"`
	TotalPrice   string `json:"total_price"`
}

type OrderDTO struct {
	OrderID         string         `json:"order_id"`
	Status          string         `json:"status"`
	CustomerName    string         `json:"customer_name"`
	CustomerPhone   string         `json:"customer_phone"`
	CustomerCity    string         `json:"customer_city"`
	CustomerAddress string         `json:"customer_address"`
	TotalAmount     string         `json:"total_amount"`
	Items           []OrderLineDTO `json:"items"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type OrderResponse struct {
	Success bool     `json:"success"`
	Order   OrderDTO `json:"order"`
}

const maxBodyBytes = 1 << 20

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeRequest reads a JSON body into dst, rejecting unknown fields, and
// validates it. The returned error message is safe to show to clients.
func decodeRequest(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is required")
		case errors.As(err, &typeErr):
			return fmt.Errorf("%s must be a %s", typeErr.Field, typeErr.Type.Kind())
		case strings.HasPrefix(err.Error(), "json: unknown field"):
			return fmt.Errorf("unknown field %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
		default:
			return errors.New("invalid JSON body")
		}
	}

	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.New(describe(verrs[0]))
		}
		return err
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}
