package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterDeps struct {
	Carts          *CartHandler
	Orders         *OrderHandler
	Session        SessionConfig
	AdminAPIKey    string
	Metrics        *metrics.ServerMetrics
	MetricsHandler http.Handler
	Logger         *slog.Logger
	RequestTimeout time.Duration
}

func NewRouter(d RouterDeps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(d.Logger))
	r.Use(middleware.Recoverer)
	if d.Metrics != nil {
		r.Use(MetricsMiddleware(d.Metrics))
	}
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(d.Session))

			r.Get("/cart", d.Carts.GetCart)
			r.Post("/cart/add", d.Carts.AddItem)
			r.Post("/cart/update", d.Carts.UpdateItem)
			r.Post("/cart/remove", d.Carts.RemoveItem)
			r.Post("/create-order", d.Orders.CreateOrder)
			r.Get("/orders/{order_id}", d.Orders.GetOrder)
		})

		r.Get("/product-sizes", d.Carts.ProductSizes)

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminKeyMiddleware(d.AdminAPIKey))
			r.Patch("/orders/{order_id}/status", d.Orders.UpdateStatus)
		})
	})

	return r
}
