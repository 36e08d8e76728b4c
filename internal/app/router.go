package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-erp/meridian-erp/internal/billing"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/products"
	"github.com/meridian-erp/meridian-erp/internal/pricing"
	"github.com/meridian-erp/meridian-erp/internal/production"
	"github.com/meridian-erp/meridian-erp/internal/sales/customers"
	"github.com/meridian-erp/meridian-erp/internal/sales/orders"
	"github.com/meridian-erp/meridian-erp/internal/sales/quotations"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	ProductHandler    *products.Handler
	PricingHandler    *pricing.Handler
	CustomerHandler   *customers.Handler
	QuotationHandler  *quotations.Handler
	OrderHandler      *orders.Handler
	ProductionHandler *production.Handler
	BillingHandler    *billing.Handler
	InventoryHandler  *inventory.Handler
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(api chi.Router) {
		params.ProductHandler.MountRoutes(api)
		params.PricingHandler.MountRoutes(api)
		params.CustomerHandler.MountRoutes(api)
		params.QuotationHandler.MountRoutes(api)
		params.OrderHandler.MountRoutes(api)
		params.ProductionHandler.MountRoutes(api)
		params.BillingHandler.MountRoutes(api)
		params.InventoryHandler.MountRoutes(api)
	})

	return r
}
