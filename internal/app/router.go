package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/engffsantos/easyStock360/internal/credit"
	"github.com/engffsantos/easyStock360/internal/customers"
	"github.com/engffsantos/easyStock360/internal/finance"
	"github.com/engffsantos/easyStock360/internal/inventory"
	"github.com/engffsantos/easyStock360/internal/observability"
	"github.com/engffsantos/easyStock360/internal/returns"
	"github.com/engffsantos/easyStock360/internal/sales"
	"github.com/engffsantos/easyStock360/internal/settings"
	"github.com/engffsantos/easyStock360/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger      *slog.Logger
	Config      *Config
	Idempotency IdempotencyPort
	Metrics     *observability.Metrics

	InventoryHandler *inventory.Handler
	CustomersHandler *customers.Handler
	CreditHandler    *credit.Handler
	SalesHandler     *sales.Handler
	ReturnsHandler   *returns.Handler
	FinanceHandler   *finance.Handler
	SettingsHandler  *settings.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with backoffice defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:      params.Logger,
		Config:      params.Config,
		Idempotency: params.Idempotency,
		Metrics:     params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.InventoryHandler != nil {
		r.Route("/inventory", params.InventoryHandler.MountRoutes)
	}
	r.Route("/customers", func(r chi.Router) {
		if params.CustomersHandler != nil {
			params.CustomersHandler.MountRoutes(r)
		}
		if params.CreditHandler != nil {
			params.CreditHandler.MountRoutes(r)
		}
		if params.SalesHandler != nil {
			params.SalesHandler.MountCustomerRoutes(r)
		}
	})
	if params.SalesHandler != nil {
		r.Route("/sales", params.SalesHandler.MountRoutes)
	}
	if params.ReturnsHandler != nil {
		r.Route("/returns", params.ReturnsHandler.MountRoutes)
	}
	if params.FinanceHandler != nil {
		r.Route("/finance", params.FinanceHandler.MountRoutes)
	}
	if params.SettingsHandler != nil {
		r.Route("/settings", params.SettingsHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
