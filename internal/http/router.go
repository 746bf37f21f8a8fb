package http

import (
	"net/http"

	"tradeflow/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter mounts the API. A nil m leaves out request metrics and /metrics.
func NewRouter(handler *Handler, log *zap.Logger, m *metrics.Metrics) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(Recoverer(log))
	r.Use(Timeout)
	r.Use(CORS)

	r.Get("/healthz", handler.Health)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/dashboard", handler.Dashboard)
		r.Get("/stock", handler.StockPositions)
		r.Get("/receivables/aging", handler.ReceivablesAging)
		r.Get("/trace/{lot}", handler.Trace)

		r.Post("/costing/calculate", handler.CalculateCosting)
		r.Post("/purchase-orders/{id}/costing/preview", handler.PreviewOrderCosting)
		r.Post("/purchase-orders/{id}/costing/apply", handler.ApplyOrderCosting)

		r.Post("/import/products", handler.ImportProducts)
		r.Post("/import/partners", handler.ImportPartners)
	})

	return r
}
