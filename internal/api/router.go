package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"customer-insights-engine/internal/observability"
)

func Router(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(observability.Measure)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/customers", func(r chi.Router) {
			r.Get("/names", h.CustomerNames)
			r.Get("/names/concatenated", h.ConcatCustomerNames)
			r.Get("/{id}/orders", h.CustomerOrders)
			r.Get("/latest-orders", h.LatestOrders)
			r.Get("/spending", h.Spending)
			r.Get("/spending/over", h.SpendingOver)
			r.Get("/big-spenders", h.BigSpenders)
			r.Get("/checks/all-have-orders", h.AllHaveOrders)
			r.Get("/checks/any-spent-over", h.AnySpentOver)
			r.Get("/checks/no-empty-email", h.NoEmptyEmail)
		})
		r.Route("/products", func(r chi.Router) {
			r.Get("/expensive", h.TopExpensiveProducts)
			r.Get("/most-expensive", h.MostExpensiveProduct)
			r.Get("/frequent", h.FrequentProducts)
		})
		r.Route("/revenue", func(r chi.Router) {
			r.Get("/total", h.TotalRevenue)
			r.Get("/total-parallel", h.TotalRevenueParallel)
		})
		r.Post("/dataset/reload", h.ReloadDataset)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", observability.MetricsHandler())
	return r
}
