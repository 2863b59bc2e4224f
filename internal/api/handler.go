package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"customer-insights-engine/internal/dataset"
	"customer-insights-engine/internal/engine"
)

// Handler maps the query engine and the dataset loader onto HTTP.
type Handler struct {
	eng    *engine.Engine
	loader *dataset.Loader
}

func NewHandler(eng *engine.Engine, loader *dataset.Loader) *Handler {
	return &Handler{eng: eng, loader: loader}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain failures onto status codes: a bad argument is the
// caller's fault, a dataset that cannot be loaded is a 503 the caller may
// retry (or force with a reload), anything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var loadErr *dataset.LoadError
	switch {
	case errors.Is(err, engine.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.As(err, &loadErr):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// queryInt reads an optional integer query parameter, falling back to def.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return n, nil
}

// queryFloat reads a required numeric query parameter.
func queryFloat(r *http.Request, key string) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, errors.New(key + " is required")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New(key + " must be a number")
	}
	return f, nil
}

func (h *Handler) CustomerNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.eng.CustomerNames(r.Context())
	h.respond(w, names, err)
}

func (h *Handler) ConcatCustomerNames(w http.ResponseWriter, r *http.Request) {
	joined, err := h.eng.ConcatCustomerNames(r.Context())
	h.respond(w, map[string]string{"names": joined}, err)
}

func (h *Handler) CustomerOrders(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer id must be an integer"})
		return
	}
	orders, err := h.eng.OrdersForCustomer(r.Context(), id)
	h.respond(w, orders, err)
}

func (h *Handler) LatestOrders(w http.ResponseWriter, r *http.Request) {
	latest, err := h.eng.LatestOrderPerCustomer(r.Context())
	h.respond(w, latest, err)
}

func (h *Handler) Spending(w http.ResponseWriter, r *http.Request) {
	spending, err := h.eng.SpendingPerCustomer(r.Context())
	h.respond(w, spending, err)
}

func (h *Handler) SpendingOver(w http.ResponseWriter, r *http.Request) {
	amount, err := queryFloat(r, "amount")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	customers, err := h.eng.CustomersSpendingOver(r.Context(), amount)
	h.respond(w, customers, err)
}

func (h *Handler) BigSpenders(w http.ResponseWriter, r *http.Request) {
	threshold, err := queryFloat(r, "threshold")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	customers, err := h.eng.BigSpenders(r.Context(), threshold)
	h.respond(w, customers, err)
}

func (h *Handler) TopExpensiveProducts(w http.ResponseWriter, r *http.Request) {
	top, err := queryInt(r, "top", 10)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	products, err := h.eng.TopExpensiveProducts(r.Context(), top)
	h.respond(w, products, err)
}

func (h *Handler) MostExpensiveProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.eng.MostExpensiveProduct(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if product == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handler) FrequentProducts(w http.ResponseWriter, r *http.Request) {
	top, err := queryInt(r, "top", 10)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	counts, err := h.eng.FrequentlyPurchasedProducts(r.Context(), top)
	h.respond(w, counts, err)
}

func (h *Handler) AllHaveOrders(w http.ResponseWriter, r *http.Request) {
	ok, err := h.eng.AllCustomersHaveOrders(r.Context())
	h.respond(w, map[string]bool{"result": ok}, err)
}

func (h *Handler) AnySpentOver(w http.ResponseWriter, r *http.Request) {
	amount, err := queryFloat(r, "amount")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	ok, err := h.eng.AnyCustomerSpentOver(r.Context(), amount)
	h.respond(w, map[string]bool{"result": ok}, err)
}

func (h *Handler) NoEmptyEmail(w http.ResponseWriter, r *http.Request) {
	ok, err := h.eng.NoCustomerHasEmptyEmail(r.Context())
	h.respond(w, map[string]bool{"result": ok}, err)
}

func (h *Handler) TotalRevenue(w http.ResponseWriter, r *http.Request) {
	total, err := h.eng.TotalRevenue(r.Context())
	h.respond(w, map[string]float64{"total": total}, err)
}

func (h *Handler) TotalRevenueParallel(w http.ResponseWriter, r *http.Request) {
	total, err := h.eng.TotalRevenueParallel(r.Context())
	h.respond(w, map[string]float64{"total": total}, err)
}

func (h *Handler) ReloadDataset(w http.ResponseWriter, r *http.Request) {
	customers, err := h.loader.ReloadCustomers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"customers": len(customers)})
}
