package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"customer-insights-engine/internal/dataset"
	"customer-insights-engine/internal/engine"
)

type fakeSource struct {
	mu   sync.Mutex
	data []dataset.Customer
	err  error
}

func (s *fakeSource) Name() string { return "test" }

func (s *fakeSource) Load(context.Context) ([]dataset.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

func (s *fakeSource) set(data []dataset.Customer, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data, s.err = data, err
}

func storeFixture() []dataset.Customer {
	return []dataset.Customer{
		{
			ID: 1, Name: "Alice", Email: "alice@example.com",
			Orders: []dataset.Order{{
				ID: 101, Date: "2025-09-29",
				Products: []dataset.Product{
					{ID: 1, Name: "Laptop", Price: 1000.0, Quantity: 2},
					{ID: 2, Name: "Phone", Price: 500.0, Quantity: 3},
				},
			}},
		},
		{
			ID: 2, Name: "Bob", Email: "bob@example.com",
			Orders: []dataset.Order{{
				ID: 102, Date: "2025-09-30",
				Products: []dataset.Product{
					{ID: 2, Name: "Phone", Price: 500.0, Quantity: 1},
				},
			}},
		},
	}
}

func newTestRouter(src dataset.Source) http.Handler {
	ld := dataset.NewLoader(src)
	return Router(NewHandler(engine.NewEngine(ld, 2), ld))
}

func get(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func post(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, nil))
	return rec
}

func TestRouter_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantStatus int
		wantBody   string // JSON, checked when status is 200
	}{
		{"customer names", "/v1/customers/names", http.StatusOK, `["Alice","Bob"]`},
		{"concatenated names", "/v1/customers/names/concatenated", http.StatusOK, `{"names":"Alice, Bob"}`},
		{
			"orders for customer", "/v1/customers/1/orders", http.StatusOK,
			`[{"orderId":101,"date":"2025-09-29","products":[
				{"id":1,"name":"Laptop","price":1000,"quantity":2},
				{"id":2,"name":"Phone","price":500,"quantity":3}]}]`,
		},
		{"orders for unknown customer", "/v1/customers/99/orders", http.StatusOK, `[]`},
		{"orders with bad id", "/v1/customers/abc/orders", http.StatusBadRequest, ""},
		{"spending per customer", "/v1/customers/spending", http.StatusOK, `{"Alice":3500,"Bob":500}`},
		{"spending over excludes boundary", "/v1/customers/spending/over?amount=500", http.StatusOK, ""},
		{"spending over missing amount", "/v1/customers/spending/over", http.StatusBadRequest, ""},
		{"spending over bad amount", "/v1/customers/spending/over?amount=lots", http.StatusBadRequest, ""},
		{"big spenders missing threshold", "/v1/customers/big-spenders", http.StatusBadRequest, ""},
		{"all have orders", "/v1/customers/checks/all-have-orders", http.StatusOK, `{"result":true}`},
		{"any spent over", "/v1/customers/checks/any-spent-over?amount=3000", http.StatusOK, `{"result":true}`},
		{"any spent over boundary", "/v1/customers/checks/any-spent-over?amount=3500", http.StatusOK, `{"result":false}`},
		{"no empty email", "/v1/customers/checks/no-empty-email", http.StatusOK, `{"result":true}`},
		{
			"top expensive products", "/v1/products/expensive?top=1", http.StatusOK,
			`[{"id":1,"name":"Laptop","price":1000,"quantity":2}]`,
		},
		{
			"top expensive default keeps stable order", "/v1/products/expensive", http.StatusOK,
			`[{"id":1,"name":"Laptop","price":1000,"quantity":2},
			  {"id":2,"name":"Phone","price":500,"quantity":3},
			  {"id":2,"name":"Phone","price":500,"quantity":1}]`,
		},
		{"top expensive zero", "/v1/products/expensive?top=0", http.StatusBadRequest, ""},
		{"top expensive not a number", "/v1/products/expensive?top=x", http.StatusBadRequest, ""},
		{"most expensive product", "/v1/products/most-expensive", http.StatusOK, `{"id":1,"name":"Laptop","price":1000,"quantity":2}`},
		{"frequent products", "/v1/products/frequent?top=1", http.StatusOK, `[{"name":"Phone","count":2}]`},
		{"frequent products all", "/v1/products/frequent", http.StatusOK, `[{"name":"Phone","count":2},{"name":"Laptop","count":1}]`},
		{"frequent products negative top", "/v1/products/frequent?top=-1", http.StatusBadRequest, ""},
		{"total revenue", "/v1/revenue/total", http.StatusOK, `{"total":4000}`},
		{"total revenue parallel", "/v1/revenue/total-parallel", http.StatusOK, `{"total":4000}`},
	}

	router := newTestRouter(&fakeSource{data: storeFixture()})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, tt.url)
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusBadRequest {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestSpendingOverAndBigSpendersAgree(t *testing.T) {
	router := newTestRouter(&fakeSource{data: storeFixture()})

	rec := get(t, router, "/v1/customers/spending/over?amount=499.99")
	require.Equal(t, http.StatusOK, rec.Code)
	var serial []dataset.Customer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &serial))
	require.Len(t, serial, 2)
	assert.Equal(t, "Alice", serial[0].Name)
	assert.Equal(t, "Bob", serial[1].Name)

	rec = get(t, router, "/v1/customers/big-spenders?threshold=499.99")
	require.Equal(t, http.StatusOK, rec.Code)
	var parallel []dataset.Customer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parallel))
	assert.Equal(t, serial, parallel)
}

func TestLatestOrdersKeepsOrderlessCustomers(t *testing.T) {
	src := &fakeSource{data: append(storeFixture(), dataset.Customer{ID: 3, Name: "Charlie", Email: "charlie@example.com"})}
	router := newTestRouter(src)

	rec := get(t, router, "/v1/customers/latest-orders")
	require.Equal(t, http.StatusOK, rec.Code)

	var latest map[string]*dataset.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &latest))
	require.Len(t, latest, 3)

	require.NotNil(t, latest["Alice"])
	assert.Equal(t, 101, latest["Alice"].ID)

	charlie, ok := latest["Charlie"]
	require.True(t, ok)
	assert.Nil(t, charlie)
}

func TestMostExpensiveProduct_EmptyStore(t *testing.T) {
	router := newTestRouter(&fakeSource{})

	rec := get(t, router, "/v1/products/most-expensive")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestQueriesWhenDatasetUnavailable(t *testing.T) {
	router := newTestRouter(&fakeSource{err: errors.New("no such table")})

	for _, url := range []string{
		"/v1/customers/names",
		"/v1/customers/latest-orders",
		"/v1/customers/big-spenders?threshold=10",
		"/v1/products/most-expensive",
		"/v1/revenue/total-parallel",
	} {
		rec := get(t, router, url)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, url)
		assert.Contains(t, rec.Body.String(), "no such table", url)
	}
}

func TestReloadDataset(t *testing.T) {
	src := &fakeSource{data: []dataset.Customer{{ID: 1, Name: "Alice", Email: "alice@example.com"}}}
	router := newTestRouter(src)

	rec := get(t, router, "/v1/customers/names")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["Alice"]`, rec.Body.String())

	// plain reads keep serving the cached snapshot after the source changes
	src.set(storeFixture(), nil)
	rec = get(t, router, "/v1/customers/names")
	assert.JSONEq(t, `["Alice"]`, rec.Body.String())

	rec = post(t, router, "/v1/dataset/reload")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"customers":2}`, rec.Body.String())

	rec = get(t, router, "/v1/customers/names")
	assert.JSONEq(t, `["Alice","Bob"]`, rec.Body.String())
}

func TestReloadDataset_FailureKeepsServing(t *testing.T) {
	src := &fakeSource{data: storeFixture()}
	router := newTestRouter(src)

	rec := get(t, router, "/v1/customers/names")
	require.Equal(t, http.StatusOK, rec.Code)

	src.set(nil, errors.New("backend down"))
	rec = post(t, router, "/v1/dataset/reload")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "backend down")

	rec = get(t, router, "/v1/customers/names")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["Alice","Bob"]`, rec.Body.String())
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	router := newTestRouter(&fakeSource{data: storeFixture()})

	rec := get(t, router, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = get(t, router, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "insights_requests_total")
	assert.Contains(t, rec.Body.String(), "insights_dataset_customers")
}
