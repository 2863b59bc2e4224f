package engine

import (
	"cmp"
	"context"
	"runtime"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"customer-insights-engine/internal/dataset"
)

// ErrInvalidArgument rejects ranking queries called with a non-positive count.
var ErrInvalidArgument = errors.New("invalid argument")

// CustomerReader hands out the current dataset snapshot. *dataset.Loader
// satisfies it.
type CustomerReader interface {
	ReadCustomers(ctx context.Context) ([]dataset.Customer, error)
}

// Engine answers aggregate queries over the customer graph. Every operation
// reads one snapshot through the CustomerReader and computes without mutating
// it, so operations are safe to call concurrently with each other and with
// reloads.
type Engine struct {
	src     CustomerReader
	workers int
}

// NewEngine builds an engine over src. workers bounds the fan-out of the
// data-parallel queries; values below 1 mean GOMAXPROCS.
func NewEngine(src CustomerReader, workers int) *Engine {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{src: src, workers: workers}
}

func (e *Engine) customers(ctx context.Context) ([]dataset.Customer, error) {
	cs, err := e.src.ReadCustomers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "dataset unavailable")
	}
	return cs, nil
}

// CustomerNames returns every customer name in snapshot order.
func (e *Engine) CustomerNames(ctx context.Context) ([]string, error) {
	cs, err := e.customers(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cs))
	for _, c := range cs {
		names = append(names, c.Name)
	}
	return names, nil
}

// ConcatCustomerNames joins every customer name with ", ". An empty dataset
// yields the empty string.
func (e *Engine) ConcatCustomerNames(ctx context.Context) (string, error) {
	names, err := e.CustomerNames(ctx)
	if err != nil {
		return "", err
	}
	return strings.Join(names, ", "), nil
}

// OrdersForCustomer returns the orders of every customer with the given id.
// An unknown id yields an empty result, not an error.
func (e *Engine) OrdersForCustomer(ctx context.Context, id int) ([]dataset.Order, error) {
	cs, err := e.customers(ctx)
	if err != nil {
		return nil, err
	}
	orders := []dataset.Order{}
	for _, c := range cs {
		if c.ID == id {
			orders = append(orders, c.Orders...)
		}
	}
	return orders, nil
}

// LatestOrderPerCustomer maps every customer name to the order with the
// lexically greatest date. A customer with no orders maps to nil rather than
// being dropped from the result.
func (e *Engine) LatestOrderPerCustomer(ctx context.Context) (map[string]*dataset.Order, error) {
	cs, err := e.customers(ctx)
	if err != nil {
		return nil, err
	}
	latest := make(map[string]*dataset.Order, len(cs))
	for _, c := range cs {
		idx := -1
		for i := range c.Orders {
			if idx < 0 || c.Orders[i].Date > c.Orders[idx].Date {
				idx = i
			}
		}
		if idx < 0 {
			latest[c.Name] = nil
			continue
		}
		o := c.Orders[idx]
		latest[c.Name] = &o
	}
	return latest, nil
}

// TopExpensiveProducts flattens every line item and ranks by price, highest
// first. The sort is stable, so equally priced items keep encounter order; a
// top beyond the item count returns everything.
func (e *Engine) TopExpensiveProducts(ctx context.Context, top int) ([]dataset.Product, error) {
	if top < 1 {
		return nil, errors.Wrapf(ErrInvalidArgument, "top must be at least 1, got %d", top)
	}
	cs, err := e.customers(ctx)
	if err != nil {
		return nil, err
	}
	items := lineItems(cs)
	slices.SortStableFunc(items, func(a, b dataset.Product) int {
		return cmp.Compare(b.Price, a.Price)
	})
	if top < len(items) {
		items = items[:top]
	}
	return items, nil
}

// MostExpensiveProduct returns the priciest line item, or nil when the
// dataset has none. Only a strictly greater price displaces the running
// maximum, so the first-encountered item wins ties.
func (e *Engine) MostExpensiveProduct(ctx context.Context) (*dataset.Product, error) {
	cs, err := e.customers(ctx)
	if err != nil {
		return nil, err
	}
	var best *dataset.Product
	for _, c := range cs {
		for _, o := range c.Orders {
			for i := range o.Products {
				if best == nil || o.Products[i].Price > best.Price {
					p := o.Products[i]
					best = &p
				}
			}
		}
	}
	return best, nil
}

// ProductCount pairs a product name with the number of line items naming it.
type ProductCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// FrequentlyPurchasedProducts counts line items per product name (quantity is
// deliberately not weighed in) and returns the top names by count. Equal
// counts rank by first appearance in the snapshot, which keeps the result
// deterministic for a given input.
func (e *Engine) FrequentlyPurchasedProducts(ctx context.Context, top int) ([]ProductCount, error) {
	if top < 1 {
		return nil, errors.Wrapf(ErrInvalidArgument, "top must be at least 1, got %d", top)
	}
	cs, err := e.customers(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	var firstSeen []string
	for _, c := range cs {
		for _, o := range c.Orders {
			for _, p := range o.Products {
				if _, seen := counts[p.Name]; !seen {
					firstSeen = append(firstSeen, p.Name)
				}
				counts[p.Name]++
			}
		}
	}
	ranked := make([]ProductCount, 0, len(firstSeen))
	for _, name := range firstSeen {
		ranked = append(ranked, ProductCount{Name: name, Count: counts[name]})
	}
	slices.SortStableFunc(ranked, func(a, b ProductCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if top < len(ranked) {
		ranked = ranked[:top]
	}
	return ranked, nil
}

// SpendingPerCustomer maps every customer name to the sum of price times
// quantity over all their line items; a customer without orders maps to 0.
func (e *Engine) SpendingPerCustomer(ctx context.Context) (map[string]float64, error) {
	cs, err := e.customers(ctx)
	if err != nil {
		return nil, err
	}
	spending := make(map[string]float64, len(cs))
	for _, c := range cs {
		spending[c.Name] = c.Spending()
	}
	return spending, nil
}

// CustomersSpendingOver returns the customers whose total spending strictly
// exceeds amount, in snapshot order.
func (e *Engine) CustomersSpendingOver(ctx context.Context, amount float64) ([]dataset.Customer, error) {
	cs, err := e.customers(ctx)
	if err != nil {
		return nil, err
	}
	return spendingAbove(cs, amount), nil
}

// AllCustomersHaveOrders reports whether every customer has placed at least
// one order; an empty dataset passes vacuously.
func (e *Engine) AllCustomersHaveOrders(ctx context.Context) (bool, error) {
	cs, err := e.customers(ctx)
	if err != nil {
		return false, err
	}
	for _, c := range cs {
		if len(c.Orders) == 0 {
			return false, nil
		}
	}
	return true, nil
}

// AnyCustomerSpentOver reports whether some customer's total spending
// strictly exceeds amount; an empty dataset reports false.
func (e *Engine) AnyCustomerSpentOver(ctx context.Context, amount float64) (bool, error) {
	cs, err := e.customers(ctx)
	if err != nil {
		return false, err
	}
	for _, c := range cs {
		if c.Spending() > amount {
			return true, nil
		}
	}
	return false, nil
}

// NoCustomerHasEmptyEmail reports whether every customer carries a non-blank
// email once surrounding whitespace is trimmed.
func (e *Engine) NoCustomerHasEmptyEmail(ctx context.Context) (bool, error) {
	cs, err := e.customers(ctx)
	if err != nil {
		return false, err
	}
	for _, c := range cs {
		if strings.TrimSpace(c.Email) == "" {
			return false, nil
		}
	}
	return true, nil
}

// TotalRevenue folds price times quantity over every line item of every
// order of every customer.
func (e *Engine) TotalRevenue(ctx context.Context) (float64, error) {
	cs, err := e.customers(ctx)
	if err != nil {
		return 0, err
	}
	return revenueOf(cs), nil
}

// lineItems flattens the snapshot into a fresh slice of line items in
// encounter order; callers may reorder it freely without touching the
// snapshot.
func lineItems(cs []dataset.Customer) []dataset.Product {
	items := []dataset.Product{}
	for _, c := range cs {
		for _, o := range c.Orders {
			items = append(items, o.Products...)
		}
	}
	return items
}

// spendingAbove is the filter shared by the serial and data-parallel big
// spender queries; it preserves the order of cs.
func spendingAbove(cs []dataset.Customer, threshold float64) []dataset.Customer {
	out := []dataset.Customer{}
	for _, c := range cs {
		if c.Spending() > threshold {
			out = append(out, c)
		}
	}
	return out
}

// revenueOf is the fold shared by the serial and data-parallel revenue
// queries.
func revenueOf(cs []dataset.Customer) float64 {
	var total float64
	for _, c := range cs {
		total += c.Spending()
	}
	return total
}
