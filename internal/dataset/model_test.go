package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductRevenue(t *testing.T) {
	p := Product{Name: "Laptop", Price: 1000.0, Quantity: 2}
	assert.InDelta(t, 2000.0, p.Revenue(), 1e-9)
}

func TestOrderRevenue(t *testing.T) {
	o := Order{Products: []Product{
		{Name: "Laptop", Price: 1000.0, Quantity: 2},
		{Name: "Phone", Price: 500.0, Quantity: 3},
	}}
	assert.InDelta(t, 3500.0, o.Revenue(), 1e-9)

	assert.Zero(t, Order{}.Revenue())
}

func TestCustomerSpending(t *testing.T) {
	c := Customer{Name: "Alice", Orders: []Order{
		{Products: []Product{{Price: 1000.0, Quantity: 2}}},
		{Products: []Product{{Price: 500.0, Quantity: 3}}},
	}}
	assert.InDelta(t, 3500.0, c.Spending(), 1e-9)

	assert.Zero(t, Customer{Name: "Charlie"}.Spending())
}
