package dataset

// Product is one order line item. The same product name can show up on many
// orders with different prices and quantities; there is no global catalog.
type Product struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Revenue is the line item's contribution: price times quantity.
func (p Product) Revenue() float64 {
	return p.Price * float64(p.Quantity)
}

// Order groups the line items bought together on one date.
// Date is "YYYY-MM-DD"; lexical comparison orders dates correctly.
type Order struct {
	ID       int       `json:"orderId"`
	Date     string    `json:"date"`
	Products []Product `json:"products"`
}

// Revenue sums the order's line items.
func (o Order) Revenue() float64 {
	var total float64
	for _, p := range o.Products {
		total += p.Revenue()
	}
	return total
}

type Customer struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Orders []Order `json:"orders"`
}

// Spending sums the revenue of all the customer's orders.
func (c Customer) Spending() float64 {
	var total float64
	for _, o := range c.Orders {
		total += o.Revenue()
	}
	return total
}

// document is the wire shape of the backing JSON resource.
type document struct {
	Customers []Customer `json:"customers"`
}
