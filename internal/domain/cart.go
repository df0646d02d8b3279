package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Cart maps product id to quantity for one session.
type Cart map[string]int

// Add increments the quantity stored for productID.
func (c Cart) Add(productID string, qty int) {
	c[productID] += qty
}

// Remove deletes productID; absent keys are ignored.
func (c Cart) Remove(productID string) {
	delete(c, productID)
}

// ProductIDs returns the keys in a stable order.
func (c Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type CartLine struct {
	Product   Product
	Qty       int
	LineTotal decimal.Decimal
}

type CartView struct {
	Lines []CartLine
	Total decimal.Decimal
	Count int
}
