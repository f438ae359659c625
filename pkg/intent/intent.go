// Package intent maps free-text analytics questions onto a fixed vocabulary
// of analytical intents with typed, bound parameters. Classification is an
// explicit ordered list of matchers evaluated first-match-wins, so
// precedence is data, not control flow.
package intent

import (
	"github.com/askretail/askretail-engine/pkg/dates"
)

// Kind identifies the analytical question category.
type Kind string

const (
	KindOrderDetails     Kind = "order_details"
	KindOrdersByCustomer Kind = "orders_by_customer"
	KindTopCustomers     Kind = "top_customers"
	KindTopProducts      Kind = "top_products"
	KindRevenueByPeriod  Kind = "revenue_by_period"
	KindUnrecognized     Kind = "unrecognized"
)

// Intent is the classified question. Only the fields for the matched Kind
// are meaningful.
type Intent struct {
	Kind Kind

	// OrdersByCustomer
	CustomerID string

	// OrderDetails
	OrderID string

	// TopProducts / TopCustomers, bounded to [1, 1000]
	K int

	// RevenueByPeriod
	Range dates.Range
}

// maxTopN bounds the requested top-N count.
const maxTopN = 1000

func clampTopN(k int) int {
	if k < 1 {
		return 1
	}
	if k > maxTopN {
		return maxTopN
	}
	return k
}
