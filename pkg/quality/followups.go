package quality

import (
	"github.com/askretail/askretail-engine/pkg/intent"
)

// followUpCatalog maps each recognized intent to the next questions a user
// typically asks after it.
var followUpCatalog = map[intent.Kind][]string{
	intent.KindRevenueByPeriod: {
		"Who were the top 5 customers in that period?",
		"What were the top products in that period?",
		"How does that compare to the previous month?",
	},
	intent.KindTopCustomers: {
		"Show orders for one of these customers",
		"What was total revenue last month?",
		"Which products do these customers buy?",
	},
	intent.KindTopProducts: {
		"What was revenue for the last 30 days?",
		"Who are the top customers?",
		"Show details for a specific order",
	},
	intent.KindOrdersByCustomer: {
		"Show line details for one of these orders",
		"What is this customer's total spend?",
		"Who are the top customers overall?",
	},
	intent.KindOrderDetails: {
		"Show all orders for this customer",
		"What were the top products last month?",
		"What was revenue this month?",
	},
}

// FollowUps returns suggested next questions for an answered intent,
// capped at four.
func FollowUps(kind intent.Kind) []string {
	suggestions, ok := followUpCatalog[kind]
	if !ok {
		return []string{
			"What was revenue for the last 30 days?",
			"Who are the top 5 customers?",
			"What are the top products?",
		}
	}
	if len(suggestions) > 4 {
		suggestions = suggestions[:4]
	}
	return suggestions
}
