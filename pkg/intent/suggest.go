package intent

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// Suggestion is the targeted guidance produced when no intent matched.
type Suggestion struct {
	// Message explains what was missing.
	Message string
	// Hint tells the caller what to try instead.
	Hint string
}

// customerNameHints are common name tokens in the sample dataset; seeing one
// means the user probably referenced a customer without saying what they
// want to know.
var customerNameHints = []string{"alice", "bob", "carol", "smith", "jones", "white"}

// SuggestFor classifies the reason a message was unrecognized and produces
// a targeted, actionable suggestion. This is a second, lower-priority pass
// over the same keyword groups the matchers use.
func (c *Classifier) SuggestFor(ctx context.Context, message string) Suggestion {
	text := strings.ToLower(message)

	for _, name := range customerNameHints {
		if strings.Contains(text, name) {
			return Suggestion{
				Message: "Please be more specific about what you want to know about this customer.",
				Hint:    "I found a customer reference. Try: 'Orders for Alice Smith', 'Revenue from Bob Jones', or 'Customer 1001 orders'.",
			}
		}
	}

	if containsAny(text, "revenue", "sales", "income", "money") {
		return Suggestion{
			Message: "Revenue queries need a time period.",
			Hint:    "Choose a time period: 'Revenue last 30 days', 'Revenue this month', 'Revenue August 2024', or 'Revenue this year'.",
		}
	}

	if containsAny(text, "product", "item", "inventory") {
		return Suggestion{
			Message: "Please specify what you want to know about products.",
			Hint:    "Try: 'Top 5 products', 'Product P001 sales', or 'Most sold products'.",
		}
	}

	if containsAny(text, "customer", "client", "buyer") {
		return Suggestion{
			Message: "Please specify what you want to know about customers.",
			Hint:    "Try: 'Top customers', 'Customer 1001 orders', or 'Best customers by revenue'.",
		}
	}

	if strings.Contains(text, "orders") && !containsDigit(text) {
		_, cid := c.lookup.SampleIDs(ctx)
		example := "orders for CID [customer_id]"
		if cid != "" {
			example = fmt.Sprintf("orders for CID %s", cid)
		}
		return Suggestion{
			Message: "Please specify which customer's orders you want to see.",
			Hint:    fmt.Sprintf("Include a customer ID, e.g. '%s'.", example),
		}
	}

	if containsAny(text, "detail", "line") {
		iid, _ := c.lookup.SampleIDs(ctx)
		example := "order details [order_id]"
		if iid != "" {
			example = fmt.Sprintf("order details %s", iid)
		}
		return Suggestion{
			Message: "Please specify an order ID.",
			Hint:    fmt.Sprintf("Include an order ID, e.g. '%s'.", example),
		}
	}

	iid, cid := c.lookup.SampleIDs(ctx)
	orderExample := "Order details [order_id]"
	if iid != "" {
		orderExample = fmt.Sprintf("Order details %s", iid)
	}
	customerExample := "Orders for CID [customer_id]"
	if cid != "" {
		customerExample = fmt.Sprintf("Orders for CID %s", cid)
	}
	return Suggestion{
		Message: "I couldn't understand your question.",
		Hint: fmt.Sprintf("Try: 'Revenue last 30 days', 'Top 5 products', 'Top customers', '%s', or '%s'.",
			orderExample, customerExample),
	}
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func containsDigit(text string) bool {
	for _, r := range text {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
