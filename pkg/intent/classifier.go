package intent

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/askretail/askretail-engine/pkg/dates"
)

// Lookup resolves free-text customer names and sample identifiers against
// the current data snapshot. Implemented by the engine; faked in tests.
type Lookup interface {
	// CustomerIDByName finds the first customer (ordered by CID) whose name
	// or email contains the given text, case-insensitively.
	CustomerIDByName(ctx context.Context, name string) (string, bool, error)

	// SampleIDs returns one existing order id and customer id, used to make
	// suggestions concrete. Empty strings when unavailable.
	SampleIDs(ctx context.Context) (orderID, customerID string)
}

var (
	orderDetailsPattern    = regexp.MustCompile(`(?i)(?:order\s*)?(?:details?|lines?)\s*(?:for\s*)?(?:iid|order)?\s*([0-9]+)`)
	ordersByIDPattern      = regexp.MustCompile(`(?i)orders?\s*(?:for\s*)?(?:customer|cid)?\s*([0-9]+)`)
	ordersReversedPattern  = regexp.MustCompile(`(?i)(?:customer|cid)?\s*([0-9]+)\s+orders?`)
	ordersByNamePattern    = regexp.MustCompile(`(?i)orders?\s*(?:for\s*)?(?:customer\s*)?([A-Za-z][A-Za-z\s\.'-]{1,60})$`)
	topCustomersPattern    = regexp.MustCompile(`(?i)(top|best|largest)\s*(\d+)?\s*(customers?)`)
	topProductsPattern     = regexp.MustCompile(`(?i)(top|best|popular)\s*(\d+)?\s*(?:best[-\s]*)?(selling|sellers|products?|items?)`)
	revenueKeywordsPattern = regexp.MustCompile(`(?i)(revenue|sales|income|earnings)`)
)

// Classifier evaluates a fixed, ordered list of matchers and returns the
// first success. Order matters: phrasings containing both a number and the
// word "orders" are ambiguous, so more specific patterns go first.
type Classifier struct {
	resolver *dates.Resolver
	lookup   Lookup
	logger   *zap.Logger
}

// NewClassifier creates a classifier.
func NewClassifier(resolver *dates.Resolver, lookup Lookup, logger *zap.Logger) *Classifier {
	return &Classifier{
		resolver: resolver,
		lookup:   lookup,
		logger:   logger.Named("intent"),
	}
}

// Classify maps a message to an Intent. It is a pure function of (message,
// filter, data snapshot used for name lookup); the only error it can return
// is apperrors.ErrInvalidDateFormat from an explicit malformed filter.
func (c *Classifier) Classify(ctx context.Context, message string, filter *dates.Filter) (Intent, error) {
	matchers := []func(context.Context, string, *dates.Filter) (Intent, bool, error){
		c.matchOrderDetails,
		c.matchOrdersByCustomer,
		c.matchTopCustomers,
		c.matchTopProducts,
		c.matchRevenueByPeriod,
	}

	for _, match := range matchers {
		in, ok, err := match(ctx, message, filter)
		if err != nil {
			return Intent{Kind: KindUnrecognized}, err
		}
		if ok {
			c.logger.Debug("intent matched",
				zap.String("kind", string(in.Kind)),
				zap.String("message", message))
			return in, nil
		}
	}

	c.logger.Debug("no intent matched", zap.String("message", message))
	return Intent{Kind: KindUnrecognized}, nil
}

func (c *Classifier) matchOrderDetails(_ context.Context, message string, _ *dates.Filter) (Intent, bool, error) {
	m := orderDetailsPattern.FindStringSubmatch(message)
	if m == nil {
		return Intent{}, false, nil
	}
	return Intent{Kind: KindOrderDetails, OrderID: m[1]}, true, nil
}

func (c *Classifier) matchOrdersByCustomer(ctx context.Context, message string, _ *dates.Filter) (Intent, bool, error) {
	if m := ordersByIDPattern.FindStringSubmatch(message); m != nil {
		return Intent{Kind: KindOrdersByCustomer, CustomerID: m[1]}, true, nil
	}
	if m := ordersReversedPattern.FindStringSubmatch(message); m != nil {
		return Intent{Kind: KindOrdersByCustomer, CustomerID: m[1]}, true, nil
	}

	// Free-text name: resolve against customer name/email, first match by CID.
	m := ordersByNamePattern.FindStringSubmatch(message)
	if m == nil {
		return Intent{}, false, nil
	}
	name := strings.TrimSpace(m[1])
	cid, found, err := c.lookup.CustomerIDByName(ctx, name)
	if err != nil || !found {
		return Intent{}, false, nil
	}
	return Intent{Kind: KindOrdersByCustomer, CustomerID: cid}, true, nil
}

func (c *Classifier) matchTopCustomers(_ context.Context, message string, _ *dates.Filter) (Intent, bool, error) {
	m := topCustomersPattern.FindStringSubmatch(message)
	if m == nil {
		return Intent{}, false, nil
	}
	k := 5
	if m[2] != "" {
		k, _ = strconv.Atoi(m[2])
	}
	return Intent{Kind: KindTopCustomers, K: clampTopN(k)}, true, nil
}

func (c *Classifier) matchTopProducts(_ context.Context, message string, _ *dates.Filter) (Intent, bool, error) {
	m := topProductsPattern.FindStringSubmatch(message)
	if m == nil {
		return Intent{}, false, nil
	}
	var k int
	switch {
	case m[2] != "":
		k, _ = strconv.Atoi(m[2])
	case strings.Contains(strings.ToLower(message), "best"):
		k = 10
	default:
		k = 5
	}
	return Intent{Kind: KindTopProducts, K: clampTopN(k)}, true, nil
}

func (c *Classifier) matchRevenueByPeriod(ctx context.Context, message string, filter *dates.Filter) (Intent, bool, error) {
	if !revenueKeywordsPattern.MatchString(message) {
		return Intent{}, false, nil
	}
	dr, err := c.resolver.Resolve(ctx, message, filter)
	if err != nil {
		return Intent{}, false, err
	}
	if dr.Empty() {
		return Intent{}, false, nil
	}
	return Intent{Kind: KindRevenueByPeriod, Range: dr}, true, nil
}
