package services

import (
	"context"
	"fmt"

	"github.com/askretail/askretail-engine/pkg/engine"
	"github.com/askretail/askretail-engine/pkg/intent"
	"github.com/askretail/askretail-engine/pkg/quality"
	"github.com/askretail/askretail-engine/pkg/sqlguard"
)

// shapeAnswer turns a non-empty result into the per-intent answer
// envelope: headline text, evidence snippets, scanned-row counts, and a
// chart payload where one makes sense.
func (s *ChatService) shapeAnswer(
	ctx context.Context,
	in intent.Intent,
	validated *sqlguard.ValidatedQuery,
	result *engine.Result,
	validations []quality.Validation,
	execMs float64,
) (*ChatResponse, error) {
	conf := s.confidence(ctx, validations, result.RowCount())

	resp := &ChatResponse{
		TablesUsed:    validated.Tables,
		SQL:           validated.SQL,
		ExecMs:        execMs,
		DataSnippets:  []Snippet{},
		Validations:   validations,
		Confidence:    conf.Score,
		QualityBadges: conf.Badges,
		QueryMode:     ModeClassic,
	}

	switch in.Kind {
	case intent.KindRevenueByPeriod:
		s.shapeRevenue(ctx, in, result, resp)
	case intent.KindOrdersByCustomer:
		s.shapeOrdersByCustomer(ctx, in, result, resp)
	case intent.KindTopProducts:
		s.shapeTopProducts(ctx, result, resp)
	case intent.KindTopCustomers:
		s.shapeTopCustomers(ctx, result, resp)
	case intent.KindOrderDetails:
		s.shapeOrderDetails(ctx, in, result, resp)
	default:
		return nil, fmt.Errorf("unhandled intent kind %q", in.Kind)
	}
	return resp, nil
}

// shapeRevenue sums the full period and charts the per-day series. Result
// columns: day, revenue.
func (s *ChatService) shapeRevenue(ctx context.Context, in intent.Intent, result *engine.Result, resp *ChatResponse) {
	from := in.Range.From.Format("2006-01-02")
	to := in.Range.To.Format("2006-01-02")

	var total float64
	totalResult, err := s.data.Query(ctx,
		"SELECT SUM(order_total) AS total FROM Inventory WHERE CAST(order_date AS DATE) BETWEEN ? AND ?",
		[]any{from, to}, s.cfg.QueryTimeout())
	if err == nil && totalResult.RowCount() > 0 {
		total = asFloat(totalResult.Rows[0][0])
	}

	resp.RowsScanned = s.scanned(ctx,
		"SELECT COUNT(*) FROM Inventory WHERE CAST(order_date AS DATE) BETWEEN ? AND ?",
		[]any{from, to}, result.RowCount())

	for _, row := range snippetRows(result) {
		resp.DataSnippets = append(resp.DataSnippets, Snippet{
			Date:    asString(row[0]),
			Revenue: asFloat(row[1]),
		})
	}

	points := make([]ChartPoint, 0, len(result.Rows))
	for _, row := range result.Rows {
		points = append(points, ChartPoint{Label: asString(row[0]), Value: asFloat(row[1])})
	}

	resp.AnswerText = fmt.Sprintf("Revenue from %s to %s: %s.", from, to, formatCurrency(total))
	resp.FollowUps = []string{"Top 5 products", "Top customers"}
	resp.ChartSuggestion = ChartSuggestion{Type: "line", X: "order_date", Y: "revenue"}
	resp.Chart = &Chart{Type: "line", Series: []ChartSeries{{Name: "Revenue", Data: points}}}
}

// shapeOrdersByCustomer names the customer when possible and links the first
// few orders as follow-ups. Result columns: IID, order_date, order_total.
func (s *ChatService) shapeOrdersByCustomer(ctx context.Context, in intent.Intent, result *engine.Result, resp *ChatResponse) {
	resp.RowsScanned = s.scanned(ctx,
		"SELECT COUNT(*) FROM Inventory WHERE CID = ?",
		[]any{in.CustomerID}, result.RowCount())

	customerName := ""
	nameResult, err := s.data.Query(ctx,
		"SELECT name FROM Customer WHERE CID = ?",
		[]any{in.CustomerID}, s.cfg.LookupTimeout())
	if err == nil && nameResult.RowCount() > 0 {
		customerName = asString(nameResult.Rows[0][0])
	}

	followUps := []string{}
	for _, row := range snippetRows(result) {
		resp.DataSnippets = append(resp.DataSnippets, Snippet{
			Date:    asString(row[1]),
			Revenue: asFloat(row[2]),
		})
		followUps = append(followUps, fmt.Sprintf("Order details %s", asString(row[0])))
	}

	found := resp.RowsScanned
	if n := int64(result.RowCount()); n < found {
		found = n
	}
	if customerName != "" {
		resp.AnswerText = fmt.Sprintf("Found %d orders for %s (CID %s).", found, customerName, in.CustomerID)
	} else {
		resp.AnswerText = fmt.Sprintf("Found %d orders for CID %s.", found, in.CustomerID)
	}
	resp.FollowUps = followUps
	resp.ChartSuggestion = ChartSuggestion{Type: "bar", X: "order_date", Y: "order_total"}
}

// shapeTopProducts charts revenue per product. Result columns: product_id,
// total_qty, total_revenue.
func (s *ChatService) shapeTopProducts(ctx context.Context, result *engine.Result, resp *ChatResponse) {
	resp.RowsScanned = s.scanned(ctx, "SELECT COUNT(*) FROM Detail", nil, result.RowCount())

	for _, row := range snippetRows(result) {
		resp.DataSnippets = append(resp.DataSnippets, Snippet{
			Date:    asString(row[0]),
			Revenue: asFloat(row[2]),
		})
	}

	points := make([]ChartPoint, 0, len(result.Rows))
	for _, row := range result.Rows {
		points = append(points, ChartPoint{Label: asString(row[0]), Value: asFloat(row[2])})
	}

	resp.AnswerText = fmt.Sprintf("Top %d products by performance returned.", result.RowCount())
	resp.FollowUps = []string{"Top customers", "Revenue last 30 days"}
	resp.ChartSuggestion = ChartSuggestion{Type: "bar", X: "product_id", Y: "total_revenue"}
	resp.Chart = &Chart{Type: "bar", Series: []ChartSeries{{Name: "Revenue", Data: points}}}
}

// shapeTopCustomers charts revenue per customer. Result columns: customer,
// revenue.
func (s *ChatService) shapeTopCustomers(ctx context.Context, result *engine.Result, resp *ChatResponse) {
	resp.RowsScanned = s.scanned(ctx, "SELECT COUNT(*) FROM Inventory", nil, result.RowCount())

	for _, row := range snippetRows(result) {
		resp.DataSnippets = append(resp.DataSnippets, Snippet{
			Date:    asString(row[0]),
			Revenue: asFloat(row[1]),
		})
	}

	points := make([]ChartPoint, 0, len(result.Rows))
	for _, row := range result.Rows {
		points = append(points, ChartPoint{Label: asString(row[0]), Value: asFloat(row[1])})
	}

	resp.AnswerText = fmt.Sprintf("Top %d customers by revenue returned.", result.RowCount())
	resp.FollowUps = []string{"Revenue last 30 days"}
	resp.ChartSuggestion = ChartSuggestion{Type: "bar", X: "customer", Y: "revenue"}
	resp.Chart = &Chart{Type: "bar", Series: []ChartSeries{{Name: "Revenue", Data: points}}}
}

// shapeOrderDetails lists line items for one order. Result columns: DID,
// product_id, qty, unit_price, line_total.
func (s *ChatService) shapeOrderDetails(ctx context.Context, in intent.Intent, result *engine.Result, resp *ChatResponse) {
	resp.RowsScanned = s.scanned(ctx,
		"SELECT COUNT(*) FROM Detail WHERE IID = ?",
		[]any{in.OrderID}, result.RowCount())

	for _, row := range snippetRows(result) {
		resp.DataSnippets = append(resp.DataSnippets, Snippet{
			Date:    asString(row[1]),
			Revenue: asFloat(row[4]),
		})
	}

	resp.AnswerText = fmt.Sprintf("Order %s has %d lines (limited).", in.OrderID, result.RowCount())
	resp.FollowUps = []string{}
	resp.ChartSuggestion = ChartSuggestion{Type: "table"}
}
