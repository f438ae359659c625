package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/askretail/askretail-engine/pkg/apperrors"
	"github.com/askretail/askretail-engine/pkg/config"
	"github.com/askretail/askretail-engine/pkg/dates"
	"github.com/askretail/askretail-engine/pkg/sqlguard"
)

// Report types.
const (
	ReportRevenueByMonth = "revenue_by_month"
	ReportTopCustomers   = "top_customers"
	ReportTopProducts    = "top_products"
	ReportRevenueTrend   = "revenue_trend"
)

const defaultReportK = 5

// ReportFilters narrows a report. K applies to the top-N report types;
// DateRange overrides the default trailing-year window.
type ReportFilters struct {
	DateRange *dates.Filter `json:"date_range,omitempty"`
	K         int           `json:"k,omitempty"`
}

// ReportRequest selects one canned report.
type ReportRequest struct {
	Type    string         `json:"type"`
	Filters *ReportFilters `json:"filters,omitempty"`
}

// ReportResponse carries the summary plus the SQL and chart series behind
// it.
type ReportResponse struct {
	SummaryText string   `json:"summary_text"`
	TablesUsed  []string `json:"tables_used"`
	SQL         []string `json:"sql"`
	Charts      []Chart  `json:"charts"`
}

// ReportService renders typed reports. Every statement goes through the
// same safety gateway as chat queries.
type ReportService struct {
	data     DataEngine
	resolver *dates.Resolver
	gateway  *sqlguard.Gateway
	cfg      config.EngineConfig
	logger   *zap.Logger
}

func NewReportService(data DataEngine, resolver *dates.Resolver, gateway *sqlguard.Gateway, cfg config.EngineConfig, logger *zap.Logger) *ReportService {
	return &ReportService{
		data:     data,
		resolver: resolver,
		gateway:  gateway,
		cfg:      cfg,
		logger:   logger.Named("report"),
	}
}

// Report runs one typed report.
func (s *ReportService) Report(ctx context.Context, req *ReportRequest) (*ReportResponse, error) {
	rng, err := s.dateRange(ctx, req.Filters)
	if err != nil {
		return nil, err
	}
	from := rng.From.Format("2006-01-02")
	to := rng.To.Format("2006-01-02")

	switch req.Type {
	case ReportRevenueByMonth:
		return s.revenueByMonth(ctx, from, to)
	case ReportTopCustomers:
		return s.topCustomers(ctx, reportK(req.Filters))
	case ReportTopProducts:
		return s.topProducts(ctx, from, to, reportK(req.Filters))
	case ReportRevenueTrend:
		return s.revenueTrend(ctx, from, to)
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownReportType, req.Type)
	}
}

// dateRange resolves an explicit filter range, defaulting to the trailing
// year ending at the data horizon.
func (s *ReportService) dateRange(ctx context.Context, f *ReportFilters) (dates.Range, error) {
	var filter *dates.Filter
	if f != nil {
		filter = f.DateRange
	}
	rng, err := s.resolver.Resolve(ctx, "", filter)
	if err != nil {
		return dates.Range{}, err
	}
	if rng.Empty() {
		rng = s.resolver.TrailingYear(ctx)
	}
	return rng, nil
}

// reportK clamps the requested top-N count into [1, 1000], defaulting to 5.
func reportK(f *ReportFilters) int {
	if f == nil || f.K == 0 {
		return defaultReportK
	}
	if f.K < 1 {
		return 1
	}
	if f.K > 1000 {
		return 1000
	}
	return f.K
}

// run validates and executes one report statement.
func (s *ReportService) run(ctx context.Context, sqlText string, params []any) (*sqlguard.ValidatedQuery, []ChartPoint, error) {
	validated, err := s.gateway.Validate(sqlText, params, s.cfg.MaxRows)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.data.CachedQuery(ctx, validated.SQL, validated.Params, s.cfg.QueryTimeout())
	if err != nil {
		return nil, nil, err
	}

	points := make([]ChartPoint, 0, len(result.Rows))
	for _, row := range result.Rows {
		points = append(points, ChartPoint{Label: asString(row[0]), Value: asFloat(row[1])})
	}
	return validated, points, nil
}

func (s *ReportService) revenueByMonth(ctx context.Context, from, to string) (*ReportResponse, error) {
	sqlText := "SELECT strftime(CAST(Inventory.order_date AS DATE), '%Y-%m') AS month, " +
		"SUM(Inventory.order_total) AS revenue FROM Inventory " +
		"WHERE CAST(Inventory.order_date AS DATE) BETWEEN ? AND ? " +
		"GROUP BY month ORDER BY month"

	validated, points, err := s.run(ctx, sqlText, []any{from, to})
	if err != nil {
		return nil, err
	}

	var total float64
	for _, p := range points {
		total += p.Value
	}
	return &ReportResponse{
		SummaryText: fmt.Sprintf("Revenue by month between %s and %s: %s.", from, to, formatCurrency(total)),
		TablesUsed:  validated.Tables,
		SQL:         []string{validated.SQL},
		Charts:      []Chart{{Type: "bar", Series: []ChartSeries{{Name: "Revenue", Data: points}}}},
	}, nil
}

func (s *ReportService) topCustomers(ctx context.Context, k int) (*ReportResponse, error) {
	sqlText := fmt.Sprintf(
		"SELECT COALESCE(Customer.name, CAST(Inventory.CID AS VARCHAR)) AS customer, "+
			"SUM(Inventory.order_total) AS revenue "+
			"FROM Inventory LEFT JOIN Customer ON Customer.CID = Inventory.CID "+
			"GROUP BY COALESCE(Customer.name, CAST(Inventory.CID AS VARCHAR)) "+
			"ORDER BY revenue DESC LIMIT %d", k)

	validated, points, err := s.run(ctx, sqlText, nil)
	if err != nil {
		return nil, err
	}
	return &ReportResponse{
		SummaryText: fmt.Sprintf("Top %d customers by revenue.", len(points)),
		TablesUsed:  validated.Tables,
		SQL:         []string{validated.SQL},
		Charts:      []Chart{{Type: "bar", Series: []ChartSeries{{Name: "Revenue", Data: points}}}},
	}, nil
}

func (s *ReportService) topProducts(ctx context.Context, from, to string, k int) (*ReportResponse, error) {
	sqlText := fmt.Sprintf(
		"SELECT Detail.product_id, SUM(Detail.qty) AS total_qty, "+
			"SUM(Detail.qty * Detail.unit_price) AS total_revenue "+
			"FROM Detail JOIN Inventory ON Detail.IID = Inventory.IID "+
			"WHERE CAST(Inventory.order_date AS DATE) BETWEEN ? AND ? "+
			"GROUP BY Detail.product_id ORDER BY total_revenue DESC LIMIT %d", k)

	validated, err := s.gateway.Validate(sqlText, []any{from, to}, s.cfg.MaxRows)
	if err != nil {
		return nil, err
	}
	result, err := s.data.CachedQuery(ctx, validated.SQL, validated.Params, s.cfg.QueryTimeout())
	if err != nil {
		return nil, err
	}

	qty := make([]ChartPoint, 0, len(result.Rows))
	revenue := make([]ChartPoint, 0, len(result.Rows))
	var total float64
	for _, row := range result.Rows {
		label := asString(row[0])
		qty = append(qty, ChartPoint{Label: label, Value: asFloat(row[1])})
		revenue = append(revenue, ChartPoint{Label: label, Value: asFloat(row[2])})
		total += asFloat(row[2])
	}
	return &ReportResponse{
		SummaryText: fmt.Sprintf("Top %d products by revenue (%s to %s): %s total.",
			result.RowCount(), from, to, formatCurrency(total)),
		TablesUsed: validated.Tables,
		SQL:        []string{validated.SQL},
		Charts: []Chart{{Type: "bar", Series: []ChartSeries{
			{Name: "Revenue", Data: revenue},
			{Name: "Quantity", Data: qty},
		}}},
	}, nil
}

func (s *ReportService) revenueTrend(ctx context.Context, from, to string) (*ReportResponse, error) {
	sqlText := "SELECT CAST(Inventory.order_date AS DATE) AS day, " +
		"SUM(Inventory.order_total) AS revenue FROM Inventory " +
		"WHERE CAST(Inventory.order_date AS DATE) BETWEEN ? AND ? " +
		"GROUP BY day ORDER BY day"

	validated, points, err := s.run(ctx, sqlText, []any{from, to})
	if err != nil {
		return nil, err
	}

	var total float64
	for _, p := range points {
		total += p.Value
	}
	avgDaily := total / float64(maxInt(len(points), 1))
	return &ReportResponse{
		SummaryText: fmt.Sprintf("Revenue trend from %s to %s: %s total, %s daily average.",
			from, to, formatCurrency(total), formatCurrency(avgDaily)),
		TablesUsed: validated.Tables,
		SQL:        []string{validated.SQL},
		Charts:     []Chart{{Type: "line", Series: []ChartSeries{{Name: "Daily Revenue", Data: points}}}},
	}, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
