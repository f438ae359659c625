package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/askretail/askretail-engine/pkg/apperrors"
	"github.com/askretail/askretail-engine/pkg/config"
	"github.com/askretail/askretail-engine/pkg/engine"
	"github.com/askretail/askretail-engine/pkg/schema"
	"github.com/askretail/askretail-engine/pkg/sqlguard"
)

// Analytics query types.
const (
	QueryTypePreview   = "preview"
	QueryTypeAggregate = "aggregate"
	QueryTypeFull      = "full"
)

// AnalyticsEngine is the slice of the engine the analytics service needs.
type AnalyticsEngine interface {
	Query(ctx context.Context, sqlText string, params []any, timeout time.Duration) (*engine.Result, error)
	ScalarInt(ctx context.Context, sqlText string, timeout time.Duration) (int64, error)
}

// AnalyticsRequest selects a table exploration mode. Filters map column
// names to either a scalar (equality) or a {"from","to"} object (range).
type AnalyticsRequest struct {
	QueryType  string         `json:"query_type"`
	Table      string         `json:"table"`
	Filters    map[string]any `json:"filters,omitempty"`
	Limit      int            `json:"limit"`
	SampleRate float64        `json:"sample_rate,omitempty"`
}

// AnalyticsResponse carries rows plus execution metadata.
type AnalyticsResponse struct {
	Data        []map[string]any `json:"data"`
	Metadata    map[string]any   `json:"metadata"`
	Performance map[string]any   `json:"performance"`
	Suggestions []string         `json:"suggestions"`
}

// ColumnStats describes one column of a table.
type ColumnStats struct {
	Name          string `json:"name"`
	NullCount     int64  `json:"null_count"`
	DistinctCount int64  `json:"distinct_count"`
}

// TableStats is the per-table statistics report.
type TableStats struct {
	Table           string        `json:"table"`
	RowCount        int64         `json:"row_count"`
	Columns         []ColumnStats `json:"columns"`
	PerformanceTips []string      `json:"performance_tips"`
}

// AnalyticsService serves table exploration queries. All assembled SQL
// passes through the safety gateway before execution.
type AnalyticsService struct {
	data     AnalyticsEngine
	registry *schema.Registry
	gateway  *sqlguard.Gateway
	cfg      config.EngineConfig
	logger   *zap.Logger
}

func NewAnalyticsService(data AnalyticsEngine, registry *schema.Registry, gateway *sqlguard.Gateway, cfg config.EngineConfig, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		data:     data,
		registry: registry,
		gateway:  gateway,
		cfg:      cfg,
		logger:   logger.Named("analytics"),
	}
}

// Query runs one exploration query against a canonical table.
func (s *AnalyticsService) Query(ctx context.Context, req *AnalyticsRequest) (*AnalyticsResponse, error) {
	table, ok := s.registry.CanonicalTableName(req.Table)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownTable, req.Table)
	}
	limit := req.Limit
	if limit <= 0 || limit > s.cfg.MaxRows {
		limit = s.cfg.MaxRows
	}

	totalRows, err := s.data.ScalarInt(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table), s.cfg.QueryTimeout())
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", table, err)
	}

	metadata := map[string]any{
		"table":      table,
		"total_rows": totalRows,
		"query_type": req.QueryType,
	}
	var suggestions []string

	var sqlText string
	switch req.QueryType {
	case QueryTypePreview:
		sampleRate := req.SampleRate
		if sampleRate <= 0 || sampleRate > 1 {
			sampleRate = 10000.0 / float64(max64(totalRows, 1))
			if sampleRate > 1 {
				sampleRate = 1
			}
		}
		sqlText = fmt.Sprintf("SELECT * FROM %s TABLESAMPLE BERNOULLI(%.4f)", table, sampleRate*100)
		metadata["sample_rate"] = sampleRate
		suggestions = append(suggestions, fmt.Sprintf("Showing %.1f%% sample of data", sampleRate*100))
	case QueryTypeAggregate:
		sqlText = aggregateSQL(table)
	case QueryTypeFull:
		sqlText = fmt.Sprintf("SELECT * FROM %s", table)
		if totalRows > 100000 {
			suggestions = append(suggestions, "Consider using preview mode for large datasets")
		}
	default:
		return nil, fmt.Errorf("unknown query_type %q", req.QueryType)
	}

	sqlText, params, err := s.applyFilters(sqlText, table, req.Filters)
	if err != nil {
		return nil, err
	}

	validated, err := s.gateway.Validate(sqlText, params, limit)
	if err != nil {
		return nil, err
	}

	estimatedMs, hints := estimateCost(validated.SQL, totalRows)
	suggestions = append(suggestions, hints...)

	start := time.Now()
	result, err := s.data.Query(ctx, validated.SQL, validated.Params, s.cfg.QueryTimeout())
	if err != nil {
		return nil, err
	}
	execMs := float64(time.Since(start)) / float64(time.Millisecond)

	data := make([]map[string]any, 0, len(result.Rows))
	for _, row := range result.Rows {
		record := make(map[string]any, len(result.Columns))
		for i, col := range result.Columns {
			record[col] = row[i]
		}
		data = append(data, record)
	}

	return &AnalyticsResponse{
		Data:     data,
		Metadata: metadata,
		Performance: map[string]any{
			"execution_time_ms": execMs,
			"estimated_time_ms": estimatedMs,
			"rows_returned":     len(data),
			"rows_scanned":      totalRows,
		},
		Suggestions: suggestions,
	}, nil
}

// applyFilters appends WHERE clauses for registry-validated columns. Values
// bind as parameters; only the column names, checked against the registry,
// are interpolated.
func (s *AnalyticsService) applyFilters(sqlText, table string, filters map[string]any) (string, []any, error) {
	if len(filters) == 0 {
		return sqlText, nil, nil
	}

	columns := make([]string, 0, len(filters))
	for col := range filters {
		if !s.registry.AllowedColumn(table, col) {
			return "", nil, fmt.Errorf("%w: unknown filter column %q on %s", apperrors.ErrUnsafeSQL, col, table)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	var clauses []string
	var params []any
	for _, col := range columns {
		value := filters[col]
		if rangeVal, ok := value.(map[string]any); ok {
			from, fromOK := rangeVal["from"]
			to, toOK := rangeVal["to"]
			if fromOK && toOK {
				clauses = append(clauses, fmt.Sprintf("%s BETWEEN ? AND ?", col))
				params = append(params, from, to)
				continue
			}
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", col))
		params = append(params, value)
	}

	keyword := " WHERE "
	if strings.Contains(strings.ToUpper(sqlText), " WHERE ") {
		keyword = " AND "
	}
	return sqlText + keyword + strings.Join(clauses, " AND "), params, nil
}

// estimateCost approximates execution time from the statement shape:
// roughly 0.01ms per scanned row for aggregation and 0.02ms per row for
// joins. Hints fire when the table is large enough that the shape matters.
func estimateCost(sqlText string, rows int64) (float64, []string) {
	upper := strings.ToUpper(sqlText)
	var estimatedMs float64
	var hints []string

	if strings.Contains(upper, "GROUP BY") {
		estimatedMs = float64(rows) * 0.01
		if rows > 1_000_000 {
			hints = append(hints, "Consider pre-aggregating data for frequent GROUP BY queries")
		}
	}
	if strings.Contains(upper, "JOIN") {
		estimatedMs = float64(rows) * 0.02
		if rows > 500_000 {
			hints = append(hints, "Consider denormalizing frequently joined tables")
		}
	}
	if estimatedMs > 2000 {
		hints = append(hints, "Query may timeout. Consider adding more specific filters")
	}
	return estimatedMs, hints
}

// partitionTip suggests a partitioning scheme for very large tables.
func partitionTip(table string, rows int64) string {
	if rows < 1_000_000 {
		return ""
	}
	switch table {
	case "Inventory":
		return "Partition Inventory by year of order_date for time-based queries"
	case "Detail":
		return "Hash partition Detail on IID for parallel processing"
	case "Customer":
		if rows > 5_000_000 {
			return "Range partition Customer on CID"
		}
	}
	return ""
}

// aggregateSQL is the canned rollup per table. Tables without a natural
// rollup fall back to a count.
func aggregateSQL(table string) string {
	switch table {
	case "Inventory":
		return "SELECT DATE_TRUNC('month', CAST(order_date AS DATE)) AS month, " +
			"COUNT(*) AS order_count, SUM(order_total) AS total_revenue, AVG(order_total) AS avg_order_value " +
			"FROM Inventory GROUP BY month ORDER BY month DESC"
	case "Detail":
		return "SELECT product_id, COUNT(*) AS order_count, SUM(qty) AS total_quantity, " +
			"SUM(qty * unit_price) AS total_revenue " +
			"FROM Detail GROUP BY product_id ORDER BY total_revenue DESC"
	default:
		return fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", table)
	}
}

// Stats computes per-column null and distinct counts for one table.
func (s *AnalyticsService) Stats(ctx context.Context, tableName string) (*TableStats, error) {
	table, ok := s.registry.Lookup(tableName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownTable, tableName)
	}

	count, err := s.data.ScalarInt(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table.Name), s.cfg.QueryTimeout())
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", table.Name, err)
	}

	stats := &TableStats{Table: table.Name, RowCount: count, Columns: []ColumnStats{}}
	for _, col := range table.Columns {
		nulls, err := s.data.ScalarInt(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s IS NULL", table.Name, col.Name),
			s.cfg.QueryTimeout())
		if err != nil {
			return nil, fmt.Errorf("null count %s.%s: %w", table.Name, col.Name, err)
		}
		distinct, err := s.data.ScalarInt(ctx,
			fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM %s", col.Name, table.Name),
			s.cfg.QueryTimeout())
		if err != nil {
			return nil, fmt.Errorf("distinct count %s.%s: %w", table.Name, col.Name, err)
		}
		stats.Columns = append(stats.Columns, ColumnStats{
			Name:          col.Name,
			NullCount:     nulls,
			DistinctCount: distinct,
		})
	}

	if count > 100000 {
		stats.PerformanceTips = append(stats.PerformanceTips,
			"Use preview mode for exploratory queries",
			"Apply date filters to reduce data scanned")
	}
	if count > 1000000 {
		stats.PerformanceTips = append(stats.PerformanceTips,
			"Use aggregate queries instead of full scans")
	}
	if tip := partitionTip(table.Name, count); tip != "" {
		stats.PerformanceTips = append(stats.PerformanceTips, tip)
	}
	return stats, nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
