package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/askretail/askretail-engine/pkg/apperrors"
	"github.com/askretail/askretail-engine/pkg/engine"
	"github.com/askretail/askretail-engine/pkg/schema"
	"github.com/askretail/askretail-engine/pkg/sqlguard"
)

// fakeAnalyticsData records executed SQL and serves canned counts and rows.
type fakeAnalyticsData struct {
	rowCount int64
	result   *engine.Result
	lastSQL  string
	scalars  []string
}

func (f *fakeAnalyticsData) Query(_ context.Context, sqlText string, _ []any, _ time.Duration) (*engine.Result, error) {
	f.lastSQL = sqlText
	if f.result != nil {
		return f.result, nil
	}
	return &engine.Result{Columns: []string{}, Rows: [][]any{}}, nil
}

func (f *fakeAnalyticsData) ScalarInt(_ context.Context, sqlText string, _ time.Duration) (int64, error) {
	f.scalars = append(f.scalars, sqlText)
	return f.rowCount, nil
}

func newTestAnalyticsService(data *fakeAnalyticsData) *AnalyticsService {
	registry := schema.NewRegistry()
	return NewAnalyticsService(data, registry, sqlguard.NewGateway(registry), testEngineConfig(), zap.NewNop())
}

func TestAnalyticsPreview(t *testing.T) {
	data := &fakeAnalyticsData{
		rowCount: 50000,
		result: &engine.Result{
			Columns: []string{"CID", "name"},
			Rows:    [][]any{{int64(1001), "Alice Smith"}},
		},
	}
	svc := newTestAnalyticsService(data)

	resp, err := svc.Query(context.Background(), &AnalyticsRequest{
		QueryType: QueryTypePreview,
		Table:     "customer",
		Limit:     100,
	})
	require.NoError(t, err)

	assert.Contains(t, data.lastSQL, "TABLESAMPLE BERNOULLI")
	assert.Contains(t, data.lastSQL, "LIMIT 100")

	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Alice Smith", resp.Data[0]["name"])
	assert.Equal(t, "Customer", resp.Metadata["table"])
	assert.Equal(t, int64(50000), resp.Metadata["total_rows"])
	assert.InDelta(t, 0.2, resp.Metadata["sample_rate"].(float64), 1e-9)
	assert.Equal(t, int64(50000), resp.Performance["rows_scanned"])
	require.Len(t, resp.Suggestions, 1)
	assert.Contains(t, resp.Suggestions[0], "sample of data")
}

func TestAnalyticsAggregateInventory(t *testing.T) {
	data := &fakeAnalyticsData{rowCount: 10}
	svc := newTestAnalyticsService(data)

	_, err := svc.Query(context.Background(), &AnalyticsRequest{
		QueryType: QueryTypeAggregate,
		Table:     "Inventory",
	})
	require.NoError(t, err)

	assert.Contains(t, data.lastSQL, "DATE_TRUNC('month'")
	assert.Contains(t, data.lastSQL, "SUM(order_total)")
	assert.Contains(t, data.lastSQL, "LIMIT 1000")
}

func TestAnalyticsAggregateDefaultsToCount(t *testing.T) {
	data := &fakeAnalyticsData{rowCount: 10}
	svc := newTestAnalyticsService(data)

	_, err := svc.Query(context.Background(), &AnalyticsRequest{
		QueryType: QueryTypeAggregate,
		Table:     "Pricelist",
	})
	require.NoError(t, err)
	assert.Contains(t, data.lastSQL, "SELECT COUNT(*) AS count FROM Pricelist")
}

func TestAnalyticsFullSuggestsPreviewForLargeTables(t *testing.T) {
	data := &fakeAnalyticsData{rowCount: 250000}
	svc := newTestAnalyticsService(data)

	resp, err := svc.Query(context.Background(), &AnalyticsRequest{
		QueryType: QueryTypeFull,
		Table:     "Detail",
	})
	require.NoError(t, err)
	require.Len(t, resp.Suggestions, 1)
	assert.Contains(t, resp.Suggestions[0], "preview mode")
}

func TestAnalyticsAggregateEstimatesCost(t *testing.T) {
	data := &fakeAnalyticsData{rowCount: 300000}
	svc := newTestAnalyticsService(data)

	resp, err := svc.Query(context.Background(), &AnalyticsRequest{
		QueryType: QueryTypeAggregate,
		Table:     "Inventory",
	})
	require.NoError(t, err)

	assert.InDelta(t, 3000.0, resp.Performance["estimated_time_ms"].(float64), 1e-9)
	require.Len(t, resp.Suggestions, 1)
	assert.Contains(t, resp.Suggestions[0], "may timeout")
}

func TestAnalyticsAggregateHintsOnVeryLargeTables(t *testing.T) {
	data := &fakeAnalyticsData{rowCount: 2_000_000}
	svc := newTestAnalyticsService(data)

	resp, err := svc.Query(context.Background(), &AnalyticsRequest{
		QueryType: QueryTypeAggregate,
		Table:     "Detail",
	})
	require.NoError(t, err)

	require.Len(t, resp.Suggestions, 2)
	assert.Contains(t, resp.Suggestions[0], "pre-aggregating")
	assert.Contains(t, resp.Suggestions[1], "may timeout")
}

func TestAnalyticsFiltersParameterized(t *testing.T) {
	data := &fakeAnalyticsData{rowCount: 10}
	svc := newTestAnalyticsService(data)

	_, err := svc.Query(context.Background(), &AnalyticsRequest{
		QueryType: QueryTypeFull,
		Table:     "Inventory",
		Filters: map[string]any{
			"CID":        "1001",
			"order_date": map[string]any{"from": "2024-07-01", "to": "2024-07-31"},
		},
	})
	require.NoError(t, err)

	// Columns apply in sorted order; values bind as parameters.
	assert.Contains(t, data.lastSQL, "WHERE CID = ? AND order_date BETWEEN ? AND ?")
	assert.False(t, strings.Contains(data.lastSQL, "1001"))
}

func TestAnalyticsRejectsUnknownFilterColumn(t *testing.T) {
	svc := newTestAnalyticsService(&fakeAnalyticsData{rowCount: 10})

	_, err := svc.Query(context.Background(), &AnalyticsRequest{
		QueryType: QueryTypeFull,
		Table:     "Inventory",
		Filters:   map[string]any{"password": "x"},
	})
	assert.ErrorIs(t, err, apperrors.ErrUnsafeSQL)
}

func TestAnalyticsUnknownTable(t *testing.T) {
	svc := newTestAnalyticsService(&fakeAnalyticsData{})

	_, err := svc.Query(context.Background(), &AnalyticsRequest{
		QueryType: QueryTypeFull,
		Table:     "Payroll",
	})
	assert.ErrorIs(t, err, apperrors.ErrUnknownTable)
}

func TestAnalyticsUnknownQueryType(t *testing.T) {
	svc := newTestAnalyticsService(&fakeAnalyticsData{rowCount: 1})

	_, err := svc.Query(context.Background(), &AnalyticsRequest{
		QueryType: "explain",
		Table:     "Customer",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query_type")
}

func TestAnalyticsStats(t *testing.T) {
	data := &fakeAnalyticsData{rowCount: 42}
	svc := newTestAnalyticsService(data)

	stats, err := svc.Stats(context.Background(), "customer")
	require.NoError(t, err)

	assert.Equal(t, "Customer", stats.Table)
	assert.Equal(t, int64(42), stats.RowCount)
	require.NotEmpty(t, stats.Columns)
	assert.Equal(t, "CID", stats.Columns[0].Name)
	assert.Equal(t, int64(42), stats.Columns[0].NullCount)
	assert.Empty(t, stats.PerformanceTips)

	// One count, then a null and a distinct query per column.
	assert.Len(t, data.scalars, 1+2*len(stats.Columns))
}

func TestAnalyticsStatsSuggestsPartitioning(t *testing.T) {
	data := &fakeAnalyticsData{rowCount: 2_000_000}
	svc := newTestAnalyticsService(data)

	stats, err := svc.Stats(context.Background(), "Inventory")
	require.NoError(t, err)

	require.NotEmpty(t, stats.PerformanceTips)
	assert.Contains(t, stats.PerformanceTips[len(stats.PerformanceTips)-1], "Partition Inventory")
}

func TestAnalyticsStatsUnknownTable(t *testing.T) {
	svc := newTestAnalyticsService(&fakeAnalyticsData{})

	_, err := svc.Stats(context.Background(), "Payroll")
	assert.ErrorIs(t, err, apperrors.ErrUnknownTable)
}
