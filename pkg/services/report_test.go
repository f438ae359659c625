package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/askretail/askretail-engine/pkg/apperrors"
	"github.com/askretail/askretail-engine/pkg/dates"
	"github.com/askretail/askretail-engine/pkg/engine"
	"github.com/askretail/askretail-engine/pkg/schema"
	"github.com/askretail/askretail-engine/pkg/sqlguard"
)

func newTestReportService(data *fakeData) *ReportService {
	logger := zap.NewNop()
	if data.horizon.IsZero() {
		data.horizon = time.Date(2024, time.August, 31, 0, 0, 0, 0, time.UTC)
	}
	resolver := dates.NewResolver(data, data.horizon, logger)
	return NewReportService(data, resolver, sqlguard.NewGateway(schema.NewRegistry()), testEngineConfig(), logger)
}

func julyFilter() *ReportFilters {
	return &ReportFilters{DateRange: &dates.Filter{From: "2024-07-01", To: "2024-07-31"}}
}

func TestReportRevenueByMonth(t *testing.T) {
	data := &fakeData{rules: []queryRule{
		{
			fragment: "strftime",
			result: &engine.Result{
				Columns: []string{"month", "revenue"},
				Rows:    [][]any{{"2024-01", 100.0}, {"2024-02", 230.5}},
			},
		},
	}}
	svc := newTestReportService(data)

	resp, err := svc.Report(context.Background(), &ReportRequest{
		Type:    ReportRevenueByMonth,
		Filters: &ReportFilters{DateRange: &dates.Filter{From: "2024-01-01", To: "2024-06-30"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Revenue by month between 2024-01-01 and 2024-06-30: $330.50.", resp.SummaryText)
	assert.Equal(t, []string{"Inventory"}, resp.TablesUsed)
	require.Len(t, resp.SQL, 1)
	assert.Contains(t, resp.SQL[0], "GROUP BY month")
	assert.Contains(t, resp.SQL[0], "LIMIT 1000")
	require.Len(t, resp.Charts, 1)
	assert.Equal(t, "bar", resp.Charts[0].Type)
	require.Len(t, resp.Charts[0].Series, 1)
	assert.Equal(t, "Revenue", resp.Charts[0].Series[0].Name)
	assert.Len(t, resp.Charts[0].Series[0].Data, 2)
	assert.Equal(t, 1, data.cachedCalls)
}

func TestReportDefaultRangeIsTrailingYear(t *testing.T) {
	data := &fakeData{}
	svc := newTestReportService(data)

	resp, err := svc.Report(context.Background(), &ReportRequest{Type: ReportRevenueByMonth})
	require.NoError(t, err)

	assert.Contains(t, resp.SummaryText, "between 2023-08-02 and 2024-08-31")
}

func TestReportTopCustomers(t *testing.T) {
	data := &fakeData{rules: []queryRule{
		{
			fragment: "LEFT JOIN Customer",
			result: &engine.Result{
				Columns: []string{"customer", "revenue"},
				Rows:    [][]any{{"Alice Smith", 900.0}, {"Bob Jones", 120.0}},
			},
		},
	}}
	svc := newTestReportService(data)

	resp, err := svc.Report(context.Background(), &ReportRequest{
		Type:    ReportTopCustomers,
		Filters: &ReportFilters{K: 3},
	})
	require.NoError(t, err)

	assert.Equal(t, "Top 2 customers by revenue.", resp.SummaryText)
	assert.Equal(t, []string{"Customer", "Inventory"}, resp.TablesUsed)
	assert.Contains(t, resp.SQL[0], "LIMIT 3")
	require.Len(t, resp.Charts, 1)
	assert.Equal(t, "Alice Smith", resp.Charts[0].Series[0].Data[0].Label)
}

func TestReportTopProducts(t *testing.T) {
	data := &fakeData{rules: []queryRule{
		{
			fragment: "JOIN Inventory ON Detail.IID",
			result: &engine.Result{
				Columns: []string{"product_id", "total_qty", "total_revenue"},
				Rows:    [][]any{{"P001", int64(40), 900.0}, {"P002", int64(25), 610.5}},
			},
		},
	}}
	svc := newTestReportService(data)

	resp, err := svc.Report(context.Background(), &ReportRequest{
		Type:    ReportTopProducts,
		Filters: julyFilter(),
	})
	require.NoError(t, err)

	assert.Equal(t, "Top 2 products by revenue (2024-07-01 to 2024-07-31): $1,510.50 total.", resp.SummaryText)
	assert.Equal(t, []string{"Detail", "Inventory"}, resp.TablesUsed)
	assert.Contains(t, resp.SQL[0], "LIMIT 5")

	require.Len(t, resp.Charts, 1)
	require.Len(t, resp.Charts[0].Series, 2)
	assert.Equal(t, "Revenue", resp.Charts[0].Series[0].Name)
	assert.Equal(t, "Quantity", resp.Charts[0].Series[1].Name)
	assert.InDelta(t, 40.0, resp.Charts[0].Series[1].Data[0].Value, 1e-9)
}

func TestReportRevenueTrend(t *testing.T) {
	data := &fakeData{rules: []queryRule{
		{
			fragment: "GROUP BY day",
			result: &engine.Result{
				Columns: []string{"day", "revenue"},
				Rows:    [][]any{{"2024-07-01", 100.0}, {"2024-07-02", 50.0}},
			},
		},
	}}
	svc := newTestReportService(data)

	resp, err := svc.Report(context.Background(), &ReportRequest{
		Type:    ReportRevenueTrend,
		Filters: julyFilter(),
	})
	require.NoError(t, err)

	assert.Equal(t, "Revenue trend from 2024-07-01 to 2024-07-31: $150.00 total, $75.00 daily average.", resp.SummaryText)
	require.Len(t, resp.Charts, 1)
	assert.Equal(t, "line", resp.Charts[0].Type)
	assert.Equal(t, "Daily Revenue", resp.Charts[0].Series[0].Name)
}

func TestReportTopNClamped(t *testing.T) {
	data := &fakeData{rules: []queryRule{
		{
			fragment: "LEFT JOIN Customer",
			result:   &engine.Result{Columns: []string{"customer", "revenue"}, Rows: [][]any{{"Alice Smith", 1.0}}},
		},
	}}
	svc := newTestReportService(data)

	resp, err := svc.Report(context.Background(), &ReportRequest{
		Type:    ReportTopCustomers,
		Filters: &ReportFilters{K: 99999},
	})
	require.NoError(t, err)
	assert.Contains(t, resp.SQL[0], "LIMIT 1000")
}

func TestReportUnknownType(t *testing.T) {
	svc := newTestReportService(&fakeData{})

	_, err := svc.Report(context.Background(), &ReportRequest{Type: "churn"})
	assert.ErrorIs(t, err, apperrors.ErrUnknownReportType)
}

func TestReportMalformedDateFilter(t *testing.T) {
	svc := newTestReportService(&fakeData{})

	_, err := svc.Report(context.Background(), &ReportRequest{
		Type:    ReportRevenueTrend,
		Filters: &ReportFilters{DateRange: &dates.Filter{From: "07/01/2024", To: "2024-07-31"}},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidDateFormat)
}
