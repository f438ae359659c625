package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/askretail/askretail-engine/pkg/apperrors"
	"github.com/askretail/askretail-engine/pkg/services"
)

type stubAnalyticsService struct {
	queryResp *services.AnalyticsResponse
	statsResp *services.TableStats
	err       error
	gotTable  string
}

func (s *stubAnalyticsService) Query(_ context.Context, _ *services.AnalyticsRequest) (*services.AnalyticsResponse, error) {
	return s.queryResp, s.err
}

func (s *stubAnalyticsService) Stats(_ context.Context, table string) (*services.TableStats, error) {
	s.gotTable = table
	return s.statsResp, s.err
}

func newAnalyticsMux(service AnalyticsProvider) *http.ServeMux {
	mux := http.NewServeMux()
	NewAnalyticsHandler(service, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestAnalyticsQueryHandler(t *testing.T) {
	stub := &stubAnalyticsService{queryResp: &services.AnalyticsResponse{
		Data:     []map[string]any{{"CID": float64(1001)}},
		Metadata: map[string]any{"table": "Customer"},
	}}
	mux := newAnalyticsMux(stub)

	req := httptest.NewRequest(http.MethodPost, "/analytics/query",
		strings.NewReader(`{"query_type": "preview", "table": "Customer", "limit": 10}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body services.AnalyticsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Customer", body.Metadata["table"])
	require.Len(t, body.Data, 1)
}

func TestAnalyticsQueryHandlerBadBody(t *testing.T) {
	mux := newAnalyticsMux(&stubAnalyticsService{})

	req := httptest.NewRequest(http.MethodPost, "/analytics/query", strings.NewReader("{oops"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyticsStatsHandler(t *testing.T) {
	stub := &stubAnalyticsService{statsResp: &services.TableStats{
		Table:    "Customer",
		RowCount: 42,
		Columns:  []services.ColumnStats{{Name: "CID", DistinctCount: 42}},
	}}
	mux := newAnalyticsMux(stub)

	req := httptest.NewRequest(http.MethodGet, "/analytics/stats/Customer", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Customer", stub.gotTable)

	var body services.TableStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(42), body.RowCount)
}

func TestAnalyticsErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unknown table", fmt.Errorf("%w: %q", apperrors.ErrUnknownTable, "Payroll"), http.StatusBadRequest},
		{"unsafe filter", fmt.Errorf("%w: bad column", apperrors.ErrUnsafeSQL), http.StatusBadRequest},
		{"engine timeout", apperrors.ErrEngineTimeout, http.StatusServiceUnavailable},
		{"other failure", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newAnalyticsMux(&stubAnalyticsService{err: tt.err})

			req := httptest.NewRequest(http.MethodGet, "/analytics/stats/Customer", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["suggestion"])
		})
	}
}
