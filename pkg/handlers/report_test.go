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

type stubReportService struct {
	resp    *services.ReportResponse
	err     error
	gotType string
}

func (s *stubReportService) Report(_ context.Context, req *services.ReportRequest) (*services.ReportResponse, error) {
	s.gotType = req.Type
	return s.resp, s.err
}

func newReportMux(service ReportProvider) *http.ServeMux {
	mux := http.NewServeMux()
	NewReportHandler(service, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestReportHandler(t *testing.T) {
	stub := &stubReportService{resp: &services.ReportResponse{
		SummaryText: "Top 2 customers by revenue.",
		TablesUsed:  []string{"Customer", "Inventory"},
		SQL:         []string{"SELECT 1"},
		Charts:      []services.Chart{{Type: "bar"}},
	}}
	mux := newReportMux(stub)

	req := httptest.NewRequest(http.MethodPost, "/report",
		strings.NewReader(`{"type": "top_customers", "filters": {"k": 2}}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "top_customers", stub.gotType)

	var body services.ReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Top 2 customers by revenue.", body.SummaryText)
	assert.Equal(t, []string{"Customer", "Inventory"}, body.TablesUsed)
	require.Len(t, body.Charts, 1)
}

func TestReportHandlerBadBody(t *testing.T) {
	mux := newReportMux(&stubReportService{})

	req := httptest.NewRequest(http.MethodPost, "/report", strings.NewReader("{oops"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unknown type", fmt.Errorf("%w: %q", apperrors.ErrUnknownReportType, "churn"), http.StatusBadRequest},
		{"bad date filter", fmt.Errorf("%w: %q", apperrors.ErrInvalidDateFormat, "07/01/2024"), http.StatusBadRequest},
		{"unsafe sql", fmt.Errorf("%w: multiple statements", apperrors.ErrUnsafeSQL), http.StatusBadRequest},
		{"engine timeout", apperrors.ErrEngineTimeout, http.StatusServiceUnavailable},
		{"other failure", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newReportMux(&stubReportService{err: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/report",
				strings.NewReader(`{"type": "revenue_trend"}`))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["suggestion"])
		})
	}
}
