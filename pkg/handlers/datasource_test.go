package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/askretail/askretail-engine/pkg/services"
)

type stubDatasourceService struct {
	result *services.RefreshResult
	err    error
	calls  int
}

func (s *stubDatasourceService) Refresh(_ context.Context) (*services.RefreshResult, error) {
	s.calls++
	return s.result, s.err
}

func newDatasourceMux(service DatasourceProvider) *http.ServeMux {
	mux := http.NewServeMux()
	NewDatasourceHandler(service, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestDatasourceRefreshHandler(t *testing.T) {
	stub := &stubDatasourceService{result: &services.RefreshResult{
		Status: "ok",
		Counts: map[string]int64{"Customer": 10, "Inventory": 25},
	}}
	mux := newDatasourceMux(stub)

	req := httptest.NewRequest(http.MethodPost, "/datasource/refresh", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, stub.calls)

	var body services.RefreshResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, int64(25), body.Counts["Inventory"])
}

func TestDatasourceRefreshHandlerFailure(t *testing.T) {
	stub := &stubDatasourceService{err: errors.New("csv missing")}
	mux := newDatasourceMux(stub)

	req := httptest.NewRequest(http.MethodPost, "/datasource/refresh", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "csv missing", body["error"])
	assert.Contains(t, body["suggestion"], "CSV paths")
}
