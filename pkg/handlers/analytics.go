package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/askretail/askretail-engine/pkg/apperrors"
	"github.com/askretail/askretail-engine/pkg/services"
)

// AnalyticsProvider serves table exploration queries.
type AnalyticsProvider interface {
	Query(ctx context.Context, req *services.AnalyticsRequest) (*services.AnalyticsResponse, error)
	Stats(ctx context.Context, table string) (*services.TableStats, error)
}

// AnalyticsHandler handles table exploration endpoints.
type AnalyticsHandler struct {
	service AnalyticsProvider
	logger  *zap.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(service AnalyticsProvider, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, logger: logger}
}

// RegisterRoutes registers the analytics handler's routes on the given mux.
func (h *AnalyticsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /analytics/query", h.Query)
	mux.HandleFunc("GET /analytics/stats/{table}", h.Stats)
}

// Query handles POST /analytics/query requests.
func (h *AnalyticsHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req services.AnalyticsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "Invalid request body.", "Send JSON with query_type and table fields.")
		return
	}

	resp, err := h.service.Query(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode analytics response", zap.Error(err))
	}
}

// Stats handles GET /analytics/stats/{table} requests.
func (h *AnalyticsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), r.PathValue("table"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, stats); err != nil {
		h.logger.Error("Failed to encode stats response", zap.Error(err))
	}
}

func (h *AnalyticsHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrUnknownTable):
		_ = ErrorResponse(w, http.StatusBadRequest, err.Error(), "Use one of: Customer, Inventory, Detail, Pricelist.")
	case errors.Is(err, apperrors.ErrUnsafeSQL):
		_ = ErrorResponse(w, http.StatusBadRequest, err.Error(), "Filter only on known columns with plain values.")
	case errors.Is(err, apperrors.ErrEngineTimeout):
		_ = ErrorResponse(w, http.StatusServiceUnavailable, "Query timeout.", "Try using preview mode or adding more specific filters.")
	default:
		h.logger.Error("Analytics request failed", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, err.Error(), "Retry or adjust the request.")
	}
}
