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

// ReportProvider renders typed reports.
type ReportProvider interface {
	Report(ctx context.Context, req *services.ReportRequest) (*services.ReportResponse, error)
}

// ReportHandler handles the canned-report endpoint.
type ReportHandler struct {
	service ReportProvider
	logger  *zap.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(service ReportProvider, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{service: service, logger: logger}
}

// RegisterRoutes registers the report handler's routes on the given mux.
func (h *ReportHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /report", h.Report)
}

// Report handles POST /report requests.
func (h *ReportHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req services.ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "Invalid request body.", "Send JSON with a type field.")
		return
	}

	resp, err := h.service.Report(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode report response", zap.Error(err))
	}
}

func (h *ReportHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrUnknownReportType):
		_ = ErrorResponse(w, http.StatusBadRequest, err.Error(),
			"Use one of: revenue_by_month, top_customers, top_products, revenue_trend.")
	case errors.Is(err, apperrors.ErrInvalidDateFormat):
		_ = ErrorResponse(w, http.StatusBadRequest, err.Error(),
			"Dates must be ISO formatted (YYYY-MM-DD).")
	case errors.Is(err, apperrors.ErrUnsafeSQL):
		_ = ErrorResponse(w, http.StatusBadRequest, err.Error(), "Adjust filters and try again.")
	case errors.Is(err, apperrors.ErrEngineTimeout):
		_ = ErrorResponse(w, http.StatusServiceUnavailable, "Query timeout.", "Narrow the date range and try again.")
	default:
		h.logger.Error("Report request failed", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, err.Error(), "Adjust filters or try again.")
	}
}
