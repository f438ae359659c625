package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/askretail/askretail-engine/pkg/services"
)

// DatasourceProvider rebuilds the dataset views and caches.
type DatasourceProvider interface {
	Refresh(ctx context.Context) (*services.RefreshResult, error)
}

// DatasourceHandler handles dataset lifecycle endpoints.
type DatasourceHandler struct {
	service DatasourceProvider
	logger  *zap.Logger
}

// NewDatasourceHandler creates a new DatasourceHandler.
func NewDatasourceHandler(service DatasourceProvider, logger *zap.Logger) *DatasourceHandler {
	return &DatasourceHandler{service: service, logger: logger}
}

// RegisterRoutes registers the datasource handler's routes on the given mux.
func (h *DatasourceHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /datasource/refresh", h.Refresh)
}

// Refresh handles POST /datasource/refresh requests.
func (h *DatasourceHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Refresh(r.Context())
	if err != nil {
		h.logger.Error("Datasource refresh failed", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, err.Error(), "Check CSV paths, permissions, and formats.")
		return
	}
	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode refresh response", zap.Error(err))
	}
}
