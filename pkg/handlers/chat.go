// Package handlers exposes the HTTP surface: chat, datasource refresh,
// analytics, and health.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/askretail/askretail-engine/pkg/services"
)

// ChatProvider answers chat requests.
type ChatProvider interface {
	Chat(ctx context.Context, req *services.ChatRequest) (*services.ChatResponse, error)
}

// ChatHandler handles the conversational query endpoint.
type ChatHandler struct {
	service ChatProvider
	logger  *zap.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(service ChatProvider, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{service: service, logger: logger}
}

// RegisterRoutes registers the chat handler's routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /chat", h.Chat)
}

// Chat handles POST /chat requests.
// Cannot-answer outcomes return 200 with a structured error body so the
// client can render the suggestion; only malformed requests and internal
// faults use error status codes.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req services.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "Invalid request body.", "Send JSON with a message field.")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "Message is required.", "Send a non-empty question in the message field.")
		return
	}

	resp, err := h.service.Chat(r.Context(), &req)
	if err != nil {
		var chatErr *services.ChatError
		if errors.As(err, &chatErr) {
			if err := WriteJSON(w, http.StatusOK, chatErr); err != nil {
				h.logger.Error("Failed to encode chat error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Chat request failed", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "Internal error.", "Try a supported query or adjust parameters.")
		return
	}

	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode chat response", zap.Error(err))
	}
}
