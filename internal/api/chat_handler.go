package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mmynk/sodarota/internal/models"
)

type chatService interface {
	List(ctx context.Context) ([]models.ChatMessage, error)
	Post(ctx context.Context, userName, text string) (models.ChatMessage, error)
}

// ChatHandler serves the shared chat log.
type ChatHandler struct {
	service   chatService
	responder responder
	logger    *slog.Logger
}

// NewChatHandler creates the chat endpoints.
func NewChatHandler(svc chatService, logger *slog.Logger) *ChatHandler {
	base := defaultLogger(logger)
	return &ChatHandler{service: svc, responder: newResponder(base), logger: base}
}

type chatRequest struct {
	UserName string `json:"userName"`
	Text     string `json:"text"`
}

type chatPostResponse struct {
	Success bool               `json:"success"`
	Message models.ChatMessage `json:"message"`
}

// List handles GET /api/chat.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.service.List(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, messages)
}

// Post handles POST /api/chat/message.
func (h *ChatHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		handlerLogger(r.Context(), h.logger, "ChatHandler", "Post", "error_kind", "bad_request").
			WarnContext(r.Context(), "failed to decode chat request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	msg, err := h.service.Post(r.Context(), req.UserName, req.Text)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, chatPostResponse{Success: true, Message: msg})
}
