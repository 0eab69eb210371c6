package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/periskope/chat/internal/service"
	"github.com/periskope/chat/internal/transport/http/middleware"
	"github.com/periskope/chat/pkg/validator"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// List returns the conversation between ?self= and ?peer=, oldest first.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	self, peer := q.Get("self"), q.Get("peer")
	if self == "" || peer == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARTICIPANTS", "Both self and peer are required")
		return
	}

	messages, err := h.messageService.Conversation(r.Context(), middleware.GetUserID(r.Context()), self, peer)
	if err != nil {
		h.fail(w, "list messages", err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var input service.SendMessageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateMessage(input.Content); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	msg, err := h.messageService.Send(r.Context(), middleware.GetUserID(r.Context()), input)
	if err != nil {
		h.fail(w, "send message", err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) fail(w http.ResponseWriter, op string, err error) {
	if identityError(w, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrMissingPeer):
		writeError(w, http.StatusBadRequest, "MISSING_RECIPIENT", "Recipient is required")
	case errors.Is(err, service.ErrEmptyContent):
		writeError(w, http.StatusBadRequest, "MISSING_CONTENT", "Message content is required")
	case errors.Is(err, service.ErrNotParticipant), errors.Is(err, service.ErrNotMessageOwner):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You do not have access to this conversation")
	default:
		writeInternal(w, op, err)
	}
}
