package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/periskope/chat/internal/service"
	"github.com/periskope/chat/internal/transport/http/middleware"
	"github.com/periskope/chat/pkg/validator"
)

type ContactHandler struct {
	contactService *service.ContactService
}

func NewContactHandler(contactService *service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.contactService.List(r.Context(), middleware.GetUserID(r.Context()), r.URL.Query().Get("phone"))
	if err != nil {
		h.fail(w, "list contacts", err)
		return
	}

	writeJSON(w, http.StatusOK, contacts)
}

func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.AddContactInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateContact(input.ContactName, input.ContactNumber); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	contact, err := h.contactService.Add(r.Context(), middleware.GetUserID(r.Context()), input)
	if err != nil {
		h.fail(w, "add contact", err)
		return
	}

	writeJSON(w, http.StatusCreated, contact)
}

func (h *ContactHandler) fail(w http.ResponseWriter, op string, err error) {
	if identityError(w, err) {
		return
	}
	if errors.Is(err, service.ErrNotContactOwner) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Contacts can only be managed by their owner")
		return
	}
	writeInternal(w, op, err)
}
