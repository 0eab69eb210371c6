package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/periskope/chat/internal/domain"
	"github.com/periskope/chat/internal/service"
	"github.com/periskope/chat/internal/transport/http/middleware"
	"github.com/periskope/chat/pkg/validator"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profileService.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "PROFILE_NOT_FOUND", "Profile not found")
		} else {
			writeInternal(w, "get profile", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input domain.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateProfile(input.Name, input.Phone, input.Description); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	profile, err := h.profileService.Update(r.Context(), middleware.GetUserID(r.Context()), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyUpdate):
			writeError(w, http.StatusBadRequest, "EMPTY_UPDATE", "Nothing to update")
		case errors.Is(err, service.ErrPhoneTaken):
			writeError(w, http.StatusConflict, "PHONE_TAKEN", "Phone number is already in use")
		case errors.Is(err, service.ErrProfileNotFound):
			writeError(w, http.StatusNotFound, "PROFILE_NOT_FOUND", "Profile not found")
		default:
			writeInternal(w, "update profile", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// identityError maps a failed identity lookup to the response every phone-scoped endpoint shares.
func identityError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, service.ErrProfileNotFound), errors.Is(err, service.ErrNoIdentity):
		writeError(w, http.StatusNotFound, "PROFILE_NOT_FOUND", "Profile has no phone number")
	default:
		return false
	}
	return true
}
