package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/periskope/chat/internal/service"
	"github.com/periskope/chat/internal/transport/http/middleware"
	"github.com/periskope/chat/pkg/validator"
)

type AuthHandler struct {
	authService    *service.AuthService
	profileService *service.ProfileService
}

func NewAuthHandler(authService *service.AuthService, profileService *service.ProfileService) *AuthHandler {
	return &AuthHandler{authService: authService, profileService: profileService}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input service.SignupInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateSignup(input.Email, input.Password, input.Phone); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	resp, err := h.authService.Signup(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email is already registered")
		case errors.Is(err, service.ErrPhoneTaken):
			writeError(w, http.StatusConflict, "PHONE_TAKEN", "Phone number is already in use")
		default:
			writeInternal(w, "signup", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateLogin(input.Email, input.Password); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	resp, err := h.authService.Login(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCreds) {
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		} else {
			writeInternal(w, "login", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Logout is stateless: tokens are not tracked server side, so the client just drops its copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// User returns the account behind the bearer token together with its profile, if any.
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetUserID(r.Context())

	account, err := h.authService.Account(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Account no longer exists")
		} else {
			writeInternal(w, "get user", err)
		}
		return
	}

	resp := map[string]any{"account": account}
	profile, err := h.profileService.Get(r.Context(), accountID)
	switch {
	case err == nil:
		resp["profile"] = profile
	case !errors.Is(err, service.ErrProfileNotFound):
		writeInternal(w, "get user profile", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
