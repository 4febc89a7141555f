package handler

import (
	"net/http"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/middleware"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/service"
)

// AuthHandler handles registration, login and the caller's profile
type AuthHandler struct {
	accounts *service.AccountService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	result, err := h.accounts.Register(r.Context(), &req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, result, map[string]string{
		"profile": "/v1/profile",
	})
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	result, err := h.accounts.Login(r.Context(), &req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, result, nil)
}

// Profile handles GET /v1/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.accounts.Profile(r.Context(), middleware.GetUser(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, profile, nil)
}
