package handler

import (
	"net/http"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/middleware"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/service"
)

// AdminUsersHandler handles super-admin user management endpoints
type AdminUsersHandler struct {
	accounts *service.AccountService
}

// NewAdminUsersHandler creates a new admin users handler
func NewAdminUsersHandler(accounts *service.AccountService) *AdminUsersHandler {
	return &AdminUsersHandler{accounts: accounts}
}

// UpdateRole handles PATCH /v1/admin/users/{userId}/role
func (h *AdminUsersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req model.ChangeRoleRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	user, err := h.accounts.ChangeRole(r.Context(), middleware.GetUser(r.Context()), r.PathValue("userId"), &req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, user, nil)
}

// Deactivate handles POST /v1/admin/users/{userId}/deactivate
func (h *AdminUsersHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Deactivate(r.Context(), middleware.GetUser(r.Context()), r.PathValue("userId"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, user, nil)
}
