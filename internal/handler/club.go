package handler

import (
	"net/http"
	"strings"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/middleware"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/service"
)

// ClubHandler handles club registry and membership requests
type ClubHandler struct {
	clubs      *service.ClubService
	membership *service.MembershipService
}

// NewClubHandler creates a new club handler
func NewClubHandler(clubs *service.ClubService, membership *service.MembershipService) *ClubHandler {
	return &ClubHandler{clubs: clubs, membership: membership}
}

// List handles GET /v1/clubs
func (h *ClubHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryInt(r, "page")
	if err != nil {
		handleError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleError(w, r, err)
		return
	}

	filter := model.ClubFilter{
		Category:   q.Get("category"),
		Department: q.Get("department"),
		Search:     q.Get("search"),
		Sort:       q.Get("sort"),
		Ascending:  strings.EqualFold(q.Get("order"), "asc"),
		Page:       page,
		Limit:      limit,
	}
	// Names read naturally A to Z unless asked otherwise.
	if filter.Sort == model.ClubSortName && q.Get("order") == "" {
		filter.Ascending = true
	}

	result, err := h.clubs.ListClubs(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}

	WritePage(w, result)
}

// Create handles POST /v1/clubs
func (h *ClubHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateClubRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	club, err := h.clubs.CreateClub(r.Context(), middleware.GetUser(r.Context()), &req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, club, map[string]string{
		"self": "/v1/clubs/" + club.ID,
	})
}

// Get handles GET /v1/clubs/{clubId}
func (h *ClubHandler) Get(w http.ResponseWriter, r *http.Request) {
	club, err := h.clubs.GetClub(r.Context(), r.PathValue("clubId"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, club, map[string]string{
		"events": "/v1/clubs/" + club.ID + "/events",
	})
}

// Update handles PATCH /v1/clubs/{clubId}
func (h *ClubHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateClubRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	club, err := h.clubs.UpdateClub(r.Context(), middleware.GetUser(r.Context()), r.PathValue("clubId"), &req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, club, nil)
}

// Delete handles DELETE /v1/clubs/{clubId}
func (h *ClubHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.clubs.DeleteClub(r.Context(), middleware.GetUser(r.Context()), r.PathValue("clubId")); err != nil {
		handleError(w, r, err)
		return
	}

	WriteNoContent(w)
}

// Join handles POST /v1/clubs/{clubId}/join.
// A queued request answers 202 Accepted.
func (h *ClubHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req model.JoinClubRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	result, err := h.membership.Join(r.Context(), middleware.GetUser(r.Context()), r.PathValue("clubId"), &req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Outcome == model.JoinOutcomePending {
		status = http.StatusAccepted
	}
	WriteData(w, status, result, nil)
}

// Leave handles POST /v1/clubs/{clubId}/leave
func (h *ClubHandler) Leave(w http.ResponseWriter, r *http.Request) {
	club, err := h.membership.Leave(r.Context(), middleware.GetUser(r.Context()), r.PathValue("clubId"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, club, nil)
}

// Members handles GET /v1/clubs/{clubId}/members
func (h *ClubHandler) Members(w http.ResponseWriter, r *http.Request) {
	roster, err := h.clubs.Members(r.Context(), middleware.GetUser(r.Context()), r.PathValue("clubId"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, roster, nil)
}

// Requests handles GET /v1/clubs/{clubId}/requests
func (h *ClubHandler) Requests(w http.ResponseWriter, r *http.Request) {
	pending, err := h.clubs.PendingRequests(r.Context(), middleware.GetUser(r.Context()), r.PathValue("clubId"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if pending == nil {
		pending = []model.PendingEntry{}
	}

	WriteData(w, http.StatusOK, pending, nil)
}

// Approve handles POST /v1/clubs/{clubId}/requests/{userId}/approve
func (h *ClubHandler) Approve(w http.ResponseWriter, r *http.Request) {
	club, err := h.membership.Approve(r.Context(), middleware.GetUser(r.Context()), r.PathValue("clubId"), r.PathValue("userId"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, club, nil)
}

// Reject handles POST /v1/clubs/{clubId}/requests/{userId}/reject
func (h *ClubHandler) Reject(w http.ResponseWriter, r *http.Request) {
	club, err := h.membership.Reject(r.Context(), middleware.GetUser(r.Context()), r.PathValue("clubId"), r.PathValue("userId"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, club, nil)
}

// AddAdmin handles PUT /v1/clubs/{clubId}/admins/{userId}
func (h *ClubHandler) AddAdmin(w http.ResponseWriter, r *http.Request) {
	var req model.AddAdminRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	club, err := h.membership.AddAdmin(r.Context(), middleware.GetUser(r.Context()), r.PathValue("clubId"), r.PathValue("userId"), &req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, club, nil)
}

// Events handles GET /v1/clubs/{clubId}/events
func (h *ClubHandler) Events(w http.ResponseWriter, r *http.Request) {
	events, err := h.clubs.ClubEvents(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("clubId"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if events == nil {
		events = []*model.EventView{}
	}

	WriteData(w, http.StatusOK, events, nil)
}
