package handler

import (
	"net/http"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/middleware"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/service"
)

// EventHandler handles event registry and participation requests
type EventHandler struct {
	events        *service.EventService
	participation *service.ParticipationService
}

// NewEventHandler creates a new event handler
func NewEventHandler(events *service.EventService, participation *service.ParticipationService) *EventHandler {
	return &EventHandler{events: events, participation: participation}
}

// List handles GET /v1/events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
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
	upcoming, err := queryBool(r, "upcoming", true)
	if err != nil {
		handleError(w, r, err)
		return
	}

	status := model.EventStatus(q.Get("status"))
	if status != "" && status != model.EventStatusAll && !status.IsValid() {
		handleError(w, r, model.NewBadRequestError("unknown event status").WithField("status"))
		return
	}

	filter := model.EventFilter{
		ClubID:       q.Get("club_id"),
		Category:     q.Get("category"),
		Status:       status,
		UpcomingOnly: upcoming,
		Search:       q.Get("search"),
		Page:         page,
		Limit:        limit,
	}

	result, err := h.events.ListEvents(r.Context(), middleware.GetUserID(r.Context()), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}

	WritePage(w, result)
}

// Create handles POST /v1/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	event, err := h.events.CreateEvent(r.Context(), middleware.GetUser(r.Context()), &req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, event, map[string]string{
		"self": "/v1/events/" + event.ID,
		"club": "/v1/clubs/" + event.ClubID,
	})
}

// Get handles GET /v1/events/{eventId}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("eventId"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, event, nil)
}

// Update handles PATCH /v1/events/{eventId}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateEventRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	event, err := h.events.UpdateEvent(r.Context(), middleware.GetUser(r.Context()), r.PathValue("eventId"), &req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, event, nil)
}

// Delete handles DELETE /v1/events/{eventId}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.events.DeleteEvent(r.Context(), middleware.GetUser(r.Context()), r.PathValue("eventId")); err != nil {
		handleError(w, r, err)
		return
	}

	WriteNoContent(w)
}

// RSVP handles POST /v1/events/{eventId}/rsvp
func (h *EventHandler) RSVP(w http.ResponseWriter, r *http.Request) {
	var req model.RSVPRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	result, err := h.participation.RSVP(r.Context(), middleware.GetUser(r.Context()), r.PathValue("eventId"), &req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, result, nil)
}

// RSVPs handles GET /v1/events/{eventId}/rsvps
func (h *EventHandler) RSVPs(w http.ResponseWriter, r *http.Request) {
	roster, err := h.events.RSVPs(r.Context(), middleware.GetUser(r.Context()), r.PathValue("eventId"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, roster, nil)
}

// CheckIn handles POST /v1/events/{eventId}/checkin
func (h *EventHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req model.CheckInRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	result, err := h.participation.CheckIn(r.Context(), middleware.GetUser(r.Context()), r.PathValue("eventId"), &req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, result, nil)
}

// SubmitFeedback handles POST /v1/events/{eventId}/feedback
func (h *EventHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req model.FeedbackRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	result, err := h.participation.SubmitFeedback(r.Context(), middleware.GetUser(r.Context()), r.PathValue("eventId"), &req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, result, nil)
}

// Feedback handles GET /v1/events/{eventId}/feedback
func (h *EventHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	report, err := h.events.Feedback(r.Context(), middleware.GetUser(r.Context()), r.PathValue("eventId"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, report, nil)
}
