package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/authz"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
)

// EventService handles the event registry: lifecycle, listing and admin rosters
type EventService struct {
	base
}

// NewEventService creates a new event service
func NewEventService(cfg Config) *EventService {
	return &EventService{base: newBase(cfg)}
}

// CreateEvent creates a published event for a club. The event row and the
// club's event reference are written in one transaction.
func (s *EventService) CreateEvent(ctx context.Context, actor *model.User, req *model.CreateEventRequest) (*model.EventView, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, invalid(errs)
	}

	unlock := s.locks.Club(req.ClubID)
	defer unlock()

	var event *model.Event
	err := retryWrite(ctx, "create event", func() error {
		club, err := s.loadClub(ctx, req.ClubID)
		if err != nil {
			return err
		}
		if d := authz.Can(actor, authz.ActionCreateEvent, club); !d.Allowed {
			return denied(d)
		}

		now := s.now()
		start, err := model.StartInstant(req.Date, req.Time, s.loc)
		if err != nil {
			return invalidField(ErrEventDateNotFuture, "date")
		}
		if !start.After(now) {
			return invalidField(ErrEventDateNotFuture, "date")
		}
		if req.RegistrationDeadline != nil && req.RegistrationDeadline.After(start) {
			return invalidField(ErrDeadlineAfterStart, "registration_deadline")
		}

		event = newEvent(req, actor.ID, start, now)
		club.AddEventRef(event.ID)
		club.UpdatedOn = now
		return s.events.Create(ctx, event, club)
	})
	if err != nil {
		return nil, err
	}

	return model.NewEventView(event, s.now(), actor.ID), nil
}

func newEvent(req *model.CreateEventRequest, creatorID string, start, now time.Time) *model.Event {
	category := req.Category
	if category == "" {
		category = model.DefaultEventCategory
	}
	eventType := req.Type
	if eventType == "" {
		eventType = model.EventTypeMembersOnly
	}
	capacity := model.DefaultMaxCapacity
	if req.MaxCapacity != nil {
		capacity = *req.MaxCapacity
	}

	event := &model.Event{
		ID:                   uuid.NewString(),
		ClubID:               req.ClubID,
		CreatedBy:            creatorID,
		Title:                strings.TrimSpace(req.Title),
		Description:          strings.TrimSpace(req.Description),
		Date:                 start,
		Time:                 req.Time,
		EndTime:              req.EndTime,
		Location:             strings.TrimSpace(req.Location),
		Venue:                req.Venue,
		Category:             category,
		Type:                 eventType,
		MaxCapacity:          capacity,
		RegistrationRequired: req.RegistrationRequired,
		RegistrationDeadline: req.RegistrationDeadline,
		Tags:                 req.Tags,
		Status:               model.EventStatusPublished,
		RSVPs:                []model.RSVP{},
		Attendees:            []model.Attendee{},
		Feedback:             []model.Feedback{},
		CreatedOn:            now,
		UpdatedOn:            now,
	}
	req.EventDetails.ApplyTo(event, now)
	return event
}

// GetEvent returns the public view of an event
func (s *EventService) GetEvent(ctx context.Context, viewerID, eventID string) (*model.EventView, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return model.NewEventView(event, s.now(), viewerID), nil
}

// ListEvents returns one page of events in start order
func (s *EventService) ListEvents(ctx context.Context, viewerID string, filter model.EventFilter) (model.Page[*model.EventView], error) {
	filter.Normalize()
	now := s.now()
	if filter.UpcomingOnly && filter.From.IsZero() {
		filter.From = now
	}

	type listing struct {
		events []*model.Event
		total  int
	}
	res, err := retryRead(ctx, func() (listing, error) {
		events, total, err := s.events.List(ctx, filter)
		return listing{events, total}, err
	})
	if err != nil {
		return model.Page[*model.EventView]{}, err
	}

	views := make([]*model.EventView, 0, len(res.events))
	for _, e := range res.events {
		views = append(views, model.NewEventView(e, now, viewerID))
	}
	return model.NewPage(views, res.total, filter.Page, filter.Limit), nil
}

// UpdateEvent applies a partial update. Allowed for the creator and club admins.
func (s *EventService) UpdateEvent(ctx context.Context, actor *model.User, eventID string, req *model.UpdateEventRequest) (*model.EventView, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, invalid(errs)
	}

	unlock := s.locks.Event(eventID)
	defer unlock()

	var event *model.Event
	err := retryWrite(ctx, "update event", func() error {
		var (
			club *model.Club
			err  error
		)
		if event, club, err = s.loadEventWithClub(ctx, eventID); err != nil {
			return err
		}
		if d := authz.CanEvent(actor, authz.ActionUpdateEvent, club, event); !d.Allowed {
			return denied(d)
		}

		now := s.now()
		if err := s.applyEventUpdate(event, req, now); err != nil {
			return err
		}
		event.UpdatedOn = now
		return s.events.Save(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	return model.NewEventView(event, s.now(), actor.ID), nil
}

func (s *EventService) applyEventUpdate(event *model.Event, req *model.UpdateEventRequest, now time.Time) error {
	if req.Date != nil || req.Time != nil {
		date := event.Date.In(s.loc).Format(model.DateLayout)
		clock := event.Time
		if req.Date != nil {
			date = *req.Date
		}
		if req.Time != nil {
			clock = *req.Time
		}
		start, err := model.StartInstant(date, clock, s.loc)
		if err != nil || !start.After(now) {
			return invalidField(ErrEventDateNotFuture, "date")
		}
		event.Date = start
		event.Time = clock
	}
	if req.MaxCapacity != nil {
		if going := event.GoingCount(); *req.MaxCapacity < going {
			return invalidField(ErrCapacityBelowGoing, "max_capacity").withLimit(*req.MaxCapacity, going)
		}
		event.MaxCapacity = *req.MaxCapacity
	}
	if req.RegistrationDeadline != nil {
		event.RegistrationDeadline = req.RegistrationDeadline
	}
	if event.RegistrationDeadline != nil && event.RegistrationDeadline.After(event.Date) {
		return invalidField(ErrDeadlineAfterStart, "registration_deadline")
	}

	if req.Title != nil {
		event.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		event.Description = strings.TrimSpace(*req.Description)
	}
	if req.EndTime != nil {
		event.EndTime = *req.EndTime
	}
	if req.Location != nil {
		event.Location = strings.TrimSpace(*req.Location)
	}
	if req.Venue != nil {
		event.Venue = req.Venue
	}
	if req.Category != nil {
		event.Category = *req.Category
	}
	if req.Type != nil {
		event.Type = *req.Type
	}
	if req.RegistrationRequired != nil {
		event.RegistrationRequired = *req.RegistrationRequired
	}
	if req.Tags != nil {
		event.Tags = req.Tags
	}
	if req.Status != nil {
		event.Status = *req.Status
	}
	req.EventDetails.ApplyTo(event, now)
	return nil
}

// DeleteEvent removes the event, its club reference and every user's RSVP
// reference in one transaction.
func (s *EventService) DeleteEvent(ctx context.Context, actor *model.User, eventID string) error {
	first, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return err
	}

	unlockClub := s.locks.Club(first.ClubID)
	defer unlockClub()
	unlockEvent := s.locks.Event(eventID)
	defer unlockEvent()

	return retryWrite(ctx, "delete event", func() error {
		event, err := s.loadEvent(ctx, eventID)
		if err != nil {
			return err
		}
		club, err := retryRead(ctx, func() (*model.Club, error) { return s.clubs.GetByID(ctx, event.ClubID) })
		if err != nil {
			return err
		}
		if d := authz.CanEvent(actor, authz.ActionDeleteEvent, club, event); !d.Allowed {
			return denied(d)
		}

		users, err := retryRead(ctx, func() ([]*model.User, error) {
			return s.users.ListReferencing(ctx, "", []string{eventID})
		})
		if err != nil {
			return err
		}

		now := s.now()
		events := map[string]bool{eventID: true}
		changed := make([]*model.User, 0, len(users))
		for _, u := range users {
			if scrubUser(u, nil, events) {
				u.UpdatedOn = now
				changed = append(changed, u)
			}
		}
		if club != nil {
			club.RemoveEventRef(eventID)
			club.UpdatedOn = now
		}
		return s.events.Delete(ctx, event, club, changed...)
	})
}

// RSVPs returns the RSVP roster resolved to user summaries
func (s *EventService) RSVPs(ctx context.Context, actor *model.User, eventID string) (*model.RSVPRoster, error) {
	event, club, err := s.loadEventWithClub(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if d := authz.Can(actor, authz.ActionViewRSVPs, club); !d.Allowed {
		return nil, denied(d)
	}

	ids := make([]string, 0, len(event.RSVPs))
	for _, r := range event.RSVPs {
		ids = append(ids, r.UserID)
	}
	users, err := s.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	roster := &model.RSVPRoster{RSVPs: make([]model.RSVPEntry, 0, len(event.RSVPs)), Counts: event.RSVPCounts()}
	for _, r := range event.RSVPs {
		u, ok := users[r.UserID]
		if !ok {
			u = model.UserSummary{ID: r.UserID}
		}
		roster.RSVPs = append(roster.RSVPs, model.RSVPEntry{User: u, Status: r.Status, Note: r.Note, RSVPAt: r.RSVPAt})
	}
	return roster, nil
}

// Feedback returns every feedback entry with anonymous authors withheld
func (s *EventService) Feedback(ctx context.Context, actor *model.User, eventID string) (*model.FeedbackReport, error) {
	event, club, err := s.loadEventWithClub(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if d := authz.Can(actor, authz.ActionViewFeedback, club); !d.Allowed {
		return nil, denied(d)
	}

	var ids []string
	for _, f := range event.Feedback {
		if !f.IsAnonymous {
			ids = append(ids, f.UserID)
		}
	}
	users, err := s.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	report := &model.FeedbackReport{
		Feedback:      make([]model.FeedbackEntry, 0, len(event.Feedback)),
		AverageRating: event.AverageRating(),
		TotalFeedback: len(event.Feedback),
		Distribution:  event.RatingDistribution(),
	}
	for _, f := range event.Feedback {
		entry := model.FeedbackEntry{Rating: f.Rating, Comment: f.Comment, SubmittedAt: f.SubmittedAt}
		if !f.IsAnonymous {
			if u, ok := users[f.UserID]; ok {
				entry.User = &u
			}
		}
		report.Feedback = append(report.Feedback, entry)
	}
	return report, nil
}
