package service

import (
	"context"
	"strings"
	"time"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/authz"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
)

// ParticipationService handles what members do with an event: RSVP, check-in
// and post-event feedback. Each mutation holds the event lock, so the
// capacity check and the RSVP write observe the same going count. Members-only
// RSVPs are also written against the club version they were checked with.
type ParticipationService struct {
	base
}

// NewParticipationService creates a new participation service
func NewParticipationService(cfg Config) *ParticipationService {
	return &ParticipationService{base: newBase(cfg)}
}

// RSVP records or replaces the actor's RSVP. Repeating the same RSVP is a no-op change.
func (s *ParticipationService) RSVP(ctx context.Context, actor *model.User, eventID string, req *model.RSVPRequest) (*model.RSVPResult, error) {
	if d := authz.Can(actor, authz.ActionRSVP, nil); !d.Allowed {
		return nil, denied(d)
	}
	if errs := req.Validate(); len(errs) > 0 {
		return nil, invalid(errs)
	}

	unlock := s.locks.Event(eventID)
	defer unlock()

	var event *model.Event
	err := retryWrite(ctx, "rsvp", func() error {
		var (
			club *model.Club
			err  error
		)
		if event, club, err = s.loadEventWithClub(ctx, eventID); err != nil {
			return err
		}
		user, err := s.loadUser(ctx, actor.ID)
		if err != nil {
			return err
		}

		now := s.now()
		if err := checkRSVP(event, club, user, now); err != nil {
			return err
		}

		event.UpsertRSVP(user.ID, req.Status, strings.TrimSpace(req.Note), now)
		event.UpdatedOn = now
		user.SetEventRSVP(event.ID, req.Status, now)
		user.UpdatedOn = now
		if event.Type == model.EventTypeMembersOnly {
			// the membership read above must still hold when the RSVP lands
			return s.events.SaveGuarded(ctx, event, club, user)
		}
		return s.events.Save(ctx, event, user)
	})
	if err != nil {
		return nil, err
	}

	rsvp := *event.RSVPFor(actor.ID)
	return &model.RSVPResult{
		RSVP:           &rsvp,
		RSVPCounts:     event.RSVPCounts(),
		AvailableSpots: event.AvailableSpots(),
	}, nil
}

// checkRSVP applies the event's RSVP rules in order. A full event or a passed
// deadline closes registration for every status, including not_going.
func checkRSVP(event *model.Event, club *model.Club, user *model.User, now time.Time) error {
	if event.HasStarted(now) {
		return conflict(ErrEventInPast)
	}
	if !event.Status.AcceptsRSVPs() {
		return conflict(ErrRegistrationClosed)
	}
	if event.RegistrationRequired {
		if event.IsFull() {
			return conflict(ErrRegistrationClosed).withLimit(event.MaxCapacity, event.GoingCount())
		}
		if event.DeadlinePassed(now) {
			return conflict(ErrRegistrationClosed).withField("registration_deadline")
		}
	}
	if event.Type == model.EventTypeMembersOnly && !club.IsActiveMember(user.ID) && !club.IsAdmin(user.ID) {
		return conflict(ErrMembersOnly)
	}
	return nil
}

// CheckIn records attendance for a user. Checking in twice succeeds without a second record.
func (s *ParticipationService) CheckIn(ctx context.Context, actor *model.User, eventID string, req *model.CheckInRequest) (*model.CheckInResult, error) {
	if req == nil || strings.TrimSpace(req.UserID) == "" {
		return nil, invalid([]model.FieldError{{Field: "user_id", Message: "user_id is required"}})
	}

	unlock := s.locks.Event(eventID)
	defer unlock()

	result := &model.CheckInResult{UserID: req.UserID}
	err := retryWrite(ctx, "check in", func() error {
		event, club, err := s.loadEventWithClub(ctx, eventID)
		if err != nil {
			return err
		}
		if d := authz.Can(actor, authz.ActionCheckIn, club); !d.Allowed {
			return denied(d)
		}
		if _, err := s.loadUser(ctx, req.UserID); err != nil {
			return err
		}

		now := s.now()
		added := event.CheckIn(req.UserID, actor.ID, now)
		result.AlreadyCheckedIn = !added
		result.ActualAttendance = len(event.Attendees)
		if !added {
			return nil
		}
		event.UpdatedOn = now
		return s.events.Save(ctx, event)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SubmitFeedback records one rating per user after the event has started
func (s *ParticipationService) SubmitFeedback(ctx context.Context, actor *model.User, eventID string, req *model.FeedbackRequest) (*model.FeedbackResult, error) {
	if d := authz.Can(actor, authz.ActionSubmitFeedback, nil); !d.Allowed {
		return nil, denied(d)
	}
	rating, ok := req.Score()
	if !ok {
		return nil, conflict(ErrInvalidRating).withField("rating")
	}
	if errs := req.Validate(); len(errs) > 0 {
		return nil, invalid(errs)
	}

	unlock := s.locks.Event(eventID)
	defer unlock()

	var event *model.Event
	err := retryWrite(ctx, "submit feedback", func() error {
		var err error
		if event, err = s.loadEvent(ctx, eventID); err != nil {
			return err
		}

		now := s.now()
		if event.Status == model.EventStatusCancelled {
			return conflict(ErrEventCancelled)
		}
		if event.Date.After(now) {
			return conflict(ErrEventNotCompleted)
		}
		if event.FeedbackFrom(actor.ID) != nil {
			return conflict(ErrDuplicateFeedback)
		}

		event.Feedback = append(event.Feedback, model.Feedback{
			UserID:      actor.ID,
			Rating:      rating,
			Comment:     strings.TrimSpace(req.Comment),
			IsAnonymous: req.IsAnonymous,
			SubmittedAt: now,
		})
		event.UpdatedOn = now
		return s.events.Save(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	return &model.FeedbackResult{
		AverageRating: event.AverageRating(),
		TotalFeedback: len(event.Feedback),
	}, nil
}
