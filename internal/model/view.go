package model

import (
	"math"
	"time"
)

// ClubSummary is the read-side resolution of a club reference
type ClubSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Logo     string `json:"logo,omitempty"`
}

// Summary returns the reference projection of the club
func (c *Club) Summary() ClubSummary {
	return ClubSummary{ID: c.ID, Name: c.Name, Category: c.Category, Logo: c.Logo}
}

// ClubStats are projections over the rosters, never stored
type ClubStats struct {
	TotalMembers      int     `json:"total_members"`
	TotalEvents       int     `json:"total_events"`
	AverageAttendance float64 `json:"average_attendance"`
}

// ClubView is the public view of a club with derived fields recomputed.
// PendingRequests shadows the embedded roster so it is never serialized.
type ClubView struct {
	*Club
	PendingRequests    []JoinRequest `json:"pending_requests,omitempty"`
	ActiveMembersCount int           `json:"active_members_count"`
	ActiveEventsCount  int           `json:"active_events_count"`
	AvailableSeats     int           `json:"available_seats"`
	ClubAge            int           `json:"club_age"`
	Stats              *ClubStats    `json:"stats,omitempty"`
}

// NewClubView projects the club at now. Events are only needed for stats and may be nil.
func NewClubView(c *Club, events []*Event, now time.Time) *ClubView {
	active := c.ActiveMembersCount()
	seats := c.MaxMembers - active
	if seats < 0 {
		seats = 0
	}
	v := &ClubView{
		Club:               c,
		ActiveMembersCount: active,
		ActiveEventsCount:  len(c.Events),
		AvailableSeats:     seats,
		ClubAge:            yearsBetween(c.EstablishedDate, now),
	}
	if events != nil {
		v.Stats = ComputeClubStats(c, events)
	}
	return v
}

// ComputeClubStats derives club statistics from the rosters
func ComputeClubStats(c *Club, events []*Event) *ClubStats {
	stats := &ClubStats{
		TotalMembers: c.ActiveMembersCount(),
		TotalEvents:  len(events),
	}
	if len(events) > 0 {
		attended := 0
		for _, e := range events {
			attended += len(e.Attendees)
		}
		stats.AverageAttendance = roundOne(float64(attended) / float64(len(events)))
	}
	return stats
}

// EventSummary is the read-side resolution of an event reference
type EventSummary struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	ClubID string     `json:"club_id"`
	Date   time.Time  `json:"date"`
	Phase  EventPhase `json:"event_status"`
}

// Summary returns the reference projection of the event at now
func (e *Event) Summary(now time.Time) EventSummary {
	return EventSummary{ID: e.ID, Title: e.Title, ClubID: e.ClubID, Date: e.Date, Phase: e.Phase(now)}
}

// EventStats are projections over the rosters, never stored
type EventStats struct {
	TotalRSVPs       int         `json:"total_rsvps"`
	ActualAttendance int         `json:"actual_attendance"`
	AverageRating    float64     `json:"average_rating"`
	TotalFeedback    int         `json:"total_feedback"`
	Distribution     map[int]int `json:"rating_distribution"`
}

// EventView is the public view of an event. Feedback authors and RSVP notes are
// not part of it; see FeedbackReport and RSVPRoster for the admin views.
type EventView struct {
	ID                   string       `json:"id"`
	ClubID               string       `json:"club_id"`
	CreatedBy            string       `json:"created_by"`
	Title                string       `json:"title"`
	Description          string       `json:"description"`
	Date                 time.Time    `json:"date"`
	Time                 string       `json:"time"`
	EndTime              string       `json:"end_time,omitempty"`
	Location             string       `json:"location"`
	Venue                *Venue       `json:"venue,omitempty"`
	Category             string       `json:"category"`
	Type                 EventType    `json:"type"`
	MaxCapacity          int          `json:"max_capacity"`
	RegistrationRequired bool         `json:"registration_required"`
	RegistrationDeadline *time.Time   `json:"registration_deadline,omitempty"`
	Tags                 []string     `json:"tags,omitempty"`
	Fee                  *Fee         `json:"fee,omitempty"`
	IsFree               bool         `json:"is_free"`
	Prerequisites        []string     `json:"prerequisites,omitempty"`
	Agenda               []AgendaItem `json:"agenda,omitempty"`
	Speakers             []Speaker    `json:"speakers,omitempty"`
	Materials            []Material   `json:"materials,omitempty"`
	Poster               string       `json:"poster,omitempty"`
	SocialMedia          *SocialMedia `json:"social_media,omitempty"`
	Status               EventStatus  `json:"status"`
	CreatedOn            time.Time    `json:"created_on"`
	UpdatedOn            time.Time    `json:"updated_on"`

	RSVPCounts         RSVPCounts `json:"rsvp_counts"`
	AvailableSpots     int        `json:"available_spots"`
	IsFull             bool       `json:"is_full"`
	IsRegistrationOpen bool       `json:"is_registration_open"`
	Phase              EventPhase `json:"event_status"`
	DurationMinutes    *int       `json:"duration,omitempty"`
	Stats              EventStats `json:"stats"`
	MyRSVP             *RSVP      `json:"my_rsvp,omitempty"`
}

// NewEventView recomputes every derived field from the stored rosters
func NewEventView(e *Event, now time.Time, viewerID string) *EventView {
	counts := e.RSVPCounts()
	v := &EventView{
		ID:                   e.ID,
		ClubID:               e.ClubID,
		CreatedBy:            e.CreatedBy,
		Title:                e.Title,
		Description:          e.Description,
		Date:                 e.Date,
		Time:                 e.Time,
		EndTime:              e.EndTime,
		Location:             e.Location,
		Venue:                e.Venue,
		Category:             e.Category,
		Type:                 e.Type,
		MaxCapacity:          e.MaxCapacity,
		RegistrationRequired: e.RegistrationRequired,
		RegistrationDeadline: e.RegistrationDeadline,
		Tags:                 e.Tags,
		Fee:                  e.Fee,
		IsFree:               e.IsFree(),
		Prerequisites:        e.Prerequisites,
		Agenda:               e.Agenda,
		Speakers:             e.Speakers,
		Materials:            e.Materials,
		Poster:               e.Poster,
		SocialMedia:          e.SocialMedia,
		Status:               e.Status,
		CreatedOn:            e.CreatedOn,
		UpdatedOn:            e.UpdatedOn,
		RSVPCounts:           counts,
		AvailableSpots:       e.AvailableSpots(),
		IsFull:               e.IsFull(),
		IsRegistrationOpen:   e.IsRegistrationOpen(now),
		Phase:                e.Phase(now),
		DurationMinutes:      e.DurationMinutes(),
		Stats: EventStats{
			TotalRSVPs:       counts.Total,
			ActualAttendance: len(e.Attendees),
			AverageRating:    e.AverageRating(),
			TotalFeedback:    len(e.Feedback),
			Distribution:     e.RatingDistribution(),
		},
	}
	if viewerID != "" {
		if r := e.RSVPFor(viewerID); r != nil {
			mine := *r
			v.MyRSVP = &mine
		}
	}
	return v
}

// MemberEntry is a resolved member roster row
type MemberEntry struct {
	User     UserSummary  `json:"user"`
	Role     MemberRole   `json:"role"`
	Status   MemberStatus `json:"status"`
	JoinedAt time.Time    `json:"joined_at"`
}

// AdminEntry is a resolved admin roster row
type AdminEntry struct {
	User        UserSummary `json:"user"`
	Role        AdminRole   `json:"role"`
	AppointedAt time.Time   `json:"appointed_at"`
}

// MemberRoster is the admin view of a club's rosters
type MemberRoster struct {
	Members []MemberEntry `json:"members"`
	Admins  []AdminEntry  `json:"admins"`
	Total   int           `json:"total_active"`
}

// PendingEntry is a resolved join request
type PendingEntry struct {
	User        UserSummary `json:"user"`
	Message     string      `json:"message,omitempty"`
	RequestedAt time.Time   `json:"requested_at"`
}

// RSVPEntry is a resolved RSVP roster row
type RSVPEntry struct {
	User   UserSummary `json:"user"`
	Status RSVPStatus  `json:"status"`
	Note   string      `json:"note,omitempty"`
	RSVPAt time.Time   `json:"rsvp_at"`
}

// RSVPRoster is the admin view of an event's RSVPs
type RSVPRoster struct {
	RSVPs  []RSVPEntry `json:"rsvps"`
	Counts RSVPCounts  `json:"counts"`
}

// FeedbackEntry is one feedback row. User is nil when the author chose anonymity.
type FeedbackEntry struct {
	User        *UserSummary `json:"user"`
	Rating      int          `json:"rating"`
	Comment     string       `json:"comment,omitempty"`
	SubmittedAt time.Time    `json:"submitted_at"`
}

// FeedbackReport aggregates an event's feedback
type FeedbackReport struct {
	Feedback      []FeedbackEntry `json:"feedback"`
	AverageRating float64         `json:"average_rating"`
	TotalFeedback int             `json:"total_feedback"`
	Distribution  map[int]int     `json:"rating_distribution"`
}

// CheckInResult reports attendance after a check-in
type CheckInResult struct {
	UserID           string `json:"user_id"`
	AlreadyCheckedIn bool   `json:"already_checked_in"`
	ActualAttendance int    `json:"actual_attendance"`
}

// FeedbackResult reports the aggregate after a submission
type FeedbackResult struct {
	AverageRating float64 `json:"average_rating"`
	TotalFeedback int     `json:"total_feedback"`
}

// RSVPResult reports the caller's RSVP and the recomputed tallies
type RSVPResult struct {
	RSVP           *RSVP      `json:"rsvp"`
	RSVPCounts     RSVPCounts `json:"rsvp_counts"`
	AvailableSpots int        `json:"available_spots"`
}

func yearsBetween(from, to time.Time) int {
	if from.IsZero() || to.Before(from) {
		return 0
	}
	years := to.Year() - from.Year()
	if to.Month() < from.Month() || (to.Month() == from.Month() && to.Day() < from.Day()) {
		years--
	}
	return years
}

func roundOne(v float64) float64 {
	return math.Round(v*10) / 10
}
