package model

import (
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// EventType controls who may RSVP
type EventType string

const (
	EventTypePublic      EventType = "public"
	EventTypeMembersOnly EventType = "members-only" // Default
	EventTypeInviteOnly  EventType = "invite-only"
)

// IsValid returns true if the type is known
func (t EventType) IsValid() bool {
	switch t {
	case EventTypePublic, EventTypeMembersOnly, EventTypeInviteOnly:
		return true
	default:
		return false
	}
}

// EventStatus is the stored lifecycle status set by admins
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

// IsValid returns true if the status is known
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusDraft, EventStatusPublished, EventStatusOngoing, EventStatusCompleted, EventStatusCancelled:
		return true
	default:
		return false
	}
}

// AcceptsRSVPs returns true while RSVPs may still change
func (s EventStatus) AcceptsRSVPs() bool {
	return s == EventStatusPublished || s == EventStatusOngoing
}

// EventPhase is the time-derived status shown to users
type EventPhase string

const (
	EventPhaseCancelled EventPhase = "cancelled"
	EventPhaseCompleted EventPhase = "completed"
	EventPhaseToday     EventPhase = "today"
	EventPhaseUpcoming  EventPhase = "upcoming"
)

// RSVPStatus is a user's stated intention
type RSVPStatus string

const (
	RSVPStatusGoing    RSVPStatus = "going"
	RSVPStatusMaybe    RSVPStatus = "maybe"
	RSVPStatusNotGoing RSVPStatus = "not-going"
)

// IsValid returns true if the status is known
func (s RSVPStatus) IsValid() bool {
	switch s {
	case RSVPStatusGoing, RSVPStatusMaybe, RSVPStatusNotGoing:
		return true
	default:
		return false
	}
}

// EventCategories lists the accepted event categories
var EventCategories = []string{
	"workshop", "seminar", "competition", "meeting", "social", "cultural", "technical",
	"sports", "academic", "networking", "fundraising", "volunteering", "other",
}

// DefaultEventCategory is used when none is given
const DefaultEventCategory = "other"

var venueTypes = []string{"physical", "online", "hybrid"}

// Event constraints
const (
	MinEventTitleLength       = 3
	MaxEventTitleLength       = 200
	MinEventDescriptionLength = 10
	MaxEventDescriptionLength = 2000
	MaxEventLocationLength    = 200
	MaxRSVPNoteLength         = 500
	MaxFeedbackCommentLength  = 1000
	DefaultMaxCapacity        = 100
	MinRating                 = 1
	MaxRating                 = 5
)

// DateLayout and ClockLayout are the wire formats for an event's start
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var clockPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// Event is the event aggregate. It exclusively owns its RSVP, attendee and feedback rosters.
type Event struct {
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
	Prerequisites        []string     `json:"prerequisites,omitempty"`
	Agenda               []AgendaItem `json:"agenda,omitempty"`
	Speakers             []Speaker    `json:"speakers,omitempty"`
	Materials            []Material   `json:"materials,omitempty"`
	Poster               string       `json:"poster,omitempty"`
	SocialMedia          *SocialMedia `json:"social_media,omitempty"`
	Status               EventStatus  `json:"status"`
	RSVPs                []RSVP       `json:"rsvps"`
	Attendees            []Attendee   `json:"attendees"`
	Feedback             []Feedback   `json:"feedback"`
	Version              int          `json:"version"`
	CreatedOn            time.Time    `json:"created_on"`
	UpdatedOn            time.Time    `json:"updated_on"`
}

// Venue describes where an event happens
type Venue struct {
	Type       string `json:"type,omitempty"`
	Address    string `json:"address,omitempty"`
	Room       string `json:"room,omitempty"`
	Building   string `json:"building,omitempty"`
	OnlineLink string `json:"online_link,omitempty"`
	Platform   string `json:"platform,omitempty"`
}

// RSVP is one user's entry in the RSVP roster
type RSVP struct {
	UserID string     `json:"user_id"`
	Status RSVPStatus `json:"status"`
	Note   string     `json:"note,omitempty"`
	RSVPAt time.Time  `json:"rsvp_at"`
}

// Attendee is one checked-in user
type Attendee struct {
	UserID      string    `json:"user_id"`
	CheckedInAt time.Time `json:"checked_in_at"`
	CheckedInBy string    `json:"checked_in_by"`
}

// Feedback is one user's post-event rating
type Feedback struct {
	UserID      string    `json:"user_id"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	IsAnonymous bool      `json:"is_anonymous"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// RSVPCounts tallies the RSVP roster by status
type RSVPCounts struct {
	Going    int `json:"going"`
	Maybe    int `json:"maybe"`
	NotGoing int `json:"not_going"`
	Total    int `json:"total"`
}

// RSVPCounts recomputes the tallies from the roster
func (e *Event) RSVPCounts() RSVPCounts {
	counts := RSVPCounts{Total: len(e.RSVPs)}
	for _, r := range e.RSVPs {
		switch r.Status {
		case RSVPStatusGoing:
			counts.Going++
		case RSVPStatusMaybe:
			counts.Maybe++
		case RSVPStatusNotGoing:
			counts.NotGoing++
		}
	}
	return counts
}

// GoingCount is the quantity compared against capacity
func (e *Event) GoingCount() int {
	return e.RSVPCounts().Going
}

// AvailableSpots is max(0, capacity - going)
func (e *Event) AvailableSpots() int {
	spots := e.MaxCapacity - e.GoingCount()
	if spots < 0 {
		return 0
	}
	return spots
}

// IsFull returns true once going RSVPs reach capacity
func (e *Event) IsFull() bool {
	return e.GoingCount() >= e.MaxCapacity
}

// HasStarted returns true once the start instant is behind now
func (e *Event) HasStarted(now time.Time) bool {
	return e.Date.Before(now)
}

// DeadlinePassed returns true if a registration deadline exists and is behind now
func (e *Event) DeadlinePassed(now time.Time) bool {
	return e.RegistrationDeadline != nil && now.After(*e.RegistrationDeadline)
}

// IsRegistrationOpen mirrors the public registration indicator
func (e *Event) IsRegistrationOpen(now time.Time) bool {
	if !e.RegistrationRequired {
		return true
	}
	return !e.IsFull() && !e.DeadlinePassed(now)
}

// Phase derives the displayed status. Calendar days are compared in now's location.
func (e *Event) Phase(now time.Time) EventPhase {
	if e.Status == EventStatusCancelled {
		return EventPhaseCancelled
	}
	if e.Date.Before(now) {
		return EventPhaseCompleted
	}
	start := e.Date.In(now.Location())
	if start.Year() == now.Year() && start.YearDay() == now.YearDay() {
		return EventPhaseToday
	}
	return EventPhaseUpcoming
}

// DurationMinutes derives the length from time and end_time, or nil if unknown
func (e *Event) DurationMinutes() *int {
	if e.EndTime == "" {
		return nil
	}
	start, err1 := time.Parse(ClockLayout, normalizeClock(e.Time))
	end, err2 := time.Parse(ClockLayout, normalizeClock(e.EndTime))
	if err1 != nil || err2 != nil {
		return nil
	}
	minutes := int(end.Sub(start).Minutes())
	return &minutes
}

// AverageRating is the mean rating rounded to one decimal, 0 without feedback
func (e *Event) AverageRating() float64 {
	return AverageRating(e.Feedback)
}

// AverageRating computes round(mean, 1 decimal) over the entries
func AverageRating(entries []Feedback) float64 {
	if len(entries) == 0 {
		return 0
	}
	total := 0
	for _, f := range entries {
		total += f.Rating
	}
	return math.Round(float64(total)/float64(len(entries))*10) / 10
}

// RatingDistribution counts entries per rating value 1..5
func (e *Event) RatingDistribution() map[int]int {
	dist := make(map[int]int, MaxRating)
	for r := MinRating; r <= MaxRating; r++ {
		dist[r] = 0
	}
	for _, f := range e.Feedback {
		dist[f.Rating]++
	}
	return dist
}

// RSVPFor returns the user's RSVP, or nil
func (e *Event) RSVPFor(userID string) *RSVP {
	for i := range e.RSVPs {
		if e.RSVPs[i].UserID == userID {
			return &e.RSVPs[i]
		}
	}
	return nil
}

// UpsertRSVP updates the user's entry in place or appends one
func (e *Event) UpsertRSVP(userID string, status RSVPStatus, note string, at time.Time) {
	if r := e.RSVPFor(userID); r != nil {
		r.Status = status
		r.Note = note
		r.RSVPAt = at
		return
	}
	e.RSVPs = append(e.RSVPs, RSVP{UserID: userID, Status: status, Note: note, RSVPAt: at})
}

// IsCheckedIn returns true if the user has an attendee record
func (e *Event) IsCheckedIn(userID string) bool {
	for _, a := range e.Attendees {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

// CheckIn records attendance once. Reports whether a record was added.
func (e *Event) CheckIn(userID, by string, at time.Time) bool {
	if e.IsCheckedIn(userID) {
		return false
	}
	e.Attendees = append(e.Attendees, Attendee{UserID: userID, CheckedInAt: at, CheckedInBy: by})
	return true
}

// FeedbackFrom returns the user's feedback entry, or nil
func (e *Event) FeedbackFrom(userID string) *Feedback {
	for i := range e.Feedback {
		if e.Feedback[i].UserID == userID {
			return &e.Feedback[i]
		}
	}
	return nil
}

// CreateEventRequest represents the request body for creating an event
type CreateEventRequest struct {
	ClubID               string     `json:"club_id"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Date                 string     `json:"date"`
	Time                 string     `json:"time"`
	EndTime              string     `json:"end_time,omitempty"`
	Location             string     `json:"location"`
	Venue                *Venue     `json:"venue,omitempty"`
	Category             string     `json:"category,omitempty"`
	Type                 EventType  `json:"type,omitempty"`
	MaxCapacity          *int       `json:"max_capacity,omitempty"`
	RegistrationRequired bool       `json:"registration_required"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty"`
	Tags                 []string   `json:"tags,omitempty"`
	EventDetails
}

// Validate checks field shapes. The future-date rule needs a clock and is
// enforced by the service.
func (r *CreateEventRequest) Validate() []FieldError {
	var errors []FieldError

	if strings.TrimSpace(r.ClubID) == "" {
		errors = append(errors, FieldError{Field: "club_id", Message: "club_id is required"})
	}
	errors = append(errors, validateEventTitle(r.Title)...)
	errors = append(errors, validateEventDescription(r.Description)...)
	if r.Date == "" {
		errors = append(errors, FieldError{Field: "date", Message: "date is required"})
	} else if _, err := time.Parse(DateLayout, r.Date); err != nil {
		errors = append(errors, FieldError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
	}
	if r.Time == "" {
		errors = append(errors, FieldError{Field: "time", Message: "time is required"})
	} else if !clockPattern.MatchString(r.Time) {
		errors = append(errors, FieldError{Field: "time", Message: "time must be in HH:MM format"})
	}
	if r.EndTime != "" && !clockPattern.MatchString(r.EndTime) {
		errors = append(errors, FieldError{Field: "end_time", Message: "end_time must be in HH:MM format"})
	}
	errors = append(errors, validateEventLocation(r.Location)...)
	errors = append(errors, validateVenue(r.Venue)...)
	if r.Category != "" && !contains(EventCategories, r.Category) {
		errors = append(errors, FieldError{Field: "category", Message: "category is not a recognised event category"})
	}
	if r.Type != "" && !r.Type.IsValid() {
		errors = append(errors, FieldError{Field: "type", Message: "type must be public, members-only, or invite-only"})
	}
	if r.MaxCapacity != nil && *r.MaxCapacity < 1 {
		errors = append(errors, FieldError{Field: "max_capacity", Message: "max_capacity must be at least 1"})
	}
	errors = append(errors, r.EventDetails.Validate()...)

	return errors
}

// UpdateEventRequest represents a partial event update
type UpdateEventRequest struct {
	Title                *string      `json:"title,omitempty"`
	Description          *string      `json:"description,omitempty"`
	Date                 *string      `json:"date,omitempty"`
	Time                 *string      `json:"time,omitempty"`
	EndTime              *string      `json:"end_time,omitempty"`
	Location             *string      `json:"location,omitempty"`
	Venue                *Venue       `json:"venue,omitempty"`
	Category             *string      `json:"category,omitempty"`
	Type                 *EventType   `json:"type,omitempty"`
	MaxCapacity          *int         `json:"max_capacity,omitempty"`
	RegistrationRequired *bool        `json:"registration_required,omitempty"`
	RegistrationDeadline *time.Time   `json:"registration_deadline,omitempty"`
	Tags                 []string     `json:"tags,omitempty"`
	Status               *EventStatus `json:"status,omitempty"`
	EventDetails
}

// Validate checks the fields present in the update
func (r *UpdateEventRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Title != nil {
		errors = append(errors, validateEventTitle(*r.Title)...)
	}
	if r.Description != nil {
		errors = append(errors, validateEventDescription(*r.Description)...)
	}
	if r.Date != nil {
		if _, err := time.Parse(DateLayout, *r.Date); err != nil {
			errors = append(errors, FieldError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
		}
	}
	if r.Time != nil && !clockPattern.MatchString(*r.Time) {
		errors = append(errors, FieldError{Field: "time", Message: "time must be in HH:MM format"})
	}
	if r.EndTime != nil && *r.EndTime != "" && !clockPattern.MatchString(*r.EndTime) {
		errors = append(errors, FieldError{Field: "end_time", Message: "end_time must be in HH:MM format"})
	}
	if r.Location != nil {
		errors = append(errors, validateEventLocation(*r.Location)...)
	}
	errors = append(errors, validateVenue(r.Venue)...)
	if r.Category != nil && !contains(EventCategories, *r.Category) {
		errors = append(errors, FieldError{Field: "category", Message: "category is not a recognised event category"})
	}
	if r.Type != nil && !r.Type.IsValid() {
		errors = append(errors, FieldError{Field: "type", Message: "type must be public, members-only, or invite-only"})
	}
	if r.MaxCapacity != nil && *r.MaxCapacity < 1 {
		errors = append(errors, FieldError{Field: "max_capacity", Message: "max_capacity must be at least 1"})
	}
	if r.Status != nil && !r.Status.IsValid() {
		errors = append(errors, FieldError{Field: "status", Message: "status must be draft, published, ongoing, completed, or cancelled"})
	}
	errors = append(errors, r.EventDetails.Validate()...)

	return errors
}

// RSVPRequest represents the request body for an RSVP
type RSVPRequest struct {
	Status RSVPStatus `json:"status"`
	Note   string     `json:"note,omitempty"`
}

// Validate checks the RSVP status and note
func (r *RSVPRequest) Validate() []FieldError {
	var errors []FieldError
	if !r.Status.IsValid() {
		errors = append(errors, FieldError{Field: "status", Message: "status must be going, maybe, or not-going"})
	}
	if utf8.RuneCountInString(r.Note) > MaxRSVPNoteLength {
		errors = append(errors, FieldError{Field: "note", Message: "note must be 500 characters or less"})
	}
	return errors
}

// CheckInRequest names the attendee being checked in
type CheckInRequest struct {
	UserID string `json:"user_id"`
}

// FeedbackRequest represents the request body for post-event feedback.
// Rating is decoded as a number so that 4.5 reaches the service and
// surfaces as InvalidRating rather than a decode failure.
type FeedbackRequest struct {
	Rating      float64 `json:"rating"`
	Comment     string  `json:"comment,omitempty"`
	IsAnonymous bool    `json:"is_anonymous"`
}

// Score returns the rating as a whole number of stars. ok is false for
// fractional or out-of-range ratings.
func (r *FeedbackRequest) Score() (score int, ok bool) {
	if r.Rating != math.Trunc(r.Rating) || r.Rating < MinRating || r.Rating > MaxRating {
		return 0, false
	}
	return int(r.Rating), true
}

// Validate checks the comment length
func (r *FeedbackRequest) Validate() []FieldError {
	if utf8.RuneCountInString(strings.TrimSpace(r.Comment)) > MaxFeedbackCommentLength {
		return []FieldError{{Field: "comment", Message: "comment must be 1000 characters or less"}}
	}
	return nil
}

// StartInstant combines a date and wall-clock time in loc
func StartInstant(date, clock string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+normalizeClock(clock), loc)
}

// normalizeClock pads single-digit hours ("9:30" -> "09:30")
func normalizeClock(clock string) string {
	if len(clock) == 4 && clock[1] == ':' {
		return "0" + clock
	}
	return clock
}

func validateEventTitle(title string) []FieldError {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n == 0 {
		return []FieldError{{Field: "title", Message: "title is required"}}
	}
	if n < MinEventTitleLength || n > MaxEventTitleLength {
		return []FieldError{{Field: "title", Message: "title must be between 3 and 200 characters"}}
	}
	return nil
}

func validateEventDescription(description string) []FieldError {
	n := utf8.RuneCountInString(strings.TrimSpace(description))
	if n == 0 {
		return []FieldError{{Field: "description", Message: "description is required"}}
	}
	if n < MinEventDescriptionLength || n > MaxEventDescriptionLength {
		return []FieldError{{Field: "description", Message: "description must be between 10 and 2000 characters"}}
	}
	return nil
}

func validateEventLocation(location string) []FieldError {
	n := utf8.RuneCountInString(strings.TrimSpace(location))
	if n == 0 {
		return []FieldError{{Field: "location", Message: "location is required"}}
	}
	if n > MaxEventLocationLength {
		return []FieldError{{Field: "location", Message: "location must be 200 characters or less"}}
	}
	return nil
}

func validateVenue(v *Venue) []FieldError {
	if v == nil || v.Type == "" || contains(venueTypes, v.Type) {
		return nil
	}
	return []FieldError{{Field: "venue.type", Message: "venue type must be physical, online, or hybrid"}}
}
