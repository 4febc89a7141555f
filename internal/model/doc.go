// Package model defines the domain aggregates and wire types for the CampusConnect API.
//
// # Aggregates
//
// Three aggregates carry all state:
//
//   - Club: owns its member roster, admin roster, pending join requests and
//     the ids of the events it runs
//   - Event: owns its RSVP, attendee and feedback rosters
//   - User: account data plus back-references (JoinedClubs, AdminClubs,
//     EventRSVPs) mirroring the rosters owned by clubs and events
//
// Aggregates store identifiers only. Resolution to summaries happens on read,
// see ClubView, EventView, MemberRoster and Profile.
//
// # Derived Fields
//
// Counts, available seats, the time-derived event phase and the average
// rating are never stored. They are recomputed from the rosters on every read:
//
//	view := model.NewEventView(event, now, viewerID)
//	view.AvailableSpots // max(0, MaxCapacity - going)
//
// # Validation
//
// Request types expose Validate() []FieldError. Rules that need a clock or
// the current aggregate state (future dates, capacity) are enforced by the
// service layer.
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go:
//
//	type ProblemDetails struct {
//	    Type    string    `json:"type"`
//	    Title   string    `json:"title"`
//	    Status  int       `json:"status"`
//	    Detail  string    `json:"detail"`
//	}
package model
