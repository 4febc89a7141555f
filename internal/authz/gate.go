// Package authz decides whether an actor may perform an action on a club.
//
// The gate is a pure predicate: it reads the actor's global role and the
// club's admin roster and never touches storage. Callers load the club first
// and pass it in, so the decision reflects the same snapshot the mutation
// will be validated against.
package authz

import (
	"errors"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
)

// Action names a guarded operation
type Action string

const (
	// Super-admin only
	ActionDeleteClub  Action = "club.delete"
	ActionManageUsers Action = "user.manage"

	// Global role gated
	ActionCreateClub  Action = "club.create"
	ActionCreateEvent Action = "event.create"

	// Club admin relation
	ActionUpdateClub     Action = "club.update"
	ActionManageAdmins   Action = "club.admins"
	ActionViewMembers    Action = "club.members"
	ActionReviewRequests Action = "club.requests"
	ActionUpdateEvent    Action = "event.update"
	ActionDeleteEvent    Action = "event.delete"
	ActionViewRSVPs      Action = "event.rsvps"
	ActionViewFeedback   Action = "event.feedback"
	ActionCheckIn        Action = "event.checkin"

	// Self-service
	ActionJoinClub       Action = "club.join"
	ActionLeaveClub      Action = "club.leave"
	ActionRSVP           Action = "event.rsvp"
	ActionSubmitFeedback Action = "event.feedback.submit"
	ActionViewProfile    Action = "profile.view"
)

// Reason explains a denial
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonNotAuthenticated Reason = "not-authenticated"
	ReasonInsufficientRole Reason = "insufficient-role"
	ReasonNotClubAdmin     Reason = "not-club-admin"
)

// Sentinels returned by Decision.Err
var (
	ErrNotAuthenticated = errors.New("authentication required")
	ErrInsufficientRole = errors.New("insufficient role for this action")
	ErrNotClubAdmin     = errors.New("not an admin of this club")
)

// Decision is the outcome of a check
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Err returns nil when allowed, otherwise the sentinel for the reason
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonNotAuthenticated:
		return ErrNotAuthenticated
	case d.Reason == ReasonInsufficientRole:
		return ErrInsufficientRole
	default:
		return ErrNotClubAdmin
	}
}

var (
	allow = Decision{Allowed: true}

	superAdminOnly = map[Action]bool{
		ActionDeleteClub:  true,
		ActionManageUsers: true,
	}
	requiresCreatorRole = map[Action]bool{
		ActionCreateClub:  true,
		ActionCreateEvent: true,
	}
	requiresClubAdmin = map[Action]bool{
		ActionCreateEvent:    true,
		ActionUpdateClub:     true,
		ActionManageAdmins:   true,
		ActionViewMembers:    true,
		ActionReviewRequests: true,
		ActionUpdateEvent:    true,
		ActionDeleteEvent:    true,
		ActionViewRSVPs:      true,
		ActionViewFeedback:   true,
		ActionCheckIn:        true,
	}
)

func deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Can checks an action against a club. club may be nil for actions that have
// no target club; a club-scoped action without one is denied.
func Can(actor *model.User, action Action, club *model.Club) Decision {
	if actor == nil || !actor.IsActive {
		return deny(ReasonNotAuthenticated)
	}
	if actor.IsSuperAdmin() {
		return allow
	}
	if superAdminOnly[action] {
		return deny(ReasonInsufficientRole)
	}
	if requiresCreatorRole[action] && !actor.Role.CanCreate() {
		return deny(ReasonInsufficientRole)
	}
	if requiresClubAdmin[action] && (club == nil || !club.IsAdmin(actor.ID)) {
		return deny(ReasonNotClubAdmin)
	}
	return allow
}

// CanEvent is Can for event mutations, where the event's creator is also
// allowed to update or delete it.
func CanEvent(actor *model.User, action Action, club *model.Club, event *model.Event) Decision {
	d := Can(actor, action, club)
	if d.Allowed || d.Reason != ReasonNotClubAdmin || event == nil {
		return d
	}
	if (action == ActionUpdateEvent || action == ActionDeleteEvent) && event.CreatedBy == actor.ID {
		return allow
	}
	return d
}
