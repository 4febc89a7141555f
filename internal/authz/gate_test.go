package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
)

func user(id string, role model.UserRole) *model.User {
	return &model.User{ID: id, Role: role, IsActive: true}
}

func TestCan(t *testing.T) {
	t.Parallel()

	club := &model.Club{ID: "club-1", Admins: []model.ClubAdmin{{UserID: "officer", Role: model.AdminRolePresident}}}

	super := user("root", model.UserRoleSuperAdmin)
	officer := user("officer", model.UserRoleClubAdmin)
	officerStudent := user("officer", model.UserRoleStudent)
	otherAdmin := user("other", model.UserRoleClubAdmin)
	student := user("student", model.UserRoleStudent)
	inactive := user("gone", model.UserRoleSuperAdmin)
	inactive.IsActive = false

	tests := []struct {
		name   string
		actor  *model.User
		action Action
		club   *model.Club
		want   Reason
		allow  bool
	}{
		{"anonymous join", nil, ActionJoinClub, club, ReasonNotAuthenticated, false},
		{"inactive super admin", inactive, ActionUpdateClub, club, ReasonNotAuthenticated, false},
		{"super admin deletes club", super, ActionDeleteClub, club, ReasonNone, true},
		{"super admin updates foreign club", super, ActionUpdateClub, club, ReasonNone, true},
		{"club admin cannot delete club", officer, ActionDeleteClub, club, ReasonInsufficientRole, false},
		{"club admin cannot manage users", officer, ActionManageUsers, nil, ReasonInsufficientRole, false},
		{"club admin creates club", otherAdmin, ActionCreateClub, nil, ReasonNone, true},
		{"student cannot create club", student, ActionCreateClub, nil, ReasonInsufficientRole, false},
		{"officer creates event", officer, ActionCreateEvent, club, ReasonNone, true},
		{"officer without global role cannot create event", officerStudent, ActionCreateEvent, club, ReasonInsufficientRole, false},
		{"club admin of another club cannot create event", otherAdmin, ActionCreateEvent, club, ReasonNotClubAdmin, false},
		{"officer with student role checks in", officerStudent, ActionCheckIn, club, ReasonNone, true},
		{"non admin cannot view members", student, ActionViewMembers, club, ReasonNotClubAdmin, false},
		{"non admin cannot review requests", otherAdmin, ActionReviewRequests, club, ReasonNotClubAdmin, false},
		{"club scoped action without club", officer, ActionUpdateClub, nil, ReasonNotClubAdmin, false},
		{"student joins", student, ActionJoinClub, club, ReasonNone, true},
		{"student rsvps", student, ActionRSVP, club, ReasonNone, true},
		{"student submits feedback", student, ActionSubmitFeedback, club, ReasonNone, true},
		{"student views profile", student, ActionViewProfile, nil, ReasonNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := Can(tt.actor, tt.action, tt.club)
			assert.Equal(t, tt.allow, d.Allowed)
			assert.Equal(t, tt.want, d.Reason)
		})
	}
}

func TestCanEvent_CreatorMayEditOwnEvent(t *testing.T) {
	t.Parallel()

	club := &model.Club{ID: "club-1"}
	creator := user("creator", model.UserRoleClubAdmin)
	event := &model.Event{ID: "event-1", ClubID: club.ID, CreatedBy: creator.ID}

	assert.True(t, CanEvent(creator, ActionUpdateEvent, club, event).Allowed)
	assert.True(t, CanEvent(creator, ActionDeleteEvent, club, event).Allowed)
	assert.False(t, CanEvent(creator, ActionViewRSVPs, club, event).Allowed, "creator rule covers edits only")
	assert.False(t, CanEvent(user("x", model.UserRoleClubAdmin), ActionUpdateEvent, club, event).Allowed)
	assert.Equal(t, ReasonNotAuthenticated, CanEvent(nil, ActionUpdateEvent, club, event).Reason)
}

func TestDecision_Err(t *testing.T) {
	t.Parallel()

	assert.NoError(t, allow.Err())
	assert.ErrorIs(t, deny(ReasonNotAuthenticated).Err(), ErrNotAuthenticated)
	assert.ErrorIs(t, deny(ReasonInsufficientRole).Err(), ErrInsufficientRole)
	assert.ErrorIs(t, deny(ReasonNotClubAdmin).Err(), ErrNotClubAdmin)
}
