package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/testing/helpers"
)

// ============================================================================
// Create / Get / List
// ============================================================================

func TestClubCreate_RequiresAuthentication(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rr := s.do(http.MethodPost, "/v1/clubs", nil, map[string]interface{}{"name": "Robotics"})

	helpers.AssertProblemDetails(t, rr, http.StatusUnauthorized, model.ErrCodeUnauthorized)
}

func TestClubCreate_StudentIsForbidden(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	student := s.user("sam", model.UserRoleStudent)

	rr := s.do(http.MethodPost, "/v1/clubs", student, map[string]interface{}{
		"name":        "Robotics",
		"description": "A club for people who build things together",
		"category":    "Technical",
	})

	helpers.AssertProblemDetails(t, rr, http.StatusForbidden, model.ErrCodeInsufficientRole)
}

func TestClubCreate_FounderBecomesPresident(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	admin := s.user("ada", model.UserRoleClubAdmin)

	id := s.createClub(admin, "Robotics", nil)

	rr := s.do(http.MethodGet, "/v1/clubs/"+id, nil, nil)
	helpers.AssertStatus(t, rr, http.StatusOK)
	var club model.ClubView
	helpers.DecodeData(t, rr, &club)
	require.Len(t, club.Admins, 1)
	assert.Equal(t, admin.ID, club.Admins[0].UserID)
	assert.Equal(t, model.AdminRolePresident, club.Admins[0].Role)
	assert.Equal(t, 0, club.ActiveMembersCount)
}

func TestClubCreate_DuplicateNameIgnoresCase(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	admin := s.user("ada", model.UserRoleClubAdmin)
	s.createClub(admin, "Robotics Club", nil)

	rr := s.do(http.MethodPost, "/v1/clubs", admin, map[string]interface{}{
		"name":        "ROBOTICS club",
		"description": "A club for people who build things together",
		"category":    "Technical",
	})

	pd := helpers.AssertProblemDetails(t, rr, http.StatusConflict, model.ErrCodeDuplicateName)
	assert.Equal(t, "https://campusconnect.dev/errors/duplicate-name", pd.Type)
	assert.Equal(t, "name", pd.Field)
}

func TestClubCreate_InvalidFields(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	admin := s.user("ada", model.UserRoleClubAdmin)

	rr := s.do(http.MethodPost, "/v1/clubs", admin, map[string]interface{}{
		"name":        "R",
		"description": "short",
		"category":    "Knitting",
	})

	helpers.AssertValidationError(t, rr, "name")
}

func TestClubCreate_UnknownFieldIsBadRequest(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	admin := s.user("ada", model.UserRoleClubAdmin)

	rr := s.do(http.MethodPost, "/v1/clubs", admin, map[string]interface{}{"nmae": "typo"})

	helpers.AssertProblemDetails(t, rr, http.StatusBadRequest, model.ErrCodeInvalidInput)
}

func TestClubGet_UnknownIsNotFound(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rr := s.do(http.MethodGet, "/v1/clubs/missing", nil, nil)

	helpers.AssertProblemDetails(t, rr, http.StatusNotFound, model.ErrCodeNotFound)
}

func TestClubList_PaginatesAndFilters(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	admin := s.user("ada", model.UserRoleClubAdmin)
	s.createClub(admin, "Robotics", nil)
	s.createClub(admin, "Astronomy", nil)
	s.createClub(admin, "Drama Society", func(b map[string]interface{}) { b["category"] = "Cultural" })

	rr := s.do(http.MethodGet, "/v1/clubs?category=Technical&sort=name&limit=1", nil, nil)
	helpers.AssertStatus(t, rr, http.StatusOK)

	var resp struct {
		Data       []model.ClubView `json:"data"`
		Pagination PaginationInfo   `json:"pagination"`
	}
	helpers.DecodeResponse(t, rr, &resp)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Astronomy", resp.Data[0].Name)
	assert.Equal(t, PaginationInfo{Page: 1, Limit: 1, Total: 2, TotalPages: 2, HasMore: true}, resp.Pagination)
}

func TestClubList_BadPageIsBadRequest(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rr := s.do(http.MethodGet, "/v1/clubs?page=two", nil, nil)

	pd := helpers.AssertProblemDetails(t, rr, http.StatusBadRequest, model.ErrCodeInvalidInput)
	assert.Equal(t, "page", pd.Field)
}

// ============================================================================
// Update / Delete
// ============================================================================

func TestClubUpdate_NonAdminIsForbidden(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	admin := s.user("ada", model.UserRoleClubAdmin)
	other := s.user("bob", model.UserRoleClubAdmin)
	id := s.createClub(admin, "Robotics", nil)

	rr := s.do(http.MethodPatch, "/v1/clubs/"+id, other, map[string]interface{}{"focus": "drones"})

	helpers.AssertProblemDetails(t, rr, http.StatusForbidden, model.ErrCodeNotClubAdmin)
}

func TestClubUpdate_MaxMembersBelowActive(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	admin := s.user("ada", model.UserRoleClubAdmin)
	id := s.createClub(admin, "Robotics", nil)
	for _, name := range []string{"m1", "m2"} {
		helpers.AssertStatus(t, s.do(http.MethodPost, "/v1/clubs/"+id+"/join", s.user(name, model.UserRoleStudent), nil), http.StatusOK)
	}

	rr := s.do(http.MethodPatch, "/v1/clubs/"+id, admin, map[string]interface{}{"max_members": 1})

	pd := helpers.AssertProblemDetails(t, rr, http.StatusUnprocessableEntity, model.ErrCodeValidation)
	assert.Equal(t, "max_members", pd.Field)
	require.NotNil(t, pd.Limit)
	require.NotNil(t, pd.Current)
	assert.Equal(t, 1, *pd.Limit)
	assert.Equal(t, 2, *pd.Current)
}

func TestClubDelete_OnlySuperAdmin(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	admin := s.user("ada", model.UserRoleClubAdmin)
	root := s.user("root", model.UserRoleSuperAdmin)
	id := s.createClub(admin, "Robotics", nil)

	rr := s.do(http.MethodDelete, "/v1/clubs/"+id, admin, nil)
	helpers.AssertProblemDetails(t, rr, http.StatusForbidden, model.ErrCodeInsufficientRole)

	rr = s.do(http.MethodDelete, "/v1/clubs/"+id, root, nil)
	helpers.AssertStatus(t, rr, http.StatusNoContent)

	rr = s.do(http.MethodGet, "/v1/clubs/"+id, nil, nil)
	helpers.AssertStatus(t, rr, http.StatusNotFound)
}

// ============================================================================
// Membership
// ============================================================================

func TestClubJoin_OpenClub(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	admin := s.user("ada", model.UserRoleClubAdmin)
	student := s.user("sam", model.UserRoleStudent)
	id := s.createClub(admin, "Robotics", nil)

	rr := s.do(http.MethodPost, "/v1/clubs/"+id+"/join", student, nil)
	helpers.AssertStatus(t, rr, http.StatusOK)
	var result model.JoinResult
	helpers.DecodeData(t, rr, &result)
	assert.Equal(t, model.JoinOutcomeJoined, result.Outcome)
	assert.Equal(t, 1, result.Club.ActiveMembersCount)

	rr = s.do(http.MethodPost, "/v1/clubs/"+id+"/join", student, nil)
	helpers.AssertProblemDetails(t, rr, http.StatusConflict, model.ErrCodeAlreadyMember)
}

func TestClubJoin_FullClubReportsLimit(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	admin := s.user("ada", model.UserRoleClubAdmin)
	id := s.createClub(admin, "Robotics", func(b map[string]interface{}) { b["max_members"] = 1 })
	helpers.AssertStatus(t, s.do(http.MethodPost, "/v1/clubs/"+id+"/join", s.user("first", model.UserRoleStudent), nil), http.StatusOK)

	rr := s.do(http.MethodPost, "/v1/clubs/"+id+"/join", s.user("second", model.UserRoleStudent), nil)

	pd := helpers.AssertProblemDetails(t, rr, http.StatusConflict, model.ErrCodeClubFull)
	assert.Equal(t, "https://campusconnect.dev/errors/club-full", pd.Type)
	require.NotNil(t, pd.Limit)
	assert.Equal(t, 1, *pd.Limit)
	assert.Equal(t, 1, *pd.Current)
}

func TestClubJoin_ApprovalWorkflow(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	admin := s.user("ada", model.UserRoleClubAdmin)
	student := s.user("sam", model.UserRoleStudent)
	id := s.createClub(admin, "Robotics", func(b map[string]interface{}) { b["join_approval_required"] = true })

	rr := s.do(http.MethodPost, "/v1/clubs/"+id+"/join", student, map[string]interface{}{"message": "I build drones"})
	helpers.AssertStatus(t, rr, http.StatusAccepted)

	rr = s.do(http.MethodPost, "/v1/clubs/"+id+"/join", student, nil)
	helpers.AssertProblemDetails(t, rr, http.StatusConflict, model.ErrCodeRequestAlreadyPending)

	rr = s.do(http.MethodGet, "/v1/clubs/"+id+"/requests", admin, nil)
	helpers.AssertStatus(t, rr, http.StatusOK)
	var pending []model.PendingEntry
	helpers.DecodeData(t, rr, &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, student.ID, pending[0].User.ID)
	assert.Equal(t, "I build drones", pending[0].Message)

	rr = s.do(http.MethodGet, "/v1/clubs/"+id+"/requests", student, nil)
	helpers.AssertProblemDetails(t, rr, http.StatusForbidden, model.ErrCodeNotClubAdmin)

	rr = s.do(http.MethodPost, "/v1/clubs/"+id+"/requests/"+student.ID+"/approve", admin, nil)
	helpers.AssertStatus(t, rr, http.StatusOK)

	rr = s.do(http.MethodGet, "/v1/clubs/"+id+"/members", admin, nil)
	helpers.AssertStatus(t, rr, http.StatusOK)
	var roster model.MemberRoster
	helpers.DecodeData(t, rr, &roster)
	require.Len(t, roster.Members, 1)
	assert.Equal(t, student.ID, roster.Members[0].User.ID)

	rr = s.do(http.MethodPost, "/v1/clubs/"+id+"/requests/"+student.ID+"/reject", admin, nil)
	helpers.AssertProblemDetails(t, rr, http.StatusConflict, model.ErrCodeNoPendingRequest)
}

func TestClubLeave_NotAMember(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	admin := s.user("ada", model.UserRoleClubAdmin)
	student := s.user("sam", model.UserRoleStudent)
	id := s.createClub(admin, "Robotics", nil)

	rr := s.do(http.MethodPost, "/v1/clubs/"+id+"/leave", student, nil)
	helpers.AssertProblemDetails(t, rr, http.StatusConflict, model.ErrCodeNotAMember)

	helpers.AssertStatus(t, s.do(http.MethodPost, "/v1/clubs/"+id+"/join", student, nil), http.StatusOK)
	helpers.AssertStatus(t, s.do(http.MethodPost, "/v1/clubs/"+id+"/leave", student, nil), http.StatusOK)
}

func TestClubAddAdmin_DefaultsToAdminRole(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	admin := s.user("ada", model.UserRoleClubAdmin)
	helper := s.user("hal", model.UserRoleStudent)
	id := s.createClub(admin, "Robotics", nil)

	rr := s.do(http.MethodPut, "/v1/clubs/"+id+"/admins/"+helper.ID, admin, nil)
	helpers.AssertStatus(t, rr, http.StatusOK)

	rr = s.do(http.MethodPut, "/v1/clubs/"+id+"/admins/"+helper.ID, admin, map[string]interface{}{"role": "treasurer"})
	helpers.AssertStatus(t, rr, http.StatusOK)
	var club model.ClubView
	helpers.DecodeData(t, rr, &club)
	require.Len(t, club.Admins, 2)
	assert.Equal(t, model.AdminRoleTreasurer, club.Admins[1].Role)
}

func TestClubEvents_ListsPublishedEvents(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	admin := s.user("ada", model.UserRoleClubAdmin)
	id := s.createClub(admin, "Robotics", nil)
	s.createEvent(admin, id, testNow.Add(72*time.Hour), nil)
	s.createEvent(admin, id, testNow.Add(24*time.Hour), func(b map[string]interface{}) { b["title"] = "Soldering basics" })

	rr := s.do(http.MethodGet, "/v1/clubs/"+id+"/events", nil, nil)
	helpers.AssertStatus(t, rr, http.StatusOK)

	var events []model.EventView
	helpers.DecodeData(t, rr, &events)
	require.Len(t, events, 2)
	assert.Equal(t, "Soldering basics", events[0].Title)
}
