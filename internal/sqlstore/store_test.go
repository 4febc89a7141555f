package sqlstore

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/database"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestUser(name string) *model.User {
	return &model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        fmt.Sprintf("%s@college.test", name),
		PasswordHash: "hash",
		Role:         model.UserRoleStudent,
		IsActive:     true,
		JoinedClubs:  []model.ClubMembership{},
		AdminClubs:   []string{},
		EventRSVPs:   []model.EventRSVPRef{},
		CreatedOn:    testNow,
		UpdatedOn:    testNow,
	}
}

func newTestClub(name string, created time.Time) *model.Club {
	return &model.Club{
		ID:          uuid.NewString(),
		Name:        name,
		NameKey:     model.ClubNameKey(name),
		Description: "A club used by the storage tests",
		Category:    "Technical",
		Department:  model.DefaultClubDepartment,
		MaxMembers:  10,
		IsActive:    true,
		Members:     []model.ClubMember{},
		Admins:      []model.ClubAdmin{},
		Events:      []string{},
		CreatedOn:   created,
		UpdatedOn:   created,
	}
}

func newTestEvent(clubID, title string, start time.Time, status model.EventStatus) *model.Event {
	return &model.Event{
		ID:          uuid.NewString(),
		ClubID:      clubID,
		Title:       title,
		Description: "An event used by the storage tests",
		Date:        start,
		Time:        start.Format(model.ClockLayout),
		Location:    "Main hall",
		Category:    "workshop",
		Type:        model.EventTypePublic,
		MaxCapacity: 5,
		Status:      status,
		CreatedOn:   testNow,
		UpdatedOn:   testNow,
	}
}

// ============================================================================
// Open / Migration Tests
// ============================================================================

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)

	_, err = Open(context.Background(), Config{Driver: DriverSQLite})
	assert.Error(t, err)
}

func TestOpen_ReopenKeepsSchemaAndData(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := Config{Driver: DriverSQLite, DSN: "file:" + filepath.Join(t.TempDir(), "campus.db")}

	first, err := Open(ctx, cfg)
	require.NoError(t, err)
	u := newTestUser("asha")
	require.NoError(t, first.Users().Create(ctx, u))
	require.NoError(t, first.Close())

	second, err := Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	got, err := second.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.Email, got.Email)
}

// ============================================================================
// UserStore Tests
// ============================================================================

func TestUserStore_CreateAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := openTestStore(t).Users()

	u := newTestUser("asha")
	require.NoError(t, users.Create(ctx, u))
	assert.Equal(t, 1, u.Version)

	got, err := users.GetByEmail(ctx, "  ASHA@college.test ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Equal(t, 1, got.Version)

	missing, err := users.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserStore_DuplicateEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := openTestStore(t).Users()

	require.NoError(t, users.Create(ctx, newTestUser("ravi")))
	dup := newTestUser("ravi")
	err := users.Create(ctx, dup)

	assert.ErrorIs(t, err, database.ErrDuplicate)
	assert.Equal(t, 0, dup.Version)
}

func TestUserStore_SaveIsCompareAndSwap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := openTestStore(t).Users()

	u := newTestUser("meera")
	require.NoError(t, users.Create(ctx, u))

	first, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	second, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)

	first.Bio = "first"
	require.NoError(t, users.Save(ctx, first))
	assert.Equal(t, 2, first.Version)

	second.Bio = "second"
	err = users.Save(ctx, second)
	assert.ErrorIs(t, err, database.ErrVersionConflict)
	assert.Equal(t, 1, second.Version)

	stored, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Bio)
}

func TestUserStore_ListReferencing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := openTestStore(t).Users()

	member := newTestUser("member")
	member.SetMembership("club-1", testNow)
	admin := newTestUser("admin")
	admin.AddAdminClub("club-1")
	rsvp := newTestUser("rsvp")
	rsvp.SetEventRSVP("event-9", model.RSVPStatusGoing, testNow)
	other := newTestUser("other")
	other.SetMembership("club-10", testNow)

	for _, u := range []*model.User{member, admin, rsvp, other} {
		require.NoError(t, users.Create(ctx, u))
	}

	found, err := users.ListReferencing(ctx, "club-1", []string{"event-9"})
	require.NoError(t, err)

	ids := make([]string, 0, len(found))
	for _, u := range found {
		ids = append(ids, u.ID)
	}
	assert.ElementsMatch(t, []string{member.ID, admin.ID, rsvp.ID}, ids)

	none, err := users.ListReferencing(ctx, "", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUserStore_ListAfterPages(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := openTestStore(t).Users()

	for i := 0; i < 5; i++ {
		require.NoError(t, users.Create(ctx, newTestUser(fmt.Sprintf("user%d", i))))
	}

	seen := map[string]bool{}
	after := ""
	for {
		page, err := users.ListAfter(ctx, after, 2)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		for _, u := range page {
			assert.False(t, seen[u.ID])
			seen[u.ID] = true
		}
		after = page[len(page)-1].ID
	}
	assert.Len(t, seen, 5)
}

// ============================================================================
// ClubStore Tests
// ============================================================================

func TestClubStore_CreateWithFounder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	founder := newTestUser("founder")
	require.NoError(t, s.Users().Create(ctx, founder))

	club := newTestClub("Robotics Club", testNow)
	club.UpsertAdmin(founder.ID, model.AdminRolePresident, testNow)
	founder.AddAdminClub(club.ID)

	require.NoError(t, s.Clubs().Create(ctx, club, founder))
	assert.Equal(t, 1, club.Version)
	assert.Equal(t, 2, founder.Version)

	stored, err := s.Clubs().GetByID(ctx, club.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "robotics club", stored.NameKey)
	assert.True(t, stored.IsAdmin(founder.ID))

	reloaded, err := s.Users().GetByID(ctx, founder.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsAdminOf(club.ID))
}

func TestClubStore_NameKeyIsUnique(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	founder := newTestUser("founder")
	require.NoError(t, s.Users().Create(ctx, founder))
	require.NoError(t, s.Clubs().Create(ctx, newTestClub("Chess Club", testNow), nil))

	second := newTestClub("  CHESS   club ", testNow)
	founder.AddAdminClub(second.ID)
	err := s.Clubs().Create(ctx, second, founder)

	assert.ErrorIs(t, err, database.ErrDuplicate)
	assert.Equal(t, 1, founder.Version, "founder must not be written when the club insert fails")

	reloaded, err := s.Users().GetByID(ctx, founder.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.AdminClubs)
}

func TestClubStore_SaveRollsBackOnStaleUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	u := newTestUser("joiner")
	require.NoError(t, s.Users().Create(ctx, u))
	club := newTestClub("Drama Club", testNow)
	require.NoError(t, s.Clubs().Create(ctx, club, nil))

	stale, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	u.Bio = "moved on"
	require.NoError(t, s.Users().Save(ctx, u))

	club.AddMember(stale.ID, model.MemberRoleMember, testNow)
	stale.SetMembership(club.ID, testNow)
	err = s.Clubs().Save(ctx, club, stale)
	assert.ErrorIs(t, err, database.ErrVersionConflict)
	assert.Equal(t, 1, club.Version)

	stored, err := s.Clubs().GetByID(ctx, club.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Members, "club write must roll back with the user write")
}

func TestClubStore_ListFiltersAndPages(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clubs := openTestStore(t).Clubs()

	names := []string{"Alpha Coders", "Beta Dancers", "Gamma Coders", "Delta Hikers"}
	for i, name := range names {
		c := newTestClub(name, testNow.Add(time.Duration(i)*time.Hour))
		if name == "Beta Dancers" {
			c.Category = "Cultural"
		}
		require.NoError(t, clubs.Create(ctx, c, nil))
	}
	inactive := newTestClub("Omega Coders", testNow)
	inactive.IsActive = false
	require.NoError(t, clubs.Create(ctx, inactive, nil))

	page, total, err := clubs.List(ctx, model.ClubFilter{Search: "CODERS"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, page, 2)
	assert.Equal(t, "Gamma Coders", page[0].Name, "newest first by default")

	page, total, err = clubs.List(ctx, model.ClubFilter{Category: "Cultural"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Beta Dancers", page[0].Name)

	page, total, err = clubs.List(ctx, model.ClubFilter{Sort: model.ClubSortName, Ascending: true, Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, page, 1)
	assert.Equal(t, "Gamma Coders", page[0].Name)

	page, total, err = clubs.List(ctx, model.ClubFilter{Search: "100%"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, page)
}

func TestClubStore_DeleteRemovesEvents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	member := newTestUser("member")
	require.NoError(t, s.Users().Create(ctx, member))
	club := newTestClub("Film Club", testNow)
	require.NoError(t, s.Clubs().Create(ctx, club, nil))

	event := newTestEvent(club.ID, "Screening", testNow.Add(48*time.Hour), model.EventStatusPublished)
	club.AddEventRef(event.ID)
	require.NoError(t, s.Events().Create(ctx, event, club))

	member.SetMembership(club.ID, testNow)
	member.SetEventRSVP(event.ID, model.RSVPStatusGoing, testNow)
	require.NoError(t, s.Users().Save(ctx, member))

	member.RemoveMembership(club.ID)
	member.RemoveEventRSVP(event.ID)
	require.NoError(t, s.Clubs().Delete(ctx, club, member))

	gone, err := s.Clubs().GetByID(ctx, club.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	goneEvent, err := s.Events().GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Nil(t, goneEvent)

	refs, err := s.Users().ListReferencing(ctx, club.ID, []string{event.ID})
	require.NoError(t, err)
	assert.Empty(t, refs)
}

// ============================================================================
// EventStore Tests
// ============================================================================

func TestEventStore_CreateBumpsClub(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	club := newTestClub("Quiz Club", testNow)
	require.NoError(t, s.Clubs().Create(ctx, club, nil))

	event := newTestEvent(club.ID, "Finals", testNow.Add(24*time.Hour), model.EventStatusPublished)
	club.AddEventRef(event.ID)
	require.NoError(t, s.Events().Create(ctx, event, club))
	assert.Equal(t, 2, club.Version)

	stored, err := s.Clubs().GetByID(ctx, club.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{event.ID}, stored.Events)

	stale := *stored
	stale.Version = 1
	other := newTestEvent(club.ID, "Semis", testNow.Add(12*time.Hour), model.EventStatusPublished)
	err = s.Events().Create(ctx, other, &stale)
	assert.ErrorIs(t, err, database.ErrVersionConflict)

	missing, err := s.Events().GetByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestEventStore_ListFilters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	club := newTestClub("Music Club", testNow)
	require.NoError(t, s.Clubs().Create(ctx, club, nil))

	fixtures := []*model.Event{
		newTestEvent(club.ID, "Past Jam", testNow.Add(-24*time.Hour), model.EventStatusPublished),
		newTestEvent(club.ID, "Late Jam", testNow.Add(72*time.Hour), model.EventStatusPublished),
		newTestEvent(club.ID, "Early Jam", testNow.Add(24*time.Hour), model.EventStatusPublished),
		newTestEvent(club.ID, "Draft Jam", testNow.Add(24*time.Hour), model.EventStatusDraft),
		newTestEvent("other-club", "Live Set", testNow.Add(48*time.Hour), model.EventStatusOngoing),
	}
	for _, e := range fixtures {
		club.AddEventRef(e.ID)
		require.NoError(t, s.Events().Create(ctx, e, club))
	}

	events, total, err := s.Events().List(ctx, model.EventFilter{UpcomingOnly: true, From: testNow})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, events, 2)
	assert.Equal(t, "Early Jam", events[0].Title, "start order")

	events, total, err = s.Events().List(ctx, model.EventFilter{Status: model.EventStatusAll, ClubID: club.ID})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, events, 4)

	events, _, err = s.Events().List(ctx, model.EventFilter{
		Statuses: []model.EventStatus{model.EventStatusPublished, model.EventStatusOngoing},
		Search:   "set",
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Live Set", events[0].Title)

	byClub, err := s.Events().ListByClub(ctx, club.ID)
	require.NoError(t, err)
	assert.Len(t, byClub, 4)
}

func TestEventStore_DeleteIsCompareAndSwap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	club := newTestClub("Art Club", testNow)
	require.NoError(t, s.Clubs().Create(ctx, club, nil))
	event := newTestEvent(club.ID, "Sketch", testNow.Add(24*time.Hour), model.EventStatusPublished)
	club.AddEventRef(event.ID)
	require.NoError(t, s.Events().Create(ctx, event, club))

	stale, err := s.Events().GetByID(ctx, event.ID)
	require.NoError(t, err)
	event.UpsertRSVP("someone", model.RSVPStatusGoing, "", testNow)
	require.NoError(t, s.Events().Save(ctx, event))

	club.RemoveEventRef(stale.ID)
	err = s.Events().Delete(ctx, stale, club)
	assert.ErrorIs(t, err, database.ErrVersionConflict)

	require.NoError(t, s.Events().Delete(ctx, event, club))
	stored, err := s.Clubs().GetByID(ctx, club.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Events)
}

func TestEventStore_SaveGuardedRejectsStaleClub(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	club := newTestClub("Chess Club", testNow)
	require.NoError(t, s.Clubs().Create(ctx, club, nil))
	event := newTestEvent(club.ID, "Blitz Night", testNow.Add(24*time.Hour), model.EventStatusPublished)
	club.AddEventRef(event.ID)
	require.NoError(t, s.Events().Create(ctx, event, club))

	seen := *club
	club.Description = "moved on"
	require.NoError(t, s.Clubs().Save(ctx, club))

	event.UpsertRSVP("late-member", model.RSVPStatusGoing, "", testNow)
	err := s.Events().SaveGuarded(ctx, event, &seen)
	assert.ErrorIs(t, err, database.ErrVersionConflict)

	stored, err := s.Events().GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.RSVPs, "event write rolled back")
	assert.Equal(t, event.Version, stored.Version)

	require.NoError(t, s.Events().SaveGuarded(ctx, event, club))
	stored, err = s.Events().GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, stored.RSVPs, 1)

	current, err := s.Clubs().GetByID(ctx, club.ID)
	require.NoError(t, err)
	assert.Equal(t, club.Version, current.Version, "guard leaves the club version alone")
}
