package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/sqlstore"
)

// ============================================================================
// Test Environment
// ============================================================================

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store         *sqlstore.Store
	clock         *testClock
	cfg           Config
	clubs         *ClubService
	membership    *MembershipService
	events        *EventService
	participation *ParticipationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := sqlstore.Open(context.Background(), sqlstore.Config{Driver: sqlstore.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clock := &testClock{now: testNow}
	cfg := Config{
		Users:  store.Users(),
		Clubs:  store.Clubs(),
		Events: store.Events(),
		Locks:  NewLocks(),
		Now:    clock.Now,
	}
	return &testEnv{
		store:         store,
		clock:         clock,
		cfg:           cfg,
		clubs:         NewClubService(cfg),
		membership:    NewMembershipService(cfg),
		events:        NewEventService(cfg),
		participation: NewParticipationService(cfg),
	}
}

// ============================================================================
// Fixtures
// ============================================================================

func (e *testEnv) user(t *testing.T, name string, role model.UserRole) *model.User {
	t.Helper()
	u := &model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        fmt.Sprintf("%s@college.test", name),
		PasswordHash: "hash",
		Role:         role,
		IsActive:     true,
		JoinedClubs:  []model.ClubMembership{},
		AdminClubs:   []string{},
		EventRSVPs:   []model.EventRSVPRef{},
		CreatedOn:    testNow,
		UpdatedOn:    testNow,
	}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return u
}

// reload returns the stored copy, which is what services see
func (e *testEnv) reload(t *testing.T, u *model.User) *model.User {
	t.Helper()
	fresh, err := e.store.Users().GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh)
	return fresh
}

func (e *testEnv) club(t *testing.T, founder *model.User, name string, mutate func(*model.CreateClubRequest)) *model.ClubView {
	t.Helper()
	req := &model.CreateClubRequest{
		Name:        name,
		Description: "A club for people who build things together",
		Category:    "Technical",
	}
	if mutate != nil {
		mutate(req)
	}
	view, err := e.clubs.CreateClub(context.Background(), founder, req)
	require.NoError(t, err)
	return view
}

func (e *testEnv) storedClub(t *testing.T, id string) *model.Club {
	t.Helper()
	c, err := e.store.Clubs().GetByID(context.Background(), id)
	require.NoError(t, err)
	return c
}

func (e *testEnv) event(t *testing.T, actor *model.User, clubID string, start time.Time, mutate func(*model.CreateEventRequest)) *model.EventView {
	t.Helper()
	req := &model.CreateEventRequest{
		ClubID:      clubID,
		Title:       "Robot building night",
		Description: "Bring a laptop and a soldering iron",
		Date:        start.Format(model.DateLayout),
		Time:        start.Format(model.ClockLayout),
		Location:    "Lab 3",
		Type:        model.EventTypePublic,
	}
	if mutate != nil {
		mutate(req)
	}
	view, err := e.events.CreateEvent(context.Background(), actor, req)
	require.NoError(t, err)
	return view
}

func (e *testEnv) storedEvent(t *testing.T, id string) *model.Event {
	t.Helper()
	ev, err := e.store.Events().GetByID(context.Background(), id)
	require.NoError(t, err)
	return ev
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, kind, se.Kind, "error %v", err)
	return se
}
