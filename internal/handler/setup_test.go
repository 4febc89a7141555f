package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/middleware"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/service"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/sqlstore"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/testing/helpers"
)

// ============================================================================
// Test Server
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

type testServer struct {
	t      *testing.T
	store  *sqlstore.Store
	clock  *testClock
	tokens *helpers.JWTHelper
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := sqlstore.Open(context.Background(), sqlstore.Config{Driver: sqlstore.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clock := &testClock{now: testNow}
	tokens := helpers.NewJWTHelper(t)
	cfg := service.Config{
		Users:        store.Users(),
		Clubs:        store.Clubs(),
		Events:       store.Events(),
		Locks:        service.NewLocks(),
		Now:          clock.Now,
		PasswordCost: bcrypt.MinCost,
	}

	idempotency := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{})
	t.Cleanup(idempotency.Stop)

	router := NewRouter(RouterConfig{
		Accounts:       service.NewAccountService(cfg, tokens.Service()),
		Clubs:          service.NewClubService(cfg),
		Membership:     service.NewMembershipService(cfg),
		Events:         service.NewEventService(cfg),
		Participation:  service.NewParticipationService(cfg),
		Store:          store,
		AllowedOrigins: []string{"*"},
		Idempotency:    idempotency,
	})

	return &testServer{t: t, store: store, clock: clock, tokens: tokens, router: router}
}

// ============================================================================
// Fixtures
// ============================================================================

func (s *testServer) user(name string, role model.UserRole) *model.User {
	s.t.Helper()
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
	require.NoError(s.t, s.store.Users().Create(context.Background(), u))
	return u
}

// do sends a request as actor, anonymously when actor is nil
func (s *testServer) do(method, path string, actor *model.User, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	rb := helpers.NewRequest(s.t, method, path)
	if body != nil {
		rb = rb.WithBody(body)
	}
	if actor != nil {
		rb = rb.WithAuth(s.tokens, actor)
	}
	return rb.Do(s.router)
}

func (s *testServer) createClub(founder *model.User, name string, mutate func(map[string]interface{})) string {
	s.t.Helper()
	body := map[string]interface{}{
		"name":        name,
		"description": "A club for people who build things together",
		"category":    "Technical",
	}
	if mutate != nil {
		mutate(body)
	}
	rr := s.do(http.MethodPost, "/v1/clubs", founder, body)
	helpers.AssertStatus(s.t, rr, http.StatusCreated)

	var club struct {
		ID string `json:"id"`
	}
	helpers.DecodeData(s.t, rr, &club)
	require.NotEmpty(s.t, club.ID)
	return club.ID
}

func (s *testServer) createEvent(actor *model.User, clubID string, start time.Time, mutate func(map[string]interface{})) string {
	s.t.Helper()
	body := map[string]interface{}{
		"club_id":     clubID,
		"title":       "Robot building night",
		"description": "Bring a laptop and a soldering iron",
		"date":        start.Format(model.DateLayout),
		"time":        start.Format(model.ClockLayout),
		"location":    "Lab 3",
		"type":        "public",
	}
	if mutate != nil {
		mutate(body)
	}
	rr := s.do(http.MethodPost, "/v1/events", actor, body)
	helpers.AssertStatus(s.t, rr, http.StatusCreated)

	var event struct {
		ID string `json:"id"`
	}
	helpers.DecodeData(s.t, rr, &event)
	require.NotEmpty(s.t, event.ID)
	return event.ID
}
