package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/service"
	"github.com/Riya-Singh-Hash/CampusConnect/pkg/jwt"
)

// ============================================================================
// Mock Authenticator
// ============================================================================

type mockAuthenticator struct {
	authenticateFunc func(ctx context.Context, token string) (*model.User, error)
	lastToken        string
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, token string) (*model.User, error) {
	m.lastToken = token
	return m.authenticateFunc(ctx, token)
}

func successAuth(userID string) *mockAuthenticator {
	return &mockAuthenticator{
		authenticateFunc: func(ctx context.Context, token string) (*model.User, error) {
			return &model.User{ID: userID, Email: userID + "@campus.edu", Role: model.UserRoleStudent, IsActive: true}, nil
		},
	}
}

func errorAuth(err error) *mockAuthenticator {
	return &mockAuthenticator{
		authenticateFunc: func(ctx context.Context, token string) (*model.User, error) {
			return nil, err
		},
	}
}

// ============================================================================
// Test Helpers
// ============================================================================

func newTestRequest(authHeader string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	return req
}

// captureHandler captures the request context for inspection
type captureHandler struct {
	called bool
	ctx    context.Context
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) model.ProblemDetails {
	t.Helper()
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	var pd model.ProblemDetails
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pd))
	return pd
}

// ============================================================================
// Auth() Middleware Tests
// ============================================================================

func TestAuth_MalformedHeader_ReturnsUnauthorized(t *testing.T) {
	t.Parallel()

	for _, header := range []string{"", "Basic sometoken", "Bearer", "Bearer ", "Bearertoken"} {
		t.Run(fmt.Sprintf("%q", header), func(t *testing.T) {
			auth := successAuth("u1")
			handler := &captureHandler{}
			rr := httptest.NewRecorder()

			Auth(auth)(handler).ServeHTTP(rr, newTestRequest(header))

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.False(t, handler.called)
			assert.Empty(t, auth.lastToken)
			assert.Equal(t, model.ErrCodeUnauthorized, decodeProblem(t, rr).Code)
		})
	}
}

func TestAuth_ValidToken_SetsUser(t *testing.T) {
	t.Parallel()
	auth := successAuth("u1")
	handler := &captureHandler{}
	rr := httptest.NewRecorder()

	Auth(auth)(handler).ServeHTTP(rr, newTestRequest("bearer abc.def.ghi"))

	require.True(t, handler.called)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "abc.def.ghi", auth.lastToken)
	assert.Equal(t, "u1", GetUserID(handler.ctx))
	require.NotNil(t, GetUser(handler.ctx))
	assert.Equal(t, model.UserRoleStudent, GetUser(handler.ctx).Role)
}

func TestAuth_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		code   model.ErrorCode
	}{
		{"expired", &service.Error{Kind: service.KindUnauthorized, Err: fmt.Errorf("parse: %w", jwt.ErrTokenExpired)}, http.StatusUnauthorized, model.ErrCodeTokenExpired},
		{"bad signature", &service.Error{Kind: service.KindUnauthorized, Err: jwt.ErrInvalidSignature}, http.StatusUnauthorized, model.ErrCodeTokenInvalid},
		{"inactive", &service.Error{Kind: service.KindUnauthorized, Err: service.ErrAccountInactive}, http.StatusUnauthorized, model.ErrCodeAccountInactive},
		{"unknown user", &service.Error{Kind: service.KindUnauthorized, Err: service.ErrUserNotFound}, http.StatusUnauthorized, model.ErrCodeTokenInvalid},
		{"store down", errors.New("connection refused"), http.StatusServiceUnavailable, model.ErrCodeDatabase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := &captureHandler{}
			rr := httptest.NewRecorder()

			Auth(errorAuth(tt.err))(handler).ServeHTTP(rr, newTestRequest("Bearer token"))

			assert.Equal(t, tt.status, rr.Code)
			assert.False(t, handler.called)
			assert.Equal(t, tt.code, decodeProblem(t, rr).Code)
		})
	}
}

// ============================================================================
// OptionalAuth() Middleware Tests
// ============================================================================

func TestOptionalAuth_NoHeader_ProceedsAnonymously(t *testing.T) {
	t.Parallel()
	auth := successAuth("u1")
	handler := &captureHandler{}
	rr := httptest.NewRecorder()

	OptionalAuth(auth)(handler).ServeHTTP(rr, newTestRequest(""))

	require.True(t, handler.called)
	assert.Nil(t, GetUser(handler.ctx))
	assert.Empty(t, GetUserID(handler.ctx))
	assert.Empty(t, auth.lastToken)
}

func TestOptionalAuth_ValidToken_SetsUser(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}
	rr := httptest.NewRecorder()

	OptionalAuth(successAuth("u2"))(handler).ServeHTTP(rr, newTestRequest("Bearer token"))

	require.True(t, handler.called)
	assert.Equal(t, "u2", GetUserID(handler.ctx))
}

func TestOptionalAuth_InvalidToken_Rejects(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}
	rr := httptest.NewRecorder()

	err := &service.Error{Kind: service.KindUnauthorized, Err: jwt.ErrTokenExpired}
	OptionalAuth(errorAuth(err))(handler).ServeHTTP(rr, newTestRequest("Bearer stale"))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, handler.called)
}

// ============================================================================
// Context Helper Tests
// ============================================================================

func TestGetUser_Missing_ReturnsNil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, GetUser(context.Background()))
	assert.Empty(t, GetUserID(context.Background()))
}

func TestGetUser_WrongType_ReturnsNil(t *testing.T) {
	t.Parallel()
	ctx := context.WithValue(context.Background(), UserKey, "u1")
	assert.Nil(t, GetUser(ctx))
}

func TestWithUser_RoundTrips(t *testing.T) {
	t.Parallel()
	user := &model.User{ID: "u9"}
	ctx := WithUser(context.Background(), user)
	assert.Same(t, user, GetUser(ctx))
	assert.Equal(t, "u9", GetUserID(ctx))
}
