package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/service"
	"github.com/Riya-Singh-Hash/CampusConnect/pkg/jwt"
)

// Authenticator resolves a bearer token to the active user it was issued to
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// Auth returns a middleware that requires a valid bearer token
func Auth(auth Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				model.NewUnauthorizedError("missing or malformed authorization header").WriteJSON(w)
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				authProblem(err).WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuth is like Auth but lets anonymous callers through.
// A present but invalid token is still rejected.
func OptionalAuth(auth Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			Auth(auth)(next).ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func authProblem(err error) *model.ProblemDetails {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		pd := model.NewUnauthorizedError("token expired")
		pd.Code = model.ErrCodeTokenExpired
		return pd
	case errors.Is(err, jwt.ErrInvalidSignature):
		pd := model.NewUnauthorizedError("invalid token signature")
		pd.Code = model.ErrCodeTokenInvalid
		return pd
	case errors.Is(err, service.ErrAccountInactive):
		pd := model.NewUnauthorizedError(service.ErrAccountInactive.Error())
		pd.Code = model.ErrCodeAccountInactive
		return pd
	case service.KindOf(err) == service.KindUnauthorized:
		pd := model.NewUnauthorizedError("invalid token")
		pd.Code = model.ErrCodeTokenInvalid
		return pd
	default:
		return model.NewServiceUnavailableError("could not verify credentials")
	}
}

// WithUser stores the authenticated user in the context
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// GetUser returns the authenticated user, nil for anonymous requests
func GetUser(ctx context.Context) *model.User {
	if u, ok := ctx.Value(UserKey).(*model.User); ok {
		return u
	}
	return nil
}

// GetUserID returns the authenticated user's id, or ""
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.ID
	}
	return ""
}
