package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/authz"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/database"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
	"github.com/Riya-Singh-Hash/CampusConnect/pkg/jwt"
)

// bcrypt cost factor (10-14 recommended for production)
const bcryptCost = 12

// TokenService issues and validates access tokens
type TokenService interface {
	IssueAccessToken(userID, email, role string) (string, error)
	Validate(token string) (*jwt.Claims, error)
	Expiration() time.Duration
}

// AccountService handles registration, login, profiles and user administration
type AccountService struct {
	base
	tokens TokenService
	cost   int
}

// NewAccountService creates a new account service
func NewAccountService(cfg Config, tokens TokenService) *AccountService {
	cost := cfg.PasswordCost
	if cost == 0 {
		cost = bcryptCost
	}
	return &AccountService{base: newBase(cfg), tokens: tokens, cost: cost}
}

// Register creates a student account and signs the caller in
func (s *AccountService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, invalid(errs)
	}

	email := model.NormalizeEmail(req.Email)
	existing, err := retryRead(ctx, func() (*model.User, error) { return s.users.GetByEmail(ctx, email) })
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, conflict(ErrEmailAlreadyExists).withField("email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.UserRoleStudent,
		StudentID:    strings.TrimSpace(req.StudentID),
		Department:   req.Department,
		Year:         req.Year,
		Phone:        strings.TrimSpace(req.Phone),
		IsActive:     true,
		JoinedClubs:  []model.ClubMembership{},
		AdminClubs:   []string{},
		EventRSVPs:   []model.EventRSVPRef{},
		CreatedOn:    now,
		UpdatedOn:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, conflict(ErrEmailAlreadyExists).withField("email")
		}
		return nil, err
	}

	return s.authResponse(user)
}

// Login verifies the password and records the login time
func (s *AccountService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	email := model.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, &Error{Kind: KindUnauthorized, Err: ErrInvalidCredentials}
	}

	var user *model.User
	err := retryWrite(ctx, "login", func() error {
		var err error
		user, err = retryRead(ctx, func() (*model.User, error) { return s.users.GetByEmail(ctx, email) })
		if err != nil {
			return err
		}
		if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			return &Error{Kind: KindUnauthorized, Err: ErrInvalidCredentials}
		}
		if !user.IsActive {
			return &Error{Kind: KindUnauthorized, Err: ErrAccountInactive}
		}

		now := s.now()
		user.LastLogin = &now
		return s.users.Save(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	return s.authResponse(user)
}

func (s *AccountService) authResponse(user *model.User) (*model.AuthResponse, error) {
	token, err := s.tokens.IssueAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &model.AuthResponse{
		User:        user,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokens.Expiration().Seconds()),
	}, nil
}

// Authenticate resolves a bearer token to an active user. The user is
// reloaded on every call so role changes and deactivation apply at once.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, &Error{Kind: KindUnauthorized, Err: err}
	}

	user, err := retryRead(ctx, func() (*model.User, error) { return s.users.GetByID(ctx, claims.UserID()) })
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", claims.UserID(), err)
	}
	if user == nil {
		return nil, &Error{Kind: KindUnauthorized, Err: ErrUserNotFound}
	}
	if !user.IsActive {
		return nil, &Error{Kind: KindUnauthorized, Err: ErrAccountInactive}
	}
	return user, nil
}

// Profile returns the actor's account with back-references resolved.
// References to clubs or events that no longer exist are skipped.
func (s *AccountService) Profile(ctx context.Context, actor *model.User) (*model.Profile, error) {
	if d := authz.Can(actor, authz.ActionViewProfile, nil); !d.Allowed {
		return nil, denied(d)
	}
	user, err := s.loadUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	clubIDs := make([]string, 0, len(user.JoinedClubs)+len(user.AdminClubs))
	for _, m := range user.JoinedClubs {
		clubIDs = append(clubIDs, m.ClubID)
	}
	clubIDs = append(clubIDs, user.AdminClubs...)
	clubs, err := retryRead(ctx, func() ([]*model.Club, error) { return s.clubs.GetByIDs(ctx, clubIDs) })
	if err != nil {
		return nil, fmt.Errorf("resolve clubs: %w", err)
	}
	byClub := make(map[string]*model.Club, len(clubs))
	for _, c := range clubs {
		byClub[c.ID] = c
	}

	eventIDs := make([]string, 0, len(user.EventRSVPs))
	for _, r := range user.EventRSVPs {
		eventIDs = append(eventIDs, r.EventID)
	}
	events, err := retryRead(ctx, func() ([]*model.Event, error) { return s.events.GetByIDs(ctx, eventIDs) })
	if err != nil {
		return nil, fmt.Errorf("resolve events: %w", err)
	}
	byEvent := make(map[string]*model.Event, len(events))
	for _, e := range events {
		byEvent[e.ID] = e
	}

	now := s.now()
	profile := &model.Profile{
		User:       user,
		Clubs:      make([]model.ProfileClub, 0, len(user.JoinedClubs)),
		AdminClubs: make([]model.ClubSummary, 0, len(user.AdminClubs)),
		RSVPs:      make([]model.ProfileRSVP, 0, len(user.EventRSVPs)),
	}
	for _, m := range user.JoinedClubs {
		if c, ok := byClub[m.ClubID]; ok {
			profile.Clubs = append(profile.Clubs, model.ProfileClub{Club: c.Summary(), JoinedAt: m.JoinedAt, Status: m.Status})
		}
	}
	for _, id := range user.AdminClubs {
		if c, ok := byClub[id]; ok {
			profile.AdminClubs = append(profile.AdminClubs, c.Summary())
		}
	}
	for _, r := range user.EventRSVPs {
		if e, ok := byEvent[r.EventID]; ok {
			profile.RSVPs = append(profile.RSVPs, model.ProfileRSVP{Event: e.Summary(now), Status: r.Status, RSVPAt: r.RSVPAt})
		}
	}
	return profile, nil
}

// ChangeRole sets a user's global role
func (s *AccountService) ChangeRole(ctx context.Context, actor *model.User, targetID string, req *model.ChangeRoleRequest) (*model.User, error) {
	if d := authz.Can(actor, authz.ActionManageUsers, nil); !d.Allowed {
		return nil, denied(d)
	}
	if errs := req.Validate(); len(errs) > 0 {
		return nil, invalid(errs)
	}

	return s.updateUser(ctx, "change role", targetID, func(u *model.User) {
		u.Role = req.Role
	})
}

// Deactivate soft-deletes an account. The user keeps its data but can no longer sign in.
func (s *AccountService) Deactivate(ctx context.Context, actor *model.User, targetID string) (*model.User, error) {
	if d := authz.Can(actor, authz.ActionManageUsers, nil); !d.Allowed {
		return nil, denied(d)
	}

	return s.updateUser(ctx, "deactivate user", targetID, func(u *model.User) {
		u.IsActive = false
	})
}

func (s *AccountService) updateUser(ctx context.Context, op, userID string, mutate func(*model.User)) (*model.User, error) {
	var user *model.User
	err := retryWrite(ctx, op, func() error {
		var err error
		if user, err = s.loadUser(ctx, userID); err != nil {
			return err
		}
		mutate(user)
		user.UpdatedOn = s.now()
		return s.users.Save(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
