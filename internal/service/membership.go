package service

import (
	"context"
	"strings"
	"time"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/authz"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
)

// MembershipService handles join, leave and the approval workflow.
//
// Every operation holds the club lock and re-reads club and user on each
// attempt, so the capacity check and the roster write see the same state.
// The club row and the user's back-reference are saved in one transaction.
type MembershipService struct {
	base
}

// NewMembershipService creates a new membership service
func NewMembershipService(cfg Config) *MembershipService {
	return &MembershipService{base: newBase(cfg)}
}

// Join adds the actor to the club, or queues a request when approval is required
func (s *MembershipService) Join(ctx context.Context, actor *model.User, clubID string, req *model.JoinClubRequest) (*model.JoinResult, error) {
	if d := authz.Can(actor, authz.ActionJoinClub, nil); !d.Allowed {
		return nil, denied(d)
	}
	if req == nil {
		req = &model.JoinClubRequest{}
	}
	if errs := req.Validate(); len(errs) > 0 {
		return nil, invalid(errs)
	}

	unlock := s.locks.Club(clubID)
	defer unlock()

	var (
		club    *model.Club
		outcome model.JoinOutcome
	)
	err := retryWrite(ctx, "join club", func() error {
		var err error
		if club, err = s.loadClub(ctx, clubID); err != nil {
			return err
		}
		user, err := s.loadUser(ctx, actor.ID)
		if err != nil {
			return err
		}

		if club.IsActiveMember(user.ID) {
			return conflict(ErrAlreadyMember)
		}
		if club.IsFull() {
			return conflict(ErrClubFull).withLimit(club.MaxMembers, club.ActiveMembersCount())
		}

		now := s.now()
		if club.JoinApprovalRequired {
			if club.PendingRequest(user.ID) != nil {
				return conflict(ErrRequestAlreadyPending)
			}
			club.PendingRequests = append(club.PendingRequests, model.JoinRequest{
				UserID:      user.ID,
				Message:     strings.TrimSpace(req.Message),
				RequestedAt: now,
			})
			club.UpdatedOn = now
			outcome = model.JoinOutcomePending
			return s.clubs.Save(ctx, club)
		}

		admit(club, user, now)
		outcome = model.JoinOutcomeJoined
		return s.clubs.Save(ctx, club, user)
	})
	if err != nil {
		return nil, err
	}

	return &model.JoinResult{Outcome: outcome, Club: model.NewClubView(club, nil, s.now())}, nil
}

// admit makes the user an active member on both sides of the relation
func admit(club *model.Club, user *model.User, now time.Time) {
	club.AddMember(user.ID, model.MemberRoleMember, now)
	club.RemovePendingRequest(user.ID)
	club.UpdatedOn = now
	user.SetMembership(club.ID, now)
	user.UpdatedOn = now
}

// Leave removes the actor from the member roster. Admin status is unaffected.
func (s *MembershipService) Leave(ctx context.Context, actor *model.User, clubID string) (*model.ClubView, error) {
	if d := authz.Can(actor, authz.ActionLeaveClub, nil); !d.Allowed {
		return nil, denied(d)
	}

	unlock := s.locks.Club(clubID)
	defer unlock()

	var club *model.Club
	err := retryWrite(ctx, "leave club", func() error {
		var err error
		if club, err = s.loadClub(ctx, clubID); err != nil {
			return err
		}
		user, err := s.loadUser(ctx, actor.ID)
		if err != nil {
			return err
		}
		if !club.IsActiveMember(user.ID) {
			return conflict(ErrNotAMember)
		}

		now := s.now()
		club.RemoveMember(user.ID)
		club.UpdatedOn = now
		user.RemoveMembership(club.ID)
		user.UpdatedOn = now
		return s.clubs.Save(ctx, club, user)
	})
	if err != nil {
		return nil, err
	}

	return model.NewClubView(club, nil, s.now()), nil
}

// Approve admits a pending requester, re-checking capacity at approval time
func (s *MembershipService) Approve(ctx context.Context, actor *model.User, clubID, userID string) (*model.ClubView, error) {
	unlock := s.locks.Club(clubID)
	defer unlock()

	var club *model.Club
	err := retryWrite(ctx, "approve join request", func() error {
		var err error
		if club, err = s.loadClub(ctx, clubID); err != nil {
			return err
		}
		if d := authz.Can(actor, authz.ActionReviewRequests, club); !d.Allowed {
			return denied(d)
		}
		if club.PendingRequest(userID) == nil {
			return conflict(ErrNoPendingRequest)
		}

		now := s.now()
		if club.IsActiveMember(userID) {
			club.RemovePendingRequest(userID)
			club.UpdatedOn = now
			return s.clubs.Save(ctx, club)
		}
		if club.IsFull() {
			return conflict(ErrClubFull).withLimit(club.MaxMembers, club.ActiveMembersCount())
		}

		user, err := s.loadUser(ctx, userID)
		if err != nil {
			return err
		}
		admit(club, user, now)
		return s.clubs.Save(ctx, club, user)
	})
	if err != nil {
		return nil, err
	}

	return model.NewClubView(club, nil, s.now()), nil
}

// Reject drops a pending request without touching the roster
func (s *MembershipService) Reject(ctx context.Context, actor *model.User, clubID, userID string) (*model.ClubView, error) {
	unlock := s.locks.Club(clubID)
	defer unlock()

	var club *model.Club
	err := retryWrite(ctx, "reject join request", func() error {
		var err error
		if club, err = s.loadClub(ctx, clubID); err != nil {
			return err
		}
		if d := authz.Can(actor, authz.ActionReviewRequests, club); !d.Allowed {
			return denied(d)
		}
		if !club.RemovePendingRequest(userID) {
			return conflict(ErrNoPendingRequest)
		}
		club.UpdatedOn = s.now()
		return s.clubs.Save(ctx, club)
	})
	if err != nil {
		return nil, err
	}

	return model.NewClubView(club, nil, s.now()), nil
}

// AddAdmin appoints the target as an officer. Re-adding updates the role.
func (s *MembershipService) AddAdmin(ctx context.Context, actor *model.User, clubID, targetID string, req *model.AddAdminRequest) (*model.ClubView, error) {
	if req == nil {
		req = &model.AddAdminRequest{}
	}
	if errs := req.Validate(); len(errs) > 0 {
		return nil, invalid(errs)
	}
	role := req.Role
	if role == "" {
		role = model.AdminRoleAdmin
	}

	unlock := s.locks.Club(clubID)
	defer unlock()

	var club *model.Club
	err := retryWrite(ctx, "add club admin", func() error {
		var err error
		if club, err = s.loadClub(ctx, clubID); err != nil {
			return err
		}
		if d := authz.Can(actor, authz.ActionManageAdmins, club); !d.Allowed {
			return denied(d)
		}
		target, err := s.loadUser(ctx, targetID)
		if err != nil {
			return err
		}

		now := s.now()
		club.UpsertAdmin(target.ID, role, now)
		club.UpdatedOn = now
		if target.IsAdminOf(club.ID) {
			return s.clubs.Save(ctx, club)
		}
		target.AddAdminClub(club.ID)
		target.UpdatedOn = now
		return s.clubs.Save(ctx, club, target)
	})
	if err != nil {
		return nil, err
	}

	return model.NewClubView(club, nil, s.now()), nil
}
