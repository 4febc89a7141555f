package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/authz"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/database"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
)

// ClubService handles the club registry: lifecycle, listing and rosters
type ClubService struct {
	base
}

// NewClubService creates a new club service
func NewClubService(cfg Config) *ClubService {
	return &ClubService{base: newBase(cfg)}
}

// CreateClub creates a club with the actor as its president. The club row
// and the founder's admin back-reference are written in one transaction.
func (s *ClubService) CreateClub(ctx context.Context, actor *model.User, req *model.CreateClubRequest) (*model.ClubView, error) {
	if d := authz.Can(actor, authz.ActionCreateClub, nil); !d.Allowed {
		return nil, denied(d)
	}
	if errs := req.Validate(); len(errs) > 0 {
		return nil, invalid(errs)
	}

	var club *model.Club
	err := retryWrite(ctx, "create club", func() error {
		founder, err := s.loadUser(ctx, actor.ID)
		if err != nil {
			return err
		}

		now := s.now()
		club = newClub(req, now)
		club.UpsertAdmin(founder.ID, model.AdminRolePresident, now)
		founder.AddAdminClub(club.ID)
		founder.UpdatedOn = now

		if err := s.clubs.Create(ctx, club, founder); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				return conflict(ErrClubNameExists).withField("name")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return model.NewClubView(club, []*model.Event{}, s.now()), nil
}

func newClub(req *model.CreateClubRequest, now time.Time) *model.Club {
	department := req.Department
	if department == "" {
		department = model.DefaultClubDepartment
	}
	maxMembers := model.DefaultMaxMembers
	if req.MaxMembers != nil {
		maxMembers = *req.MaxMembers
	}
	name := strings.TrimSpace(req.Name)

	return &model.Club{
		ID:                   uuid.NewString(),
		Name:                 name,
		NameKey:              model.ClubNameKey(name),
		Description:          strings.TrimSpace(req.Description),
		Category:             req.Category,
		Department:           department,
		Focus:                strings.TrimSpace(req.Focus),
		Logo:                 req.Logo,
		Tags:                 req.Tags,
		Rules:                req.Rules,
		ContactInfo:          req.ContactInfo,
		MeetingSchedule:      req.MeetingSchedule,
		BannerImage:          strings.TrimSpace(req.BannerImage),
		Achievements:         model.NormalizeAchievements(req.Achievements),
		MaxMembers:           maxMembers,
		JoinApprovalRequired: req.JoinApprovalRequired,
		IsActive:             true,
		EstablishedDate:      now,
		Members:              []model.ClubMember{},
		Admins:               []model.ClubAdmin{},
		PendingRequests:      []model.JoinRequest{},
		Events:               []string{},
		CreatedOn:            now,
		UpdatedOn:            now,
	}
}

// GetClub returns the public view of a club with its stats
func (s *ClubService) GetClub(ctx context.Context, clubID string) (*model.ClubView, error) {
	club, err := s.loadClub(ctx, clubID)
	if err != nil {
		return nil, err
	}
	events, err := retryRead(ctx, func() ([]*model.Event, error) { return s.events.ListByClub(ctx, clubID) })
	if err != nil {
		return nil, err
	}
	return model.NewClubView(club, events, s.now()), nil
}

// ListClubs returns one page of active clubs
func (s *ClubService) ListClubs(ctx context.Context, filter model.ClubFilter) (model.Page[*model.ClubView], error) {
	filter.Normalize()

	type listing struct {
		clubs []*model.Club
		total int
	}
	res, err := retryRead(ctx, func() (listing, error) {
		clubs, total, err := s.clubs.List(ctx, filter)
		return listing{clubs, total}, err
	})
	if err != nil {
		return model.Page[*model.ClubView]{}, err
	}

	now := s.now()
	views := make([]*model.ClubView, 0, len(res.clubs))
	for _, c := range res.clubs {
		views = append(views, model.NewClubView(c, nil, now))
	}
	return model.NewPage(views, res.total, filter.Page, filter.Limit), nil
}

// UpdateClub applies a partial update. Renames re-check the unique name key.
func (s *ClubService) UpdateClub(ctx context.Context, actor *model.User, clubID string, req *model.UpdateClubRequest) (*model.ClubView, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, invalid(errs)
	}

	unlock := s.locks.Club(clubID)
	defer unlock()

	var club *model.Club
	err := retryWrite(ctx, "update club", func() error {
		var err error
		if club, err = s.loadClub(ctx, clubID); err != nil {
			return err
		}
		if d := authz.Can(actor, authz.ActionUpdateClub, club); !d.Allowed {
			return denied(d)
		}
		if err := applyClubUpdate(club, req); err != nil {
			return err
		}
		club.UpdatedOn = s.now()

		if err := s.clubs.Save(ctx, club); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				return conflict(ErrClubNameExists).withField("name")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return model.NewClubView(club, nil, s.now()), nil
}

func applyClubUpdate(club *model.Club, req *model.UpdateClubRequest) error {
	if req.MaxMembers != nil {
		if active := club.ActiveMembersCount(); *req.MaxMembers < active {
			return invalidField(ErrMaxMembersBelowActive, "max_members").withLimit(*req.MaxMembers, active)
		}
		club.MaxMembers = *req.MaxMembers
	}
	if req.Name != nil {
		club.Name = strings.TrimSpace(*req.Name)
		club.NameKey = model.ClubNameKey(club.Name)
	}
	if req.Description != nil {
		club.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		club.Category = *req.Category
	}
	if req.Department != nil {
		club.Department = *req.Department
	}
	if req.Focus != nil {
		club.Focus = strings.TrimSpace(*req.Focus)
	}
	if req.Logo != nil {
		club.Logo = *req.Logo
	}
	if req.Tags != nil {
		club.Tags = req.Tags
	}
	if req.Rules != nil {
		club.Rules = req.Rules
	}
	if req.ContactInfo != nil {
		club.ContactInfo = req.ContactInfo
	}
	if req.MeetingSchedule != nil {
		club.MeetingSchedule = req.MeetingSchedule
	}
	if req.BannerImage != nil {
		club.BannerImage = strings.TrimSpace(*req.BannerImage)
	}
	if req.Achievements != nil {
		club.Achievements = model.NormalizeAchievements(req.Achievements)
	}
	if req.JoinApprovalRequired != nil {
		club.JoinApprovalRequired = *req.JoinApprovalRequired
	}
	if req.IsActive != nil {
		club.IsActive = *req.IsActive
	}
	return nil
}

// DeleteClub removes the club and all of its events, then strips every
// reference to them from users. Users are scrubbed after the club is gone;
// anything left behind by a failure is picked up by the reference repair job.
// Deleting a club that is already gone still removes club references left on
// users before reporting not found.
func (s *ClubService) DeleteClub(ctx context.Context, actor *model.User, clubID string) error {
	unlock := s.locks.Club(clubID)
	defer unlock()

	var eventIDs []string
	err := retryWrite(ctx, "delete club", func() error {
		club, err := s.loadClub(ctx, clubID)
		if err != nil {
			return err
		}
		if d := authz.Can(actor, authz.ActionDeleteClub, club); !d.Allowed {
			return denied(d)
		}

		events, err := retryRead(ctx, func() ([]*model.Event, error) { return s.events.ListByClub(ctx, clubID) })
		if err != nil {
			return err
		}
		eventIDs = eventIDs[:0]
		for _, e := range events {
			eventIDs = append(eventIDs, e.ID)
		}
		for _, id := range club.Events {
			eventIDs = appendUnique(eventIDs, id)
		}

		unlockEvents := s.locks.Events(eventIDs)
		defer unlockEvents()
		return s.clubs.Delete(ctx, club)
	})
	if errors.Is(err, ErrClubNotFound) && authz.Can(actor, authz.ActionDeleteClub, nil).Allowed {
		// a retry after a partial scrub finishes the club references
		if scrubErr := s.scrubReferences(ctx, clubID, nil); scrubErr != nil {
			return scrubErr
		}
		return err
	}
	if err != nil {
		return err
	}

	return s.scrubReferences(ctx, clubID, eventIDs)
}

// Members returns the active roster and the admins, resolved to user summaries
func (s *ClubService) Members(ctx context.Context, actor *model.User, clubID string) (*model.MemberRoster, error) {
	club, err := s.loadClub(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if d := authz.Can(actor, authz.ActionViewMembers, club); !d.Allowed {
		return nil, denied(d)
	}

	ids := make([]string, 0, len(club.Members)+len(club.Admins))
	for _, m := range club.Members {
		ids = append(ids, m.UserID)
	}
	for _, a := range club.Admins {
		ids = append(ids, a.UserID)
	}
	users, err := s.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	roster := &model.MemberRoster{
		Members: make([]model.MemberEntry, 0, len(club.Members)),
		Admins:  make([]model.AdminEntry, 0, len(club.Admins)),
	}
	for _, m := range club.Members {
		u, ok := users[m.UserID]
		if !ok || m.Status != model.MemberStatusActive {
			continue
		}
		roster.Members = append(roster.Members, model.MemberEntry{User: u, Role: m.Role, Status: m.Status, JoinedAt: m.JoinedAt})
	}
	for _, a := range club.Admins {
		if u, ok := users[a.UserID]; ok {
			roster.Admins = append(roster.Admins, model.AdminEntry{User: u, Role: a.Role, AppointedAt: a.AppointedAt})
		}
	}
	roster.Total = club.ActiveMembersCount()
	return roster, nil
}

// PendingRequests lists join requests awaiting approval
func (s *ClubService) PendingRequests(ctx context.Context, actor *model.User, clubID string) ([]model.PendingEntry, error) {
	club, err := s.loadClub(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if d := authz.Can(actor, authz.ActionReviewRequests, club); !d.Allowed {
		return nil, denied(d)
	}

	ids := make([]string, 0, len(club.PendingRequests))
	for _, r := range club.PendingRequests {
		ids = append(ids, r.UserID)
	}
	users, err := s.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]model.PendingEntry, 0, len(club.PendingRequests))
	for _, r := range club.PendingRequests {
		u, ok := users[r.UserID]
		if !ok {
			u = model.UserSummary{ID: r.UserID}
		}
		entries = append(entries, model.PendingEntry{User: u, Message: r.Message, RequestedAt: r.RequestedAt})
	}
	return entries, nil
}

// ClubEvents returns the club's published and ongoing events by start time
func (s *ClubService) ClubEvents(ctx context.Context, viewerID, clubID string) ([]*model.EventView, error) {
	if _, err := s.loadClub(ctx, clubID); err != nil {
		return nil, err
	}
	events, err := retryRead(ctx, func() ([]*model.Event, error) { return s.events.ListByClub(ctx, clubID) })
	if err != nil {
		return nil, err
	}

	now := s.now()
	views := make([]*model.EventView, 0, len(events))
	for _, e := range events {
		if e.Status.AcceptsRSVPs() {
			views = append(views, model.NewEventView(e, now, viewerID))
		}
	}
	return views, nil
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
