package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
)

const defaultRepairBatch = 200

// RepairReport summarizes one reference repair sweep
type RepairReport struct {
	Scanned  int
	Repaired int
}

// RepairService finds user back-references that no longer match the club and
// event rosters and removes them. Club deletion scrubs users after the club
// is gone, so a failed cascade leaves exactly this kind of dangling entry.
type RepairService struct {
	base
	batch int
}

// NewRepairService creates a new reference repair service. batch is the
// number of users read per page, 0 for the default.
func NewRepairService(cfg Config, batch int) *RepairService {
	if batch <= 0 {
		batch = defaultRepairBatch
	}
	return &RepairService{base: newBase(cfg), batch: batch}
}

// RepairReferences walks every user in id order and scrubs the references
// the target aggregates do not confirm.
func (s *RepairService) RepairReferences(ctx context.Context) (RepairReport, error) {
	var (
		report RepairReport
		after  string
	)
	for {
		users, err := retryRead(ctx, func() ([]*model.User, error) { return s.users.ListAfter(ctx, after, s.batch) })
		if err != nil {
			return report, fmt.Errorf("list users after %q: %w", after, err)
		}
		if len(users) == 0 {
			break
		}
		after = users[len(users)-1].ID
		report.Scanned += len(users)

		for _, u := range users {
			if !hasReferences(u) {
				continue
			}
			repaired, err := s.repairUser(ctx, u.ID)
			if err != nil {
				return report, err
			}
			if repaired {
				report.Repaired++
			}
		}

		if len(users) < s.batch {
			break
		}
	}

	if report.Repaired > 0 {
		slog.Info("dangling references repaired",
			slog.Int("scanned", report.Scanned),
			slog.Int("repaired", report.Repaired),
		)
	}
	return report, nil
}

// repairUser re-reads the user and its targets and drops unconfirmed references
func (s *RepairService) repairUser(ctx context.Context, userID string) (bool, error) {
	repaired := false
	err := retryWrite(ctx, "repair user", func() error {
		repaired = false
		user, err := retryRead(ctx, func() (*model.User, error) { return s.users.GetByID(ctx, userID) })
		if err != nil || user == nil {
			return err
		}

		memberships, admins, err := s.staleClubs(ctx, user)
		if err != nil {
			return err
		}
		events, err := s.staleEvents(ctx, user)
		if err != nil {
			return err
		}

		changed := false
		for _, id := range memberships {
			changed = user.RemoveMembership(id) || changed
		}
		for _, id := range admins {
			changed = user.RemoveAdminClub(id) || changed
		}
		for _, id := range events {
			changed = user.RemoveEventRSVP(id) || changed
		}
		if !changed {
			return nil
		}

		slog.Warn("removing dangling references",
			slog.String("user_id", user.ID),
			slog.Int("memberships", len(memberships)),
			slog.Int("admin_clubs", len(admins)),
			slog.Int("events", len(events)),
		)
		user.UpdatedOn = s.now()
		if err := s.users.Save(ctx, user); err != nil {
			return err
		}
		repaired = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("repair user %s: %w", userID, err)
	}
	return repaired, nil
}

// staleClubs returns the membership and admin references the clubs do not
// confirm, either because the club is gone or its roster no longer lists the user
func (s *RepairService) staleClubs(ctx context.Context, user *model.User) (memberships, admins []string, err error) {
	ids := make([]string, 0, len(user.JoinedClubs)+len(user.AdminClubs))
	for _, m := range user.JoinedClubs {
		ids = appendUnique(ids, m.ClubID)
	}
	for _, id := range user.AdminClubs {
		ids = appendUnique(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil, nil
	}

	clubs, err := retryRead(ctx, func() ([]*model.Club, error) { return s.clubs.GetByIDs(ctx, ids) })
	if err != nil {
		return nil, nil, fmt.Errorf("load clubs: %w", err)
	}
	byID := make(map[string]*model.Club, len(clubs))
	for _, c := range clubs {
		byID[c.ID] = c
	}

	for _, m := range user.JoinedClubs {
		if c, ok := byID[m.ClubID]; !ok || c.Member(user.ID) == nil {
			memberships = append(memberships, m.ClubID)
		}
	}
	for _, id := range user.AdminClubs {
		if c, ok := byID[id]; !ok || !c.IsAdmin(user.ID) {
			admins = append(admins, id)
		}
	}
	return memberships, admins, nil
}

// staleEvents returns the events the user RSVPed to that are gone or no
// longer hold the user's RSVP
func (s *RepairService) staleEvents(ctx context.Context, user *model.User) ([]string, error) {
	if len(user.EventRSVPs) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(user.EventRSVPs))
	for _, r := range user.EventRSVPs {
		ids = appendUnique(ids, r.EventID)
	}

	events, err := retryRead(ctx, func() ([]*model.Event, error) { return s.events.GetByIDs(ctx, ids) })
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	byID := make(map[string]*model.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}

	var stale []string
	for _, id := range ids {
		if e, ok := byID[id]; !ok || e.RSVPFor(user.ID) == nil {
			stale = append(stale, id)
		}
	}
	return stale, nil
}

func hasReferences(u *model.User) bool {
	return len(u.JoinedClubs) > 0 || len(u.AdminClubs) > 0 || len(u.EventRSVPs) > 0
}

