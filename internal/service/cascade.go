package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
)

// scrubConcurrency bounds parallel user writes during a cascade
const scrubConcurrency = 8

// scrubReferences removes the club and the events from every user that still
// points at them. Each user is a separate compare-and-swap write, so running
// it again after a partial failure only touches the users left over.
func (b *base) scrubReferences(ctx context.Context, clubID string, eventIDs []string) error {
	users, err := retryRead(ctx, func() ([]*model.User, error) {
		return b.users.ListReferencing(ctx, clubID, eventIDs)
	})
	if err != nil {
		return fmt.Errorf("list referencing users: %w", err)
	}
	if len(users) == 0 {
		return nil
	}

	clubs := map[string]bool{}
	if clubID != "" {
		clubs[clubID] = true
	}
	events := make(map[string]bool, len(eventIDs))
	for _, id := range eventIDs {
		events[id] = true
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scrubConcurrency)
	for _, u := range users {
		userID := u.ID
		g.Go(func() error {
			return retryWrite(gctx, "scrub user", func() error {
				fresh, err := b.users.GetByID(gctx, userID)
				if err != nil || fresh == nil {
					return err
				}
				if !scrubUser(fresh, clubs, events) {
					return nil
				}
				fresh.UpdatedOn = b.now()
				return b.users.Save(gctx, fresh)
			})
		})
	}
	if err := g.Wait(); err != nil {
		slog.Warn("reference cleanup incomplete",
			slog.String("club_id", clubID),
			slog.Int("events", len(eventIDs)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("scrub references: %w", err)
	}

	slog.Info("references removed",
		slog.String("club_id", clubID),
		slog.Int("users", len(users)),
	)
	return nil
}

// scrubUser drops back-references to the given clubs and events. Reports whether anything changed.
func scrubUser(u *model.User, clubs, events map[string]bool) bool {
	changed := false
	for id := range clubs {
		if u.RemoveMembership(id) {
			changed = true
		}
		if u.RemoveAdminClub(id) {
			changed = true
		}
	}
	for id := range events {
		if u.RemoveEventRSVP(id) {
			changed = true
		}
	}
	return changed
}
