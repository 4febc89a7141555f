package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/database"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
)

const (
	// Mutations re-run read-validate-write from scratch on a version conflict
	maxWriteAttempts = 5
	// Reads retry connection faults only
	maxReadAttempts = 3
	retryBackoff    = 25 * time.Millisecond
)

// Config holds the collaborators shared by the domain services
type Config struct {
	Users    UserRepository
	Clubs    ClubRepository
	Events   EventRepository
	Locks    *Locks
	Now      func() time.Time
	Location *time.Location
	// PasswordCost is the bcrypt cost for new password hashes, 0 for the default
	PasswordCost int
}

// base carries the stores and helpers every domain service needs
type base struct {
	users  UserRepository
	clubs  ClubRepository
	events EventRepository
	locks  *Locks
	clock  func() time.Time
	loc    *time.Location
}

func newBase(cfg Config) base {
	b := base{
		users:  cfg.Users,
		clubs:  cfg.Clubs,
		events: cfg.Events,
		locks:  cfg.Locks,
		clock:  cfg.Now,
		loc:    cfg.Location,
	}
	if b.locks == nil {
		b.locks = NewLocks()
	}
	if b.clock == nil {
		b.clock = time.Now
	}
	if b.loc == nil {
		b.loc = time.UTC
	}
	return b
}

func (b *base) now() time.Time {
	return b.clock().In(b.loc)
}

// retryWrite runs fn until it stops failing with a version conflict.
// fn must reload everything it validates on each attempt.
func retryWrite(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, database.ErrVersionConflict) {
			return err
		}
		slog.Debug("version conflict, retrying",
			slog.String("op", op),
			slog.Int("attempt", attempt),
		)
		if err := sleepCtx(ctx, time.Duration(attempt)*retryBackoff); err != nil {
			return err
		}
	}
	slog.Warn("giving up after repeated version conflicts", slog.String("op", op), slog.String("error", err.Error()))
	return conflict(ErrConcurrentUpdate)
}

// retryRead retries fn on connection faults
func retryRead[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var (
		v   T
		err error
	)
	for attempt := 1; attempt <= maxReadAttempts; attempt++ {
		v, err = fn()
		if err == nil || !database.IsRetryable(err) {
			return v, err
		}
		if attempt < maxReadAttempts {
			if serr := sleepCtx(ctx, time.Duration(attempt)*retryBackoff); serr != nil {
				return v, serr
			}
		}
	}
	return v, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (b *base) loadClub(ctx context.Context, id string) (*model.Club, error) {
	club, err := retryRead(ctx, func() (*model.Club, error) { return b.clubs.GetByID(ctx, id) })
	if err != nil {
		return nil, fmt.Errorf("load club %s: %w", id, err)
	}
	if club == nil {
		return nil, notFound(ErrClubNotFound)
	}
	return club, nil
}

func (b *base) loadEvent(ctx context.Context, id string) (*model.Event, error) {
	event, err := retryRead(ctx, func() (*model.Event, error) { return b.events.GetByID(ctx, id) })
	if err != nil {
		return nil, fmt.Errorf("load event %s: %w", id, err)
	}
	if event == nil {
		return nil, notFound(ErrEventNotFound)
	}
	return event, nil
}

func (b *base) loadUser(ctx context.Context, id string) (*model.User, error) {
	user, err := retryRead(ctx, func() (*model.User, error) { return b.users.GetByID(ctx, id) })
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	if user == nil {
		return nil, notFound(ErrUserNotFound)
	}
	return user, nil
}

// loadEventWithClub loads an event and the club that owns it
func (b *base) loadEventWithClub(ctx context.Context, eventID string) (*model.Event, *model.Club, error) {
	event, err := b.loadEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	club, err := b.loadClub(ctx, event.ClubID)
	if err != nil {
		return nil, nil, err
	}
	return event, club, nil
}

// summaries resolves user ids to their public projection. Unknown ids are dropped.
func (b *base) summaries(ctx context.Context, ids []string) (map[string]model.UserSummary, error) {
	users, err := retryRead(ctx, func() ([]*model.User, error) { return b.users.GetByIDs(ctx, ids) })
	if err != nil {
		return nil, fmt.Errorf("resolve users: %w", err)
	}
	out := make(map[string]model.UserSummary, len(users))
	for _, u := range users {
		out[u.ID] = u.Summary()
	}
	return out, nil
}
