package service

import (
	"context"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
)

// Stores return nil, nil for a missing id. Writes are compare-and-swap on the
// aggregate's Version and fail with database.ErrVersionConflict when another
// writer got there first; multi-aggregate writes commit together or not at all.

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*model.User, error)
	Save(ctx context.Context, user *model.User) error
	ListReferencing(ctx context.Context, clubID string, eventIDs []string) ([]*model.User, error)
	ListAfter(ctx context.Context, afterID string, limit int) ([]*model.User, error)
}

// ClubRepository defines the interface for club storage
type ClubRepository interface {
	Create(ctx context.Context, club *model.Club, founder *model.User) error
	GetByID(ctx context.Context, id string) (*model.Club, error)
	GetByIDs(ctx context.Context, ids []string) ([]*model.Club, error)
	List(ctx context.Context, filter model.ClubFilter) ([]*model.Club, int, error)
	Save(ctx context.Context, club *model.Club, users ...*model.User) error
	Delete(ctx context.Context, club *model.Club, users ...*model.User) error
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *model.Event, club *model.Club) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	GetByIDs(ctx context.Context, ids []string) ([]*model.Event, error)
	ListByClub(ctx context.Context, clubID string) ([]*model.Event, error)
	List(ctx context.Context, filter model.EventFilter) ([]*model.Event, int, error)
	Save(ctx context.Context, event *model.Event, users ...*model.User) error
	// SaveGuarded is Save that fails with database.ErrVersionConflict when
	// club has moved past club.Version
	SaveGuarded(ctx context.Context, event *model.Event, club *model.Club, users ...*model.User) error
	Delete(ctx context.Context, event *model.Event, club *model.Club, users ...*model.User) error
}
