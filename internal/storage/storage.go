// Package storage opens the aggregate store selected by configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/config"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/database"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/repository"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/service"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/sqlstore"
)

// Backend is an open aggregate store
type Backend struct {
	Users  service.UserRepository
	Clubs  service.ClubRepository
	Events service.EventRepository

	driver string
	ping   func(ctx context.Context) error
	close  func() error
}

// Open connects to the configured driver and prepares its schema
func Open(ctx context.Context, cfg config.StorageConfig) (*Backend, error) {
	switch cfg.Driver {
	case config.DriverSurrealDB:
		return openSurrealDB(ctx, cfg.SurrealDB)
	case config.DriverSQLite, config.DriverPostgres:
		return openSQL(ctx, cfg.Driver, cfg.SQL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func openSurrealDB(ctx context.Context, cfg config.SurrealDBConfig) (*Backend, error) {
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Host,
		Port:      cfg.Port,
		User:      cfg.User,
		Password:  cfg.Password,
		Namespace: cfg.Namespace,
		Database:  cfg.Database,
	})
	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect surrealdb: %w", err)
	}
	if err := repository.Bootstrap(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap surrealdb: %w", err)
	}

	slog.Info("connected to database",
		slog.String("driver", config.DriverSurrealDB),
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Database),
	)
	return &Backend{
		Users:  repository.NewUserRepository(db),
		Clubs:  repository.NewClubRepository(db),
		Events: repository.NewEventRepository(db),
		driver: config.DriverSurrealDB,
		ping:   db.Ping,
		close:  db.Close,
	}, nil
}

func openSQL(ctx context.Context, driver string, cfg config.SQLConfig) (*Backend, error) {
	store, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:          driver,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	slog.Info("connected to database", slog.String("driver", driver))
	return &Backend{
		Users:  store.Users(),
		Clubs:  store.Clubs(),
		Events: store.Events(),
		driver: driver,
		ping:   store.Ping,
		close:  store.Close,
	}, nil
}

// Driver names the backend in use
func (b *Backend) Driver() string {
	return b.driver
}

// Ping reports whether the backend is reachable
func (b *Backend) Ping(ctx context.Context) error {
	return b.ping(ctx)
}

// Close releases the connection
func (b *Backend) Close() error {
	return b.close()
}
