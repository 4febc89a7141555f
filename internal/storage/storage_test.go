package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/config"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
)

func TestOpen_SQLite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "campus.db")

	backend, err := Open(ctx, config.StorageConfig{
		Driver: config.DriverSQLite,
		SQL:    config.SQLConfig{DSN: dsn},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	assert.Equal(t, config.DriverSQLite, backend.Driver())
	require.NoError(t, backend.Ping(ctx))

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	u := &model.User{
		ID:          uuid.NewString(),
		Name:        "sam",
		Email:       "sam@college.test",
		Role:        model.UserRoleStudent,
		IsActive:    true,
		JoinedClubs: []model.ClubMembership{},
		AdminClubs:  []string{},
		EventRSVPs:  []model.EventRSVPRef{},
		CreatedOn:   now,
		UpdatedOn:   now,
	}
	require.NoError(t, backend.Users.Create(ctx, u))

	got, err := backend.Users.GetByEmail(ctx, "sam@college.test")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), config.StorageConfig{Driver: "mysql"})

	assert.ErrorContains(t, err, `unknown storage driver "mysql"`)
}

func TestOpen_SurrealDBUnreachable(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Open(ctx, config.StorageConfig{
		Driver: config.DriverSurrealDB,
		SurrealDB: config.SurrealDBConfig{
			Host:      "127.0.0.1",
			Port:      "1",
			Namespace: "campus",
			Database:  "main",
		},
	})

	assert.ErrorContains(t, err, "connect surrealdb")
}
