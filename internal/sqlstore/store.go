// Package sqlstore persists the club, event and user aggregates in SQL.
//
// Each aggregate is one row: the fields that queries filter or constrain on
// are real columns (name_key carries the case-insensitive unique club name),
// and the rest of the aggregate is a JSON body. Writes are compare-and-swap on
// the version column, and writes that touch several aggregates run in one
// transaction, so a roster change and its user back-reference commit together.
//
// Two drivers are supported: "sqlite" (modernc.org/sqlite, no cgo) and
// "postgres" (pgx through database/sql).
package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/topi314/gomigrate"
	"github.com/topi314/gomigrate/drivers/postgres"
	"github.com/topi314/gomigrate/drivers/sqlite"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/database"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Config selects the driver and data source
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Store is a SQL-backed aggregate store
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects, applies embedded migrations and returns the store
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driverName, dsn, err := resolveDriver(cfg)
	if err != nil {
		return nil, err
	}

	dbx, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrConnection, err)
	}

	switch {
	case cfg.Driver == DriverSQLite && strings.Contains(dsn, ":memory:"):
		// Every connection to :memory: is a separate database
		dbx.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		dbx.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		dbx.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	s := &Store{db: dbx, driver: cfg.Driver}
	if err := s.migrate(ctx); err != nil {
		_ = dbx.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return s, nil
}

func resolveDriver(cfg Config) (string, string, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return "", "", fmt.Errorf("storage dsn is required")
	}
	switch cfg.Driver {
	case DriverSQLite:
		if !strings.Contains(dsn, "?") {
			dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
		}
		return "sqlite", dsn, nil
	case DriverPostgres:
		return "pgx", dsn, nil
	default:
		return "", "", fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// Close closes the connection pool
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", database.ErrConnection, err)
	}
	return nil
}

// Users returns the user store
func (s *Store) Users() *UserStore { return &UserStore{s: s} }

// Clubs returns the club store
func (s *Store) Clubs() *ClubStore { return &ClubStore{s: s} }

// Events returns the event store
func (s *Store) Events() *EventStore { return &EventStore{s: s} }

// migrate applies the embedded migrations the database has not seen yet
func (s *Store) migrate(ctx context.Context) error {
	var err error
	switch s.driver {
	case DriverPostgres:
		err = gomigrate.Migrate(ctx, s.db, postgres.New, migrations)
	default:
		err = gomigrate.Migrate(ctx, s.db, sqlite.New, migrations)
	}
	if err != nil {
		return err
	}
	slog.Debug("migrations applied", slog.String("driver", s.driver))
	return nil
}

// withTx runs fn in a transaction, committing only if fn succeeds
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrapErr("commit", err)
	}
	return nil
}

// casExec runs a named compare-and-swap update and reports a conflict when no row matched
func casExec(ctx context.Context, tx *sqlx.Tx, query string, arg interface{}) error {
	res, err := tx.NamedExecContext(ctx, query, arg)
	if err != nil {
		return wrapErr("update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("update", err)
	}
	if n == 0 {
		return database.ErrVersionConflict
	}
	return nil
}

// wrapErr maps driver errors onto the storage sentinels
func wrapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return database.ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %s: %v", database.ErrDuplicate, op, err)
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone), isBusy(err):
		return fmt.Errorf("%w: %s: %v", database.ErrConnection, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%w: %s: %v", database.ErrQuery, op, err)
	}
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isBusy(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xff == sqlite3lib.SQLITE_BUSY
	}
	return false
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// refList encodes ids as ",a,b," so a single LIKE finds one of them
func refList(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return "," + strings.Join(ids, ",") + ","
}

func refPattern(id string) string {
	return "%," + id + ",%"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches term anywhere in a lower-cased column
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}
