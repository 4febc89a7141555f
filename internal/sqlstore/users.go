package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
)

type userRow struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	Version      int    `db:"version"`
	ClubRefs     string `db:"club_refs"`
	EventRefs    string `db:"event_refs"`
	CreatedOn    int64  `db:"created_on"`
	Body         string `db:"body"`
}

const userColumns = `id, email, password_hash, version, club_refs, event_refs, created_on, body`

func newUserRow(u *model.User) (userRow, error) {
	body, err := json.Marshal(u)
	if err != nil {
		return userRow{}, fmt.Errorf("encode user: %w", err)
	}

	clubIDs := make([]string, 0, len(u.JoinedClubs)+len(u.AdminClubs))
	for _, m := range u.JoinedClubs {
		clubIDs = append(clubIDs, m.ClubID)
	}
	clubIDs = append(clubIDs, u.AdminClubs...)
	eventIDs := make([]string, 0, len(u.EventRSVPs))
	for _, r := range u.EventRSVPs {
		eventIDs = append(eventIDs, r.EventID)
	}

	return userRow{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Version:      u.Version,
		ClubRefs:     refList(clubIDs),
		EventRefs:    refList(eventIDs),
		CreatedOn:    toMillis(u.CreatedOn),
		Body:         string(body),
	}, nil
}

func (r userRow) toModel() (*model.User, error) {
	var u model.User
	if err := json.Unmarshal([]byte(r.Body), &u); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", r.ID, err)
	}
	u.PasswordHash = r.PasswordHash
	u.Version = r.Version
	return &u, nil
}

func usersFromRows(rows []userRow) ([]*model.User, error) {
	users := make([]*model.User, 0, len(rows))
	for _, row := range rows {
		u, err := row.toModel()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// UserStore persists user accounts
type UserStore struct {
	s *Store
}

// Create inserts a new user at version 1. A taken email returns database.ErrDuplicate.
func (us *UserStore) Create(ctx context.Context, u *model.User) error {
	u.Version = 1
	row, err := newUserRow(u)
	if err != nil {
		return err
	}
	_, err = us.s.db.NamedExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES (:id, :email, :password_hash, :version, :club_refs, :event_refs, :created_on, :body)`, row)
	if err != nil {
		u.Version = 0
		return wrapErr("create user", err)
	}
	return nil
}

// GetByID returns nil, nil when the user does not exist
func (us *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	var row userRow
	err := us.s.db.GetContext(ctx, &row, us.s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get user", err)
	}
	return row.toModel()
}

// GetByEmail looks up a user by normalized email, nil, nil when absent
func (us *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var row userRow
	err := us.s.db.GetContext(ctx, &row, us.s.db.Rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`),
		model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get user by email", err)
	}
	return row.toModel()
}

// GetByIDs returns the users that exist. Missing ids are skipped.
func (us *UserStore) GetByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build user query: %w", err)
	}
	var rows []userRow
	if err := us.s.db.SelectContext(ctx, &rows, us.s.db.Rebind(query), args...); err != nil {
		return nil, wrapErr("get users", err)
	}
	return usersFromRows(rows)
}

// Save writes the user if its version is unchanged since it was read
func (us *UserStore) Save(ctx context.Context, u *model.User) error {
	err := us.s.withTx(ctx, func(tx *sqlx.Tx) error {
		return saveUsersTx(ctx, tx, u)
	})
	if err != nil {
		return err
	}
	bumpUsers(u)
	return nil
}

// ListReferencing returns users whose back-references mention the club or any of the events
func (us *UserStore) ListReferencing(ctx context.Context, clubID string, eventIDs []string) ([]*model.User, error) {
	var (
		clauses []string
		args    []interface{}
	)
	if clubID != "" {
		clauses = append(clauses, "club_refs LIKE ?")
		args = append(args, refPattern(clubID))
	}
	for _, id := range eventIDs {
		clauses = append(clauses, "event_refs LIKE ?")
		args = append(args, refPattern(id))
	}
	if len(clauses) == 0 {
		return nil, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + strings.Join(clauses, " OR ") + ` ORDER BY id`
	var rows []userRow
	if err := us.s.db.SelectContext(ctx, &rows, us.s.db.Rebind(query), args...); err != nil {
		return nil, wrapErr("list referencing users", err)
	}
	return usersFromRows(rows)
}

// ListAfter pages through all users in id order
func (us *UserStore) ListAfter(ctx context.Context, afterID string, limit int) ([]*model.User, error) {
	var rows []userRow
	query := us.s.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id > ? ORDER BY id LIMIT ?`)
	if err := us.s.db.SelectContext(ctx, &rows, query, afterID, limit); err != nil {
		return nil, wrapErr("list users", err)
	}
	return usersFromRows(rows)
}

// saveUsersTx compare-and-swaps each user inside tx. Versions are bumped by the
// caller after commit so a rolled back write leaves the models untouched.
func saveUsersTx(ctx context.Context, tx *sqlx.Tx, users ...*model.User) error {
	for _, u := range users {
		row, err := newUserRow(u)
		if err != nil {
			return err
		}
		err = casExec(ctx, tx, `UPDATE users SET email = :email, password_hash = :password_hash,
			club_refs = :club_refs, event_refs = :event_refs, body = :body, version = version + 1
			WHERE id = :id AND version = :version`, row)
		if err != nil {
			return fmt.Errorf("save user %s: %w", u.ID, err)
		}
	}
	return nil
}

func bumpUsers(users ...*model.User) {
	for _, u := range users {
		u.Version++
	}
}
