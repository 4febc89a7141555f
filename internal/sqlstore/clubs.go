package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/database"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
)

type clubRow struct {
	ID         string `db:"id"`
	NameKey    string `db:"name_key"`
	Version    int    `db:"version"`
	IsActive   bool   `db:"is_active"`
	Category   string `db:"category"`
	Department string `db:"department"`
	SearchText string `db:"search_text"`
	CreatedOn  int64  `db:"created_on"`
	Body       string `db:"body"`
}

const clubColumns = `id, name_key, version, is_active, category, department, search_text, created_on, body`

func newClubRow(c *model.Club) (clubRow, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return clubRow{}, fmt.Errorf("encode club: %w", err)
	}
	return clubRow{
		ID:         c.ID,
		NameKey:    c.NameKey,
		Version:    c.Version,
		IsActive:   c.IsActive,
		Category:   c.Category,
		Department: c.Department,
		SearchText: c.SearchText(),
		CreatedOn:  toMillis(c.CreatedOn),
		Body:       string(body),
	}, nil
}

func (r clubRow) toModel() (*model.Club, error) {
	var c model.Club
	if err := json.Unmarshal([]byte(r.Body), &c); err != nil {
		return nil, fmt.Errorf("decode club %s: %w", r.ID, err)
	}
	c.NameKey = r.NameKey
	c.Version = r.Version
	return &c, nil
}

func clubsFromRows(rows []clubRow) ([]*model.Club, error) {
	clubs := make([]*model.Club, 0, len(rows))
	for _, row := range rows {
		c, err := row.toModel()
		if err != nil {
			return nil, err
		}
		clubs = append(clubs, c)
	}
	return clubs, nil
}

// ClubStore persists clubs
type ClubStore struct {
	s *Store
}

// Create inserts the club and saves its founder's admin back-reference in one
// transaction. A taken name key returns database.ErrDuplicate.
func (cs *ClubStore) Create(ctx context.Context, club *model.Club, founder *model.User) error {
	club.Version = 1
	row, err := newClubRow(club)
	if err != nil {
		return err
	}

	err = cs.s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO clubs (`+clubColumns+`)
			VALUES (:id, :name_key, :version, :is_active, :category, :department, :search_text, :created_on, :body)`, row)
		if err != nil {
			return wrapErr("create club", err)
		}
		if founder == nil {
			return nil
		}
		return saveUsersTx(ctx, tx, founder)
	})
	if err != nil {
		club.Version = 0
		return err
	}
	if founder != nil {
		bumpUsers(founder)
	}
	return nil
}

// GetByID returns nil, nil when the club does not exist
func (cs *ClubStore) GetByID(ctx context.Context, id string) (*model.Club, error) {
	var row clubRow
	err := cs.s.db.GetContext(ctx, &row, cs.s.db.Rebind(`SELECT `+clubColumns+` FROM clubs WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get club", err)
	}
	return row.toModel()
}

// GetByIDs returns the clubs that exist. Missing ids are skipped.
func (cs *ClubStore) GetByIDs(ctx context.Context, ids []string) ([]*model.Club, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+clubColumns+` FROM clubs WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build club query: %w", err)
	}
	var rows []clubRow
	if err := cs.s.db.SelectContext(ctx, &rows, cs.s.db.Rebind(query), args...); err != nil {
		return nil, wrapErr("get clubs", err)
	}
	return clubsFromRows(rows)
}

// List returns one page of active clubs and the total number of matches
func (cs *ClubStore) List(ctx context.Context, f model.ClubFilter) ([]*model.Club, int, error) {
	f.Normalize()

	where := []string{"is_active = TRUE"}
	var args []interface{}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Department != "" {
		where = append(where, "department = ?")
		args = append(args, f.Department)
	}
	if f.Search != "" {
		where = append(where, `search_text LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(f.Search))
	}
	clause := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := cs.s.db.GetContext(ctx, &total, cs.s.db.Rebind(`SELECT COUNT(*) FROM clubs`+clause), args...); err != nil {
		return nil, 0, wrapErr("count clubs", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	order := " ORDER BY created_on DESC, id"
	switch {
	case f.Sort == model.ClubSortName && f.Ascending:
		order = " ORDER BY name_key ASC, id"
	case f.Sort == model.ClubSortName:
		order = " ORDER BY name_key DESC, id"
	case f.Ascending:
		order = " ORDER BY created_on ASC, id"
	}

	query := `SELECT ` + clubColumns + ` FROM clubs` + clause + order + ` LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset())
	var rows []clubRow
	if err := cs.s.db.SelectContext(ctx, &rows, cs.s.db.Rebind(query), args...); err != nil {
		return nil, 0, wrapErr("list clubs", err)
	}
	clubs, err := clubsFromRows(rows)
	return clubs, total, err
}

// Save writes the club and any mirrored users in one transaction. Every write is
// a compare-and-swap; one stale version aborts all of them with database.ErrVersionConflict.
func (cs *ClubStore) Save(ctx context.Context, club *model.Club, users ...*model.User) error {
	err := cs.s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := saveClubTx(ctx, tx, club); err != nil {
			return err
		}
		return saveUsersTx(ctx, tx, users...)
	})
	if err != nil {
		return err
	}
	club.Version++
	bumpUsers(users...)
	return nil
}

// Delete removes the club and every event it owns, and saves the scrubbed users
func (cs *ClubStore) Delete(ctx context.Context, club *model.Club, users ...*model.User) error {
	err := cs.s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM events WHERE club_id = ?`), club.ID); err != nil {
			return wrapErr("delete club events", err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM clubs WHERE id = ? AND version = ?`), club.ID, club.Version)
		if err != nil {
			return wrapErr("delete club", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return wrapErr("delete club", err)
		} else if n == 0 {
			return database.ErrVersionConflict
		}
		return saveUsersTx(ctx, tx, users...)
	})
	if err != nil {
		return err
	}
	bumpUsers(users...)
	return nil
}

func saveClubTx(ctx context.Context, tx *sqlx.Tx, club *model.Club) error {
	row, err := newClubRow(club)
	if err != nil {
		return err
	}
	err = casExec(ctx, tx, `UPDATE clubs SET name_key = :name_key, is_active = :is_active, category = :category,
		department = :department, search_text = :search_text, body = :body, version = version + 1
		WHERE id = :id AND version = :version`, row)
	if err != nil {
		return fmt.Errorf("save club %s: %w", club.ID, err)
	}
	return nil
}
