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

type eventRow struct {
	ID         string `db:"id"`
	ClubID     string `db:"club_id"`
	Version    int    `db:"version"`
	Status     string `db:"status"`
	Category   string `db:"category"`
	StartsAt   int64  `db:"starts_at"`
	SearchText string `db:"search_text"`
	Body       string `db:"body"`
}

const eventColumns = `id, club_id, version, status, category, starts_at, search_text, body`

func newEventRow(e *model.Event) (eventRow, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return eventRow{}, fmt.Errorf("encode event: %w", err)
	}
	return eventRow{
		ID:         e.ID,
		ClubID:     e.ClubID,
		Version:    e.Version,
		Status:     string(e.Status),
		Category:   e.Category,
		StartsAt:   toMillis(e.Date),
		SearchText: e.SearchText(),
		Body:       string(body),
	}, nil
}

func (r eventRow) toModel() (*model.Event, error) {
	var e model.Event
	if err := json.Unmarshal([]byte(r.Body), &e); err != nil {
		return nil, fmt.Errorf("decode event %s: %w", r.ID, err)
	}
	e.Version = r.Version
	return &e, nil
}

func eventsFromRows(rows []eventRow) ([]*model.Event, error) {
	events := make([]*model.Event, 0, len(rows))
	for _, row := range rows {
		e, err := row.toModel()
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

// EventStore persists events
type EventStore struct {
	s *Store
}

// Create inserts the event and saves the owning club, which must already carry
// the new event reference.
func (es *EventStore) Create(ctx context.Context, event *model.Event, club *model.Club) error {
	event.Version = 1
	row, err := newEventRow(event)
	if err != nil {
		return err
	}

	err = es.s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO events (`+eventColumns+`)
			VALUES (:id, :club_id, :version, :status, :category, :starts_at, :search_text, :body)`, row)
		if err != nil {
			return wrapErr("create event", err)
		}
		return saveClubTx(ctx, tx, club)
	})
	if err != nil {
		event.Version = 0
		return err
	}
	club.Version++
	return nil
}

// GetByID returns nil, nil when the event does not exist
func (es *EventStore) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var row eventRow
	err := es.s.db.GetContext(ctx, &row, es.s.db.Rebind(`SELECT `+eventColumns+` FROM events WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get event", err)
	}
	return row.toModel()
}

// GetByIDs returns the events that exist. Missing ids are skipped.
func (es *EventStore) GetByIDs(ctx context.Context, ids []string) ([]*model.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+eventColumns+` FROM events WHERE id IN (?) ORDER BY starts_at`, ids)
	if err != nil {
		return nil, fmt.Errorf("build event query: %w", err)
	}
	var rows []eventRow
	if err := es.s.db.SelectContext(ctx, &rows, es.s.db.Rebind(query), args...); err != nil {
		return nil, wrapErr("get events", err)
	}
	return eventsFromRows(rows)
}

// ListByClub returns every event of the club in start order
func (es *EventStore) ListByClub(ctx context.Context, clubID string) ([]*model.Event, error) {
	var rows []eventRow
	query := es.s.db.Rebind(`SELECT ` + eventColumns + ` FROM events WHERE club_id = ? ORDER BY starts_at, id`)
	if err := es.s.db.SelectContext(ctx, &rows, query, clubID); err != nil {
		return nil, wrapErr("list club events", err)
	}
	return eventsFromRows(rows)
}

// List returns one page of events in start order and the total number of matches
func (es *EventStore) List(ctx context.Context, f model.EventFilter) ([]*model.Event, int, error) {
	f.Normalize()

	var (
		where []string
		args  []interface{}
	)
	if f.ClubID != "" {
		where = append(where, "club_id = ?")
		args = append(args, f.ClubID)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, "status IN (?)")
		args = append(args, statuses)
	}
	if f.UpcomingOnly && !f.From.IsZero() {
		where = append(where, "starts_at >= ?")
		args = append(args, toMillis(f.From))
	}
	if f.Search != "" {
		where = append(where, `search_text LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(f.Search))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	countQuery, countArgs, err := sqlx.In(`SELECT COUNT(*) FROM events`+clause, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("build event count: %w", err)
	}
	var total int
	if err := es.s.db.GetContext(ctx, &total, es.s.db.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, wrapErr("count events", err)
	}
	if total == 0 {
		return nil, 0, nil
	}

	query, queryArgs, err := sqlx.In(`SELECT `+eventColumns+` FROM events`+clause+
		` ORDER BY starts_at ASC, id LIMIT ? OFFSET ?`, append(args, f.Limit, f.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("build event query: %w", err)
	}
	var rows []eventRow
	if err := es.s.db.SelectContext(ctx, &rows, es.s.db.Rebind(query), queryArgs...); err != nil {
		return nil, 0, wrapErr("list events", err)
	}
	events, err := eventsFromRows(rows)
	return events, total, err
}

// Save writes the event and any mirrored users in one transaction
func (es *EventStore) Save(ctx context.Context, event *model.Event, users ...*model.User) error {
	err := es.s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := saveEventTx(ctx, tx, event); err != nil {
			return err
		}
		return saveUsersTx(ctx, tx, users...)
	})
	if err != nil {
		return err
	}
	event.Version++
	bumpUsers(users...)
	return nil
}

// SaveGuarded is Save that also requires club to still be at club.Version.
// The club row is touched without change, so a concurrent club write either
// waits for this transaction or makes it fail with database.ErrVersionConflict.
func (es *EventStore) SaveGuarded(ctx context.Context, event *model.Event, club *model.Club, users ...*model.User) error {
	err := es.s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE clubs SET version = version WHERE id = ? AND version = ?`), club.ID, club.Version)
		if err != nil {
			return wrapErr("check club version", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return wrapErr("check club version", err)
		} else if n == 0 {
			return database.ErrVersionConflict
		}
		if err := saveEventTx(ctx, tx, event); err != nil {
			return err
		}
		return saveUsersTx(ctx, tx, users...)
	})
	if err != nil {
		return err
	}
	event.Version++
	bumpUsers(users...)
	return nil
}

// Delete removes the event, saves the club without its reference and saves the
// scrubbed users. club may be nil when the owner is already gone.
func (es *EventStore) Delete(ctx context.Context, event *model.Event, club *model.Club, users ...*model.User) error {
	err := es.s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM events WHERE id = ? AND version = ?`), event.ID, event.Version)
		if err != nil {
			return wrapErr("delete event", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return wrapErr("delete event", err)
		} else if n == 0 {
			return database.ErrVersionConflict
		}
		if club != nil {
			if err := saveClubTx(ctx, tx, club); err != nil {
				return err
			}
		}
		return saveUsersTx(ctx, tx, users...)
	})
	if err != nil {
		return err
	}
	if club != nil {
		club.Version++
	}
	bumpUsers(users...)
	return nil
}

func saveEventTx(ctx context.Context, tx *sqlx.Tx, event *model.Event) error {
	row, err := newEventRow(event)
	if err != nil {
		return err
	}
	err = casExec(ctx, tx, `UPDATE events SET status = :status, category = :category, starts_at = :starts_at,
		search_text = :search_text, body = :body, version = version + 1
		WHERE id = :id AND version = :version`, row)
	if err != nil {
		return fmt.Errorf("save event %s: %w", event.ID, err)
	}
	return nil
}
