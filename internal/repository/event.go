package repository

import (
	"context"
	"fmt"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/database"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
)

const (
	createEventQuery = `
		CREATE type::thing('event', $uid) SET
			uid = $uid,
			club_id = $club_id,
			status = $status,
			category = $category,
			starts_at = $starts_at,
			search_text = $search_text,
			body = $body,
			version = 1
	`

	saveEventQuery = `
		LET $matched = (UPDATE type::thing('event', $uid) SET
			status = $status,
			category = $category,
			starts_at = $starts_at,
			search_text = $search_text,
			body = $body,
			version = version + 1
		WHERE version = $version RETURN id);
	` + casGuard

	checkClubVersionQuery = `
		LET $matched = (SELECT id FROM type::thing('club', $uid) WHERE version = $version);
	` + casGuard

	deleteEventQuery = `
		LET $matched = (DELETE type::thing('event', $uid) WHERE version = $version RETURN BEFORE);
	` + casGuard
)

// EventRepository handles event data access
type EventRepository struct {
	db database.Database
}

// NewEventRepository creates a new event repository
func NewEventRepository(db database.Database) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts the event and saves the owning club, which must already
// carry the new event reference.
func (r *EventRepository) Create(ctx context.Context, event *model.Event, club *model.Club) error {
	vars, err := eventVars(event)
	if err != nil {
		return err
	}
	vars["club_id"] = event.ClubID

	err = WithTransaction(ctx, r.db, func(tx database.Transaction) error {
		if err := tx.Execute(ctx, createEventQuery, vars); err != nil {
			return err
		}
		return saveClubTx(ctx, tx, club)
	})
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	event.Version = 1
	club.Version++
	return nil
}

// GetByID returns nil, nil when the event does not exist
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	events, err := r.many(ctx, `SELECT * FROM type::thing('event', $uid)`, map[string]interface{}{"uid": id})
	if err != nil || len(events) == 0 {
		return nil, err
	}
	return events[0], nil
}

// GetByIDs returns the events that exist in start order. Missing ids are skipped.
func (r *EventRepository) GetByIDs(ctx context.Context, ids []string) ([]*model.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.many(ctx, `SELECT * FROM event WHERE uid IN $ids ORDER BY starts_at, uid`,
		map[string]interface{}{"ids": ids})
}

// ListByClub returns every event of the club in start order
func (r *EventRepository) ListByClub(ctx context.Context, clubID string) ([]*model.Event, error) {
	return r.many(ctx, `SELECT * FROM event WHERE club_id = $club_id ORDER BY starts_at, uid`,
		map[string]interface{}{"club_id": clubID})
}

// List returns one page of events in start order and the total number of matches
func (r *EventRepository) List(ctx context.Context, f model.EventFilter) ([]*model.Event, int, error) {
	f.Normalize()

	var conds []string
	vars := map[string]interface{}{
		"limit":  f.Limit,
		"offset": f.Offset(),
	}
	if f.ClubID != "" {
		conds = append(conds, "club_id = $club_id")
		vars["club_id"] = f.ClubID
	}
	if f.Category != "" {
		conds = append(conds, "category = $category")
		vars["category"] = f.Category
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		conds = append(conds, "status IN $statuses")
		vars["statuses"] = statuses
	}
	if f.UpcomingOnly && !f.From.IsZero() {
		conds = append(conds, "starts_at >= $from")
		vars["from"] = toMillis(f.From)
	}
	if f.Search != "" {
		conds = append(conds, "string::contains(search_text, $search)")
		vars["search"] = f.Search
	}
	where := whereClause(conds)

	query := `SELECT count() AS count FROM event` + where + ` GROUP ALL;
		SELECT * FROM event` + where + ` ORDER BY starts_at ASC, uid LIMIT $limit START $offset;`

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	total := extractCount(results, 0)
	events, err := parseEvents(statementRecords(results, 1))
	return events, total, err
}

// Save writes the event and any mirrored users in one transaction
func (r *EventRepository) Save(ctx context.Context, event *model.Event, users ...*model.User) error {
	err := WithTransaction(ctx, r.db, func(tx database.Transaction) error {
		vars, err := eventVars(event)
		if err != nil {
			return err
		}
		if err := tx.Execute(ctx, saveEventQuery, vars); err != nil {
			return fmt.Errorf("save event %s: %w", event.ID, err)
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

// SaveGuarded is Save that also requires club to still be at club.Version
func (r *EventRepository) SaveGuarded(ctx context.Context, event *model.Event, club *model.Club, users ...*model.User) error {
	err := WithTransaction(ctx, r.db, func(tx database.Transaction) error {
		guard := map[string]interface{}{"uid": club.ID, "version": club.Version}
		if err := tx.Execute(ctx, checkClubVersionQuery, guard); err != nil {
			return fmt.Errorf("check club %s: %w", club.ID, err)
		}
		vars, err := eventVars(event)
		if err != nil {
			return err
		}
		if err := tx.Execute(ctx, saveEventQuery, vars); err != nil {
			return fmt.Errorf("save event %s: %w", event.ID, err)
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

// Delete removes the event, saves the club without its reference and saves
// the scrubbed users. club may be nil when the owner is already gone.
func (r *EventRepository) Delete(ctx context.Context, event *model.Event, club *model.Club, users ...*model.User) error {
	err := WithTransaction(ctx, r.db, func(tx database.Transaction) error {
		vars := map[string]interface{}{"uid": event.ID, "version": event.Version}
		if err := tx.Execute(ctx, deleteEventQuery, vars); err != nil {
			return err
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

func (r *EventRepository) many(ctx context.Context, query string, vars map[string]interface{}) ([]*model.Event, error) {
	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return parseEvents(statementRecords(results, 0))
}

func parseEvents(rows []map[string]interface{}) ([]*model.Event, error) {
	events := make([]*model.Event, 0, len(rows))
	for _, rec := range rows {
		var e model.Event
		version, err := decodeBody(rec, &e)
		if err != nil {
			return nil, err
		}
		e.Version = version
		events = append(events, &e)
	}
	return events, nil
}

func eventVars(e *model.Event) (map[string]interface{}, error) {
	body, err := encodeBody(e)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return map[string]interface{}{
		"uid":         e.ID,
		"status":      string(e.Status),
		"category":    e.Category,
		"starts_at":   toMillis(e.Date),
		"search_text": e.SearchText(),
		"body":        body,
		"version":     e.Version,
	}, nil
}
