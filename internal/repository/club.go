package repository

import (
	"context"
	"fmt"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/database"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
)

const (
	createClubQuery = `
		CREATE type::thing('club', $uid) SET
			uid = $uid,
			name_key = $name_key,
			is_active = $is_active,
			category = $category,
			department = $department,
			search_text = $search_text,
			created_on = $created_on,
			body = $body,
			version = 1
	`

	saveClubQuery = `
		LET $matched = (UPDATE type::thing('club', $uid) SET
			name_key = $name_key,
			is_active = $is_active,
			category = $category,
			department = $department,
			search_text = $search_text,
			body = $body,
			version = version + 1
		WHERE version = $version RETURN id);
	` + casGuard

	deleteClubQuery = `
		DELETE event WHERE club_id = $uid;
		LET $matched = (DELETE type::thing('club', $uid) WHERE version = $version RETURN BEFORE);
	` + casGuard
)

// ClubRepository handles club data access
type ClubRepository struct {
	db database.Database
}

// NewClubRepository creates a new club repository
func NewClubRepository(db database.Database) *ClubRepository {
	return &ClubRepository{db: db}
}

// Create inserts the club and saves the founder's admin back-reference in one
// transaction. A taken name key returns database.ErrDuplicate.
func (r *ClubRepository) Create(ctx context.Context, club *model.Club, founder *model.User) error {
	vars, err := clubVars(club)
	if err != nil {
		return err
	}
	vars["created_on"] = toMillis(club.CreatedOn)

	err = WithTransaction(ctx, r.db, func(tx database.Transaction) error {
		if err := tx.Execute(ctx, createClubQuery, vars); err != nil {
			return err
		}
		if founder == nil {
			return nil
		}
		return saveUsersTx(ctx, tx, founder)
	})
	if err != nil {
		return fmt.Errorf("create club: %w", err)
	}
	club.Version = 1
	if founder != nil {
		bumpUsers(founder)
	}
	return nil
}

// GetByID returns nil, nil when the club does not exist
func (r *ClubRepository) GetByID(ctx context.Context, id string) (*model.Club, error) {
	clubs, err := r.many(ctx, `SELECT * FROM type::thing('club', $uid)`, map[string]interface{}{"uid": id})
	if err != nil || len(clubs) == 0 {
		return nil, err
	}
	return clubs[0], nil
}

// GetByIDs returns the clubs that exist. Missing ids are skipped.
func (r *ClubRepository) GetByIDs(ctx context.Context, ids []string) ([]*model.Club, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.many(ctx, `SELECT * FROM club WHERE uid IN $ids`, map[string]interface{}{"ids": ids})
}

// List returns one page of active clubs and the total number of matches
func (r *ClubRepository) List(ctx context.Context, f model.ClubFilter) ([]*model.Club, int, error) {
	f.Normalize()

	conds := []string{"is_active = true"}
	vars := map[string]interface{}{
		"limit":  f.Limit,
		"offset": f.Offset(),
	}
	if f.Category != "" {
		conds = append(conds, "category = $category")
		vars["category"] = f.Category
	}
	if f.Department != "" {
		conds = append(conds, "department = $department")
		vars["department"] = f.Department
	}
	if f.Search != "" {
		conds = append(conds, "string::contains(search_text, $search)")
		vars["search"] = f.Search
	}
	where := whereClause(conds)

	order := "created_on DESC, uid"
	switch {
	case f.Sort == model.ClubSortName && f.Ascending:
		order = "name_key ASC, uid"
	case f.Sort == model.ClubSortName:
		order = "name_key DESC, uid"
	case f.Ascending:
		order = "created_on ASC, uid"
	}

	query := `SELECT count() AS count FROM club` + where + ` GROUP ALL;
		SELECT * FROM club` + where + ` ORDER BY ` + order + ` LIMIT $limit START $offset;`

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, 0, fmt.Errorf("list clubs: %w", err)
	}
	total := extractCount(results, 0)
	clubs, err := parseClubs(statementRecords(results, 1))
	return clubs, total, err
}

// Save writes the club and any mirrored users in one transaction. One stale
// version aborts every write with database.ErrVersionConflict.
func (r *ClubRepository) Save(ctx context.Context, club *model.Club, users ...*model.User) error {
	err := WithTransaction(ctx, r.db, func(tx database.Transaction) error {
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
func (r *ClubRepository) Delete(ctx context.Context, club *model.Club, users ...*model.User) error {
	err := WithTransaction(ctx, r.db, func(tx database.Transaction) error {
		vars := map[string]interface{}{"uid": club.ID, "version": club.Version}
		if err := tx.Execute(ctx, deleteClubQuery, vars); err != nil {
			return err
		}
		return saveUsersTx(ctx, tx, users...)
	})
	if err != nil {
		return err
	}
	bumpUsers(users...)
	return nil
}

func (r *ClubRepository) many(ctx context.Context, query string, vars map[string]interface{}) ([]*model.Club, error) {
	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("query clubs: %w", err)
	}
	return parseClubs(statementRecords(results, 0))
}

func parseClubs(rows []map[string]interface{}) ([]*model.Club, error) {
	clubs := make([]*model.Club, 0, len(rows))
	for _, rec := range rows {
		var c model.Club
		version, err := decodeBody(rec, &c)
		if err != nil {
			return nil, err
		}
		c.Version = version
		c.NameKey = getString(rec, "name_key")
		clubs = append(clubs, &c)
	}
	return clubs, nil
}

func clubVars(c *model.Club) (map[string]interface{}, error) {
	body, err := encodeBody(c)
	if err != nil {
		return nil, fmt.Errorf("encode club: %w", err)
	}
	return map[string]interface{}{
		"uid":         c.ID,
		"name_key":    c.NameKey,
		"is_active":   c.IsActive,
		"category":    c.Category,
		"department":  c.Department,
		"search_text": c.SearchText(),
		"body":        body,
		"version":     c.Version,
	}, nil
}

func saveClubTx(ctx context.Context, tx database.Transaction, club *model.Club) error {
	vars, err := clubVars(club)
	if err != nil {
		return err
	}
	if err := tx.Execute(ctx, saveClubQuery, vars); err != nil {
		return fmt.Errorf("save club %s: %w", club.ID, err)
	}
	return nil
}
