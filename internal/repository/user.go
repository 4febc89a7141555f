package repository

import (
	"context"
	"fmt"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/database"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
)

const (
	createUserQuery = `
		CREATE type::thing('user', $uid) SET
			uid = $uid,
			email = $email,
			password_hash = $password_hash,
			club_refs = $club_refs,
			event_refs = $event_refs,
			created_on = $created_on,
			body = $body,
			version = 1
	`

	saveUserQuery = `
		LET $matched = (UPDATE type::thing('user', $uid) SET
			email = $email,
			password_hash = $password_hash,
			club_refs = $club_refs,
			event_refs = $event_refs,
			body = $body,
			version = version + 1
		WHERE version = $version RETURN id);
	` + casGuard
)

// UserRepository handles user data access
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user at version 1. A taken email returns database.ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	vars, err := userVars(user)
	if err != nil {
		return err
	}
	vars["created_on"] = toMillis(user.CreatedOn)

	if err := r.db.Execute(ctx, createUserQuery, vars); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	user.Version = 1
	return nil
}

// GetByID returns nil, nil when the user does not exist
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.one(ctx, `SELECT * FROM type::thing('user', $uid)`, map[string]interface{}{"uid": id})
}

// GetByEmail retrieves a user by normalized email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.one(ctx, `SELECT * FROM user WHERE email = $email LIMIT 1`,
		map[string]interface{}{"email": model.NormalizeEmail(email)})
}

// GetByIDs returns the users that exist. Missing ids are skipped.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.many(ctx, `SELECT * FROM user WHERE uid IN $ids`, map[string]interface{}{"ids": ids})
}

// Save writes the user if its version is unchanged since it was read
func (r *UserRepository) Save(ctx context.Context, user *model.User) error {
	err := WithTransaction(ctx, r.db, func(tx database.Transaction) error {
		return saveUsersTx(ctx, tx, user)
	})
	if err != nil {
		return err
	}
	bumpUsers(user)
	return nil
}

// ListReferencing returns users whose back-references mention the club or any of the events
func (r *UserRepository) ListReferencing(ctx context.Context, clubID string, eventIDs []string) ([]*model.User, error) {
	var conds []string
	vars := map[string]interface{}{}
	if clubID != "" {
		conds = append(conds, "$club_id IN club_refs")
		vars["club_id"] = clubID
	}
	if len(eventIDs) > 0 {
		conds = append(conds, "event_refs CONTAINSANY $event_ids")
		vars["event_ids"] = eventIDs
	}
	if len(conds) == 0 {
		return nil, nil
	}

	query := `SELECT * FROM user WHERE ` + conds[0]
	if len(conds) > 1 {
		query += ` OR ` + conds[1]
	}
	return r.many(ctx, query+` ORDER BY uid`, vars)
}

// ListAfter pages through all users in id order
func (r *UserRepository) ListAfter(ctx context.Context, afterID string, limit int) ([]*model.User, error) {
	return r.many(ctx, `SELECT * FROM user WHERE uid > $after ORDER BY uid LIMIT $limit`,
		map[string]interface{}{"after": afterID, "limit": limit})
}

func (r *UserRepository) one(ctx context.Context, query string, vars map[string]interface{}) (*model.User, error) {
	users, err := r.many(ctx, query, vars)
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return users[0], nil
}

func (r *UserRepository) many(ctx context.Context, query string, vars map[string]interface{}) ([]*model.User, error) {
	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	rows := statementRecords(results, 0)
	users := make([]*model.User, 0, len(rows))
	for _, rec := range rows {
		u, err := parseUser(rec)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func parseUser(rec map[string]interface{}) (*model.User, error) {
	var u model.User
	version, err := decodeBody(rec, &u)
	if err != nil {
		return nil, err
	}
	u.Version = version
	// Kept out of the JSON body
	u.PasswordHash = getString(rec, "password_hash")
	return &u, nil
}

// userVars binds the indexed fields and the body of a user
func userVars(u *model.User) (map[string]interface{}, error) {
	body, err := encodeBody(u)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}

	clubRefs := make([]string, 0, len(u.JoinedClubs)+len(u.AdminClubs))
	for _, m := range u.JoinedClubs {
		clubRefs = append(clubRefs, m.ClubID)
	}
	clubRefs = append(clubRefs, u.AdminClubs...)
	eventRefs := make([]string, 0, len(u.EventRSVPs))
	for _, ref := range u.EventRSVPs {
		eventRefs = append(eventRefs, ref.EventID)
	}

	return map[string]interface{}{
		"uid":           u.ID,
		"email":         u.Email,
		"password_hash": u.PasswordHash,
		"club_refs":     clubRefs,
		"event_refs":    eventRefs,
		"body":          body,
		"version":       u.Version,
	}, nil
}

// saveUsersTx queues a compare-and-swap write per user. Versions are bumped by
// the caller after commit so a failed batch leaves the models untouched.
func saveUsersTx(ctx context.Context, tx database.Transaction, users ...*model.User) error {
	for _, u := range users {
		vars, err := userVars(u)
		if err != nil {
			return err
		}
		if err := tx.Execute(ctx, saveUserQuery, vars); err != nil {
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
