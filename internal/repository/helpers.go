package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/database"
)

// casGuard aborts the enclosing transaction when the preceding statement
// matched no record. classifyError turns the message into ErrVersionConflict.
const casGuard = `IF array::len($matched) = 0 { THROW "version conflict" }`

// statementRecords returns the records produced by statement n of a Query
func statementRecords(results []interface{}, n int) []map[string]interface{} {
	if n >= len(results) {
		return nil
	}
	resp, ok := results[n].(map[string]interface{})
	if !ok {
		return nil
	}
	rows, ok := resp["result"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		if m, ok := row.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

// extractCount reads a `SELECT count() AS count ... GROUP ALL` statement.
// SurrealDB returns no rows at all when nothing matched.
func extractCount(results []interface{}, n int) int {
	rows := statementRecords(results, n)
	if len(rows) == 0 {
		return 0
	}
	return getInt(rows[0], "count")
}

// decodeBody unmarshals the JSON body column into dst and restores the version
func decodeBody(rec map[string]interface{}, dst interface{}) (int, error) {
	body := getString(rec, "body")
	if body == "" {
		return 0, fmt.Errorf("%w: record %s has no body", database.ErrQuery, getString(rec, "uid"))
	}
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		return 0, fmt.Errorf("decode %s: %w", getString(rec, "uid"), err)
	}
	return getInt(rec, "version"), nil
}

func encodeBody(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// whereClause joins conditions, or returns "" when there are none
func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// WithTransaction executes fn within a batch transaction.
// If fn returns an error, the queued statements are discarded.
func WithTransaction(ctx context.Context, db database.Database, fn func(tx database.Transaction) error) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getInt extracts an int value from a map
func getInt(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case float32:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	}
	return 0
}
