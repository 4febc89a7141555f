package repository

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/database"
)

//go:embed schema/*.surql
var schemaFiles embed.FS

// Schema returns the schema scripts in apply order
func Schema() ([]string, error) {
	names, err := fs.Glob(schemaFiles, "schema/*.surql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	scripts := make([]string, 0, len(names))
	for _, name := range names {
		content, err := fs.ReadFile(schemaFiles, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		scripts = append(scripts, string(content))
	}
	return scripts, nil
}

// Bootstrap defines the tables and unique indexes. Every statement is
// IF NOT EXISTS, so it runs on each start.
func Bootstrap(ctx context.Context, db database.Database) error {
	scripts, err := Schema()
	if err != nil {
		return err
	}
	for i, script := range scripts {
		if err := db.Execute(ctx, script, nil); err != nil {
			return fmt.Errorf("apply schema %d: %w", i+1, err)
		}
	}
	slog.Debug("surrealdb schema applied", slog.Int("scripts", len(scripts)))
	return nil
}
