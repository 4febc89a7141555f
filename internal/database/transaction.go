package database

// Batch transactions
//
// AtomicBatch is the pattern repositories use for multi-record writes:
//
//	batch := NewAtomicBatch()
//	batch.Add(casUpdateClub, clubVars)
//	batch.Add(casUpdateUser, userVars)
//	batch.Execute(ctx, db) // all or nothing
//
// Statements written independently tend to reuse names like $id and
// $version, so TxBuilder rewrites each statement's variables into a private
// namespace ($id -> $v1_id) before joining them.

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// TxBuilder builds atomic transaction queries with automatic variable namespacing
type TxBuilder struct {
	statements []string
	vars       map[string]interface{}
	varCounter int
}

// NewTxBuilder creates a new transaction builder
func NewTxBuilder() *TxBuilder {
	return &TxBuilder{
		vars: make(map[string]interface{}),
	}
}

// Add appends a statement, renaming its bound variables so they cannot collide
// with variables of other statements. Returns the old-to-new name mapping.
func (tb *TxBuilder) Add(query string, vars map[string]interface{}) map[string]string {
	mapping := make(map[string]string, len(vars))
	rewritten := query

	for name, value := range vars {
		tb.varCounter++
		renamed := fmt.Sprintf("v%d_%s", tb.varCounter, name)

		// Word boundary keeps $club from matching inside $club_id
		pattern := regexp.MustCompile(`\$` + regexp.QuoteMeta(name) + `\b`)
		rewritten = pattern.ReplaceAllLiteralString(rewritten, "$"+renamed)

		tb.vars[renamed] = value
		mapping[name] = renamed
	}

	tb.statements = append(tb.statements, rewritten)
	return mapping
}

// AddRaw adds a raw statement without variable substitution
func (tb *TxBuilder) AddRaw(query string) {
	tb.statements = append(tb.statements, query)
}

// Len returns the number of statements added so far
func (tb *TxBuilder) Len() int {
	return len(tb.statements)
}

// Build returns the complete transaction query and merged variables
func (tb *TxBuilder) Build() (string, map[string]interface{}) {
	if len(tb.statements) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range tb.statements {
		sb.WriteString(strings.TrimSpace(stmt))
		if !strings.HasSuffix(strings.TrimSpace(stmt), ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	return sb.String(), tb.vars
}

// ExecuteTransaction executes a transaction built with TxBuilder
func ExecuteTransaction(ctx context.Context, db Database, tb *TxBuilder) ([]interface{}, error) {
	query, vars := tb.Build()
	if query == "" {
		return nil, nil
	}

	return db.Query(ctx, query, vars)
}

// AtomicBatch provides a fluent API for statements that must succeed together
type AtomicBatch struct {
	builder *TxBuilder
}

// NewAtomicBatch creates a new atomic batch
func NewAtomicBatch() *AtomicBatch {
	return &AtomicBatch{builder: NewTxBuilder()}
}

// Add adds a query to the batch
func (ab *AtomicBatch) Add(query string, vars map[string]interface{}) *AtomicBatch {
	ab.builder.Add(query, vars)
	return ab
}

// Execute runs all queries as a single transaction
func (ab *AtomicBatch) Execute(ctx context.Context, db Database) error {
	_, err := ExecuteTransaction(ctx, db, ab.builder)
	return err
}

// Len returns the number of queries in the batch
func (ab *AtomicBatch) Len() int {
	return ab.builder.Len()
}
