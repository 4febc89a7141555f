// Package database provides the SurrealDB access layer for CampusConnect.
//
// The Database interface abstracts SurrealDB so repositories can be tested and
// swapped independently of the driver.
//
// # Interface Design
//
// The Database interface provides three query methods:
//   - Query: Returns one wrapped result per statement
//   - QueryOne: Returns the first record of the first statement
//   - Execute: No return value (for CREATE/UPDATE/DELETE mutations)
//
// # Transaction Support
//
// Transactions are BATCH-BASED, not connection-level. Statements accumulate in
// memory and are sent as one BEGIN TRANSACTION / COMMIT TRANSACTION block.
// A statement that THROWs aborts the whole block, which is how repositories
// implement compare-and-swap writes:
//
//	LET $r = (UPDATE type::record($id) SET ... WHERE version = $version);
//	IF array::len($r) = 0 { THROW "version conflict" };
//
// # Error Handling
//
// Statement failures are classified into sentinels so callers never match on
// driver messages:
//
//	if errors.Is(err, database.ErrVersionConflict) {
//	    // reload and retry the whole read-validate-write cycle
//	}
package database

import (
	"context"
	"errors"
)

// Standard errors for database operations.
// Use errors.Is() to check these error types in calling code.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique index violation (e.g. a taken club name).
	ErrDuplicate = errors.New("duplicate record")

	// ErrConnection indicates a failure to connect to or communicate with the database.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a query execution failure (syntax error, invalid reference, etc.).
	ErrQuery = errors.New("query error")

	// ErrVersionConflict indicates a compare-and-swap write lost against a concurrent writer.
	ErrVersionConflict = errors.New("version conflict")
)

// Database defines the interface for database operations
type Database interface {
	// Connection management
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query executes a query and returns results
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)

	// QueryOne executes a query and returns a single result
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)

	// Execute runs a query without returning results (for mutations)
	Execute(ctx context.Context, query string, vars map[string]interface{}) error

	// Transaction support
	BeginTx(ctx context.Context) (Transaction, error)
}

// Transaction accumulates statements until Commit
type Transaction interface {
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
	Commit() error
	Rollback() error
}

// Config holds database configuration
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}
