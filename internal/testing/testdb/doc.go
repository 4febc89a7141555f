// Package testdb manages throwaway SurrealDB namespaces for tests.
//
// Point TEST_DB_HOST (and optionally TEST_DB_PORT, TEST_DB_USER,
// TEST_DB_PASSWORD) at a running server to enable the store tests:
//
//	TEST_DB_HOST=localhost go test ./internal/repository/...
//
// Each call to New gets its own namespace, so tests can run in parallel.
package testdb
