// Package storage provides generation log backends: MemoryStorage for tests
// and SQLStorage for SQLite or Postgres through pkg/storage/sqldb.
package storage
