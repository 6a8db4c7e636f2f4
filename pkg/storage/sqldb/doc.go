// Package sqldb opens the relational store shared by the settings, templates
// and generation log packages.
//
// Three drivers are supported: "sqlite" (modernc.org/sqlite, pure Go),
// "sqlite3" (mattn/go-sqlite3, cgo) and "postgres" (pgx via database/sql).
// Queries are written with "?" placeholders and passed through Rebind.
package sqldb
