// Package storage persists subscribers and their alert-window preferences.
//
// One *Store wraps one *sql.DB for the whole process. Two drivers are
// supported:
//   - "sqlite": embedded database file (modernc.org/sqlite, no cgo)
//   - "postgres": pgx through database/sql
//
// Writes that must be atomic go through RunInTx.
package storage
