// Package postgres provides the PostgreSQL implementation of
// store.ReviewStateStore, the embedded schema migrations, and the mapping of
// driver errors to store errors.
package postgres
