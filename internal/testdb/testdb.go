// Package testdb connects integration tests to a real PostgreSQL database.
//
// Tests call Open, which skips the test when no database is configured, so
// the same test files run locally without postgres and in CI with it:
//
//	db := testdb.Open(t)
//	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//		store := postgres.NewPostgresReviewStateStore(tx, nil)
//		...
//	})
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/phrazzld/verbdrill/internal/platform/postgres"
)

// Environment variables consulted for the test database, in order.
const (
	EnvTestDatabaseURL = "VERBDRILL_TEST_DB_URL"
	EnvDatabaseURL     = "DATABASE_URL"
)

// DatabaseURL returns the configured test database URL, or "" when none is set.
func DatabaseURL() string {
	for _, name := range []string{EnvTestDatabaseURL, EnvDatabaseURL} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// MaskURL hides the password in a database URL for logging.
func MaskURL(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "<unparseable database url>"
	}
	return u.Redacted()
}

// Open connects to the test database, applies migrations and closes the
// connection when the test ends. It skips t when no database is configured.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := DatabaseURL()
	if dbURL == "" {
		t.Skipf("%s or %s not set", EnvTestDatabaseURL, EnvDatabaseURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Open(ctx, dbURL, 10, nil)
	if err != nil {
		t.Fatalf("failed to connect to test database %s: %v", MaskURL(dbURL), err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close test database: %v", err)
		}
	})

	if err := postgres.Migrate(ctx, db, "up", nil); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// WithTx runs fn inside a transaction that is always rolled back, so tests
// can write freely without affecting each other.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}
