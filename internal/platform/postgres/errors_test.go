package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/verbdrill/internal/store"
)

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "review_states",
		ColumnName:     "ease_factor",
		ConstraintName: "review_states_ease_factor_check",
	}
}

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, r.err }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestMapError(t *testing.T) {
	t.Parallel()

	plain := errors.New("connection reset")

	tests := []struct {
		name   string
		err    error
		target error
	}{
		{name: "no rows", err: sql.ErrNoRows, target: store.ErrNotFound},
		{name: "unique violation", err: newPgError(uniqueViolationCode), target: store.ErrDuplicate},
		{name: "check violation", err: newPgError(checkViolationCode), target: store.ErrInvalidEntity},
		{name: "not null violation", err: newPgError(notNullViolationCode), target: store.ErrInvalidEntity},
		{name: "serialization failure", err: newPgError(serializationFailureCode), target: store.ErrTransactionFailed},
		{name: "wrapped check violation", err: fmt.Errorf("exec: %w", newPgError(checkViolationCode)), target: store.ErrInvalidEntity},
		{name: "unmapped error", err: plain, target: plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, MapError(tt.err), tt.target)
		})
	}

	assert.NoError(t, MapError(nil))
}

func TestViolationPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(newPgError(uniqueViolationCode)))
	assert.False(t, IsUniqueViolation(newPgError(checkViolationCode)))
	assert.True(t, IsCheckConstraintViolation(fmt.Errorf("wrapped: %w", newPgError(checkViolationCode))))
	assert.False(t, IsCheckConstraintViolation(errors.New("other")))
}

func TestRowsAffected(t *testing.T) {
	t.Parallel()

	n, err := rowsAffected(fakeResult{rows: 3})
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = rowsAffected(fakeResult{err: errors.New("driver")})
	assert.Error(t, err)

	_, err = rowsAffected(nil)
	assert.Error(t, err)
}

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	entries, err := migrationsFS.ReadDir(migrationsDir)
	assert.NoError(t, err)
	assert.NotEmpty(t, entries)

	data, err := migrationsFS.ReadFile(migrationsDir + "/00001_create_review_states.sql")
	assert.NoError(t, err)
	assert.Contains(t, string(data), "-- +goose Up")
	assert.Contains(t, string(data), "-- +goose Down")
}
