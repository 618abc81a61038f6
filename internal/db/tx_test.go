package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })
	return &DB{SQL: sqldb, Driver: DriverSQLite}, mock
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commits when fn succeeds", func(t *testing.T) {
		d, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO clubs").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := WithTx(ctx, d, nil, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `INSERT INTO clubs (name) VALUES ($1)`, "chess")
			return err
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back and returns fn error unchanged", func(t *testing.T) {
		d, mock := newMock(t)
		sentinel := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO questions").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectRollback()

		err := WithTx(ctx, d, nil, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, `INSERT INTO questions (question_text) VALUES ($1)`, "q"); err != nil {
				return err
			}
			return sentinel
		})
		assert.ErrorIs(t, err, sentinel)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("surfaces commit failure", func(t *testing.T) {
		d, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errors.New("disk full"))

		err := WithTx(ctx, d, nil, func(tx *sql.Tx) error { return nil })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "commit")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		d, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.Panics(t, func() {
			_ = WithTx(ctx, d, nil, func(tx *sql.Tx) error { panic("bad") })
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil db", func(t *testing.T) {
		assert.Error(t, WithTx(ctx, nil, nil, func(tx *sql.Tx) error { return nil }))
	})
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", Placeholders(1, 0))
	assert.Equal(t, "$1", Placeholders(1, 1))
	assert.Equal(t, "$2,$3,$4", Placeholders(2, 3))
}

func TestParseDriver(t *testing.T) {
	for in, want := range map[string]Driver{
		"":         DriverSQLite,
		"sqlite3":  DriverSQLite,
		"Postgres": DriverPostgres,
		"pgx":      DriverPostgres,
	} {
		got, err := ParseDriver(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDriver("mysql")
	assert.Error(t, err)
}

func TestForUpdate(t *testing.T) {
	assert.Equal(t, " FOR UPDATE", DriverPostgres.ForUpdate())
	assert.Equal(t, "", DriverSQLite.ForUpdate())
}
