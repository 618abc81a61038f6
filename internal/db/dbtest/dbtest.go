// Package dbtest opens throwaway in-memory Content Stores and seeds them.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-clubs/internal/db"
)

// Open returns a fresh in-memory SQLite store with the schema applied.
func Open(t *testing.T) *db.DB {
	t.Helper()
	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	d, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// Options is the seed shape of a 4-way option set.
type Options struct {
	A, B, C, D string
	Correct    int
}

// DefaultOptions has correct_option=2.
var DefaultOptions = Options{A: "a", B: "b", C: "c", D: "d", Correct: 2}

func User(t *testing.T, d *db.DB, roll, fullName, role string) {
	t.Helper()
	_, err := d.SQL.Exec(`INSERT INTO users (roll_no, full_name, role, email) VALUES ($1,$2,$3,$4)`,
		roll, fullName, role, roll+"@example.test")
	require.NoError(t, err)
}

func Club(t *testing.T, d *db.DB, name string) int64 {
	t.Helper()
	var id int64
	err := d.SQL.QueryRow(`INSERT INTO clubs (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	require.NoError(t, err)
	return id
}

func ClubRole(t *testing.T, d *db.DB, clubID int64, roll, role string, canPost bool) {
	t.Helper()
	_, err := d.SQL.Exec(`INSERT INTO club_roles (club_id, user_roll, role, can_post_questions) VALUES ($1,$2,$3,$4)`,
		clubID, roll, role, db.BoolInt(canPost))
	require.NoError(t, err)
}

func Test(t *testing.T, d *db.DB, clubID int64, typ, date string, active bool) int64 {
	t.Helper()
	var id int64
	err := d.SQL.QueryRow(`INSERT INTO tests (club_id, title, test_type, test_date, active)
		VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		clubID, fmt.Sprintf("%s %s", typ, date), typ, date, db.BoolInt(active)).Scan(&id)
	require.NoError(t, err)
	return id
}

// Pending inserts an awaiting pending question. testID 0 means general.
// A nil opts leaves the options row missing.
func Pending(t *testing.T, d *db.DB, clubID, testID int64, text string, opts *Options) int64 {
	t.Helper()
	var tid any
	if testID > 0 {
		tid = testID
	}
	var id int64
	err := d.SQL.QueryRow(`INSERT INTO questions_pending (club_id, posted_by_roll, question_text, test_id)
		VALUES ($1,'poster',$2,$3) RETURNING id`, clubID, text, tid).Scan(&id)
	require.NoError(t, err)
	if opts != nil {
		_, err = d.SQL.Exec(`INSERT INTO questions_pending_options
			(pending_question_id, option_a, option_b, option_c, option_d, correct_option)
			VALUES ($1,$2,$3,$4,$5,$6)`, id, opts.A, opts.B, opts.C, opts.D, opts.Correct)
		require.NoError(t, err)
	}
	return id
}

// Question inserts a canonical question with options. testID 0 means general.
func Question(t *testing.T, d *db.DB, clubID, testID int64, text string, correct int) int64 {
	t.Helper()
	var tid any
	if testID > 0 {
		tid = testID
	}
	var id int64
	err := d.SQL.QueryRow(`INSERT INTO questions (club_id, test_id, question_text) VALUES ($1,$2,$3) RETURNING id`,
		clubID, tid, text).Scan(&id)
	require.NoError(t, err)
	_, err = d.SQL.Exec(`INSERT INTO options_four (question_id, option_a, option_b, option_c, option_d, correct_option)
		VALUES ($1,'a','b','c','d',$2)`, id, correct)
	require.NoError(t, err)
	return id
}

func Count(t *testing.T, d *db.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, d.SQL.QueryRow(query, args...).Scan(&n))
	return n
}
