package users

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/db"
	"github.com/mind-engage/mindengage-clubs/internal/db/dbtest"
)

func newService(t *testing.T) (*Service, *db.DB) {
	t.Helper()
	d := dbtest.Open(t)
	logger, _ := test.NewNullLogger()
	return NewService(d, logger), d
}

func TestBulkUpsertAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, d := newService(t)

	ins, upd, err := svc.BulkUpsert(ctx, []User{
		{RollNo: "R1", FullName: "Asha", Class: "10A", Password: "pw1"},
		{RollNo: "R2", FullName: "Bela", Role: "ADMIN", Password: "pw2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ins)
	assert.Zero(t, upd)

	role, err := svc.Authenticate(ctx, "R1", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "student", role)
	role, err = svc.Authenticate(ctx, "R2", "pw2")
	require.NoError(t, err)
	assert.Equal(t, "admin", role)

	// update without password keeps the hash
	ins, upd, err = svc.BulkUpsert(ctx, []User{{RollNo: "R1", FullName: "Asha K", Class: "10B"}})
	require.NoError(t, err)
	assert.Zero(t, ins)
	assert.Equal(t, 1, upd)
	_, err = svc.Authenticate(ctx, "R1", "pw1")
	assert.NoError(t, err)
	assert.Equal(t, 1, dbtest.Count(t, d, `SELECT COUNT(*) FROM users WHERE roll_no='R1' AND class='10B'`))

	list, err := svc.List(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "R2", list[0].RollNo)
	assert.Empty(t, list[0].Password)
}

func TestBulkUpsertMapsAttendee(t *testing.T) {
	ctx := context.Background()
	svc, d := newService(t)

	_, _, err := svc.BulkUpsert(ctx, []User{{RollNo: "R9", FullName: "Imported", Role: "Attendee", Password: "pw"}})
	require.NoError(t, err)
	assert.Equal(t, 1, dbtest.Count(t, d, `SELECT COUNT(*) FROM users WHERE roll_no='R9' AND role='student'`))
}

func TestBulkUpsertRejects(t *testing.T) {
	ctx := context.Background()
	svc, d := newService(t)

	_, _, err := svc.BulkUpsert(ctx, []User{{RollNo: "R1", Password: "x", Role: "principal"}})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, _, err = svc.BulkUpsert(ctx, []User{{RollNo: " ", Password: "x"}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	// second row fails, first is rolled back
	_, _, err = svc.BulkUpsert(ctx, []User{{RollNo: "R1", Password: "x"}, {RollNo: "R2"}})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, dbtest.Count(t, d, `SELECT COUNT(*) FROM users`))
}

func TestAuthenticateFailures(t *testing.T) {
	ctx := context.Background()
	svc, d := newService(t)
	_, _, err := svc.BulkUpsert(ctx, []User{{RollNo: "R1", Password: "pw"}, {RollNo: "R2", Password: "pw"}})
	require.NoError(t, err)
	_, err = d.SQL.Exec(`UPDATE users SET is_active = 0 WHERE roll_no = 'R2'`)
	require.NoError(t, err)

	for _, c := range [][2]string{{"R1", "nope"}, {"GHOST", "pw"}, {"R2", "pw"}} {
		_, err := svc.Authenticate(ctx, c[0], c[1])
		assert.ErrorIs(t, err, apperr.ErrInvalidRequest, c[0])
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	_, _, err := svc.BulkUpsert(ctx, []User{{RollNo: "R1", Password: "old"}})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePassword(ctx, "R1", "wrong", "new"), apperr.ErrInvalidRequest)
	assert.ErrorIs(t, svc.ChangePassword(ctx, "R1", "old", ""), apperr.ErrValidation)
	assert.ErrorIs(t, svc.ChangePassword(ctx, "GHOST", "old", "new"), apperr.ErrNotFound)
	require.NoError(t, svc.ChangePassword(ctx, "R1", "old", "new"))

	_, err = svc.Authenticate(ctx, "R1", "new")
	assert.NoError(t, err)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	svc, d := newService(t)
	dbtest.User(t, d, "R1", "Asha", "student")

	require.NoError(t, svc.EnsureAdmin(ctx, "R1", "Asha", "s3cret"))
	role, err := svc.Authenticate(ctx, "R1", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "admin", role)

	require.NoError(t, svc.EnsureAdmin(ctx, "NEW", "Root", "pw"))
	assert.Equal(t, 2, dbtest.Count(t, d, `SELECT COUNT(*) FROM users WHERE role = 'admin'`))
	assert.ErrorIs(t, svc.EnsureAdmin(ctx, "", "", "pw"), apperr.ErrValidation)
}
