package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-clubs/internal/db/dbtest"
)

func TestCheckerPolicy(t *testing.T) {
	c := NewChecker(nil)
	assert.True(t, c.Has(RoleAdmin, "moderation:approve"))
	assert.True(t, c.Has(RoleStudent, "attempt:submit"))
	assert.False(t, c.Has(RoleStudent, "question:post"))
	assert.True(t, c.Has(RoleClubSecretary, "club_role:request"))
	assert.True(t, c.Has(RoleClubMember, "test:take"))
	assert.False(t, c.Has(RoleClubMember, "moderation:approve"))
	assert.False(t, c.Has("nobody", "test:take"))
	assert.True(t, c.Has(RoleAttendee, "attempt:submit"))
	assert.False(t, c.Has(RoleAttendee, "question:post"))
	assert.True(t, c.Any(RoleStudent, "moderation:approve", "report:own"))
}

func TestMatchPermWildcard(t *testing.T) {
	c := NewChecker(map[string][]string{"moderator": {"moderation:*"}})
	assert.True(t, c.Has("moderator", "moderation:approve"))
	assert.False(t, c.Has("moderator", "report:all"))
}

func TestRequire(t *testing.T) {
	h := Require("moderation:approve")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for role, want := range map[string]int{
		RoleAdmin:   http.StatusNoContent,
		RoleStudent: http.StatusForbidden,
		"":          http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithRole(req.Context(), role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}
}

func TestRequireOwnerOr(t *testing.T) {
	h := RequireOwnerOr("report:all", func(r *http.Request) bool {
		return SubjectFromContext(r.Context()) == "R1"
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := WithRole(WithSubject(req.Context(), "R1"), RoleStudent)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))
	assert.Equal(t, http.StatusOK, rec.Code)

	ctx = WithRole(WithSubject(req.Context(), "R2"), RoleStudent)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestClubRoleOf(t *testing.T) {
	d := dbtest.Open(t)
	club := dbtest.Club(t, d, "Chess")
	dbtest.ClubRole(t, d, club, "R1", RoleClubJointSecretary, true)

	cr, ok, err := ClubRoleOf(context.Background(), d.SQL, club, "R1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, cr.CanPost)
	assert.True(t, cr.IsSecretary())

	_, ok, err = ClubRoleOf(context.Background(), d.SQL, club, "R2")
	require.NoError(t, err)
	assert.False(t, ok)
}
