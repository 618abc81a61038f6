package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/rbac"
)

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rbac.SubjectFromContext(r.Context()) + "/" + rbac.RoleFromContext(r.Context())))
	})
}

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("k1")
	tok, err := a.IssueJWT("R1", "student")
	require.NoError(t, err)

	c, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "R1", c.Subject)
	assert.Equal(t, "student", c.Role)

	_, err = NewAuthService("other").Parse(tok)
	assert.Error(t, err)

	a.now = func() time.Time { return time.Now().Add(9 * time.Hour) }
	_, err = a.Parse(tok)
	assert.Error(t, err, "expired")
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("k1")
	h := JWTMiddleware(a)(echoIdentity())
	tok, err := a.IssueJWT("R1", "club_member")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "R1/club_member", rec.Body.String())

	for _, hdr := range []string{"", "Bearer junk", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", hdr)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, hdr)
	}
}

type fakeUsers map[string]string

func (f fakeUsers) Authenticate(_ context.Context, roll, password string) (string, error) {
	if f[roll] == "" || password != "pw" {
		return "", apperr.InvalidRequest("invalid credentials")
	}
	return f[roll], nil
}

func TestLoginHandler(t *testing.T) {
	a := NewAuthService("k1")
	h := LoginHandler(a, fakeUsers{"R1": "admin"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"roll":"R1","password":"pw"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "admin", out["role"])
	c, err := a.Parse(out["access_token"])
	require.NoError(t, err)
	assert.Equal(t, "R1", c.Subject)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"roll":"R1","password":"no"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCSRF(t *testing.T) {
	c := NewCSRF("csrf-key", time.Hour)
	tok, err := c.Issue("R1")
	require.NoError(t, err)

	assert.NoError(t, c.Validate("R1", tok))
	assert.ErrorIs(t, c.Validate("R2", tok), apperr.ErrInvalidRequest)
	assert.ErrorIs(t, c.Validate("R1", ""), apperr.ErrInvalidRequest)
	assert.ErrorIs(t, c.Validate("R1", tok+"x"), apperr.ErrInvalidRequest)
	assert.ErrorIs(t, NewCSRF("other", time.Hour).Validate("R1", tok), apperr.ErrInvalidRequest)

	// a login token is not a csrf token
	login, err := NewAuthService("csrf-key").IssueJWT("R1", "admin")
	require.NoError(t, err)
	assert.ErrorIs(t, c.Validate("R1", login), apperr.ErrInvalidRequest)

	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.ErrorIs(t, c.Validate("R1", tok), apperr.ErrInvalidRequest)
}

func TestCSRFMiddleware(t *testing.T) {
	c := NewCSRF("csrf-key", time.Hour)
	h := CSRFMiddleware(c)(echoIdentity())
	tok, err := c.Issue("R1")
	require.NoError(t, err)

	do := func(method, token string) int {
		req := httptest.NewRequest(method, "/", nil)
		req = req.WithContext(rbac.WithSubject(req.Context(), "R1"))
		if token != "" {
			req.Header.Set(CSRFHeader, token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, do(http.MethodGet, ""))
	assert.Equal(t, http.StatusForbidden, do(http.MethodPost, ""))
	assert.Equal(t, http.StatusOK, do(http.MethodPost, tok))
	assert.Equal(t, http.StatusForbidden, do(http.MethodDelete, "junk"))
}

func TestCSRFTokenHandler(t *testing.T) {
	c := NewCSRF("csrf-key", time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/auth/csrf", nil)
	req = req.WithContext(rbac.WithSubject(req.Context(), "R1"))
	rec := httptest.NewRecorder()
	CSRFTokenHandler(c).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NoError(t, c.Validate("R1", out["csrf_token"]))
}

func TestAttachRoleFromDB(t *testing.T) {
	serve := func(t *testing.T, mockDB *sql.DB, fallback bool) *httptest.ResponseRecorder {
		h := AttachRoleFromDB(mockDB, fallback)(echoIdentity())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(rbac.WithRole(rbac.WithSubject(req.Context(), "R1"), "student"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	query := `SELECT role, is_active FROM users WHERE roll_no = \$1`

	t.Run("db role wins", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()
		mock.ExpectQuery(query).WithArgs("R1").
			WillReturnRows(sqlmock.NewRows([]string{"role", "is_active"}).AddRow("club_secretary", 1))

		rec := serve(t, mockDB, false)
		assert.Equal(t, "R1/club_secretary", rec.Body.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inactive user", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()
		mock.ExpectQuery(query).WithArgs("R1").
			WillReturnRows(sqlmock.NewRows([]string{"role", "is_active"}).AddRow("student", 0))

		assert.Equal(t, http.StatusForbidden, serve(t, mockDB, true).Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		mockDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer mockDB.Close()
		mock.ExpectQuery(query).WithArgs("R1").WillReturnError(sql.ErrNoRows)
		assert.Equal(t, http.StatusForbidden, serve(t, mockDB, false).Code)

		mock.ExpectQuery(query).WithArgs("R1").WillReturnError(sql.ErrNoRows)
		rec := serve(t, mockDB, true)
		assert.Equal(t, "R1/student", rec.Body.String())
	})
}
