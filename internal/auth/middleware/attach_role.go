package auth

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/rbac"
)

// AttachRoleFromDB replaces the claimed role with users.role, which moderation
// may have changed since the token was issued.
// allowClaimFallback=true in dev/offline; false in prod.
func AttachRoleFromDB(db *sql.DB, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := rbac.SubjectFromContext(ctx)
			claimRole := rbac.RoleFromContext(ctx) // set by JWTMiddleware

			var (
				role   string
				active int
			)
			err := db.QueryRowContext(ctx,
				`SELECT role, is_active FROM users WHERE roll_no = $1`, sub,
			).Scan(&role, &active)

			switch {
			case err == nil && active != 1:
				apperr.Write(w, apperr.InvalidRequest("user %s is inactive", sub))
				return

			case err == nil && role != "":
				// Authoritative DB role
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
				return

			case errors.Is(err, sql.ErrNoRows) || isUsersTableMissing(err):
				if allowClaimFallback && claimRole != "" {
					next.ServeHTTP(w, r) // keep whatever JWTMiddleware set
					return
				}
				apperr.Write(w, apperr.InvalidRequest("unknown user %s", sub))
				return

			default:
				// Unknown DB error: in dev, be lenient; in prod, deny
				if allowClaimFallback && claimRole != "" {
					next.ServeHTTP(w, r)
					return
				}
				apperr.Write(w, apperr.InvalidRequest("cannot resolve role for %s", sub))
				return
			}
		})
	}
}

func isUsersTableMissing(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such table: users") || // sqlite
		strings.Contains(msg, `relation "users" does not exist`) // postgres
}
