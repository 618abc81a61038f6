package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/rbac"
)

// CSRFHeader carries the token on every state-changing request.
const CSRFHeader = "X-CSRF-Token"

const csrfAudience = "csrf"

// CSRF issues and checks short-lived tokens bound to the caller's subject.
type CSRF struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCSRF(secret string, ttl time.Duration) *CSRF {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &CSRF{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (c *CSRF) Issue(sub string) (string, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   sub,
		Audience:  jwt.ClaimStrings{csrfAudience},
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Validate fails with an invalid_request error unless token was issued to sub
// and has not expired.
func (c *CSRF) Validate(sub, token string) error {
	if token == "" {
		return apperr.InvalidRequest("missing csrf token")
	}
	_, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(csrfAudience),
		jwt.WithSubject(sub),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return apperr.Wrap(apperr.KindInvalidRequest, err, "invalid csrf token")
	}
	return nil
}

// CSRFMiddleware refuses unsafe methods without a valid token. It runs
// after JWTMiddleware.
func CSRFMiddleware(c *CSRF) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			sub := rbac.SubjectFromContext(r.Context())
			if err := c.Validate(sub, r.Header.Get(CSRFHeader)); err != nil {
				apperr.Write(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GET /auth/csrf
func CSRFTokenHandler(c *CSRF) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, err := c.Issue(rbac.SubjectFromContext(r.Context()))
		if err != nil {
			apperr.Write(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"csrf_token": tok})
	}
}
