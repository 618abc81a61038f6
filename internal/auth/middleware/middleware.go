package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/rbac"
)

const issuer = "mindengage-clubs"

type AuthService struct {
	hmac []byte
	ttl  time.Duration
	now  func() time.Time
}

func NewAuthService(secret string) *AuthService {
	return &AuthService{hmac: []byte(secret), ttl: 8 * time.Hour, now: time.Now}
}

// Claims carries the roll number in sub and the global role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, role string) (string, error) {
	now := a.now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	c := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, c, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid || c.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

// Authenticator checks a roll/password pair and returns the global role.
type Authenticator interface {
	Authenticate(ctx context.Context, roll, password string) (string, error)
}

// POST /auth/login  { "roll": "...", "password": "..." }
func LoginHandler(a *AuthService, users Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Roll     string `json:"roll"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperr.WriteStatus(w, http.StatusBadRequest, apperr.Validation("bad json"))
			return
		}
		role, err := users.Authenticate(r.Context(), strings.TrimSpace(req.Roll), req.Password)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindInvalidRequest {
				apperr.WriteStatus(w, http.StatusUnauthorized, err)
				return
			}
			apperr.Write(w, err)
			return
		}
		tok, err := a.IssueJWT(strings.TrimSpace(req.Roll), role)
		if err != nil {
			apperr.Write(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": tok, "role": role})
	}
}

// JWTMiddleware verifies the bearer token and puts subject and claimed role
// into the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				apperr.WriteStatus(w, http.StatusUnauthorized, apperr.InvalidRequest("missing bearer"))
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				apperr.WriteStatus(w, http.StatusUnauthorized, apperr.InvalidRequest("bad token"))
				return
			}
			ctx := rbac.WithRole(rbac.WithSubject(r.Context(), c.Subject), c.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
