// Package users manages the roster: bulk upsert, listing, passwords and
// credential checks for login.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/db"
	"github.com/mind-engage/mindengage-clubs/internal/rbac"
)

// BcryptCost is the work factor for stored password hashes.
const BcryptCost = 12

type User struct {
	RollNo   string `json:"roll_no"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Class    string `json:"class"`
	Role     string `json:"role"`
	Password string `json:"password,omitempty"` // plaintext on input only
}

var settableRoles = map[string]bool{
	rbac.RoleStudent:            true,
	rbac.RoleAdmin:              true,
	rbac.RoleClubMember:         true,
	rbac.RoleClubSecretary:      true,
	rbac.RoleClubJointSecretary: true,
}

type Service struct {
	db  *db.DB
	log logrus.FieldLogger
	now func() time.Time
}

func NewService(d *db.DB, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{db: d, log: log.WithField("component", "users"), now: time.Now}
}

func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// BulkUpsert inserts new users and updates existing ones in one
// transaction. New users need a password; an empty password on an existing
// user keeps the stored hash.
func (s *Service) BulkUpsert(ctx context.Context, rows []User) (inserted, updated int, err error) {
	for i := range rows {
		r := &rows[i]
		r.RollNo = strings.TrimSpace(r.RollNo)
		r.Role = strings.ToLower(strings.TrimSpace(r.Role))
		if r.Role == "" || r.Role == rbac.RoleAttendee {
			r.Role = rbac.RoleStudent
		}
		if r.RollNo == "" {
			return 0, 0, apperr.Validation("row %d: roll_no is required", i)
		}
		if !settableRoles[r.Role] {
			return 0, 0, apperr.Validation("row %d: invalid role %q", i, r.Role)
		}
	}
	now := s.now().Unix()
	err = db.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		inserted, updated = 0, 0
		for _, r := range rows {
			var phash string
			if r.Password != "" {
				h, err := HashPassword(r.Password)
				if err != nil {
					return err
				}
				phash = h
			}
			var one int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE roll_no = $1`, r.RollNo).Scan(&one)
			switch {
			case err == nil:
				if phash != "" {
					_, err = tx.ExecContext(ctx,
						`UPDATE users SET full_name=$1, email=$2, class=$3, role=$4, password_hash=$5 WHERE roll_no=$6`,
						r.FullName, r.Email, r.Class, r.Role, phash, r.RollNo)
				} else {
					_, err = tx.ExecContext(ctx,
						`UPDATE users SET full_name=$1, email=$2, class=$3, role=$4 WHERE roll_no=$5`,
						r.FullName, r.Email, r.Class, r.Role, r.RollNo)
				}
				if err != nil {
					return fmt.Errorf("update user %s: %w", r.RollNo, err)
				}
				updated++
			case errors.Is(err, sql.ErrNoRows):
				if phash == "" {
					return apperr.Validation("password required for new user %s", r.RollNo)
				}
				_, err = tx.ExecContext(ctx,
					`INSERT INTO users (roll_no, full_name, email, class, role, password_hash, created_at)
					 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
					r.RollNo, r.FullName, r.Email, r.Class, r.Role, phash, now)
				if err != nil {
					return fmt.Errorf("insert user %s: %w", r.RollNo, err)
				}
				inserted++
			default:
				return fmt.Errorf("load user %s: %w", r.RollNo, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	s.log.WithFields(logrus.Fields{"inserted": inserted, "updated": updated}).Info("users upserted")
	return inserted, updated, nil
}

// List returns users ordered by roll, optionally filtered by role.
func (s *Service) List(ctx context.Context, role string) ([]User, error) {
	var (
		rows *sql.Rows
		err  error
	)
	const cols = `SELECT roll_no, full_name, email, class, role FROM users`
	if role == "" {
		rows, err = s.db.SQL.QueryContext(ctx, cols+` ORDER BY roll_no`)
	} else {
		rows, err = s.db.SQL.QueryContext(ctx, cols+` WHERE role = $1 ORDER BY roll_no`, role)
	}
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.RollNo, &u.FullName, &u.Email, &u.Class, &u.Role); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Authenticate checks credentials and returns the user's global role.
// Unknown users, inactive users and wrong passwords look the same.
func (s *Service) Authenticate(ctx context.Context, roll, password string) (string, error) {
	var (
		hash, role string
		active     int
	)
	err := s.db.SQL.QueryRowContext(ctx,
		`SELECT password_hash, role, is_active FROM users WHERE roll_no = $1`, roll).Scan(&hash, &role, &active)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("load user %s: %w", roll, err)
	}
	if err != nil || active != 1 || hash == "" ||
		bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", apperr.InvalidRequest("invalid credentials")
	}
	return role, nil
}

func (s *Service) ChangePassword(ctx context.Context, roll, oldPassword, newPassword string) error {
	if newPassword == "" {
		return apperr.Validation("new password required")
	}
	var stored string
	err := s.db.SQL.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE roll_no = $1`, roll).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("user %s not found", roll)
	}
	if err != nil {
		return fmt.Errorf("load user %s: %w", roll, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), []byte(oldPassword)) != nil {
		return apperr.InvalidRequest("incorrect old password")
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if _, err := s.db.SQL.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE roll_no = $2`, hash, roll); err != nil {
		return fmt.Errorf("update password of %s: %w", roll, err)
	}
	s.log.WithField("user_roll", roll).Info("password changed")
	return nil
}

// EnsureAdmin creates roll as an admin, or promotes it and resets its
// password when it already exists.
func (s *Service) EnsureAdmin(ctx context.Context, roll, fullName, password string) error {
	roll = strings.TrimSpace(roll)
	if roll == "" || password == "" {
		return apperr.Validation("roll and password are required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	_, err = s.db.SQL.ExecContext(ctx,
		`INSERT INTO users (roll_no, full_name, role, password_hash, created_at)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (roll_no) DO UPDATE SET role = EXCLUDED.role, password_hash = EXCLUDED.password_hash`,
		roll, fullName, rbac.RoleAdmin, hash, s.now().Unix())
	if err != nil {
		return fmt.Errorf("ensure admin %s: %w", roll, err)
	}
	s.log.WithField("user_roll", roll).Info("admin ensured")
	return nil
}
