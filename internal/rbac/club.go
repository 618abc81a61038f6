package rbac

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-clubs/internal/db"
)

// ClubRole is a user's canonical role inside one club.
type ClubRole struct {
	Role    string
	CanPost bool
}

// IsSecretary reports whether the role may manage the club's roster.
func (c ClubRole) IsSecretary() bool {
	return c.Role == RoleClubSecretary || c.Role == RoleClubJointSecretary
}

// ClubRoleOf looks up roll's role in club. ok is false when there is none.
func ClubRoleOf(ctx context.Context, q db.Querier, clubID int64, roll string) (cr ClubRole, ok bool, err error) {
	var canPost int
	err = q.QueryRowContext(ctx,
		`SELECT role, can_post_questions FROM club_roles WHERE club_id = $1 AND user_roll = $2`,
		clubID, roll).Scan(&cr.Role, &canPost)
	if errors.Is(err, sql.ErrNoRows) {
		return ClubRole{}, false, nil
	}
	if err != nil {
		return ClubRole{}, false, fmt.Errorf("club role of %s in #%d: %w", roll, clubID, err)
	}
	cr.CanPost = canPost == 1
	return cr, true, nil
}
