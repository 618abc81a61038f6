package intake

import (
	"strings"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/moderation"
	"github.com/mind-engage/mindengage-clubs/internal/rbac"
)

// Draft is one question as posted by a club member.
type Draft struct {
	Text    string             `json:"question_text"`
	Options moderation.Options `json:"options"`
	TestID  int64              `json:"test_id,omitempty"`
}

func (d Draft) Validate() error {
	if strings.TrimSpace(d.Text) == "" {
		return apperr.Validation("question text is required")
	}
	return d.Options.Validate()
}

type PostInput struct {
	ClubID int64
	Actor  rbac.Actor
	TestID int64 // default for drafts without one
	Items  []Draft
}

// ItemError reports why the draft at Index was skipped.
type ItemError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type PostResult struct {
	PendingIDs []int64     `json:"pending_ids"`
	Skipped    []ItemError `json:"skipped"`
}

type NewTest struct {
	ClubID int64
	Actor  rbac.Actor
	Title  string
	Type   string
	Date   string
}

type Test struct {
	ID     int64  `json:"id"`
	ClubID int64  `json:"club_id"`
	Title  string `json:"title"`
	Type   string `json:"test_type"`
	Date   string `json:"test_date"`
	Active bool   `json:"active"`
}

// RoleRequest asks moderation to grant Role in ClubID to UserRoll.
type RoleRequest struct {
	ClubID   int64
	Actor    rbac.Actor
	UserRoll string
	Role     string
	CanPost  bool
}

var grantableRoles = map[string]bool{
	rbac.RoleClubMember:         true,
	rbac.RoleClubSecretary:      true,
	rbac.RoleClubJointSecretary: true,
}

func (r RoleRequest) Validate() error {
	if r.ClubID <= 0 {
		return apperr.Validation("invalid club id %d", r.ClubID)
	}
	if strings.TrimSpace(r.UserRoll) == "" {
		return apperr.Validation("user roll is required")
	}
	if !grantableRoles[r.Role] {
		return apperr.Validation("role %q cannot be requested", r.Role)
	}
	return nil
}

type Club struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
