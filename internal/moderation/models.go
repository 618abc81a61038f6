package moderation

import (
	"strings"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/schedule"
)

// questions_pending.active values.
const (
	PendingAwaiting = 2
	PendingRejected = 0
)

// club_roles_pending.is_approve values.
const (
	RoleWaiting  = "waiting"
	RoleApproved = "approved"
	RoleRejected = "rejected"
)

// GeneralGroup is the synthetic group of pending questions with no test.
const GeneralGroup = "GENERAL"

type Options struct {
	A       string `json:"option_a"`
	B       string `json:"option_b"`
	C       string `json:"option_c"`
	D       string `json:"option_d"`
	Correct int    `json:"correct_option"`
}

// Validate checks the option set is complete and correct_option is 1..4.
func (o Options) Validate() error {
	if strings.TrimSpace(o.A) == "" || strings.TrimSpace(o.B) == "" ||
		strings.TrimSpace(o.C) == "" || strings.TrimSpace(o.D) == "" {
		return apperr.Validation("all four options are required")
	}
	if o.Correct < 1 || o.Correct > 4 {
		return apperr.Validation("correct option must be 1-4, got %d", o.Correct)
	}
	return nil
}

type PendingQuestion struct {
	ID           int64    `json:"id"`
	ClubID       int64    `json:"club_id"`
	ClubName     string   `json:"club_name,omitempty"`
	PostedBy     string   `json:"posted_by"`
	QuestionText string   `json:"question_text"`
	TestID       *int64   `json:"test_id,omitempty"`
	TestType     string   `json:"test_type,omitempty"`
	TestDate     string   `json:"test_date,omitempty"`
	Active       int      `json:"active"`
	Options      *Options `json:"options,omitempty"`
}

type PendingClubRole struct {
	ID        int64  `json:"id"`
	ClubID    int64  `json:"club_id"`
	ClubName  string `json:"club_name,omitempty"`
	UserRoll  string `json:"user_roll"`
	FullName  string `json:"full_name,omitempty"`
	Class     string `json:"class,omitempty"`
	Role      string `json:"role"`
	CanPost   bool   `json:"can_post_questions"`
	State     string `json:"is_approve"`
	Requested string `json:"requested_by,omitempty"`
}

type ClubRole struct {
	ClubID     int64  `json:"club_id"`
	UserRoll   string `json:"user_roll"`
	Role       string `json:"role"`
	CanPost    bool   `json:"can_post_questions"`
	ApprovedAt int64  `json:"approved_at"`
}

// GroupKey identifies a moderation group: a (type, date) pair or GENERAL.
type GroupKey struct {
	Type string `json:"test_type"`
	Date string `json:"test_date,omitempty"`
}

// ParseGroupKey validates a group selector before any transaction opens.
func ParseGroupKey(typ, date string) (GroupKey, error) {
	typ = strings.TrimSpace(typ)
	if typ == GeneralGroup {
		return GroupKey{Type: GeneralGroup}, nil
	}
	tt, err := schedule.ParseType(typ)
	if err != nil {
		return GroupKey{}, err
	}
	d, err := schedule.ParseDate(date, nil)
	if err != nil {
		return GroupKey{}, err
	}
	return GroupKey{Type: string(tt), Date: d.Format(schedule.DateLayout)}, nil
}

func (k GroupKey) IsGeneral() bool { return k.Type == GeneralGroup }

func (k GroupKey) String() string {
	if k.IsGeneral() {
		return GeneralGroup
	}
	return k.Type + "|" + k.Date
}

// GroupSummary is one row of the moderation queue overview.
type GroupSummary struct {
	GroupKey
	PendingCount int      `json:"pending_count"`
	Clubs        []string `json:"clubs"`
}

// ItemInput selects a single pending record.
type ItemInput struct {
	PendingID int64
	Actor     string
}

func (in ItemInput) Validate() error {
	if in.PendingID <= 0 {
		return apperr.Validation("invalid pending id %d", in.PendingID)
	}
	return nil
}

// GroupInput selects a moderation group.
type GroupInput struct {
	Key   GroupKey
	Actor string
}

// Approval reports the canonical question created from a pending one.
type Approval struct {
	PendingID  int64 `json:"pending_id"`
	QuestionID int64 `json:"question_id"`
}

// RemoveInput selects a canonical club role to revoke.
type RemoveInput struct {
	ClubID   int64
	UserRoll string
	Actor    string
}

func (in RemoveInput) Validate() error {
	if in.ClubID <= 0 {
		return apperr.Validation("invalid club id %d", in.ClubID)
	}
	if strings.TrimSpace(in.UserRoll) == "" {
		return apperr.Validation("user roll is required")
	}
	return nil
}
