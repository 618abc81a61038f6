// Package moderation moves pending questions and pending club-role
// assignments into their canonical tables, or marks them rejected.
//
// Every transition runs in one transaction. The pending row is read with an
// exclusive lock first, so two moderators acting on the same id serialise and
// the loser sees the row already consumed.
package moderation

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/db"
	"github.com/mind-engage/mindengage-clubs/internal/eventlog"
	"github.com/mind-engage/mindengage-clubs/internal/rbac"
)

type Service struct {
	db    *db.DB
	store sqlStore
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewService(d *db.DB, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		db:    d,
		store: sqlStore{driver: d.Driver},
		log:   log.WithField("component", "moderation"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ApproveQuestion turns one pending question into a canonical Question with
// its Options and removes the pending rows.
func (s *Service) ApproveQuestion(ctx context.Context, in ItemInput) (Approval, error) {
	if err := in.Validate(); err != nil {
		return Approval{}, err
	}
	var out Approval
	err := db.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		a, err := s.approveSingle(ctx, tx, in.PendingID)
		if err != nil {
			return err
		}
		out = a
		return eventlog.Append(ctx, tx, s.now(), eventlog.QuestionApproved, fmt.Sprint(in.PendingID), in.Actor, a)
	})
	if err != nil {
		return Approval{}, err
	}
	s.log.WithFields(logrus.Fields{"pending_id": in.PendingID, "question_id": out.QuestionID, "actor": in.Actor}).
		Info("question approved")
	return out, nil
}

func (s *Service) approveSingle(ctx context.Context, tx *sql.Tx, pendingID int64) (Approval, error) {
	p, err := s.store.lockPendingQuestion(ctx, tx, pendingID)
	if err != nil {
		return Approval{}, err
	}
	if p.Active != PendingAwaiting {
		return Approval{}, apperr.InvalidState("pending question #%d was already rejected", pendingID)
	}
	// gated on the test's state now, not when the question was posted
	if p.TestID != nil {
		active, err := s.store.testActive(ctx, tx, *p.TestID)
		if err != nil {
			return Approval{}, err
		}
		if !active {
			return Approval{}, apperr.InvalidState("cannot approve pending #%d: linked test is inactive", pendingID)
		}
	}
	opts, err := s.store.pendingOptions(ctx, tx, pendingID)
	if err != nil {
		return Approval{}, err
	}
	if err := opts.Validate(); err != nil {
		return Approval{}, apperr.Wrap(apperr.KindValidation, err, "pending #%d", pendingID)
	}
	qid, err := s.store.insertQuestion(ctx, tx, p, opts, s.now().Unix())
	if err != nil {
		return Approval{}, err
	}
	if err := s.store.deletePending(ctx, tx, pendingID); err != nil {
		return Approval{}, err
	}
	return Approval{PendingID: pendingID, QuestionID: qid}, nil
}

// RejectQuestion flags a pending question rejected. The row is kept for audit.
func (s *Service) RejectQuestion(ctx context.Context, in ItemInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	err := db.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		p, err := s.store.lockPendingQuestion(ctx, tx, in.PendingID)
		if err != nil {
			return err
		}
		if p.Active != PendingAwaiting {
			return apperr.InvalidState("pending question #%d was already rejected", in.PendingID)
		}
		if err := s.store.deactivatePending(ctx, tx, in.PendingID); err != nil {
			return err
		}
		return eventlog.Append(ctx, tx, s.now(), eventlog.QuestionRejected, fmt.Sprint(in.PendingID), in.Actor, nil)
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"pending_id": in.PendingID, "actor": in.Actor}).Info("question rejected")
	return nil
}

// ApproveGroup approves every awaiting member of a group. One failing
// member aborts the whole group.
func (s *Service) ApproveGroup(ctx context.Context, in GroupInput) ([]Approval, error) {
	if in.Key.Type == "" {
		return nil, apperr.Validation("group type required")
	}
	var out []Approval
	err := db.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		ids, err := s.store.groupMemberIDs(ctx, tx, in.Key)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return &apperr.Error{Kind: apperr.KindEmptyGroup, Msg: fmt.Sprintf("no pending questions found in group %s", in.Key)}
		}
		out = make([]Approval, 0, len(ids))
		for _, id := range ids {
			a, err := s.approveSingle(ctx, tx, id)
			if err != nil {
				return fmt.Errorf("approve group %s: %w", in.Key, err)
			}
			out = append(out, a)
		}
		return eventlog.Append(ctx, tx, s.now(), eventlog.GroupApproved, in.Key.String(), in.Actor, out)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"group": in.Key.String(), "count": len(out), "actor": in.Actor}).
		Info("group approved")
	return out, nil
}

// RejectGroup deletes the GENERAL group outright; a typed group is
// deactivated so its rows stay for audit. Returns the number of rows touched.
func (s *Service) RejectGroup(ctx context.Context, in GroupInput) (int64, error) {
	if in.Key.Type == "" {
		return 0, apperr.Validation("group type required")
	}
	var n int64
	err := db.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		var err error
		if in.Key.IsGeneral() {
			n, err = s.store.deleteGeneral(ctx, tx)
		} else {
			n, err = s.store.deactivateTyped(ctx, tx, in.Key)
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return &apperr.Error{Kind: apperr.KindEmptyGroup, Msg: fmt.Sprintf("no pending questions found in group %s", in.Key)}
		}
		return eventlog.Append(ctx, tx, s.now(), eventlog.GroupRejected, in.Key.String(), in.Actor, map[string]int64{"count": n})
	})
	if err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{"group": in.Key.String(), "count": n, "actor": in.Actor}).Info("group rejected")
	return n, nil
}

// ApproveClubRole upserts the canonical club role, mirrors the role string
// onto the user's global role (last write wins) and marks the request approved.
func (s *Service) ApproveClubRole(ctx context.Context, in ItemInput) (ClubRole, error) {
	if err := in.Validate(); err != nil {
		return ClubRole{}, err
	}
	var out ClubRole
	err := db.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		p, err := s.store.lockPendingRole(ctx, tx, in.PendingID)
		if err != nil {
			return err
		}
		if p.State != RoleWaiting {
			return apperr.InvalidState("pending role #%d is already %s", in.PendingID, p.State)
		}
		now := s.now().UnixMilli()
		if err := s.store.upsertClubRole(ctx, tx, p, now); err != nil {
			return err
		}
		if err := s.store.setGlobalRole(ctx, tx, p.UserRoll, p.Role); err != nil {
			return err
		}
		if err := s.store.setRoleState(ctx, tx, p.ID, RoleApproved); err != nil {
			return err
		}
		out = ClubRole{ClubID: p.ClubID, UserRoll: p.UserRoll, Role: p.Role, CanPost: p.CanPost, ApprovedAt: now}
		return eventlog.Append(ctx, tx, s.now(), eventlog.ClubRoleApproved, fmt.Sprint(in.PendingID), in.Actor, out)
	})
	if err != nil {
		return ClubRole{}, err
	}
	s.log.WithFields(logrus.Fields{
		"pending_id": in.PendingID, "club_id": out.ClubID, "user_roll": out.UserRoll, "role": out.Role, "actor": in.Actor,
	}).Info("club role approved")
	return out, nil
}

func (s *Service) RejectClubRole(ctx context.Context, in ItemInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	err := db.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		p, err := s.store.lockPendingRole(ctx, tx, in.PendingID)
		if err != nil {
			return err
		}
		if p.State != RoleWaiting {
			return apperr.InvalidState("pending role #%d is already %s", in.PendingID, p.State)
		}
		if err := s.store.setRoleState(ctx, tx, p.ID, RoleRejected); err != nil {
			return err
		}
		return eventlog.Append(ctx, tx, s.now(), eventlog.ClubRoleRejected, fmt.Sprint(in.PendingID), in.Actor, nil)
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"pending_id": in.PendingID, "actor": in.Actor}).Info("club role rejected")
	return nil
}

// RemoveClubRole revokes a canonical club role and recomputes the user's
// global role from the roles left: the projection of the remaining club
// roles, or the base role when none remain. Admins keep their global role.
// Returns the global role after the change.
func (s *Service) RemoveClubRole(ctx context.Context, in RemoveInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	var global string
	err := db.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		current, err := s.store.globalRole(ctx, tx, in.UserRoll)
		if err != nil {
			return err
		}
		if err := s.store.deleteClubRole(ctx, tx, in.ClubID, in.UserRoll); err != nil {
			return err
		}
		global = current
		if current != "" && current != rbac.RoleAdmin {
			left, err := s.store.clubRolesOf(ctx, tx, in.UserRoll)
			if err != nil {
				return err
			}
			global = ProjectGlobalRole(left)
			if global == "" {
				global = rbac.RoleStudent
			}
			if err := s.store.setGlobalRole(ctx, tx, in.UserRoll, global); err != nil {
				return err
			}
		}
		return eventlog.Append(ctx, tx, s.now(), eventlog.ClubRoleRemoved, fmt.Sprintf("%d|%s", in.ClubID, in.UserRoll),
			in.Actor, map[string]string{"global_role": global})
	})
	if err != nil {
		return "", err
	}
	s.log.WithFields(logrus.Fields{
		"club_id": in.ClubID, "user_roll": in.UserRoll, "global_role": global, "actor": in.Actor,
	}).Info("club role removed")
	return global, nil
}

// ListGroups summarises the awaiting queue by (type, date), GENERAL last.
func (s *Service) ListGroups(ctx context.Context) ([]GroupSummary, error) {
	rows, err := s.store.awaitingGroupRows(ctx, s.db.SQL)
	if err != nil {
		return nil, err
	}
	type acc struct {
		key   GroupKey
		count int
		clubs map[string]struct{}
	}
	byKey := map[GroupKey]*acc{}
	for _, r := range rows {
		k := GroupKey{Type: GeneralGroup}
		if r.testType.Valid {
			k = GroupKey{Type: r.testType.String, Date: r.testDate.String}
		}
		a, ok := byKey[k]
		if !ok {
			a = &acc{key: k, clubs: map[string]struct{}{}}
			byKey[k] = a
		}
		a.count++
		a.clubs[r.clubName] = struct{}{}
	}
	out := make([]GroupSummary, 0, len(byKey))
	for _, a := range byKey {
		clubs := make([]string, 0, len(a.clubs))
		for c := range a.clubs {
			clubs = append(clubs, c)
		}
		sort.Strings(clubs)
		out = append(out, GroupSummary{GroupKey: a.key, PendingCount: a.count, Clubs: clubs})
	}
	sort.Slice(out, func(i, j int) bool {
		// GENERAL has no date and sorts after every dated group
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		ci, cj := strings.Join(out[i].Clubs, ", "), strings.Join(out[j].Clubs, ", ")
		if ci != cj {
			return ci < cj
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}

// ListGroupMembers returns the awaiting pending questions of one group.
func (s *Service) ListGroupMembers(ctx context.Context, k GroupKey) ([]PendingQuestion, error) {
	if k.Type == "" {
		return nil, apperr.Validation("group type required")
	}
	return s.store.groupMembers(ctx, s.db.SQL, k)
}

func (s *Service) ListPendingClubRoles(ctx context.Context) ([]PendingClubRole, error) {
	return s.store.waitingRoles(ctx, s.db.SQL)
}

// DerivedGlobalRole recomputes a user's global role from their club roles.
func (s *Service) DerivedGlobalRole(ctx context.Context, roll string) (string, error) {
	roles, err := s.store.clubRolesOf(ctx, s.db.SQL, roll)
	if err != nil {
		return "", err
	}
	return ProjectGlobalRole(roles), nil
}
