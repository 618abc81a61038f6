// Package attempt grades and records a user's answer sheet for a
// (test_type, test_date) slot. One user gets one attempt per slot.
package attempt

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/db"
	"github.com/mind-engage/mindengage-clubs/internal/delivery"
	"github.com/mind-engage/mindengage-clubs/internal/eventlog"
	"github.com/mind-engage/mindengage-clubs/internal/grading"
	"github.com/mind-engage/mindengage-clubs/internal/schedule"
)

type Service struct {
	db     *db.DB
	store  sqlStore
	grader *grading.Grader
	loc    *time.Location
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewService(d *db.DB, loc *time.Location, log logrus.FieldLogger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		db:     d,
		grader: grading.NewGrader(),
		loc:    loc,
		log:    log.WithField("component", "attempt"),
		now:    time.Now,
	}
}

// Submit grades in and writes the attempt, its answers and one link row per
// resolved test in a single transaction.
func (s *Service) Submit(ctx context.Context, in Submission) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	typ, date := strings.TrimSpace(in.Type), strings.TrimSpace(in.Date)
	if typ == "" || date == "" {
		first, _, err := delivery.TestByID(ctx, s.db.SQL, in.TestIDs[0])
		if err != nil {
			return Result{}, err
		}
		typ, date = first.Type, first.Date
	}
	now := s.now()
	slot, err := delivery.CheckSlot(typ, date, now, s.loc)
	if err != nil {
		return Result{}, err
	}

	out := Result{Type: string(slot.Type), Date: slot.DateString()}
	err = db.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		testIDs, err := s.resolveTests(ctx, tx, slot, in.TestIDs)
		if err != nil {
			return err
		}
		dup, err := s.store.attempted(ctx, tx, in.UserRoll, testIDs)
		if err != nil {
			return err
		}
		if dup {
			return alreadyAttempted(slot)
		}

		qids := make([]int64, 0, len(in.Answers))
		for id := range in.Answers {
			qids = append(qids, id)
		}
		keys, err := s.store.questionKeys(ctx, tx, qids)
		if err != nil {
			return err
		}
		totals, err := s.store.canonicalTotals(ctx, tx, testIDs)
		if err != nil {
			return err
		}
		sheet, err := s.grader.Grade(grading.Input{
			Answers: in.Answers, Questions: keys, TestIDs: testIDs, Totals: totals,
		})
		if err != nil {
			return err
		}

		ts := now.Unix()
		id, err := s.store.insertAttempt(ctx, tx, in.UserRoll, testIDs[0], sheet, ts)
		if err != nil {
			return err
		}
		ok, err := s.store.claimWindow(ctx, tx, in.UserRoll, out.Type, out.Date, id)
		if err != nil {
			return err
		}
		if !ok {
			return alreadyAttempted(slot)
		}
		if err := s.store.insertAnswers(ctx, tx, id, sheet.Answers); err != nil {
			return err
		}
		if err := s.store.insertLinks(ctx, tx, id, sheet.Tests, ts); err != nil {
			return err
		}

		out.AttemptID, out.Score, out.Total, out.Tests = id, sheet.Score, sheet.Total, sheet.Tests
		return eventlog.Append(ctx, tx, now, eventlog.AttemptSubmitted, fmt.Sprint(id), in.UserRoll, out)
	})
	if err != nil {
		return Result{}, err
	}
	s.log.WithFields(logrus.Fields{
		"attempt_id": out.AttemptID, "user_roll": in.UserRoll, "test_type": out.Type, "test_date": out.Date,
		"score": out.Score, "total": out.Total,
	}).Info("attempt submitted")
	return out, nil
}

// resolveTests returns the explicit test ids when given, each checked
// against the slot, otherwise every active test of the slot.
func (s *Service) resolveTests(ctx context.Context, q db.Querier, slot schedule.Slot, explicit []int64) ([]int64, error) {
	if len(explicit) == 0 {
		tests, err := delivery.ActiveTests(ctx, q, string(slot.Type), slot.DateString())
		if err != nil {
			return nil, err
		}
		if len(tests) == 0 {
			return nil, apperr.NotFound("no active %s test found for %s", slot.Type, slot.DateString())
		}
		ids := make([]int64, len(tests))
		for i, t := range tests {
			ids[i] = t.ID
		}
		return ids, nil
	}
	seen := make(map[int64]bool, len(explicit))
	ids := make([]int64, 0, len(explicit))
	for _, id := range explicit {
		if seen[id] {
			continue
		}
		seen[id] = true
		t, active, err := delivery.TestByID(ctx, q, id)
		if err != nil {
			return nil, err
		}
		if !active {
			return nil, apperr.InvalidState("test #%d is not active", id)
		}
		if t.Type != string(slot.Type) || t.Date != slot.DateString() {
			return nil, apperr.Validation("test #%d is not a %s test on %s", id, slot.Type, slot.DateString())
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func alreadyAttempted(slot schedule.Slot) error {
	return &apperr.Error{
		Kind: apperr.KindAlreadyAttempted,
		Msg:  fmt.Sprintf("you have already attempted the %s test for %s", slot.Type, slot.DateString()),
	}
}
