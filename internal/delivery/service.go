// Package delivery resolves the question set a test-taker sees for a
// (test_type, test_date) slot. It only reads.
package delivery

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/db"
	"github.com/mind-engage/mindengage-clubs/internal/schedule"
)

type Service struct {
	db  *db.DB
	loc *time.Location
	log logrus.FieldLogger
	now func() time.Time
}

func NewService(d *db.DB, loc *time.Location, log logrus.FieldLogger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		db:  d,
		loc: loc,
		log: log.WithField("component", "delivery"),
		now: time.Now,
	}
}

// CheckSlot validates a slot and applies the "not tomorrow" rule.
func CheckSlot(typ, date string, now time.Time, loc *time.Location) (schedule.Slot, error) {
	slot, err := schedule.ParseSlot(typ, date, loc)
	if err != nil {
		return schedule.Slot{}, err
	}
	if err := schedule.CheckNotTomorrow(slot.Date, now, loc); err != nil {
		return schedule.Slot{}, err
	}
	return slot, nil
}

// Resolve returns every canonical question of the active tests of a slot,
// ordered by club name then question id.
func (s *Service) Resolve(ctx context.Context, typ, date string) (Resolved, error) {
	slot, err := CheckSlot(typ, date, s.now(), s.loc)
	if err != nil {
		return Resolved{}, err
	}
	tests, err := ActiveTests(ctx, s.db.SQL, string(slot.Type), slot.DateString())
	if err != nil {
		return Resolved{}, err
	}
	if len(tests) == 0 {
		return Resolved{}, apperr.NotFound("no active %s test found for %s", slot.Type, slot.DateString())
	}
	out := Resolved{Type: string(slot.Type), Date: slot.DateString(), Tests: tests}
	out.Questions, err = questionsOf(ctx, s.db.SQL, out.TestIDs())
	if err != nil {
		return Resolved{}, err
	}
	out.QuestionTest = make(map[int64]int64, len(out.Questions))
	for _, q := range out.Questions {
		out.QuestionTest[q.ID] = q.TestID
	}
	s.log.WithFields(logrus.Fields{
		"test_type": out.Type, "test_date": out.Date, "tests": len(tests), "questions": len(out.Questions),
	}).Debug("test resolved")
	return out, nil
}
