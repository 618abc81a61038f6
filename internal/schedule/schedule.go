// Package schedule validates test types and calendar dates.
package schedule

import (
	"strings"
	"time"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
)

type TestType string

const (
	Daily  TestType = "daily"
	Weekly TestType = "weekly"
)

// DateLayout is the wire and storage format of test dates.
const DateLayout = "2006-01-02"

func ParseType(s string) (TestType, error) {
	switch TestType(strings.TrimSpace(s)) {
	case Daily:
		return Daily, nil
	case Weekly:
		return Weekly, nil
	default:
		return "", apperr.InvalidSchedule("invalid test type %q", s)
	}
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, apperr.InvalidSchedule("invalid date %q", s)
	}
	return d, nil
}

// Slot is a validated (type, date) pair.
type Slot struct {
	Type TestType
	Date time.Time
}

// DateString renders the date in storage format.
func (s Slot) DateString() string { return s.Date.Format(DateLayout) }

// ParseSlot validates type and date; weekly slots must fall on a Saturday.
func ParseSlot(typ, date string, loc *time.Location) (Slot, error) {
	tt, err := ParseType(typ)
	if err != nil {
		return Slot{}, err
	}
	d, err := ParseDate(date, loc)
	if err != nil {
		return Slot{}, err
	}
	if tt == Weekly && d.Weekday() != time.Saturday {
		return Slot{}, apperr.InvalidSchedule("weekly tests must be on a Saturday, %s is a %s", d.Format(DateLayout), d.Weekday())
	}
	return Slot{Type: tt, Date: d}, nil
}

// Tomorrow returns the calendar day after now in loc.
func Tomorrow(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day()+1, 0, 0, 0, 0, loc)
}

// CheckNotTomorrow blocks exactly the day after today. Today, past days and
// any later day are all allowed.
func CheckNotTomorrow(date, now time.Time, loc *time.Location) error {
	t := Tomorrow(now, loc)
	d := date.In(t.Location())
	if d.Year() == t.Year() && d.Month() == t.Month() && d.Day() == t.Day() {
		return &apperr.Error{Kind: apperr.KindFutureAttempt, Msg: "you cannot attempt tomorrow's test today"}
	}
	return nil
}
