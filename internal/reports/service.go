// Package reports folds recorded attempts into read-only result views.
package reports

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/db"
	"github.com/mind-engage/mindengage-clubs/internal/rbac"
	"github.com/mind-engage/mindengage-clubs/internal/schedule"
)

// HistoryLimit is how many recent attempts UserHistory returns.
const HistoryLimit = 10

type Service struct {
	db  *db.DB
	log logrus.FieldLogger
}

func NewService(d *db.DB, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{db: d, log: log.WithField("component", "reports")}
}

// OverallReport groups daily results by date and weekly results by
// type+date, summing score and total per user.
func (s *Service) OverallReport(ctx context.Context) (Overall, error) {
	rows, err := resultRows(ctx, s.db.SQL)
	if err != nil {
		return Overall{}, err
	}
	return fold(rows), nil
}

// fold is the pure part of OverallReport.
func fold(rows []resultRow) Overall {
	type acc struct {
		g     Group
		users map[string]*Row
	}
	groups := map[string]*acc{}
	for _, r := range rows {
		key := r.date
		if r.typ == string(schedule.Weekly) {
			key = r.typ + "|" + r.date
		}
		a, ok := groups[key]
		if !ok {
			a = &acc{g: Group{Key: key, Type: r.typ, Date: r.date}, users: map[string]*Row{}}
			groups[key] = a
		}
		u, ok := a.users[r.roll]
		if !ok {
			u = &Row{UserRoll: r.roll, FullName: r.fullName, Class: r.class}
			a.users[r.roll] = u
		}
		u.Score += r.score
		u.Total += r.total
	}

	out := Overall{Daily: []Group{}, Weekly: []Group{}}
	for _, a := range groups {
		items := make([]Row, 0, len(a.users))
		for _, u := range a.users {
			items = append(items, *u)
		}
		sort.Slice(items, func(i, j int) bool {
			ni, nj := strings.ToLower(items[i].FullName), strings.ToLower(items[j].FullName)
			if ni != nj {
				return ni < nj
			}
			return items[i].UserRoll < items[j].UserRoll
		})
		a.g.Items = items
		if a.g.Type == string(schedule.Weekly) {
			out.Weekly = append(out.Weekly, a.g)
		} else {
			out.Daily = append(out.Daily, a.g)
		}
	}
	byDateDesc := func(gs []Group) {
		sort.Slice(gs, func(i, j int) bool { return gs[i].Date > gs[j].Date })
	}
	byDateDesc(out.Daily)
	byDateDesc(out.Weekly)
	return out
}

// TestResults lists the results of one club test, best first. Admins and
// the club's secretaries may read it.
func (s *Service) TestResults(ctx context.Context, clubID, testID int64, actor rbac.Actor) ([]TestResult, error) {
	club, err := testClub(ctx, s.db.SQL, testID)
	if err != nil {
		return nil, err
	}
	if club != clubID {
		return nil, apperr.NotFound("test #%d not found in club #%d", testID, clubID)
	}
	if !actor.IsAdmin() {
		cr, ok, err := rbac.ClubRoleOf(ctx, s.db.SQL, clubID, actor.Roll)
		if err != nil {
			return nil, err
		}
		if !ok || !cr.IsSecretary() {
			return nil, apperr.InvalidRequest("only admins and club secretaries can view test results")
		}
	}
	return testResults(ctx, s.db.SQL, testID)
}

// UserHistory returns the user's most recent attempts, newest first.
func (s *Service) UserHistory(ctx context.Context, roll string) ([]HistoryEntry, error) {
	if strings.TrimSpace(roll) == "" {
		return nil, apperr.Validation("user roll is required")
	}
	entries, err := recentAttempts(ctx, s.db.SQL, roll, HistoryLimit)
	if err != nil || len(entries) == 0 {
		return entries, err
	}
	ids := make([]int64, len(entries))
	idx := make(map[int64]int, len(entries))
	for i, e := range entries {
		ids[i] = e.AttemptID
		idx[e.AttemptID] = i
	}
	tests, err := attemptTests(ctx, s.db.SQL, ids)
	if err != nil {
		return nil, err
	}
	for _, t := range tests {
		e := &entries[idx[t.attemptID]]
		e.Tests = append(e.Tests, t.HistoryTest)
	}
	return entries, nil
}
