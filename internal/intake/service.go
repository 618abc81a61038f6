// Package intake is the write side that feeds moderation: clubs, tests,
// posted questions and club-role requests.
package intake

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/db"
	"github.com/mind-engage/mindengage-clubs/internal/eventlog"
	"github.com/mind-engage/mindengage-clubs/internal/rbac"
	"github.com/mind-engage/mindengage-clubs/internal/schedule"
)

type Service struct {
	db    *db.DB
	store sqlStore
	loc   *time.Location
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewService(d *db.DB, loc *time.Location, log logrus.FieldLogger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{db: d, loc: loc, log: log.WithField("component", "intake"), now: time.Now}
}

// canPost checks the actor may post questions and create tests for club.
func (s *Service) canPost(ctx context.Context, q db.Querier, club int64, a rbac.Actor) error {
	if a.IsAdmin() {
		return nil
	}
	cr, ok, err := rbac.ClubRoleOf(ctx, q, club, a.Roll)
	if err != nil {
		return err
	}
	if !ok || !cr.CanPost {
		return apperr.InvalidRequest("%s has no posting privilege in club #%d", a.Roll, club)
	}
	return nil
}

// SubmitQuestions queues the valid drafts for moderation. Invalid drafts are
// skipped and reported by index. If none is valid nothing is written.
func (s *Service) SubmitQuestions(ctx context.Context, in PostInput) (PostResult, error) {
	if in.ClubID <= 0 {
		return PostResult{}, apperr.Validation("invalid club id %d", in.ClubID)
	}
	if len(in.Items) == 0 {
		return PostResult{}, apperr.Validation("no questions submitted")
	}
	res := PostResult{PendingIDs: []int64{}, Skipped: []ItemError{}}
	err := db.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		if err := s.store.clubExists(ctx, tx, in.ClubID); err != nil {
			return err
		}
		if err := s.canPost(ctx, tx, in.ClubID, in.Actor); err != nil {
			return err
		}
		testClub := map[int64]int64{}
		now := s.now().Unix()
		for i, d := range in.Items {
			if d.TestID == 0 {
				d.TestID = in.TestID
			}
			if err := d.Validate(); err != nil {
				res.Skipped = append(res.Skipped, ItemError{Index: i, Reason: err.Error()})
				continue
			}
			if d.TestID > 0 {
				club, ok := testClub[d.TestID]
				if !ok {
					c, err := s.store.testClub(ctx, tx, d.TestID)
					if err != nil {
						res.Skipped = append(res.Skipped, ItemError{Index: i, Reason: err.Error()})
						continue
					}
					club, testClub[d.TestID] = c, c
				}
				if club != in.ClubID {
					res.Skipped = append(res.Skipped, ItemError{
						Index: i, Reason: fmt.Sprintf("test #%d belongs to another club", d.TestID),
					})
					continue
				}
			}
			id, err := s.store.insertPending(ctx, tx, in.ClubID, in.Actor.Roll, d, now)
			if err != nil {
				return err
			}
			res.PendingIDs = append(res.PendingIDs, id)
		}
		if len(res.PendingIDs) == 0 {
			return apperr.Validation("no valid questions: %d skipped", len(res.Skipped))
		}
		return eventlog.Append(ctx, tx, s.now(), eventlog.QuestionsPosted, fmt.Sprint(in.ClubID), in.Actor.Roll, res)
	})
	if err != nil {
		return PostResult{}, err
	}
	s.log.WithFields(logrus.Fields{
		"club_id": in.ClubID, "actor": in.Actor.Roll, "posted": len(res.PendingIDs), "skipped": len(res.Skipped),
	}).Info("questions posted")
	return res, nil
}

// CreateTest opens an active test for a club on a (type, date) slot.
func (s *Service) CreateTest(ctx context.Context, in NewTest) (Test, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Test{}, apperr.Validation("title is required")
	}
	slot, err := schedule.ParseSlot(in.Type, in.Date, s.loc)
	if err != nil {
		return Test{}, err
	}
	t := Test{ClubID: in.ClubID, Title: title, Type: string(slot.Type), Date: slot.DateString(), Active: true}
	err = db.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		if err := s.store.clubExists(ctx, tx, in.ClubID); err != nil {
			return err
		}
		if err := s.canPost(ctx, tx, in.ClubID, in.Actor); err != nil {
			return err
		}
		id, ok, err := s.store.insertTest(ctx, tx, t, in.Actor.Roll, s.now().Unix())
		if err != nil {
			return err
		}
		if !ok {
			return apperr.InvalidState("a test for this date already exists")
		}
		t.ID = id
		return eventlog.Append(ctx, tx, s.now(), eventlog.TestCreated, fmt.Sprint(id), in.Actor.Roll, t)
	})
	if err != nil {
		return Test{}, err
	}
	s.log.WithFields(logrus.Fields{"test_id": t.ID, "club_id": t.ClubID, "test_type": t.Type, "test_date": t.Date}).
		Info("test created")
	return t, nil
}

// SetTestActive toggles a test. Deactivating blocks approval of its pending
// questions and hides it from resolution; nothing is deleted.
func (s *Service) SetTestActive(ctx context.Context, testID int64, active bool, actor string) error {
	if testID <= 0 {
		return apperr.Validation("invalid test id %d", testID)
	}
	err := db.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		if err := s.store.setTestActive(ctx, tx, testID, active); err != nil {
			return err
		}
		return eventlog.Append(ctx, tx, s.now(), eventlog.TestToggled, fmt.Sprint(testID), actor, map[string]bool{"active": active})
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"test_id": testID, "active": active, "actor": actor}).Info("test toggled")
	return nil
}

// RequestClubRole queues a role grant for moderation. Only the club's
// secretaries (or an admin) may ask; a repeated request resets the row to waiting.
func (s *Service) RequestClubRole(ctx context.Context, in RoleRequest) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := db.WithTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		if err := s.store.clubExists(ctx, tx, in.ClubID); err != nil {
			return err
		}
		if !in.Actor.IsAdmin() {
			cr, ok, err := rbac.ClubRoleOf(ctx, tx, in.ClubID, in.Actor.Roll)
			if err != nil {
				return err
			}
			if !ok || !cr.IsSecretary() {
				return apperr.InvalidRequest("only a club secretary or joint secretary can manage roles")
			}
		}
		if err := s.store.userExists(ctx, tx, in.UserRoll); err != nil {
			return err
		}
		var err error
		id, err = s.store.upsertPendingRole(ctx, tx, in, s.now().Unix())
		if err != nil {
			return err
		}
		return eventlog.Append(ctx, tx, s.now(), eventlog.ClubRoleRequested, fmt.Sprint(id), in.Actor.Roll, map[string]any{
			"club_id": in.ClubID, "user_roll": in.UserRoll, "role": in.Role, "can_post_questions": in.CanPost,
		})
	})
	if err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{
		"pending_id": id, "club_id": in.ClubID, "user_roll": in.UserRoll, "role": in.Role, "actor": in.Actor.Roll,
	}).Info("club role requested")
	return id, nil
}

func (s *Service) CreateClub(ctx context.Context, name, description string) (Club, error) {
	c := Club{Name: strings.TrimSpace(name), Description: strings.TrimSpace(description)}
	if c.Name == "" {
		return Club{}, apperr.Validation("club name is required")
	}
	id, ok, err := s.store.insertClub(ctx, s.db.SQL, c)
	if err != nil {
		return Club{}, err
	}
	if !ok {
		return Club{}, apperr.InvalidState("club %q already exists", c.Name)
	}
	c.ID = id
	s.log.WithFields(logrus.Fields{"club_id": id, "name": c.Name}).Info("club created")
	return c, nil
}

func (s *Service) ListClubs(ctx context.Context) ([]Club, error) {
	return s.store.listClubs(ctx, s.db.SQL)
}
