package attempt

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/db"
	"github.com/mind-engage/mindengage-clubs/internal/db/dbtest"
	"github.com/mind-engage/mindengage-clubs/internal/grading"
)

func newService(t *testing.T) (*Service, *db.DB) {
	t.Helper()
	d := dbtest.Open(t)
	logger, _ := test.NewNullLogger()
	s := NewService(d, time.UTC, logger)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return s, d
}

func TestSubmitScores(t *testing.T) {
	ctx := context.Background()
	svc, d := newService(t)
	club := dbtest.Club(t, d, "Chess")
	tid := dbtest.Test(t, d, club, "daily", "2024-05-01", true)
	q1 := dbtest.Question(t, d, club, tid, "q1", 1)
	q2 := dbtest.Question(t, d, club, tid, "q2", 2)

	res, err := svc.Submit(ctx, Submission{
		UserRoll: "R1", Type: "daily", Date: "2024-05-01",
		Answers: map[int64]int{q1: 1, q2: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, []grading.TestScore{{TestID: tid, Score: 1, Total: 2}}, res.Tests)

	var (
		score, total int
		legacy       int64
	)
	require.NoError(t, d.SQL.QueryRow(`SELECT score, total_marks, test_id FROM attempts WHERE id = $1`, res.AttemptID).
		Scan(&score, &total, &legacy))
	assert.Equal(t, 1, score)
	assert.Equal(t, 2, total)
	assert.Equal(t, tid, legacy)
	assert.Equal(t, 2, dbtest.Count(t, d, `SELECT COUNT(*) FROM answers WHERE attempt_id = $1`, res.AttemptID))
	assert.Equal(t, 1, dbtest.Count(t, d, `SELECT COUNT(*) FROM attempts_tests WHERE attempt_id = $1`, res.AttemptID))
	assert.Equal(t, 1, dbtest.Count(t, d, `SELECT COUNT(*) FROM attempt_windows WHERE user_roll = 'R1'`))
	assert.Equal(t, 1, dbtest.Count(t, d, `SELECT COUNT(*) FROM event_log WHERE typ = 'AttemptSubmitted'`))
	assert.Equal(t, 1, dbtest.Count(t, d, `SELECT COUNT(*) FROM event_log WHERE typ = 'AttemptSubmitted' AND created_at = $1`,
		svc.now().Unix()), "event stamped with the service clock")
}

func TestSubmitTwiceFails(t *testing.T) {
	ctx := context.Background()
	svc, d := newService(t)
	club := dbtest.Club(t, d, "Chess")
	tid := dbtest.Test(t, d, club, "daily", "2024-05-01", true)
	q1 := dbtest.Question(t, d, club, tid, "q1", 1)

	sub := Submission{UserRoll: "R1", Type: "daily", Date: "2024-05-01", Answers: map[int64]int{q1: 1}}
	_, err := svc.Submit(ctx, sub)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, sub)
	assert.ErrorIs(t, err, apperr.ErrAlreadyAttempted)
	assert.Equal(t, 1, dbtest.Count(t, d, `SELECT COUNT(*) FROM attempts`))

	// a different user is unaffected
	sub.UserRoll = "R2"
	_, err = svc.Submit(ctx, sub)
	assert.NoError(t, err)
}

func TestSubmitSpansClubs(t *testing.T) {
	ctx := context.Background()
	svc, d := newService(t)
	chess := dbtest.Club(t, d, "Chess")
	drama := dbtest.Club(t, d, "Drama")
	tc := dbtest.Test(t, d, chess, "daily", "2024-05-01", true)
	td := dbtest.Test(t, d, drama, "daily", "2024-05-01", true)
	c1 := dbtest.Question(t, d, chess, tc, "c1", 1)
	c2 := dbtest.Question(t, d, chess, tc, "c2", 2)
	d1 := dbtest.Question(t, d, drama, td, "d1", 3)

	res, err := svc.Submit(ctx, Submission{
		UserRoll: "R1", Type: "daily", Date: "2024-05-01",
		Answers: map[int64]int{c1: 1, c2: 1, d1: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Score)
	assert.Equal(t, 3, res.Total)

	sum := 0
	for _, ts := range res.Tests {
		sum += ts.Total
	}
	assert.Equal(t, 3, sum)
	assert.Equal(t, 2, dbtest.Count(t, d, `SELECT COUNT(*) FROM attempts_tests WHERE attempt_id = $1`, res.AttemptID))
	assert.Equal(t, 1, dbtest.Count(t, d,
		`SELECT COUNT(*) FROM attempts_tests WHERE attempt_id = $1 AND test_id = $2 AND score = 1 AND total_marks = 2`,
		res.AttemptID, tc))
}

func TestSubmitDerivesSlotFromTestIDs(t *testing.T) {
	svc, d := newService(t)
	club := dbtest.Club(t, d, "Chess")
	tid := dbtest.Test(t, d, club, "weekly", "2024-04-27", true)
	q := dbtest.Question(t, d, club, tid, "q", 4)

	res, err := svc.Submit(context.Background(), Submission{
		UserRoll: "R1", TestIDs: []int64{tid, tid}, Answers: map[int64]int{q: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, "weekly", res.Type)
	assert.Equal(t, "2024-04-27", res.Date)
	assert.Len(t, res.Tests, 1)
}

func TestSubmitRejects(t *testing.T) {
	ctx := context.Background()
	svc, d := newService(t)
	club := dbtest.Club(t, d, "Chess")
	tid := dbtest.Test(t, d, club, "daily", "2024-05-01", true)
	other := dbtest.Test(t, d, club, "daily", "2024-04-30", true)
	off := dbtest.Test(t, d, club, "daily", "2024-05-03", false)
	dbtest.Test(t, d, club, "daily", "2024-05-02", true)
	q := dbtest.Question(t, d, club, tid, "q", 1)
	foreign := dbtest.Question(t, d, club, other, "foreign", 1)
	general := dbtest.Question(t, d, club, 0, "general", 3)

	cases := []struct {
		name string
		sub  Submission
		want error
	}{
		{"no user", Submission{Type: "daily", Date: "2024-05-01", Answers: map[int64]int{q: 1}}, apperr.ErrInvalidRequest},
		{"empty answers", Submission{UserRoll: "R1", Type: "daily", Date: "2024-05-01"}, apperr.ErrValidation},
		{"bad option", Submission{UserRoll: "R1", Type: "daily", Date: "2024-05-01", Answers: map[int64]int{q: 9}}, apperr.ErrValidation},
		{"no slot", Submission{UserRoll: "R1", Answers: map[int64]int{q: 1}}, apperr.ErrValidation},
		{"unknown question", Submission{UserRoll: "R1", Type: "daily", Date: "2024-05-01", Answers: map[int64]int{q: 1, 999: 1}}, apperr.ErrValidation},
		{"question of another test", Submission{UserRoll: "R1", Type: "daily", Date: "2024-05-01", Answers: map[int64]int{foreign: 1}}, apperr.ErrValidation},
		{"general question not delivered", Submission{UserRoll: "R1", Type: "daily", Date: "2024-05-01", Answers: map[int64]int{q: 1, general: 3}}, apperr.ErrValidation},
		{"tomorrow", Submission{UserRoll: "R1", Type: "daily", Date: "2024-05-02", Answers: map[int64]int{q: 1}}, apperr.ErrFutureAttempt},
		{"weekly not saturday", Submission{UserRoll: "R1", Type: "weekly", Date: "2024-05-01", Answers: map[int64]int{q: 1}}, apperr.ErrInvalidSchedule},
		{"no test", Submission{UserRoll: "R1", Type: "daily", Date: "2024-06-01", Answers: map[int64]int{q: 1}}, apperr.ErrNotFound},
		{"inactive explicit test", Submission{UserRoll: "R1", TestIDs: []int64{off}, Answers: map[int64]int{q: 1}}, apperr.ErrInvalidState},
		{"explicit test outside slot", Submission{UserRoll: "R1", Type: "daily", Date: "2024-05-01", TestIDs: []int64{other}, Answers: map[int64]int{foreign: 1}}, apperr.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tc.sub)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Zero(t, dbtest.Count(t, d, `SELECT COUNT(*) FROM attempts`))
	assert.Zero(t, dbtest.Count(t, d, `SELECT COUNT(*) FROM answers`))
}

func TestSubmitLegacyAttemptBlocks(t *testing.T) {
	svc, d := newService(t)
	club := dbtest.Club(t, d, "Chess")
	tid := dbtest.Test(t, d, club, "daily", "2024-05-01", true)
	q := dbtest.Question(t, d, club, tid, "q", 1)
	_, err := d.SQL.Exec(`INSERT INTO attempts (user_roll, test_id, score, total_marks, submitted_at) VALUES ('R1',$1,0,1,1)`, tid)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), Submission{
		UserRoll: "R1", Type: "daily", Date: "2024-05-01", Answers: map[int64]int{q: 1},
	})
	assert.ErrorIs(t, err, apperr.ErrAlreadyAttempted)
}

func TestSubmitWindowClaimedElsewhere(t *testing.T) {
	svc, d := newService(t)
	club := dbtest.Club(t, d, "Chess")
	tid := dbtest.Test(t, d, club, "daily", "2024-05-01", true)
	q := dbtest.Question(t, d, club, tid, "q", 1)

	// an attempt with no link rows still owns the window
	var prev int64
	require.NoError(t, d.SQL.QueryRow(`INSERT INTO attempts (user_roll, score, total_marks, submitted_at)
		VALUES ('R1',0,0,1) RETURNING id`).Scan(&prev))
	_, err := d.SQL.Exec(`INSERT INTO attempt_windows (user_roll, test_type, test_date, attempt_id)
		VALUES ('R1','daily','2024-05-01',$1)`, prev)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), Submission{
		UserRoll: "R1", Type: "daily", Date: "2024-05-01", Answers: map[int64]int{q: 1},
	})
	assert.ErrorIs(t, err, apperr.ErrAlreadyAttempted)
	assert.Equal(t, 1, dbtest.Count(t, d, `SELECT COUNT(*) FROM attempts`))
	assert.Zero(t, dbtest.Count(t, d, `SELECT COUNT(*) FROM answers`))
}
