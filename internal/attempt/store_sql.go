package attempt

import (
	"context"
	"fmt"

	"github.com/mind-engage/mindengage-clubs/internal/db"
	"github.com/mind-engage/mindengage-clubs/internal/grading"
)

type sqlStore struct{}

// attempted reports whether roll already has an attempt on any of testIDs,
// through a link row or the legacy attempts.test_id column.
func (sqlStore) attempted(ctx context.Context, q db.Querier, roll string, testIDs []int64) (bool, error) {
	in := db.Placeholders(2, len(testIDs))
	args := append([]any{roll}, db.Int64Args(testIDs)...)
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attempts a
		  WHERE a.user_roll = $1
		    AND (a.test_id IN (`+in+`)
		         OR EXISTS (SELECT 1 FROM attempts_tests l
		                     WHERE l.attempt_id = a.id AND l.test_id IN (`+in+`)))`,
		args...).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check previous attempts of %s: %w", roll, err)
	}
	return n > 0, nil
}

func (sqlStore) questionKeys(ctx context.Context, q db.Querier, ids []int64) (map[int64]grading.Q, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT q.id, COALESCE(q.test_id, 0), o.correct_option
		   FROM questions q
		   JOIN options_four o ON o.question_id = q.id
		  WHERE q.id IN (`+db.Placeholders(1, len(ids))+`)`, db.Int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("load answer keys: %w", err)
	}
	defer rows.Close()
	out := make(map[int64]grading.Q, len(ids))
	for rows.Next() {
		var k grading.Q
		if err := rows.Scan(&k.ID, &k.TestID, &k.Correct); err != nil {
			return nil, err
		}
		out[k.ID] = k
	}
	return out, rows.Err()
}

func (sqlStore) canonicalTotals(ctx context.Context, q db.Querier, testIDs []int64) (map[int64]int, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT test_id, COUNT(*) FROM questions
		  WHERE test_id IN (`+db.Placeholders(1, len(testIDs))+`)
		  GROUP BY test_id`, db.Int64Args(testIDs)...)
	if err != nil {
		return nil, fmt.Errorf("count questions per test: %w", err)
	}
	defer rows.Close()
	out := make(map[int64]int, len(testIDs))
	for rows.Next() {
		var (
			id int64
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func (sqlStore) insertAttempt(ctx context.Context, q db.Querier, roll string, firstTest int64, sheet grading.Sheet, now int64) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO attempts (user_roll, test_id, score, total_marks, submitted_at)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		roll, firstTest, sheet.Score, sheet.Total, now).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert attempt: %w", err)
	}
	return id, nil
}

// claimWindow records the one attempt allowed per (user, type, date). It
// returns false when another attempt already holds the window.
func (sqlStore) claimWindow(ctx context.Context, q db.Querier, roll, typ, date string, attemptID int64) (bool, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO attempt_windows (user_roll, test_type, test_date, attempt_id)
		 VALUES ($1,$2,$3,$4)
		 ON CONFLICT (user_roll, test_type, test_date) DO NOTHING`,
		roll, typ, date, attemptID)
	if err != nil {
		return false, fmt.Errorf("claim attempt window: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (sqlStore) insertAnswers(ctx context.Context, q db.Querier, attemptID int64, answers []grading.Answer) error {
	for _, a := range answers {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO answers (attempt_id, question_id, selected_option) VALUES ($1,$2,$3)`,
			attemptID, a.QuestionID, a.Selected); err != nil {
			return fmt.Errorf("insert answer for question #%d: %w", a.QuestionID, err)
		}
	}
	return nil
}

func (sqlStore) insertLinks(ctx context.Context, q db.Querier, attemptID int64, tests []grading.TestScore, now int64) error {
	for _, t := range tests {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO attempts_tests (attempt_id, test_id, score, total_marks, submitted_at)
			 VALUES ($1,$2,$3,$4,$5)`,
			attemptID, t.TestID, t.Score, t.Total, now); err != nil {
			return fmt.Errorf("link attempt #%d to test #%d: %w", attemptID, t.TestID, err)
		}
	}
	return nil
}
