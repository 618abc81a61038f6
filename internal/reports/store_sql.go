package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/db"
)

type resultRow struct {
	roll, fullName, class string
	typ, date             string
	score, total          int
}

// resultRows returns every per-test result: link rows, plus legacy attempts
// that carry only attempts.test_id.
func resultRows(ctx context.Context, q db.Querier) ([]resultRow, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT a.user_roll, COALESCE(u.full_name, ''), COALESCE(u.class, ''),
		        t.test_type, t.test_date, l.score, l.total_marks
		   FROM attempts_tests l
		   JOIN attempts a ON a.id = l.attempt_id
		   JOIN tests t ON t.id = l.test_id
		   LEFT JOIN users u ON u.roll_no = a.user_roll
		 UNION ALL
		 SELECT a.user_roll, COALESCE(u.full_name, ''), COALESCE(u.class, ''),
		        t.test_type, t.test_date, a.score, a.total_marks
		   FROM attempts a
		   JOIN tests t ON t.id = a.test_id
		   LEFT JOIN users u ON u.roll_no = a.user_roll
		  WHERE NOT EXISTS (SELECT 1 FROM attempts_tests l WHERE l.attempt_id = a.id)`)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	defer rows.Close()
	var out []resultRow
	for rows.Next() {
		var r resultRow
		if err := rows.Scan(&r.roll, &r.fullName, &r.class, &r.typ, &r.date, &r.score, &r.total); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func testClub(ctx context.Context, q db.Querier, testID int64) (int64, error) {
	var club int64
	err := q.QueryRowContext(ctx, `SELECT club_id FROM tests WHERE id = $1`, testID).Scan(&club)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.NotFound("test #%d not found", testID)
	}
	if err != nil {
		return 0, fmt.Errorf("load test #%d: %w", testID, err)
	}
	return club, nil
}

func testResults(ctx context.Context, q db.Querier, testID int64) ([]TestResult, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT l.attempt_id, a.user_roll, COALESCE(u.full_name, ''), COALESCE(u.class, ''),
		        l.score, l.total_marks, l.submitted_at
		   FROM attempts_tests l
		   JOIN attempts a ON a.id = l.attempt_id
		   LEFT JOIN users u ON u.roll_no = a.user_roll
		  WHERE l.test_id = $1
		  ORDER BY l.score DESC, a.user_roll ASC`, testID)
	if err != nil {
		return nil, fmt.Errorf("load results of test #%d: %w", testID, err)
	}
	defer rows.Close()
	out := []TestResult{}
	for rows.Next() {
		var r TestResult
		if err := rows.Scan(&r.AttemptID, &r.UserRoll, &r.FullName, &r.Class, &r.Score, &r.Total, &r.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func recentAttempts(ctx context.Context, q db.Querier, roll string, limit int) ([]HistoryEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, score, total_marks, submitted_at FROM attempts
		  WHERE user_roll = $1
		  ORDER BY submitted_at DESC, id DESC
		  LIMIT $2`, roll, limit)
	if err != nil {
		return nil, fmt.Errorf("load attempts of %s: %w", roll, err)
	}
	defer rows.Close()
	out := []HistoryEntry{}
	for rows.Next() {
		e := HistoryEntry{Tests: []HistoryTest{}}
		if err := rows.Scan(&e.AttemptID, &e.Score, &e.Total, &e.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type attemptTest struct {
	attemptID int64
	HistoryTest
}

func attemptTests(ctx context.Context, q db.Querier, attemptIDs []int64) ([]attemptTest, error) {
	in := db.Placeholders(1, len(attemptIDs))
	rows, err := q.QueryContext(ctx,
		`SELECT l.attempt_id, t.id, c.name, t.test_type, t.test_date, l.score, l.total_marks
		   FROM attempts_tests l
		   JOIN tests t ON t.id = l.test_id
		   JOIN clubs c ON c.id = t.club_id
		  WHERE l.attempt_id IN (`+in+`)
		 UNION ALL
		 SELECT a.id, t.id, c.name, t.test_type, t.test_date, a.score, a.total_marks
		   FROM attempts a
		   JOIN tests t ON t.id = a.test_id
		   JOIN clubs c ON c.id = t.club_id
		  WHERE a.id IN (`+in+`)
		    AND NOT EXISTS (SELECT 1 FROM attempts_tests l WHERE l.attempt_id = a.id)
		  ORDER BY 3, 2`, db.Int64Args(attemptIDs)...)
	if err != nil {
		return nil, fmt.Errorf("load attempt tests: %w", err)
	}
	defer rows.Close()
	var out []attemptTest
	for rows.Next() {
		var r attemptTest
		if err := rows.Scan(&r.attemptID, &r.TestID, &r.ClubName, &r.Type, &r.Date, &r.Score, &r.Total); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
