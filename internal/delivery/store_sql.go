package delivery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/db"
)

// ActiveTests lists the active tests of a slot across all clubs, ordered by
// club name then id.
func ActiveTests(ctx context.Context, q db.Querier, typ, date string) ([]Test, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT t.id, t.club_id, c.name, t.title, t.test_type, t.test_date
		   FROM tests t
		   JOIN clubs c ON c.id = t.club_id
		  WHERE t.test_type = $1 AND t.test_date = $2 AND t.active = 1
		  ORDER BY c.name ASC, t.id ASC`, typ, date)
	if err != nil {
		return nil, fmt.Errorf("list active tests %s %s: %w", typ, date, err)
	}
	defer rows.Close()
	var out []Test
	for rows.Next() {
		var t Test
		if err := rows.Scan(&t.ID, &t.ClubID, &t.ClubName, &t.Title, &t.Type, &t.Date); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TestByID loads one test regardless of its active flag.
func TestByID(ctx context.Context, q db.Querier, id int64) (Test, bool, error) {
	var (
		t      Test
		active int
	)
	err := q.QueryRowContext(ctx,
		`SELECT t.id, t.club_id, c.name, t.title, t.test_type, t.test_date, t.active
		   FROM tests t
		   JOIN clubs c ON c.id = t.club_id
		  WHERE t.id = $1`, id).
		Scan(&t.ID, &t.ClubID, &t.ClubName, &t.Title, &t.Type, &t.Date, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return Test{}, false, apperr.NotFound("test #%d not found", id)
	}
	if err != nil {
		return Test{}, false, fmt.Errorf("load test #%d: %w", id, err)
	}
	return t, active == 1, nil
}

func questionsOf(ctx context.Context, q db.Querier, testIDs []int64) ([]Question, error) {
	if len(testIDs) == 0 {
		return []Question{}, nil
	}
	rows, err := q.QueryContext(ctx,
		`SELECT q.id, q.test_id, c.id, c.name, q.question_text,
		        o.option_a, o.option_b, o.option_c, o.option_d
		   FROM questions q
		   JOIN options_four o ON o.question_id = q.id
		   JOIN tests t ON t.id = q.test_id
		   JOIN clubs c ON c.id = t.club_id
		  WHERE q.test_id IN (`+db.Placeholders(1, len(testIDs))+`)
		  ORDER BY c.name ASC, q.id ASC`, db.Int64Args(testIDs)...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		var x Question
		if err := rows.Scan(&x.ID, &x.TestID, &x.ClubID, &x.ClubName, &x.Text,
			&x.OptionA, &x.OptionB, &x.OptionC, &x.OptionD); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}
