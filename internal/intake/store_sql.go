package intake

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/db"
	"github.com/mind-engage/mindengage-clubs/internal/moderation"
)

type sqlStore struct{}

func (sqlStore) clubExists(ctx context.Context, q db.Querier, id int64) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM clubs WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("club #%d not found", id)
	}
	if err != nil {
		return fmt.Errorf("load club #%d: %w", id, err)
	}
	return nil
}

func (sqlStore) userExists(ctx context.Context, q db.Querier, roll string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM users WHERE roll_no = $1`, roll).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("user %s not found", roll)
	}
	if err != nil {
		return fmt.Errorf("load user %s: %w", roll, err)
	}
	return nil
}

// testClub returns the club a test belongs to.
func (sqlStore) testClub(ctx context.Context, q db.Querier, testID int64) (int64, error) {
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

func (sqlStore) insertPending(ctx context.Context, q db.Querier, club int64, poster string, d Draft, now int64) (int64, error) {
	var tid any
	if d.TestID > 0 {
		tid = d.TestID
	}
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO questions_pending (club_id, posted_by_roll, question_text, test_id, active, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		club, poster, d.Text, tid, moderation.PendingAwaiting, now).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert pending question: %w", err)
	}
	o := d.Options
	_, err = q.ExecContext(ctx,
		`INSERT INTO questions_pending_options
		   (pending_question_id, option_a, option_b, option_c, option_d, correct_option)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		id, o.A, o.B, o.C, o.D, o.Correct)
	if err != nil {
		return 0, fmt.Errorf("insert pending options #%d: %w", id, err)
	}
	return id, nil
}

// insertTest returns ok=false when (club, type, date) is already taken.
func (sqlStore) insertTest(ctx context.Context, q db.Querier, t Test, creator string, now int64) (int64, bool, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO tests (club_id, title, test_type, test_date, created_by_roll, active, created_at)
		 VALUES ($1,$2,$3,$4,$5,1,$6)
		 ON CONFLICT (club_id, test_type, test_date) DO NOTHING
		 RETURNING id`,
		t.ClubID, t.Title, t.Type, t.Date, creator, now).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("insert test: %w", err)
	}
	return id, true, nil
}

func (sqlStore) setTestActive(ctx context.Context, q db.Querier, id int64, active bool) error {
	res, err := q.ExecContext(ctx, `UPDATE tests SET active = $1 WHERE id = $2`, db.BoolInt(active), id)
	if err != nil {
		return fmt.Errorf("update test #%d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("test #%d not found", id)
	}
	return nil
}

func (sqlStore) upsertPendingRole(ctx context.Context, q db.Querier, r RoleRequest, now int64) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO club_roles_pending (club_id, user_roll, role, can_post_questions, is_approve, requested_by, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (club_id, user_roll) DO UPDATE SET
		   role = EXCLUDED.role,
		   can_post_questions = EXCLUDED.can_post_questions,
		   is_approve = EXCLUDED.is_approve,
		   requested_by = EXCLUDED.requested_by,
		   created_at = EXCLUDED.created_at
		 RETURNING id`,
		r.ClubID, r.UserRoll, r.Role, db.BoolInt(r.CanPost), moderation.RoleWaiting, r.Actor.Roll, now).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert pending role (%d, %s): %w", r.ClubID, r.UserRoll, err)
	}
	return id, nil
}

func (sqlStore) insertClub(ctx context.Context, q db.Querier, c Club) (int64, bool, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO clubs (name, description) VALUES ($1,$2)
		 ON CONFLICT (name) DO NOTHING RETURNING id`, c.Name, c.Description).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("insert club %q: %w", c.Name, err)
	}
	return id, true, nil
}

func (sqlStore) listClubs(ctx context.Context, q db.Querier) ([]Club, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, description FROM clubs ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}
	defer rows.Close()
	out := []Club{}
	for rows.Next() {
		var c Club
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
