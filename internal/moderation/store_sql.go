package moderation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/db"
)

// sqlStore holds the queries of the Moderation Engine. Every method takes the
// Querier to run on so the service decides the transaction boundary.
type sqlStore struct {
	driver db.Driver
}

func (s sqlStore) lockPendingQuestion(ctx context.Context, q db.Querier, id int64) (PendingQuestion, error) {
	var (
		p   PendingQuestion
		tid sql.NullInt64
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, club_id, posted_by_roll, question_text, test_id, active
		   FROM questions_pending WHERE id = $1`+s.driver.ForUpdate(), id).
		Scan(&p.ID, &p.ClubID, &p.PostedBy, &p.QuestionText, &tid, &p.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return PendingQuestion{}, apperr.NotFound("pending question #%d not found", id)
	}
	if err != nil {
		return PendingQuestion{}, fmt.Errorf("load pending question #%d: %w", id, err)
	}
	if tid.Valid {
		p.TestID = &tid.Int64
	}
	return p, nil
}

func (s sqlStore) testActive(ctx context.Context, q db.Querier, testID int64) (bool, error) {
	var active int
	err := q.QueryRowContext(ctx, `SELECT active FROM tests WHERE id = $1`, testID).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, apperr.NotFound("linked test #%d not found", testID)
	}
	if err != nil {
		return false, fmt.Errorf("load test #%d: %w", testID, err)
	}
	return active == 1, nil
}

func (s sqlStore) pendingOptions(ctx context.Context, q db.Querier, pendingID int64) (Options, error) {
	var o Options
	err := q.QueryRowContext(ctx,
		`SELECT option_a, option_b, option_c, option_d, correct_option
		   FROM questions_pending_options WHERE pending_question_id = $1`, pendingID).
		Scan(&o.A, &o.B, &o.C, &o.D, &o.Correct)
	if errors.Is(err, sql.ErrNoRows) {
		return Options{}, apperr.Validation("options for pending question #%d not found", pendingID)
	}
	if err != nil {
		return Options{}, fmt.Errorf("load options for pending #%d: %w", pendingID, err)
	}
	return o, nil
}

func (s sqlStore) insertQuestion(ctx context.Context, q db.Querier, p PendingQuestion, o Options, now int64) (int64, error) {
	var tid any
	if p.TestID != nil {
		tid = *p.TestID
	}
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO questions (club_id, test_id, question_text, created_at)
		 VALUES ($1,$2,$3,$4) RETURNING id`,
		p.ClubID, tid, p.QuestionText, now).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert question from pending #%d: %w", p.ID, err)
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO options_four (question_id, option_a, option_b, option_c, option_d, correct_option)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		id, o.A, o.B, o.C, o.D, o.Correct)
	if err != nil {
		return 0, fmt.Errorf("insert options for question #%d: %w", id, err)
	}
	return id, nil
}

func (s sqlStore) deletePending(ctx context.Context, q db.Querier, id int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM questions_pending_options WHERE pending_question_id = $1`, id); err != nil {
		return fmt.Errorf("delete pending options #%d: %w", id, err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM questions_pending WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete pending question #%d: %w", id, err)
	}
	return nil
}

func (s sqlStore) deactivatePending(ctx context.Context, q db.Querier, id int64) error {
	_, err := q.ExecContext(ctx, `UPDATE questions_pending SET active = $1 WHERE id = $2`, PendingRejected, id)
	if err != nil {
		return fmt.Errorf("deactivate pending #%d: %w", id, err)
	}
	return nil
}

func (s sqlStore) groupMemberIDs(ctx context.Context, q db.Querier, k GroupKey) ([]int64, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if k.IsGeneral() {
		rows, err = q.QueryContext(ctx,
			`SELECT id FROM questions_pending
			  WHERE test_id IS NULL AND active = $1
			  ORDER BY id`, PendingAwaiting)
	} else {
		rows, err = q.QueryContext(ctx,
			`SELECT q.id
			   FROM questions_pending q
			   JOIN tests t ON t.id = q.test_id
			  WHERE t.test_type = $1 AND t.test_date = $2
			    AND t.active = 1 AND q.active = $3
			  ORDER BY q.id`, k.Type, k.Date, PendingAwaiting)
	}
	if err != nil {
		return nil, fmt.Errorf("select group %s: %w", k, err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s sqlStore) deleteGeneral(ctx context.Context, q db.Querier) (int64, error) {
	if _, err := q.ExecContext(ctx,
		`DELETE FROM questions_pending_options
		  WHERE pending_question_id IN (SELECT id FROM questions_pending WHERE test_id IS NULL)`); err != nil {
		return 0, fmt.Errorf("delete general options: %w", err)
	}
	res, err := q.ExecContext(ctx, `DELETE FROM questions_pending WHERE test_id IS NULL`)
	if err != nil {
		return 0, fmt.Errorf("delete general pending: %w", err)
	}
	return res.RowsAffected()
}

func (s sqlStore) deactivateTyped(ctx context.Context, q db.Querier, k GroupKey) (int64, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE questions_pending SET active = $1
		  WHERE active = $2
		    AND test_id IN (SELECT id FROM tests WHERE test_type = $3 AND test_date = $4)`,
		PendingRejected, PendingAwaiting, k.Type, k.Date)
	if err != nil {
		return 0, fmt.Errorf("deactivate group %s: %w", k, err)
	}
	return res.RowsAffected()
}

func (s sqlStore) lockPendingRole(ctx context.Context, q db.Querier, id int64) (PendingClubRole, error) {
	var (
		p       PendingClubRole
		canPost int
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, club_id, user_roll, role, can_post_questions, is_approve, requested_by
		   FROM club_roles_pending WHERE id = $1`+s.driver.ForUpdate(), id).
		Scan(&p.ID, &p.ClubID, &p.UserRoll, &p.Role, &canPost, &p.State, &p.Requested)
	if errors.Is(err, sql.ErrNoRows) {
		return PendingClubRole{}, apperr.NotFound("pending role #%d not found", id)
	}
	if err != nil {
		return PendingClubRole{}, fmt.Errorf("load pending role #%d: %w", id, err)
	}
	p.CanPost = canPost == 1
	return p, nil
}

func (s sqlStore) upsertClubRole(ctx context.Context, q db.Querier, p PendingClubRole, now int64) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO club_roles (club_id, user_roll, role, can_post_questions, approved_at)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (club_id, user_roll) DO UPDATE SET
		   role = EXCLUDED.role,
		   can_post_questions = EXCLUDED.can_post_questions,
		   approved_at = EXCLUDED.approved_at`,
		p.ClubID, p.UserRoll, p.Role, db.BoolInt(p.CanPost), now)
	if err != nil {
		return fmt.Errorf("upsert club role (%d, %s): %w", p.ClubID, p.UserRoll, err)
	}
	return nil
}

func (s sqlStore) setGlobalRole(ctx context.Context, q db.Querier, roll, role string) error {
	res, err := q.ExecContext(ctx, `UPDATE users SET role = $1 WHERE roll_no = $2`, role, roll)
	if err != nil {
		return fmt.Errorf("update global role of %s: %w", roll, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("user %s not found", roll)
	}
	return nil
}

func (s sqlStore) deleteClubRole(ctx context.Context, q db.Querier, club int64, roll string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM club_roles WHERE club_id = $1 AND user_roll = $2`, club, roll)
	if err != nil {
		return fmt.Errorf("delete club role (%d, %s): %w", club, roll, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("%s holds no role in club #%d", roll, club)
	}
	return nil
}

// globalRole returns users.role, or "" when the user row is gone.
func (s sqlStore) globalRole(ctx context.Context, q db.Querier, roll string) (string, error) {
	var role string
	err := q.QueryRowContext(ctx, `SELECT role FROM users WHERE roll_no = $1`+s.driver.ForUpdate(), roll).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load global role of %s: %w", roll, err)
	}
	return role, nil
}

func (s sqlStore) setRoleState(ctx context.Context, q db.Querier, id int64, state string) error {
	_, err := q.ExecContext(ctx, `UPDATE club_roles_pending SET is_approve = $1 WHERE id = $2`, state, id)
	if err != nil {
		return fmt.Errorf("mark pending role #%d %s: %w", id, state, err)
	}
	return nil
}

// groupRow is one awaiting pending question with its group coordinates.
type groupRow struct {
	clubName string
	testType sql.NullString
	testDate sql.NullString
}

func (s sqlStore) awaitingGroupRows(ctx context.Context, q db.Querier) ([]groupRow, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT c.name, t.test_type, t.test_date
		   FROM questions_pending q
		   JOIN clubs c ON c.id = q.club_id
		   LEFT JOIN tests t ON t.id = q.test_id
		  WHERE q.active = $1
		    AND (q.test_id IS NULL OR t.active = 1)`, PendingAwaiting)
	if err != nil {
		return nil, fmt.Errorf("list pending groups: %w", err)
	}
	defer rows.Close()
	var out []groupRow
	for rows.Next() {
		var r groupRow
		if err := rows.Scan(&r.clubName, &r.testType, &r.testDate); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s sqlStore) groupMembers(ctx context.Context, q db.Querier, k GroupKey) ([]PendingQuestion, error) {
	const cols = `SELECT q.id, q.club_id, c.name, q.posted_by_roll, q.question_text, q.test_id, q.active,
		       COALESCE(t.test_type, ''), COALESCE(t.test_date, ''),
		       o.option_a, o.option_b, o.option_c, o.option_d, o.correct_option
		  FROM questions_pending q
		  JOIN clubs c ON c.id = q.club_id
		  LEFT JOIN tests t ON t.id = q.test_id
		  LEFT JOIN questions_pending_options o ON o.pending_question_id = q.id`
	var (
		rows *sql.Rows
		err  error
	)
	if k.IsGeneral() {
		rows, err = q.QueryContext(ctx, cols+`
		 WHERE q.test_id IS NULL AND q.active = $1
		 ORDER BY q.id ASC`, PendingAwaiting)
	} else {
		rows, err = q.QueryContext(ctx, cols+`
		 WHERE t.test_type = $1 AND t.test_date = $2 AND t.active = 1 AND q.active = $3
		 ORDER BY q.id ASC`, k.Type, k.Date, PendingAwaiting)
	}
	if err != nil {
		return nil, fmt.Errorf("list group %s: %w", k, err)
	}
	defer rows.Close()
	out := []PendingQuestion{}
	for rows.Next() {
		var (
			p          PendingQuestion
			tid        sql.NullInt64
			a, b, c, d sql.NullString
			correct    sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.ClubID, &p.ClubName, &p.PostedBy, &p.QuestionText, &tid, &p.Active,
			&p.TestType, &p.TestDate, &a, &b, &c, &d, &correct); err != nil {
			return nil, err
		}
		if tid.Valid {
			p.TestID = &tid.Int64
		}
		if correct.Valid {
			p.Options = &Options{A: a.String, B: b.String, C: c.String, D: d.String, Correct: int(correct.Int64)}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s sqlStore) waitingRoles(ctx context.Context, q db.Querier) ([]PendingClubRole, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT p.id, p.club_id, c.name, p.user_roll, COALESCE(u.full_name, ''), COALESCE(u.class, ''),
		        p.role, p.can_post_questions, p.is_approve, p.requested_by
		   FROM club_roles_pending p
		   JOIN clubs c ON c.id = p.club_id
		   LEFT JOIN users u ON u.roll_no = p.user_roll
		  WHERE p.is_approve = $1
		  ORDER BY c.name ASC, p.user_roll ASC`, RoleWaiting)
	if err != nil {
		return nil, fmt.Errorf("list pending roles: %w", err)
	}
	defer rows.Close()
	out := []PendingClubRole{}
	for rows.Next() {
		var (
			p       PendingClubRole
			canPost int
		)
		if err := rows.Scan(&p.ID, &p.ClubID, &p.ClubName, &p.UserRoll, &p.FullName, &p.Class,
			&p.Role, &canPost, &p.State, &p.Requested); err != nil {
			return nil, err
		}
		p.CanPost = canPost == 1
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s sqlStore) clubRolesOf(ctx context.Context, q db.Querier, roll string) ([]ClubRole, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT club_id, user_roll, role, can_post_questions, approved_at
		   FROM club_roles WHERE user_roll = $1`, roll)
	if err != nil {
		return nil, fmt.Errorf("list club roles of %s: %w", roll, err)
	}
	defer rows.Close()
	var out []ClubRole
	for rows.Next() {
		var (
			r       ClubRole
			canPost int
		)
		if err := rows.Scan(&r.ClubID, &r.UserRoll, &r.Role, &canPost, &r.ApprovedAt); err != nil {
			return nil, err
		}
		r.CanPost = canPost == 1
		out = append(out, r)
	}
	return out, rows.Err()
}
