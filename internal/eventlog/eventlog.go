// Package eventlog is the append-only audit trail of moderation transitions
// and attempt submissions. Events are written through the caller's
// transaction so they commit or roll back with the change they describe.
package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-clubs/internal/db"
)

const (
	QuestionApproved  = "QuestionApproved"
	QuestionRejected  = "QuestionRejected"
	GroupApproved     = "GroupApproved"
	GroupRejected     = "GroupRejected"
	ClubRoleApproved  = "ClubRoleApproved"
	ClubRoleRejected  = "ClubRoleRejected"
	ClubRoleRequested = "ClubRoleRequested"
	ClubRoleRemoved   = "ClubRoleRemoved"
	QuestionsPosted   = "QuestionsPosted"
	TestCreated       = "TestCreated"
	TestToggled       = "TestToggled"
	AttemptSubmitted  = "AttemptSubmitted"
)

type Event struct {
	Seq       int64
	SiteID    string
	Type      string
	Key       string
	Actor     string
	DataJSON  string
	CreatedAt int64
}

// Append writes one event stamped at. data is marshalled to JSON.
func Append(ctx context.Context, q db.Querier, at time.Time, typ, key, actor string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("eventlog: marshal %s: %w", typ, err)
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, actor, data, created_at)
		 VALUES ('local',$1,$2,$3,$4,$5)`,
		typ, key, actor, string(buf), at.Unix())
	if err != nil {
		return fmt.Errorf("eventlog: append %s: %w", typ, err)
	}
	return nil
}

// Since lists events with seq > after, oldest first.
func Since(ctx context.Context, q db.Querier, after int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := q.QueryContext(ctx,
		`SELECT seq, site_id, typ, key, actor, data, created_at
		   FROM event_log WHERE seq > $1 ORDER BY seq ASC LIMIT $2`, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &e.Actor, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
