package eventlog_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-clubs/internal/db"
	"github.com/mind-engage/mindengage-clubs/internal/db/dbtest"
	"github.com/mind-engage/mindengage-clubs/internal/eventlog"
)

func TestAppendAndSince(t *testing.T) {
	d := dbtest.Open(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, eventlog.Append(ctx, d.SQL, at, eventlog.QuestionApproved, "7", "admin", map[string]any{"question_id": 9}))
	require.NoError(t, eventlog.Append(ctx, d.SQL, at.Add(time.Minute), eventlog.AttemptSubmitted, "12", "s1", nil))

	all, err := eventlog.Since(ctx, d.SQL, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, eventlog.QuestionApproved, all[0].Type)
	assert.Equal(t, "local", all[0].SiteID)
	assert.JSONEq(t, `{"question_id":9}`, all[0].DataJSON)
	assert.Equal(t, "null", all[1].DataJSON)
	assert.Less(t, all[0].Seq, all[1].Seq)
	assert.Equal(t, at.Unix(), all[0].CreatedAt)
	assert.Equal(t, at.Unix()+60, all[1].CreatedAt)

	tail, err := eventlog.Since(ctx, d.SQL, all[0].Seq, 10)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, "12", tail[0].Key)
}

func TestAppendRollsBackWithTx(t *testing.T) {
	d := dbtest.Open(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTx(ctx, d, nil, func(tx *sql.Tx) error {
		require.NoError(t, eventlog.Append(ctx, tx, time.Now(), eventlog.GroupRejected, "GENERAL", "admin", nil))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, dbtest.Count(t, d, `SELECT COUNT(*) FROM event_log`))
}

func TestAppendUnmarshalable(t *testing.T) {
	d := dbtest.Open(t)
	err := eventlog.Append(context.Background(), d.SQL, time.Now(), eventlog.TestCreated, "1", "x", make(chan int))
	assert.Error(t, err)
}
