package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatching(t *testing.T) {
	err := NotFound("pending question #%d not found", 7)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "pending question #7 not found", err.Error())

	wrapped := fmt.Errorf("approve group: %w", err)
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(KindAlreadyAttempted, sql.ErrNoRows, "attempt window taken")
	assert.ErrorIs(t, err, ErrAlreadyAttempted)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Equal(t, "attempt window taken: sql: no rows in result set", err.Error())
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("disk on fire")))
	assert.Equal(t, KindInternal, KindOf(nil))
}
