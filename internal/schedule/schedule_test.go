package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
)

func TestParseSlot(t *testing.T) {
	t.Run("daily any weekday", func(t *testing.T) {
		s, err := ParseSlot("daily", "2024-05-01", time.UTC)
		require.NoError(t, err)
		assert.Equal(t, Daily, s.Type)
		assert.Equal(t, "2024-05-01", s.DateString())
	})

	t.Run("weekly on saturday", func(t *testing.T) {
		_, err := ParseSlot("weekly", "2024-05-04", time.UTC)
		assert.NoError(t, err)
	})

	t.Run("weekly rejects every non-saturday", func(t *testing.T) {
		// 2024-04-28 is a Sunday; walk the six days that follow it.
		start := time.Date(2024, 4, 28, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 6; i++ {
			d := start.AddDate(0, 0, i).Format(DateLayout)
			_, err := ParseSlot("weekly", d, time.UTC)
			assert.ErrorIs(t, err, apperr.ErrInvalidSchedule, d)
		}
	})

	t.Run("bad type", func(t *testing.T) {
		_, err := ParseSlot("monthly", "2024-05-01", time.UTC)
		assert.ErrorIs(t, err, apperr.ErrInvalidSchedule)
	})

	t.Run("malformed date", func(t *testing.T) {
		for _, d := range []string{"", "2024-13-01", "01/05/2024", "2024-5-1"} {
			_, err := ParseSlot("daily", d, time.UTC)
			assert.ErrorIs(t, err, apperr.ErrInvalidSchedule, d)
		}
	})
}

func TestCheckNotTomorrow(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	// 20:00 UTC on May 1 is already May 2 in Kolkata.
	now := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)

	cases := map[string]bool{
		"2024-05-01": false,
		"2024-05-02": false, // today in Kolkata
		"2024-05-03": true,  // tomorrow
		"2024-05-04": false, // later future days pass
		"2023-01-01": false,
	}
	for date, blocked := range cases {
		d, err := ParseDate(date, loc)
		require.NoError(t, err)
		err = CheckNotTomorrow(d, now, loc)
		if blocked {
			assert.ErrorIs(t, err, apperr.ErrFutureAttempt, date)
		} else {
			assert.NoError(t, err, date)
		}
	}
}
