package attempt

import (
	"strings"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
	"github.com/mind-engage/mindengage-clubs/internal/grading"
)

// Submission is one user's answer sheet for a (type, date) slot.
//
// TestIDs is optional. When set it pins the resolved test set; Type and Date
// may then be left empty and are taken from the first test.
type Submission struct {
	UserRoll string
	Type     string
	Date     string
	TestIDs  []int64
	Answers  map[int64]int
}

// Validate checks the shape of s before any transaction opens.
func (s Submission) Validate() error {
	if strings.TrimSpace(s.UserRoll) == "" {
		return apperr.InvalidRequest("user identity required")
	}
	if len(s.Answers) == 0 {
		return apperr.Validation("no answers submitted")
	}
	for qid, sel := range s.Answers {
		if qid <= 0 {
			return apperr.Validation("invalid question id %d", qid)
		}
		if sel < 1 || sel > 4 {
			return apperr.Validation("question #%d: selected option must be 1-4, got %d", qid, sel)
		}
	}
	if len(s.TestIDs) == 0 && (strings.TrimSpace(s.Type) == "" || strings.TrimSpace(s.Date) == "") {
		return apperr.Validation("test type and date required")
	}
	for _, id := range s.TestIDs {
		if id <= 0 {
			return apperr.Validation("invalid test id %d", id)
		}
	}
	return nil
}

// Result is what a submission reports back.
type Result struct {
	AttemptID int64               `json:"attempt_id"`
	Type      string              `json:"test_type"`
	Date      string              `json:"test_date"`
	Score     int                 `json:"score"`
	Total     int                 `json:"total_marks"`
	Tests     []grading.TestScore `json:"tests"`
}
