package reports

// Row is one user's summed result inside a report group.
type Row struct {
	UserRoll string `json:"user_roll"`
	FullName string `json:"full_name"`
	Class    string `json:"class"`
	Score    int    `json:"score"`
	Total    int    `json:"total_marks"`
}

// Group is every result of one date (daily) or one type+date (weekly).
type Group struct {
	Key   string `json:"key"`
	Type  string `json:"test_type"`
	Date  string `json:"test_date"`
	Items []Row  `json:"items"`
}

type Overall struct {
	Daily  []Group `json:"daily"`
	Weekly []Group `json:"weekly"`
}

// TestResult is one attempt's link row for a single test.
type TestResult struct {
	AttemptID   int64  `json:"attempt_id"`
	UserRoll    string `json:"user_roll"`
	FullName    string `json:"full_name"`
	Class       string `json:"class"`
	Score       int    `json:"score"`
	Total       int    `json:"total_marks"`
	SubmittedAt int64  `json:"submitted_at"`
}

type HistoryTest struct {
	TestID   int64  `json:"test_id"`
	ClubName string `json:"club_name"`
	Type     string `json:"test_type"`
	Date     string `json:"test_date"`
	Score    int    `json:"score"`
	Total    int    `json:"total_marks"`
}

type HistoryEntry struct {
	AttemptID   int64         `json:"attempt_id"`
	Score       int           `json:"score"`
	Total       int           `json:"total_marks"`
	SubmittedAt int64         `json:"submitted_at"`
	Tests       []HistoryTest `json:"tests"`
}
