package delivery

// Test is an active test taking part in a resolved slot.
type Test struct {
	ID       int64  `json:"id"`
	ClubID   int64  `json:"club_id"`
	ClubName string `json:"club_name"`
	Title    string `json:"title"`
	Type     string `json:"test_type"`
	Date     string `json:"test_date"`
}

// Question is a canonical question as shown to a test-taker. The correct
// option never leaves the store through this type.
type Question struct {
	ID       int64  `json:"id"`
	TestID   int64  `json:"test_id"`
	ClubID   int64  `json:"club_id"`
	ClubName string `json:"club_name"`
	Text     string `json:"question_text"`
	OptionA  string `json:"option_a"`
	OptionB  string `json:"option_b"`
	OptionC  string `json:"option_c"`
	OptionD  string `json:"option_d"`
}

// Resolved is the ordered question set of one (type, date) slot across
// every club. QuestionTest maps each question to the test it belongs to.
type Resolved struct {
	Type         string          `json:"test_type"`
	Date         string          `json:"test_date"`
	Tests        []Test          `json:"tests"`
	Questions    []Question      `json:"questions"`
	QuestionTest map[int64]int64 `json:"question_test"`
}

// TestIDs returns the ids of r.Tests in order.
func (r Resolved) TestIDs() []int64 {
	out := make([]int64, len(r.Tests))
	for i, t := range r.Tests {
		out[i] = t.ID
	}
	return out
}
