// Package grading scores an answer sheet against canonical correct options.
// It is pure: no store access, no clock, no hidden state.
package grading

import (
	"sort"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
)

// Q is the view of a canonical question needed for grading.
type Q struct {
	ID      int64
	TestID  int64 // 0 for a general question
	Correct int
}

// Result is the outcome of grading a single question response.
type Result struct {
	Points    int
	MaxPoints int
}

// Strategy grades a single question.
type Strategy interface {
	Grade(q Q, selected int) Result
}

type mcq4Strategy struct{}

func (mcq4Strategy) Grade(q Q, selected int) Result {
	res := Result{MaxPoints: 1}
	if selected == q.Correct {
		res.Points = 1
	}
	return res
}

// Answer is one graded response.
type Answer struct {
	QuestionID int64 `json:"question_id"`
	TestID     int64 `json:"test_id,omitempty"`
	Selected   int   `json:"selected_option"`
	Correct    bool  `json:"correct"`
}

// TestScore is the per-test slice of a sheet.
type TestScore struct {
	TestID int64 `json:"test_id"`
	Score  int   `json:"score"`
	Total  int   `json:"total_marks"`
}

// Sheet is a graded submission.
type Sheet struct {
	Score   int         `json:"score"`
	Total   int         `json:"total_marks"`
	Answers []Answer    `json:"answers"`
	Tests   []TestScore `json:"tests"`
}

// Input bundles what Grade needs.
//
// Answers maps question id to the selected option. Questions holds the
// canonical key of every answered question. TestIDs is the resolved test set,
// in the order the link rows should be written. Totals is the canonical
// question count per test.
type Input struct {
	Answers   map[int64]int
	Questions map[int64]Q
	TestIDs   []int64
	Totals    map[int64]int
}

type Grader struct {
	strategy Strategy
}

type Option func(*Grader)

// WithStrategy replaces the per-question strategy.
func WithStrategy(s Strategy) Option { return func(g *Grader) { g.strategy = s } }

func NewGrader(opts ...Option) *Grader {
	g := &Grader{strategy: mcq4Strategy{}}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Grade scores in.Answers. The overall total is the number of answered
// questions. A test's total is its canonical question count, falling back to
// the number of answers mapped to it when the canonical count is zero.
//
// Every answered question must be known, select 1..4, and be linked to one
// of in.TestIDs. General questions are never delivered, so they are rejected.
func (g *Grader) Grade(in Input) (Sheet, error) {
	if len(in.Answers) == 0 {
		return Sheet{}, apperr.Validation("no answers submitted")
	}
	resolved := make(map[int64]bool, len(in.TestIDs))
	for _, id := range in.TestIDs {
		resolved[id] = true
	}

	ids := make([]int64, 0, len(in.Answers))
	for id := range in.Answers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	sheet := Sheet{Answers: make([]Answer, 0, len(ids))}
	score := map[int64]int{}
	mapped := map[int64]int{}
	for _, id := range ids {
		sel := in.Answers[id]
		if sel < 1 || sel > 4 {
			return Sheet{}, apperr.Validation("question #%d: selected option must be 1-4, got %d", id, sel)
		}
		q, ok := in.Questions[id]
		if !ok {
			return Sheet{}, apperr.Validation("question #%d does not exist", id)
		}
		if q.TestID == 0 || !resolved[q.TestID] {
			return Sheet{}, apperr.Validation("question #%d does not belong to this test", id)
		}
		r := g.strategy.Grade(q, sel)
		sheet.Score += r.Points
		sheet.Total += r.MaxPoints
		score[q.TestID] += r.Points
		mapped[q.TestID] += r.MaxPoints
		sheet.Answers = append(sheet.Answers, Answer{
			QuestionID: id, TestID: q.TestID, Selected: sel, Correct: r.Points > 0,
		})
	}

	sheet.Tests = make([]TestScore, 0, len(in.TestIDs))
	for _, tid := range in.TestIDs {
		total := in.Totals[tid]
		if total == 0 {
			total = mapped[tid]
		}
		sheet.Tests = append(sheet.Tests, TestScore{TestID: tid, Score: score[tid], Total: total})
	}
	return sheet, nil
}
