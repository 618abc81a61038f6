package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-clubs/internal/apperr"
)

func TestGradeOverall(t *testing.T) {
	g := NewGrader()
	in := Input{
		Answers: map[int64]int{1: 1, 2: 3},
		Questions: map[int64]Q{
			1: {ID: 1, TestID: 10, Correct: 1},
			2: {ID: 2, TestID: 10, Correct: 2},
		},
		TestIDs: []int64{10},
		Totals:  map[int64]int{10: 2},
	}
	sheet, err := g.Grade(in)
	require.NoError(t, err)
	assert.Equal(t, 1, sheet.Score)
	assert.Equal(t, 2, sheet.Total)
	require.Len(t, sheet.Answers, 2)
	assert.True(t, sheet.Answers[0].Correct)
	assert.False(t, sheet.Answers[1].Correct)
	assert.Equal(t, []TestScore{{TestID: 10, Score: 1, Total: 2}}, sheet.Tests)

	again, err := g.Grade(in)
	require.NoError(t, err)
	assert.Equal(t, sheet, again)
}

func TestGradePerTestTotals(t *testing.T) {
	g := NewGrader()
	in := Input{
		Answers: map[int64]int{1: 2, 2: 2, 3: 4},
		Questions: map[int64]Q{
			1: {ID: 1, TestID: 10, Correct: 2},
			2: {ID: 2, TestID: 10, Correct: 3},
			3: {ID: 3, TestID: 20, Correct: 4},
		},
		TestIDs: []int64{10, 20},
		Totals:  map[int64]int{10: 2, 20: 1},
	}
	sheet, err := g.Grade(in)
	require.NoError(t, err)
	assert.Equal(t, 2, sheet.Score)
	assert.Equal(t, 3, sheet.Total)
	assert.Equal(t, []TestScore{
		{TestID: 10, Score: 1, Total: 2},
		{TestID: 20, Score: 1, Total: 1},
	}, sheet.Tests)

	sum := 0
	for _, ts := range sheet.Tests {
		sum += ts.Total
	}
	assert.Equal(t, sheet.Total, sum)
}

func TestGradeTotalFallsBackToMappedAnswers(t *testing.T) {
	sheet, err := NewGrader().Grade(Input{
		Answers:   map[int64]int{1: 1, 2: 1},
		Questions: map[int64]Q{1: {ID: 1, TestID: 10, Correct: 1}, 2: {ID: 2, TestID: 10, Correct: 1}},
		TestIDs:   []int64{10, 30},
		Totals:    map[int64]int{},
	})
	require.NoError(t, err)
	assert.Equal(t, []TestScore{{TestID: 10, Score: 2, Total: 2}, {TestID: 30}}, sheet.Tests)
}

func TestGradeRejects(t *testing.T) {
	g := NewGrader()
	base := map[int64]Q{
		1: {ID: 1, TestID: 10, Correct: 1},
		2: {ID: 2, TestID: 99, Correct: 1},
		3: {ID: 3, Correct: 1},
	}

	cases := map[string]map[int64]int{
		"empty":        {},
		"unknown":      {7: 1},
		"out of range": {1: 5},
		"zero option":  {1: 0},
		"foreign test": {2: 1},
		"general":      {1: 1, 3: 1},
	}
	for name, answers := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := g.Grade(Input{Answers: answers, Questions: base, TestIDs: []int64{10}})
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

type allCorrect struct{}

func (allCorrect) Grade(Q, int) Result { return Result{Points: 1, MaxPoints: 1} }

func TestWithStrategy(t *testing.T) {
	sheet, err := NewGrader(WithStrategy(allCorrect{})).Grade(Input{
		Answers:   map[int64]int{1: 3},
		Questions: map[int64]Q{1: {ID: 1, TestID: 10, Correct: 1}},
		TestIDs:   []int64{10},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sheet.Score)
}
