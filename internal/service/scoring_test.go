package service

import (
	"school_quiz_backend/internal/config"
	"school_quiz_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsChoiceCorrect(t *testing.T) {
	multi := question(1, model.MultipleChoice, option(1, "a", true), option(2, "b", true), option(3, "c", false))
	noKey := question(2, model.SingleChoice, option(4, "a", false), option(5, "b", false))

	cases := []struct {
		name     string
		q        model.Question
		selected []uint
		want     bool
	}{
		{"exact set", multi, []uint{2, 1}, true},
		{"subset", multi, []uint{1}, false},
		{"superset", multi, []uint{1, 2, 3}, false},
		{"empty selection", multi, nil, false},
		{"duplicates collapse", multi, []uint{1, 1, 2}, true},
		{"no correct option", noKey, []uint{4}, false},
		{"no correct option empty selection", noKey, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsChoiceCorrect(tc.q, tc.selected))
		})
	}
}

func TestScoreAttemptHalf(t *testing.T) {
	qs := []model.Question{
		question(1, model.SingleChoice, option(11, "a", true), option(12, "b", false)),
		question(2, model.SingleChoice, option(21, "a", true), option(22, "b", false)),
		question(3, model.SingleChoice, option(31, "a", true), option(32, "b", false)),
		question(4, model.SingleChoice, option(41, "a", true), option(42, "b", false)),
	}
	answers := map[uint]*model.Answer{
		1: {SelectedOptionIDs: []uint{11}},
		2: {SelectedOptionIDs: []uint{21}},
		3: {SelectedOptionIDs: []uint{32}},
	}
	res, verdicts := ScoreAttempt(qs, answers, config.FreeTextNeverCorrect)
	assert.Equal(t, ScoreResult{Correct: 2, Total: 4, Percent: 50}, res)
	assert.Len(t, verdicts, 4)
	assert.False(t, verdicts[3].Correct)
	assert.True(t, verdicts[3].Counted)
	assert.True(t, Passed(res.Percent, 50))
	assert.False(t, Passed(res.Percent, 51))
}

func TestScoreAttemptNoQuestions(t *testing.T) {
	res, verdicts := ScoreAttempt(nil, nil, config.FreeTextNeverCorrect)
	assert.Equal(t, 0.0, res.Percent)
	assert.Empty(t, verdicts)
	assert.False(t, Passed(res.Percent, 50))
	assert.True(t, Passed(res.Percent, 0))
}

func TestScoreAttemptFreeText(t *testing.T) {
	qs := []model.Question{
		question(1, model.SingleChoice, option(11, "a", true)),
		question(2, model.FreeText),
		question(3, model.FreeText),
	}
	answers := map[uint]*model.Answer{
		1: {SelectedOptionIDs: []uint{11}},
		2: {TextAnswer: "ответ"},
		3: {TextAnswer: "   "},
	}

	res, _ := ScoreAttempt(qs, answers, config.FreeTextNeverCorrect)
	assert.Equal(t, ScoreResult{Correct: 1, Total: 3, Percent: 33.33}, res)

	res, _ = ScoreAttempt(qs, answers, config.FreeTextCountNonEmpty)
	assert.Equal(t, ScoreResult{Correct: 2, Total: 3, Percent: 66.67}, res)

	res, verdicts := ScoreAttempt(qs, answers, config.FreeTextExclude)
	assert.Equal(t, ScoreResult{Correct: 1, Total: 1, Percent: 100}, res)
	assert.False(t, verdicts[1].Counted)
}

func TestPercentRounding(t *testing.T) {
	assert.Equal(t, 66.67, Percent(2, 3))
	assert.Equal(t, 14.29, Percent(1, 7))
	assert.Equal(t, 100.0, Percent(7, 7))
	assert.Equal(t, 0.0, Percent(0, 0))
}

func TestPassedBoundary(t *testing.T) {
	assert.True(t, Passed(50, 50))
	assert.False(t, Passed(49.99, 50))
	assert.True(t, Passed(100, 100))
	assert.True(t, Passed(0, 0))
}
